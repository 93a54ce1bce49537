package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/wakala/be2bill/internal/domain"
)

type NotificationRepo struct {
	db *sql.DB
}

func NewNotificationRepo(db *sql.DB) *NotificationRepo {
	return &NotificationRepo{db: db}
}

// Insert stores n and sets its ID.
func (r *NotificationRepo) Insert(ctx context.Context, n *domain.StoredNotification) error {
	params, err := json.Marshal(n.Params)
	if err != nil {
		return fmt.Errorf("encode params: %w", err)
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO notifications
		(operation_type, transaction_id, order_id, exec_code, message, amount, params, received_at)
		VALUES (?,?,?,?,?,?,?,?)`,
		n.OperationType, n.TransactionID, n.OrderID, n.ExecCode, n.Message, n.Amount,
		string(params), n.ReceivedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	n.ID, _ = res.LastInsertId()
	return nil
}

// NotificationFilter holds optional filters for listing notifications.
type NotificationFilter struct {
	TransactionID string
	OrderID       string
	Limit         int
	Offset        int
}

// List returns matching notifications, newest first.
func (r *NotificationRepo) List(ctx context.Context, f NotificationFilter) ([]domain.StoredNotification, error) {
	query := `SELECT id, operation_type, transaction_id, order_id, exec_code, message, amount, params, received_at
		FROM notifications WHERE 1=1`
	var args []any

	if f.TransactionID != "" {
		query += " AND transaction_id = ?"
		args = append(args, f.TransactionID)
	}
	if f.OrderID != "" {
		query += " AND order_id = ?"
		args = append(args, f.OrderID)
	}

	query += " ORDER BY id DESC"

	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	query += " LIMIT ? OFFSET ?"
	args = append(args, limit, f.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var out []domain.StoredNotification
	for rows.Next() {
		var (
			n                      domain.StoredNotification
			paramsStr, receivedStr string
		)
		if err := rows.Scan(
			&n.ID, &n.OperationType, &n.TransactionID, &n.OrderID, &n.ExecCode,
			&n.Message, &n.Amount, &paramsStr, &receivedStr,
		); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(paramsStr), &n.Params); err != nil {
			return nil, fmt.Errorf("decode params of notification %d: %w", n.ID, err)
		}
		n.ReceivedAt, _ = time.Parse(time.RFC3339, receivedStr)
		out = append(out, n)
	}
	return out, rows.Err()
}
