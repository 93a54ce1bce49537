package domain

import "time"

type RunStatus string

const (
	RunRunning  RunStatus = "running"
	RunFinished RunStatus = "finished"
	RunFailed   RunStatus = "failed"
)

// BatchRun is one execution of a batch file.
type BatchRun struct {
	ID         string     `json:"id"`
	Source     string     `json:"source"`
	Status     RunStatus  `json:"status"`
	Error      string     `json:"error,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// BatchLine is the stored outcome of one processed batch line. Result is
// nil when the line got no answer from the gateway.
type BatchLine struct {
	RunID         string    `json:"run_id"`
	Line          int       `json:"line"`
	OrderID       string    `json:"order_id,omitempty"`
	TransactionID string    `json:"transaction_id,omitempty"`
	ExecCode      string    `json:"exec_code,omitempty"`
	Message       string    `json:"message,omitempty"`
	Record        Record    `json:"record"`
	Result        Result    `json:"result"`
	ProcessedAt   time.Time `json:"processed_at"`
}

// StoredNotification is a verified server-to-server notification received
// from the gateway.
type StoredNotification struct {
	ID            int64             `json:"id"`
	OperationType string            `json:"operation_type,omitempty"`
	TransactionID string            `json:"transaction_id,omitempty"`
	OrderID       string            `json:"order_id,omitempty"`
	ExecCode      string            `json:"exec_code,omitempty"`
	Message       string            `json:"message,omitempty"`
	Amount        string            `json:"amount,omitempty"`
	Params        map[string]string `json:"params"`
	ReceivedAt    time.Time         `json:"received_at"`
}
