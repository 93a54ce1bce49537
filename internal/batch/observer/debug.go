// Package observer holds the batch observers: console and CSV reports,
// throttling, persistence, publishing and metrics.
package observer

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/wakala/be2bill/internal/batch"
	"github.com/wakala/be2bill/internal/domain"
)

// Debug prints a one-line summary of every processed line.
type Debug struct {
	w io.Writer
}

func NewDebug(w io.Writer) *Debug {
	return &Debug{w: w}
}

// Update writes "Line N (ORDERID=x) : EXECCODE=... MESSAGE=... TRANSACTIONID=..."
// with N counted from 1. Absent fields are left out.
func (d *Debug) Update(_ context.Context, n batch.Notification) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Line %d", n.Line+1)
	if id, ok := n.Record[domain.KeyOrderID]; ok {
		fmt.Fprintf(&b, " (ORDERID=%s)", id)
	}
	b.WriteString(" :")
	for _, key := range []string{domain.ResultExecCode, domain.ResultMessage, domain.KeyTransactionID} {
		if v, ok := n.Result.Get(key); ok {
			fmt.Fprintf(&b, " %s=%s", key, v)
		}
	}
	b.WriteByte('\n')

	if _, err := io.WriteString(d.w, b.String()); err != nil {
		return fmt.Errorf("write debug line: %w", err)
	}
	return nil
}
