package observer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/wakala/be2bill/internal/batch"
	"github.com/wakala/be2bill/internal/domain"
)

// MessagePublisher is satisfied by *nats.Conn.
type MessagePublisher interface {
	Publish(subject string, data []byte) error
}

// LineEvent is the message published for every processed line.
type LineEvent struct {
	RunID     string        `json:"run_id,omitempty"`
	Line      int           `json:"line"`
	Succeeded bool          `json:"succeeded"`
	Record    domain.Record `json:"record"`
	Result    domain.Result `json:"result"`
}

// Publisher emits a LineEvent per processed line on subject.
type Publisher struct {
	pub     MessagePublisher
	subject string
	runID   string
}

func NewPublisher(pub MessagePublisher, subject, runID string) *Publisher {
	return &Publisher{pub: pub, subject: subject, runID: runID}
}

func (p *Publisher) Update(_ context.Context, n batch.Notification) error {
	data, err := json.Marshal(LineEvent{
		RunID:     p.runID,
		Line:      n.Line,
		Succeeded: n.Result.Succeeded(),
		Record:    n.Record,
		Result:    n.Result,
	})
	if err != nil {
		return fmt.Errorf("encode line event: %w", err)
	}
	if err := p.pub.Publish(p.subject, data); err != nil {
		return fmt.Errorf("publish line %d to %s: %w", n.Line, p.subject, err)
	}
	return nil
}
