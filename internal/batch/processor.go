// Package batch drives a CSV file of gateway operations line by line and
// reports each outcome to attached observers.
package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"reflect"

	"go.uber.org/zap"

	"github.com/wakala/be2bill/internal/domain"
)

var (
	ErrMissingHeader    = errors.New("batch file has no header")
	ErrDisallowedColumn = errors.New("column not allowed in batch file")
	ErrInvalidLine      = errors.New("invalid batch line")
)

// Client is the part of the direct-link client a batch needs.
type Client interface {
	Identifier() string
	Hash(params domain.Params) string
	DirectLinkURLs() []string
	Requests(ctx context.Context, urls []string, params domain.Params) (domain.Result, error)
}

// Notification describes one processed line. Line counts processed lines
// only, from zero. Record is the line as read, empty fields included.
// Result is nil when no endpoint answered.
type Notification struct {
	Line    int
	Record  domain.Record
	Result  domain.Result
	Dialect Dialect
}

// Observer receives every notification of a run, in line order. A returned
// error aborts the run. Comparable observers (usually pointers) are
// deduplicated by identity; non-comparable ones are always distinct.
type Observer interface {
	Update(ctx context.Context, n Notification) error
}

// Processor runs batch files. It is not safe for concurrent runs.
type Processor struct {
	client    Client
	dialect   Dialect
	observers []Observer
	logger    *zap.Logger
}

type Option func(*Processor)

func WithDialect(d Dialect) Option {
	return func(p *Processor) {
		p.dialect = d
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(p *Processor) {
		if l != nil {
			p.logger = l
		}
	}
}

func NewProcessor(client Client, opts ...Option) *Processor {
	p := &Processor{
		client:  client,
		dialect: DefaultDialect(),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Processor) Dialect() Dialect {
	return p.dialect
}

// Attach adds o unless it is already attached.
func (p *Processor) Attach(o Observer) {
	if o == nil {
		return
	}
	if p.indexOf(o) >= 0 {
		return
	}
	p.observers = append(p.observers, o)
}

// Detach removes o. Detaching an unknown or non-comparable observer does
// nothing.
func (p *Processor) Detach(o Observer) {
	if i := p.indexOf(o); i >= 0 {
		p.observers = append(p.observers[:i], p.observers[i+1:]...)
	}
}

func (p *Processor) indexOf(o Observer) int {
	if o == nil || !reflect.TypeOf(o).Comparable() {
		return -1
	}
	for i, existing := range p.observers {
		if existing == o {
			return i
		}
	}
	return -1
}

// Run processes every line of in. Blank lines are skipped. A failed
// submission is reported to observers with a nil Result and does not stop
// the run; a malformed file, an observer error or ctx cancellation does.
func (p *Processor) Run(ctx context.Context, in io.Reader) error {
	if err := p.dialect.validate(); err != nil {
		return fmt.Errorf("batch dialect: %w", err)
	}
	reader := NewReader(in, p.dialect)

	headers, err := reader.Read()
	if errors.Is(err, io.EOF) || (err == nil && len(headers) == 0) {
		return ErrMissingHeader
	}
	if err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	if err := validateHeaders(headers); err != nil {
		return err
	}

	urls := p.client.DirectLinkURLs()
	processed := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidLine, err)
		}
		if len(fields) == 0 {
			continue
		}
		if len(fields) != len(headers) {
			return fmt.Errorf("%w: line %d has %d fields, header has %d",
				ErrInvalidLine, reader.Line(), len(fields), len(headers))
		}

		record := make(domain.Record, len(headers))
		for i, h := range headers {
			record[h] = fields[i]
		}

		result, err := p.client.Requests(ctx, urls, p.prepare(record))
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			p.logger.Warn("batch line failed",
				zap.Int("line", reader.Line()),
				zap.String("orderid", record[domain.KeyOrderID]),
				zap.Error(err),
			)
			result = nil
		}

		n := Notification{
			Line:    processed,
			Record:  record,
			Result:  result,
			Dialect: p.dialect,
		}
		if err := p.notify(ctx, n); err != nil {
			return err
		}
		processed++
	}

	p.logger.Info("batch finished",
		zap.Int("lines_read", reader.Line()),
		zap.Int("lines_processed", processed),
	)
	return nil
}

// prepare drops empty and "0" columns, injects the identifier and signs.
// The record itself keeps every column for observers.
func (p *Processor) prepare(record domain.Record) domain.Params {
	sent := record.Clone()
	for k, v := range sent {
		if isFalsy(v) {
			delete(sent, k)
		}
	}
	params := domain.ParamsFromRecord(sent)
	params.SetString(domain.KeyIdentifier, p.client.Identifier())
	params.SetString(domain.KeyHash, p.client.Hash(params))
	return params
}

// isFalsy matches the values a batch line leaves out: optional columns are
// either blank or "0".
func isFalsy(v string) bool {
	return v == "" || v == "0"
}

func (p *Processor) notify(ctx context.Context, n Notification) error {
	for _, o := range p.observers {
		if err := o.Update(ctx, n); err != nil {
			return fmt.Errorf("observer %T at line %d: %w", o, n.Line, err)
		}
	}
	return nil
}

func validateHeaders(headers []string) error {
	for _, h := range headers {
		if h == domain.KeyIdentifier || h == domain.KeyHash {
			return fmt.Errorf("%w: %s", ErrDisallowedColumn, h)
		}
	}
	return nil
}
