package observer

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/wakala/be2bill/internal/batch"
)

type truncater interface {
	Truncate(size int64) error
}

// FileReport writes every processed line, request fields and result fields
// together, to a CSV sink. Result fields vary between responses; when a new
// one shows up the whole report is rewritten with the wider header, so the
// file is always rectangular.
type FileReport struct {
	sink   io.WriteSeeker
	closer io.Closer

	started     bool
	headers     []string
	knownResult map[string]bool
	rows        []map[string]string
}

// NewFileReport writes to sink. The caller keeps ownership of it.
func NewFileReport(sink io.WriteSeeker) *FileReport {
	return &FileReport{sink: sink, knownResult: make(map[string]bool)}
}

// NewFileReportPath creates (or truncates) the file at path. Close closes it.
func NewFileReportPath(path string) (*FileReport, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create report file: %w", err)
	}
	r := NewFileReport(f)
	r.closer = f
	return r, nil
}

func (r *FileReport) Update(_ context.Context, n batch.Notification) error {
	merged := make(map[string]string, len(n.Record)+len(n.Result))
	for k, v := range n.Record {
		merged[k] = v
	}
	for k, v := range n.Result {
		merged[k] = v
	}

	w := batch.NewWriter(r.sink, n.Dialect)

	if !r.started {
		r.started = true
		seen := make(map[string]bool)
		for _, k := range n.Record.Keys() {
			seen[k] = true
		}
		for _, k := range n.Result.Keys() {
			seen[k] = true
			r.knownResult[k] = true
		}
		r.headers = sortedKeys(seen)
		if err := w.Write(r.headers); err != nil {
			return fmt.Errorf("write report header: %w", err)
		}
	}

	r.rows = append(r.rows, merged)

	var newKeys []string
	for _, k := range n.Result.Keys() {
		if !r.knownResult[k] {
			newKeys = append(newKeys, k)
		}
	}
	if len(newKeys) == 0 {
		if err := w.Write(r.row(merged)); err != nil {
			return fmt.Errorf("write report line %d: %w", n.Line, err)
		}
		return nil
	}

	all := make(map[string]bool, len(r.headers)+len(newKeys))
	for _, h := range r.headers {
		all[h] = true
	}
	for _, k := range newKeys {
		r.knownResult[k] = true
		all[k] = true
	}
	r.headers = sortedKeys(all)
	return r.rewrite(w)
}

func (r *FileReport) rewrite(w *batch.Writer) error {
	if _, err := r.sink.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewind report: %w", err)
	}
	if t, ok := r.sink.(truncater); ok {
		if err := t.Truncate(0); err != nil {
			return fmt.Errorf("truncate report: %w", err)
		}
	}
	if err := w.Write(r.headers); err != nil {
		return fmt.Errorf("rewrite report header: %w", err)
	}
	for i, row := range r.rows {
		if err := w.Write(r.row(row)); err != nil {
			return fmt.Errorf("rewrite report row %d: %w", i, err)
		}
	}
	return nil
}

// row lays out a merged record along the current header; missing fields
// are empty.
func (r *FileReport) row(merged map[string]string) []string {
	out := make([]string, len(r.headers))
	for i, h := range r.headers {
		out[i] = merged[h]
	}
	return out
}

// Close closes the sink when the report opened it.
func (r *FileReport) Close() error {
	if r.closer == nil {
		return nil
	}
	err := r.closer.Close()
	r.closer = nil
	return err
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
