package batch

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Dialect is the delimiter and quote character of a batch file. Report
// observers write with the same dialect the input was read with.
type Dialect struct {
	Delimiter rune
	Enclosure rune
}

// DefaultDialect is semicolon separated, double-quote enclosed.
func DefaultDialect() Dialect {
	return Dialect{Delimiter: ';', Enclosure: '"'}
}

func (d Dialect) validate() error {
	if d.Delimiter == 0 || d.Enclosure == 0 {
		return errors.New("dialect delimiter and enclosure are required")
	}
	if d.Delimiter == d.Enclosure {
		return errors.New("dialect delimiter and enclosure must differ")
	}
	if d.Delimiter == '\n' || d.Delimiter == '\r' || d.Enclosure == '\n' || d.Enclosure == '\r' {
		return errors.New("dialect cannot use line breaks")
	}
	return nil
}

var errUnterminatedQuote = errors.New("unterminated quoted field")

// Reader reads dialect-delimited records. Unlike encoding/csv it takes an
// arbitrary enclosure character and reports blank lines instead of
// skipping them.
type Reader struct {
	r       *bufio.Reader
	d       Dialect
	line    int
	pending string
}

func NewReader(r io.Reader, d Dialect) *Reader {
	return &Reader{r: bufio.NewReader(r), d: d}
}

// Line returns the number of physical lines consumed so far.
func (r *Reader) Line() int {
	return r.line
}

// Read returns the next record. A blank line yields an empty, non-nil
// slice. io.EOF is returned once the input is exhausted.
func (r *Reader) Read() ([]string, error) {
	text, eol, err := r.readLine()
	if err != nil {
		return nil, err
	}
	if text == "" {
		return []string{}, nil
	}

	var (
		fields []string
		field  strings.Builder
		quoted bool
	)
	atStart := true
	for {
		runes := []rune(text)
		for i := 0; i < len(runes); i++ {
			c := runes[i]
			switch {
			case quoted:
				if c == r.d.Enclosure {
					if i+1 < len(runes) && runes[i+1] == r.d.Enclosure {
						field.WriteRune(c)
						i++
						continue
					}
					quoted = false
					continue
				}
				field.WriteRune(c)
			case c == r.d.Delimiter:
				fields = append(fields, field.String())
				field.Reset()
				atStart = true
				continue
			case c == r.d.Enclosure && atStart:
				quoted = true
			default:
				field.WriteRune(c)
			}
			atStart = false
		}
		if !quoted {
			break
		}
		next, nextEOL, err := r.readLine()
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("line %d: %w", r.line, errUnterminatedQuote)
		}
		if err != nil {
			return nil, err
		}
		// Inside quotes the line break is data and keeps its exact form.
		field.WriteString(eol)
		text, eol = next, nextEOL
	}
	fields = append(fields, field.String())
	return fields, nil
}

// readLine returns the next physical line without its terminator, and the
// terminator itself ("\n", "\r\n" or "" at end of input).
func (r *Reader) readLine() (string, string, error) {
	s, err := r.r.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", "", fmt.Errorf("read line: %w", err)
	}
	if errors.Is(err, io.EOF) && s == "" {
		return "", "", io.EOF
	}
	r.line++
	switch {
	case strings.HasSuffix(s, "\r\n"):
		return s[:len(s)-2], "\r\n", nil
	case strings.HasSuffix(s, "\n"):
		return s[:len(s)-1], "\n", nil
	case strings.HasSuffix(s, "\r"):
		return s[:len(s)-1], "\r", nil
	}
	return s, "", nil
}

// Writer writes dialect-delimited records, enclosing a field when it
// contains the delimiter, the enclosure, a space, a tab or a line break.
// Enclosures inside a field are doubled.
type Writer struct {
	w io.Writer
	d Dialect
}

func NewWriter(w io.Writer, d Dialect) *Writer {
	return &Writer{w: w, d: d}
}

func (w *Writer) Write(fields []string) error {
	var b strings.Builder
	for i, f := range fields {
		if i > 0 {
			b.WriteRune(w.d.Delimiter)
		}
		if !w.needsEnclosure(f) {
			b.WriteString(f)
			continue
		}
		enc := string(w.d.Enclosure)
		b.WriteString(enc)
		b.WriteString(strings.ReplaceAll(f, enc, enc+enc))
		b.WriteString(enc)
	}
	b.WriteByte('\n')
	_, err := io.WriteString(w.w, b.String())
	return err
}

func (w *Writer) needsEnclosure(f string) bool {
	return strings.ContainsRune(f, w.d.Delimiter) ||
		strings.ContainsRune(f, w.d.Enclosure) ||
		strings.ContainsAny(f, " \t\r\n")
}
