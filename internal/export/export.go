// Package export serializes a working set to delimited text.
package export

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/amrverse/amrrulebrowser/internal/rules"
)

var (
	// ErrNoData is returned when the working set has no rows.
	ErrNoData = errors.New("no data to export")
	// ErrUnknownFormat is returned for a format token other than tsv or csv.
	ErrUnknownFormat = errors.New("unknown export format")
)

// Format is a delimited output format.
type Format string

const (
	TSV Format = "tsv"
	CSV Format = "csv"
)

// ParseFormat accepts "tsv" or "csv" in any case.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case TSV, CSV:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// Separator returns the field separator of f.
func (f Format) Separator() string {
	if f == CSV {
		return ","
	}
	return "\t"
}

// ContentType returns the MIME type used when serving f.
func (f Format) ContentType() string {
	if f == CSV {
		return "text/csv;charset=utf-8"
	}
	return "text/tab-separated-values;charset=utf-8"
}

// FileName returns the suggested download name.
func (f Format) FileName() string {
	return "amrrules_data." + string(f)
}

// Writer writes a header line and rows in one format.
type Writer struct {
	w       *bufio.Writer
	format  Format
	headers []string
}

// NewWriter creates a writer for headers in format f.
func NewWriter(w io.Writer, headers []string, f Format) *Writer {
	return &Writer{w: bufio.NewWriter(w), format: f, headers: headers}
}

// WriteHeader writes the header line.
func (ew *Writer) WriteHeader() error {
	fields := make([]string, len(ew.headers))
	for i, h := range ew.headers {
		fields[i] = ew.field(h, h)
	}
	_, err := ew.w.WriteString(strings.Join(fields, ew.format.Separator()) + "\n")
	return err
}

// Write writes one row. Columns the row lacks are written empty.
func (ew *Writer) Write(r rules.Row) error {
	fields := make([]string, len(ew.headers))
	for i, h := range ew.headers {
		fields[i] = ew.field(h, r.Value(h))
	}
	_, err := ew.w.WriteString(strings.Join(fields, ew.format.Separator()) + "\n")
	return err
}

// Flush writes any buffered data.
func (ew *Writer) Flush() error {
	return ew.w.Flush()
}

// field quotes v for CSV. The curation note column is written raw in both
// formats; its values already carry their own quote characters.
func (ew *Writer) field(column, v string) string {
	if ew.format != CSV || column == rules.ColCurationNote {
		return v
	}
	return `"` + strings.ReplaceAll(v, `"`, `""`) + `"`
}

// Encode writes headers and rows in order to w.
func Encode(w io.Writer, headers []string, rows []rules.Row, f Format) error {
	if len(rows) == 0 {
		return ErrNoData
	}
	if f != TSV && f != CSV {
		return fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}

	ew := NewWriter(w, headers, f)
	if err := ew.WriteHeader(); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range rows {
		if err := ew.Write(r); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	return ew.Flush()
}

// Blob is an encoded working set ready to be saved.
type Blob struct {
	Data        []byte
	FileName    string
	ContentType string
}

// NewBlob encodes headers and rows into a Blob.
func NewBlob(headers []string, rows []rules.Row, f Format) (*Blob, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, headers, rows, f); err != nil {
		return nil, err
	}
	return &Blob{
		Data:        buf.Bytes(),
		FileName:    f.FileName(),
		ContentType: f.ContentType(),
	}, nil
}
