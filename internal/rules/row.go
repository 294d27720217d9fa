package rules

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Header is the ordered column list of one rule file.
// It is immutable once built and shared by every row of the file.
type Header struct {
	names []string
	index map[string]int
}

// NewHeader builds a Header from names in source order. When a name repeats,
// lookups resolve to its last position.
func NewHeader(names []string) *Header {
	h := &Header{
		names: append([]string(nil), names...),
		index: make(map[string]int, len(names)),
	}
	for i, n := range h.names {
		h.index[n] = i
	}
	return h
}

// Names returns a copy of the header names in source order.
func (h *Header) Names() []string {
	if h == nil {
		return nil
	}
	return append([]string(nil), h.names...)
}

// Len returns the number of columns.
func (h *Header) Len() int {
	if h == nil {
		return 0
	}
	return len(h.names)
}

// Index returns the position of name.
func (h *Header) Index(name string) (int, bool) {
	if h == nil {
		return 0, false
	}
	i, ok := h.index[name]
	return i, ok
}

// Has reports whether the header contains name.
func (h *Header) Has(name string) bool {
	_, ok := h.Index(name)
	return ok
}

// Row is one parsed rule: an ordered mapping from header name to value.
// Every row holds exactly one value (possibly empty) per header column.
type Row struct {
	header *Header
	values []string
}

// NewRow binds values to a header. The value count must match the header length.
func NewRow(h *Header, values []string) (Row, error) {
	if len(values) != h.Len() {
		return Row{}, fmt.Errorf("row has %d values for %d columns", len(values), h.Len())
	}
	return Row{header: h, values: append([]string(nil), values...)}, nil
}

// RowFromMap builds a row for h from a name->value map; absent names become "".
func RowFromMap(h *Header, m map[string]string) Row {
	values := make([]string, h.Len())
	for i, n := range h.names {
		values[i] = m[n]
	}
	return Row{header: h, values: values}
}

// Header returns the header the row belongs to.
func (r Row) Header() *Header { return r.header }

// Lookup returns the value for name and whether the row's file declares that column.
func (r Row) Lookup(name string) (string, bool) {
	i, ok := r.header.Index(name)
	if !ok {
		return "", false
	}
	return r.values[i], true
}

// Value returns the value for name, or "" if the column is absent.
func (r Row) Value(name string) string {
	v, _ := r.Lookup(name)
	return v
}

// Values returns a copy of the values in header order.
func (r Row) Values() []string {
	return append([]string(nil), r.values...)
}

// IsBlank reports whether every value is empty after trimming.
func (r Row) IsBlank() bool {
	for _, v := range r.values {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// Map returns the row as a plain map.
func (r Row) Map() map[string]string {
	m := make(map[string]string, len(r.values))
	for i, n := range r.header.Names() {
		m[n] = r.values[i]
	}
	return m
}

// MarshalJSON encodes the row as an object with keys in header order.
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	seen := make(map[string]bool, len(r.values))
	first := true
	for _, n := range r.header.Names() {
		if seen[n] {
			continue
		}
		seen[n] = true
		if !first {
			buf.WriteByte(',')
		}
		first = false
		k, err := json.Marshal(n)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(r.Value(n))
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
