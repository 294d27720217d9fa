package lookup

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Table maps normalized names to ARO accession numbers (without the "ARO:" prefix).
type Table struct {
	norm    *Normalizer
	entries map[string]string
}

// NewTable creates an empty table keyed through norm.
func NewTable(norm *Normalizer) *Table {
	return &Table{norm: norm, entries: make(map[string]string)}
}

// Add inserts name -> accession. Later entries for the same key win.
func (t *Table) Add(name, accession string) {
	t.entries[t.norm.Normalize(name)] = accession
}

// Lookup returns the accession for name.
func (t *Table) Lookup(name string) (string, bool) {
	if t == nil {
		return "", false
	}
	a, ok := t.entries[t.norm.Normalize(name)]
	return a, ok
}

// Len returns the number of distinct keys.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

// Tables holds the drug and drug class lookup tables.
type Tables struct {
	Drugs   *Table
	Classes *Table
}

// Empty returns tables with no entries.
func Empty(norm *Normalizer) Tables {
	return Tables{Drugs: NewTable(norm), Classes: NewTable(norm)}
}

// LoadReferenceMapping reads the CARD drug name mapping. The first line is a header;
// each data line holds ARO accession, drug name and drug class name in the first
// three tab-separated columns. Lines without an accession are skipped, as are
// drug or class names that are empty or "-".
func LoadReferenceMapping(r io.Reader, norm *Normalizer) (Tables, error) {
	tables := Empty(norm)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)

	lineNo := 0
	for scanner.Scan() {
		line := scanner.Text()
		lineNo++
		if strings.TrimSpace(line) == "" || lineNo == 1 {
			continue
		}

		parts := strings.Split(line, "\t")
		if len(parts) < 3 {
			continue
		}

		aroID := strings.TrimSpace(parts[0])
		if aroID == "" || aroID == "-" {
			continue
		}
		accession := strings.ReplaceAll(aroID, "ARO:", "")

		if drug := strings.TrimSpace(parts[1]); drug != "" && drug != "-" {
			tables.Drugs.Add(drug, accession)
		}
		if class := strings.TrimSpace(parts[2]); class != "" && class != "-" {
			tables.Classes.Add(class, accession)
		}
	}
	if err := scanner.Err(); err != nil {
		return Empty(norm), fmt.Errorf("reading reference mapping: %w", err)
	}

	return tables, nil
}
