// Package rules parses AMRrules tab-separated rule files into header and row records.
package rules

import (
	"strings"
	"time"
)

// Parser turns raw rule file text into rows, dropping blocked and blank rows.
type Parser struct {
	blocked map[string]bool
}

// NewParser creates a parser that drops rows whose ruleID is in blockedIDs.
func NewParser(blockedIDs []string) *Parser {
	p := &Parser{blocked: make(map[string]bool, len(blockedIDs))}
	for _, id := range blockedIDs {
		if id = cleanRuleID(id); id != "" {
			p.blocked[id] = true
		}
	}
	return p
}

// Parsed is the result of parsing one file.
type Parsed struct {
	Header *Header
	Rows   []Row
	// HeaderLineIndex is the zero-based line of the header, or -1 if the input had
	// no non-blank line.
	HeaderLineIndex int
}

// Parse splits content into lines and reads the first non-blank line as the header.
// Each later line is tab-split and its trimmed fields are assigned to headers by
// position; missing trailing fields become "". Blank lines are not skipped up front:
// they produce all-empty rows which the row filter then drops.
func (p *Parser) Parse(content string) Parsed {
	lines := strings.Split(content, "\n")

	headerIdx := -1
	for i, line := range lines {
		if strings.TrimSpace(line) != "" {
			headerIdx = i
			break
		}
	}
	if headerIdx < 0 {
		return Parsed{Header: NewHeader(nil), HeaderLineIndex: -1}
	}

	names := strings.Split(lines[headerIdx], "\t")
	for i := range names {
		names[i] = strings.TrimSpace(names[i])
	}
	header := NewHeader(names)

	var rows []Row
	for _, line := range lines[headerIdx+1:] {
		fields := strings.Split(line, "\t")
		values := make([]string, len(names))
		for i := range values {
			if i < len(fields) {
				values[i] = strings.TrimSpace(fields[i])
			}
		}
		row := Row{header: header, values: values}
		if p.keep(row) {
			rows = append(rows, row)
		}
	}

	return Parsed{Header: header, Rows: rows, HeaderLineIndex: headerIdx}
}

func (p *Parser) keep(r Row) bool {
	if len(p.blocked) > 0 && p.blocked[cleanRuleID(r.Value(ColRuleID))] {
		return false
	}
	return !r.IsBlank()
}

// Blocked reports whether id is in the parser's blocked set.
func (p *Parser) Blocked(id string) bool {
	return p.blocked[cleanRuleID(id)]
}

func cleanRuleID(id string) string {
	return strings.TrimSpace(strings.ReplaceAll(id, `"`, ""))
}

// File is one ingested rule file, keyed by Name.
type File struct {
	Name            string
	Header          *Header
	Rows            []Row
	HeaderLineIndex int
	Content         string
	Type            string
	LastModified    time.Time
}

// NewFile parses content and wraps the result as a File.
func NewFile(name, content string, p *Parser) *File {
	parsed := p.Parse(content)
	return &File{
		Name:            name,
		Header:          parsed.Header,
		Rows:            parsed.Rows,
		HeaderLineIndex: parsed.HeaderLineIndex,
		Content:         content,
		Type:            "text/plain",
	}
}

// Headers returns the file's header names in source order.
func (f *File) Headers() []string {
	return f.Header.Names()
}

// Organisms returns the distinct organism keys in the file, sorted.
// Files without an organism column return nil.
func (f *File) Organisms() []string {
	if !f.Header.Has(ColOrganism) {
		return nil
	}
	set := make(HeaderSet)
	for _, r := range f.Rows {
		if k := OrganismKey(r.Value(ColOrganism)); k != "" {
			set.Add(k)
		}
	}
	return set.Sorted()
}

// RowsForOrganism returns the rows whose organism key equals OrganismKey(organism).
func (f *File) RowsForOrganism(organism string) []Row {
	want := OrganismKey(organism)
	var out []Row
	for _, r := range f.Rows {
		if OrganismKey(r.Value(ColOrganism)) == want {
			out = append(out, r)
		}
	}
	return out
}
