// Package resolve renders rule cell values as links to external databases,
// annotated text, or escaped plain text, using an ordered table of column policies.
package resolve

import (
	"regexp"
	"strings"

	"github.com/amrverse/amrrulebrowser/internal/lookup"
	"github.com/amrverse/amrrulebrowser/internal/rules"
)

// Input is what a policy sees for one cell.
type Input struct {
	Column string
	// Value is the trimmed raw value after column-specific prefix stripping.
	Value string
	Row   rules.Row
}

// Policy renders cells of matching columns. Apply returns false to let later
// policies handle the cell.
type Policy struct {
	Name    string
	Columns []string // nil matches every column
	Apply   func(in Input) (Cell, bool)
}

func (p Policy) matches(column string) bool {
	if p.Columns == nil {
		return true
	}
	for _, c := range p.Columns {
		if c == column {
			return true
		}
	}
	return false
}

// Resolver maps (column, value, row) to a rendered Cell.
type Resolver struct {
	policies []Policy
}

// New creates a resolver with the default policies, in precedence order:
// placeholders, organism taxonomy links, drug and drug class ontology lookups,
// evidence grade tooltips, evidence codes, and accession columns.
// Anything unmatched falls back to plain text.
func New(tables lookup.Tables) *Resolver {
	accessionCols := make([]string, 0, len(AccessionURLs))
	for _, c := range rules.FixedHeaderOrder {
		if _, ok := AccessionURLs[c]; ok && c != rules.ColEvidenceCode {
			accessionCols = append(accessionCols, c)
		}
	}

	return &Resolver{policies: []Policy{
		{Name: "placeholder", Apply: placeholder},
		{Name: "taxonomy", Columns: []string{rules.ColOrganism}, Apply: taxonomyLink},
		{Name: "drug", Columns: []string{rules.ColDrug}, Apply: ontologyLink(tables.Drugs)},
		{Name: "drug class", Columns: []string{rules.ColDrugClass}, Apply: ontologyLink(tables.Classes)},
		{Name: "evidence grade", Columns: []string{rules.ColEvidenceGrade}, Apply: evidenceGrade},
		{Name: "evidence code", Columns: []string{rules.ColEvidenceCode}, Apply: evidenceCodes},
		{Name: "accession", Columns: accessionCols, Apply: accessionLinks},
	}}
}

// Add appends a policy after the defaults, ahead of the plain-text fallback.
func (r *Resolver) Add(p Policy) {
	r.policies = append(r.policies, p)
}

// Policies returns the policy names in precedence order.
func (r *Resolver) Policies() []string {
	names := make([]string, len(r.policies))
	for i, p := range r.policies {
		names[i] = p.Name
	}
	return names
}

// Resolve renders one cell.
func (r *Resolver) Resolve(column, raw string, row rules.Row) Cell {
	in := Input{Column: column, Value: prepare(column, raw), Row: row}
	for _, p := range r.policies {
		if !p.matches(column) {
			continue
		}
		if c, ok := p.Apply(in); ok {
			return c
		}
	}
	return Plain(in.Value)
}

// prepare trims the value and strips column-specific wrapping.
func prepare(column, raw string) string {
	v := strings.TrimSpace(raw)
	switch column {
	case rules.ColOrganism:
		v = strings.TrimPrefix(v, rules.OrganismPrefix)
	case rules.ColCurationNote:
		v = trimQuotes(v)
	}
	return v
}

// IsPlaceholder reports whether v carries no data.
func IsPlaceholder(v string) bool {
	v = strings.TrimSpace(v)
	return v == "" || v == "-"
}

func placeholder(in Input) (Cell, bool) {
	if IsPlaceholder(in.Value) {
		return Plain(in.Value), true
	}
	return nil, false
}

func taxonomyLink(in Input) (Cell, bool) {
	txid := strings.TrimSpace(in.Row.Value(rules.ColTxid))
	if IsPlaceholder(txid) {
		return nil, false
	}
	return Link(in.Value, TaxonomyURL+encodeComponent(txid)), true
}

func ontologyLink(t *lookup.Table) func(Input) (Cell, bool) {
	return func(in Input) (Cell, bool) {
		acc, ok := t.Lookup(in.Value)
		if !ok {
			return nil, false
		}
		return Link(in.Value, OntologyURL+acc), true
	}
}

func evidenceGrade(in Input) (Cell, bool) {
	tip, ok := EvidenceGradeTooltips[strings.ToLower(in.Value)]
	if !ok {
		return nil, false
	}
	return Annotated(in.Value, tip), true
}

var (
	ecoPattern      = regexp.MustCompile(`ECO:\d+`)
	entrySeparators = regexp.MustCompile(`[,;]`)
	idSeparators    = regexp.MustCompile(`[,;\s]+`)
)

// evidenceCodes links each comma/semicolon separated entry that embeds an ECO term,
// keeping the full entry text as the link label.
func evidenceCodes(in Input) (Cell, bool) {
	base := AccessionURLs[rules.ColEvidenceCode]

	var cell Cell
	for _, entry := range entrySeparators.Split(in.Value, -1) {
		entry = trimQuotes(strings.TrimSpace(entry))
		if entry == "" {
			continue
		}
		if code := ecoPattern.FindString(entry); code != "" {
			cell = append(cell, Segment{Kind: KindLink, Text: entry, URL: base + code})
		} else {
			cell = append(cell, Segment{Kind: KindPlain, Text: entry})
		}
	}
	if len(cell) == 0 {
		return nil, false
	}
	return cell, true
}

// accessionLinks links every identifier in a delimited list. A single identifier keeps
// the original value as its label.
func accessionLinks(in Input) (Cell, bool) {
	base, ok := AccessionURLs[in.Column]
	if !ok {
		return nil, false
	}

	ids := splitIdentifiers(in.Value)
	switch len(ids) {
	case 0:
		return nil, false
	case 1:
		return Link(in.Value, base+accessionSuffix(in.Column, ids[0])), true
	}

	cell := make(Cell, len(ids))
	for i, id := range ids {
		cell[i] = Segment{Kind: KindLink, Text: id, URL: base + accessionSuffix(in.Column, id)}
	}
	return cell, true
}

func splitIdentifiers(v string) []string {
	var ids []string
	for _, id := range idSeparators.Split(v, -1) {
		if id = strings.TrimSpace(trimQuotes(id)); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

func accessionSuffix(column, id string) string {
	if column == rules.ColAROAccession {
		id = strings.TrimPrefix(id, "ARO:")
	}
	return strings.ReplaceAll(encodeComponent(strings.TrimSpace(id)), "%3A", ":")
}

// trimQuotes removes one leading and one trailing double quote.
func trimQuotes(s string) string {
	return strings.TrimPrefix(strings.TrimSuffix(s, `"`), `"`)
}

// encodeComponent percent-encodes s, leaving only the characters a browser's
// encodeURIComponent leaves: letters, digits and -_.!~*'().
func encodeComponent(s string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0x0f])
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	return strings.IndexByte("-_.!~*'()", c) >= 0
}
