// Package deeplink maps a browse or search selection to a URL path and query and
// back.
//
//	/browse                                  all files
//	/browse/Escherichia_coli.txt?organism=…  one file, optionally one organism
//	/browse/…?q=term&col=gene                browse with a filter
//	/search?q=term&col=gene                  global search
package deeplink

import (
	"net/url"
	"strings"
)

// Mode is the query mode of a link.
type Mode string

const (
	Browse Mode = "browse"
	Search Mode = "search"
)

// State is the selection a link encodes. Column "" means all columns.
type State struct {
	Mode     Mode   `json:"mode"`
	File     string `json:"file,omitempty"`
	Organism string `json:"organism,omitempty"`
	Term     string `json:"term,omitempty"`
	Column   string `json:"column,omitempty"`
}

// BrowseAll is the state every malformed link decodes to.
var BrowseAll = State{Mode: Browse}

// Normalize drops fields the mode cannot carry: search links have no file or
// organism, an organism needs a file, a column needs a term, and "all" means
// every column.
func (s State) Normalize() State {
	if s.Mode != Search {
		s.Mode = Browse
	}
	s.Term = strings.TrimSpace(s.Term)
	if strings.EqualFold(s.Column, "all") {
		s.Column = ""
	}
	if s.Term == "" {
		s.Column = ""
	}
	switch s.Mode {
	case Search:
		s.File, s.Organism = "", ""
		if s.Term == "" {
			return BrowseAll
		}
	case Browse:
		if s.File == "" {
			s.Organism = ""
		}
	}
	return s
}

// Encode renders s as a path with query string.
func Encode(s State) string {
	s = s.Normalize()

	var b strings.Builder
	b.WriteString("/" + string(s.Mode))
	if s.Mode == Browse && s.File != "" {
		b.WriteString("/" + url.PathEscape(s.File))
	}

	q := url.Values{}
	if s.Organism != "" {
		q.Set("organism", s.Organism)
	}
	if s.Term != "" {
		q.Set("q", s.Term)
	}
	if s.Column != "" {
		q.Set("col", s.Column)
	}
	if len(q) > 0 {
		b.WriteString("?" + q.Encode())
	}
	return b.String()
}

// Decode parses a link produced by Encode. It accepts a bare path, a full URL or
// a "#"-prefixed fragment. Anything it cannot make sense of decodes to
// BrowseAll; unknown query parameters are ignored.
func Decode(link string) State {
	link = strings.TrimSpace(link)
	link = strings.TrimPrefix(link, "#")

	u, err := url.Parse(link)
	if err != nil {
		return BrowseAll
	}
	if u.Fragment != "" && (u.Path == "" || u.Path == "/") {
		if fu, err := url.Parse(u.Fragment); err == nil {
			u = fu
		}
	}

	path := strings.Trim(u.EscapedPath(), "/")
	segs := strings.SplitN(path, "/", 2)
	q := u.Query()

	var s State
	switch segs[0] {
	case string(Browse):
		s.Mode = Browse
		if len(segs) == 2 {
			file, err := url.PathUnescape(segs[1])
			if err != nil || strings.Contains(file, "/") {
				return BrowseAll
			}
			s.File = file
		}
		s.Organism = strings.TrimSpace(q.Get("organism"))
	case string(Search):
		if len(segs) == 2 {
			return BrowseAll
		}
		s.Mode = Search
	default:
		return BrowseAll
	}
	s.Term = q.Get("q")
	s.Column = q.Get("col")
	return s.Normalize()
}
