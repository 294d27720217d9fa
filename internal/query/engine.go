// Package query computes working sets over the rule store: browse by file or
// organism, substring search, and column sort.
package query

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/amrverse/amrrulebrowser/internal/rules"
	"github.com/amrverse/amrrulebrowser/internal/store"
)

// User-facing validation failures. None of them changes the engine state except
// ErrEmptyTerm on a global search, which clears the working set.
var (
	ErrEmptyTerm     = errors.New("empty search term")
	ErrNoData        = errors.New("no files loaded")
	ErrUnknownFile   = errors.New("unknown file")
	ErrUnknownColumn = errors.New("column not in current result")
	ErrNotBrowsing   = errors.New("no browse selection active")
)

// UserMessage renders err as the notice shown to the user.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, ErrEmptyTerm):
		return "Please enter a search term."
	case errors.Is(err, ErrNoData):
		return "No files loaded."
	default:
		return err.Error()
	}
}

// AllColumns selects every column as the search scope.
const AllColumns = "all"

// Mode tells which query produced the working set.
type Mode string

const (
	ModeNone   Mode = ""
	ModeBrowse Mode = "browse"
	ModeSearch Mode = "search"
)

// Selection is a browse target. An empty File means all files; Organism is only
// meaningful together with File.
type Selection struct {
	File     string `json:"file,omitempty"`
	Organism string `json:"organism,omitempty"`
}

// IsAll reports whether the selection covers every file.
func (s Selection) IsAll() bool {
	return s.File == ""
}

// Result is a snapshot of the working set, rows in display order.
type Result struct {
	Mode       Mode        `json:"mode"`
	Selection  Selection   `json:"selection"`
	Term       string      `json:"term,omitempty"`
	Column     string      `json:"column,omitempty"`
	Headers    []string    `json:"headers"`
	Rows       []rules.Row `json:"rows"`
	Message    string      `json:"message"`
	SortColumn string      `json:"sortColumn,omitempty"`
	Descending bool        `json:"descending"`
}

// Engine holds the query state of one session. All methods are safe for
// concurrent use; each runs to completion under the engine lock.
type Engine struct {
	mu     sync.Mutex
	store  *store.Store
	sorter *sorter
	logger *zap.Logger

	mode      Mode
	selection Selection
	term      string
	column    string
	headers   []string
	original  []rules.Row // browse set before any filter
	working   []rules.Row // unsorted working set
	message   string
	sortCol   string
	desc      bool
}

// NewEngine creates an engine over st.
func NewEngine(st *store.Store) *Engine {
	return &Engine{
		store:  st,
		sorter: newSorter(),
		logger: zap.NewNop(),
	}
}

// SetLogger sets the logger for debug messages.
func (e *Engine) SetLogger(l *zap.Logger) {
	e.logger = l
}

// Browse replaces the working set with the rows of sel. The result becomes the
// original browse set for FilterBrowse and ClearFilter.
func (e *Engine) Browse(sel Selection) (Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.store.Len() == 0 {
		e.reset()
		return e.snapshot(), ErrNoData
	}

	var (
		rows    []rules.Row
		headers = make(rules.HeaderSet)
	)
	if sel.IsAll() {
		sel.Organism = ""
		for _, f := range e.store.SortedFiles() {
			rows = append(rows, f.Rows...)
			headers.Add(f.Headers()...)
		}
	} else {
		f, ok := e.store.Get(sel.File)
		if !ok {
			return e.snapshot(), fmt.Errorf("%w: %s", ErrUnknownFile, sel.File)
		}
		headers.Add(f.Headers()...)
		sel.Organism = rules.OrganismKey(sel.Organism)
		if sel.Organism != "" {
			rows = f.RowsForOrganism(sel.Organism)
		} else {
			rows = f.Rows
		}
	}

	e.mode = ModeBrowse
	e.selection = sel
	e.term, e.column = "", ""
	e.headers = rules.ProjectHeaders(headers)
	e.original = rows
	e.working = rows
	e.resetSort()
	e.message = displayMessage(len(rows))

	e.logger.Debug("browse",
		zap.String("file", sel.File),
		zap.String("organism", sel.Organism),
		zap.Int("rows", len(rows)))
	return e.snapshot(), nil
}

// FilterBrowse narrows the original browse set to rows matching term in column
// (AllColumns or "" for every column). The store is not consulted.
func (e *Engine) FilterBrowse(term, column string) (Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.mode != ModeBrowse {
		return e.snapshot(), ErrNotBrowsing
	}
	needle := normalizeTerm(term)
	if needle == "" {
		return e.snapshot(), ErrEmptyTerm
	}
	column = normalizeColumn(column)

	var matched []rules.Row
	for _, r := range e.original {
		if rowMatches(r, needle, column) {
			matched = append(matched, r)
		}
	}

	e.term, e.column = strings.TrimSpace(term), column
	e.working = matched
	e.resetSort()
	e.message = fmt.Sprintf("Found %d match(es) in browse results.", len(matched))
	return e.snapshot(), nil
}

// ClearFilter reverts the working set to the original browse set.
func (e *Engine) ClearFilter() (Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.mode != ModeBrowse {
		return e.snapshot(), ErrNotBrowsing
	}
	e.term, e.column = "", ""
	e.working = e.original
	e.resetSort()
	e.message = displayMessage(len(e.original))
	return e.snapshot(), nil
}

// Search matches term against every row of every loaded file. column restricts
// the match to one column; AllColumns or "" searches them all. Headers are the
// projection of the headers of files that contributed a match.
func (e *Engine) Search(term, column string) (Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	needle := normalizeTerm(term)
	if needle == "" {
		e.reset()
		e.mode = ModeSearch
		return e.snapshot(), ErrEmptyTerm
	}
	if e.store.Len() == 0 {
		return e.snapshot(), ErrNoData
	}
	column = normalizeColumn(column)

	var matched []rules.Row
	headers := make(rules.HeaderSet)
	for _, f := range e.store.SortedFiles() {
		hit := false
		for _, r := range f.Rows {
			if rowMatches(r, needle, column) {
				matched = append(matched, r)
				hit = true
			}
		}
		if hit {
			headers.Add(f.Headers()...)
		}
	}

	e.mode = ModeSearch
	e.selection = Selection{}
	e.term, e.column = strings.TrimSpace(term), column
	e.headers = rules.ProjectHeaders(headers)
	e.original = nil
	e.working = matched
	e.resetSort()
	e.message = fmt.Sprintf("Found %d match(es).", len(matched))

	e.logger.Debug("search",
		zap.String("term", needle),
		zap.String("column", column),
		zap.Int("matches", len(matched)))
	return e.snapshot(), nil
}

// SortBy sorts the working set by column. Choosing the current sort column again
// flips the direction; a new column starts ascending.
func (e *Engine) SortBy(column string) (Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !contains(e.headers, column) {
		return e.snapshot(), fmt.Errorf("%w: %s", ErrUnknownColumn, column)
	}
	if e.sortCol == column {
		e.desc = !e.desc
	} else {
		e.sortCol = column
		e.desc = false
	}
	return e.snapshot(), nil
}

// SetSort sets the sort column and direction without toggling.
func (e *Engine) SetSort(column string, descending bool) (Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if column != "" && !contains(e.headers, column) {
		return e.snapshot(), fmt.Errorf("%w: %s", ErrUnknownColumn, column)
	}
	e.sortCol = column
	e.desc = descending && column != ""
	return e.snapshot(), nil
}

// Current returns the working set in display order.
func (e *Engine) Current() Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshot()
}

// Reset drops the working set, as after the store is cleared.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.reset()
}

func (e *Engine) reset() {
	e.mode = ModeNone
	e.selection = Selection{}
	e.term, e.column = "", ""
	e.headers = nil
	e.original = nil
	e.working = nil
	e.resetSort()
	e.message = ""
}

func (e *Engine) resetSort() {
	e.sortCol = ""
	e.desc = false
}

// snapshot must be called with e.mu held.
func (e *Engine) snapshot() Result {
	rows := make([]rules.Row, len(e.working))
	copy(rows, e.working)
	if e.sortCol != "" && contains(e.headers, e.sortCol) {
		e.sorter.sort(rows, e.sortCol, e.desc)
	}
	headers := make([]string, len(e.headers))
	copy(headers, e.headers)
	return Result{
		Mode:       e.mode,
		Selection:  e.selection,
		Term:       e.term,
		Column:     e.column,
		Headers:    headers,
		Rows:       rows,
		Message:    e.message,
		SortColumn: e.sortCol,
		Descending: e.desc,
	}
}

func displayMessage(n int) string {
	return fmt.Sprintf("Displaying %d row(s).", n)
}

func normalizeTerm(term string) string {
	return strings.ToLower(strings.TrimSpace(term))
}

func normalizeColumn(column string) string {
	if column == "" {
		return AllColumns
	}
	return column
}

// rowMatches reports whether needle (already lower-cased) is a substring of the
// lower-cased value of column, or of any value when column is AllColumns. A row
// without the column never matches a column-scoped search.
func rowMatches(r rules.Row, needle, column string) bool {
	if column == AllColumns {
		for _, v := range r.Values() {
			if strings.Contains(strings.ToLower(v), needle) {
				return true
			}
		}
		return false
	}
	v, ok := r.Lookup(column)
	return ok && strings.Contains(strings.ToLower(v), needle)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
