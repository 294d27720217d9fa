// Package session wires the rule store, its persistence, the reference lookups
// and the query engine into one explicit session context.
package session

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/amrverse/amrrulebrowser/internal/deeplink"
	"github.com/amrverse/amrrulebrowser/internal/duckdb"
	"github.com/amrverse/amrrulebrowser/internal/export"
	"github.com/amrverse/amrrulebrowser/internal/ingest"
	"github.com/amrverse/amrrulebrowser/internal/lookup"
	"github.com/amrverse/amrrulebrowser/internal/query"
	"github.com/amrverse/amrrulebrowser/internal/resolve"
	"github.com/amrverse/amrrulebrowser/internal/rules"
	"github.com/amrverse/amrrulebrowser/internal/store"
)

// Options configures a session.
type Options struct {
	// StorePath is the DuckDB file holding persisted state. Ignored when KV is set;
	// "" opens an in-memory database.
	StorePath string
	// KV overrides the persistence collaborator.
	KV store.KV
	// Source lists and fetches remote rule files. Nil disables Sync.
	Source      ingest.Source
	BlockedIDs  []string
	Corrections map[string]string
	Workers     int
	Logger      *zap.Logger
}

// Session is the state of one user session.
type Session struct {
	ID string

	Store    *store.Store
	Repo     *store.Repository
	Loader   *ingest.Loader
	Engine   *query.Engine
	Parser   *rules.Parser
	Norm     *lookup.Normalizer
	logger   *zap.Logger
	db       *duckdb.Store
	mu       sync.RWMutex
	resolver *resolve.Resolver
}

// Open creates a session and restores the persisted rule files. Lookups start
// from the stored reference mapping; Sync refreshes them.
func Open(ctx context.Context, opts Options) (*Session, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Session{ID: uuid.NewString()}
	s.logger = logger.With(zap.String("session", s.ID))

	kv := opts.KV
	if kv == nil {
		db, err := duckdb.Open(opts.StorePath)
		if err != nil {
			return nil, fmt.Errorf("open store: %w", err)
		}
		s.db = db
		kv = db
	}

	corrections := opts.Corrections
	if corrections == nil {
		corrections = lookup.DefaultCorrections
	}
	s.Norm = lookup.NewNormalizer(corrections)
	s.Parser = rules.NewParser(opts.BlockedIDs)
	s.Store = store.New()

	s.Repo = store.NewRepository(kv, s.Parser)
	s.Repo.SetLogger(s.logger)

	s.Loader = ingest.NewLoader(opts.Source, s.Store, s.Repo, s.Parser)
	s.Loader.SetLogger(s.logger)
	if opts.Workers > 0 {
		s.Loader.SetWorkers(opts.Workers)
	}

	s.Engine = query.NewEngine(s.Store)
	s.Engine.SetLogger(s.logger)

	n := s.Loader.Restore(ctx)
	s.resolver = resolve.New(s.Loader.StoredLookups(ctx, s.Norm))
	s.logger.Debug("session opened", zap.Int("files", n), zap.String("store", opts.StorePath))
	return s, nil
}

// Close releases the persistent store.
func (s *Session) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Logger returns the session logger.
func (s *Session) Logger() *zap.Logger {
	return s.logger
}

// Resolver returns the resolver built from the current lookup tables.
func (s *Session) Resolver() *resolve.Resolver {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.resolver
}

// Sync runs the ingestion phase and reloads the reference mapping.
func (s *Session) Sync(ctx context.Context, opts ingest.SyncOptions) *ingest.Report {
	report := s.Loader.Sync(ctx, opts)
	tables := s.Loader.LoadLookups(ctx, s.Norm)

	s.mu.Lock()
	s.resolver = resolve.New(tables)
	s.mu.Unlock()
	return report
}

// Upload ingests local files.
func (s *Session) Upload(ctx context.Context, files []ingest.LocalFile) *ingest.Report {
	return s.Loader.Upload(ctx, files)
}

// Clear empties the store and its persisted copy and drops the working set.
func (s *Session) Clear(ctx context.Context) error {
	s.Engine.Reset()
	return s.Loader.Clear(ctx)
}

// HiddenColumns returns the hidden-column preference.
func (s *Session) HiddenColumns(ctx context.Context) []string {
	cols, err := s.Repo.HiddenColumns(ctx)
	if err != nil {
		s.logger.Warn("could not read hidden columns", zap.Error(err))
		return nil
	}
	return cols
}

// HideColumns adds columns to the hidden set.
func (s *Session) HideColumns(ctx context.Context, cols ...string) ([]string, error) {
	set := make(rules.HeaderSet)
	set.Add(s.HiddenColumns(ctx)...)
	set.Add(cols...)
	out := set.Sorted()
	return out, s.Repo.SetHiddenColumns(ctx, out)
}

// ShowColumns removes columns from the hidden set. With no columns it shows all.
func (s *Session) ShowColumns(ctx context.Context, cols ...string) ([]string, error) {
	var out []string
	if len(cols) > 0 {
		drop := make(rules.HeaderSet)
		drop.Add(cols...)
		for _, c := range s.HiddenColumns(ctx) {
			if !drop.Has(c) {
				out = append(out, c)
			}
		}
	}
	sort.Strings(out)
	return out, s.Repo.SetHiddenColumns(ctx, out)
}

// VisibleHeaders drops hidden columns from headers, keeping order.
func (s *Session) VisibleHeaders(ctx context.Context, headers []string) []string {
	hidden := make(rules.HeaderSet)
	hidden.Add(s.HiddenColumns(ctx)...)
	out := make([]string, 0, len(headers))
	for _, h := range headers {
		if !hidden.Has(h) {
			out = append(out, h)
		}
	}
	return out
}

// Apply runs the query a deep link describes and returns its result.
func (s *Session) Apply(st deeplink.State) (query.Result, error) {
	st = st.Normalize()
	if st.Mode == deeplink.Search {
		return s.Engine.Search(st.Term, st.Column)
	}
	res, err := s.Engine.Browse(query.Selection{File: st.File, Organism: st.Organism})
	if err != nil || st.Term == "" {
		return res, err
	}
	return s.Engine.FilterBrowse(st.Term, st.Column)
}

// Link encodes the current working set as a deep link.
func (s *Session) Link() string {
	return deeplink.Encode(StateOf(s.Engine.Current()))
}

// StateOf maps a query result to the deep-link state that reproduces it.
func StateOf(res query.Result) deeplink.State {
	column := res.Column
	if column == query.AllColumns {
		column = ""
	}
	if res.Mode == query.ModeSearch {
		return deeplink.State{Mode: deeplink.Search, Term: res.Term, Column: column}
	}
	return deeplink.State{
		Mode:     deeplink.Browse,
		File:     res.Selection.File,
		Organism: res.Selection.Organism,
		Term:     res.Term,
		Column:   column,
	}.Normalize()
}

// Export encodes the current working set, in display order, with every column.
func (s *Session) Export(f export.Format) (*export.Blob, error) {
	res := s.Engine.Current()
	return export.NewBlob(res.Headers, res.Rows, f)
}

// RenderHTML writes the current working set as an HTML table without the hidden
// columns.
func (s *Session) RenderHTML(ctx context.Context, w io.Writer) error {
	res := s.Engine.Current()
	headers := s.VisibleHeaders(ctx, res.Headers)
	return s.Resolver().RenderTable(w, headers, res.Rows, resolve.TableOptions{
		SortColumn: res.SortColumn,
		Descending: res.Descending,
	})
}
