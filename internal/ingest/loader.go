package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/amrverse/amrrulebrowser/internal/lookup"
	"github.com/amrverse/amrrulebrowser/internal/rules"
	"github.com/amrverse/amrrulebrowser/internal/store"
)

// Report summarizes one ingestion run. Failures are recorded, never fatal.
type Report struct {
	// Origin names where fetched files came from, e.g. "GitHub".
	Origin  string
	Listed  int
	Fetched []string
	Reused  []string
	Failed  []*FetchError
	ListErr error
	SaveErr error
}

// Message renders the report as a one-line status for the user.
func (r *Report) Message() string {
	if r.ListErr != nil {
		return "Error: Could not fetch files from GitHub."
	}
	var parts []string
	if n := len(r.Fetched); n > 0 {
		if r.Origin != "" {
			parts = append(parts, fmt.Sprintf("Loaded %d file(s) from %s.", n, r.Origin))
		} else {
			parts = append(parts, fmt.Sprintf("Loaded %d file(s).", n))
		}
		if m := len(r.Reused); m > 0 {
			parts = append(parts, fmt.Sprintf("%d previously loaded files also available.", m))
		}
	} else if len(r.Reused) > 0 {
		parts = append(parts, "Loaded data from previous session.")
	}
	if n := len(r.Failed); n > 0 {
		parts = append(parts, fmt.Sprintf("%d file(s) could not be loaded.", n))
	}
	if r.SaveErr != nil {
		parts = append(parts, "Warning: data could not be saved.")
	}
	if len(parts) == 0 {
		return "No files loaded."
	}
	return strings.Join(parts, " ")
}

// Loader runs the ingestion phase: it merges the persisted snapshot with newly
// fetched or uploaded files and writes the full result back.
type Loader struct {
	source  Source
	store   *store.Store
	repo    *store.Repository
	parser  *rules.Parser
	workers int
	logger  *zap.Logger
	now     func() time.Time
}

// NewLoader creates a loader. source may be nil when only uploads are used.
func NewLoader(source Source, st *store.Store, repo *store.Repository, parser *rules.Parser) *Loader {
	return &Loader{
		source:  source,
		store:   st,
		repo:    repo,
		parser:  parser,
		workers: 4,
		logger:  zap.NewNop(),
		now:     time.Now,
	}
}

// SetWorkers sets the number of concurrent downloads.
func (l *Loader) SetWorkers(n int) {
	l.workers = n
}

// SetLogger sets the logger for warning and info messages.
func (l *Loader) SetLogger(lg *zap.Logger) {
	l.logger = lg
}

// Restore seeds the store from the persisted snapshot. Unreadable storage leaves
// the store as it was.
func (l *Loader) Restore(ctx context.Context) int {
	files, err := l.repo.Load(ctx)
	if err != nil {
		l.logger.Warn("could not read persisted rule files", zap.Error(err))
		return 0
	}
	l.store.Load(files)
	l.logger.Debug("restored persisted files", zap.Int("files", len(files)))
	return len(files)
}

// SyncOptions controls a Sync run.
type SyncOptions struct {
	// Refresh re-fetches listed files even when a persisted copy exists.
	Refresh bool
}

// Sync restores the persisted snapshot, lists remote rule files, fetches those not
// yet loaded, and saves the merged set. A listing failure leaves the restored data
// in place; per-file failures are reported without affecting the other files.
func (l *Loader) Sync(ctx context.Context, opts SyncOptions) *Report {
	report := &Report{Origin: "GitHub"}
	l.Restore(ctx)

	if l.source == nil {
		report.ListErr = fmt.Errorf("no rule file source configured")
		return report
	}

	listed, err := l.source.ListRuleFiles(ctx)
	if err != nil {
		l.logger.Warn("could not list rule files", zap.Error(err))
		report.ListErr = err
		return report
	}
	report.Listed = len(listed)

	var toFetch []RemoteFile
	for _, f := range listed {
		if !opts.Refresh && l.store.Has(f.Name) {
			report.Reused = append(report.Reused, f.Name)
			continue
		}
		toFetch = append(toFetch, f)
	}

	if len(toFetch) == 0 {
		return report
	}

	l.logger.Info("fetching rule files", zap.Int("files", len(toFetch)), zap.Int("workers", l.workers))
	results := ParallelFetch(ctx, l.source, QueueFiles(toFetch), l.workers)
	_ = OrderedCollect(results, func(r FetchResult) error {
		if r.Err != nil {
			l.logger.Warn("failed to fetch rule file", zap.String("file", r.File.Name), zap.Error(r.Err))
			var fe *FetchError
			if !errors.As(r.Err, &fe) {
				fe = &FetchError{Name: r.File.Name, URL: r.File.URL, Err: r.Err}
			}
			report.Failed = append(report.Failed, fe)
			return nil
		}
		f := rules.NewFile(r.File.Name, r.Content, l.parser)
		f.LastModified = l.now()
		l.store.Upsert(r.File.Name, f)
		report.Fetched = append(report.Fetched, r.File.Name)
		l.logger.Debug("loaded rule file", zap.String("file", r.File.Name), zap.Int("rows", len(f.Rows)))
		return nil
	})

	if len(report.Fetched) > 0 {
		report.SaveErr = l.save(ctx)
	}
	return report
}

func (l *Loader) save(ctx context.Context) error {
	if err := l.repo.Save(ctx, l.store.AllFiles()); err != nil {
		l.logger.Warn("could not persist rule files", zap.Error(err))
		return err
	}
	return nil
}

// Clear empties the store and removes the persisted snapshot.
func (l *Loader) Clear(ctx context.Context) error {
	l.store.Clear()
	return l.repo.Clear(ctx)
}

// LoadLookups fetches and parses the reference mapping, keeping a copy in the
// repository. When the fetch fails the stored copy is used; with neither, the
// tables are empty, which only disables drug and drug class links.
func (l *Loader) LoadLookups(ctx context.Context, norm *lookup.Normalizer) lookup.Tables {
	content, err := l.fetchMapping(ctx)
	if err != nil {
		l.logger.Warn("could not fetch reference mapping", zap.Error(err))
		cached, ok, cerr := l.repo.ReferenceMapping(ctx)
		if cerr != nil || !ok {
			return lookup.Empty(norm)
		}
		l.logger.Info("using stored reference mapping")
		content = cached
	} else if err := l.repo.SetReferenceMapping(ctx, content); err != nil {
		l.logger.Warn("could not store reference mapping", zap.Error(err))
	}

	tables, err := lookup.LoadReferenceMapping(strings.NewReader(content), norm)
	if err != nil {
		l.logger.Warn("could not parse reference mapping", zap.Error(err))
		return lookup.Empty(norm)
	}
	l.logger.Info("loaded reference mapping",
		zap.Int("drugs", tables.Drugs.Len()),
		zap.Int("classes", tables.Classes.Len()))
	return tables
}

// StoredLookups parses the stored reference mapping without touching the network.
func (l *Loader) StoredLookups(ctx context.Context, norm *lookup.Normalizer) lookup.Tables {
	content, ok, err := l.repo.ReferenceMapping(ctx)
	if err != nil || !ok {
		return lookup.Empty(norm)
	}
	tables, err := lookup.LoadReferenceMapping(strings.NewReader(content), norm)
	if err != nil {
		return lookup.Empty(norm)
	}
	return tables
}

func (l *Loader) fetchMapping(ctx context.Context) (string, error) {
	if l.source == nil {
		return "", fmt.Errorf("no reference mapping source configured")
	}
	return l.source.FetchReferenceMapping(ctx)
}
