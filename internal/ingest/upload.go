package ingest

import (
	"context"
	"mime"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/amrverse/amrrulebrowser/internal/rules"
)

// LocalFile is a user-selected file whose content is read on demand.
type LocalFile struct {
	Name         string
	Type         string
	LastModified time.Time
	Read         func() (string, error)
}

// FromPaths describes files on disk as LocalFiles named by their base name.
func FromPaths(paths []string) []LocalFile {
	files := make([]LocalFile, 0, len(paths))
	for _, p := range paths {
		p := p
		lf := LocalFile{
			Name: filepath.Base(p),
			Type: mime.TypeByExtension(filepath.Ext(p)),
			Read: func() (string, error) {
				data, err := os.ReadFile(p)
				return string(data), err
			},
		}
		if lf.Type == "" {
			lf.Type = "text/plain"
		}
		if info, err := os.Stat(p); err == nil {
			lf.LastModified = info.ModTime()
		}
		files = append(files, lf)
	}
	return files
}

// Upload reads the given files concurrently, parses each, and upserts it into the
// store, replacing any file of the same name. A file that cannot be read is
// reported and skipped. The merged set is saved once all reads have settled.
func (l *Loader) Upload(ctx context.Context, files []LocalFile) *Report {
	report := &Report{Listed: len(files)}
	parsed := make([]*rules.File, len(files))
	failed := make([]*FetchError, len(files))

	var g errgroup.Group
	if l.workers > 0 {
		g.SetLimit(l.workers)
	}
	now := l.now()
	for i, lf := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				failed[i] = &FetchError{Name: lf.Name, Err: err}
				return nil
			}
			content, err := lf.Read()
			if err != nil {
				failed[i] = &FetchError{Name: lf.Name, Err: err}
				return nil
			}
			f := rules.NewFile(lf.Name, content, l.parser)
			f.Type = lf.Type
			f.LastModified = lf.LastModified
			if f.LastModified.IsZero() {
				f.LastModified = now
			}
			parsed[i] = f
			return nil
		})
	}
	_ = g.Wait()

	for i := range files {
		if fe := failed[i]; fe != nil {
			l.logger.Warn("failed to read uploaded file", zap.String("file", fe.Name), zap.Error(fe.Err))
			report.Failed = append(report.Failed, fe)
			continue
		}
		f := parsed[i]
		l.store.Upsert(f.Name, f)
		report.Fetched = append(report.Fetched, f.Name)
	}

	if len(report.Fetched) > 0 {
		report.SaveErr = l.save(ctx)
	}
	return report
}
