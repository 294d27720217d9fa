package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/amrverse/amrrulebrowser/internal/rules"
)

// Keys under which the repository stores its blobs.
const (
	SnapshotKey      = "amrrules_files_v2"
	HiddenColumnsKey = "amrrules_hidden_columns"
	MappingKey       = "amrrules_reference_mapping"
)

// fileRecord is the persisted form of one rule file.
type fileRecord struct {
	Name            string     `json:"name"`
	Content         string     `json:"content"`
	HeaderLineIndex int        `json:"headerLineIndex"`
	Headers         []string   `json:"headers"`
	Rows            [][]string `json:"rows"`
	Type            string     `json:"type"`
	LastModified    time.Time  `json:"lastModified"`
}

// Repository reads and writes the whole rule file set as one JSON document.
// Writes always replace the full snapshot; last write wins.
type Repository struct {
	kv     KV
	parser *rules.Parser
	logger *zap.Logger
}

// NewRepository creates a repository over kv. The parser is used to rebuild files
// whose persisted rows no longer match their headers.
func NewRepository(kv KV, parser *rules.Parser) *Repository {
	return &Repository{kv: kv, parser: parser, logger: zap.NewNop()}
}

// SetLogger sets the logger for warnings about unreadable snapshots.
func (r *Repository) SetLogger(l *zap.Logger) {
	r.logger = l
}

// Load reads the persisted snapshot. A missing or malformed snapshot yields an empty
// map; only failures of the underlying KV are returned as errors.
func (r *Repository) Load(ctx context.Context) (map[string]*rules.File, error) {
	files := make(map[string]*rules.File)

	raw, ok, err := r.kv.Get(ctx, SnapshotKey)
	if err != nil {
		return files, fmt.Errorf("read snapshot: %w", err)
	}
	if !ok || raw == "" {
		return files, nil
	}

	var records map[string]fileRecord
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		r.logger.Warn("ignoring unreadable snapshot", zap.Error(err))
		return files, nil
	}

	for key, rec := range records {
		f, err := r.decode(rec)
		if err != nil {
			r.logger.Warn("dropping persisted file", zap.String("file", key), zap.Error(err))
			continue
		}
		f.Name = key
		files[key] = f
	}
	return files, nil
}

func (r *Repository) decode(rec fileRecord) (*rules.File, error) {
	header := rules.NewHeader(rec.Headers)
	rows := make([]rules.Row, 0, len(rec.Rows))
	for i, values := range rec.Rows {
		row, err := rules.NewRow(header, values)
		if err != nil {
			if rec.Content == "" {
				return nil, fmt.Errorf("row %d: %w", i, err)
			}
			f := rules.NewFile(rec.Name, rec.Content, r.parser)
			f.Type, f.LastModified = rec.Type, rec.LastModified
			return f, nil
		}
		rows = append(rows, row)
	}
	return &rules.File{
		Name:            rec.Name,
		Header:          header,
		Rows:            rows,
		HeaderLineIndex: rec.HeaderLineIndex,
		Content:         rec.Content,
		Type:            rec.Type,
		LastModified:    rec.LastModified,
	}, nil
}

// Save writes the full file set, replacing any previous snapshot.
func (r *Repository) Save(ctx context.Context, files map[string]*rules.File) error {
	records := make(map[string]fileRecord, len(files))
	for name, f := range files {
		rows := make([][]string, len(f.Rows))
		for i, row := range f.Rows {
			rows[i] = row.Values()
		}
		records[name] = fileRecord{
			Name:            name,
			Content:         f.Content,
			HeaderLineIndex: f.HeaderLineIndex,
			Headers:         f.Header.Names(),
			Rows:            rows,
			Type:            f.Type,
			LastModified:    f.LastModified,
		}
	}

	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := r.kv.Set(ctx, SnapshotKey, string(data)); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	r.logger.Debug("snapshot saved", zap.Int("files", len(records)), zap.Int("bytes", len(data)))
	return nil
}

// Clear removes the persisted snapshot.
func (r *Repository) Clear(ctx context.Context) error {
	if err := r.kv.Remove(ctx, SnapshotKey); err != nil {
		return fmt.Errorf("remove snapshot: %w", err)
	}
	return nil
}

// HiddenColumns returns the persisted hidden-column preference, sorted.
func (r *Repository) HiddenColumns(ctx context.Context) ([]string, error) {
	raw, ok, err := r.kv.Get(ctx, HiddenColumnsKey)
	if err != nil {
		return nil, fmt.Errorf("read hidden columns: %w", err)
	}
	if !ok || raw == "" {
		return nil, nil
	}
	var cols []string
	if err := json.Unmarshal([]byte(raw), &cols); err != nil {
		r.logger.Warn("ignoring unreadable hidden column preference", zap.Error(err))
		return nil, nil
	}
	sort.Strings(cols)
	return cols, nil
}

// SetHiddenColumns replaces the hidden-column preference.
func (r *Repository) SetHiddenColumns(ctx context.Context, cols []string) error {
	if cols == nil {
		cols = []string{}
	}
	data, err := json.Marshal(cols)
	if err != nil {
		return fmt.Errorf("encode hidden columns: %w", err)
	}
	if err := r.kv.Set(ctx, HiddenColumnsKey, string(data)); err != nil {
		return fmt.Errorf("write hidden columns: %w", err)
	}
	return nil
}

// ReferenceMapping returns the last fetched reference mapping text.
func (r *Repository) ReferenceMapping(ctx context.Context) (string, bool, error) {
	raw, ok, err := r.kv.Get(ctx, MappingKey)
	if err != nil {
		return "", false, fmt.Errorf("read reference mapping: %w", err)
	}
	return raw, ok && raw != "", nil
}

// SetReferenceMapping stores the reference mapping text for offline use.
func (r *Repository) SetReferenceMapping(ctx context.Context, content string) error {
	if err := r.kv.Set(ctx, MappingKey, content); err != nil {
		return fmt.Errorf("write reference mapping: %w", err)
	}
	return nil
}
