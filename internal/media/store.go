// Package media is the host-side library exported images are saved into.
//
// Blobs are written as files under a directory; their dimensions and the
// replayable export metadata are recorded in SQLite. The schema is applied
// from embedded migrations when the store is opened.
package media

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	// SQLite driver (pure Go, no CGO required)
	_ "modernc.org/sqlite"

	"github.com/ironsheep/image-editor-mcp/internal/editor"
)

// ErrNotFound is returned for an unknown media id.
var ErrNotFound = errors.New("media not found")

// Item is one saved export.
type Item struct {
	ID        string                `json:"id"`
	Filename  string                `json:"filename"`
	MimeType  string                `json:"mime_type"`
	Width     int                   `json:"width"`
	Height    int                   `json:"height"`
	SizeBytes int64                 `json:"size_bytes"`
	Metadata  editor.ExportMetadata `json:"metadata"`
	CreatedAt time.Time             `json:"created_at"`
}

// Config locates the library on disk.
type Config struct {
	// Dir holds the image files. It is created if missing.
	Dir string

	// Database is the SQLite file. Defaults to Dir/media.db.
	Database string

	BusyTimeoutMS int
}

// Store saves exports and answers queries about them. It implements
// editor.SaveHandler.
type Store struct {
	db  *sql.DB
	dir string
	log *zap.Logger
	now func() time.Time
}

var _ editor.SaveHandler = (*Store)(nil)

// Open prepares the directory, applies migrations and returns a ready store.
func Open(cfg Config, logger *zap.Logger) (*Store, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("media directory is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Database == "" {
		cfg.Database = filepath.Join(cfg.Dir, "media.db")
	}
	if cfg.BusyTimeoutMS <= 0 {
		cfg.BusyTimeoutMS = 5000
	}

	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create media directory %s: %w", cfg.Dir, err)
	}
	if dir := filepath.Dir(cfg.Database); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
		}
	}

	// golang-migrate closes the connection it is given.
	migrateConn, err := openSQLite(cfg.Database, cfg.BusyTimeoutMS)
	if err != nil {
		return nil, err
	}
	if err := migrateUp(migrateConn); err != nil {
		return nil, err
	}

	db, err := openSQLite(cfg.Database, cfg.BusyTimeoutMS)
	if err != nil {
		return nil, err
	}

	logger.Info("media library ready", zap.String("dir", cfg.Dir), zap.String("database", cfg.Database))
	return &Store{db: db, dir: cfg.Dir, log: logger, now: time.Now}, nil
}

func openSQLite(path string, busyTimeoutMS int) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	pragmas := []struct {
		name  string
		query string
	}{
		{"journal_mode", "PRAGMA journal_mode=WAL"},
		{"busy_timeout", fmt.Sprintf("PRAGMA busy_timeout=%d", busyTimeoutMS)},
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p.query); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set %s pragma: %w", p.name, err)
		}
	}
	return db, nil
}

// Save writes the blob to the media directory, records it and returns its id.
func (s *Store) Save(ctx context.Context, img *editor.EncodedImage, meta editor.ExportMetadata) (string, error) {
	if img == nil || len(img.Data) == 0 {
		return "", fmt.Errorf("nothing to save")
	}

	id := uuid.NewString()
	filename := id + "." + img.Format.Extension()
	path := filepath.Join(s.dir, filename)

	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return "", fmt.Errorf("failed to encode metadata: %w", err)
	}

	if err := os.WriteFile(path, img.Data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", filename, err)
	}

	created := s.now().UTC()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO media (id, filename, mime_type, width, height, size_bytes, metadata, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, filename, img.MimeType, img.Width, img.Height, len(img.Data), string(metaJSON),
		created.Format(timeLayout))
	if err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to record media: %w", err)
	}

	s.log.Info("media saved",
		zap.String("id", id),
		zap.String("filename", filename),
		zap.Int("bytes", len(img.Data)))
	return id, nil
}

// timeLayout has a fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const selectColumns = `SELECT id, filename, mime_type, width, height, size_bytes, metadata, created_at FROM media`

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(row scanner) (*Item, error) {
	var (
		item     Item
		metaJSON string
		created  string
	)
	if err := row.Scan(&item.ID, &item.Filename, &item.MimeType, &item.Width, &item.Height,
		&item.SizeBytes, &metaJSON, &created); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(metaJSON), &item.Metadata); err != nil {
		return nil, fmt.Errorf("corrupt metadata for %s: %w", item.ID, err)
	}
	t, err := time.Parse(timeLayout, created)
	if err != nil {
		return nil, fmt.Errorf("corrupt timestamp for %s: %w", item.ID, err)
	}
	item.CreatedAt = t
	return &item, nil
}

// Get returns the record for id.
func (s *Store) Get(ctx context.Context, id string) (*Item, error) {
	item, err := scanItem(s.db.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query media %s: %w", id, err)
	}
	return item, nil
}

// Read returns the stored blob together with its record.
func (s *Store) Read(ctx context.Context, id string) ([]byte, *Item, error) {
	item, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	data, err := os.ReadFile(s.Path(item))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read %s: %w", item.Filename, err)
	}
	return data, item, nil
}

// Path returns the file location of item.
func (s *Store) Path(item *Item) string {
	return filepath.Join(s.dir, item.Filename)
}

// List returns the newest items first. limit <= 0 means no limit.
func (s *Store) List(ctx context.Context, limit int) ([]Item, error) {
	query := selectColumns + ` ORDER BY created_at DESC, id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list media: %w", err)
	}
	defer rows.Close()

	items := []Item{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}
