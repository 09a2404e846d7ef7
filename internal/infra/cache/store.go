// Package cache provides a SQLite-based store for resolved artwork URLs
// and the gallery album identity.
package cache

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"github.com/rs/zerolog/log"
)

const (
	// CurrentSchemaVersion is the current database schema version.
	CurrentSchemaVersion = "1"

	// Meta keys for the gallery album identity.
	metaAlbumID         = "gallery_album_id"
	metaAlbumDeleteHash = "gallery_album_deletehash"
)

// Store is the SQLite-backed art cache. It implements artwork.Store.
type Store struct {
	mu   sync.RWMutex
	db   *sql.DB
	path string
}

// NewStore creates a store instance for the given database path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Open opens the database and initializes the schema.
func (s *Store) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite3", s.path+"?_journal=WAL&_busy_timeout=5000")
	if err != nil {
		return fmt.Errorf("open cache database: %w", err)
	}

	// SQLite only supports one writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	s.db = db

	if err := s.initSchema(); err != nil {
		s.db.Close()
		s.db = nil
		return fmt.Errorf("initialize schema: %w", err)
	}

	log.Info().Str("path", s.path).Msg("Art cache database opened")
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		err := s.db.Close()
		s.db = nil
		return err
	}
	return nil
}

func (s *Store) initSchema() error {
	schema := `
	-- Resolved artwork URLs, keyed by the source image key
	CREATE TABLE IF NOT EXISTS art_urls (
		image_key TEXT PRIMARY KEY,
		url TEXT NOT NULL,
		created_at TEXT DEFAULT CURRENT_TIMESTAMP
	);

	-- Store metadata (schema version, gallery album identity)
	CREATE TABLE IF NOT EXISTS cache_meta (
		key TEXT PRIMARY KEY,
		value TEXT,
		updated_at TEXT DEFAULT CURRENT_TIMESTAMP
	);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return s.setMeta("schema_version", CurrentSchemaVersion)
}

// GetURL returns the stored URL for an image key, or "" when absent.
func (s *Store) GetURL(imageKey string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return "", fmt.Errorf("database not open")
	}

	var url string
	err := s.db.QueryRow("SELECT url FROM art_urls WHERE image_key = ?", imageKey).Scan(&url)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return url, nil
}

// PutURL stores or overwrites the URL for an image key.
func (s *Store) PutURL(imageKey, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return fmt.Errorf("database not open")
	}

	_, err := s.db.Exec(`
		INSERT INTO art_urls (image_key, url, created_at) VALUES (?, ?, ?)
		ON CONFLICT(image_key) DO UPDATE SET url = excluded.url
	`, imageKey, url, time.Now().Format(time.RFC3339))
	return err
}

// GetAlbum returns the stored gallery album identity, or empty strings.
func (s *Store) GetAlbum() (string, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return "", "", fmt.Errorf("database not open")
	}

	id, err := s.getMeta(metaAlbumID)
	if err != nil {
		return "", "", err
	}
	hash, err := s.getMeta(metaAlbumDeleteHash)
	if err != nil {
		return "", "", err
	}
	return id, hash, nil
}

// PutAlbum stores the gallery album identity.
func (s *Store) PutAlbum(id, deleteHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return fmt.Errorf("database not open")
	}

	if err := s.setMeta(metaAlbumID, id); err != nil {
		return err
	}
	return s.setMeta(metaAlbumDeleteHash, deleteHash)
}

func (s *Store) setMeta(key, value string) error {
	now := time.Now().Format(time.RFC3339)
	_, err := s.db.Exec(`
		INSERT INTO cache_meta (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, now)
	return err
}

func (s *Store) getMeta(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM cache_meta WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}
