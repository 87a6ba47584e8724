// Package cache is the optional incremental render cache. It remembers, per
// source-relative path, the content hash it was last rendered from together
// with a site hash covering the shared stylesheet/header/footer. A page whose
// hashes are unchanged and whose output file still exists can skip rendering.
//
// The cache is an optimization only; correctness never depends on it.
package cache

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Store is a SQLite-backed render cache. Use ":memory:" for an in-memory
// cache, or a file path for one that survives restarts.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// Open opens (and initializes) a cache database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open cache database: %w", err)
	}
	s := &Store{db: db}
	if err := s.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize cache schema: %w", err)
	}
	return s, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS pages (
		path TEXT PRIMARY KEY,
		content_hash TEXT NOT NULL,
		site_hash TEXT NOT NULL,
		rendered_at INTEGER NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Fresh reports whether relPath was last rendered from exactly this content
// and site hash. A miss (unknown path or changed hash) returns false.
func (s *Store) Fresh(ctx context.Context, relPath, contentHash, siteHash string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var gotContent, gotSite string
	err := s.db.QueryRowContext(ctx,
		"SELECT content_hash, site_hash FROM pages WHERE path = ?", relPath,
	).Scan(&gotContent, &gotSite)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query cache: %w", err)
	}
	return gotContent == contentHash && gotSite == siteHash, nil
}

// Record stores the hashes relPath was just rendered from.
func (s *Store) Record(ctx context.Context, relPath, contentHash, siteHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO pages (path, content_hash, site_hash, rendered_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(path) DO UPDATE SET content_hash = excluded.content_hash,
		 site_hash = excluded.site_hash, rendered_at = excluded.rendered_at`,
		relPath, contentHash, siteHash, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("record cache entry: %w", err)
	}
	return nil
}

// Forget drops the entry for a removed source path.
func (s *Store) Forget(ctx context.Context, relPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, "DELETE FROM pages WHERE path = ?", relPath); err != nil {
		return fmt.Errorf("forget cache entry: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Hash returns the hex-encoded SHA-256 of b.
func Hash(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// SiteHash combines the shared chrome inputs into one hash. Any change to the
// stylesheet, header or footer invalidates every cached page, since their
// presence is baked into each one.
func SiteHash(parts ...[]byte) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write(p)
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
