package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/BenjaminSRussell/sitecrawl/internal/types"
)

// ErrSiteNotFound is returned when no site is indexed for a domain
var ErrSiteNotFound = errors.New("site not found")

// Site is the index entry of the last crawl of a domain
type Site struct {
	Domain    string
	SessionID string
	StartURL  string
	CreatedAt time.Time
	Pages     int
}

// SQLiteStore keeps the pages of the latest crawl of each domain
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at dbPath
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", dbPath))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	schema := `
	CREATE TABLE IF NOT EXISTS sites (
		domain TEXT PRIMARY KEY,
		session_id TEXT UNIQUE NOT NULL,
		start_url TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS pages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		url TEXT NOT NULL,
		text TEXT NOT NULL,
		links_block TEXT NOT NULL,
		content_hash TEXT NOT NULL,
		crawled_at TIMESTAMP,
		FOREIGN KEY (session_id) REFERENCES sites(session_id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_pages_session ON pages(session_id, position);
	`

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// ReplaceSite stores pages as the only crawl of site.Domain, dropping any
// previous one
func (s *SQLiteStore) ReplaceSite(ctx context.Context, site Site, pages []types.PageRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM sites WHERE domain = ?", site.Domain); err != nil {
		return fmt.Errorf("failed to drop previous site: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO sites (domain, session_id, start_url, created_at) VALUES (?, ?, ?, ?)",
		site.Domain, site.SessionID, site.StartURL, site.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save site: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO pages (session_id, position, url, text, links_block, content_hash, crawled_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, p := range pages {
		if _, err := stmt.ExecContext(ctx, site.SessionID, i, p.URL, p.Text, p.LinksBlock, p.ContentHash, p.CrawledAt.UTC()); err != nil {
			return fmt.Errorf("failed to save page %s: %w", p.URL, err)
		}
	}

	return tx.Commit()
}

// LoadSite returns the indexed site for domain
func (s *SQLiteStore) LoadSite(ctx context.Context, domain string) (Site, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT s.domain, s.session_id, s.start_url, s.created_at,
			(SELECT COUNT(*) FROM pages p WHERE p.session_id = s.session_id)
		FROM sites s WHERE s.domain = ?
	`, domain)

	var site Site
	err := row.Scan(&site.Domain, &site.SessionID, &site.StartURL, &site.CreatedAt, &site.Pages)
	if errors.Is(err, sql.ErrNoRows) {
		return Site{}, fmt.Errorf("%w: %s", ErrSiteNotFound, domain)
	}
	if err != nil {
		return Site{}, err
	}
	return site, nil
}

// Sites lists every indexed site, newest first
func (s *SQLiteStore) Sites(ctx context.Context) ([]Site, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.domain, s.session_id, s.start_url, s.created_at,
			(SELECT COUNT(*) FROM pages p WHERE p.session_id = s.session_id)
		FROM sites s ORDER BY s.created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sites := make([]Site, 0)
	for rows.Next() {
		var site Site
		if err := rows.Scan(&site.Domain, &site.SessionID, &site.StartURL, &site.CreatedAt, &site.Pages); err != nil {
			return nil, err
		}
		sites = append(sites, site)
	}
	return sites, rows.Err()
}

// Pages returns the pages of a session in discovery order
func (s *SQLiteStore) Pages(ctx context.Context, sessionID string) ([]types.PageRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT url, text, links_block, content_hash, crawled_at
		FROM pages WHERE session_id = ? ORDER BY position
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	pages := make([]types.PageRecord, 0)
	for rows.Next() {
		var p types.PageRecord
		var crawledAt sql.NullTime
		if err := rows.Scan(&p.URL, &p.Text, &p.LinksBlock, &p.ContentHash, &crawledAt); err != nil {
			return nil, err
		}
		if crawledAt.Valid {
			p.CrawledAt = crawledAt.Time
		}
		pages = append(pages, p)
	}
	return pages, rows.Err()
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
