// Package session tracks which crawl of a site downstream queries should
// read. A session is created when a site is ingested and only looked up
// afterwards.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/BenjaminSRussell/sitecrawl/internal/parser"
	"github.com/BenjaminSRussell/sitecrawl/internal/storage"
	"github.com/BenjaminSRussell/sitecrawl/internal/types"
)

// ErrNoSession is returned when a site has not been ingested
var ErrNoSession = errors.New("no session for site")

// Session identifies the indexed crawl of one domain
type Session struct {
	ID        string
	Domain    string
	StartURL  string
	CreatedAt time.Time
	PageCount int
}

// Store persists sessions and their pages
type Store interface {
	ReplaceSite(ctx context.Context, site storage.Site, pages []types.PageRecord) error
	LoadSite(ctx context.Context, domain string) (storage.Site, error)
	Pages(ctx context.Context, sessionID string) ([]types.PageRecord, error)
}

// Registry creates and resolves sessions keyed by domain
type Registry struct {
	store Store
	log   *logrus.Entry
	now   func() time.Time
}

// NewRegistry creates a registry backed by store
func NewRegistry(store Store, log *logrus.Entry) *Registry {
	return &Registry{store: store, log: log, now: time.Now}
}

// Create records pages as the current session of the start URL's domain,
// replacing any earlier session for that domain
func (r *Registry) Create(ctx context.Context, startURL string, pages []types.PageRecord) (*Session, error) {
	domain, err := parser.Host(startURL)
	if err != nil {
		return nil, err
	}

	s := &Session{
		ID:        uuid.NewString(),
		Domain:    domain,
		StartURL:  startURL,
		CreatedAt: r.now(),
		PageCount: len(pages),
	}

	site := storage.Site{
		Domain:    s.Domain,
		SessionID: s.ID,
		StartURL:  s.StartURL,
		CreatedAt: s.CreatedAt,
	}
	if err := r.store.ReplaceSite(ctx, site, pages); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}

	r.log.WithFields(logrus.Fields{
		"session": s.ID,
		"domain":  s.Domain,
		"pages":   s.PageCount,
	}).Info("Session created")
	return s, nil
}

// Lookup returns the session for a domain or any URL on it
func (r *Registry) Lookup(ctx context.Context, domainOrURL string) (*Session, error) {
	domain := strings.ToLower(strings.TrimSpace(domainOrURL))
	if strings.Contains(domain, "://") {
		host, err := parser.Host(domain)
		if err != nil {
			return nil, err
		}
		domain = host
	}

	site, err := r.store.LoadSite(ctx, domain)
	if errors.Is(err, storage.ErrSiteNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNoSession, domain)
	}
	if err != nil {
		return nil, err
	}

	return &Session{
		ID:        site.SessionID,
		Domain:    site.Domain,
		StartURL:  site.StartURL,
		CreatedAt: site.CreatedAt,
		PageCount: site.Pages,
	}, nil
}

// Pages returns the session's pages in discovery order
func (r *Registry) Pages(ctx context.Context, s *Session) ([]types.PageRecord, error) {
	return r.store.Pages(ctx, s.ID)
}

// Documents returns the session's page documents in discovery order
func (r *Registry) Documents(ctx context.Context, s *Session) ([]string, error) {
	pages, err := r.Pages(ctx, s)
	if err != nil {
		return nil, err
	}
	docs := make([]string, len(pages))
	for i, p := range pages {
		docs[i] = p.Document()
	}
	return docs, nil
}
