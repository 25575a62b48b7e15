// Package enrich looks up external metadata for classified entries.
//
// An [Enricher] consults every configured provider independently, caches each provider's
// answers under a deterministic key, and returns the candidate that scores best against the
// classifier's title and year. Provider failures degrade the lookup instead of aborting it.
package enrich

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/lens/internal/cache"
	"github.com/desertthunder/lens/internal/classifier"
	"github.com/desertthunder/lens/internal/models"
	"github.com/desertthunder/lens/internal/normalize"
	"github.com/desertthunder/lens/internal/services"
	"github.com/desertthunder/lens/internal/shared"
)

const DefaultTTL = 24 * time.Hour

const (
	opSearch  = "search"
	opDetails = "details"
)

// Enricher resolves titles against metadata providers through a shared cache.
type Enricher struct {
	providers []services.Provider
	cache     cache.Cache
	ttl       time.Duration
	logger    *log.Logger
}

// Option configures an [Enricher].
type Option func(*Enricher)

// WithCache sets the cache consulted before each provider call.
func WithCache(c cache.Cache, ttl time.Duration) Option {
	return func(e *Enricher) {
		if c != nil {
			e.cache = c
		}
		if ttl > 0 {
			e.ttl = ttl
		}
	}
}

// WithLogger sets the logger used for cache and provider diagnostics.
func WithLogger(l *log.Logger) Option {
	return func(e *Enricher) {
		if l != nil {
			e.logger = l
		}
	}
}

// New creates an Enricher over providers. Nil providers are skipped.
func New(providers []services.Provider, opts ...Option) *Enricher {
	e := &Enricher{
		cache:  cache.Noop{},
		ttl:    DefaultTTL,
		logger: log.New(io.Discard),
	}
	for _, p := range providers {
		if p != nil {
			e.providers = append(e.providers, p)
		}
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Providers returns the names of the configured providers.
func (e *Enricher) Providers() []string {
	names := make([]string, len(e.providers))
	for i, p := range e.providers {
		names[i] = p.Name()
	}
	return names
}

// Enrich returns the best candidate for title across all providers, or nil.
//
// Each provider is queried independently. When some providers fail the best candidate
// from the rest is still returned, together with the joined provider errors.
func (e *Enricher) Enrich(ctx context.Context, title string, year int, kind models.ContentType) (*models.Candidate, error) {
	if normalize.FoldKey(title) == "" || kind == models.Channel {
		return nil, nil
	}

	var (
		all  []models.Candidate
		errs []error
	)
	for _, p := range e.providers {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		cands, err := e.search(ctx, p, title, year, kind)
		if err != nil {
			e.logger.Warn("provider search failed", "provider", p.Name(), "title", title, "err", err)
			errs = append(errs, err)
			continue
		}
		all = append(all, cands...)
	}

	best, score := classifier.BestCandidate(title, year, all)
	if best != nil {
		e.logger.Debug("enrichment match", "title", title, "provider", best.Provider, "match", best.Title, "score", score)
		c := *best
		return &c, errors.Join(errs...)
	}
	return nil, errors.Join(errs...)
}

// Details fetches the full record for cand from the provider that produced it.
// A provider answering "not found" yields nil details and no error.
func (e *Enricher) Details(ctx context.Context, cand models.Candidate) (*models.Details, error) {
	p := e.provider(cand.Provider)
	if p == nil {
		return nil, fmt.Errorf("%w: unknown provider %q", shared.ErrProvider, cand.Provider)
	}

	key := DetailsKey(p.Name(), cand.ExternalID, cand.Kind)
	var cached *models.Details
	if e.lookup(ctx, key, &cached) {
		return cached, nil
	}

	details, err := p.GetDetails(ctx, cand)
	if err != nil {
		e.logger.Warn("provider details failed", "provider", p.Name(), "id", cand.ExternalID, "err", err)
		return nil, err
	}
	e.store(ctx, key, details)
	return details, nil
}

func (e *Enricher) search(ctx context.Context, p services.Provider, title string, year int, kind models.ContentType) ([]models.Candidate, error) {
	key := SearchKey(p.Name(), title, year, kind)
	var cands []models.Candidate
	if e.lookup(ctx, key, &cands) {
		return cands, nil
	}

	cands, err := p.SearchByTitle(ctx, title, year, kind)
	if err != nil {
		return nil, err
	}
	if cands == nil {
		cands = []models.Candidate{}
	}
	e.store(ctx, key, cands)
	return cands, nil
}

func (e *Enricher) provider(name string) services.Provider {
	for _, p := range e.providers {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// lookup decodes a cached value into dst. Any cache failure is a miss.
func (e *Enricher) lookup(ctx context.Context, key string, dst any) bool {
	raw, ok, err := e.cache.Get(ctx, key)
	if err != nil {
		e.logger.Debug("cache get failed", "key", key, "err", fmt.Errorf("%w: %v", shared.ErrCache, err))
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		e.logger.Debug("cache entry undecodable", "key", key, "err", err)
		return false
	}
	return true
}

func (e *Enricher) store(ctx context.Context, key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		e.logger.Debug("cache encode failed", "key", key, "err", err)
		return
	}
	if err := e.cache.Set(ctx, key, raw, e.ttl); err != nil {
		e.logger.Debug("cache set failed", "key", key, "err", fmt.Errorf("%w: %v", shared.ErrCache, err))
	}
}

// SearchKey derives the cache key of a title search: provider, operation, folded title, year and kind.
func SearchKey(provider, title string, year int, kind models.ContentType) string {
	y := "any"
	if year > 0 {
		y = strconv.Itoa(year)
	}
	return provider + ":" + opSearch + ":" + normalize.FoldKey(title) + ":" + y + ":" + kind.String()
}

// DetailsKey derives the cache key of a details lookup.
func DetailsKey(provider, externalID string, kind models.ContentType) string {
	return provider + ":" + opDetails + ":" + externalID + ":" + kind.String()
}
