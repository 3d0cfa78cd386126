// Package topiccache resolves study topics cache-aside: remote service
// first, seeded local store as the offline fallback, with results mirrored
// to a durable key-value store for the next session. Cache state is owned
// by an explicit Cache value, not package globals, so tests can reset it.
package topiccache

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"sync"
	"time"

	"scriptura/pkg/domain"
	"scriptura/pkg/store"
)

// RemoteSource is the remote content service surface the cache draws from.
type RemoteSource interface {
	TopicsByCategory(ctx context.Context, category domain.Category) ([]domain.Topic, error)
}

// LocalSource is the seeded local store fallback.
type LocalSource interface {
	TopicsByLanguage(ctx context.Context, language string) ([]domain.Topic, error)
}

// Result is what a category resolution yields. InitialLoad is true only
// while no source has produced data yet.
type Result struct {
	Topics      []domain.Topic     `json:"topics"`
	Source      domain.TopicSource `json:"source,omitempty"`
	InitialLoad bool               `json:"initialLoad"`
}

// Cache orchestrates per-category topic resolution. Entries for different
// categories are independent; a failure for one never blocks another.
type Cache struct {
	mu      sync.Mutex
	entries map[domain.Category]domain.CacheRecord

	remote   RemoteSource
	local    LocalSource
	kv       store.KV
	language string
	now      func() time.Time
}

// New builds a cache. remote, local, and kv may each be nil; the cache
// simply skips the missing source.
func New(remote RemoteSource, local LocalSource, kv store.KV, language string) *Cache {
	return &Cache{
		entries:  make(map[domain.Category]domain.CacheRecord),
		remote:   remote,
		local:    local,
		kv:       kv,
		language: language,
		now:      time.Now,
	}
}

func cacheKey(category domain.Category) string {
	return "topics:cache:" + string(category)
}

// TopicsByCategory resolves topics for one category, in order: the session
// cache, the remote service, the seeded local store, then the durable copy
// from a previous session. Source failures are absorbed into the fallback
// chain; only context cancellation is returned as an error.
func (c *Cache) TopicsByCategory(ctx context.Context, category domain.Category) (Result, error) {
	c.mu.Lock()
	if rec, ok := c.entries[category]; ok {
		c.mu.Unlock()
		return Result{Topics: rec.Topics, Source: rec.Source}, nil
	}
	c.mu.Unlock()

	if c.remote != nil {
		topics, err := c.remote.TopicsByCategory(ctx, category)
		if err != nil {
			if ctx.Err() != nil {
				return Result{}, ctx.Err()
			}
			slog.Debug("remote topics unavailable, falling back", "category", category, "err", err)
		} else if filtered := filterCategory(topics, category); len(filtered) > 0 {
			// Some remote surfaces combine categories; filter defensively.
			rec := c.storeRecord(ctx, category, filtered, domain.SourceRemote)
			return Result{Topics: rec.Topics, Source: rec.Source}, nil
		}
	}

	if c.local != nil {
		topics, err := c.local.TopicsByLanguage(ctx, c.language)
		if err != nil {
			if ctx.Err() != nil {
				return Result{}, ctx.Err()
			}
			slog.Debug("local topics unavailable", "category", category, "err", err)
		} else if filtered := filterCategory(topics, category); len(filtered) > 0 {
			// The seed schema carries no description; it stays nil here
			// rather than being fabricated.
			for i := range filtered {
				filtered[i].Description = nil
			}
			rec := c.storeRecord(ctx, category, filtered, domain.SourceLocal)
			return Result{Topics: rec.Topics, Source: rec.Source}, nil
		}
	}

	if rec, ok := c.lastKnownGood(ctx, category); ok {
		return Result{Topics: rec.Topics, Source: domain.SourceCached}, nil
	}

	return Result{Topics: []domain.Topic{}, InitialLoad: true}, nil
}

// storeRecord caches a successful resolution in memory and mirrors it to
// the durable store. Durable writes happen only here, never for in-flight
// or failed attempts.
func (c *Cache) storeRecord(ctx context.Context, category domain.Category, topics []domain.Topic, source domain.TopicSource) domain.CacheRecord {
	sort.SliceStable(topics, func(i, j int) bool { return topics[i].SortOrder < topics[j].SortOrder })
	rec := domain.CacheRecord{
		Category:  category,
		Topics:    topics,
		FetchedAt: c.now().UTC(),
		Source:    source,
	}
	c.mu.Lock()
	c.entries[category] = rec
	c.mu.Unlock()

	if c.kv != nil {
		if raw, err := json.Marshal(rec); err == nil {
			if err := c.kv.Set(ctx, cacheKey(category), string(raw)); err != nil {
				slog.Warn("persist topic cache", "category", category, "err", err)
			}
		}
	}
	return rec
}

// lastKnownGood reads the durable record written by a previous session.
// It is not promoted into the session cache, so the next call still tries
// the live sources.
func (c *Cache) lastKnownGood(ctx context.Context, category domain.Category) (domain.CacheRecord, bool) {
	if c.kv == nil {
		return domain.CacheRecord{}, false
	}
	raw, ok, err := c.kv.Get(ctx, cacheKey(category))
	if err != nil || !ok {
		return domain.CacheRecord{}, false
	}
	var rec domain.CacheRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil || rec.Category != category || len(rec.Topics) == 0 {
		return domain.CacheRecord{}, false
	}
	return rec, true
}

// Reset clears session and durable cache state. Test hook only; production
// code paths never call it.
func (c *Cache) Reset(ctx context.Context) {
	c.mu.Lock()
	c.entries = make(map[domain.Category]domain.CacheRecord)
	c.mu.Unlock()
	if c.kv != nil {
		for _, category := range domain.Categories {
			_ = c.kv.Delete(ctx, cacheKey(category))
		}
	}
}

func filterCategory(topics []domain.Topic, category domain.Category) []domain.Topic {
	out := make([]domain.Topic, 0, len(topics))
	for _, topic := range topics {
		if topic.Category == category {
			out = append(out, topic)
		}
	}
	return out
}
