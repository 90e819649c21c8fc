// Package style resolves the style profile used to condition generation:
// an explicit profile wins, then the cache, then the store, then the default.
package style

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/xandylearning/mentor-ai/backend/internal/cache"
	"github.com/xandylearning/mentor-ai/backend/internal/model/mentor"
)

// Store is the read side of the persistence layer the resolver needs.
type Store interface {
	GetMentorStyle(ctx context.Context, mentorID string) (mentor.Style, bool, error)
}

// CacheKey is the cache key for a mentor's profile.
func CacheKey(mentorID string) string {
	return "mentor_style:" + mentorID
}

// Resolver looks up mentor style profiles.
type Resolver struct {
	store Store
	cache cache.Cache
	ttl   time.Duration
	log   *zap.Logger

	// gen counts writes per mentor so a lookup that read the store before a
	// write-through does not overwrite the newer cache entry.
	mu  sync.Mutex
	gen map[string]uint64
}

// NewResolver builds a resolver. c may be nil to disable caching.
func NewResolver(store Store, c cache.Cache, ttl time.Duration, log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{store: store, cache: c, ttl: ttl, log: log.Named("style"), gen: make(map[string]uint64)}
}

// Resolve never fails: lookup errors are logged and the next source is tried,
// ending with mentor.DefaultProfile. The returned style carries the stored
// sample messages when the profile came from the cache or the store.
func (r *Resolver) Resolve(ctx context.Context, mentorID string, provided *mentor.StyleProfile) mentor.Style {
	if provided != nil {
		return mentor.Style{MentorID: mentorID, Profile: *provided}
	}

	if style, ok := r.fromCache(ctx, mentorID); ok {
		return style
	}

	gen := r.generation(mentorID)
	style, found, err := r.store.GetMentorStyle(ctx, mentorID)
	if err != nil {
		r.log.Warn("style lookup failed, using default", zap.String("mentor_id", mentorID), zap.Error(err))
		return mentor.Style{MentorID: mentorID, Profile: mentor.DefaultProfile()}
	}
	if !found {
		return mentor.Style{MentorID: mentorID, Profile: mentor.DefaultProfile()}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.gen[mentorID] != gen {
		r.log.Debug("style changed during lookup, skipping cache fill", zap.String("mentor_id", mentorID))
		return style
	}
	r.put(ctx, style)
	return style
}

// Store writes a freshly saved style through to the cache.
func (r *Resolver) Store(ctx context.Context, style mentor.Style) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gen[style.MentorID]++
	r.put(ctx, style)
}

// Invalidate drops the cached profile for mentorID.
func (r *Resolver) Invalidate(ctx context.Context, mentorID string) {
	r.mu.Lock()
	r.gen[mentorID]++
	r.mu.Unlock()
	r.drop(ctx, mentorID)
}

func (r *Resolver) generation(mentorID string) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.gen[mentorID]
}

func (r *Resolver) drop(ctx context.Context, mentorID string) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Delete(ctx, CacheKey(mentorID)); err != nil {
		r.log.Warn("style cache delete failed", zap.String("mentor_id", mentorID), zap.Error(err))
	}
}

func (r *Resolver) fromCache(ctx context.Context, mentorID string) (mentor.Style, bool) {
	if r.cache == nil {
		return mentor.Style{}, false
	}
	raw, found, err := r.cache.Get(ctx, CacheKey(mentorID))
	if err != nil {
		r.log.Warn("style cache read failed", zap.String("mentor_id", mentorID), zap.Error(err))
		return mentor.Style{}, false
	}
	if !found {
		return mentor.Style{}, false
	}

	var style mentor.Style
	if err := json.Unmarshal(raw, &style); err != nil {
		r.log.Warn("discarding corrupt cached style", zap.String("mentor_id", mentorID), zap.Error(err))
		r.drop(ctx, mentorID)
		return mentor.Style{}, false
	}
	return style, true
}

// put must be called with r.mu held.
func (r *Resolver) put(ctx context.Context, style mentor.Style) {
	if r.cache == nil {
		return
	}
	raw, err := json.Marshal(style)
	if err != nil {
		r.log.Warn("style encode failed", zap.String("mentor_id", style.MentorID), zap.Error(err))
		return
	}
	if err := r.cache.Set(ctx, CacheKey(style.MentorID), raw, r.ttl); err != nil {
		r.log.Warn("style cache write failed", zap.String("mentor_id", style.MentorID), zap.Error(err))
	}
}
