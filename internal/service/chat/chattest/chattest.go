// Package chattest provides a scripted generator and a store-backed
// controller for tests of packages built on the session controller.
package chattest

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/xandylearning/mentor-ai/backend/internal/cache"
	"github.com/xandylearning/mentor-ai/backend/internal/config"
	"github.com/xandylearning/mentor-ai/backend/internal/repository"
	"github.com/xandylearning/mentor-ai/backend/internal/service/ai"
	"github.com/xandylearning/mentor-ai/backend/internal/service/chat"
	"github.com/xandylearning/mentor-ai/backend/internal/service/style"
)

// StyleJSON is the default scripted style analysis: every required key set.
const StyleJSON = `{"tone":"direct","common_phrases":["Try again"],"emoji_usage":"none","message_length":"short","greeting_style":"none","sign_off_style":"command","punctuation_style":"period_heavy","encouragement_level":"low"}`

// Generator is a scripted ai.Generator that records its calls.
type Generator struct {
	mu sync.Mutex

	Summary     string
	SummaryErr  error
	Replies     map[ai.Mode]string
	GenerateErr error
	// Wait delays every Generate call.
	Wait        time.Duration

	summaries   int
	generations map[ai.Mode]int
	requests    []ai.Request
}

// NewGenerator returns a generator with canned output for every mode.
func NewGenerator() *Generator {
	return &Generator{
		Summary:     "Student is starting Python.",
		generations: make(map[ai.Mode]int),
		Replies: map[ai.Mode]string{
			ai.ModeReply: "A list is an ordered collection.",
			ai.ModeNudge: "Great job on the exam!",
			ai.ModeStyle: StyleJSON,
		},
	}
}

func (g *Generator) SummarizeJourney(_ context.Context, _ string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.summaries++
	if g.SummaryErr != nil {
		return "", g.SummaryErr
	}
	return g.Summary, nil
}

func (g *Generator) Generate(ctx context.Context, req ai.Request) (string, error) {
	if g.Wait > 0 {
		select {
		case <-time.After(g.Wait):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.generations[req.Mode]++
	g.requests = append(g.requests, req)
	if g.GenerateErr != nil {
		return "", g.GenerateErr
	}
	return g.Replies[req.Mode], nil
}

// SetReply replaces the canned output for mode.
func (g *Generator) SetReply(mode ai.Mode, text string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Replies[mode] = text
}

// Summaries counts SummarizeJourney calls.
func (g *Generator) Summaries() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.summaries
}

// Generations counts Generate calls for mode.
func (g *Generator) Generations(mode ai.Mode) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.generations[mode]
}

// LastRequest returns the most recent Generate input.
func (g *Generator) LastRequest() ai.Request {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.requests) == 0 {
		return ai.Request{}
	}
	return g.requests[len(g.requests)-1]
}

// Fixture bundles a controller with its store and generator.
type Fixture struct {
	Service *chat.Service
	Store   *repository.Store
	Gen     *Generator
}

// New opens a sqlite store in a temp dir and wires a controller to it.
func New(t testing.TB, opts chat.Options) Fixture {
	t.Helper()
	db, err := repository.Open(config.DatabaseConfig{
		Path:        filepath.Join(t.TempDir(), "mentor_ai.db"),
		BusyTimeout: time.Second,
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	store := repository.NewStore(db)
	t.Cleanup(func() { _ = store.Close() })

	gen := NewGenerator()
	resolver := style.NewResolver(store, cache.NewMemoryCache(), time.Hour, zap.NewNop())
	return Fixture{
		Service: chat.NewService(store, gen, resolver, opts, zap.NewNop()),
		Store:   store,
		Gen:     gen,
	}
}
