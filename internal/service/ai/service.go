// Package ai wraps the hosted chat model behind eino chains: one chain for
// context summaries and one per generation mode.
package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xandylearning/mentor-ai/backend/internal/analysis/transcript"
	"github.com/xandylearning/mentor-ai/backend/internal/apperr"
	"github.com/xandylearning/mentor-ai/backend/internal/config"
	"github.com/xandylearning/mentor-ai/backend/internal/metrics"
	"github.com/xandylearning/mentor-ai/backend/internal/model/mentor"
)

// Mode selects the prompt framing for Generate.
type Mode string

const (
	ModeReply Mode = "reply"
	ModeNudge Mode = "nudge"
	ModeStyle Mode = "style"
)

const opSummarize = "summarize"

// Request is the input to Generate.
//
// For ModeReply Input is the new student message; for ModeNudge it is the
// trigger event description; for ModeStyle it holds the sample messages, one
// per line, and Style is ignored. Examples are the mentor's own messages and
// are shown to the model next to the style description.
type Request struct {
	Mode     Mode
	Style    mentor.StyleProfile
	Examples []string
	Summary  string
	History  string
	Input    string
}

// maxStyleExamples caps how many sample messages reach a prompt.
const maxStyleExamples = 5

// Generator is the generation client used by the session controller.
type Generator interface {
	SummarizeJourney(ctx context.Context, transcript string) (string, error)
	Generate(ctx context.Context, req Request) (string, error)
}

type runnable = compose.Runnable[map[string]any, *schema.Message]

// Options tunes call pacing.
type Options struct {
	Timeout       time.Duration
	RatePerMinute int
}

// Service encapsulates the compiled chains.
type Service struct {
	summarize runnable
	chains    map[Mode]runnable
	limiter   *rate.Limiter
	timeout   time.Duration
	log       *zap.Logger
}

// NewService builds the Ark chat model from cfg and compiles the chains.
func NewService(ctx context.Context, cfg config.AIConfig, log *zap.Logger) (*Service, error) {
	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}
	return NewServiceWithModel(ctx, chatModel, Options{Timeout: cfg.Timeout, RatePerMinute: cfg.RatePerMinute}, log)
}

// NewServiceWithModel compiles the chains over any eino chat model.
func NewServiceWithModel(ctx context.Context, chatModel model.BaseChatModel, opts Options, log *zap.Logger) (*Service, error) {
	if chatModel == nil {
		return nil, errors.New("chat model is required")
	}
	if log == nil {
		log = zap.NewNop()
	}

	templates := map[string][2]string{
		opSummarize:       {summarizeSystemPrompt, summarizeUserPrompt},
		string(ModeReply): {replySystemPrompt, replyUserPrompt},
		string(ModeNudge): {nudgeSystemPrompt, nudgeUserPrompt},
		string(ModeStyle): {styleSystemPrompt, styleUserPrompt},
	}

	compiled := make(map[string]runnable, len(templates))
	for name, tpl := range templates {
		promptTemplate := prompt.FromMessages(
			schema.FString,
			schema.SystemMessage(tpl[0]),
			schema.UserMessage(tpl[1]),
		)

		chain := compose.NewChain[map[string]any, *schema.Message]()
		chain.AppendChatTemplate(promptTemplate)
		chain.AppendChatModel(chatModel)

		r, err := chain.Compile(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to compile %s chain: %w", name, err)
		}
		compiled[name] = r
	}

	limit := rate.Inf
	if opts.RatePerMinute > 0 {
		limit = rate.Limit(float64(opts.RatePerMinute) / 60)
	}
	burst := opts.RatePerMinute
	if burst < 1 {
		burst = 1
	}

	return &Service{
		summarize: compiled[opSummarize],
		chains: map[Mode]runnable{
			ModeReply: compiled[string(ModeReply)],
			ModeNudge: compiled[string(ModeNudge)],
			ModeStyle: compiled[string(ModeStyle)],
		},
		limiter: rate.NewLimiter(limit, burst),
		timeout: opts.Timeout,
		log:     log.Named("ai"),
	}, nil
}

// SummarizeJourney condenses a formatted transcript into one or two
// sentences. Output is not deterministic across calls.
func (s *Service) SummarizeJourney(ctx context.Context, chatTranscript string) (string, error) {
	input := map[string]any{
		"chat_history": transcript.OrPlaceholder(chatTranscript),
	}
	return s.invoke(ctx, opSummarize, s.summarize, input)
}

// Generate produces a reply, a nudge or a raw style analysis depending on
// req.Mode.
func (s *Service) Generate(ctx context.Context, req Request) (string, error) {
	chain, ok := s.chains[req.Mode]
	if !ok {
		return "", apperr.Invalid("mode", fmt.Sprintf("unknown generation mode %q", req.Mode))
	}
	if strings.TrimSpace(req.Input) == "" {
		return "", apperr.Required("input")
	}
	return s.invoke(ctx, string(req.Mode), chain, buildInput(req))
}

func buildInput(req Request) map[string]any {
	switch req.Mode {
	case ModeStyle:
		return map[string]any{
			"schema":  styleSchema,
			"samples": req.Input,
		}
	case ModeNudge:
		return map[string]any{
			"mentor_style":    mentorStyle(req),
			"student_context": transcript.OrPlaceholder(req.Summary),
			"event":           req.Input,
		}
	default:
		return map[string]any{
			"mentor_style":    mentorStyle(req),
			"student_context": transcript.OrPlaceholder(req.Summary),
			"chat_history":    transcript.OrPlaceholder(req.History),
			"student_message": req.Input,
		}
	}
}

func mentorStyle(req Request) string {
	desc := req.Style.Describe()
	var examples []string
	for _, msg := range req.Examples {
		if msg = strings.TrimSpace(msg); msg != "" {
			examples = append(examples, msg)
		}
		if len(examples) == maxStyleExamples {
			break
		}
	}
	if len(examples) == 0 {
		return desc
	}

	var b strings.Builder
	b.WriteString(desc)
	b.WriteString("\n\nExample messages written by the mentor:\n")
	for _, msg := range examples {
		fmt.Fprintf(&b, "- %s\n", msg)
	}
	return strings.TrimRight(b.String(), "\n")
}

func (s *Service) invoke(ctx context.Context, op string, chain runnable, input map[string]any) (string, error) {
	started := time.Now()
	text, err := s.call(ctx, chain, input)
	metrics.ObserveGeneration(op, started, err)
	if err != nil {
		s.log.Warn("generation failed", zap.String("op", op), zap.Duration("elapsed", time.Since(started)), zap.Error(err))
		return "", apperr.Generation(op, err)
	}
	s.log.Debug("generation finished", zap.String("op", op), zap.Duration("elapsed", time.Since(started)), zap.Int("length", len(text)))
	return text, nil
}

func (s *Service) call(ctx context.Context, chain runnable, input map[string]any) (string, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit: %w", err)
	}

	resp, err := chain.Invoke(ctx, input)
	if err != nil {
		return "", fmt.Errorf("failed to run AI chain: %w", err)
	}
	if resp == nil || strings.TrimSpace(resp.Content) == "" {
		return "", errors.New("model returned empty content")
	}
	return strings.TrimSpace(resp.Content), nil
}
