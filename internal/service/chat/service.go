// Package chat is the session controller: it runs student turns against the
// generation client and records every exchange in the store.
package chat

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/xandylearning/mentor-ai/backend/internal/analysis/transcript"
	"github.com/xandylearning/mentor-ai/backend/internal/apperr"
	"github.com/xandylearning/mentor-ai/backend/internal/metrics"
	"github.com/xandylearning/mentor-ai/backend/internal/model/chat"
	"github.com/xandylearning/mentor-ai/backend/internal/model/mentor"
	"github.com/xandylearning/mentor-ai/backend/internal/service/ai"
	"github.com/xandylearning/mentor-ai/backend/internal/service/style"
)

// Confidence recorded with an analyzed style.
const (
	ConfidenceComplete = 0.8
	ConfidenceFilled   = 0.6
)

// DemoStudentID is used when a demo conversation is loaded without a student.
const DemoStudentID = "demo_student"

// Store is the persistence the controller depends on.
type Store interface {
	CreateSession(ctx context.Context, studentID, mentorID string) (chat.Session, error)
	GetSession(ctx context.Context, sessionID string) (chat.Session, error)
	ListSessions(ctx context.Context, mentorID string, limit int) ([]chat.Session, error)
	AddMessage(ctx context.Context, msg chat.NewMessage) (chat.Message, error)
	AddMessages(ctx context.Context, sessionID string, msgs []chat.NewMessage) ([]chat.Message, error)
	GetSessionMessages(ctx context.Context, sessionID string) ([]chat.Message, error)
	GetMentorStyle(ctx context.Context, mentorID string) (mentor.Style, bool, error)
	SaveMentorStyle(ctx context.Context, mentorID string, profile mentor.StyleProfile, samples []string, confidence float64) (mentor.Style, error)
	ListPendingReplies(ctx context.Context, mentorID string) ([]chat.PendingReply, error)
	ReviewReply(ctx context.Context, messageID, reviewer string, status chat.ApprovalStatus) (chat.Message, error)
}

// Conversation identifies the session a turn belongs to.
type Conversation struct {
	SessionID string `json:"sessionId"`
	StudentID string `json:"studentId"`
	MentorID  string `json:"mentorId"`
}

// TurnOptions adjusts a single turn.
type TurnOptions struct {
	// Style overrides the mentor's stored profile for this turn.
	Style *mentor.StyleProfile
}

// TurnResult is what a successful turn produced.
type TurnResult struct {
	StudentMessage chat.Message `json:"studentMessage"`
	Reply          chat.Message `json:"reply"`
	Summary        string       `json:"summary"`
	Pending        bool         `json:"pending"`
}

// Options configures the controller.
type Options struct {
	// HistoryLimit bounds how many messages go into the reply prompt.
	HistoryLimit int
	// RequireReview holds AI replies as pending until a mentor approves them.
	RequireReview bool
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

// Service orchestrates turns, nudges, style analysis and review.
type Service struct {
	store  Store
	gen    ai.Generator
	styles *style.Resolver
	opts   Options
	log    *zap.Logger

	locksMu sync.Mutex
	locks   map[string]*sessionLock
}

// NewService wires the controller.
func NewService(store Store, gen ai.Generator, styles *style.Resolver, opts Options, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = 20
	}
	return &Service{
		store:  store,
		gen:    gen,
		styles: styles,
		opts:   opts,
		log:    log.Named("chat"),
		locks:  make(map[string]*sessionLock),
	}
}

// CreateSession opens a new conversation between a student and a mentor.
func (s *Service) CreateSession(ctx context.Context, studentID, mentorID string) (Conversation, error) {
	session, err := s.store.CreateSession(ctx, studentID, mentorID)
	if err != nil {
		return Conversation{}, err
	}
	s.log.Info("session created", zap.String("session_id", session.ID), zap.String("student_id", session.StudentID), zap.String("mentor_id", session.MentorID))
	return conversationOf(session), nil
}

// ListSessions returns recent sessions, optionally for one mentor.
func (s *Service) ListSessions(ctx context.Context, mentorID string, limit int) ([]chat.Session, error) {
	return s.store.ListSessions(ctx, mentorID, limit)
}

// Transcript returns a session and its messages in order.
func (s *Service) Transcript(ctx context.Context, sessionID string) (chat.Session, []chat.Message, error) {
	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return chat.Session{}, nil, err
	}
	messages, err := s.store.GetSessionMessages(ctx, sessionID)
	if err != nil {
		return chat.Session{}, nil, err
	}
	return session, messages, nil
}

// HandleStudentMessage runs one turn: persist the student message, resolve
// the mentor style, summarize the conversation, generate a reply and persist
// it. A failed summary degrades to an empty one; a failed reply is returned
// and no AI message is written.
func (s *Service) HandleStudentMessage(ctx context.Context, conv Conversation, text string, opts TurnOptions) (TurnResult, error) {
	if strings.TrimSpace(conv.SessionID) == "" {
		return TurnResult{}, apperr.Required("session_id")
	}
	if strings.TrimSpace(text) == "" {
		return TurnResult{}, apperr.Required("content")
	}

	unlock := s.lockSession(conv.SessionID)
	defer unlock()

	session, err := s.store.GetSession(ctx, conv.SessionID)
	if err != nil {
		return TurnResult{}, err
	}
	log := s.log.With(zap.String("session_id", session.ID), zap.String("mentor_id", session.MentorID))

	studentMsg, err := s.store.AddMessage(ctx, chat.NewMessage{
		SessionID:      session.ID,
		Sender:         chat.SenderStudent,
		Content:        text,
		ApprovalStatus: chat.ApprovalNone,
	})
	if err != nil {
		return TurnResult{}, err
	}
	result := TurnResult{StudentMessage: studentMsg}

	resolved := s.styles.Resolve(ctx, session.MentorID, opts.Style)

	messages, err := s.store.GetSessionMessages(ctx, session.ID)
	if err != nil {
		metrics.ObserveTurn(metrics.TurnFailed)
		return result, err
	}
	deliverable := transcript.Deliverable(messages)

	summary, err := s.gen.SummarizeJourney(ctx, transcript.Format(deliverable))
	if err != nil {
		log.Warn("summary unavailable, continuing without it", zap.Error(err))
		summary = ""
	}
	result.Summary = summary

	history := deliverable
	if n := len(history); n > 0 && history[n-1].ID == studentMsg.ID {
		history = history[:n-1]
	}
	history = transcript.Tail(history, s.opts.HistoryLimit)

	reply, err := s.gen.Generate(ctx, ai.Request{
		Mode:     ai.ModeReply,
		Style:    resolved.Profile,
		Examples: resolved.SampleMessages,
		Summary:  summary,
		History:  transcript.Format(history),
		Input:    text,
	})
	if err != nil {
		metrics.ObserveTurn(metrics.TurnFailed)
		log.Error("reply generation failed", zap.Error(err))
		return result, err
	}

	status := chat.ApprovalNone
	if s.opts.RequireReview {
		status = chat.ApprovalPending
	}
	aiMsg, err := s.store.AddMessage(ctx, chat.NewMessage{
		SessionID:      session.ID,
		Sender:         chat.SenderAI,
		Content:        reply,
		IsAIGenerated:  true,
		ApprovalStatus: status,
	})
	if err != nil {
		metrics.ObserveTurn(metrics.TurnFailed)
		return result, err
	}

	result.Reply = aiMsg
	result.Pending = status == chat.ApprovalPending
	if result.Pending {
		metrics.ObserveTurn(metrics.TurnPending)
	} else {
		metrics.ObserveTurn(metrics.TurnDelivered)
	}
	log.Info("turn completed", zap.Bool("pending", result.Pending), zap.Int("reply_length", len(reply)))
	return result, nil
}

// lockSession serializes turns for one session. Entries are dropped once no
// goroutine holds or waits for them.
func (s *Service) lockSession(sessionID string) func() {
	s.locksMu.Lock()
	l, ok := s.locks[sessionID]
	if !ok {
		l = &sessionLock{}
		s.locks[sessionID] = l
	}
	l.refs++
	s.locksMu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.locksMu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, sessionID)
		}
		s.locksMu.Unlock()
	}
}

func conversationOf(session chat.Session) Conversation {
	return Conversation{SessionID: session.ID, StudentID: session.StudentID, MentorID: session.MentorID}
}

func (s *Service) now() time.Time {
	return time.Now()
}
