package chat

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/xandylearning/mentor-ai/backend/internal/apperr"
	"github.com/xandylearning/mentor-ai/backend/internal/model/chat"
	"github.com/xandylearning/mentor-ai/backend/internal/model/mentor"
	"github.com/xandylearning/mentor-ai/backend/internal/service/ai"
)

// EventExamTaken is the default event kind for SimulateEvent.
const EventExamTaken = "student took exam"

// Event is a trigger for a proactive nudge.
type Event struct {
	Kind      string `json:"kind"`
	Exam      string `json:"exam"`
	Date      string `json:"date"`
	StudentID string `json:"studentId"`
	Score     string `json:"score"`
}

// Describe renders the event the way the nudge prompt expects it.
func (e Event) Describe() string {
	return fmt.Sprintf("Event: '%s', Exam: '%s', Date: '%s', Student: '%s', Score: '%s'",
		e.Kind, e.Exam, e.Date, e.StudentID, e.Score)
}

// InvokeNudge generates a proactive message in the mentor's style. The nudge
// is returned to the caller, not stored.
func (s *Service) InvokeNudge(ctx context.Context, mentorID, eventDescription string, profile *mentor.StyleProfile) (string, error) {
	if strings.TrimSpace(mentorID) == "" {
		return "", apperr.Required("mentor_id")
	}
	if strings.TrimSpace(eventDescription) == "" {
		return "", apperr.Required("event")
	}

	resolved := s.styles.Resolve(ctx, mentorID, profile)
	nudge, err := s.gen.Generate(ctx, ai.Request{
		Mode:     ai.ModeNudge,
		Style:    resolved.Profile,
		Examples: resolved.SampleMessages,
		Input:    eventDescription,
	})
	if err != nil {
		s.log.Error("nudge generation failed", zap.String("mentor_id", mentorID), zap.Error(err))
		return "", err
	}
	s.log.Info("nudge generated", zap.String("mentor_id", mentorID), zap.Int("length", len(nudge)))
	return nudge, nil
}

// SimulateEvent fills event defaults and asks for a nudge.
func (s *Service) SimulateEvent(ctx context.Context, mentorID string, ev Event) (string, error) {
	if strings.TrimSpace(ev.Exam) == "" {
		return "", apperr.Required("exam")
	}
	if strings.TrimSpace(ev.Kind) == "" {
		ev.Kind = EventExamTaken
	}
	if strings.TrimSpace(ev.Date) == "" {
		ev.Date = s.now().Format("2006-01-02")
	}
	if strings.TrimSpace(ev.StudentID) == "" {
		ev.StudentID = DemoStudentID
	}
	if strings.TrimSpace(ev.Score) == "" {
		ev.Score = "Pending"
	}
	return s.InvokeNudge(ctx, mentorID, ev.Describe(), nil)
}

// AttachNudge records a nudge that was shown to the student as an approved
// AI message in the session.
func (s *Service) AttachNudge(ctx context.Context, sessionID, text string) (chat.Message, error) {
	if strings.TrimSpace(text) == "" {
		return chat.Message{}, apperr.Required("content")
	}

	unlock := s.lockSession(sessionID)
	defer unlock()

	return s.store.AddMessage(ctx, chat.NewMessage{
		SessionID:      sessionID,
		Sender:         chat.SenderAI,
		Content:        text,
		IsAIGenerated:  true,
		ApprovalStatus: chat.ApprovalApproved,
	})
}
