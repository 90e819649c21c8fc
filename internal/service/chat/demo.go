package chat

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/xandylearning/mentor-ai/backend/internal/model/chat"
)

// LoadDemoConversation creates a session preloaded with a preset's scripted
// conversation and returns it with the number of messages written.
func (s *Service) LoadDemoConversation(ctx context.Context, mentorID, studentID, presetKey string) (Conversation, int, error) {
	preset, err := findPreset(presetKey)
	if err != nil {
		return Conversation{}, 0, err
	}
	if strings.TrimSpace(studentID) == "" {
		studentID = DemoStudentID
	}

	conv, err := s.CreateSession(ctx, studentID, mentorID)
	if err != nil {
		return Conversation{}, 0, err
	}

	msgs := make([]chat.NewMessage, 0, len(preset.Demo))
	for _, line := range preset.Demo {
		sender := chat.Sender(line.Sender)
		if sender != chat.SenderStudent {
			sender = chat.SenderMentor
		}
		msgs = append(msgs, chat.NewMessage{
			Sender:         sender,
			Content:        line.Content,
			ApprovalStatus: chat.ApprovalNone,
		})
	}

	stored, err := s.store.AddMessages(ctx, conv.SessionID, msgs)
	if err != nil {
		return Conversation{}, 0, err
	}
	s.log.Info("demo conversation loaded", zap.String("session_id", conv.SessionID), zap.String("preset", preset.Key), zap.Int("messages", len(stored)))
	return conv, len(stored), nil
}
