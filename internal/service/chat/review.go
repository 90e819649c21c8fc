package chat

import (
	"context"

	"go.uber.org/zap"

	"github.com/xandylearning/mentor-ai/backend/internal/model/chat"
)

// PendingReplies lists AI replies waiting for review.
func (s *Service) PendingReplies(ctx context.Context, mentorID string) ([]chat.PendingReply, error) {
	return s.store.ListPendingReplies(ctx, mentorID)
}

// ApproveReply delivers a pending AI reply.
func (s *Service) ApproveReply(ctx context.Context, messageID, reviewer string) (chat.Message, error) {
	return s.review(ctx, messageID, reviewer, chat.ApprovalApproved)
}

// RejectReply discards a pending AI reply. It stays in the store but never
// reaches the student or later prompts.
func (s *Service) RejectReply(ctx context.Context, messageID, reviewer string) (chat.Message, error) {
	return s.review(ctx, messageID, reviewer, chat.ApprovalRejected)
}

func (s *Service) review(ctx context.Context, messageID, reviewer string, status chat.ApprovalStatus) (chat.Message, error) {
	msg, err := s.store.ReviewReply(ctx, messageID, reviewer, status)
	if err != nil {
		return chat.Message{}, err
	}
	s.log.Info("reply reviewed", zap.String("message_id", msg.ID), zap.String("session_id", msg.SessionID), zap.String("status", string(status)))
	return msg, nil
}
