package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/xandylearning/mentor-ai/backend/internal/apperr"
	"github.com/xandylearning/mentor-ai/backend/internal/model/chat"
)

// ListPendingReplies 返回等待审核的 AI 回复，附带触发它的学生消息。
// mentorID 为空时返回全部导师的待审核回复。
func (s *Store) ListPendingReplies(ctx context.Context, mentorID string) ([]chat.PendingReply, error) {
	db := s.db.WithContext(ctx)

	type row struct {
		chat.Message
		StudentID string
	}
	query := db.Table("messages").
		Select("messages.*, sessions.student_id AS student_id").
		Joins("JOIN sessions ON sessions.id = messages.session_id").
		Where("messages.sender_type = ? AND messages.approval_status = ?", chat.SenderAI, chat.ApprovalPending).
		Order("messages.created_at ASC, messages.seq ASC")
	if mentorID = strings.TrimSpace(mentorID); mentorID != "" {
		query = query.Where("sessions.mentor_id = ?", mentorID)
	}

	var rows []row
	if err := query.Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("list pending replies: %w", err)
	}

	pending := make([]chat.PendingReply, 0, len(rows))
	for _, r := range rows {
		var prompt chat.Message
		res := db.Where("session_id = ? AND seq < ? AND sender_type = ?", r.SessionID, r.Seq, chat.SenderStudent).
			Order("seq DESC").Limit(1).Find(&prompt)
		if res.Error != nil {
			return nil, fmt.Errorf("find student message for %s: %w", r.ID, res.Error)
		}
		pending = append(pending, chat.PendingReply{
			Reply:          r.Message,
			StudentMessage: prompt.Content,
			StudentID:      r.StudentID,
		})
	}
	return pending, nil
}

// ReviewReply 把待审核的 AI 回复标记为 approved 或 rejected。
// 这是消息写入后唯一允许的变更。
func (s *Store) ReviewReply(ctx context.Context, messageID, reviewer string, status chat.ApprovalStatus) (chat.Message, error) {
	if status != chat.ApprovalApproved && status != chat.ApprovalRejected {
		return chat.Message{}, apperr.Invalid("approval_status", "review must approve or reject")
	}

	var msg chat.Message
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", messageID).Take(&msg).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("message", messageID)
			}
			return err
		}
		if msg.ApprovalStatus != chat.ApprovalPending {
			return apperr.Invalid("approval_status", fmt.Sprintf("message is %s, not pending review", msg.ApprovalStatus))
		}

		res := tx.Model(&chat.Message{}).
			Where("id = ? AND approval_status = ?", messageID, chat.ApprovalPending).
			Updates(map[string]any{"approval_status": status, "reviewed_by": strings.TrimSpace(reviewer)})
		if res.Error != nil {
			return res.Error
		}
		msg.ApprovalStatus = status
		msg.ReviewedBy = strings.TrimSpace(reviewer)
		return nil
	})
	if err != nil {
		if apperr.IsNotFound(err) || apperr.IsValidation(err) {
			return chat.Message{}, err
		}
		return chat.Message{}, fmt.Errorf("review reply: %w", err)
	}
	return msg, nil
}
