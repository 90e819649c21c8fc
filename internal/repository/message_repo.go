package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/xandylearning/mentor-ai/backend/internal/apperr"
	"github.com/xandylearning/mentor-ai/backend/internal/model/chat"
)

// AddMessage 追加一条消息。序号和时间戳在同一事务内分配：
// seq = max(seq)+1，created_at 不早于会话内上一条消息。
func (s *Store) AddMessage(ctx context.Context, msg chat.NewMessage) (chat.Message, error) {
	if err := validateNewMessage(msg); err != nil {
		return chat.Message{}, err
	}

	var stored chat.Message
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := getSession(tx, msg.SessionID); err != nil {
			return err
		}
		last, err := lastMessage(tx, msg.SessionID)
		if err != nil {
			return err
		}
		stored = s.buildMessage(msg, last)
		return tx.Create(&stored).Error
	})
	if err != nil {
		if apperr.IsNotFound(err) {
			return chat.Message{}, err
		}
		return chat.Message{}, fmt.Errorf("add message: %w", err)
	}
	return stored, nil
}

// AddMessages 在一个事务中按顺序追加同一会话的多条消息。
func (s *Store) AddMessages(ctx context.Context, sessionID string, msgs []chat.NewMessage) ([]chat.Message, error) {
	for i := range msgs {
		msgs[i].SessionID = sessionID
		if err := validateNewMessage(msgs[i]); err != nil {
			return nil, err
		}
	}

	stored := make([]chat.Message, 0, len(msgs))
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := getSession(tx, sessionID); err != nil {
			return err
		}
		last, err := lastMessage(tx, sessionID)
		if err != nil {
			return err
		}
		for _, msg := range msgs {
			record := s.buildMessage(msg, last)
			if err := tx.Create(&record).Error; err != nil {
				return err
			}
			stored = append(stored, record)
			last = &stored[len(stored)-1]
		}
		return nil
	})
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, err
		}
		return nil, fmt.Errorf("add messages: %w", err)
	}
	return stored, nil
}

// GetSessionMessages 按 seq 正序返回会话消息；空会话返回空切片。
func (s *Store) GetSessionMessages(ctx context.Context, sessionID string) ([]chat.Message, error) {
	db := s.db.WithContext(ctx)
	if _, err := getSession(db, sessionID); err != nil {
		return nil, err
	}

	messages := make([]chat.Message, 0)
	if err := db.Where("session_id = ?", sessionID).Order("seq ASC").Find(&messages).Error; err != nil {
		return nil, fmt.Errorf("get session messages: %w", err)
	}
	return messages, nil
}

func validateNewMessage(msg chat.NewMessage) error {
	if strings.TrimSpace(msg.SessionID) == "" {
		return apperr.Required("session_id")
	}
	if !msg.Sender.Valid() {
		return apperr.Invalid("sender_type", fmt.Sprintf("unknown sender %q", msg.Sender))
	}
	if msg.ApprovalStatus != "" && !msg.ApprovalStatus.Valid() {
		return apperr.Invalid("approval_status", fmt.Sprintf("unknown status %q", msg.ApprovalStatus))
	}
	return nil
}

func lastMessage(tx *gorm.DB, sessionID string) (*chat.Message, error) {
	var last chat.Message
	res := tx.Where("session_id = ?", sessionID).Order("seq DESC").Limit(1).Find(&last)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return &last, nil
}

func (s *Store) buildMessage(msg chat.NewMessage, last *chat.Message) chat.Message {
	status := msg.ApprovalStatus
	if status == "" {
		status = chat.ApprovalNone
	}

	createdAt := s.now().UTC()
	seq := int64(1)
	if last != nil {
		seq = last.Seq + 1
		if createdAt.Before(last.CreatedAt) {
			createdAt = last.CreatedAt
		}
	}

	return chat.Message{
		ID:             uuid.NewString(),
		SessionID:      msg.SessionID,
		Seq:            seq,
		SenderType:     msg.Sender,
		Content:        msg.Content,
		IsAIGenerated:  msg.IsAIGenerated,
		ApprovalStatus: status,
		CreatedAt:      createdAt,
	}
}

// clock 仅供测试替换时间源。
func (s *Store) clock(now func() time.Time) {
	s.now = now
}
