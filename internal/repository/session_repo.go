package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/xandylearning/mentor-ai/backend/internal/apperr"
	"github.com/xandylearning/mentor-ai/backend/internal/model/chat"
)

const defaultSessionListLimit = 50

// CreateSession 为学生和导师创建新会话。
func (s *Store) CreateSession(ctx context.Context, studentID, mentorID string) (chat.Session, error) {
	studentID = strings.TrimSpace(studentID)
	mentorID = strings.TrimSpace(mentorID)
	if studentID == "" {
		return chat.Session{}, apperr.Required("student_id")
	}
	if mentorID == "" {
		return chat.Session{}, apperr.Required("mentor_id")
	}

	session := chat.Session{
		ID:        uuid.NewString(),
		StudentID: studentID,
		MentorID:  mentorID,
		CreatedAt: s.now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&session).Error; err != nil {
		return chat.Session{}, fmt.Errorf("create session: %w", err)
	}
	return session, nil
}

// GetSession 按 ID 获取会话，不存在时返回 NotFoundError。
func (s *Store) GetSession(ctx context.Context, sessionID string) (chat.Session, error) {
	return getSession(s.db.WithContext(ctx), sessionID)
}

func getSession(db *gorm.DB, sessionID string) (chat.Session, error) {
	var session chat.Session
	err := db.Where("id = ?", sessionID).Take(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return chat.Session{}, apperr.NotFound("session", sessionID)
		}
		return chat.Session{}, fmt.Errorf("get session: %w", err)
	}
	return session, nil
}

// ListSessions 返回最近的会话，mentorID 为空时不过滤。
func (s *Store) ListSessions(ctx context.Context, mentorID string, limit int) ([]chat.Session, error) {
	if limit <= 0 {
		limit = defaultSessionListLimit
	}
	query := s.db.WithContext(ctx).Order("created_at DESC").Limit(limit)
	if mentorID = strings.TrimSpace(mentorID); mentorID != "" {
		query = query.Where("mentor_id = ?", mentorID)
	}

	sessions := make([]chat.Session, 0)
	if err := query.Find(&sessions).Error; err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}
