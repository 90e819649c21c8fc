package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/xandylearning/mentor-ai/backend/internal/apperr"
	"github.com/xandylearning/mentor-ai/backend/internal/model/mentor"
)

// styleRecord 是 mentor_styles 表的行结构，每位导师至多一行。
type styleRecord struct {
	ID              string         `gorm:"primaryKey;size:36"`
	MentorID        string         `gorm:"size:128;not null;uniqueIndex"`
	StyleData       datatypes.JSON `gorm:"not null"`
	SampleMessages  datatypes.JSON
	ConfidenceScore float64
	UpdatedAt       time.Time
}

func (styleRecord) TableName() string {
	return "mentor_styles"
}

func (r styleRecord) toStyle() (mentor.Style, error) {
	style := mentor.Style{
		ID:              r.ID,
		MentorID:        r.MentorID,
		ConfidenceScore: r.ConfidenceScore,
		UpdatedAt:       r.UpdatedAt,
	}
	if err := json.Unmarshal(r.StyleData, &style.Profile); err != nil {
		return mentor.Style{}, fmt.Errorf("decode style_data for mentor %s: %w", r.MentorID, err)
	}
	if len(r.SampleMessages) > 0 {
		if err := json.Unmarshal(r.SampleMessages, &style.SampleMessages); err != nil {
			return mentor.Style{}, fmt.Errorf("decode sample_messages for mentor %s: %w", r.MentorID, err)
		}
	}
	return style, nil
}

// GetMentorStyle 读取导师风格。未分析过的导师返回 found=false 而不是错误。
func (s *Store) GetMentorStyle(ctx context.Context, mentorID string) (mentor.Style, bool, error) {
	var record styleRecord
	err := s.db.WithContext(ctx).Where("mentor_id = ?", mentorID).Take(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return mentor.Style{}, false, nil
		}
		return mentor.Style{}, false, fmt.Errorf("get mentor style: %w", err)
	}

	style, err := record.toStyle()
	if err != nil {
		return mentor.Style{}, false, err
	}
	return style, true, nil
}

// SaveMentorStyle 以 mentor_id 为键 upsert 风格记录。单条语句完成，
// 读者只会看到旧记录或新记录。
func (s *Store) SaveMentorStyle(ctx context.Context, mentorID string, profile mentor.StyleProfile, samples []string, confidence float64) (mentor.Style, error) {
	mentorID = strings.TrimSpace(mentorID)
	if mentorID == "" {
		return mentor.Style{}, apperr.Required("mentor_id")
	}
	if samples == nil {
		samples = []string{}
	}

	styleData, err := json.Marshal(profile)
	if err != nil {
		return mentor.Style{}, fmt.Errorf("encode style profile: %w", err)
	}
	sampleData, err := json.Marshal(samples)
	if err != nil {
		return mentor.Style{}, fmt.Errorf("encode sample messages: %w", err)
	}

	record := styleRecord{
		ID:              uuid.NewString(),
		MentorID:        mentorID,
		StyleData:       datatypes.JSON(styleData),
		SampleMessages:  datatypes.JSON(sampleData),
		ConfidenceScore: confidence,
		UpdatedAt:       s.now().UTC(),
	}

	db := s.db.WithContext(ctx)
	err = db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "mentor_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"style_data", "sample_messages", "confidence_score", "updated_at"}),
	}).Create(&record).Error
	if err != nil {
		return mentor.Style{}, fmt.Errorf("save mentor style: %w", err)
	}

	style, found, err := s.GetMentorStyle(ctx, mentorID)
	if err != nil {
		return mentor.Style{}, err
	}
	if !found {
		return mentor.Style{}, fmt.Errorf("save mentor style: record for %s vanished after upsert", mentorID)
	}
	return style, nil
}
