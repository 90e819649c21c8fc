package chat

import "time"

// Session binds one student to one mentor. Sessions are append-only.
type Session struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	StudentID string    `json:"studentId" gorm:"size:128;not null;index"`
	MentorID  string    `json:"mentorId" gorm:"size:128;not null;index"`
	CreatedAt time.Time `json:"createdAt" gorm:"not null"`
}

// TableName pins the table name used by the store.
func (Session) TableName() string {
	return "sessions"
}
