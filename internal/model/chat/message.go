package chat

import "time"

// Sender identifies who authored a message.
type Sender string

const (
	SenderStudent Sender = "student"
	SenderMentor  Sender = "mentor"
	SenderAI      Sender = "ai"
)

// Valid reports whether s is a known sender type.
func (s Sender) Valid() bool {
	switch s {
	case SenderStudent, SenderMentor, SenderAI:
		return true
	}
	return false
}

// ApprovalStatus tracks the review state of an AI reply.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
	ApprovalNone     ApprovalStatus = "n/a"
)

// Valid reports whether a is a known approval status.
func (a ApprovalStatus) Valid() bool {
	switch a {
	case ApprovalPending, ApprovalApproved, ApprovalRejected, ApprovalNone:
		return true
	}
	return false
}

// Message is one stored turn. Content never changes after insert; only a
// pending AI reply may move to approved or rejected.
type Message struct {
	ID             string         `json:"id" gorm:"primaryKey;size:36"`
	SessionID      string         `json:"sessionId" gorm:"size:36;not null;uniqueIndex:idx_messages_session_seq,priority:1"`
	Seq            int64          `json:"seq" gorm:"not null;uniqueIndex:idx_messages_session_seq,priority:2"`
	SenderType     Sender         `json:"senderType" gorm:"size:16;not null"`
	Content        string         `json:"content" gorm:"type:text;not null"`
	IsAIGenerated  bool           `json:"isAiGenerated" gorm:"not null;default:false"`
	ApprovalStatus ApprovalStatus `json:"approvalStatus" gorm:"size:16;not null;index"`
	ReviewedBy     string         `json:"reviewedBy,omitempty" gorm:"size:128"`
	CreatedAt      time.Time      `json:"createdAt" gorm:"not null"`
}

// TableName pins the table name used by the store.
func (Message) TableName() string {
	return "messages"
}

// PendingReply pairs an AI reply awaiting review with the student message that
// triggered it.
type PendingReply struct {
	Reply          Message `json:"reply"`
	StudentMessage string  `json:"studentMessage"`
	StudentID      string  `json:"studentId"`
}

// NewMessage is the input for appending a message to a session. The store
// assigns the id, sequence number and timestamp.
type NewMessage struct {
	SessionID      string
	Sender         Sender
	Content        string
	IsAIGenerated  bool
	ApprovalStatus ApprovalStatus
}
