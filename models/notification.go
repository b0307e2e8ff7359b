package models

import "time"

// Notification is an outbox row for the external email collaborator.
// Money paths only insert rows here; delivery is the worker's problem
// and never rolls anything back.
type Notification struct {
	ID        string     `gorm:"primaryKey;type:uuid" json:"id"`
	UserID    string     `gorm:"type:uuid;not null;index" json:"user_id"`
	Subject   string     `gorm:"size:200;not null" json:"subject"`
	Body      string     `gorm:"type:text;not null" json:"body"`
	Sent      bool       `gorm:"not null;default:false;index" json:"sent"`
	Attempts  int        `gorm:"not null;default:0" json:"attempts"`
	SentAt    *time.Time `json:"sent_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

func (Notification) TableName() string {
	return "notifications"
}
