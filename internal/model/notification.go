package model

import (
	"time"
)

// Notification channels
const (
	ChannelSMS   = "sms"
	ChannelEmail = "email"
	ChannelInApp = "in_app"
)

// Notification delivery states
const (
	NotificationPending = "pending"
	NotificationSent    = "sent"
	NotificationFailed  = "failed"
)

// Notification is the in-app record of a dispatched message. SMS and email
// delivery happen through external providers; this row is what the user sees
// in their inbox regardless of provider outcome.
type Notification struct {
	ID        uint      `json:"id" gorm:"primarykey"`
	UserID    uint      `json:"user_id" gorm:"index;not null"`
	Channel   string    `json:"channel" gorm:"type:varchar(20);not null"`
	Kind      string    `json:"kind" gorm:"type:varchar(50);index;not null;comment:'Template kind, e.g. tag_activated'"`
	Title     string    `json:"title" gorm:"type:varchar(255)"`
	Body      string    `json:"body" gorm:"type:text"`
	Payload   string    `json:"payload" gorm:"type:jsonb;comment:'Template data as JSON'"`
	Status    string    `json:"status" gorm:"type:varchar(20);default:'pending'"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
