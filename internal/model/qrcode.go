package model

import (
	"time"
)

// QRCode availability values. The pool only shrinks: a claimed record is
// never returned on tag deactivation.
const (
	QRCodeAvailable   = "available"
	QRCodeUnavailable = "unavailable"
)

// QRCode represents one pre-printed physical QR sticker in finite inventory,
// independent of any tag until the first-time activation claims it
type QRCode struct {
	ID            uint      `json:"id" gorm:"primarykey"`
	TagCode       string    `json:"tag_code" gorm:"type:varchar(100);uniqueIndex;not null;comment:'Serial printed on the physical sticker'"`
	Payload       string    `json:"payload" gorm:"type:text;not null;comment:'URL encoded in the QR image'"`
	Availability  string    `json:"availability" gorm:"type:varchar(20);default:'available';index"`
	AssignedTagID *uint     `json:"assigned_tag_id,omitempty" gorm:"index"`
	Batch         string    `json:"batch" gorm:"type:varchar(100);index;comment:'Import batch label'"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
