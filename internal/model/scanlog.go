package model

import (
	"time"
)

// ScanLog records one finder scan of a physical tag. Rows are written on the
// public scan endpoint before any owner notification fires, so the audit
// trail survives notification failures.
type ScanLog struct {
	ID            uint      `json:"id" gorm:"primarykey"`
	QRCode        string    `json:"qr_code" gorm:"type:varchar(255);index;not null"`
	TagID         *uint     `json:"tag_id,omitempty" gorm:"index"`
	PetID         *uint     `json:"pet_id,omitempty" gorm:"index"`
	FinderName    string    `json:"finder_name" gorm:"type:varchar(100)"`
	FinderPhone   string    `json:"finder_phone" gorm:"type:varchar(32)"`
	FinderMessage string    `json:"finder_message" gorm:"type:text"`
	Latitude      *float64  `json:"latitude,omitempty"`
	Longitude     *float64  `json:"longitude,omitempty"`
	UserAgent     string    `json:"user_agent" gorm:"type:text"`
	ScannedAt     time.Time `json:"scanned_at" gorm:"autoCreateTime"`
}
