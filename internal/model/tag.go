package model

import (
	"time"

	"gorm.io/gorm"
)

// Tag status values. A tag is created pending by a purchase, becomes active
// through the activation flow and can be toggled back to inactive without
// losing its QR binding.
const (
	TagStatusPending  = "pending"
	TagStatusActive   = "active"
	TagStatusInactive = "inactive"
)

// Tag represents the registration record for one physical tag
type Tag struct {
	ID          uint           `json:"id" gorm:"primarykey"`
	OwnerID     uint           `json:"owner_id" gorm:"index;not null"`
	PetID       *uint          `json:"pet_id,omitempty" gorm:"index;comment:'Linked pet, at most one'"`
	OrderID     *uint          `json:"order_id,omitempty" gorm:"index;comment:'Order that purchased this tag'"`
	QRCodeID    *uint          `json:"qr_code_id,omitempty" gorm:"index;comment:'Claimed inventory record'"`
	QRCode      string         `json:"qr_code" gorm:"type:varchar(255);index;comment:'Denormalized QR payload of the claimed record'"`
	Status      string         `json:"status" gorm:"type:varchar(20);default:'pending';index"`
	IsActive    bool           `json:"is_active" gorm:"default:false"`
	ActivatedAt *time.Time     `json:"activated_at,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
