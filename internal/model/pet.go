package model

import (
	"time"

	"gorm.io/gorm"
)

// Pet status values. A pet is active exactly while it wears an active tag.
const (
	PetStatusActive   = "active"
	PetStatusInactive = "inactive"
)

// Pet represents an animal profile owned by a single user
type Pet struct {
	ID        uint           `json:"id" gorm:"primarykey"`
	OwnerID   uint           `json:"owner_id" gorm:"index;not null"`
	TagID     *uint          `json:"tag_id,omitempty" gorm:"index;comment:'Currently linked tag, at most one'"`
	Name      string         `json:"name" gorm:"type:varchar(100);not null"`
	Species   string         `json:"species" gorm:"type:varchar(50)"`
	Breed     string         `json:"breed" gorm:"type:varchar(100)"`
	Color     string         `json:"color" gorm:"type:varchar(50)"`
	BirthDate *time.Time     `json:"birth_date,omitempty"`
	PhotoURL  string         `json:"photo_url" gorm:"type:text"`
	Notes     string         `json:"notes" gorm:"type:text"`
	Status    string         `json:"status" gorm:"type:varchar(20);default:'inactive';index"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
