package model

import (
	"time"

	"gorm.io/gorm"
)

// User represents an owner account as mirrored from the identity provider.
// Authentication itself happens upstream; this record only carries the
// stable external subject plus the contact details notifications need.
type User struct {
	ID          uint           `json:"id" gorm:"primarykey"`
	ExternalID  string         `json:"external_id" gorm:"type:varchar(128);uniqueIndex;not null;comment:'Subject issued by the identity provider'"`
	Email       string         `json:"email" gorm:"type:varchar(255);index"`
	Phone       string         `json:"phone" gorm:"type:varchar(32)"`
	FirstName   string         `json:"first_name" gorm:"type:varchar(100)"`
	LastName    string         `json:"last_name" gorm:"type:varchar(100)"`
	SMSOptIn    bool           `json:"sms_opt_in" gorm:"default:true"`
	EmailOptIn  bool           `json:"email_opt_in" gorm:"default:true"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
