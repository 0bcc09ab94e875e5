package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Order status values
const (
	OrderStatusPending    = "pending"
	OrderStatusPaid       = "paid"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
)

// ShippingAddress is embedded into orders as a snapshot of the destination
type ShippingAddress struct {
	Line1      string `json:"line1" gorm:"type:varchar(255)"`
	Line2      string `json:"line2" gorm:"type:varchar(255)"`
	City       string `json:"city" gorm:"type:varchar(100)"`
	State      string `json:"state" gorm:"type:varchar(100)"`
	PostalCode string `json:"postal_code" gorm:"type:varchar(20)"`
	Country    string `json:"country" gorm:"type:varchar(100)"`
}

// Order represents a purchase transaction for tags or merchandise
type Order struct {
	ID              uint            `json:"id" gorm:"primarykey"`
	UserID          uint            `json:"user_id" gorm:"index;not null"`
	TagID           *uint           `json:"tag_id,omitempty" gorm:"index;comment:'First tag created by a tag purchase'"`
	Items           []OrderItem     `json:"items" gorm:"foreignKey:OrderID"`
	Status          string          `json:"status" gorm:"type:varchar(20);default:'pending';index"`
	Subtotal        decimal.Decimal `json:"subtotal" gorm:"type:numeric(10,2)"`
	Tax             decimal.Decimal `json:"tax" gorm:"type:numeric(10,2)"`
	Shipping        decimal.Decimal `json:"shipping" gorm:"type:numeric(10,2)"`
	Total           decimal.Decimal `json:"total" gorm:"type:numeric(10,2)"`
	Currency        string          `json:"currency" gorm:"type:varchar(3);default:'USD'"`
	ChargeID        string          `json:"charge_id" gorm:"type:varchar(255);index"`
	CheckoutRef     string          `json:"checkout_ref" gorm:"type:varchar(255);comment:'Payment redirect reference for deferred checkout'"`
	ShippingAddress ShippingAddress `json:"shipping_address" gorm:"embedded;embeddedPrefix:ship_"`
	TrackingNumber  string          `json:"tracking_number" gorm:"type:varchar(100)"`
	Carrier         string          `json:"carrier" gorm:"type:varchar(100)"`
	PaidAt          *time.Time      `json:"paid_at,omitempty"`
	ShippedAt       *time.Time      `json:"shipped_at,omitempty"`
	DeliveredAt     *time.Time      `json:"delivered_at,omitempty"`
	CancelledAt     *time.Time      `json:"cancelled_at,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	DeletedAt       gorm.DeletedAt  `json:"deleted_at,omitempty" gorm:"index"`
}

// OrderItem is one line of an order, snapshotting name and price at purchase
// time so later catalog edits do not rewrite history
type OrderItem struct {
	ID        uint            `json:"id" gorm:"primarykey"`
	OrderID   uint            `json:"order_id" gorm:"index;not null"`
	ProductID *uint           `json:"product_id,omitempty" gorm:"index"`
	Name      string          `json:"name" gorm:"type:varchar(255);not null"`
	Price     decimal.Decimal `json:"price" gorm:"type:numeric(10,2)"`
	Quantity  int             `json:"quantity" gorm:"not null;default:1"`
	Variant   string          `json:"variant" gorm:"type:varchar(100)"`
	CreatedAt time.Time       `json:"created_at"`
}
