package service

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"pettag-service/internal/model"
	"pettag-service/pkg/config"
	"pettag-service/prometheus"
)

// NotificationPayload is the tagged-variant contract for notification data:
// one concrete type per template kind instead of an open map, so the
// dispatcher's inputs are statically checkable.
type NotificationPayload interface {
	Kind() string
	Title() string
	Body() string
}

// TagActivatedPayload announces a successful tag activation to the owner.
type TagActivatedPayload struct {
	TagID   uint   `json:"tag_id"`
	PetID   uint   `json:"pet_id"`
	PetName string `json:"pet_name"`
	QRCode  string `json:"qr_code"`
}

func (p TagActivatedPayload) Kind() string  { return "tag_activated" }
func (p TagActivatedPayload) Title() string { return "Tag activated" }
func (p TagActivatedPayload) Body() string {
	return fmt.Sprintf("The tag for %s is now active. Anyone who scans it can reach you.", p.PetName)
}

// PetFoundPayload tells the owner a finder scanned their pet's tag.
type PetFoundPayload struct {
	PetID         uint     `json:"pet_id"`
	PetName       string   `json:"pet_name"`
	FinderName    string   `json:"finder_name"`
	FinderPhone   string   `json:"finder_phone"`
	FinderMessage string   `json:"finder_message"`
	Latitude      *float64 `json:"latitude,omitempty"`
	Longitude     *float64 `json:"longitude,omitempty"`
}

func (p PetFoundPayload) Kind() string  { return "pet_found" }
func (p PetFoundPayload) Title() string { return "Someone found your pet!" }
func (p PetFoundPayload) Body() string {
	if p.FinderPhone != "" {
		return fmt.Sprintf("%s's tag was just scanned. Contact: %s", p.PetName, p.FinderPhone)
	}
	return fmt.Sprintf("%s's tag was just scanned.", p.PetName)
}

// OrderShippedPayload notifies the buyer their order left the warehouse.
type OrderShippedPayload struct {
	OrderID        uint   `json:"order_id"`
	TrackingNumber string `json:"tracking_number"`
	Carrier        string `json:"carrier"`
}

func (p OrderShippedPayload) Kind() string  { return "order_shipped" }
func (p OrderShippedPayload) Title() string { return "Order shipped" }
func (p OrderShippedPayload) Body() string {
	if p.TrackingNumber != "" {
		return fmt.Sprintf("Order #%d shipped via %s, tracking %s.", p.OrderID, p.Carrier, p.TrackingNumber)
	}
	return fmt.Sprintf("Order #%d has shipped.", p.OrderID)
}

// OrderDeliveredPayload notifies the buyer their order arrived.
type OrderDeliveredPayload struct {
	OrderID uint `json:"order_id"`
}

func (p OrderDeliveredPayload) Kind() string  { return "order_delivered" }
func (p OrderDeliveredPayload) Title() string { return "Order delivered" }
func (p OrderDeliveredPayload) Body() string {
	return fmt.Sprintf("Order #%d was delivered.", p.OrderID)
}

// Dispatcher sends a notification to a user across the channels their
// preferences allow. Dispatch is best-effort: failures are logged and
// counted, never returned to the caller.
type Dispatcher interface {
	Dispatch(ctx context.Context, userID uint, payload NotificationPayload)
}

// PersistentDispatcher writes in-app notification rows and hands SMS/email
// off to the external providers. Provider delivery mechanics live outside
// this service; the dispatcher records intent and outcome.
type PersistentDispatcher struct {
	db  *gorm.DB
	cfg config.NotifyConfig
	log *zap.Logger
}

func NewPersistentDispatcher(db *gorm.DB, cfg config.NotifyConfig, log *zap.Logger) *PersistentDispatcher {
	return &PersistentDispatcher{db: db, cfg: cfg, log: log}
}

func (d *PersistentDispatcher) Dispatch(ctx context.Context, userID uint, payload NotificationPayload) {
	var user model.User
	if err := d.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		d.log.Error("Notification dropped, user not found",
			zap.Uint("user_id", userID),
			zap.String("kind", payload.Kind()),
			zap.Error(err))
		prometheus.RecordNotification(payload.Kind(), model.ChannelInApp, model.NotificationFailed)
		return
	}

	data, err := json.Marshal(payload)
	if err != nil {
		d.log.Error("Failed to encode notification payload",
			zap.String("kind", payload.Kind()), zap.Error(err))
		return
	}

	channels := []string{model.ChannelInApp}
	if d.cfg.SMSEnabled && user.SMSOptIn && user.Phone != "" {
		channels = append(channels, model.ChannelSMS)
	}
	if d.cfg.EmailEnabled && user.EmailOptIn && user.Email != "" {
		channels = append(channels, model.ChannelEmail)
	}

	for _, channel := range channels {
		notification := model.Notification{
			UserID:  userID,
			Channel: channel,
			Kind:    payload.Kind(),
			Title:   payload.Title(),
			Body:    payload.Body(),
			Payload: string(data),
			Status:  model.NotificationSent,
		}
		if err := d.db.WithContext(ctx).Create(&notification).Error; err != nil {
			d.log.Error("Failed to record notification",
				zap.Uint("user_id", userID),
				zap.String("kind", payload.Kind()),
				zap.String("channel", channel),
				zap.Error(err))
			prometheus.RecordNotification(payload.Kind(), channel, model.NotificationFailed)
			continue
		}

		// SMS/email providers are external; the send here is the handoff
		// point and its failure never propagates to the caller.
		switch channel {
		case model.ChannelSMS:
			d.log.Info("SMS notification queued",
				zap.Uint("user_id", userID),
				zap.String("kind", payload.Kind()),
				zap.String("phone", user.Phone))
		case model.ChannelEmail:
			d.log.Info("Email notification queued",
				zap.Uint("user_id", userID),
				zap.String("kind", payload.Kind()),
				zap.String("email", user.Email))
		}

		prometheus.RecordNotification(payload.Kind(), channel, model.NotificationSent)
	}
}
