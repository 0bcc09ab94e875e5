package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"pettag-service/internal/model"
	"pettag-service/pkg/config"
)

// Lifecycle orchestrates every state transition across Tag, Pet, Order and
// QRCode records. It is the only component with cross-entity invariants:
// a QR code is assigned to at most one tag, a tag links at most one pet,
// and a pet carries at most one non-terminal tag. Each operation runs in a
// single store transaction with the pet row locked, so concurrent requests
// against the same pet serialize instead of double-checking stale state.
type Lifecycle struct {
	store    Store
	payments PaymentProcessor
	notifier Dispatcher
	cfg      *config.Config
	log      *zap.Logger
}

func NewLifecycle(store Store, payments PaymentProcessor, notifier Dispatcher, cfg *config.Config, log *zap.Logger) *Lifecycle {
	return &Lifecycle{
		store:    store,
		payments: payments,
		notifier: notifier,
		cfg:      cfg,
		log:      log,
	}
}

// PurchaseResult is returned by PurchaseTag.
type PurchaseResult struct {
	OrderID    uint            `json:"order_id"`
	TagID      uint            `json:"tag_id"`
	Total      decimal.Decimal `json:"total"`
	PaymentRef string          `json:"payment_ref"`
}

// ActivationResult is returned by ActivateTag.
type ActivationResult struct {
	Tag         *model.Tag `json:"tag"`
	QRImageURL  string     `json:"qr_image_url"`
	WebsiteURL  string     `json:"website_url"`
	Reactivated bool       `json:"reactivated"`
}

// PurchaseTag creates a pending order plus one pending tag per unit for a
// pet that does not already hold an active or pending tag. Payment is
// deferred to the hosted checkout referenced in the result.
func (l *Lifecycle) PurchaseTag(ctx context.Context, userID, petID uint, quantity int, addr model.ShippingAddress) (*PurchaseResult, error) {
	if quantity < 1 {
		quantity = 1
	}

	var result PurchaseResult
	err := l.store.Transact(ctx, func(tx Store) error {
		pet, err := tx.GetPetForOwner(petID, userID, true)
		if err != nil {
			return err
		}

		count, err := tx.CountPetTags(pet.ID, model.TagStatusActive, model.TagStatusPending)
		if err != nil {
			return err
		}
		if count > 0 {
			return ErrTagExists
		}

		unit := decimal.NewFromFloat(l.cfg.Tag.UnitPrice)
		total := unit.Mul(decimal.NewFromInt(int64(quantity)))

		order := model.Order{
			UserID:   userID,
			Status:   model.OrderStatusPending,
			Subtotal: total,
			Total:    total,
			Currency: l.cfg.Payment.Currency,
			Items: []model.OrderItem{{
				Name:     "Pet ID Tag",
				Price:    unit,
				Quantity: quantity,
			}},
			ShippingAddress: addr,
		}
		if err := tx.CreateOrder(&order); err != nil {
			return err
		}

		var firstTag *model.Tag
		for i := 0; i < quantity; i++ {
			tag := model.Tag{
				OwnerID: userID,
				PetID:   &pet.ID,
				OrderID: &order.ID,
				Status:  model.TagStatusPending,
			}
			if err := tx.CreateTag(&tag); err != nil {
				return err
			}
			if firstTag == nil {
				firstTag = &tag
			}
		}

		// Single-tag-per-order simplification: the order points at the
		// first tag it created. The checkout reference needs the order ID,
		// so both land in the follow-up save.
		order.TagID = &firstTag.ID
		order.CheckoutRef = l.payments.CheckoutRef(order.ID)
		if err := tx.SaveOrder(&order); err != nil {
			return err
		}

		pet.TagID = &firstTag.ID
		if err := tx.SavePet(pet); err != nil {
			return err
		}

		result = PurchaseResult{
			OrderID:    order.ID,
			TagID:      firstTag.ID,
			Total:      total,
			PaymentRef: order.CheckoutRef,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.log.Info("Tag purchase created",
		zap.Uint("user_id", userID),
		zap.Uint("pet_id", petID),
		zap.Uint("order_id", result.OrderID),
		zap.Uint("tag_id", result.TagID),
		zap.Int("quantity", quantity),
		zap.String("total", result.Total.String()))
	return &result, nil
}

// ActivateTag activates a tag for its linked pet. First-time activation
// claims one record from the finite QR inventory; re-activation reuses the
// binding the tag already carries. Re-running against an active tag is a
// no-op returning success.
func (l *Lifecycle) ActivateTag(ctx context.Context, userID, tagID uint) (*ActivationResult, error) {
	var (
		result        ActivationResult
		firstTime     bool
		alreadyActive bool
		petName       string
		ownerID       uint
	)

	err := l.store.Transact(ctx, func(tx Store) error {
		tag, err := tx.GetTagForOwner(tagID, userID)
		if err != nil {
			return err
		}
		if tag.PetID == nil {
			return ErrTagNotAssigned
		}

		pet, err := tx.GetPetForOwner(*tag.PetID, userID, true)
		if err != nil {
			return err
		}
		petName = pet.Name
		ownerID = pet.OwnerID

		// Idempotent path: the tag is already in service, nothing to do
		// and no second QR draw or notification.
		if tag.Status == model.TagStatusActive && tag.IsActive {
			alreadyActive = true
			result = ActivationResult{Tag: tag, WebsiteURL: tag.QRCode, QRImageURL: qrImageURL(tag.ID), Reactivated: true}
			return nil
		}

		if tag.QRCodeID == nil {
			// First-time activation: claim one sticker from the pool
			// before touching the tag, so a failure here leaves the tag
			// pending rather than marking inventory consumed.
			qr, err := tx.ClaimQRCode(tag.ID)
			if err != nil {
				return err
			}
			tag.QRCodeID = &qr.ID
			tag.QRCode = qr.Payload
			now := time.Now()
			tag.ActivatedAt = &now
			firstTime = true
		}

		tag.Status = model.TagStatusActive
		tag.IsActive = true
		if err := tx.SaveTag(tag); err != nil {
			return err
		}

		pet.Status = model.PetStatusActive
		if err := tx.SavePet(pet); err != nil {
			return err
		}

		result = ActivationResult{
			Tag:         tag,
			QRImageURL:  qrImageURL(tag.ID),
			WebsiteURL:  tag.QRCode,
			Reactivated: !firstTime,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Notifications are best-effort and fire only after the transaction
	// committed. Re-activation stays silent unless configured otherwise,
	// and the idempotent path never re-notifies.
	if firstTime || (!alreadyActive && result.Reactivated && l.cfg.Notify.OnReactivate) {
		l.notifier.Dispatch(ctx, ownerID, TagActivatedPayload{
			TagID:   result.Tag.ID,
			PetID:   *result.Tag.PetID,
			PetName: petName,
			QRCode:  result.Tag.QRCode,
		})
	}

	l.log.Info("Tag activated",
		zap.Uint("user_id", userID),
		zap.Uint("tag_id", tagID),
		zap.Bool("first_time", firstTime))
	return &result, nil
}

// DeactivateTag takes an active tag out of service. The QR binding is kept:
// deactivation is reversible through re-activation, not a return to the
// inventory pool.
func (l *Lifecycle) DeactivateTag(ctx context.Context, userID, tagID uint) (*model.Tag, error) {
	var deactivated *model.Tag
	err := l.store.Transact(ctx, func(tx Store) error {
		tag, err := tx.GetTagForOwner(tagID, userID)
		if err != nil {
			return err
		}
		if !tag.IsActive {
			return ErrTagAlreadyInactive
		}

		tag.Status = model.TagStatusInactive
		tag.IsActive = false
		if err := tx.SaveTag(tag); err != nil {
			return err
		}

		if tag.PetID != nil {
			pet, err := tx.GetPet(*tag.PetID)
			switch {
			case errors.Is(err, ErrPetNotFound):
				// Stale link to a deleted pet: nothing left to flip.
			case err != nil:
				return err
			default:
				pet.Status = model.PetStatusInactive
				if err := tx.SavePet(pet); err != nil {
					return err
				}
			}
		}

		deactivated = tag
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.log.Info("Tag deactivated",
		zap.Uint("user_id", userID),
		zap.Uint("tag_id", tagID))
	return deactivated, nil
}

// AssignTag links an unassigned tag to an inactive pet. Activation is a
// separate step; neither status changes here.
func (l *Lifecycle) AssignTag(ctx context.Context, userID, tagID, petID uint) (*model.Tag, error) {
	var assigned *model.Tag
	err := l.store.Transact(ctx, func(tx Store) error {
		tag, err := tx.GetTagForOwner(tagID, userID)
		if err != nil {
			return err
		}
		if tag.PetID != nil {
			return ErrTagAlreadyAssigned
		}

		pet, err := tx.GetPetForOwner(petID, userID, true)
		if err != nil {
			return err
		}
		if pet.Status != model.PetStatusInactive {
			return ErrPetNotInactive
		}

		count, err := tx.CountPetTags(pet.ID, model.TagStatusActive, model.TagStatusPending)
		if err != nil {
			return err
		}
		if count > 0 {
			return ErrPetHasTag
		}

		tag.PetID = &pet.ID
		if err := tx.SaveTag(tag); err != nil {
			return err
		}

		pet.TagID = &tag.ID
		if err := tx.SavePet(pet); err != nil {
			return err
		}

		assigned = tag
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.log.Info("Tag assigned",
		zap.Uint("user_id", userID),
		zap.Uint("tag_id", tagID),
		zap.Uint("pet_id", petID))
	return assigned, nil
}

// UnassignTag clears the tag/pet link in both directions and flips the pet
// inactive. The tag keeps its status and any QR binding.
func (l *Lifecycle) UnassignTag(ctx context.Context, userID, tagID uint) (*model.Tag, error) {
	var unassigned *model.Tag
	err := l.store.Transact(ctx, func(tx Store) error {
		tag, err := tx.GetTagForOwner(tagID, userID)
		if err != nil {
			return err
		}
		if tag.PetID == nil {
			return ErrTagNotAssigned
		}

		// A link to a deleted pet is still clearable; only the pet-side
		// writes drop out.
		pet, err := tx.GetPet(*tag.PetID)
		if err != nil && !errors.Is(err, ErrPetNotFound) {
			return err
		}

		tag.PetID = nil
		if err := tx.SaveTag(tag); err != nil {
			return err
		}

		if pet != nil {
			pet.TagID = nil
			pet.Status = model.PetStatusInactive
			if err := tx.SavePet(pet); err != nil {
				return err
			}
		}

		unassigned = tag
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.log.Info("Tag unassigned",
		zap.Uint("user_id", userID),
		zap.Uint("tag_id", tagID))
	return unassigned, nil
}

// DeletePet soft-deletes a pet profile and severs any tag still pointing at
// it. Linked tags leave service the same way DeactivateTag leaves them:
// inactive, unassigned, with their QR binding kept for later reuse.
func (l *Lifecycle) DeletePet(ctx context.Context, userID, petID uint) error {
	err := l.store.Transact(ctx, func(tx Store) error {
		pet, err := tx.GetPetForOwner(petID, userID, true)
		if err != nil {
			return err
		}

		tags, err := tx.TagsByPet(pet.ID)
		if err != nil {
			return err
		}
		for i := range tags {
			tag := &tags[i]
			tag.PetID = nil
			if tag.IsActive {
				tag.Status = model.TagStatusInactive
				tag.IsActive = false
			}
			if err := tx.SaveTag(tag); err != nil {
				return err
			}
		}

		pet.TagID = nil
		pet.Status = model.PetStatusInactive
		if err := tx.SavePet(pet); err != nil {
			return err
		}
		return tx.DeletePet(pet)
	})
	if err != nil {
		return err
	}

	l.log.Info("Pet deleted",
		zap.Uint("user_id", userID),
		zap.Uint("pet_id", petID))
	return nil
}

func qrImageURL(tagID uint) string {
	return fmt.Sprintf("/api/tags/%d/qr", tagID)
}
