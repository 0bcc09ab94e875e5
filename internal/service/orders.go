package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"pettag-service/internal/model"
)

// CheckoutItem is one requested line in a merchandise checkout.
type CheckoutItem struct {
	ProductID uint   `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Variant   string `json:"variant"`
}

// Checkout captures payment for a merchandise order. The processor computes
// the totals and the charge is taken before the order persists, so a
// declined card never leaves a paid-looking order behind.
func (l *Lifecycle) Checkout(ctx context.Context, userID uint, items []CheckoutItem, addr model.ShippingAddress, source string) (*model.Order, error) {
	if len(items) == 0 {
		return nil, ErrEmptyOrder
	}

	var order *model.Order
	err := l.store.Transact(ctx, func(tx Store) error {
		lines := make([]model.OrderItem, 0, len(items))
		for _, item := range items {
			qty := item.Quantity
			if qty < 1 {
				qty = 1
			}
			product, err := tx.GetProduct(item.ProductID)
			if err != nil {
				return err
			}
			if err := tx.ReserveStock(product.ID, qty); err != nil {
				return err
			}
			lines = append(lines, model.OrderItem{
				ProductID: &product.ID,
				Name:      product.Name,
				Price:     product.Price,
				Quantity:  qty,
				Variant:   item.Variant,
			})
		}

		totals := l.payments.Totals(lines)

		charge, err := l.payments.Charge(ctx, totals.Total, l.cfg.Payment.Currency, source)
		if err != nil {
			l.log.Error("Payment capture failed", zap.Uint("user_id", userID), zap.Error(err))
			return ErrPaymentDeclined
		}
		if !charge.Confirmed {
			return ErrPaymentDeclined
		}

		now := time.Now()
		order = &model.Order{
			UserID:          userID,
			Items:           lines,
			Status:          model.OrderStatusPaid,
			Subtotal:        totals.Subtotal,
			Tax:             totals.Tax,
			Shipping:        totals.Shipping,
			Total:           totals.Total,
			Currency:        l.cfg.Payment.Currency,
			ChargeID:        charge.ID,
			ShippingAddress: addr,
			PaidAt:          &now,
		}
		return tx.CreateOrder(order)
	})
	if err != nil {
		return nil, err
	}

	l.log.Info("Checkout completed",
		zap.Uint("user_id", userID),
		zap.Uint("order_id", order.ID),
		zap.String("charge_id", order.ChargeID),
		zap.String("total", order.Total.String()))
	return order, nil
}

// CancelOrder cancels an order and reverses its side effects: tags purchased
// by the order leave service regardless of their current state, their pets
// flip inactive, and merchandise stock returns to the shelf. This is the one
// path that mutates tag state from outside the tag API, so it runs under the
// same transaction discipline.
func (l *Lifecycle) CancelOrder(ctx context.Context, userID, orderID uint) (*model.Order, error) {
	var cancelled *model.Order
	err := l.store.Transact(ctx, func(tx Store) error {
		order, err := tx.GetOrderForUser(orderID, userID)
		if err != nil {
			return err
		}
		switch order.Status {
		case model.OrderStatusShipped, model.OrderStatusDelivered, model.OrderStatusCancelled:
			return ErrOrderNotCancellable
		}

		now := time.Now()
		order.Status = model.OrderStatusCancelled
		order.CancelledAt = &now
		if err := tx.SaveOrder(order); err != nil {
			return err
		}

		tags, err := tx.TagsByOrder(order.ID)
		if err != nil {
			return err
		}
		for i := range tags {
			tag := &tags[i]
			tag.Status = model.TagStatusInactive
			tag.IsActive = false
			if err := tx.SaveTag(tag); err != nil {
				return err
			}
			if tag.PetID != nil {
				pet, err := tx.GetPet(*tag.PetID)
				if err != nil {
					return err
				}
				pet.Status = model.PetStatusInactive
				if err := tx.SavePet(pet); err != nil {
					return err
				}
			}
		}

		for _, item := range order.Items {
			if item.ProductID == nil {
				continue
			}
			if err := tx.RestoreStock(*item.ProductID, item.Quantity); err != nil {
				return err
			}
		}

		cancelled = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.log.Info("Order cancelled",
		zap.Uint("user_id", userID),
		zap.Uint("order_id", orderID))
	return cancelled, nil
}

// ShipmentUpdate carries the optional tracking details of a status advance.
type ShipmentUpdate struct {
	TrackingNumber string `json:"tracking_number"`
	Carrier        string `json:"carrier"`
}

// AdvanceOrderStatus moves an order along paid -> processing -> shipped ->
// delivered and fires the matching buyer notification for shipment events.
func (l *Lifecycle) AdvanceOrderStatus(ctx context.Context, userID, orderID uint, status string, update ShipmentUpdate) (*model.Order, error) {
	next := map[string]string{
		model.OrderStatusPaid:       model.OrderStatusProcessing,
		model.OrderStatusProcessing: model.OrderStatusShipped,
		model.OrderStatusShipped:    model.OrderStatusDelivered,
	}

	var advanced *model.Order
	err := l.store.Transact(ctx, func(tx Store) error {
		order, err := tx.GetOrderForUser(orderID, userID)
		if err != nil {
			return err
		}
		if next[order.Status] != status {
			return ErrInvalidStatus
		}

		now := time.Now()
		order.Status = status
		switch status {
		case model.OrderStatusShipped:
			order.ShippedAt = &now
			order.TrackingNumber = update.TrackingNumber
			order.Carrier = update.Carrier
		case model.OrderStatusDelivered:
			order.DeliveredAt = &now
		}
		if err := tx.SaveOrder(order); err != nil {
			return err
		}

		advanced = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	switch status {
	case model.OrderStatusShipped:
		l.notifier.Dispatch(ctx, advanced.UserID, OrderShippedPayload{
			OrderID:        advanced.ID,
			TrackingNumber: advanced.TrackingNumber,
			Carrier:        advanced.Carrier,
		})
	case model.OrderStatusDelivered:
		l.notifier.Dispatch(ctx, advanced.UserID, OrderDeliveredPayload{OrderID: advanced.ID})
	}

	l.log.Info("Order status advanced",
		zap.Uint("order_id", orderID),
		zap.String("status", status))
	return advanced, nil
}
