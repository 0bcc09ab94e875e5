package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"pettag-service/internal/model"
	"pettag-service/pkg/config"
)

func testConfig() *config.Config {
	return &config.Config{
		Tag: config.TagConfig{
			UnitPrice: 15.99,
			QRBaseURL: "https://pettag.local/scan",
		},
		Notify: config.NotifyConfig{
			OnReactivate: false,
			SMSEnabled:   true,
			EmailEnabled: true,
		},
		Payment: config.PaymentConfig{
			Currency: "USD",
		},
	}
}

func newTestEngine(cfg *config.Config) (*Lifecycle, *memStore, *fakeProcessor, *fakeDispatcher) {
	store := newMemStore()
	payments := &fakeProcessor{}
	dispatcher := &fakeDispatcher{}
	engine := NewLifecycle(store, payments, dispatcher, cfg, zap.NewNop())
	return engine, store, payments, dispatcher
}

// assertInvariants checks the cross-entity consistency rules after any
// sequence of lifecycle operations.
func assertInvariants(t *testing.T, store *memStore) {
	t.Helper()

	// An active tag always carries a QR assignment.
	for _, tag := range store.tags {
		if tag.Status == model.TagStatusActive {
			assert.NotNil(t, tag.QRCodeID, "active tag %d must have a QR code", tag.ID)
		}
	}

	// An unavailable QR record is referenced by exactly one tag.
	for _, qr := range store.qrcodes {
		holders := 0
		for _, tag := range store.tags {
			if tag.QRCodeID != nil && *tag.QRCodeID == qr.ID {
				holders++
			}
		}
		if qr.Availability == model.QRCodeUnavailable {
			assert.Equal(t, 1, holders, "claimed QR %d must have exactly one holder", qr.ID)
		} else {
			assert.Equal(t, 0, holders, "available QR %d must have no holder", qr.ID)
		}
	}

	// A live active pet wears an active tag.
	for _, pet := range store.pets {
		if pet.DeletedAt.Valid {
			continue
		}
		if pet.Status == model.PetStatusActive {
			require.NotNil(t, pet.TagID, "active pet %d must have a tag", pet.ID)
			tag := store.tags[*pet.TagID]
			require.NotNil(t, tag)
			assert.Equal(t, model.TagStatusActive, tag.Status, "active pet %d must wear an active tag", pet.ID)
		}
	}
}

func TestPurchaseTagCreatesOrderAndPendingTags(t *testing.T) {
	engine, store, _, _ := newTestEngine(testConfig())
	user := store.seedUser("owner@example.com")
	pet := store.seedPet(user.ID, "Rex", model.PetStatusInactive)

	result, err := engine.PurchaseTag(context.Background(), user.ID, pet.ID, 2, model.ShippingAddress{City: "Austin"})
	require.NoError(t, err)

	assert.True(t, result.Total.Equal(decimal.NewFromFloat(31.98)), "total should be 2 x 15.99, got %s", result.Total)
	assert.NotZero(t, result.OrderID)
	assert.NotZero(t, result.TagID)
	assert.Contains(t, result.PaymentRef, "checkout")

	order := store.orders[result.OrderID]
	require.NotNil(t, order)
	assert.Equal(t, model.OrderStatusPending, order.Status)
	assert.NotEmpty(t, order.CheckoutRef)
	assert.Equal(t, result.PaymentRef, order.CheckoutRef, "the checkout reference is stored on the order")
	require.NotNil(t, order.TagID)
	assert.Equal(t, result.TagID, *order.TagID)
	require.Len(t, order.Items, 1)
	assert.Equal(t, 2, order.Items[0].Quantity)

	tags, err := store.TagsByOrder(order.ID)
	require.NoError(t, err)
	require.Len(t, tags, 2)
	for _, tag := range tags {
		assert.Equal(t, model.TagStatusPending, tag.Status)
		assert.Nil(t, tag.QRCodeID)
		require.NotNil(t, tag.PetID)
		assert.Equal(t, pet.ID, *tag.PetID)
	}
	assert.Equal(t, result.TagID, tags[0].ID, "the order points at the first created tag")

	assertInvariants(t, store)
}

func TestPurchaseTagPetNotFound(t *testing.T) {
	engine, store, _, _ := newTestEngine(testConfig())
	user := store.seedUser("owner@example.com")
	stranger := store.seedUser("stranger@example.com")
	pet := store.seedPet(user.ID, "Rex", model.PetStatusInactive)

	_, err := engine.PurchaseTag(context.Background(), stranger.ID, pet.ID, 1, model.ShippingAddress{})
	assert.ErrorIs(t, err, ErrPetNotFound)

	_, err = engine.PurchaseTag(context.Background(), user.ID, 9999, 1, model.ShippingAddress{})
	assert.ErrorIs(t, err, ErrPetNotFound)
}

func TestPurchaseTagRejectsSecondPendingTag(t *testing.T) {
	engine, store, _, _ := newTestEngine(testConfig())
	user := store.seedUser("owner@example.com")
	pet := store.seedPet(user.ID, "Rex", model.PetStatusInactive)

	_, err := engine.PurchaseTag(context.Background(), user.ID, pet.ID, 1, model.ShippingAddress{})
	require.NoError(t, err)

	_, err = engine.PurchaseTag(context.Background(), user.ID, pet.ID, 1, model.ShippingAddress{})
	assert.ErrorIs(t, err, ErrTagExists)
}

func TestActivateTagFirstTime(t *testing.T) {
	engine, store, _, dispatcher := newTestEngine(testConfig())
	user := store.seedUser("owner@example.com")
	pet := store.seedPet(user.ID, "Rex", model.PetStatusInactive)
	tag := store.seedTag(user.ID, &pet.ID, model.TagStatusPending, false)
	qr := store.seedQRCode("AAAA1111")

	result, err := engine.ActivateTag(context.Background(), user.ID, tag.ID)
	require.NoError(t, err)

	updated := store.tags[tag.ID]
	assert.Equal(t, model.TagStatusActive, updated.Status)
	assert.True(t, updated.IsActive)
	require.NotNil(t, updated.QRCodeID)
	assert.Equal(t, qr.ID, *updated.QRCodeID)
	assert.Equal(t, qr.Payload, updated.QRCode)
	assert.NotNil(t, updated.ActivatedAt)

	claimed := store.qrcodes[qr.ID]
	assert.Equal(t, model.QRCodeUnavailable, claimed.Availability)
	require.NotNil(t, claimed.AssignedTagID)
	assert.Equal(t, tag.ID, *claimed.AssignedTagID)

	assert.Equal(t, model.PetStatusActive, store.pets[pet.ID].Status)

	available, _ := store.CountAvailableQRCodes()
	assert.Zero(t, available, "pool should be drained")

	assert.False(t, result.Reactivated)
	assert.Equal(t, qr.Payload, result.WebsiteURL)
	assert.Contains(t, result.QRImageURL, "/qr")

	require.Equal(t, []string{"tag_activated"}, dispatcher.kinds())
	payload := dispatcher.payloads[0].(TagActivatedPayload)
	assert.Equal(t, "Rex", payload.PetName)
	assert.Equal(t, user.ID, dispatcher.userIDs[0])

	assertInvariants(t, store)
}

func TestActivateTagIdempotent(t *testing.T) {
	engine, store, _, dispatcher := newTestEngine(testConfig())
	user := store.seedUser("owner@example.com")
	pet := store.seedPet(user.ID, "Rex", model.PetStatusInactive)
	tag := store.seedTag(user.ID, &pet.ID, model.TagStatusPending, false)
	store.seedQRCode("AAAA1111")

	first, err := engine.ActivateTag(context.Background(), user.ID, tag.ID)
	require.NoError(t, err)

	second, err := engine.ActivateTag(context.Background(), user.ID, tag.ID)
	require.NoError(t, err)

	// No second QR draw, no state change, no duplicate notification.
	assert.Equal(t, *first.Tag.QRCodeID, *second.Tag.QRCodeID)
	assert.Equal(t, first.Tag.ActivatedAt.Unix(), second.Tag.ActivatedAt.Unix())
	assert.True(t, second.Reactivated)
	assert.Len(t, dispatcher.payloads, 1)

	assertInvariants(t, store)
}

func TestActivateTagEmptyPool(t *testing.T) {
	engine, store, _, dispatcher := newTestEngine(testConfig())
	user := store.seedUser("owner@example.com")
	pet := store.seedPet(user.ID, "Rex", model.PetStatusInactive)
	tag := store.seedTag(user.ID, &pet.ID, model.TagStatusPending, false)

	_, err := engine.ActivateTag(context.Background(), user.ID, tag.ID)
	assert.ErrorIs(t, err, ErrNoQRCodeAvailable)

	// Fail-safe: the tag stays pending and the pet inactive.
	assert.Equal(t, model.TagStatusPending, store.tags[tag.ID].Status)
	assert.Equal(t, model.PetStatusInactive, store.pets[pet.ID].Status)
	assert.Empty(t, dispatcher.payloads)
}

func TestActivateTagRequiresPet(t *testing.T) {
	engine, store, _, _ := newTestEngine(testConfig())
	user := store.seedUser("owner@example.com")
	tag := store.seedTag(user.ID, nil, model.TagStatusPending, false)
	store.seedQRCode("AAAA1111")

	_, err := engine.ActivateTag(context.Background(), user.ID, tag.ID)
	assert.ErrorIs(t, err, ErrTagNotAssigned)
}

func TestDeactivateTagKeepsQRClaim(t *testing.T) {
	engine, store, _, _ := newTestEngine(testConfig())
	user := store.seedUser("owner@example.com")
	pet := store.seedPet(user.ID, "Rex", model.PetStatusInactive)
	tag := store.seedTag(user.ID, &pet.ID, model.TagStatusPending, false)
	qr := store.seedQRCode("AAAA1111")

	_, err := engine.ActivateTag(context.Background(), user.ID, tag.ID)
	require.NoError(t, err)

	_, err = engine.DeactivateTag(context.Background(), user.ID, tag.ID)
	require.NoError(t, err)

	assert.Equal(t, model.TagStatusInactive, store.tags[tag.ID].Status)
	assert.False(t, store.tags[tag.ID].IsActive)
	assert.Equal(t, model.PetStatusInactive, store.pets[pet.ID].Status)
	// The QR claim is not released back to the pool.
	assert.Equal(t, model.QRCodeUnavailable, store.qrcodes[qr.ID].Availability)

	// Re-deactivating fails rather than no-op.
	_, err = engine.DeactivateTag(context.Background(), user.ID, tag.ID)
	assert.ErrorIs(t, err, ErrTagAlreadyInactive)

	assertInvariants(t, store)
}

func TestReactivationReusesBindingWithoutNotification(t *testing.T) {
	engine, store, _, dispatcher := newTestEngine(testConfig())
	user := store.seedUser("owner@example.com")
	pet := store.seedPet(user.ID, "Rex", model.PetStatusInactive)
	tag := store.seedTag(user.ID, &pet.ID, model.TagStatusPending, false)
	store.seedQRCode("AAAA1111")

	_, err := engine.ActivateTag(context.Background(), user.ID, tag.ID)
	require.NoError(t, err)
	_, err = engine.DeactivateTag(context.Background(), user.ID, tag.ID)
	require.NoError(t, err)

	// Pool is empty, but re-activation must not need a new draw.
	result, err := engine.ActivateTag(context.Background(), user.ID, tag.ID)
	require.NoError(t, err)
	assert.True(t, result.Reactivated)
	assert.Equal(t, model.TagStatusActive, store.tags[tag.ID].Status)
	assert.Equal(t, model.PetStatusActive, store.pets[pet.ID].Status)

	// Only the first activation notified.
	assert.Equal(t, []string{"tag_activated"}, dispatcher.kinds())

	assertInvariants(t, store)
}

func TestReactivationNotifiesWhenConfigured(t *testing.T) {
	cfg := testConfig()
	cfg.Notify.OnReactivate = true
	engine, store, _, dispatcher := newTestEngine(cfg)
	user := store.seedUser("owner@example.com")
	pet := store.seedPet(user.ID, "Rex", model.PetStatusInactive)
	tag := store.seedTag(user.ID, &pet.ID, model.TagStatusPending, false)
	store.seedQRCode("AAAA1111")

	_, err := engine.ActivateTag(context.Background(), user.ID, tag.ID)
	require.NoError(t, err)
	_, err = engine.DeactivateTag(context.Background(), user.ID, tag.ID)
	require.NoError(t, err)
	_, err = engine.ActivateTag(context.Background(), user.ID, tag.ID)
	require.NoError(t, err)

	assert.Equal(t, []string{"tag_activated", "tag_activated"}, dispatcher.kinds())

	// The idempotent path still never re-notifies.
	_, err = engine.ActivateTag(context.Background(), user.ID, tag.ID)
	require.NoError(t, err)
	assert.Len(t, dispatcher.payloads, 2)
}

func TestAssignTagRequiresInactivePet(t *testing.T) {
	engine, store, _, _ := newTestEngine(testConfig())
	user := store.seedUser("owner@example.com")
	pet := store.seedPet(user.ID, "Rex", model.PetStatusActive)
	tag := store.seedTag(user.ID, nil, model.TagStatusInactive, false)

	_, err := engine.AssignTag(context.Background(), user.ID, tag.ID, pet.ID)
	assert.ErrorIs(t, err, ErrPetNotInactive)
}

func TestAssignTagLinksBothSides(t *testing.T) {
	engine, store, _, _ := newTestEngine(testConfig())
	user := store.seedUser("owner@example.com")
	pet := store.seedPet(user.ID, "Rex", model.PetStatusInactive)
	tag := store.seedTag(user.ID, nil, model.TagStatusInactive, false)

	assigned, err := engine.AssignTag(context.Background(), user.ID, tag.ID, pet.ID)
	require.NoError(t, err)

	require.NotNil(t, assigned.PetID)
	assert.Equal(t, pet.ID, *assigned.PetID)
	require.NotNil(t, store.pets[pet.ID].TagID)
	assert.Equal(t, tag.ID, *store.pets[pet.ID].TagID)

	// Assignment alone changes neither status.
	assert.Equal(t, model.TagStatusInactive, store.tags[tag.ID].Status)
	assert.Equal(t, model.PetStatusInactive, store.pets[pet.ID].Status)

	// The tag cannot be assigned twice.
	other := store.seedPet(user.ID, "Milo", model.PetStatusInactive)
	_, err = engine.AssignTag(context.Background(), user.ID, tag.ID, other.ID)
	assert.ErrorIs(t, err, ErrTagAlreadyAssigned)
}

func TestAssignTagRejectsPetWithPendingTag(t *testing.T) {
	engine, store, _, _ := newTestEngine(testConfig())
	user := store.seedUser("owner@example.com")
	pet := store.seedPet(user.ID, "Rex", model.PetStatusInactive)
	store.seedTag(user.ID, &pet.ID, model.TagStatusPending, false)
	spare := store.seedTag(user.ID, nil, model.TagStatusInactive, false)

	_, err := engine.AssignTag(context.Background(), user.ID, spare.ID, pet.ID)
	assert.ErrorIs(t, err, ErrPetHasTag)
}

func TestUnassignTagClearsLinkAndDeactivatesPet(t *testing.T) {
	engine, store, _, _ := newTestEngine(testConfig())
	user := store.seedUser("owner@example.com")
	pet := store.seedPet(user.ID, "Rex", model.PetStatusInactive)
	tag := store.seedTag(user.ID, &pet.ID, model.TagStatusPending, false)
	store.seedQRCode("AAAA1111")

	_, err := engine.ActivateTag(context.Background(), user.ID, tag.ID)
	require.NoError(t, err)

	unassigned, err := engine.UnassignTag(context.Background(), user.ID, tag.ID)
	require.NoError(t, err)

	assert.Nil(t, unassigned.PetID)
	assert.Nil(t, store.pets[pet.ID].TagID)
	assert.Equal(t, model.PetStatusInactive, store.pets[pet.ID].Status)
	// The tag keeps its own status and QR binding.
	assert.Equal(t, model.TagStatusActive, store.tags[tag.ID].Status)
	assert.NotNil(t, store.tags[tag.ID].QRCodeID)

	_, err = engine.UnassignTag(context.Background(), user.ID, tag.ID)
	assert.ErrorIs(t, err, ErrTagNotAssigned)
}

func TestDeletePetReleasesLinkedTag(t *testing.T) {
	engine, store, _, _ := newTestEngine(testConfig())
	user := store.seedUser("owner@example.com")
	pet := store.seedPet(user.ID, "Rex", model.PetStatusInactive)
	tag := store.seedTag(user.ID, &pet.ID, model.TagStatusPending, false)
	qr := store.seedQRCode("AAAA1111")

	_, err := engine.ActivateTag(context.Background(), user.ID, tag.ID)
	require.NoError(t, err)

	err = engine.DeletePet(context.Background(), user.ID, pet.ID)
	require.NoError(t, err)

	assert.True(t, store.pets[pet.ID].DeletedAt.Valid, "pet is soft-deleted, not removed")

	// The tag comes out of service but keeps its QR binding.
	released := store.tags[tag.ID]
	assert.Nil(t, released.PetID)
	assert.Equal(t, model.TagStatusInactive, released.Status)
	assert.False(t, released.IsActive)
	require.NotNil(t, released.QRCodeID)
	assert.Equal(t, model.QRCodeUnavailable, store.qrcodes[qr.ID].Availability)

	// The released tag is reusable on another pet without a new QR draw.
	other := store.seedPet(user.ID, "Milo", model.PetStatusInactive)
	_, err = engine.AssignTag(context.Background(), user.ID, tag.ID, other.ID)
	require.NoError(t, err)
	result, err := engine.ActivateTag(context.Background(), user.ID, tag.ID)
	require.NoError(t, err)
	assert.True(t, result.Reactivated)
	assert.Equal(t, qr.ID, *store.tags[tag.ID].QRCodeID)

	assertInvariants(t, store)
}

func TestDeletePetRequiresOwnership(t *testing.T) {
	engine, store, _, _ := newTestEngine(testConfig())
	user := store.seedUser("owner@example.com")
	stranger := store.seedUser("stranger@example.com")
	pet := store.seedPet(user.ID, "Rex", model.PetStatusInactive)

	err := engine.DeletePet(context.Background(), stranger.ID, pet.ID)
	assert.ErrorIs(t, err, ErrPetNotFound)
	assert.False(t, store.pets[pet.ID].DeletedAt.Valid)
}

func TestStaleDeletedPetLinkStillRecoverable(t *testing.T) {
	engine, store, _, _ := newTestEngine(testConfig())
	user := store.seedUser("owner@example.com")
	pet := store.seedPet(user.ID, "Rex", model.PetStatusInactive)
	tag := store.seedTag(user.ID, &pet.ID, model.TagStatusPending, false)
	store.seedQRCode("AAAA1111")

	_, err := engine.ActivateTag(context.Background(), user.ID, tag.ID)
	require.NoError(t, err)

	// A row written before deletes severed the link: the pet is gone but
	// the tag still points at it.
	store.pets[pet.ID].DeletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}

	// Deactivation skips the missing pet instead of failing.
	_, err = engine.DeactivateTag(context.Background(), user.ID, tag.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TagStatusInactive, store.tags[tag.ID].Status)

	// Unassignment clears the stale link.
	unassigned, err := engine.UnassignTag(context.Background(), user.ID, tag.ID)
	require.NoError(t, err)
	assert.Nil(t, unassigned.PetID)

	// The tag is back in circulation.
	other := store.seedPet(user.ID, "Milo", model.PetStatusInactive)
	_, err = engine.AssignTag(context.Background(), user.ID, tag.ID, other.ID)
	require.NoError(t, err)

	assertInvariants(t, store)
}

func TestCancelOrderDeactivatesTags(t *testing.T) {
	engine, store, _, _ := newTestEngine(testConfig())
	user := store.seedUser("owner@example.com")
	pet := store.seedPet(user.ID, "Rex", model.PetStatusInactive)
	store.seedQRCode("AAAA1111")

	purchase, err := engine.PurchaseTag(context.Background(), user.ID, pet.ID, 1, model.ShippingAddress{})
	require.NoError(t, err)

	_, err = engine.ActivateTag(context.Background(), user.ID, purchase.TagID)
	require.NoError(t, err)
	require.Equal(t, model.TagStatusActive, store.tags[purchase.TagID].Status)

	cancelled, err := engine.CancelOrder(context.Background(), user.ID, purchase.OrderID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusCancelled, cancelled.Status)
	assert.NotNil(t, cancelled.CancelledAt)

	// Cancellation severs the tag from service even though it was active.
	tag := store.tags[purchase.TagID]
	assert.Equal(t, model.TagStatusInactive, tag.Status)
	assert.False(t, tag.IsActive)
	assert.Equal(t, model.PetStatusInactive, store.pets[pet.ID].Status)

	_, err = engine.CancelOrder(context.Background(), user.ID, purchase.OrderID)
	assert.ErrorIs(t, err, ErrOrderNotCancellable)

	assertInvariants(t, store)
}

func TestConcurrentActivationsSingleQRCode(t *testing.T) {
	engine, store, _, _ := newTestEngine(testConfig())
	user := store.seedUser("owner@example.com")
	store.seedQRCode("ONLY0001")

	const n = 8
	tagIDs := make([]uint, n)
	for i := 0; i < n; i++ {
		pet := store.seedPet(user.ID, "Pet", model.PetStatusInactive)
		tagIDs[i] = store.seedTag(user.ID, &pet.ID, model.TagStatusPending, false).ID
	}

	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = engine.ActivateTag(context.Background(), user.ID, tagIDs[i])
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
		} else {
			assert.ErrorIs(t, err, ErrNoQRCodeAvailable)
		}
	}
	assert.Equal(t, 1, successes, "exactly one activation may claim the last QR code")

	holders := 0
	for _, tag := range store.tags {
		if tag.QRCodeID != nil {
			holders++
		}
	}
	assert.Equal(t, 1, holders, "the QR code must be assigned to exactly one tag")

	assertInvariants(t, store)
}

func TestCheckoutCapturesPaymentAndReservesStock(t *testing.T) {
	engine, store, payments, _ := newTestEngine(testConfig())
	user := store.seedUser("buyer@example.com")
	product := store.seedProduct("Reflective Collar", 12.50, 5)

	order, err := engine.Checkout(context.Background(), user.ID, []CheckoutItem{
		{ProductID: product.ID, Quantity: 2},
	}, model.ShippingAddress{City: "Austin"}, "tok_visa")
	require.NoError(t, err)

	assert.Equal(t, model.OrderStatusPaid, order.Status)
	assert.Equal(t, "ch_test", order.ChargeID)
	assert.NotNil(t, order.PaidAt)
	assert.True(t, order.Total.Equal(decimal.NewFromFloat(25.00)), "got %s", order.Total)
	assert.Equal(t, 3, store.products[product.ID].Stock)
	require.Len(t, payments.charges, 1)
}

func TestCheckoutDeclinedRollsBackStock(t *testing.T) {
	engine, store, payments, _ := newTestEngine(testConfig())
	payments.decline = true
	user := store.seedUser("buyer@example.com")
	product := store.seedProduct("Reflective Collar", 12.50, 5)

	_, err := engine.Checkout(context.Background(), user.ID, []CheckoutItem{
		{ProductID: product.ID, Quantity: 2},
	}, model.ShippingAddress{}, "tok_visa")
	assert.ErrorIs(t, err, ErrPaymentDeclined)

	// The declined charge leaves no order and returns the reserved stock.
	assert.Empty(t, store.orders)
	assert.Equal(t, 5, store.products[product.ID].Stock)
}

func TestCheckoutOutOfStock(t *testing.T) {
	engine, store, _, _ := newTestEngine(testConfig())
	user := store.seedUser("buyer@example.com")
	product := store.seedProduct("Reflective Collar", 12.50, 1)

	_, err := engine.Checkout(context.Background(), user.ID, []CheckoutItem{
		{ProductID: product.ID, Quantity: 2},
	}, model.ShippingAddress{}, "tok_visa")
	assert.ErrorIs(t, err, ErrOutOfStock)
}

func TestAdvanceOrderStatusNotifies(t *testing.T) {
	engine, store, _, dispatcher := newTestEngine(testConfig())
	user := store.seedUser("buyer@example.com")
	product := store.seedProduct("Reflective Collar", 12.50, 5)

	order, err := engine.Checkout(context.Background(), user.ID, []CheckoutItem{
		{ProductID: product.ID, Quantity: 1},
	}, model.ShippingAddress{}, "tok_visa")
	require.NoError(t, err)

	_, err = engine.AdvanceOrderStatus(context.Background(), user.ID, order.ID, model.OrderStatusProcessing, ShipmentUpdate{})
	require.NoError(t, err)

	shipped, err := engine.AdvanceOrderStatus(context.Background(), user.ID, order.ID, model.OrderStatusShipped, ShipmentUpdate{
		TrackingNumber: "1Z999", Carrier: "UPS",
	})
	require.NoError(t, err)
	assert.NotNil(t, shipped.ShippedAt)
	assert.Equal(t, "1Z999", shipped.TrackingNumber)

	delivered, err := engine.AdvanceOrderStatus(context.Background(), user.ID, order.ID, model.OrderStatusDelivered, ShipmentUpdate{})
	require.NoError(t, err)
	assert.NotNil(t, delivered.DeliveredAt)

	assert.Equal(t, []string{"order_shipped", "order_delivered"}, dispatcher.kinds())

	// Skipping a state is rejected.
	_, err = engine.AdvanceOrderStatus(context.Background(), user.ID, order.ID, model.OrderStatusProcessing, ShipmentUpdate{})
	assert.ErrorIs(t, err, ErrInvalidStatus)
}
