package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"pettag-service/internal/model"
)

// memStore is an in-memory Store for engine tests. Transact serializes all
// operations behind one mutex and restores a snapshot when fn fails, which
// mirrors the commit-or-rollback contract of the GORM store.
type memStore struct {
	mu       sync.Mutex
	users    map[uint]*model.User
	pets     map[uint]*model.Pet
	tags     map[uint]*model.Tag
	qrcodes  map[uint]*model.QRCode
	orders   map[uint]*model.Order
	products map[uint]*model.Product
	nextID   uint
}

func newMemStore() *memStore {
	return &memStore{
		users:    map[uint]*model.User{},
		pets:     map[uint]*model.Pet{},
		tags:     map[uint]*model.Tag{},
		qrcodes:  map[uint]*model.QRCode{},
		orders:   map[uint]*model.Order{},
		products: map[uint]*model.Product{},
	}
}

func (s *memStore) id() uint {
	s.nextID++
	return s.nextID
}

func (s *memStore) snapshot() *memStore {
	clone := newMemStore()
	clone.nextID = s.nextID
	for id, u := range s.users {
		v := *u
		clone.users[id] = &v
	}
	for id, p := range s.pets {
		v := *p
		clone.pets[id] = &v
	}
	for id, t := range s.tags {
		v := *t
		clone.tags[id] = &v
	}
	for id, q := range s.qrcodes {
		v := *q
		clone.qrcodes[id] = &v
	}
	for id, o := range s.orders {
		v := *o
		v.Items = append([]model.OrderItem(nil), o.Items...)
		clone.orders[id] = &v
	}
	for id, p := range s.products {
		v := *p
		clone.products[id] = &v
	}
	return clone
}

func (s *memStore) restore(from *memStore) {
	s.users = from.users
	s.pets = from.pets
	s.tags = from.tags
	s.qrcodes = from.qrcodes
	s.orders = from.orders
	s.products = from.products
	s.nextID = from.nextID
}

func (s *memStore) Transact(ctx context.Context, fn func(Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	saved := s.snapshot()
	if err := fn(s); err != nil {
		s.restore(saved)
		return err
	}
	return nil
}

func (s *memStore) GetUser(id uint) (*model.User, error) {
	user, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("user %d not found", id)
	}
	v := *user
	return &v, nil
}

func (s *memStore) GetPetForOwner(id, ownerID uint, lock bool) (*model.Pet, error) {
	pet, ok := s.pets[id]
	if !ok || pet.OwnerID != ownerID || pet.DeletedAt.Valid {
		return nil, ErrPetNotFound
	}
	v := *pet
	return &v, nil
}

func (s *memStore) GetPet(id uint) (*model.Pet, error) {
	pet, ok := s.pets[id]
	if !ok || pet.DeletedAt.Valid {
		return nil, ErrPetNotFound
	}
	v := *pet
	return &v, nil
}

func (s *memStore) SavePet(pet *model.Pet) error {
	if pet.ID == 0 {
		pet.ID = s.id()
	}
	v := *pet
	s.pets[pet.ID] = &v
	return nil
}

func (s *memStore) DeletePet(pet *model.Pet) error {
	if stored, ok := s.pets[pet.ID]; ok {
		stored.DeletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	}
	return nil
}

func (s *memStore) GetTagForOwner(id, ownerID uint) (*model.Tag, error) {
	tag, ok := s.tags[id]
	if !ok || tag.OwnerID != ownerID {
		return nil, ErrTagNotFound
	}
	v := *tag
	return &v, nil
}

func (s *memStore) CreateTag(tag *model.Tag) error {
	tag.ID = s.id()
	v := *tag
	s.tags[tag.ID] = &v
	return nil
}

func (s *memStore) SaveTag(tag *model.Tag) error {
	v := *tag
	s.tags[tag.ID] = &v
	return nil
}

func (s *memStore) CountPetTags(petID uint, statuses ...string) (int64, error) {
	var count int64
	for _, tag := range s.tags {
		if tag.PetID == nil || *tag.PetID != petID {
			continue
		}
		for _, status := range statuses {
			if tag.Status == status {
				count++
				break
			}
		}
	}
	return count, nil
}

func (s *memStore) TagsByOrder(orderID uint) ([]model.Tag, error) {
	var tags []model.Tag
	for _, tag := range s.tags {
		if tag.OrderID != nil && *tag.OrderID == orderID {
			tags = append(tags, *tag)
		}
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i].ID < tags[j].ID })
	return tags, nil
}

func (s *memStore) TagsByPet(petID uint) ([]model.Tag, error) {
	var tags []model.Tag
	for _, tag := range s.tags {
		if tag.PetID != nil && *tag.PetID == petID {
			tags = append(tags, *tag)
		}
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i].ID < tags[j].ID })
	return tags, nil
}

func (s *memStore) ClaimQRCode(tagID uint) (*model.QRCode, error) {
	ids := make([]uint, 0, len(s.qrcodes))
	for id := range s.qrcodes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		qr := s.qrcodes[id]
		if qr.Availability != model.QRCodeAvailable {
			continue
		}
		qr.Availability = model.QRCodeUnavailable
		qr.AssignedTagID = &tagID
		v := *qr
		return &v, nil
	}
	return nil, ErrNoQRCodeAvailable
}

func (s *memStore) CountAvailableQRCodes() (int64, error) {
	var count int64
	for _, qr := range s.qrcodes {
		if qr.Availability == model.QRCodeAvailable {
			count++
		}
	}
	return count, nil
}

func (s *memStore) GetOrderForUser(id, userID uint) (*model.Order, error) {
	order, ok := s.orders[id]
	if !ok || order.UserID != userID {
		return nil, ErrOrderNotFound
	}
	v := *order
	v.Items = append([]model.OrderItem(nil), order.Items...)
	return &v, nil
}

func (s *memStore) CreateOrder(order *model.Order) error {
	order.ID = s.id()
	for i := range order.Items {
		order.Items[i].ID = s.id()
		order.Items[i].OrderID = order.ID
	}
	v := *order
	v.Items = append([]model.OrderItem(nil), order.Items...)
	s.orders[order.ID] = &v
	return nil
}

func (s *memStore) SaveOrder(order *model.Order) error {
	v := *order
	v.Items = append([]model.OrderItem(nil), order.Items...)
	s.orders[order.ID] = &v
	return nil
}

func (s *memStore) GetProduct(id uint) (*model.Product, error) {
	product, ok := s.products[id]
	if !ok {
		return nil, ErrProductNotFound
	}
	v := *product
	return &v, nil
}

func (s *memStore) ReserveStock(productID uint, qty int) error {
	product, ok := s.products[productID]
	if !ok || product.Stock < qty {
		return ErrOutOfStock
	}
	product.Stock -= qty
	return nil
}

func (s *memStore) RestoreStock(productID uint, qty int) error {
	product, ok := s.products[productID]
	if !ok {
		return nil
	}
	product.Stock += qty
	return nil
}

// Seeding helpers. These run outside Transact, before the engine is exercised.

func (s *memStore) seedUser(email string) *model.User {
	user := &model.User{ID: s.id(), ExternalID: fmt.Sprintf("sub-%s", email), Email: email, EmailOptIn: true}
	s.users[user.ID] = user
	return user
}

func (s *memStore) seedPet(ownerID uint, name, status string) *model.Pet {
	pet := &model.Pet{ID: s.id(), OwnerID: ownerID, Name: name, Status: status}
	s.pets[pet.ID] = pet
	return pet
}

func (s *memStore) seedTag(ownerID uint, petID *uint, status string, isActive bool) *model.Tag {
	tag := &model.Tag{ID: s.id(), OwnerID: ownerID, PetID: petID, Status: status, IsActive: isActive}
	s.tags[tag.ID] = tag
	if petID != nil {
		if pet, ok := s.pets[*petID]; ok {
			pet.TagID = &tag.ID
		}
	}
	return tag
}

func (s *memStore) seedQRCode(code string) *model.QRCode {
	qr := &model.QRCode{
		ID:           s.id(),
		TagCode:      code,
		Payload:      "https://pettag.local/scan/" + code,
		Availability: model.QRCodeAvailable,
	}
	s.qrcodes[qr.ID] = qr
	return qr
}

func (s *memStore) seedProduct(name string, price float64, stock int) *model.Product {
	product := &model.Product{
		ID:    s.id(),
		Name:  name,
		SKU:   fmt.Sprintf("SKU-%d", s.nextID),
		Price: decimal.NewFromFloat(price),
		Stock: stock,
	}
	s.products[product.ID] = product
	return product
}

// fakeProcessor stands in for the payment gateway.
type fakeProcessor struct {
	decline bool
	charges []decimal.Decimal
}

func (p *fakeProcessor) Totals(items []model.OrderItem) OrderTotals {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return OrderTotals{Subtotal: subtotal, Tax: decimal.Zero, Shipping: decimal.Zero, Total: subtotal}
}

func (p *fakeProcessor) Charge(ctx context.Context, amount decimal.Decimal, currency, source string) (*Charge, error) {
	if p.decline {
		return &Charge{Confirmed: false}, nil
	}
	p.charges = append(p.charges, amount)
	return &Charge{ID: "ch_test", Confirmed: true}, nil
}

func (p *fakeProcessor) CheckoutRef(orderID uint) string {
	return fmt.Sprintf("https://gateway.test/checkout/orders/%d", orderID)
}

// fakeDispatcher records every dispatched payload.
type fakeDispatcher struct {
	mu       sync.Mutex
	payloads []NotificationPayload
	userIDs  []uint
}

func (d *fakeDispatcher) Dispatch(ctx context.Context, userID uint, payload NotificationPayload) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.payloads = append(d.payloads, payload)
	d.userIDs = append(d.userIDs, userID)
}

func (d *fakeDispatcher) kinds() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	kinds := make([]string, len(d.payloads))
	for i, p := range d.payloads {
		kinds[i] = p.Kind()
	}
	return kinds
}
