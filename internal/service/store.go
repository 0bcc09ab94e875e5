package service

import (
	"context"

	"pettag-service/internal/model"
)

// Store is the persistence contract the lifecycle engine runs against.
// The production implementation is backed by GORM/Postgres; tests use an
// in-memory fake. All writes issued inside the function passed to Transact
// commit or roll back as one unit.
type Store interface {
	// Transact runs fn against a transactional view of the store. Lifecycle
	// operations always run inside Transact so the Tag/Pet/QRCode writes of
	// one operation are a single logical unit.
	Transact(ctx context.Context, fn func(Store) error) error

	GetUser(id uint) (*model.User, error)

	// GetPetForOwner returns the pet only when it belongs to ownerID and is
	// not soft-deleted. With lock set, the row is locked for the duration of
	// the surrounding transaction, serializing concurrent tag mutations on
	// the same pet.
	GetPetForOwner(id, ownerID uint, lock bool) (*model.Pet, error)
	GetPet(id uint) (*model.Pet, error)
	SavePet(pet *model.Pet) error
	// DeletePet soft-deletes the pet. Severing any tag link first is the
	// engine's responsibility.
	DeletePet(pet *model.Pet) error

	GetTagForOwner(id, ownerID uint) (*model.Tag, error)
	CreateTag(tag *model.Tag) error
	SaveTag(tag *model.Tag) error
	// TagsByPet returns every non-deleted tag currently linked to the pet.
	TagsByPet(petID uint) ([]model.Tag, error)
	// CountPetTags counts non-deleted tags on the pet in any of the given
	// statuses. Used by the "one non-terminal tag per pet" checks.
	CountPetTags(petID uint, statuses ...string) (int64, error)
	TagsByOrder(orderID uint) ([]model.Tag, error)

	// ClaimQRCode atomically claims one available inventory record for the
	// tag: the availability flip only succeeds if the record was still
	// available at write time. Returns ErrNoQRCodeAvailable when the pool
	// is exhausted.
	ClaimQRCode(tagID uint) (*model.QRCode, error)
	CountAvailableQRCodes() (int64, error)

	GetOrderForUser(id, userID uint) (*model.Order, error)
	CreateOrder(order *model.Order) error
	SaveOrder(order *model.Order) error

	GetProduct(id uint) (*model.Product, error)
	// ReserveStock decrements product stock, failing with ErrOutOfStock when
	// fewer than qty units remain at write time.
	ReserveStock(productID uint, qty int) error
	RestoreStock(productID uint, qty int) error
}
