package service

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"pettag-service/internal/model"
	"pettag-service/prometheus"
)

// GormStore implements Store on top of a GORM Postgres connection.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Transact(ctx context.Context, fn func(Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}

func (s *GormStore) GetUser(id uint) (*model.User, error) {
	var user model.User
	if err := s.db.First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *GormStore) GetPetForOwner(id, ownerID uint, lock bool) (*model.Pet, error) {
	query := s.db.Where("id = ? AND owner_id = ?", id, ownerID)
	if lock {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var pet model.Pet
	if err := query.First(&pet).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPetNotFound
		}
		return nil, err
	}
	return &pet, nil
}

func (s *GormStore) GetPet(id uint) (*model.Pet, error) {
	var pet model.Pet
	if err := s.db.First(&pet, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPetNotFound
		}
		return nil, err
	}
	return &pet, nil
}

func (s *GormStore) SavePet(pet *model.Pet) error {
	return s.db.Save(pet).Error
}

func (s *GormStore) DeletePet(pet *model.Pet) error {
	return s.db.Delete(pet).Error
}

func (s *GormStore) GetTagForOwner(id, ownerID uint) (*model.Tag, error) {
	var tag model.Tag
	if err := s.db.Where("id = ? AND owner_id = ?", id, ownerID).First(&tag).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTagNotFound
		}
		return nil, err
	}
	return &tag, nil
}

func (s *GormStore) CreateTag(tag *model.Tag) error {
	return s.db.Create(tag).Error
}

func (s *GormStore) SaveTag(tag *model.Tag) error {
	return s.db.Save(tag).Error
}

func (s *GormStore) CountPetTags(petID uint, statuses ...string) (int64, error) {
	var count int64
	err := s.db.Model(&model.Tag{}).
		Where("pet_id = ? AND status IN ?", petID, statuses).
		Count(&count).Error
	return count, err
}

func (s *GormStore) TagsByOrder(orderID uint) ([]model.Tag, error) {
	var tags []model.Tag
	err := s.db.Where("order_id = ?", orderID).Find(&tags).Error
	return tags, err
}

func (s *GormStore) TagsByPet(petID uint) ([]model.Tag, error) {
	var tags []model.Tag
	err := s.db.Where("pet_id = ?", petID).Find(&tags).Error
	return tags, err
}

// ClaimQRCode claims the oldest available inventory record with a conditional
// update: the availability flip only lands if no concurrent activation won
// the same record first, in which case the next candidate is tried.
func (s *GormStore) ClaimQRCode(tagID uint) (*model.QRCode, error) {
	for {
		var qr model.QRCode
		err := s.db.Where("availability = ?", model.QRCodeAvailable).
			Order("id").
			First(&qr).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			prometheus.RecordQRPoolExhausted()
			return nil, ErrNoQRCodeAvailable
		}
		if err != nil {
			return nil, err
		}

		result := s.db.Model(&model.QRCode{}).
			Where("id = ? AND availability = ?", qr.ID, model.QRCodeAvailable).
			Updates(map[string]interface{}{
				"availability":    model.QRCodeUnavailable,
				"assigned_tag_id": tagID,
			})
		if result.Error != nil {
			return nil, result.Error
		}
		if result.RowsAffected == 1 {
			qr.Availability = model.QRCodeUnavailable
			qr.AssignedTagID = &tagID
			return &qr, nil
		}
		// Lost the record to a concurrent claim; try the next one.
		prometheus.RecordQRClaimConflict()
	}
}

func (s *GormStore) CountAvailableQRCodes() (int64, error) {
	var count int64
	err := s.db.Model(&model.QRCode{}).
		Where("availability = ?", model.QRCodeAvailable).
		Count(&count).Error
	return count, err
}

func (s *GormStore) GetOrderForUser(id, userID uint) (*model.Order, error) {
	var order model.Order
	err := s.db.Preload("Items").
		Where("id = ? AND user_id = ?", id, userID).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

func (s *GormStore) CreateOrder(order *model.Order) error {
	return s.db.Create(order).Error
}

func (s *GormStore) SaveOrder(order *model.Order) error {
	return s.db.Save(order).Error
}

func (s *GormStore) GetProduct(id uint) (*model.Product, error) {
	var product model.Product
	if err := s.db.First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return &product, nil
}

func (s *GormStore) ReserveStock(productID uint, qty int) error {
	result := s.db.Model(&model.Product{}).
		Where("id = ? AND stock >= ?", productID, qty).
		Update("stock", gorm.Expr("stock - ?", qty))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrOutOfStock
	}
	return nil
}

func (s *GormStore) RestoreStock(productID uint, qty int) error {
	return s.db.Model(&model.Product{}).
		Where("id = ?", productID).
		Update("stock", gorm.Expr("stock + ?", qty)).Error
}
