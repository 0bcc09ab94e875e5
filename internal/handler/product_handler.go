package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"pettag-service/internal/model"
	"pettag-service/internal/service"
	"pettag-service/pkg/database"
	"pettag-service/pkg/logger"
)

// ListProducts returns the active merchandise catalog
func ListProducts(c echo.Context) error {
	log := logger.FromContext(c)
	page, perPage := pagination(c)
	db := database.GetDB()

	var total int64
	if err := db.Model(&model.Product{}).Where("is_active = ?", true).Count(&total).Error; err != nil {
		log.Error("Failed to count products", zap.Error(err))
		return Fail(c, err)
	}

	var products []model.Product
	err := db.Where("is_active = ?", true).
		Order("id").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&products).Error
	if err != nil {
		log.Error("Failed to list products", zap.Error(err))
		return Fail(c, err)
	}

	return OKList(c, products, Meta{Page: page, PerPage: perPage, Total: total})
}

// GetProduct returns a single catalog entry
func GetProduct(c echo.Context) error {
	productID, err := parseID(c)
	if err != nil {
		return BadRequest(c, "invalid product id")
	}

	var product model.Product
	if result := database.GetDB().First(&product, productID); result.Error != nil {
		return Fail(c, service.ErrProductNotFound)
	}

	return OK(c, http.StatusOK, product)
}
