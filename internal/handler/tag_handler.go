package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	qrcode "github.com/skip2/go-qrcode"
	"go.uber.org/zap"

	"pettag-service/internal/middleware"
	"pettag-service/internal/model"
	"pettag-service/internal/service"
	"pettag-service/pkg/database"
	"pettag-service/pkg/logger"
	"pettag-service/prometheus"
)

// PurchaseTagRequest is the body for POST /api/tags/purchase
type PurchaseTagRequest struct {
	PetID           uint                  `json:"pet_id" validate:"required"`
	Quantity        int                   `json:"quantity"`
	ShippingAddress model.ShippingAddress `json:"shipping_address"`
}

// AssignTagRequest is the body for POST /api/tags/:id/assign
type AssignTagRequest struct {
	PetID uint `json:"pet_id" validate:"required"`
}

// TagView is a tag with the denormalized pet/order info the list endpoint returns
type TagView struct {
	model.Tag
	PetName     string `json:"pet_name,omitempty"`
	OrderStatus string `json:"order_status,omitempty"`
	QRImageURL  string `json:"qr_image_url,omitempty"`
}

// PurchaseTag handles creating a pending order and pending tags for a pet
func PurchaseTag(c echo.Context) error {
	log := logger.FromContext(c)
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		return BadRequest(c, "missing user context")
	}

	var req PurchaseTagRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid purchase request", zap.Error(err))
		return BadRequest(c, "invalid request data")
	}
	if req.PetID == 0 {
		return BadRequest(c, "pet_id is required")
	}

	defer prometheus.TrackDBOperation("purchase_tag")(time.Now())
	result, err := engine.PurchaseTag(c.Request().Context(), userID, req.PetID, req.Quantity, req.ShippingAddress)
	if err != nil {
		log.Warn("Tag purchase rejected",
			zap.Uint("user_id", userID),
			zap.Uint("pet_id", req.PetID),
			zap.Error(err))
		prometheus.RecordTagOperation("purchase", "error")
		return Fail(c, err)
	}

	prometheus.RecordTagOperation("purchase", "success")
	return OK(c, http.StatusCreated, result)
}

// ActivateTag handles POST /api/tags/:id/activate
func ActivateTag(c echo.Context) error {
	log := logger.FromContext(c)
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		return BadRequest(c, "missing user context")
	}

	tagID, err := parseID(c)
	if err != nil {
		return BadRequest(c, "invalid tag id")
	}

	result, err := engine.ActivateTag(c.Request().Context(), userID, tagID)
	if err != nil {
		log.Warn("Tag activation rejected",
			zap.Uint("user_id", userID),
			zap.Uint("tag_id", tagID),
			zap.Error(err))
		prometheus.RecordTagOperation("activate", "error")
		return Fail(c, err)
	}

	prometheus.RecordTagOperation("activate", "success")
	return OK(c, http.StatusOK, result)
}

// DeactivateTag handles POST /api/tags/:id/deactivate
func DeactivateTag(c echo.Context) error {
	log := logger.FromContext(c)
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		return BadRequest(c, "missing user context")
	}

	tagID, err := parseID(c)
	if err != nil {
		return BadRequest(c, "invalid tag id")
	}

	tag, err := engine.DeactivateTag(c.Request().Context(), userID, tagID)
	if err != nil {
		log.Warn("Tag deactivation rejected",
			zap.Uint("user_id", userID),
			zap.Uint("tag_id", tagID),
			zap.Error(err))
		prometheus.RecordTagOperation("deactivate", "error")
		return Fail(c, err)
	}

	prometheus.RecordTagOperation("deactivate", "success")
	return OK(c, http.StatusOK, tag)
}

// AssignTag handles POST /api/tags/:id/assign
func AssignTag(c echo.Context) error {
	log := logger.FromContext(c)
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		return BadRequest(c, "missing user context")
	}

	tagID, err := parseID(c)
	if err != nil {
		return BadRequest(c, "invalid tag id")
	}

	var req AssignTagRequest
	if err := c.Bind(&req); err != nil || req.PetID == 0 {
		return BadRequest(c, "pet_id is required")
	}

	tag, err := engine.AssignTag(c.Request().Context(), userID, tagID, req.PetID)
	if err != nil {
		log.Warn("Tag assignment rejected",
			zap.Uint("user_id", userID),
			zap.Uint("tag_id", tagID),
			zap.Uint("pet_id", req.PetID),
			zap.Error(err))
		prometheus.RecordTagOperation("assign", "error")
		return Fail(c, err)
	}

	prometheus.RecordTagOperation("assign", "success")
	return OK(c, http.StatusOK, tag)
}

// UnassignTag handles POST /api/tags/:id/unassign
func UnassignTag(c echo.Context) error {
	log := logger.FromContext(c)
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		return BadRequest(c, "missing user context")
	}

	tagID, err := parseID(c)
	if err != nil {
		return BadRequest(c, "invalid tag id")
	}

	tag, err := engine.UnassignTag(c.Request().Context(), userID, tagID)
	if err != nil {
		log.Warn("Tag unassignment rejected",
			zap.Uint("user_id", userID),
			zap.Uint("tag_id", tagID),
			zap.Error(err))
		prometheus.RecordTagOperation("unassign", "error")
		return Fail(c, err)
	}

	prometheus.RecordTagOperation("unassign", "success")
	return OK(c, http.StatusOK, tag)
}

// ListTags returns the caller's tags with denormalized pet and order info
func ListTags(c echo.Context) error {
	log := logger.FromContext(c)
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		return BadRequest(c, "missing user context")
	}

	page, perPage := pagination(c)
	db := database.GetDB()

	var total int64
	if err := db.Model(&model.Tag{}).Where("owner_id = ?", userID).Count(&total).Error; err != nil {
		log.Error("Failed to count tags", zap.Error(err))
		return Fail(c, err)
	}

	var tags []model.Tag
	err := db.Where("owner_id = ?", userID).
		Order("id DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&tags).Error
	if err != nil {
		log.Error("Failed to list tags", zap.Error(err))
		return Fail(c, err)
	}

	views := make([]TagView, 0, len(tags))
	for _, tag := range tags {
		view := TagView{Tag: tag}
		if tag.QRCodeID != nil {
			view.QRImageURL = "/api/tags/" + strconv.FormatUint(uint64(tag.ID), 10) + "/qr"
		}
		if tag.PetID != nil {
			var pet model.Pet
			if db.Select("name").First(&pet, *tag.PetID).Error == nil {
				view.PetName = pet.Name
			}
		}
		if tag.OrderID != nil {
			var order model.Order
			if db.Select("status").First(&order, *tag.OrderID).Error == nil {
				view.OrderStatus = order.Status
			}
		}
		views = append(views, view)
	}

	log.Info("Tags listed", zap.Uint("user_id", userID), zap.Int("count", len(views)))
	return OKList(c, views, Meta{Page: page, PerPage: perPage, Total: total})
}

// RenderTagQR renders the stored QR payload of the caller's tag as a PNG
func RenderTagQR(c echo.Context) error {
	log := logger.FromContext(c)
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		return BadRequest(c, "missing user context")
	}

	tagID, err := parseID(c)
	if err != nil {
		return BadRequest(c, "invalid tag id")
	}

	var tag model.Tag
	result := database.GetDB().Where("id = ? AND owner_id = ?", tagID, userID).First(&tag)
	if result.Error != nil {
		return Fail(c, service.ErrTagNotFound)
	}
	if tag.QRCode == "" {
		log.Warn("Tag has no QR assignment yet", zap.Uint("tag_id", tagID))
		return Fail(c, service.ErrTagNotActivated)
	}

	png, err := qrcode.Encode(tag.QRCode, qrcode.Medium, 256)
	if err != nil {
		log.Error("Failed to render QR image", zap.Uint("tag_id", tagID), zap.Error(err))
		return Fail(c, err)
	}

	return c.Blob(http.StatusOK, "image/png", png)
}

func parseID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
