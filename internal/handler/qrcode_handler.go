package handler

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"pettag-service/internal/model"
	"pettag-service/pkg/database"
	"pettag-service/pkg/logger"
	"pettag-service/prometheus"
)

// ImportQRCodesRequest seeds the inventory pool from a printed batch. Either
// explicit serials or a count of generated serials can be supplied.
type ImportQRCodesRequest struct {
	Batch    string   `json:"batch" validate:"required"`
	TagCodes []string `json:"tag_codes"`
	Count    int      `json:"count"`
}

// ImportQRCodes bulk-inserts inventory records for a printed sticker batch
func ImportQRCodes(c echo.Context) error {
	log := logger.FromContext(c)

	var req ImportQRCodesRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid import request", zap.Error(err))
		return BadRequest(c, "invalid request data")
	}
	if req.Batch == "" {
		return BadRequest(c, "batch is required")
	}

	codes := req.TagCodes
	for i := len(codes); i < req.Count; i++ {
		codes = append(codes, strings.ToUpper(uuid.New().String()[:8]))
	}
	if len(codes) == 0 {
		return BadRequest(c, "tag_codes or count is required")
	}

	records := make([]model.QRCode, 0, len(codes))
	for _, code := range codes {
		records = append(records, model.QRCode{
			TagCode:      code,
			Payload:      fmt.Sprintf("%s/%s", appCfg.Tag.QRBaseURL, code),
			Availability: model.QRCodeAvailable,
			Batch:        req.Batch,
		})
	}

	if result := database.GetDB().Create(&records); result.Error != nil {
		log.Error("Failed to import QR batch",
			zap.String("batch", req.Batch),
			zap.Int("count", len(records)),
			zap.Error(result.Error))
		return Fail(c, result.Error)
	}

	refreshPoolGauge()

	log.Info("QR batch imported",
		zap.String("batch", req.Batch),
		zap.Int("count", len(records)))
	return OK(c, http.StatusCreated, echo.Map{"batch": req.Batch, "imported": len(records)})
}

// QRCodeStats reports pool availability so inventory exhaustion is visible
// before activations start failing with NO_QRCODE_AVAILABLE
func QRCodeStats(c echo.Context) error {
	log := logger.FromContext(c)
	db := database.GetDB()

	var available, assigned int64
	if err := db.Model(&model.QRCode{}).Where("availability = ?", model.QRCodeAvailable).Count(&available).Error; err != nil {
		log.Error("Failed to count available QR codes", zap.Error(err))
		return Fail(c, err)
	}
	if err := db.Model(&model.QRCode{}).Where("availability = ?", model.QRCodeUnavailable).Count(&assigned).Error; err != nil {
		log.Error("Failed to count assigned QR codes", zap.Error(err))
		return Fail(c, err)
	}

	prometheus.QRPoolAvailableGauge.Set(float64(available))

	return OK(c, http.StatusOK, echo.Map{
		"available": available,
		"assigned":  assigned,
		"total":     available + assigned,
	})
}

func refreshPoolGauge() {
	var available int64
	if err := database.GetDB().Model(&model.QRCode{}).
		Where("availability = ?", model.QRCodeAvailable).
		Count(&available).Error; err == nil {
		prometheus.QRPoolAvailableGauge.Set(float64(available))
	}
}
