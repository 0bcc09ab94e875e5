package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"pettag-service/internal/model"
	"pettag-service/internal/service"
	"pettag-service/pkg/database"
	"pettag-service/pkg/logger"
	"pettag-service/prometheus"
)

// FoundPetView is what a finder sees after scanning an active tag. Owner
// contact details are withheld; contact flows through the notify endpoint.
type FoundPetView struct {
	PetName  string `json:"pet_name"`
	Species  string `json:"species"`
	Breed    string `json:"breed"`
	Color    string `json:"color"`
	PhotoURL string `json:"photo_url"`
	Notes    string `json:"notes"`
	TagCode  string `json:"tag_code"`
}

// NotifyFinderRequest is the body a finder submits to reach the owner
type NotifyFinderRequest struct {
	Name      string   `json:"name"`
	Phone     string   `json:"phone"`
	Message   string   `json:"message"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// ScanTag resolves a scanned QR serial to the pet it protects. Public
// endpoint: this is what the printed QR URL points at.
func ScanTag(c echo.Context) error {
	log := logger.FromContext(c)
	code := c.Param("code")
	prometheus.ScanCounter.Inc()

	qr, tag, pet, err := resolveScan(code)
	if err != nil {
		log.Warn("Scan did not resolve", zap.String("code", code), zap.Error(err))
		return Fail(c, err)
	}

	// Record the scan before anything else so the audit trail survives
	// whatever happens downstream.
	scan := model.ScanLog{
		QRCode:    qr.TagCode,
		TagID:     &tag.ID,
		PetID:     &pet.ID,
		UserAgent: c.Request().UserAgent(),
	}
	if result := database.GetDB().Create(&scan); result.Error != nil {
		log.Error("Failed to record scan", zap.String("code", code), zap.Error(result.Error))
	}

	return OK(c, http.StatusOK, FoundPetView{
		PetName:  pet.Name,
		Species:  pet.Species,
		Breed:    pet.Breed,
		Color:    pet.Color,
		PhotoURL: pet.PhotoURL,
		Notes:    pet.Notes,
		TagCode:  qr.TagCode,
	})
}

// NotifyFinder records the finder's contact details and pushes a pet_found
// notification to the owner. Notification failure never fails the request;
// the scan log row is the source of truth.
func NotifyFinder(c echo.Context) error {
	log := logger.FromContext(c)
	code := c.Param("code")

	var req NotifyFinderRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid finder notification", zap.Error(err))
		return BadRequest(c, "invalid request data")
	}

	qr, tag, pet, err := resolveScan(code)
	if err != nil {
		log.Warn("Finder notification did not resolve", zap.String("code", code), zap.Error(err))
		return Fail(c, err)
	}

	scan := model.ScanLog{
		QRCode:        qr.TagCode,
		TagID:         &tag.ID,
		PetID:         &pet.ID,
		FinderName:    req.Name,
		FinderPhone:   req.Phone,
		FinderMessage: req.Message,
		Latitude:      req.Latitude,
		Longitude:     req.Longitude,
		UserAgent:     c.Request().UserAgent(),
	}
	if result := database.GetDB().Create(&scan); result.Error != nil {
		log.Error("Failed to record finder scan", zap.String("code", code), zap.Error(result.Error))
	}

	notifier.Dispatch(c.Request().Context(), pet.OwnerID, service.PetFoundPayload{
		PetID:         pet.ID,
		PetName:       pet.Name,
		FinderName:    req.Name,
		FinderPhone:   req.Phone,
		FinderMessage: req.Message,
		Latitude:      req.Latitude,
		Longitude:     req.Longitude,
	})

	log.Info("Owner notified of found pet",
		zap.Uint("pet_id", pet.ID),
		zap.String("code", code))
	return OK(c, http.StatusOK, echo.Map{"message": "the owner has been notified"})
}

// resolveScan maps a physical serial to its claimed QR record, active tag
// and linked pet
func resolveScan(code string) (*model.QRCode, *model.Tag, *model.Pet, error) {
	db := database.GetDB()

	var qr model.QRCode
	if result := db.Where("tag_code = ?", code).First(&qr); result.Error != nil {
		return nil, nil, nil, service.ErrTagNotFound
	}
	if qr.AssignedTagID == nil {
		return nil, nil, nil, service.ErrTagNotFound
	}

	var tag model.Tag
	if result := db.First(&tag, *qr.AssignedTagID); result.Error != nil {
		return nil, nil, nil, service.ErrTagNotFound
	}
	if !tag.IsActive || tag.PetID == nil {
		return nil, nil, nil, service.ErrTagNotFound
	}

	var pet model.Pet
	if result := db.First(&pet, *tag.PetID); result.Error != nil {
		return nil, nil, nil, service.ErrPetNotFound
	}

	return &qr, &tag, &pet, nil
}
