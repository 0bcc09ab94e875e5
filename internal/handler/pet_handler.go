package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"pettag-service/internal/middleware"
	"pettag-service/internal/model"
	"pettag-service/internal/service"
	"pettag-service/pkg/database"
	"pettag-service/pkg/logger"
)

// PetRequest defines the structure for pet creation/update requests
type PetRequest struct {
	Name      string     `json:"name" validate:"required"`
	Species   string     `json:"species"`
	Breed     string     `json:"breed"`
	Color     string     `json:"color"`
	BirthDate *time.Time `json:"birth_date"`
	PhotoURL  string     `json:"photo_url"`
	Notes     string     `json:"notes"`
}

// CreatePet handles creating a new pet profile for the caller
func CreatePet(c echo.Context) error {
	log := logger.FromContext(c)
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		return BadRequest(c, "missing user context")
	}

	var req PetRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid pet request", zap.Error(err))
		return BadRequest(c, "invalid request data")
	}
	if req.Name == "" {
		return BadRequest(c, "name is required")
	}

	pet := model.Pet{
		OwnerID:   userID,
		Name:      req.Name,
		Species:   req.Species,
		Breed:     req.Breed,
		Color:     req.Color,
		BirthDate: req.BirthDate,
		PhotoURL:  req.PhotoURL,
		Notes:     req.Notes,
		Status:    model.PetStatusInactive,
	}

	if result := database.GetDB().Create(&pet); result.Error != nil {
		log.Error("Failed to create pet", zap.Error(result.Error))
		return Fail(c, result.Error)
	}

	log.Info("Pet created",
		zap.Uint("user_id", userID),
		zap.Uint("pet_id", pet.ID),
		zap.String("name", pet.Name))
	return OK(c, http.StatusCreated, pet)
}

// ListPets returns the caller's pets
func ListPets(c echo.Context) error {
	log := logger.FromContext(c)
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		return BadRequest(c, "missing user context")
	}

	page, perPage := pagination(c)
	db := database.GetDB()

	var total int64
	if err := db.Model(&model.Pet{}).Where("owner_id = ?", userID).Count(&total).Error; err != nil {
		log.Error("Failed to count pets", zap.Error(err))
		return Fail(c, err)
	}

	var pets []model.Pet
	err := db.Where("owner_id = ?", userID).
		Order("id DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&pets).Error
	if err != nil {
		log.Error("Failed to list pets", zap.Error(err))
		return Fail(c, err)
	}

	return OKList(c, pets, Meta{Page: page, PerPage: perPage, Total: total})
}

// GetPet returns a single pet owned by the caller
func GetPet(c echo.Context) error {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		return BadRequest(c, "missing user context")
	}

	petID, err := parseID(c)
	if err != nil {
		return BadRequest(c, "invalid pet id")
	}

	var pet model.Pet
	result := database.GetDB().Where("id = ? AND owner_id = ?", petID, userID).First(&pet)
	if result.Error != nil {
		return Fail(c, service.ErrPetNotFound)
	}

	return OK(c, http.StatusOK, pet)
}

// UpdatePet handles profile edits. Tag linkage and status are owned by the
// lifecycle engine and cannot be edited here.
func UpdatePet(c echo.Context) error {
	log := logger.FromContext(c)
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		return BadRequest(c, "missing user context")
	}

	petID, err := parseID(c)
	if err != nil {
		return BadRequest(c, "invalid pet id")
	}

	var req PetRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid pet request", zap.Error(err))
		return BadRequest(c, "invalid request data")
	}

	var pet model.Pet
	result := database.GetDB().Where("id = ? AND owner_id = ?", petID, userID).First(&pet)
	if result.Error != nil {
		return Fail(c, service.ErrPetNotFound)
	}

	pet.Name = req.Name
	pet.Species = req.Species
	pet.Breed = req.Breed
	pet.Color = req.Color
	pet.BirthDate = req.BirthDate
	pet.PhotoURL = req.PhotoURL
	pet.Notes = req.Notes

	if result := database.GetDB().Save(&pet); result.Error != nil {
		log.Error("Failed to update pet", zap.Uint("pet_id", petID), zap.Error(result.Error))
		return Fail(c, result.Error)
	}

	log.Info("Pet updated", zap.Uint("pet_id", petID))
	return OK(c, http.StatusOK, pet)
}

// DeletePet soft-deletes a pet profile. Pets are never hard-deleted, and any
// tag still linked to the pet is deactivated and unassigned in the same
// transaction so it stays recoverable.
func DeletePet(c echo.Context) error {
	log := logger.FromContext(c)
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		return BadRequest(c, "missing user context")
	}

	petID, err := parseID(c)
	if err != nil {
		return BadRequest(c, "invalid pet id")
	}

	if err := engine.DeletePet(c.Request().Context(), userID, petID); err != nil {
		log.Error("Failed to delete pet", zap.Uint("pet_id", petID), zap.Error(err))
		return Fail(c, err)
	}

	log.Info("Pet deleted", zap.Uint("pet_id", petID))
	return OK(c, http.StatusOK, echo.Map{"message": "pet deleted"})
}
