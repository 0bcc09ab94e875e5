package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"pettag-service/internal/middleware"
	"pettag-service/internal/model"
	"pettag-service/pkg/database"
	"pettag-service/pkg/logger"
)

// UpdateProfileRequest carries the contact details notifications depend on
type UpdateProfileRequest struct {
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	SMSOptIn   *bool  `json:"sms_opt_in"`
	EmailOptIn *bool  `json:"email_opt_in"`
}

// GetProfile returns the caller's profile
func GetProfile(c echo.Context) error {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		return BadRequest(c, "missing user context")
	}

	var user model.User
	if result := database.GetDB().First(&user, userID); result.Error != nil {
		return Fail(c, result.Error)
	}

	return OK(c, http.StatusOK, user)
}

// UpdateProfile updates the caller's contact details and notification opt-ins
func UpdateProfile(c echo.Context) error {
	log := logger.FromContext(c)
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		return BadRequest(c, "missing user context")
	}

	var req UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid profile request", zap.Error(err))
		return BadRequest(c, "invalid request data")
	}

	var user model.User
	if result := database.GetDB().First(&user, userID); result.Error != nil {
		return Fail(c, result.Error)
	}

	if req.Email != "" {
		user.Email = req.Email
	}
	if req.Phone != "" {
		user.Phone = req.Phone
	}
	if req.FirstName != "" {
		user.FirstName = req.FirstName
	}
	if req.LastName != "" {
		user.LastName = req.LastName
	}
	if req.SMSOptIn != nil {
		user.SMSOptIn = *req.SMSOptIn
	}
	if req.EmailOptIn != nil {
		user.EmailOptIn = *req.EmailOptIn
	}

	if result := database.GetDB().Save(&user); result.Error != nil {
		log.Error("Failed to update profile", zap.Uint("user_id", userID), zap.Error(result.Error))
		return Fail(c, result.Error)
	}

	log.Info("Profile updated", zap.Uint("user_id", userID))
	return OK(c, http.StatusOK, user)
}
