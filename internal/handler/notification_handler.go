package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"pettag-service/internal/middleware"
	"pettag-service/internal/model"
	"pettag-service/pkg/database"
	"pettag-service/pkg/logger"
)

// ListNotifications returns the caller's in-app notifications, newest first
func ListNotifications(c echo.Context) error {
	log := logger.FromContext(c)
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		return BadRequest(c, "missing user context")
	}

	page, perPage := pagination(c)
	db := database.GetDB()

	query := db.Model(&model.Notification{}).
		Where("user_id = ? AND channel = ?", userID, model.ChannelInApp)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		log.Error("Failed to count notifications", zap.Error(err))
		return Fail(c, err)
	}

	var notifications []model.Notification
	err := db.Where("user_id = ? AND channel = ?", userID, model.ChannelInApp).
		Order("id DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&notifications).Error
	if err != nil {
		log.Error("Failed to list notifications", zap.Error(err))
		return Fail(c, err)
	}

	return OKList(c, notifications, Meta{Page: page, PerPage: perPage, Total: total})
}

// MarkNotificationRead stamps a notification as read
func MarkNotificationRead(c echo.Context) error {
	log := logger.FromContext(c)
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		return BadRequest(c, "missing user context")
	}

	notificationID, err := parseID(c)
	if err != nil {
		return BadRequest(c, "invalid notification id")
	}

	now := time.Now()
	result := database.GetDB().Model(&model.Notification{}).
		Where("id = ? AND user_id = ? AND read_at IS NULL", notificationID, userID).
		Update("read_at", now)
	if result.Error != nil {
		log.Error("Failed to mark notification read",
			zap.Uint("notification_id", notificationID),
			zap.Error(result.Error))
		return Fail(c, result.Error)
	}
	if result.RowsAffected == 0 {
		return BadRequest(c, "notification not found or already read")
	}

	return OK(c, http.StatusOK, echo.Map{"read_at": now})
}
