package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"pettag-service/internal/model"
	"pettag-service/pkg/database"
	"pettag-service/pkg/jwtutil"
	"pettag-service/pkg/logger"
	"pettag-service/prometheus"
)

// AuthMiddleware validates the bearer token issued by the identity provider
// and resolves the local user record for the external subject
func AuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		log := logger.FromContext(c)

		// Get the Authorization header
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			log.Warn("Missing Authorization header")
			prometheus.AuthErrorsCounter.Inc()
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing authorization token"})
		}

		// Check if it's a Bearer token
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			log.Warn("Invalid Authorization header format")
			prometheus.AuthErrorsCounter.Inc()
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid authorization format, expected Bearer token"})
		}

		// Validate the token
		claims, err := jwtutil.ValidateToken(parts[1])
		if err != nil {
			log.Error("Invalid JWT token", zap.Error(err))
			prometheus.AuthErrorsCounter.Inc()
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
		}

		// Mirror the external subject into the local users table on first
		// sight so lifecycle operations have a stable numeric owner id
		var user model.User
		result := database.GetDB().Where("external_id = ?", claims.ExternalID).
			Attrs(model.User{Email: claims.Email}).
			FirstOrCreate(&user, model.User{ExternalID: claims.ExternalID})
		if result.Error != nil {
			log.Error("Failed to resolve user for subject",
				zap.String("external_id", claims.ExternalID),
				zap.Error(result.Error))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to resolve user"})
		}

		// Store user info in context for later use
		c.Set("user_id", user.ID)
		c.Set("external_id", claims.ExternalID)
		c.Set("email", claims.Email)

		// Token is valid, proceed with the request
		return next(c)
	}
}

// GetUserIDFromContext retrieves the resolved local user ID from the context.
// Returns 0, false if the request was not authenticated.
func GetUserIDFromContext(c echo.Context) (uint, bool) {
	userID, ok := c.Get("user_id").(uint)
	return userID, ok
}
