package middleware

import (
	"errors"
	"strings"

	"github.com/Govind-619/FolioForge/models"
	"github.com/Govind-619/FolioForge/store"
	"github.com/Govind-619/FolioForge/utils"
	"github.com/gin-gonic/gin"
)

// Context keys set by AuthMiddleware
const (
	UserKey   = "user"
	UserIDKey = "user_id"
)

// AuthMiddleware validates the bearer token and loads the user it names.
func AuthMiddleware(jwtSecret string, st store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.LogDebug("Missing Authorization header on %s", c.Request.URL.Path)
			utils.Unauthorized(c, "Please login for access")
			c.Abort()
			return
		}

		tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		claims, err := utils.ValidateToken(jwtSecret, tokenString)
		if err != nil {
			utils.LogDebug("Invalid token: %v", err)
			utils.Unauthorized(c, utils.ErrInvalidToken)
			c.Abort()
			return
		}

		user, err := st.GetUserByID(c.Request.Context(), claims.UserID)
		if errors.Is(err, store.ErrNotFound) {
			utils.LogWarn("Token for unknown user %s", claims.UserID)
			utils.Unauthorized(c, "User not found")
			c.Abort()
			return
		}
		if err != nil {
			utils.RespondAppError(c, utils.InternalError("Failed to load user", err))
			c.Abort()
			return
		}

		c.Set(UserKey, user)
		c.Set(UserIDKey, user.ID)
		c.Next()
	}
}

// AdminMiddleware must run after AuthMiddleware.
func AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			utils.Unauthorized(c, "Please login for access")
			c.Abort()
			return
		}
		if !user.IsAdmin {
			utils.LogWarn("Non-admin user attempted admin access: %s", user.ID)
			utils.Forbidden(c, utils.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentUser returns the user loaded by AuthMiddleware.
func CurrentUser(c *gin.Context) (models.User, bool) {
	v, exists := c.Get(UserKey)
	if !exists {
		return models.User{}, false
	}
	user, ok := v.(models.User)
	return user, ok
}
