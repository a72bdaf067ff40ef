package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/warden-io/warden-panel/utils/token"
)

// Context keys set by AuthMiddleware.
const (
	UserIDKey   = "userID"
	UsernameKey = "username"
)

// AuthMiddleware accepts a Bearer header or a token query parameter, the
// latter for websocket upgrades.
func AuthMiddleware(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := token.ExtractAndValidate(c, secret)
		if err != nil {
			message := "Invalid or expired token"
			if errors.Is(err, token.ErrAuthHeaderMissing) || errors.Is(err, token.ErrInvalidAuthFormat) {
				message = err.Error()
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": message})
			return
		}

		c.Set(UserIDKey, claims.UserID.String())
		c.Set(UsernameKey, claims.Username)
		c.Next()
	}
}
