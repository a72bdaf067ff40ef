package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/warden-io/warden-panel/middleware"
)

type WebSocketHandler interface {
	ServeWS(w http.ResponseWriter, r *http.Request, userID string)
}

// RegisterWebSocketRoutes serves the realtime channel. Browsers pass the
// token as a query parameter.
func RegisterWebSocketRoutes(group *gin.RouterGroup, hub WebSocketHandler, secret []byte) {
	wsGroup := group.Group("/ws")
	wsGroup.Use(middleware.AuthMiddleware(secret))
	{
		wsGroup.GET("", func(c *gin.Context) {
			hub.ServeWS(c.Writer, c.Request, c.GetString(middleware.UserIDKey))
		})
	}
}
