package middleware

import (
	"strings"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"
)

// CORSMiddleware allows the panel origins and exposes the deferred
// operation headers to browsers.
func CORSMiddleware(appOrigins string) gin.HandlerFunc {
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = strings.Split(appOrigins, ",")
	corsConfig.AllowWildcard = true
	corsConfig.AllowWebSockets = true
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders,
		"Accept",
		"Authorization",
		"X-Requested-With",
	)
	corsConfig.ExposeHeaders = []string{"X-Operation", "X-Resource"}

	return cors.New(corsConfig)
}
