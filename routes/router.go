package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/warden-io/warden-panel/database"
	"github.com/warden-io/warden-panel/middleware"
	"github.com/warden-io/warden-panel/mockapi"
)

// Dependencies groups what the mock API router needs.
type Dependencies struct {
	DB             *database.Database
	Auth           mockapi.AuthServiceInterface
	Processor      mockapi.ProcessorInterface
	Operations     mockapi.OperationStoreInterface
	Hub            *mockapi.Hub
	JWTSecret      []byte
	AllowedOrigins string
}

func NewRouter(deps Dependencies) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(), middleware.CORSMiddleware(deps.AllowedOrigins))

	api := router.Group("/api/v1")
	RegisterAuthRoutes(api, deps.Auth)
	RegisterCommandRoutes(api, deps.Processor, deps.JWTSecret)
	RegisterOperationRoutes(api, deps.Operations)
	RegisterWebSocketRoutes(api, deps.Hub, deps.JWTSecret)
	SetupDebugRoutes(router, deps.DB, deps.Hub)

	return router
}
