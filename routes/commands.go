package routes

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/warden-io/warden-panel/middleware"
	"github.com/warden-io/warden-panel/mockapi"
)

// Commands a visitor may run before signing in.
var anonymousCommands = map[string]bool{
	"sign_up":          true,
	"set_new_password": true,
}

func RegisterCommandRoutes(group *gin.RouterGroup, processor mockapi.ProcessorInterface, secret []byte) {
	auth := middleware.AuthMiddleware(secret)
	group.POST("/commands/:command", func(c *gin.Context) {
		if !anonymousCommands[c.Param("command")] {
			auth(c)
			if c.IsAborted() {
				return
			}
		}
		ExecuteCommand(c, processor)
	})
}

// ExecuteCommand accepts the command and answers 202 with the operation
// reference in X-Operation and, when known, the resource in X-Resource.
func ExecuteCommand(c *gin.Context, processor mockapi.ProcessorInterface) {
	var payload map[string]interface{}
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&payload); err != nil {
			c.JSON(http.StatusBadRequest, errorsBody("Request body must be a JSON object."))
			return
		}
	}

	record, err := processor.Accept(c.Request.Context(), c.Param("command"), c.GetString(middleware.UserIDKey), payload)
	if err != nil {
		var validation *mockapi.ValidationError
		if errors.As(err, &validation) {
			c.JSON(http.StatusBadRequest, errorsBody(validation.Message))
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Header("X-Operation", record.Endpoint())
	var resource string
	if len(record.Resource) > 0 && json.Unmarshal(record.Resource, &resource) == nil && resource != "" {
		c.Header("X-Resource", resource)
	}
	c.Status(http.StatusAccepted)
}
