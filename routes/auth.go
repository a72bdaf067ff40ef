package routes

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/warden-io/warden-panel/mockapi"
)

type tokenRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type tokenResponse struct {
	AccessToken string `json:"accessToken"`
}

func RegisterAuthRoutes(group *gin.RouterGroup, authService mockapi.AuthServiceInterface) {
	group.POST("/tokens", func(c *gin.Context) { CreateToken(c, authService) })
}

func CreateToken(c *gin.Context, authService mockapi.AuthServiceInterface) {
	var request tokenRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, errorsBody("Username and password are required."))
		return
	}

	accessToken, err := authService.Login(request.Username, request.Password)
	if err != nil {
		if errors.Is(err, mockapi.ErrInvalidCredentials) {
			c.JSON(http.StatusBadRequest, errorsBody("Invalid username or password."))
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, tokenResponse{AccessToken: accessToken})
}

// errorsBody renders messages the way the panel API reports rejections.
func errorsBody(messages ...string) gin.H {
	entries := make([]gin.H, 0, len(messages))
	for _, message := range messages {
		entries = append(entries, gin.H{"message": message})
	}
	return gin.H{"errors": entries}
}
