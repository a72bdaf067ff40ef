package routes

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/warden-io/warden-panel/mockapi"
)

func RegisterOperationRoutes(group *gin.RouterGroup, store mockapi.OperationStoreInterface) {
	group.GET("/operations/:id", func(c *gin.Context) { GetOperation(c, store) })
}

func GetOperation(c *gin.Context, store mockapi.OperationStoreInterface) {
	record, err := store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, mockapi.ErrOperationNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Operation not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, record.ToState())
}
