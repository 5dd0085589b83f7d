package analytics

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the aggregate usage endpoint.
func RegisterRoutes(group *gin.RouterGroup, service *Service) {
	group.GET("/analytics", func(c *gin.Context) {
		c.JSON(http.StatusOK, service.Current())
	})
}
