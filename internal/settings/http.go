package settings

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/perfsage/perfsage/internal/identity"
)

// RegisterRoutes mounts notification-preference endpoints on the group.
func RegisterRoutes(group *gin.RouterGroup, service *Service, logger *slog.Logger) {
	handler := &httpHandler{service: service, logger: logger}
	group.GET("/settings", handler.get)
	group.PUT("/settings", handler.save)
}

type httpHandler struct {
	service *Service
	logger  *slog.Logger
}

type saveRequest struct {
	SlackWebhook      string `json:"slack_webhook"`
	SendNotifications bool   `json:"send_notifications"`
}

func (h *httpHandler) save(c *gin.Context) {
	username, ok := identity.CurrentUsername(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "please sign in"})
		return
	}

	var req saveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.service.Save(c.Request.Context(), username, req.SlackWebhook, req.SendNotifications); err != nil {
		if errors.Is(err, ErrInvalidWebhook) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "webhook must be a valid https url"})
			return
		}
		h.logger.Error("save settings failed", "username", username, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not save settings"})
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *httpHandler) get(c *gin.Context) {
	username, ok := identity.CurrentUsername(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "please sign in"})
		return
	}

	rec, err := h.service.Get(c.Request.Context(), username)
	if err != nil {
		h.logger.Error("get settings failed", "username", username, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load settings"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"username":           rec.Username,
		"slack_webhook":      rec.SlackWebhook,
		"send_notifications": rec.SendNotifications,
	})
}
