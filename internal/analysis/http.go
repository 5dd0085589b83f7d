package analysis

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/perfsage/perfsage/internal/identity"
	"github.com/perfsage/perfsage/internal/store"
)

// RegisterRoutes mounts upload and usage endpoints on the group.
func RegisterRoutes(group *gin.RouterGroup, service *Service, quotas quotaTracker, logger *slog.Logger) {
	handler := &httpHandler{service: service, quotas: quotas, logger: logger}
	group.POST("/upload", handler.upload)
	group.GET("/usage", handler.usage)
}

type httpHandler struct {
	service *Service
	quotas  quotaTracker
	logger  *slog.Logger
}

func (h *httpHandler) upload(c *gin.Context) {
	username, ok := identity.CurrentUsername(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "please sign in"})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "please upload a valid file"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read file data"})
		return
	}
	defer file.Close()

	contents, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read file data"})
		return
	}

	result, err := h.service.Analyze(c.Request.Context(), username, fileHeader.Filename, contents)
	if err != nil {
		h.respondError(c, username, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *httpHandler) usage(c *gin.Context) {
	username, ok := identity.CurrentUsername(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "please sign in"})
		return
	}

	remaining, err := h.quotas.Remaining(c.Request.Context(), username)
	if err != nil {
		h.respondError(c, username, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"username": username, "remaining_uploads": remaining})
}

// respondError maps failures to sanitized responses. Raw errors are
// logged, never rendered.
func (h *httpHandler) respondError(c *gin.Context, username string, err error) {
	switch {
	case errors.Is(err, ErrQuotaExceeded):
		c.JSON(http.StatusForbidden, gin.H{"error": "you have used all your uploads"})
	case errors.Is(err, ErrUnsupportedFormat):
		c.JSON(http.StatusBadRequest, gin.H{"error": "please upload a CSV or JSON file"})
	case errors.Is(err, ErrFileTooLarge):
		c.JSON(http.StatusBadRequest, gin.H{"error": "file size too large"})
	case errors.Is(err, ErrInvalidFile):
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read file data, please make sure the file is not empty and is in one of the supported formats"})
	default:
		h.logger.Error("analysis request failed", "username", username, "error", err)
		switch store.KindOf(err) {
		case store.KindAuthFailure:
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "service temporarily unavailable, please retry shortly"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "analysis failed, please try again"})
		}
	}
}
