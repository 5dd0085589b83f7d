package identity

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the OAuth login flow on the router.
func RegisterRoutes(router *gin.Engine, service *Service) {
	handler := &httpHandler{service: service}
	router.GET("/auth/login", handler.login)
	router.GET("/auth/callback", handler.callback)
	router.POST("/auth/logout", handler.logout)
}

type httpHandler struct {
	service *Service
}

func (h *httpHandler) login(c *gin.Context) {
	state := h.service.NewState()
	c.SetCookie(stateCookie, state, stateCookieAge, "/", "", true, true)
	c.Redirect(http.StatusTemporaryRedirect, h.service.LoginURL(state))
}

func (h *httpHandler) callback(c *gin.Context) {
	wantState, err := c.Cookie(stateCookie)
	if err != nil || wantState == "" || c.Query("state") != wantState {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid oauth state"})
		return
	}
	c.SetCookie(stateCookie, "", -1, "/", "", true, true)

	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing authorization code"})
		return
	}

	username, token, err := h.service.Exchange(c.Request.Context(), code)
	if err != nil {
		h.service.logger.Error("oauth exchange failed", "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "sign-in failed, please retry"})
		return
	}

	c.SetCookie(SessionCookie, token, int(h.service.sessions.ttl.Seconds()), "/", "", true, true)
	c.JSON(http.StatusOK, gin.H{"username": username})
}

func (h *httpHandler) logout(c *gin.Context) {
	c.SetCookie(SessionCookie, "", -1, "/", "", true, true)
	c.Status(http.StatusNoContent)
}
