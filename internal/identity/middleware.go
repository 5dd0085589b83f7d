package identity

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const usernameContextKey = "perfsageUsername"

// AuthMiddleware validates the session cookie and injects the username.
// Any validation failure is treated as unauthenticated.
func AuthMiddleware(sessions *Sessions) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(SessionCookie)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "please sign in"})
			return
		}

		username, err := sessions.Validate(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session expired, please sign in again"})
			return
		}

		c.Set(usernameContextKey, username)
		c.Next()
	}
}

// CurrentUsername extracts the authenticated username from the context.
func CurrentUsername(c *gin.Context) (string, bool) {
	value, exists := c.Get(usernameContextKey)
	if !exists {
		return "", false
	}
	username, ok := value.(string)
	return username, ok && username != ""
}
