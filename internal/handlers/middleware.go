package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/quickbites/orderflow/internal/session"
)

const identityKey = "identity"

// Authenticate resolves the bearer token into an identity when one is
// present. Routes decide for themselves whether a session is required.
func Authenticate(sessions *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token := strings.TrimPrefix(header, "Bearer ")
		if token == "" || token == header {
			c.Next()
			return
		}
		id, err := sessions.Parse(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid_token"})
			return
		}
		c.Set(identityKey, id)
		c.Next()
	}
}

// RequireAuth aborts unauthenticated requests.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := currentIdentity(c); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication_required"})
			return
		}
		c.Next()
	}
}

// RequireAdmin aborts requests from non-admin sessions.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := currentIdentity(c)
		if !ok || !id.Admin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin_required"})
			return
		}
		c.Next()
	}
}

func currentIdentity(c *gin.Context) (*session.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return nil, false
	}
	id, ok := v.(*session.Identity)
	return id, ok
}
