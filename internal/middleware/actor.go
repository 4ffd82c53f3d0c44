package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	// HeaderUserName carries the display name of the acting reviewer.
	HeaderUserName = "X-User-Name"

	ContextKeyActor = "actor"
)

// Actor resolves the acting user from the X-User-Name header, falling back to
// defaultUser. There is no authentication; the name is only used for audit entries.
func Actor(defaultUser string) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := strings.TrimSpace(c.GetHeader(HeaderUserName))
		if actor == "" {
			actor = defaultUser
		}
		c.Set(ContextKeyActor, actor)
		c.Next()
	}
}

// GetActor returns the acting user set by Actor.
func GetActor(c *gin.Context) string {
	return c.GetString(ContextKeyActor)
}
