package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
)

// SessionName is the cookie holding the login session.
const SessionName = "caseboard_session"

// RequireUser gates a route group behind a valid login session. The user's
// id and email are placed on the gin context for handlers downstream.
func RequireUser(store sessions.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, err := store.Get(c.Request, SessionName)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			c.Abort()
			return
		}

		userID, ok := session.Values["user_id"].(string)
		if !ok || userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			c.Abort()
			return
		}

		c.Set("user_id", userID)
		if email, ok := session.Values["email"].(string); ok {
			c.Set("email", email)
		}
		c.Next()
	}
}
