package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	sessionCookie = "jaksense_session"
	sessionHeader = "X-Session-ID"
	sessionKey    = "session"
	sessionMaxAge = 7 * 24 * 60 * 60
)

// session resolves the caller's session id from the header or cookie, and
// issues a fresh cookie when neither is present. A header that is not a uuid
// is rejected so HTTP callers cannot reach bot or CLI sessions.
func (s *Server) session() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(sessionHeader))
		if id != "" && !validSessionID(id) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid session id"})
			return
		}
		if id == "" {
			if v, err := c.Cookie(sessionCookie); err == nil && validSessionID(v) {
				id = v
			}
		}
		if id == "" {
			id = uuid.NewString()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(sessionCookie, id, sessionMaxAge, "/", "", s.secureCookie, true)
		}
		c.Set(sessionKey, id)
		c.Next()
	}
}

func validSessionID(v string) bool {
	_, err := uuid.Parse(v)
	return err == nil
}

func sessionID(c *gin.Context) string {
	return c.GetString(sessionKey)
}
