package handlers

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/logger"
	"github.com/google/uuid"
)

const (
	sessionName = "raffle_session"
	tenantKey   = "tenantID"
)

// SessionStore returns the signed cookie store that carries tenant ids.
func SessionStore(secret string) sessions.Store {
	store := cookie.NewStore([]byte(secret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   3600 * 24 * 7,
		HttpOnly: true,
	})
	return store
}

// TenantMiddleware gives every browser a stable tenant id, stored in its
// session cookie, and exposes it to handlers under tenantKey.
func (h *HTTPHandler) TenantMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := sessions.Default(c)
		tenantID, _ := sess.Get(tenantKey).(string)
		if tenantID == "" {
			tenantID = uuid.NewString()
			sess.Set(tenantKey, tenantID)
			if err := sess.Save(); err != nil {
				logger.Errorf("Failed to save session: %v", err)
			}
		}
		c.Set(tenantKey, tenantID)
		c.Next()
	}
}
