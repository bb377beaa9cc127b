package handlers

import (
	"io/fs"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// RouterConfig selects gin's mode and the session cookie secret.
type RouterConfig struct {
	Mode          string
	SessionSecret string
	Assets        fs.FS
}

// SetupRouter wires static assets, the tenant session and all routes.
func SetupRouter(cfg RouterConfig, h *HTTPHandler) *gin.Engine {
	switch cfg.Mode {
	case gin.ReleaseMode, gin.TestMode, gin.DebugMode:
		gin.SetMode(cfg.Mode)
	}

	r := gin.New()
	if cfg.Mode == gin.DebugMode {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	if cfg.Assets != nil {
		r.StaticFS("/assets", http.FS(cfg.Assets))
	}

	h.RegisterPublicRoutes(r)

	tenantRoutes := r.Group("/")
	tenantRoutes.Use(sessions.Sessions(sessionName, SessionStore(cfg.SessionSecret)))
	tenantRoutes.Use(h.TenantMiddleware())
	h.RegisterTenantRoutes(tenantRoutes)

	return r
}
