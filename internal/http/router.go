// Package http assembles the gin router: middleware chain, authentication
// routes and the protected application surface.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/avillega/tablero/internal/auth"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	AuthController *auth.AuthController
	AuthMiddleware *auth.Middleware
	SessionManager *auth.SessionManager
	TokenIssuer    *auth.TokenIssuer
	CSRFSecret     []byte
	SecureCookies  bool

	TemplatesPath string
	StaticPath    string
	Version       string
}

// NewRouter creates the gin engine with the full middleware chain.
// Ordering matters: CSRF must run before the session middleware so that the
// session context is not overwritten by CSRF's request replacement, and the
// access guard runs last so it sees a loaded session.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// Security headers on every response
	router.Use(auth.SecurityHeadersMiddleware())

	if len(cfg.CSRFSecret) > 0 {
		router.Use(auth.CSRFMiddleware(cfg.CSRFSecret, cfg.SecureCookies, cfg.TokenIssuer))
	}

	router.Use(cfg.SessionManager.SessionLoadSave())
	router.Use(cfg.AuthMiddleware.Handler())

	if cfg.StaticPath != "" {
		router.Static("/static", cfg.StaticPath)
	}

	// Liveness endpoints, public
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "version": cfg.Version})
	})
	router.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	cfg.AuthController.RegisterRoutes(router)

	pages := NewPagesController(cfg.TemplatesPath, cfg.Version)
	pages.RegisterRoutes(router)

	return router
}
