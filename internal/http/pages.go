package http

import (
	"html/template"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/avillega/tablero/internal/auth"
)

// PagesController serves the protected application pages and API endpoints.
// Everything it registers sits behind the access guard.
type PagesController struct {
	templates *template.Template
	version   string
}

// NewPagesController creates the controller. Templates are optional; without
// them pages render as JSON.
func NewPagesController(templatesPath, version string) *PagesController {
	pattern := filepath.Join(templatesPath, "*.html")
	tmpl, err := template.ParseGlob(pattern)
	if err != nil {
		tmpl = nil
	}

	return &PagesController{
		templates: tmpl,
		version:   version,
	}
}

// RegisterRoutes registers the protected routes on the router.
func (pc *PagesController) RegisterRoutes(router *gin.Engine) {
	router.GET("/", pc.Index)
	router.GET("/api/me", pc.Me)
}

// Index renders the dashboard for the authenticated user.
func (pc *PagesController) Index(c *gin.Context) {
	data := gin.H{
		"Title":    "Dashboard",
		"Username": auth.GetUsername(c),
		"Version":  pc.version,
	}

	if pc.templates == nil {
		c.JSON(http.StatusOK, data)
		return
	}

	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := pc.templates.ExecuteTemplate(c.Writer, "index.html", data); err != nil {
		c.String(http.StatusInternalServerError, "Template error: %v", err)
	}
}

// Me returns the authenticated user and how the request was authenticated.
func (pc *PagesController) Me(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"user_id":   auth.GetUserID(c),
		"username":  auth.GetUsername(c),
		"auth_type": auth.GetAuthType(c),
	})
}
