package auth

import (
	"errors"
	"html/template"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/avillega/tablero/internal/database/users"
	"github.com/avillega/tablero/internal/entities"
)

// EventRecorder receives the outcome of authentication operations. Recording
// is best-effort and never affects the operation's result.
type EventRecorder interface {
	Record(userID uint, username string, action entities.AuthAction, ok bool, ip, userAgent string)
}

// isLocalPath validates that a redirect path is local to prevent open
// redirect attacks.
func isLocalPath(path string) bool {
	if path == "" {
		return false
	}

	// Must start with /
	if !strings.HasPrefix(path, "/") {
		return false
	}

	// Reject protocol-relative URLs (//evil.com)
	if strings.HasPrefix(path, "//") {
		return false
	}

	// Reject URLs with schemes
	if strings.Contains(path, "://") {
		return false
	}

	// Reject paths with backslashes (potential bypass attempts)
	if strings.Contains(path, "\\") {
		return false
	}

	return true
}

// sanitizeRedirectPath returns a safe redirect path, defaulting to "/" if invalid.
func sanitizeRedirectPath(path string) string {
	if isLocalPath(path) {
		return path
	}
	return "/"
}

// AuthController handles authentication-related HTTP endpoints.
type AuthController struct {
	service        *Service
	sessionManager *SessionManager
	tokens         *TokenIssuer
	templates      *template.Template
	events         EventRecorder
}

// NewAuthController creates a new authentication controller. The events
// recorder may be nil, in which case no audit trail is written.
func NewAuthController(service *Service, sessionManager *SessionManager, tokens *TokenIssuer, templatesPath string, events EventRecorder) *AuthController {
	// Parse auth templates; the controller falls back to JSON rendering
	// when they are absent
	pattern := filepath.Join(templatesPath, "auth", "*.html")
	tmpl, err := template.ParseGlob(pattern)
	if err != nil {
		tmpl = nil
	}

	return &AuthController{
		service:        service,
		sessionManager: sessionManager,
		tokens:         tokens,
		templates:      tmpl,
		events:         events,
	}
}

// RegisterRoutes registers authentication routes on the router.
func (ac *AuthController) RegisterRoutes(router *gin.Engine) {
	router.GET("/login", ac.LoginPage)
	router.POST("/login", ac.Login)
	router.GET("/signup", ac.SignupPage)
	router.POST("/signup", ac.Signup)
	router.POST("/login-jwt", ac.LoginJWT)
	router.GET("/logout", ac.Logout)
}

// LoginPage renders the login form.
func (ac *AuthController) LoginPage(c *gin.Context) {
	// If already authenticated, redirect to home
	if ac.sessionManager != nil && ac.sessionManager.IsAuthenticated(c.Request) {
		c.Redirect(http.StatusFound, "/")
		return
	}

	ac.renderTemplate(c, "login.html", gin.H{
		"Title":     "Login",
		"Next":      sanitizeRedirectPath(c.Query("next")),
		"CSRFToken": GetCSRFToken(c),
		"Error":     c.Query("error"),
	})
}

// Login handles the login form submission. All credential failures render
// the same generic message.
func (ac *AuthController) Login(c *gin.Context) {
	username := c.PostForm("username")
	password := c.PostForm("password")
	next := sanitizeRedirectPath(c.PostForm("next"))

	user, err := ac.service.Authenticate(username, password)
	if err != nil {
		ac.record(0, username, entities.AuthActionLogin, false, c)
		ac.renderTemplate(c, "login.html", gin.H{
			"Title":     "Login",
			"Next":      next,
			"Username":  username,
			"CSRFToken": GetCSRFToken(c),
			"Error":     "Invalid username or password",
		})
		return
	}

	if err := ac.sessionManager.CreateSession(c.Request, user); err != nil {
		ac.renderTemplate(c, "login.html", gin.H{
			"Title":     "Login",
			"Next":      next,
			"Username":  username,
			"CSRFToken": GetCSRFToken(c),
			"Error":     "Failed to create session",
		})
		return
	}

	ac.record(user.ID, user.Username, entities.AuthActionLogin, true, c)
	c.Redirect(http.StatusFound, next)
}

// SignupPage renders the signup form.
func (ac *AuthController) SignupPage(c *gin.Context) {
	if ac.sessionManager != nil && ac.sessionManager.IsAuthenticated(c.Request) {
		c.Redirect(http.StatusFound, "/")
		return
	}

	ac.renderTemplate(c, "signup.html", gin.H{
		"Title":     "Sign Up",
		"CSRFToken": GetCSRFToken(c),
		"Error":     c.Query("error"),
	})
}

// Signup handles the signup form submission. A successful signup redirects
// to the login page; it does not log the user in.
func (ac *AuthController) Signup(c *gin.Context) {
	username := c.PostForm("username")
	password := c.PostForm("password")
	confirmPassword := c.PostForm("confirm_password")

	user, err := ac.service.Signup(username, password, confirmPassword)
	if err != nil {
		ac.record(0, username, entities.AuthActionSignup, false, c)

		errorMsg := "Failed to create account"
		switch {
		case errors.Is(err, users.ErrDuplicateUsername):
			errorMsg = "Username already taken. Please choose another."
		case errors.Is(err, ErrPasswordMismatch):
			errorMsg = "Passwords do not match"
		case errors.Is(err, ErrUsernameRequired), errors.Is(err, ErrUsernameLength):
			errorMsg = "Username must be 4-100 characters"
		case errors.Is(err, ErrPasswordRequired), errors.Is(err, ErrPasswordLength):
			errorMsg = "Password must be 6-128 characters"
		case errors.Is(err, ErrPasswordTooLong):
			errorMsg = "Password exceeds maximum length of 72 characters"
		}

		ac.renderTemplate(c, "signup.html", gin.H{
			"Title":     "Sign Up",
			"Username":  username,
			"CSRFToken": GetCSRFToken(c),
			"Error":     errorMsg,
		})
		return
	}

	ac.record(user.ID, user.Username, entities.AuthActionSignup, true, c)
	c.Redirect(http.StatusFound, "/login")
}

// loginJWTRequest is the JSON body for the token-issuing endpoint.
type loginJWTRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginJWT verifies credentials from a JSON body and returns a signed access
// token. This is the API counterpart of Login; failures are reported with the
// same generic message regardless of cause.
func (ac *AuthController) LoginJWT(c *gin.Context) {
	var req loginJWTRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid request body"})
		return
	}

	user, err := ac.service.Authenticate(req.Username, req.Password)
	if err != nil {
		ac.record(0, req.Username, entities.AuthActionToken, false, c)
		c.JSON(http.StatusUnauthorized, gin.H{"msg": "invalid credentials"})
		return
	}

	token, err := ac.tokens.Issue(user.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"msg": "failed to issue token"})
		return
	}

	ac.record(user.ID, user.Username, entities.AuthActionToken, true, c)
	c.JSON(http.StatusOK, gin.H{"access_token": token})
}

// Logout destroys the session and redirects to login. Requires an existing
// session; anonymous requests are just sent to the login page.
func (ac *AuthController) Logout(c *gin.Context) {
	if ac.sessionManager == nil || !ac.sessionManager.IsAuthenticated(c.Request) {
		c.Redirect(http.StatusFound, "/login")
		return
	}

	data := ac.sessionManager.GetSessionData(c.Request)
	_ = ac.sessionManager.DestroySession(c.Request)
	if data != nil {
		ac.record(data.UserID, data.Username, entities.AuthActionLogout, true, c)
	}

	c.Redirect(http.StatusFound, "/login")
}

// record writes an auth event if a recorder is configured.
func (ac *AuthController) record(userID uint, username string, action entities.AuthAction, ok bool, c *gin.Context) {
	if ac.events == nil {
		return
	}
	ac.events.Record(userID, username, action, ok, c.ClientIP(), c.Request.UserAgent())
}

// renderTemplate renders an auth template or falls back to JSON.
func (ac *AuthController) renderTemplate(c *gin.Context, name string, data gin.H) {
	if ac.templates == nil {
		c.JSON(http.StatusOK, data)
		return
	}

	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := ac.templates.ExecuteTemplate(c.Writer, name, data); err != nil {
		c.String(http.StatusInternalServerError, "Template error: %v", err)
	}
}
