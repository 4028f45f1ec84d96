package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/avillega/tablero/internal/config"
	"github.com/avillega/tablero/internal/database/users"
	"github.com/avillega/tablero/internal/entities"
)

// setupAuthRouter wires the controller, session manager and access guard the
// same way the entrypoint does, minus templates and CSRF.
func setupAuthRouter(t *testing.T) *gin.Engine {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	if err := db.AutoMigrate(&entities.User{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get SQL DB: %v", err)
	}

	cfg := config.Auth{
		SessionLifetime: time.Hour,
		SecureCookies:   false,
		BcryptCost:      4,
	}

	service := NewService(users.NewRepository(db), cfg)
	sm, err := NewSessionManager(sqlDB, cfg)
	if err != nil {
		t.Fatalf("failed to create session manager: %v", err)
	}
	tokens := NewTokenIssuer([]byte("test-secret"), time.Hour)

	controller := NewAuthController(service, sm, tokens, "", nil)
	middleware := NewMiddleware(service, sm, tokens)

	router := gin.New()
	router.Use(sm.SessionLoadSave())
	router.Use(middleware.Handler())
	controller.RegisterRoutes(router)

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"username": GetUsername(c)})
	})
	router.GET("/api/me", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"username":  GetUsername(c),
			"auth_type": GetAuthType(c),
		})
	})

	return router
}

func postForm(router *gin.Engine, path string, form url.Values, cookies []*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func get(router *gin.Engine, path string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// TestAuthFlow walks one account through its whole lifecycle: signup, a
// rejected duplicate signup, a failed login, a successful login with a
// session, access to a protected page, logout, and the now-dead session
// handle being rejected.
func TestAuthFlow(t *testing.T) {
	router := setupAuthRouter(t)

	creds := url.Values{
		"username":         {"alice"},
		"password":         {"secret1"},
		"confirm_password": {"secret1"},
	}

	// Signup succeeds and redirects to the login page
	w := postForm(router, "/signup", creds, nil)
	if w.Code != http.StatusFound {
		t.Fatalf("signup: expected 302, got %d: %s", w.Code, w.Body.String())
	}
	if loc := w.Header().Get("Location"); loc != "/login" {
		t.Errorf("signup: expected redirect to /login, got %s", loc)
	}

	// Second signup with the same username is rejected
	w = postForm(router, "/signup", creds, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("duplicate signup: expected re-render (200), got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Username already taken") {
		t.Errorf("duplicate signup: expected duplicate message, got %s", w.Body.String())
	}

	// Wrong password gets the generic failure
	w = postForm(router, "/login", url.Values{
		"username": {"alice"},
		"password": {"wrongpw"},
	}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("bad login: expected re-render (200), got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Invalid username or password") {
		t.Errorf("bad login: expected generic message, got %s", w.Body.String())
	}

	// Correct login redirects home and sets a session cookie
	w = postForm(router, "/login", url.Values{
		"username": {"alice"},
		"password": {"secret1"},
	}, nil)
	if w.Code != http.StatusFound {
		t.Fatalf("login: expected 302, got %d: %s", w.Code, w.Body.String())
	}
	if loc := w.Header().Get("Location"); loc != "/" {
		t.Errorf("login: expected redirect to /, got %s", loc)
	}
	cookies := w.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("login: expected a session cookie")
	}

	// The session grants access to a protected page
	w = get(router, "/", cookies)
	if w.Code != http.StatusOK {
		t.Fatalf("protected page with session: expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "alice") {
		t.Errorf("protected page: expected alice, got %s", w.Body.String())
	}

	// Logout invalidates the session
	w = get(router, "/logout", cookies)
	if w.Code != http.StatusFound {
		t.Fatalf("logout: expected 302, got %d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/login" {
		t.Errorf("logout: expected redirect to /login, got %s", loc)
	}

	// The old session handle no longer grants access
	w = get(router, "/", cookies)
	if w.Code != http.StatusFound {
		t.Errorf("protected page after logout: expected redirect, got %d", w.Code)
	}
	if loc := w.Header().Get("Location"); !strings.HasPrefix(loc, "/login") {
		t.Errorf("protected page after logout: expected redirect to /login, got %s", loc)
	}
}

func TestAuthFlow_TokenLogin(t *testing.T) {
	router := setupAuthRouter(t)

	w := postForm(router, "/signup", url.Values{
		"username":         {"alice"},
		"password":         {"secret1"},
		"confirm_password": {"secret1"},
	}, nil)
	if w.Code != http.StatusFound {
		t.Fatalf("signup: expected 302, got %d", w.Code)
	}

	// Wrong credentials never produce a token
	body, _ := json.Marshal(map[string]string{"username": "alice", "password": "wrongpw"})
	req := httptest.NewRequest(http.MethodPost, "/login-jwt", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("login-jwt bad credentials: expected 401, got %d", w.Code)
	}

	// Malformed body is a 400, distinct from a credential failure
	req = httptest.NewRequest(http.MethodPost, "/login-jwt", strings.NewReader("not json"))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("login-jwt bad body: expected 400, got %d", w.Code)
	}

	// Valid credentials return an access token
	body, _ = json.Marshal(map[string]string{"username": "alice", "password": "secret1"})
	req = httptest.NewRequest(http.MethodPost, "/login-jwt", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("login-jwt: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("login-jwt: invalid response body: %v", err)
	}
	if resp.AccessToken == "" {
		t.Fatal("login-jwt: empty access_token")
	}

	// The token authenticates API requests without any cookie
	req = httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("Authorization", "Bearer "+resp.AccessToken)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("/api/me with token: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"auth_type":"bearer"`) {
		t.Errorf("/api/me: expected bearer auth, got %s", w.Body.String())
	}

	// Without the token the API endpoint refuses the request
	w = get(router, "/api/me", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("/api/me without credentials: expected 401, got %d", w.Code)
	}
}

func TestAuthFlow_LogoutWithoutSession(t *testing.T) {
	router := setupAuthRouter(t)

	// The access guard intercepts the anonymous request before the handler
	w := get(router, "/logout", nil)
	if w.Code != http.StatusFound {
		t.Fatalf("logout without session: expected 302, got %d", w.Code)
	}
	if loc := w.Header().Get("Location"); !strings.HasPrefix(loc, "/login") {
		t.Errorf("logout without session: expected redirect to /login, got %s", loc)
	}
}

func TestSanitizeRedirectPath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/dashboard", "/dashboard"},
		{"/", "/"},
		{"", "/"},
		{"//evil.com", "/"},
		{"https://evil.com", "/"},
		{"javascript://alert(1)", "/"},
		{`/\evil.com`, "/"},
		{"relative/path", "/"},
	}

	for _, tt := range tests {
		if got := sanitizeRedirectPath(tt.in); got != tt.want {
			t.Errorf("sanitizeRedirectPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
