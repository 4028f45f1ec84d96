package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/avillega/tablero/internal/config"
	"github.com/avillega/tablero/internal/entities"
)

func setupSessionManager(t *testing.T) *SessionManager {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get SQL DB: %v", err)
	}

	cfg := config.Auth{
		SessionLifetime: 24 * time.Hour,
		SecureCookies:   false,
	}

	sm, err := NewSessionManager(sqlDB, cfg)
	if err != nil {
		t.Fatalf("failed to create session manager: %v", err)
	}

	return sm
}

func TestNewSessionManager(t *testing.T) {
	sm := setupSessionManager(t)

	if sm.Cookie.Name != "session" {
		t.Errorf("Expected cookie name 'session', got '%s'", sm.Cookie.Name)
	}
	if !sm.Cookie.HttpOnly {
		t.Error("Cookie should be HttpOnly")
	}
	if sm.Cookie.SameSite != http.SameSiteStrictMode {
		t.Errorf("Expected SameSiteStrictMode, got %v", sm.Cookie.SameSite)
	}
	if sm.Lifetime != 24*time.Hour {
		t.Errorf("Expected 24h lifetime, got %v", sm.Lifetime)
	}
}

func TestSessionManager_CreateAndRetrieveSession(t *testing.T) {
	sm := setupSessionManager(t)

	user := &entities.User{ID: 123, Username: "alice"}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()

	handler := sm.LoadAndSave(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if sm.IsAuthenticated(r) {
			t.Error("Should not be authenticated before login")
		}

		if err := sm.CreateSession(r, user); err != nil {
			t.Fatalf("failed to create session: %v", err)
		}

		if got := sm.GetUserID(r); got != user.ID {
			t.Errorf("Expected user ID %d, got %d", user.ID, got)
		}
		if got := sm.GetUsername(r); got != user.Username {
			t.Errorf("Expected username %q, got %q", user.Username, got)
		}
		if !sm.IsAuthenticated(r) {
			t.Error("Should be authenticated after login")
		}

		data := sm.GetSessionData(r)
		if data == nil {
			t.Fatal("GetSessionData() returned nil for an authenticated request")
		}
		if data.UserID != user.ID || data.Username != user.Username {
			t.Errorf("GetSessionData() = %+v", data)
		}
		if data.LoginAt.IsZero() {
			t.Error("GetSessionData() LoginAt should be set")
		}

		w.WriteHeader(http.StatusOK)
	}))

	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rr.Code)
	}
}

func TestSessionManager_DestroySession(t *testing.T) {
	sm := setupSessionManager(t)

	user := &entities.User{ID: 789, Username: "destroyuser"}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()

	handler := sm.LoadAndSave(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := sm.CreateSession(r, user); err != nil {
			t.Fatalf("failed to create session: %v", err)
		}
		if !sm.IsAuthenticated(r) {
			t.Error("Should be authenticated after login")
		}

		if err := sm.DestroySession(r); err != nil {
			t.Fatalf("failed to destroy session: %v", err)
		}

		// Immediately after destruction the handle no longer resolves
		if sm.IsAuthenticated(r) {
			t.Error("Should not be authenticated after session destroy")
		}
		if sm.GetSessionData(r) != nil {
			t.Error("GetSessionData() should return nil after destroy")
		}

		w.WriteHeader(http.StatusOK)
	}))

	handler.ServeHTTP(rr, req)
}

func TestSessionManager_HandlePersistsAcrossRequests(t *testing.T) {
	sm := setupSessionManager(t)

	user := &entities.User{ID: 42, Username: "roundtrip"}

	// First request: log in and capture the session cookie
	loginReq := httptest.NewRequest(http.MethodGet, "/login", nil)
	loginRR := httptest.NewRecorder()

	sm.LoadAndSave(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := sm.CreateSession(r, user); err != nil {
			t.Fatalf("failed to create session: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	})).ServeHTTP(loginRR, loginReq)

	cookies := loginRR.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("login response should set a session cookie")
	}

	// Second request: present the handle, identity should resolve
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rr := httptest.NewRecorder()

	sm.LoadAndSave(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := sm.GetUserID(r); got != user.ID {
			t.Errorf("Expected user ID %d from session cookie, got %d", user.ID, got)
		}
		w.WriteHeader(http.StatusOK)
	})).ServeHTTP(rr, req)
}
