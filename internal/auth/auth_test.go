package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/vacathon/vacathon-api/internal/config"
	"github.com/vacathon/vacathon-api/internal/models"
)

func setup(t *testing.T) (*gorm.DB, *AuthHandler) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.UserProfile{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	cfg := &config.Config{JWTSecret: "test-secret", TokenDuration: time.Hour}
	return db, NewAuthHandler(cfg, db)
}

func signup(t *testing.T, handler *AuthHandler, username string) *SignupResponse {
	t.Helper()
	req := &SignupRequest{}
	req.Body.Username = username
	req.Body.Email = username + "@example.com"
	req.Body.Password = "correct horse"
	res, err := handler.HandleSignup(context.Background(), req)
	if err != nil {
		t.Fatalf("HandleSignup returned error: %v", err)
	}
	return res
}

func TestSignupProvisionsProfile(t *testing.T) {
	db, handler := setup(t)
	res := signup(t, handler, "runner")

	var profile models.UserProfile
	if err := db.Where("user_id = ?", res.Body.ID).First(&profile).Error; err != nil {
		t.Fatalf("expected profile provisioned at signup: %v", err)
	}

	var user models.User
	db.First(&user, res.Body.ID)
	if user.PasswordHash == "" || user.PasswordHash == "correct horse" {
		t.Error("expected password stored as a hash")
	}

	req := &SignupRequest{}
	req.Body.Username = "runner"
	req.Body.Email = "other@example.com"
	req.Body.Password = "correct horse"
	if _, err := handler.HandleSignup(context.Background(), req); err == nil {
		t.Fatal("expected duplicate username to be rejected")
	}
}

func TestLoginSetsCookieAndReturnsToken(t *testing.T) {
	_, handler := setup(t)
	signup(t, handler, "runner")

	req := &LoginRequest{}
	req.Body.Username = "runner"
	req.Body.Password = "correct horse"
	res, err := handler.HandleLogin(context.Background(), req)
	if err != nil {
		t.Fatalf("HandleLogin returned error: %v", err)
	}
	if res.Body.Token == "" {
		t.Error("expected token in body")
	}
	if res.SetCookie.Name != CookieName || res.SetCookie.Value != res.Body.Token {
		t.Errorf("expected matching session cookie, got %+v", res.SetCookie)
	}

	req.Body.Password = "wrong"
	if _, err := handler.HandleLogin(context.Background(), req); err == nil {
		t.Fatal("expected wrong password to be rejected")
	}
	req.Body.Username = "ghost"
	if _, err := handler.HandleLogin(context.Background(), req); err == nil {
		t.Fatal("expected unknown user to be rejected")
	}
}

func TestTokenEndpointAndMiddleware(t *testing.T) {
	_, handler := setup(t)
	created := signup(t, handler, "runner")

	tokenReq := &TokenRequest{}
	tokenReq.Body.Username = "runner"
	tokenReq.Body.Password = "correct horse"
	tokenRes, err := handler.HandleToken(context.Background(), tokenReq)
	if err != nil {
		t.Fatalf("HandleToken returned error: %v", err)
	}

	var gotUserID uint
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID, _ = UserIDFromContext(r.Context())
	})

	r := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
	r.Header.Set("Authorization", "Bearer "+tokenRes.Body.Token)
	w := httptest.NewRecorder()
	handler.AuthMiddleware(next).ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("expected bearer auth to pass, got %d", w.Code)
	}
	if gotUserID != created.Body.ID {
		t.Errorf("expected user id %d in context, got %d", created.Body.ID, gotUserID)
	}

	// Cookie fallback
	r = httptest.NewRequest(http.MethodGet, "/api/profile", nil)
	r.AddCookie(&http.Cookie{Name: CookieName, Value: tokenRes.Body.Token})
	w = httptest.NewRecorder()
	handler.AuthMiddleware(next).ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("expected cookie auth to pass, got %d", w.Code)
	}

	// No token at all
	r = httptest.NewRequest(http.MethodGet, "/api/profile", nil)
	w = httptest.NewRecorder()
	handler.AuthMiddleware(next).ServeHTTP(w, r)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without credentials, got %d", w.Code)
	}

	// Garbage token
	r = httptest.NewRequest(http.MethodGet, "/api/profile", nil)
	r.Header.Set("Authorization", "Bearer nonsense")
	w = httptest.NewRecorder()
	handler.AuthMiddleware(next).ServeHTTP(w, r)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for invalid token, got %d", w.Code)
	}
}

func TestRequireStaff(t *testing.T) {
	db, handler := setup(t)
	staff := signup(t, handler, "admin")
	db.Model(&models.User{}).Where("id = ?", staff.Body.ID).Update("is_staff", true)
	regular := signup(t, handler, "runner")

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	call := func(userID uint) int {
		r := httptest.NewRequest(http.MethodGet, "/api/admin/events", nil)
		r = r.WithContext(context.WithValue(r.Context(), UserIDKey, userID))
		w := httptest.NewRecorder()
		handler.RequireStaff(next).ServeHTTP(w, r)
		return w.Code
	}

	if code := call(staff.Body.ID); code != http.StatusOK {
		t.Errorf("expected staff through, got %d", code)
	}
	if code := call(regular.Body.ID); code != http.StatusForbidden {
		t.Errorf("expected 403 for non-staff, got %d", code)
	}
}
