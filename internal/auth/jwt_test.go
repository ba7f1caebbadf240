package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestJWTManager_GenerateAndValidate(t *testing.T) {
	m := NewJWTManager(DefaultJWTConfig("test-secret"))

	token, err := m.GenerateToken("desktop-ui")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	claims, err := m.ValidateToken(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.ClientName != "desktop-ui" {
		t.Errorf("expected client name, got %q", claims.ClientName)
	}
	if claims.Issuer != "companiond" {
		t.Errorf("expected issuer companiond, got %q", claims.Issuer)
	}
}

func TestJWTManager_WrongSecret(t *testing.T) {
	m := NewJWTManager(DefaultJWTConfig("secret-a"))
	token, err := m.GenerateToken("ui")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	other := NewJWTManager(DefaultJWTConfig("secret-b"))
	if _, err := other.ValidateToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestJWTManager_ExpiredToken(t *testing.T) {
	cfg := DefaultJWTConfig("test-secret")
	cfg.Expiry = -time.Minute
	m := NewJWTManager(cfg)

	token, err := m.GenerateToken("ui")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := m.ValidateToken(token); !errors.Is(err, ErrExpiredToken) {
		t.Errorf("expected ErrExpiredToken, got %v", err)
	}
}

func TestJWTManager_RefreshExpiredToken(t *testing.T) {
	cfg := DefaultJWTConfig("test-secret")
	cfg.Expiry = -time.Minute
	m := NewJWTManager(cfg)

	expired, err := m.GenerateToken("ui")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	m.config.Expiry = time.Hour
	refreshed, err := m.RefreshToken(expired)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	claims, err := m.ValidateToken(refreshed)
	if err != nil {
		t.Fatalf("validate refreshed: %v", err)
	}
	if claims.ClientName != "ui" {
		t.Errorf("client name lost on refresh, got %q", claims.ClientName)
	}
}

func TestMiddleware(t *testing.T) {
	m := NewJWTManager(DefaultJWTConfig("test-secret"))
	token, err := m.GenerateToken("ui")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	handler := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClientFromContext(r.Context())
		if !ok || claims.ClientName != "ui" {
			t.Error("claims missing from request context")
		}
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"valid", "Bearer " + token, http.StatusOK},
		{"missing", "", http.StatusUnauthorized},
		{"malformed", token, http.StatusUnauthorized},
		{"garbage", "Bearer not-a-token", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.header != "" {
			req.Header.Set("Authorization", tt.header)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != tt.want {
			t.Errorf("%s: expected status %d, got %d", tt.name, tt.want, rec.Code)
		}
	}
}
