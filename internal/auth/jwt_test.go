package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/senyabanana/procurement-portal/internal/models"
)

func TestTokenRoundTrip(t *testing.T) {
	manager := NewTokenManager("test-secret", time.Hour)
	user := models.User{
		ID:           "user-1",
		Username:     "beta-roads",
		Role:         models.RoleCompany,
		Organization: "Beta Roads",
	}

	token, err := manager.GenerateToken(user)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	principal, err := manager.ParseToken(token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if principal.ID != user.ID || principal.Role != user.Role || principal.Organization != user.Organization {
		t.Errorf("principal does not match user: %+v", principal)
	}
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	token, err := NewTokenManager("secret-a", time.Hour).GenerateToken(models.User{ID: "u", Role: models.RoleCity})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err = NewTokenManager("secret-b", time.Hour).ParseToken(token); err == nil {
		t.Fatal("token signed with a different secret must be rejected")
	}
}

func TestParseTokenRejectsExpired(t *testing.T) {
	manager := NewTokenManager("test-secret", -time.Minute)
	token, err := manager.GenerateToken(models.User{ID: "u", Role: models.RoleCity})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err = manager.ParseToken(token); err == nil {
		t.Fatal("expired token must be rejected")
	}
}

func TestMiddleware(t *testing.T) {
	manager := NewTokenManager("test-secret", time.Hour)
	token, err := manager.GenerateToken(models.User{ID: "city-1", Role: models.RoleCity})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var got models.Principal
	handler := Middleware(manager, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = PrincipalFromContext(r.Context())
	}))

	// С токеном - принципал из claims.
	req := httptest.NewRequest(http.MethodGet, "/api/tenders", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if got.ID != "city-1" || got.Role != models.RoleCity {
		t.Errorf("expected city principal, got %+v", got)
	}

	// Без токена - аноним.
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/tenders", nil))
	if got.Role != models.RolePublic {
		t.Errorf("expected anonymous principal, got %+v", got)
	}

	// С мусорным токеном - тоже аноним.
	req = httptest.NewRequest(http.MethodGet, "/api/tenders", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if got.Role != models.RolePublic {
		t.Errorf("expected anonymous principal for garbage token, got %+v", got)
	}
}

func TestPrincipalFromEmptyContext(t *testing.T) {
	principal := PrincipalFromContext(context.Background())
	if principal.Role != models.RolePublic {
		t.Errorf("expected anonymous principal, got %+v", principal)
	}
}
