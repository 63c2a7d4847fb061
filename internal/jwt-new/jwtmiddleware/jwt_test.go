package jwtmiddleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/linemk/ristorante/internal/domain/models"
	security "github.com/linemk/ristorante/internal/jwt-new"
	"github.com/linemk/ristorante/internal/jwt-new/jwtmiddleware"
)

func issueToken(t *testing.T, user *models.User, ttl time.Duration) string {
	t.Helper()
	token, err := security.NewToken(context.Background(), user, ttl)
	assert.NoError(t, err)
	return token
}

// okHandler отдает 200 и запоминает принципала из контекста.
func okHandler(got *jwtmiddleware.Principal, found *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, ok := jwtmiddleware.FromContext(r.Context())
		*got = principal
		*found = ok
		w.WriteHeader(http.StatusOK)
	})
}

func TestJWTMiddleware_MissingToken(t *testing.T) {
	os.Setenv("JWT_SECRET", "testsecret")
	defer os.Unsetenv("JWT_SECRET")

	var principal jwtmiddleware.Principal
	var found bool
	handler := jwtmiddleware.NewJWTMiddleware()(okHandler(&principal, &found))

	req := httptest.NewRequest(http.MethodGet, "/orders/my-history", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.False(t, found)
}

func TestJWTMiddleware_InvalidFormat(t *testing.T) {
	os.Setenv("JWT_SECRET", "testsecret")
	defer os.Unsetenv("JWT_SECRET")

	var principal jwtmiddleware.Principal
	var found bool
	handler := jwtmiddleware.NewJWTMiddleware()(okHandler(&principal, &found))

	req := httptest.NewRequest(http.MethodGet, "/orders/my-history", nil)
	req.Header.Set("Authorization", "not-a-bearer-token")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestJWTMiddleware_ValidToken(t *testing.T) {
	os.Setenv("JWT_SECRET", "testsecret")
	defer os.Unsetenv("JWT_SECRET")

	user := &models.User{ID: 5, Name: "Mario", Role: models.RoleCustomer}
	token := issueToken(t, user, time.Hour)

	var principal jwtmiddleware.Principal
	var found bool
	handler := jwtmiddleware.NewJWTMiddleware()(okHandler(&principal, &found))

	req := httptest.NewRequest(http.MethodGet, "/orders/my-history", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, found)
	assert.Equal(t, int64(5), principal.ID)
	assert.Equal(t, "Mario", principal.Name)
	assert.Equal(t, models.RoleCustomer, principal.Role)
}

func TestJWTMiddleware_ExpiredToken(t *testing.T) {
	os.Setenv("JWT_SECRET", "testsecret")
	defer os.Unsetenv("JWT_SECRET")

	user := &models.User{ID: 5, Name: "Mario", Role: models.RoleCustomer}
	token := issueToken(t, user, -time.Minute)

	var principal jwtmiddleware.Principal
	var found bool
	handler := jwtmiddleware.NewJWTMiddleware()(okHandler(&principal, &found))

	req := httptest.NewRequest(http.MethodGet, "/orders/my-history", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestOptionalJWTMiddleware_NoToken(t *testing.T) {
	os.Setenv("JWT_SECRET", "testsecret")
	defer os.Unsetenv("JWT_SECRET")

	var principal jwtmiddleware.Principal
	var found bool
	handler := jwtmiddleware.NewOptionalJWTMiddleware()(okHandler(&principal, &found))

	// Гость без токена проходит, принципала в контексте нет.
	req := httptest.NewRequest(http.MethodPost, "/orders", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.False(t, found)
}

func TestOptionalJWTMiddleware_WithToken(t *testing.T) {
	os.Setenv("JWT_SECRET", "testsecret")
	defer os.Unsetenv("JWT_SECRET")

	user := &models.User{ID: 5, Name: "Mario", Role: models.RoleCustomer}
	token := issueToken(t, user, time.Hour)

	var principal jwtmiddleware.Principal
	var found bool
	handler := jwtmiddleware.NewOptionalJWTMiddleware()(okHandler(&principal, &found))

	req := httptest.NewRequest(http.MethodPost, "/orders", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, found)
	assert.Equal(t, int64(5), principal.ID)
}

func TestRequireStaff_Forbidden(t *testing.T) {
	var principal jwtmiddleware.Principal
	var found bool
	handler := jwtmiddleware.RequireStaff(okHandler(&principal, &found))

	req := httptest.NewRequest(http.MethodGet, "/orders/queue", nil)
	ctx := context.WithValue(req.Context(), jwtmiddleware.PrincipalKey,
		jwtmiddleware.Principal{ID: 5, Name: "Mario", Role: models.RoleCustomer})
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req.WithContext(ctx))

	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestRequireStaff_Allowed(t *testing.T) {
	var principal jwtmiddleware.Principal
	var found bool
	handler := jwtmiddleware.RequireStaff(okHandler(&principal, &found))

	req := httptest.NewRequest(http.MethodGet, "/orders/queue", nil)
	ctx := context.WithValue(req.Context(), jwtmiddleware.PrincipalKey,
		jwtmiddleware.Principal{ID: 2, Name: "Luigi", Role: models.RoleStaff})
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req.WithContext(ctx))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, models.RoleStaff, principal.Role)
}

func TestRequireStaff_NoPrincipal(t *testing.T) {
	var principal jwtmiddleware.Principal
	var found bool
	handler := jwtmiddleware.RequireStaff(okHandler(&principal, &found))

	req := httptest.NewRequest(http.MethodGet, "/orders/queue", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
