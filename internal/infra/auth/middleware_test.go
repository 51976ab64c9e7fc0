package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/dmko-sec/secdash/internal/domain"
)

type stubValidator struct {
	claims *domain.CustomClaims
	err    error
}

func (s *stubValidator) VerifyToken(string) (*domain.CustomClaims, error) {
	return s.claims, s.err
}

func TestMiddlewareInjectsIdentity(t *testing.T) {
	v := &stubValidator{claims: &domain.CustomClaims{
		UserID: "u-1",
		Scopes: map[string]bool{domain.ScopeView: true},
	}}

	var gotID string
	var gotScopes map[string]bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = UserID(r.Context())
		gotScopes = Scopes(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer whatever")
	rr := httptest.NewRecorder()

	NewMiddleware(v, zap.NewNop())(next).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "u-1", gotID)
	assert.True(t, gotScopes[domain.ScopeView])
}

func TestMiddlewareRejectsMissingAndBadTokens(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	})

	// No Authorization header at all.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()
	NewMiddleware(&stubValidator{}, zap.NewNop())(next).ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	// Validator says no.
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer expired")
	rr = httptest.NewRecorder()
	NewMiddleware(&stubValidator{err: errors.New("expired")}, zap.NewNop())(next).ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRequireScope(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	run := func(scopes map[string]bool, required string) int {
		v := &stubValidator{claims: &domain.CustomClaims{UserID: "u-1", Scopes: scopes}}
		chain := NewMiddleware(v, zap.NewNop())(RequireScope(required, zap.NewNop())(ok))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer t")
		rr := httptest.NewRecorder()
		chain.ServeHTTP(rr, req)
		return rr.Code
	}

	assert.Equal(t, http.StatusOK, run(map[string]bool{domain.ScopeUpload: true}, domain.ScopeUpload))
	assert.Equal(t, http.StatusForbidden, run(map[string]bool{domain.ScopeView: true}, domain.ScopeUpload))
	// Admin passes every gate.
	assert.Equal(t, http.StatusOK, run(map[string]bool{domain.ScopeAdmin: true}, domain.ScopeUpload))
}
