package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"portfolioapi/src/model"
	"portfolioapi/src/security"

	"github.com/stretchr/testify/assert"
)

type mockTokenLookup struct {
	user        *model.User
	err         error
	gotHash     string
	calledCount int
}

func (m *mockTokenLookup) FindByAPITokenHash(ctx context.Context, tokenHash string) (*model.User, error) {
	m.calledCount++
	m.gotHash = tokenHash
	return m.user, m.err
}

func TestMiddleware_MissingHeader(t *testing.T) {
	lookup := &mockTokenLookup{}
	handler := Middleware(lookup)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler should not run without credentials")
	}))

	req := httptest.NewRequest(http.MethodGet, "/portfolios", nil)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rr.Code)
	}

	if lookup.calledCount != 0 {
		t.Fatalf("expected no token lookup, got %d", lookup.calledCount)
	}
}

func TestMiddleware_EmptyBearerToken(t *testing.T) {
	lookup := &mockTokenLookup{}
	handler := Middleware(lookup)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler should not run without credentials")
	}))

	req := httptest.NewRequest(http.MethodGet, "/portfolios", nil)
	req.Header.Set("Authorization", "Bearer ")
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rr.Code)
	}
}

func TestMiddleware_UnknownToken(t *testing.T) {
	lookup := &mockTokenLookup{}
	handler := Middleware(lookup)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler should not run for an unknown token")
	}))

	req := httptest.NewRequest(http.MethodGet, "/portfolios", nil)
	req.Header.Set("Authorization", "Bearer not-a-real-token")
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rr.Code)
	}

	if lookup.calledCount != 1 {
		t.Fatalf("expected one token lookup, got %d", lookup.calledCount)
	}
}

func TestMiddleware_LookupError(t *testing.T) {
	lookup := &mockTokenLookup{err: assert.AnError}
	handler := Middleware(lookup)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler should not run when the lookup fails")
	}))

	req := httptest.NewRequest(http.MethodGet, "/portfolios", nil)
	req.Header.Set("Authorization", "Bearer some-token")
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rr.Code)
	}
}

func TestMiddleware_Success(t *testing.T) {
	lookup := &mockTokenLookup{user: &model.User{ID: 7, UserName: "ada"}}

	var seen *model.User
	handler := Middleware(lookup)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := GetUserFromContext(r.Context())
		if !ok {
			t.Fatal("expected user in request context")
		}
		seen = user
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/portfolios", nil)
	req.Header.Set("Authorization", "Bearer plaintext-token")
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	if seen == nil || seen.ID != 7 {
		t.Fatalf("unexpected user forwarded to handler: %+v", seen)
	}

	if lookup.gotHash != security.HashToken("plaintext-token") {
		t.Fatalf("expected the hashed token to be looked up, got %q", lookup.gotHash)
	}
}
