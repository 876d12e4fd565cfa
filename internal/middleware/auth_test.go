package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestSignAndParseRoundTrip(t *testing.T) {
	tok, err := SignToken("u1", "sam@example.com", "Sam", time.Hour)
	if err != nil {
		t.Fatalf("SignToken error: %v", err)
	}
	c, err := parseToken(tok)
	if err != nil {
		t.Fatalf("parseToken error: %v", err)
	}
	if c.UID != "u1" || c.Email != "sam@example.com" || c.Name != "Sam" {
		t.Fatalf("claims = %+v", c)
	}
}

func TestParseRejectsExpiredToken(t *testing.T) {
	tok, err := SignToken("u1", "sam@example.com", "", -time.Minute)
	if err != nil {
		t.Fatalf("SignToken error: %v", err)
	}
	if _, err := parseToken(tok); err == nil {
		t.Fatalf("expected error for expired token")
	}
}

func TestWithAuthAttachesClaims(t *testing.T) {
	tok, err := SignToken("u1", "sam@example.com", "", time.Hour)
	if err != nil {
		t.Fatalf("SignToken error: %v", err)
	}

	var gotUID string
	h := WithAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUID, _ = UserIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	h.ServeHTTP(httptest.NewRecorder(), req)

	if gotUID != "u1" {
		t.Fatalf("uid from context = %q, want u1", gotUID)
	}
}

func TestRequireAuthRejectsAnonymous(t *testing.T) {
	h := WithAuth(RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401 for bad token", rec.Code)
	}
}
