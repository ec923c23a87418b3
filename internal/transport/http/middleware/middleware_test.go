package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/vedran77/circle/internal/domain"
)

const secret = "test-secret"

func signToken(t *testing.T, sub, role string, exp time.Time) string {
	t.Helper()
	claims := jwt.MapClaims{"sub": sub, "exp": exp.Unix()}
	if role != "" {
		claims["role"] = role
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}
	return token
}

func TestAuth(t *testing.T) {
	userID := uuid.New()
	var gotID uuid.UUID
	var gotRole string
	h := Auth(secret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = GetUserID(r.Context())
		gotRole = GetRole(r.Context())
	}))

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"garbage", "Bearer not-a-jwt", http.StatusUnauthorized},
		{"expired", "Bearer " + signToken(t, userID.String(), "", time.Now().Add(-time.Hour)), http.StatusUnauthorized},
		{"bad subject", "Bearer " + signToken(t, "nope", "", time.Now().Add(time.Hour)), http.StatusUnauthorized},
		{"valid", "Bearer " + signToken(t, userID.String(), "", time.Now().Add(time.Hour)), http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, rec.Code)
			}
			if tc.status == http.StatusUnauthorized && !strings.Contains(rec.Body.String(), `"UNAUTHORIZED"`) {
				t.Fatalf("unexpected body %s", rec.Body.String())
			}
		})
	}

	if gotID != userID || gotRole != domain.RoleUser {
		t.Fatalf("expected %s/user in context, got %s/%s", userID, gotID, gotRole)
	}
}

func TestRequireAdmin(t *testing.T) {
	h := Auth(secret)(RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})))

	for role, want := range map[string]int{
		domain.RoleUser:  http.StatusForbidden,
		domain.RoleAdmin: http.StatusNoContent,
	} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, uuid.NewString(), role, time.Now().Add(time.Hour)))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != want {
			t.Errorf("role %s: expected %d, got %d", role, want, rec.Code)
		}
	}
}

func TestCORSPreflight(t *testing.T) {
	called := false
	h := CORS("https://circle.example")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/posts", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent || called {
		t.Fatalf("preflight should stop at the middleware, got %d called=%v", rec.Code, called)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://circle.example" {
		t.Fatalf("unexpected origin %q", got)
	}
}

func TestRecover(t *testing.T) {
	h := Recover(Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError || !strings.Contains(rec.Body.String(), `"INTERNAL"`) {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}
}
