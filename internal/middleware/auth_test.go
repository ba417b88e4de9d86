package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func authRoundtrip(t *testing.T, authHeader string) (*httptest.ResponseRecorder, string, string) {
	t.Helper()

	var gotUserID, gotEmail string
	handler := JWTAuth(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID = GetUserID(r.Context())
		gotEmail = GetUserEmail(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec, gotUserID, gotEmail
}

func TestJWTAuthValidToken(t *testing.T) {
	token := signToken(t, testSecret, jwt.MapClaims{
		"sub":   "user-123",
		"email": "ada@example.edu",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})

	rec, userID, email := authRoundtrip(t, "Bearer "+token)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if userID != "user-123" {
		t.Errorf("user id = %q", userID)
	}
	if email != "ada@example.edu" {
		t.Errorf("email = %q", email)
	}
}

func TestJWTAuthLegacyUserIDClaim(t *testing.T) {
	token := signToken(t, testSecret, jwt.MapClaims{
		"user_id": "user-456",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})

	rec, userID, _ := authRoundtrip(t, "Bearer "+token)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if userID != "user-456" {
		t.Errorf("user id = %q", userID)
	}
}

func TestJWTAuthRejections(t *testing.T) {
	expired := signToken(t, testSecret, jwt.MapClaims{
		"sub": "user-123",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})
	wrongKey := signToken(t, "other-secret", jwt.MapClaims{
		"sub": "user-123",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	noSubject := signToken(t, testSecret, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	testCases := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"malformed header", "Token abc"},
		{"garbage token", "Bearer not-a-jwt"},
		{"expired token", "Bearer " + expired},
		{"wrong signing key", "Bearer " + wrongKey},
		{"no subject claim", "Bearer " + noSubject},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec, userID, _ := authRoundtrip(t, tc.header)
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rec.Code)
			}
			if userID != "" {
				t.Errorf("handler ran with user id %q", userID)
			}
		})
	}
}
