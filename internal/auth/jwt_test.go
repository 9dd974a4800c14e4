package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret"

func signToken(t *testing.T, claims *Claims, secret string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func validClaims() *Claims {
	return &Claims{
		UserID: "u-42",
		Name:   "Linh",
		Email:  "linh@example.com",
		Role:   RoleCustomer,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
}

func TestVerifyAccessToken(t *testing.T) {
	token := signToken(t, validClaims(), testSecret)

	claims, err := VerifyAccessToken(token, testSecret)
	if err != nil {
		t.Fatalf("VerifyAccessToken: %v", err)
	}
	if claims.UserID != "u-42" {
		t.Errorf("UserID = %q, want u-42", claims.UserID)
	}
	if claims.IsAdmin() {
		t.Error("customer role must not be admin")
	}
}

func TestVerifyAccessTokenWrongSecret(t *testing.T) {
	token := signToken(t, validClaims(), "other-secret")
	if _, err := VerifyAccessToken(token, testSecret); err == nil {
		t.Fatal("expected verification failure for wrong secret")
	}
}

func TestVerifyAccessTokenExpired(t *testing.T) {
	claims := validClaims()
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
	token := signToken(t, claims, testSecret)

	if _, err := VerifyAccessToken(token, testSecret); err == nil {
		t.Fatal("expected verification failure for expired token")
	}
}

func TestVerifyAccessTokenMissingSubject(t *testing.T) {
	claims := validClaims()
	claims.UserID = ""
	token := signToken(t, claims, testSecret)

	if _, err := VerifyAccessToken(token, testSecret); err == nil {
		t.Fatal("expected verification failure for missing user id")
	}
}

func TestIsAdmin(t *testing.T) {
	claims := validClaims()
	claims.Role = RoleAdmin
	if !claims.IsAdmin() {
		t.Error("admin role must be admin")
	}
}

func TestParseBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"Bearer abc.def.ghi", "abc.def.ghi"},
		{"bearer abc", "abc"},
		{"Basic abc", ""},
		{"abc", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := ParseBearerToken(tt.header); got != tt.want {
			t.Errorf("ParseBearerToken(%q) = %q, want %q", tt.header, got, tt.want)
		}
	}
}
