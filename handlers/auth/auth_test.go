package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestCreateAndParseJWT(t *testing.T) {
	secret := []byte("s3cret")
	token, err := CreateJWT(secret, "studio", time.Hour)
	if err != nil {
		t.Fatalf("CreateJWT() error = %v", err)
	}

	claims, err := ParseJWT(secret, token)
	if err != nil {
		t.Fatalf("ParseJWT() error = %v", err)
	}
	if claims.Subject != "studio" {
		t.Errorf("Subject = %q, want studio", claims.Subject)
	}
}

func TestParseJWTRejects(t *testing.T) {
	secret := []byte("s3cret")
	expired, _ := CreateJWT(secret, "studio", -time.Minute)
	other, _ := CreateJWT([]byte("other"), "studio", time.Hour)
	none, _ := jwt.NewWithClaims(jwt.SigningMethodNone, AppClaims{}).SignedString(jwt.UnsafeAllowNoneSignatureType)

	tests := map[string]string{
		"expired":      expired,
		"wrong secret": other,
		"alg none":     none,
		"garbage":      "not-a-token",
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseJWT(secret, token); err == nil {
				t.Error("ParseJWT() error = nil, want rejection")
			}
		})
	}
}

func TestCreateJWTRequiresSecret(t *testing.T) {
	if _, err := CreateJWT(nil, "studio", time.Hour); err == nil {
		t.Error("CreateJWT() without secret should fail")
	}
}
