package jwtutil

import (
	"errors"
	"testing"
	"time"
)

func TestGenerateAndParse(t *testing.T) {
	token, err := GenerateToken("secret", time.Minute, 42, "alice")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	claims, err := ParseToken("secret", token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != 42 || claims.Username != "alice" || claims.Subject != "42" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestParseRejectsBadTokens(t *testing.T) {
	expired, err := GenerateToken("secret", -time.Minute, 1, "bob")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	valid, err := GenerateToken("secret", time.Minute, 1, "bob")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	cases := map[string]struct{ secret, token string }{
		"expired":      {"secret", expired},
		"wrong secret": {"other", valid},
		"garbage":      {"secret", "not-a-token"},
	}
	for name, tc := range cases {
		if _, err := ParseToken(tc.secret, tc.token); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("%s: expected ErrInvalidToken, got %v", name, err)
		}
	}
}
