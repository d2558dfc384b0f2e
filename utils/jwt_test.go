package utils

import (
	"net/http/httptest"
	"testing"
	"time"

	"taskmarket/models"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("JWT_AUD", "")
	t.Setenv("JWT_ISS", "")

	user := &models.User{
		ID:                42,
		WorldID:           "wid_42",
		NullifierHash:     "0xnullifier",
		VerificationLevel: models.VerificationOrb,
		Role:              models.RoleReviewer,
	}
	tok, err := GenerateAccessToken(user)
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}

	sc, err := ValidateAccessToken(tok)
	if err != nil {
		t.Fatalf("ValidateAccessToken: %v", err)
	}
	if sc.UserID != 42 || sc.NullifierHash != "0xnullifier" {
		t.Fatalf("claims do not round trip: %+v", sc)
	}
	if sc.VerificationLevel != models.VerificationOrb || sc.Role != models.RoleReviewer {
		t.Fatalf("level/role claims lost: %+v", sc)
	}
}

func TestValidateAccessTokenExpired(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	user := &models.User{ID: 1, NullifierHash: "0xn"}
	tok, err := GenerateAccessTokenWithExpiry(user, -time.Minute)
	if err != nil {
		t.Fatalf("GenerateAccessTokenWithExpiry: %v", err)
	}
	if _, err := ValidateAccessToken(tok); err == nil {
		t.Fatal("expired token accepted")
	}
}

func TestValidateAccessTokenWrongSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	user := &models.User{ID: 1, NullifierHash: "0xn"}
	tok, err := GenerateAccessToken(user)
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}

	t.Setenv("JWT_SECRET", "other-secret")
	if _, err := ValidateAccessToken(tok); err == nil {
		t.Fatal("token signed with a different secret accepted")
	}
}

func TestValidateAccessTokenAudienceMismatch(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("JWT_AUD", "miniapp")
	user := &models.User{ID: 1, NullifierHash: "0xn"}
	tok, err := GenerateAccessToken(user)
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}

	t.Setenv("JWT_AUD", "someone-else")
	if _, err := ValidateAccessToken(tok); err == nil {
		t.Fatal("token with wrong audience accepted")
	}
}

func TestExtractJTI(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	user := &models.User{ID: 1, NullifierHash: "0xn"}
	tok, err := GenerateAccessToken(user)
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}
	if jti := ExtractJTI(tok); len(jti) != 32 {
		t.Fatalf("jti length = %d, want 32", len(jti))
	}
	if ExtractJTI("not-a-token") != "" {
		t.Fatal("garbage token produced a jti")
	}
}

func TestBearerToken(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	if _, err := BearerToken(r); err == nil {
		t.Fatal("missing header accepted")
	}

	r.Header.Set("Authorization", "Basic abc")
	if _, err := BearerToken(r); err == nil {
		t.Fatal("non-bearer scheme accepted")
	}

	r.Header.Set("Authorization", "Bearer tok123")
	tok, err := BearerToken(r)
	if err != nil || tok != "tok123" {
		t.Fatalf("BearerToken = %q, %v", tok, err)
	}
}
