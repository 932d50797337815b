package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/carddemo/carddemo-api/internal/models"
)

const testSecret = "test-secret-key-for-token-tests"

func testUser() *models.User {
	return &models.User{
		ID:       42,
		Username: "alice",
		Email:    "alice@example.com",
		IsActive: true,
	}
}

func TestIssueAndValidate(t *testing.T) {
	tm := NewTokenManager(testSecret, 30*time.Minute)

	token, err := tm.Issue(testUser(), 0)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if token == "" {
		t.Fatal("Issue() returned empty token")
	}

	claims, err := tm.Validate(token)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	if claims.Subject != "42" {
		t.Errorf("Subject = %q, want %q", claims.Subject, "42")
	}
	if claims.Username != "alice" {
		t.Errorf("Username = %q, want %q", claims.Username, "alice")
	}
	if claims.Email != "alice@example.com" {
		t.Errorf("Email = %q, want %q", claims.Email, "alice@example.com")
	}
	if !claims.Active {
		t.Error("Active = false, want true")
	}
	if claims.ID == "" {
		t.Error("expected non-empty JTI")
	}

	id, err := tm.UserID(claims)
	if err != nil {
		t.Fatalf("UserID() error = %v", err)
	}
	if id != 42 {
		t.Errorf("UserID() = %d, want 42", id)
	}
}

func TestValidateExpiredToken(t *testing.T) {
	tm := NewTokenManager(testSecret, 30*time.Minute)

	token, err := tm.Issue(testUser(), -time.Minute)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	if _, err := tm.Validate(token); err == nil {
		t.Fatal("Validate() accepted expired token")
	}
}

func TestValidateWrongSecret(t *testing.T) {
	tm := NewTokenManager(testSecret, 30*time.Minute)
	other := NewTokenManager("a-completely-different-secret", 30*time.Minute)

	token, err := tm.Issue(testUser(), 0)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	if _, err := other.Validate(token); err == nil {
		t.Fatal("Validate() accepted token signed with another secret")
	}
}

func TestValidateMalformedToken(t *testing.T) {
	tm := NewTokenManager(testSecret, 30*time.Minute)

	tests := []string{
		"",
		"not-a-jwt",
		"aaa.bbb.ccc",
	}
	for _, tc := range tests {
		if _, err := tm.Validate(tc); err == nil {
			t.Errorf("Validate(%q) accepted malformed token", tc)
		}
	}
}

func TestIssuedTokensAreUnique(t *testing.T) {
	tm := NewTokenManager(testSecret, 30*time.Minute)

	a, err := tm.Issue(testUser(), 0)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	b, err := tm.Issue(testUser(), 0)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if a == b {
		t.Error("two tokens for the same user should differ (unique JTI)")
	}
}

func TestUserIDRejectsNonNumericSubject(t *testing.T) {
	tm := NewTokenManager(testSecret, 30*time.Minute)

	claims := &models.TokenClaims{}
	claims.Subject = "not-a-number"
	if _, err := tm.UserID(claims); err == nil {
		t.Fatal("UserID() accepted non-numeric subject")
	}
}

func TestTokenHasThreeSegments(t *testing.T) {
	tm := NewTokenManager(testSecret, 30*time.Minute)

	token, err := tm.Issue(testUser(), 0)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if got := len(strings.Split(token, ".")); got != 3 {
		t.Errorf("token has %d segments, want 3", got)
	}
}
