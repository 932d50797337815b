package auth

import "testing"

func TestHashPassword_FreshSaltEachCall(t *testing.T) {
	password := "Sup3rSecure!"

	hash1, err := HashPassword(password, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	hash2, err := HashPassword(password, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if hash1 == hash2 {
		t.Error("two hashes of the same password must differ (fresh salt)")
	}
	if !ComparePassword(hash1, password) {
		t.Error("first hash should verify")
	}
	if !ComparePassword(hash2, password) {
		t.Error("second hash should verify")
	}
	if ComparePassword(hash1, "wrong-password") {
		t.Error("wrong password should not verify")
	}
}

func TestHashPassword_EmptyPassword(t *testing.T) {
	if _, err := HashPassword("", 4); err == nil {
		t.Error("expected error for empty password")
	}
}

func TestHashPassword_OutOfRangeCostFallsBack(t *testing.T) {
	hash, err := HashPassword("Sup3rSecure!", 99)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ComparePassword(hash, "Sup3rSecure!") {
		t.Error("hash with fallback cost should verify")
	}
}

func TestComparePassword_MalformedHash(t *testing.T) {
	if ComparePassword("not-a-bcrypt-hash", "anything") {
		t.Error("malformed hash must compare as false, not panic")
	}
}
