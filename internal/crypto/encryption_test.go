package crypto

import (
	"io"
	"log/slog"
	"strings"
	"testing"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	svc, err := New("test-encryption-secret", slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}
	return svc
}

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	svc := newTestService(t)

	for _, plaintext := range []string{"4111111111111111", "x", "hello world", "378282246310005"} {
		encrypted, err := svc.Encrypt(plaintext)
		if err != nil {
			t.Fatalf("Encrypt(%q): %v", plaintext, err)
		}
		decrypted, err := svc.Decrypt(encrypted)
		if err != nil {
			t.Fatalf("Decrypt: %v", err)
		}
		if decrypted != plaintext {
			t.Errorf("round trip: got %q, want %q", decrypted, plaintext)
		}
	}
}

func TestEncrypt_NonDeterministic(t *testing.T) {
	svc := newTestService(t)

	first, err := svc.Encrypt("4111111111111111")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := svc.Encrypt("4111111111111111")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if first == second {
		t.Error("two encryptions of the same value must not be linkable")
	}

	for _, ct := range []string{first, second} {
		pt, err := svc.Decrypt(ct)
		if err != nil || pt != "4111111111111111" {
			t.Errorf("both ciphertexts must decrypt to the original: got %q, %v", pt, err)
		}
	}
}

func TestEncrypt_CiphertextLongerThanPlaintext(t *testing.T) {
	svc := newTestService(t)

	encrypted, err := svc.Encrypt("4111111111111111")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(encrypted) <= len("4111111111111111") {
		t.Errorf("ciphertext length %d must exceed plaintext length (nonce + tag overhead)", len(encrypted))
	}
	if len(encrypted) <= encryptedLengthThreshold {
		t.Errorf("ciphertext length %d must exceed the detection threshold", len(encrypted))
	}
}

func TestDecrypt_TamperedInput(t *testing.T) {
	svc := newTestService(t)

	encrypted, err := svc.Encrypt("4111111111111111")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tampered := []string{
		"not-base64!!!",
		encrypted[:len(encrypted)-8] + "AAAAAAA=",
		"QUJD", // valid base64, shorter than a nonce
	}
	for _, input := range tampered {
		if _, err := svc.Decrypt(input); err != ErrEncryption {
			t.Errorf("Decrypt(%q): got %v, want generic ErrEncryption", input, err)
		}
	}
}

func TestDecrypt_WrongKey(t *testing.T) {
	svc := newTestService(t)
	other, err := New("a-different-secret", slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}

	encrypted, err := svc.Encrypt("secret value")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := other.Decrypt(encrypted); err != ErrEncryption {
		t.Errorf("decrypt under wrong key: got %v, want ErrEncryption", err)
	}
}

func TestEncryptCardNumber_StripsFormatting(t *testing.T) {
	svc := newTestService(t)

	encrypted, err := svc.EncryptCardNumber("4111-1111 1111.1111")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	decrypted, err := svc.DecryptCardNumber(encrypted)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decrypted != "4111111111111111" {
		t.Errorf("round trip must yield the digit-only string, got %q", decrypted)
	}
}

func TestMaskCardNumber(t *testing.T) {
	svc := newTestService(t)

	t.Run("plaintext 16 digits", func(t *testing.T) {
		got := svc.MaskCardNumber("4111111111111111")
		if got != "**** **** **** 1111" {
			t.Errorf("got %q, want %q", got, "**** **** **** 1111")
		}
		if len(got) != 19 {
			t.Errorf("masked length: got %d, want 19", len(got))
		}
	})

	t.Run("encrypted value decrypted before masking", func(t *testing.T) {
		encrypted, err := svc.EncryptCardNumber("5555555555554444")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		got := svc.MaskCardNumber(encrypted)
		if got != "**** **** **** 4444" {
			t.Errorf("got %q, want %q", got, "**** **** **** 4444")
		}
		if strings.Contains(got, "5555") {
			t.Errorf("masked output leaks card digits: %q", got)
		}
	})

	t.Run("undecryptable long value fully masked", func(t *testing.T) {
		got := svc.MaskCardNumber(strings.Repeat("X", 40))
		if got != fullyMaskedCard {
			t.Errorf("got %q, want %q", got, fullyMaskedCard)
		}
	})

	t.Run("15 digit amex", func(t *testing.T) {
		got := svc.MaskCardNumber("378282246310005")
		if got != "**** **** ***0 005" {
			t.Errorf("got %q, want %q", got, "**** **** ***0 005")
		}
	})

	t.Run("short value", func(t *testing.T) {
		if got := svc.MaskCardNumber("123"); got != "***" {
			t.Errorf("got %q, want ***", got)
		}
	})
}
