package crypto

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	enc, err := NewSecretEncryptor("a passphrase")
	if err != nil {
		t.Fatalf("NewSecretEncryptor failed: %v", err)
	}

	secret := "JBSWY3DPEHPK3PXP"
	encrypted, err := enc.Encrypt(secret)
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	if encrypted == secret {
		t.Fatal("ciphertext equals plaintext")
	}

	decrypted, err := enc.Decrypt(encrypted)
	if err != nil {
		t.Fatalf("Decrypt failed: %v", err)
	}
	if decrypted != secret {
		t.Errorf("expected %q, got %q", secret, decrypted)
	}
}

func TestEncryptIsNonDeterministic(t *testing.T) {
	enc, err := NewSecretEncryptor("a passphrase")
	if err != nil {
		t.Fatalf("NewSecretEncryptor failed: %v", err)
	}

	a, _ := enc.Encrypt("secret")
	b, _ := enc.Encrypt("secret")
	if a == b {
		t.Error("expected distinct ciphertexts for the same plaintext")
	}
}

func TestEmptyStringsPassThrough(t *testing.T) {
	enc, err := NewSecretEncryptor("key")
	if err != nil {
		t.Fatalf("NewSecretEncryptor failed: %v", err)
	}

	if encrypted, _ := enc.Encrypt(""); encrypted != "" {
		t.Errorf("expected empty ciphertext, got %q", encrypted)
	}
	if decrypted, _ := enc.Decrypt(""); decrypted != "" {
		t.Errorf("expected empty plaintext, got %q", decrypted)
	}
}

func TestDecryptWithWrongKey(t *testing.T) {
	enc1, _ := NewSecretEncryptor("key one")
	enc2, _ := NewSecretEncryptor("key two")

	encrypted, err := enc1.Encrypt("secret")
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	_, err = enc2.Decrypt(encrypted)
	if !errors.Is(err, ErrDecryptionFailed) {
		t.Fatalf("expected ErrDecryptionFailed, got %v", err)
	}
}

func TestDecryptGarbage(t *testing.T) {
	enc, _ := NewSecretEncryptor("key")

	for _, input := range []string{"not base64!!", base64.StdEncoding.EncodeToString([]byte("short"))} {
		if _, err := enc.Decrypt(input); !errors.Is(err, ErrDecryptionFailed) {
			t.Errorf("input %q: expected ErrDecryptionFailed, got %v", input, err)
		}
	}
}

func TestBase64KeyUsedDirectly(t *testing.T) {
	key := base64.StdEncoding.EncodeToString([]byte(strings.Repeat("k", 32)))
	enc, err := NewSecretEncryptor(key)
	if err != nil {
		t.Fatalf("NewSecretEncryptor failed: %v", err)
	}

	encrypted, err := enc.Encrypt("secret")
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	decrypted, err := enc.Decrypt(encrypted)
	if err != nil || decrypted != "secret" {
		t.Errorf("round trip failed: %q, %v", decrypted, err)
	}
}

func TestEmptyKeyRejected(t *testing.T) {
	if _, err := NewSecretEncryptor(""); !errors.Is(err, ErrInvalidKey) {
		t.Fatalf("expected ErrInvalidKey, got %v", err)
	}
}
