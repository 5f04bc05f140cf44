package credential

import (
	"strings"
	"testing"
)

const testMasterKey = "6368616e676520746869732070617373776f726420746f206120736563726574"

func TestAESGCM_RoundTrip(t *testing.T) {
	c, err := NewAESGCM(testMasterKey)
	if err != nil {
		t.Fatalf("new cipher: %v", err)
	}

	sealed, err := c.Encrypt("APP_USR-1234-tenant-token")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if strings.Contains(string(sealed), "APP_USR") {
		t.Fatal("ciphertext leaks the plaintext")
	}

	opened, err := c.Decrypt(sealed)
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if opened != "APP_USR-1234-tenant-token" {
		t.Fatalf("round trip mismatch: %q", opened)
	}

	again, err := c.Encrypt("APP_USR-1234-tenant-token")
	if err != nil {
		t.Fatalf("second encrypt: %v", err)
	}
	if string(again) == string(sealed) {
		t.Fatal("nonce reuse: identical ciphertexts for the same plaintext")
	}
}

func TestAESGCM_RejectsBadInput(t *testing.T) {
	if _, err := NewAESGCM("not-hex"); err == nil {
		t.Fatal("expected error for non-hex key")
	}
	if _, err := NewAESGCM("abcd"); err == nil {
		t.Fatal("expected error for short key")
	}

	c, err := NewAESGCM(testMasterKey)
	if err != nil {
		t.Fatalf("new cipher: %v", err)
	}
	if _, err := c.Decrypt([]byte("short")); err == nil {
		t.Fatal("expected error for truncated ciphertext")
	}

	sealed, err := c.Encrypt("token")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	sealed[len(sealed)-1] ^= 0xff
	if _, err := c.Decrypt(sealed); err == nil {
		t.Fatal("expected error for tampered ciphertext")
	}
}
