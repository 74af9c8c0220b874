package security

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("Stronger#Pass123")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	ok, err := VerifyPassword(hash, "Stronger#Pass123")
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if !ok {
		t.Fatal("expected password verification success")
	}
	ok, err = VerifyPassword(hash, "wrong-pass")
	if err != nil {
		t.Fatalf("verify wrong password errored: %v", err)
	}
	if ok {
		t.Fatal("expected password verification failure")
	}
}

func TestVerifyLegacyBcryptHash(t *testing.T) {
	legacy, err := bcrypt.GenerateFromPassword([]byte("old-secret-1"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	ok, err := VerifyPassword(string(legacy), "old-secret-1")
	if err != nil || !ok {
		t.Fatalf("expected legacy hash to verify, got %v, %v", ok, err)
	}
	ok, err = VerifyPassword(string(legacy), "nope")
	if err != nil || ok {
		t.Fatalf("expected mismatch without error, got %v, %v", ok, err)
	}
	if !NeedsRehash(string(legacy)) {
		t.Fatal("bcrypt hashes should be upgraded")
	}
}

func TestVerifyPasswordRejectsGarbage(t *testing.T) {
	if _, err := VerifyPassword("plaintext", "plaintext"); err == nil {
		t.Fatal("expected error for unrecognized hash format")
	}
	hash, err := HashPassword("Current#Pass1")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if NeedsRehash(hash) {
		t.Fatal("fresh argon2id hash should not need rehash")
	}
}
