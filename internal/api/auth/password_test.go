package auth

import "testing"

func TestHashPasswordAndVerify(t *testing.T) {
	password := "sun-salutation-108"

	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if hash == "" {
		t.Fatal("expected non-empty hash")
	}
	if hash == password {
		t.Fatal("expected hash to differ from password")
	}

	if !VerifyPassword(hash, password) {
		t.Fatal("expected password to verify")
	}
	if VerifyPassword(hash, "wrong") {
		t.Fatal("expected password mismatch to fail")
	}
}

func TestVerifyPasswordWithInvalidHash(t *testing.T) {
	if VerifyPassword("not-a-valid-hash", "password") {
		t.Fatal("expected invalid hash to fail verification")
	}
}

func TestCheckHash(t *testing.T) {
	hash, err := HashPassword("warrior-two")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if err := CheckHash(hash); err != nil {
		t.Fatalf("CheckHash(valid) = %v", err)
	}
	if err := CheckHash("warrior-two"); err == nil {
		t.Fatal("plaintext password accepted as a hash")
	}
}
