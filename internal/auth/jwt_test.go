package auth

import (
	"strings"
	"testing"
)

func TestSignVerifyRoundTrip(t *testing.T) {
	j := NewJWT("test-secret")

	token, err := j.Sign(42)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	uid, err := j.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if uid != 42 {
		t.Fatalf("uid = %d, want 42", uid)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	token, err := NewJWT("secret-a").Sign(42)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := NewJWT("secret-b").Verify(token); err == nil {
		t.Fatal("token verified with wrong secret")
	}
}

func TestVerifyRejectsTamperedToken(t *testing.T) {
	j := NewJWT("test-secret")
	token, err := j.Sign(42)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	parts := strings.Split(token, ".")
	parts[1] = "eyJzdWIiOjk5OX0"
	if _, err := j.Verify(strings.Join(parts, ".")); err == nil {
		t.Fatal("tampered token verified")
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !ComparePassword(hash, "correct horse battery staple") {
		t.Fatal("matching password rejected")
	}
	if ComparePassword(hash, "wrong password") {
		t.Fatal("wrong password accepted")
	}
}
