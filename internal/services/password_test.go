package services

import (
	"errors"
	"strings"
	"testing"
)

func TestPasswordHashVerify(t *testing.T) {
	h := NewPasswordHasher("pepper-value")

	encoded, err := h.Hash("hunter22")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !strings.HasPrefix(encoded, "$argon2id$") {
		t.Fatalf("unexpected encoding %q", encoded)
	}

	again, _ := h.Hash("hunter22")
	if again == encoded {
		t.Fatalf("expected per-hash salt")
	}

	ok, err := h.Verify(encoded, "hunter22")
	if err != nil || !ok {
		t.Fatalf("expected match, got %v %v", ok, err)
	}
	ok, err = h.Verify(encoded, "wrong")
	if err != nil || ok {
		t.Fatalf("expected mismatch, got %v %v", ok, err)
	}

	other := NewPasswordHasher("another-pepper")
	if ok, _ := other.Verify(encoded, "hunter22"); ok {
		t.Fatalf("expected pepper to be part of the hash")
	}
}

func TestPasswordVerifyMalformed(t *testing.T) {
	h := NewPasswordHasher("pepper-value")
	for _, enc := range []string{"", "plain", "$argon2id$v=19$bad$x$y", "$bcrypt$v=19$m=1,t=1,p=1$AA$AA"} {
		if _, err := h.Verify(enc, "pw"); !errors.Is(err, ErrMalformedHash) {
			t.Fatalf("%q: expected ErrMalformedHash, got %v", enc, err)
		}
	}
}
