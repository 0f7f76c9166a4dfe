package crypto

import (
	"bytes"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHashing(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)
	password := "mypassword"

	hash, err := h.HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}

	if !h.CheckPasswordHash(password, hash) {
		t.Error("CheckPasswordHash failed for correct password")
	}
	if h.CheckPasswordHash("wrongpassword", hash) {
		t.Error("CheckPasswordHash succeeded for wrong password")
	}
}

func TestHashPasswordIsSalted(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)
	h1, _ := h.HashPassword("pw")
	h2, _ := h.HashPassword("pw")

	if h1 == h2 {
		t.Error("HashPassword produced identical hashes for the same input")
	}
}

func TestNewHasherCost(t *testing.T) {
	if got := NewHasher(0).cost; got != DefaultCost {
		t.Errorf("Expected out-of-range cost to fall back to %d, got %d", DefaultCost, got)
	}

	hash, _ := NewHasher(DefaultCost).HashPassword("pw")
	cost, err := bcrypt.Cost([]byte(hash))
	if err != nil || cost != DefaultCost {
		t.Errorf("Expected cost %d, got %d (%v)", DefaultCost, cost, err)
	}
}

func TestDummyHashNeverMatchesEmpty(t *testing.T) {
	if CheckPasswordHash("", NewHasher(bcrypt.MinCost).DummyHash()) {
		t.Error("DummyHash matched an empty password")
	}
}

func TestDummyHashUsesConfiguredCost(t *testing.T) {
	for _, want := range []int{bcrypt.MinCost, 6, DefaultCost} {
		h := NewHasher(want)
		dummyCost, err := bcrypt.Cost([]byte(h.DummyHash()))
		if err != nil {
			t.Fatalf("bcrypt.Cost failed: %v", err)
		}
		hash, _ := h.HashPassword("pw")
		realCost, _ := bcrypt.Cost([]byte(hash))
		if dummyCost != want || realCost != want {
			t.Errorf("cost %d: dummy hash cost %d, password hash cost %d", want, dummyCost, realCost)
		}
	}
}

func TestDeriveSessionKeys(t *testing.T) {
	a1, e1, err := DeriveSessionKeys("secret")
	if err != nil {
		t.Fatalf("DeriveSessionKeys failed: %v", err)
	}
	a2, e2, _ := DeriveSessionKeys("secret")

	if !bytes.Equal(a1, a2) || !bytes.Equal(e1, e2) {
		t.Error("DeriveSessionKeys with same secret produced different keys")
	}
	if bytes.Equal(a1, e1) {
		t.Error("auth and encryption keys must differ")
	}
	if len(a1) != 32 || len(e1) != 32 {
		t.Errorf("Expected 32-byte keys, got %d and %d", len(a1), len(e1))
	}

	a3, _, _ := DeriveSessionKeys("other")
	if bytes.Equal(a1, a3) {
		t.Error("different secrets produced the same auth key")
	}
}

func TestDeriveCSRFKey(t *testing.T) {
	key, err := DeriveCSRFKey("secret")
	if err != nil {
		t.Fatalf("DeriveCSRFKey failed: %v", err)
	}
	if len(key) != 32 {
		t.Errorf("Expected 32-byte key, got %d", len(key))
	}
	authKey, encKey, _ := DeriveSessionKeys("secret")
	if bytes.Equal(key, authKey) || bytes.Equal(key, encKey) {
		t.Error("CSRF key must differ from the session keys")
	}
}
