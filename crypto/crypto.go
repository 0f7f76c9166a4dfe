package crypto

import (
	"crypto/sha256"
	"io"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/hkdf"
)

// DefaultCost is the bcrypt work factor used when none is configured.
const DefaultCost = 10

const dummyPassword = "notesapi-dummy-password"

// Hasher hashes and verifies passwords with a fixed bcrypt cost.
type Hasher struct {
	cost  int
	dummy string
}

func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	return &Hasher{cost: cost, dummy: mustHash(dummyPassword, cost)}
}

// DummyHash is compared against when a login names an unknown user. It has
// the hasher's cost, so the not-found path takes as long as a wrong password.
func (h *Hasher) DummyHash() string {
	return h.dummy
}

func (h *Hasher) HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	return string(bytes), err
}

func (h *Hasher) CheckPasswordHash(password, hash string) bool {
	return CheckPasswordHash(password, hash)
}

// CheckPasswordHash reports whether password matches the bcrypt hash; the
// cost is read from the hash itself.
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// DeriveSessionKeys expands the configured session secret into a 32-byte
// HMAC key and a 32-byte AES key for cookie codecs.
func DeriveSessionKeys(secret string) (authKey, encKey []byte, err error) {
	r := hkdf.New(sha256.New, []byte(secret), nil, []byte("notesapi session keys"))
	authKey = make([]byte, 32)
	encKey = make([]byte, 32)
	if _, err = io.ReadFull(r, authKey); err != nil {
		return nil, nil, err
	}
	if _, err = io.ReadFull(r, encKey); err != nil {
		return nil, nil, err
	}
	return authKey, encKey, nil
}

// DeriveCSRFKey expands the session secret into the 32-byte key used to
// sign CSRF tokens, independent of the cookie codec keys.
func DeriveCSRFKey(secret string) ([]byte, error) {
	r := hkdf.New(sha256.New, []byte(secret), nil, []byte("notesapi csrf key"))
	key := make([]byte, 32)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, err
	}
	return key, nil
}

func mustHash(password string, cost int) string {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		panic(err)
	}
	return string(bytes)
}
