package auth

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"notesapi/crypto"
	"notesapi/models"
	"notesapi/store"
)

type fakeUsers struct {
	users map[string]*models.User
	err   error
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.users[email]
	if !ok {
		return nil, store.ErrNotFound
	}
	return u, nil
}

func newFakeUsers(t *testing.T) *fakeUsers {
	t.Helper()
	hash, err := crypto.NewHasher(4).HashPassword("pw")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	return &fakeUsers{users: map[string]*models.User{
		"a@x.com": {ID: 1, Email: "a@x.com", Username: "alice", PasswordHash: hash},
	}}
}

func TestAuthenticateSuccess(t *testing.T) {
	a := NewAuthenticator(newFakeUsers(t), crypto.NewHasher(4), nil)

	p, err := a.Authenticate(context.Background(), "a@x.com", "pw")
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	want := models.Principal{ID: 1, Email: "a@x.com", Username: "alice"}
	if p != want {
		t.Errorf("Expected principal %+v, got %+v", want, p)
	}
}

func TestAuthenticateRejectionsAreUniform(t *testing.T) {
	a := NewAuthenticator(newFakeUsers(t), crypto.NewHasher(4), nil)

	_, errWrong := a.Authenticate(context.Background(), "a@x.com", "nope")
	_, errMissing := a.Authenticate(context.Background(), "b@x.com", "pw")

	if !errors.Is(errWrong, ErrInvalidCredentials) {
		t.Errorf("Expected ErrInvalidCredentials for wrong password, got %v", errWrong)
	}
	if !errors.Is(errMissing, ErrInvalidCredentials) {
		t.Errorf("Expected ErrInvalidCredentials for unknown user, got %v", errMissing)
	}
	if errWrong.Error() != errMissing.Error() {
		t.Errorf("Rejections differ: %q vs %q", errWrong, errMissing)
	}
}

func TestAuthenticateStoreError(t *testing.T) {
	boom := errors.New("db down")
	a := NewAuthenticator(&fakeUsers{err: boom}, crypto.NewHasher(4), nil)

	_, err := a.Authenticate(context.Background(), "a@x.com", "pw")
	if !errors.Is(err, boom) {
		t.Errorf("Expected store error to propagate, got %v", err)
	}
	if errors.Is(err, ErrInvalidCredentials) {
		t.Error("Store failure must not look like a credential failure")
	}
}

func TestAuthenticateUnknownUserUsesHasherCost(t *testing.T) {
	const cost = 6
	hasher := crypto.NewHasher(cost)
	hash, _ := hasher.HashPassword("pw")
	users := &fakeUsers{users: map[string]*models.User{
		"a@x.com": {ID: 1, Email: "a@x.com", PasswordHash: hash},
	}}
	a := NewAuthenticator(users, hasher, nil)

	dummyCost, err := bcrypt.Cost([]byte(a.hasher.DummyHash()))
	if err != nil {
		t.Fatalf("bcrypt.Cost failed: %v", err)
	}
	realCost, _ := bcrypt.Cost([]byte(hash))
	if dummyCost != cost || realCost != cost {
		t.Errorf("Expected both comparison paths at cost %d, got dummy %d and stored %d", cost, dummyCost, realCost)
	}

	if _, err := a.Authenticate(context.Background(), "ghost@x.com", "pw"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Expected ErrInvalidCredentials, got %v", err)
	}
}
