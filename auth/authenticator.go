package auth

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"notesapi/crypto"
	"notesapi/models"
	"notesapi/store"
)

// ErrInvalidCredentials is returned for both an unknown email and a wrong
// password so callers cannot tell the two apart.
var ErrInvalidCredentials = errors.New("invalid credentials")

type UserLookup interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// Authenticator is the local email/password strategy.
type Authenticator struct {
	users  UserLookup
	hasher *crypto.Hasher
	logger *zap.Logger
}

// NewAuthenticator verifies passwords with hasher, which must use the same
// cost as stored hashes so unknown emails cost as much as wrong passwords.
func NewAuthenticator(users UserLookup, hasher *crypto.Hasher, logger *zap.Logger) *Authenticator {
	if hasher == nil {
		hasher = crypto.NewHasher(crypto.DefaultCost)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Authenticator{users: users, hasher: hasher, logger: logger}
}

func (a *Authenticator) Authenticate(ctx context.Context, email, password string) (models.Principal, error) {
	user, err := a.users.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return models.Principal{}, err
	}

	// Timing attack mitigation: always check a password
	targetHash := a.hasher.DummyHash()
	if user != nil {
		targetHash = user.PasswordHash
	}
	match := a.hasher.CheckPasswordHash(password, targetHash)

	if user == nil {
		a.logger.Debug("login rejected", zap.String("reason", "not-found"))
		return models.Principal{}, ErrInvalidCredentials
	}
	if !match {
		a.logger.Debug("login rejected", zap.String("reason", "bad-credential"), zap.Int64("user_id", user.ID))
		return models.Principal{}, ErrInvalidCredentials
	}

	return user.Principal(), nil
}
