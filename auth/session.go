package auth

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/sessions"

	"notesapi/models"
)

const (
	keyUserID   = "user_id"
	keyEmail    = "user_email"
	keyUsername = "user_username"
)

// SessionConfig describes the session cookie.
type SessionConfig struct {
	Name    string
	MaxAge  time.Duration
	Secure  bool
	Rolling bool
}

// CookieOptions returns the cookie attributes every store must use.
func (c SessionConfig) CookieOptions() sessions.Options {
	return sessions.Options{
		Path:     "/",
		MaxAge:   int(c.MaxAge / time.Second),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteNoneMode,
	}
}

type eraser interface {
	Erase(ctx context.Context, session *sessions.Session) error
}

// SessionManager binds a Principal to a session cookie. Only the id, email
// and username are stored, never the password hash.
type SessionManager struct {
	store sessions.Store
	cfg   SessionConfig
}

func NewSessionManager(store sessions.Store, cfg SessionConfig) *SessionManager {
	return &SessionManager{store: store, cfg: cfg}
}

// get loads the request's session. A forged or stale cookie still yields a
// usable new session; only backend failures are returned.
func (m *SessionManager) get(r *http.Request) (*sessions.Session, error) {
	session, err := m.store.Get(r, m.cfg.Name)
	var backendErr *BackendError
	if errors.As(err, &backendErr) {
		return nil, err
	}
	if session == nil {
		session = sessions.NewSession(m.store, m.cfg.Name)
		session.IsNew = true
	}
	if session.Options == nil {
		opts := m.cfg.CookieOptions()
		session.Options = &opts
	}
	return session, nil
}

// Login starts a session for p. Any session already attached to the request
// is discarded first so a pre-login id is never promoted.
func (m *SessionManager) Login(w http.ResponseWriter, r *http.Request, p models.Principal) error {
	session, err := m.get(r)
	if err != nil {
		return err
	}
	if !session.IsNew {
		if e, ok := m.store.(eraser); ok {
			if err := e.Erase(r.Context(), session); err != nil {
				return err
			}
		}
		session.Values = make(map[interface{}]interface{})
	}

	session.Values[keyUserID] = p.ID
	session.Values[keyEmail] = p.Email
	session.Values[keyUsername] = p.Username
	opts := m.cfg.CookieOptions()
	session.Options = &opts
	return session.Save(r, w)
}

// Principal returns the principal of a valid, unexpired session. The error
// is set only when the session backend could not be read.
func (m *SessionManager) Principal(r *http.Request) (models.Principal, bool, error) {
	session, err := m.get(r)
	if err != nil {
		return models.Principal{}, false, err
	}
	if session.IsNew {
		return models.Principal{}, false, nil
	}
	id, ok := session.Values[keyUserID].(int64)
	if !ok || id == 0 {
		return models.Principal{}, false, nil
	}
	email, _ := session.Values[keyEmail].(string)
	username, _ := session.Values[keyUsername].(string)
	return models.Principal{ID: id, Email: email, Username: username}, true, nil
}

// Touch extends the session lifetime when rolling sessions are enabled.
func (m *SessionManager) Touch(w http.ResponseWriter, r *http.Request) error {
	if !m.cfg.Rolling {
		return nil
	}
	session, err := m.get(r)
	if err != nil {
		return err
	}
	if session.IsNew {
		return nil
	}
	return session.Save(r, w)
}

// Logout destroys the session and clears the cookie. It succeeds when there
// is no session.
func (m *SessionManager) Logout(w http.ResponseWriter, r *http.Request) error {
	session, err := m.get(r)
	if err != nil {
		return err
	}
	session.Options.MaxAge = -1
	session.Values = make(map[interface{}]interface{})
	return session.Save(r, w)
}
