package auth

import (
	"context"
	"encoding/base32"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
)

// Backend persists encoded session payloads by id.
type Backend interface {
	Load(ctx context.Context, id string) (data string, found bool, err error)
	Save(ctx context.Context, id, data string, expiresAt time.Time) error
	Erase(ctx context.Context, id string) error
}

// BackendError marks a failure of the session backend itself, as opposed to
// a forged or expired cookie.
type BackendError struct {
	Err error
}

func (e *BackendError) Error() string { return "session backend: " + e.Err.Error() }

func (e *BackendError) Unwrap() error { return e.Err }

// ServerStore is a sessions.Store that keeps values on the server. The
// cookie carries only the signed session id.
type ServerStore struct {
	Codecs  []securecookie.Codec
	Options *sessions.Options

	backend Backend
	now     func() time.Time
}

var _ sessions.Store = (*ServerStore)(nil)

func NewServerStore(backend Backend, opts sessions.Options, keyPairs ...[]byte) *ServerStore {
	s := &ServerStore{
		Codecs:  securecookie.CodecsFromPairs(keyPairs...),
		Options: &opts,
		backend: backend,
		now:     time.Now,
	}
	for _, codec := range s.Codecs {
		if sc, ok := codec.(*securecookie.SecureCookie); ok {
			sc.MaxAge(opts.MaxAge)
		}
	}
	return s
}

func (s *ServerStore) Get(r *http.Request, name string) (*sessions.Session, error) {
	return sessions.GetRegistry(r).Get(s, name)
}

// New returns a fresh session when the cookie is missing, forged, or points
// at an expired or deleted record.
func (s *ServerStore) New(r *http.Request, name string) (*sessions.Session, error) {
	session := sessions.NewSession(s, name)
	opts := *s.Options
	session.Options = &opts
	session.IsNew = true

	c, errCookie := r.Cookie(name)
	if errCookie != nil {
		return session, nil
	}

	var id string
	if err := securecookie.DecodeMulti(name, c.Value, &id, s.Codecs...); err != nil {
		return session, err
	}

	data, found, err := s.backend.Load(r.Context(), id)
	if err != nil {
		return session, &BackendError{Err: err}
	}
	if !found {
		return session, nil
	}
	if err := securecookie.DecodeMulti(name, data, &session.Values, s.Codecs...); err != nil {
		return session, err
	}
	session.ID = id
	session.IsNew = false
	return session, nil
}

// Save persists the session or, when MaxAge <= 0, deletes it and expires the
// cookie.
func (s *ServerStore) Save(r *http.Request, w http.ResponseWriter, session *sessions.Session) error {
	if session.Options.MaxAge <= 0 {
		if err := s.Erase(r.Context(), session); err != nil {
			return err
		}
		http.SetCookie(w, sessions.NewCookie(session.Name(), "", session.Options))
		return nil
	}

	if session.ID == "" {
		session.ID = newSessionID()
	}

	data, err := securecookie.EncodeMulti(session.Name(), session.Values, s.Codecs...)
	if err != nil {
		return err
	}
	expiresAt := s.now().Add(time.Duration(session.Options.MaxAge) * time.Second)
	if err := s.backend.Save(r.Context(), session.ID, data, expiresAt); err != nil {
		return err
	}

	encoded, err := securecookie.EncodeMulti(session.Name(), session.ID, s.Codecs...)
	if err != nil {
		return err
	}
	http.SetCookie(w, sessions.NewCookie(session.Name(), encoded, session.Options))
	return nil
}

// Erase drops the server-side record and forgets the id, so the next Save
// issues a new one.
func (s *ServerStore) Erase(ctx context.Context, session *sessions.Session) error {
	if session.ID == "" {
		return nil
	}
	if err := s.backend.Erase(ctx, session.ID); err != nil {
		return err
	}
	session.ID = ""
	return nil
}

func newSessionID() string {
	key := securecookie.GenerateRandomKey(32)
	if key == nil {
		// If we can't generate random numbers, the system is in a critical state.
		panic(errors.New("critical security error: failed to generate session id"))
	}
	return strings.TrimRight(base32.StdEncoding.EncodeToString(key), "=")
}
