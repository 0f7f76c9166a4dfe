package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"notesapi/auth"
	"notesapi/models"
	"notesapi/store"
)

var (
	errMissingUsers         = errors.New("user repository dependency required")
	errMissingNotes         = errors.New("note repository dependency required")
	errMissingRegistrar     = errors.New("registrar dependency required")
	errMissingAuthenticator = errors.New("authenticator dependency required")
	errMissingSessions      = errors.New("session manager dependency required")
	errMissingHasher        = errors.New("password hasher dependency required")
)

// Registrar creates an account. hashPassword is called only when the email
// is free.
type Registrar interface {
	Register(ctx context.Context, user *models.User, hashPassword func() (string, error)) error
}

type PasswordHasher interface {
	HashPassword(password string) (string, error)
}

type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (models.Principal, error)
}

type Dependencies struct {
	Users         store.UserRepository
	Notes         store.NoteRepository
	Registrar     Registrar
	Authenticator Authenticator
	Sessions      *auth.SessionManager
	Hasher        PasswordHasher
	Logger        *zap.Logger

	AllowedOrigins  []string
	CaptchaRequired bool
	// CSRFKey enables CSRF protection when set; it must be 32 bytes.
	CSRFKey      []byte
	CookieSecure bool

	RateLimitMaxAttempts int
	RateLimitWindow      time.Duration
}

type Handler struct {
	users         store.UserRepository
	notes         store.NoteRepository
	registrar     Registrar
	authenticator Authenticator
	sessions      *auth.SessionManager
	hasher        PasswordHasher
	logger        *zap.Logger

	captchaRequired bool
	csrfEnabled     bool

	loginLimiter  *RateLimiter
	signupLimiter *RateLimiter
}

// NewHTTPHandler wires every route behind the shared middleware chain. All
// entry points (server, serverless) serve the handler returned here.
func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	switch {
	case deps.Users == nil:
		return nil, errMissingUsers
	case deps.Notes == nil:
		return nil, errMissingNotes
	case deps.Registrar == nil:
		return nil, errMissingRegistrar
	case deps.Authenticator == nil:
		return nil, errMissingAuthenticator
	case deps.Sessions == nil:
		return nil, errMissingSessions
	case deps.Hasher == nil:
		return nil, errMissingHasher
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	h := &Handler{
		users:           deps.Users,
		notes:           deps.Notes,
		registrar:       deps.Registrar,
		authenticator:   deps.Authenticator,
		sessions:        deps.Sessions,
		hasher:          deps.Hasher,
		logger:          logger,
		captchaRequired: deps.CaptchaRequired,
		csrfEnabled:     len(deps.CSRFKey) > 0,
		loginLimiter:    NewRateLimiter(deps.RateLimitMaxAttempts, deps.RateLimitWindow),
		signupLimiter:   NewRateLimiter(deps.RateLimitMaxAttempts, deps.RateLimitWindow),
	}

	mux := http.NewServeMux()
	h.RegisterHandlers(mux)

	handler := jsonErrors(mux)
	if h.csrfEnabled {
		handler = CSRFMiddleware(deps.CSRFKey, deps.CookieSecure, deps.AllowedOrigins)(handler)
	}
	handler = CORSMiddleware(deps.AllowedOrigins)(handler)
	handler = SecurityHeadersMiddleware(handler)
	handler = RequestLogger(logger)(handler)
	handler = Recoverer(logger)(handler)
	return handler, nil
}

func (h *Handler) RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.IndexHandler)

	mux.HandleFunc("POST /login", h.LoginHandler)
	mux.HandleFunc("POST /register", h.RegisterHandler)
	mux.HandleFunc("GET /logout", h.LogoutHandler)

	mux.Handle("POST /auth/user", h.RequireSession(http.HandlerFunc(h.UserLookupHandler)))
	mux.Handle("POST /auth/user/profile", h.RequireSession(http.HandlerFunc(h.UserLookupHandler)))

	mux.Handle("GET /notes/show/{id}", h.RequireSession(http.HandlerFunc(h.ListNotesHandler)))
	mux.Handle("POST /notes/add/{id}", h.RequireSession(http.HandlerFunc(h.AddNoteHandler)))
	mux.Handle("POST /notes/add/{id}/{$}", h.RequireSession(http.HandlerFunc(h.AddNoteHandler)))
	mux.Handle("DELETE /notes/delete/{user_id}/{note_id}", h.RequireSession(http.HandlerFunc(h.DeleteNoteHandler)))
	mux.Handle("PATCH /notes/edit/{user_id}/{note_id}", h.RequireSession(http.HandlerFunc(h.EditNoteHandler)))

	mux.HandleFunc("GET /captcha", h.NewCaptchaHandler)
	mux.Handle("GET /captcha/{file}", CaptchaImageHandler())

	if h.csrfEnabled {
		mux.HandleFunc("GET /csrf", CSRFTokenHandler)
	}
}

func (h *Handler) IndexHandler(w http.ResponseWriter, r *http.Request) {
	sendMessage(w, r, http.StatusOK, "APIRunning")
}
