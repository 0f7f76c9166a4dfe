package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/sessions"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"notesapi/auth"
	"notesapi/config"
	"notesapi/crypto"
	"notesapi/db"
	"notesapi/handlers"
	"notesapi/store"
)

const sessionCleanupInterval = time.Minute

// App holds the assembled HTTP handler and the resources behind it.
type App struct {
	Handler http.Handler

	conn    *sql.DB
	cancel  context.CancelFunc
	closers []func() error
}

// New opens and migrates the database, builds the session store selected by
// cfg.SessionBackend and wires the router. Close releases everything.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SecretGenerated {
		logger.Warn("no session secret configured, using a random one; sessions will not survive a restart")
	}

	conn, err := db.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		return nil, err
	}
	a := &App{conn: conn, closers: []func() error{conn.Close}}

	if err := db.Migrate(ctx, conn, cfg.DatabaseDriver); err != nil {
		a.Close()
		return nil, err
	}

	bgCtx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	sessionStore, err := a.newSessionStore(bgCtx, cfg, logger)
	if err != nil {
		a.Close()
		return nil, err
	}

	var csrfKey []byte
	if cfg.CSRFEnabled {
		if csrfKey, err = crypto.DeriveCSRFKey(cfg.SessionSecret); err != nil {
			a.Close()
			return nil, err
		}
	}

	st := store.New(conn)
	hasher := crypto.NewHasher(cfg.BcryptCost)
	sessionCfg := sessionConfig(cfg)
	handler, err := handlers.NewHTTPHandler(handlers.Dependencies{
		Users:                st.Users(),
		Notes:                st.Notes(),
		Registrar:            st,
		Authenticator:        auth.NewAuthenticator(st.Users(), hasher, logger),
		Sessions:             auth.NewSessionManager(sessionStore, sessionCfg),
		Hasher:               hasher,
		Logger:               logger,
		AllowedOrigins:       cfg.AllowedOrigins,
		CaptchaRequired:      cfg.CaptchaRequired,
		CSRFKey:              csrfKey,
		CookieSecure:         cfg.SessionCookieSecure,
		RateLimitMaxAttempts: cfg.RateLimitMaxAttempts,
		RateLimitWindow:      cfg.RateLimitWindow,
	})
	if err != nil {
		a.Close()
		return nil, err
	}

	if cfg.BasePath != "" {
		handler = stripBasePath(cfg.BasePath, handler)
	}
	a.Handler = handler

	logger.Info("application ready",
		zap.String("database_driver", cfg.DatabaseDriver),
		zap.String("session_backend", cfg.SessionBackend),
		zap.Duration("session_max_age", cfg.SessionMaxAge),
	)
	return a, nil
}

// stripBasePath removes prefix before routing. The bare prefix is served as
// the root so it never redirects out of the mount.
func stripBasePath(prefix string, next http.Handler) http.Handler {
	strip := http.StripPrefix(prefix, next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == prefix {
			r = r.Clone(r.Context())
			r.URL.Path = prefix + "/"
			r.URL.RawPath = ""
		}
		strip.ServeHTTP(w, r)
	})
}

func sessionConfig(cfg config.Config) auth.SessionConfig {
	return auth.SessionConfig{
		Name:    cfg.SessionName,
		MaxAge:  cfg.SessionMaxAge,
		Secure:  cfg.SessionCookieSecure,
		Rolling: cfg.SessionRolling,
	}
}

func (a *App) newSessionStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (sessions.Store, error) {
	authKey, encKey, err := crypto.DeriveSessionKeys(cfg.SessionSecret)
	if err != nil {
		return nil, fmt.Errorf("derive session keys: %w", err)
	}
	opts := sessionConfig(cfg).CookieOptions()

	switch cfg.SessionBackend {
	case "sql":
		backend := auth.NewSQLBackend(a.conn)
		go backend.RunCleanup(ctx, sessionCleanupInterval, logger)
		return auth.NewServerStore(backend, opts, authKey, encKey), nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		a.closers = append(a.closers, client.Close)
		return auth.NewServerStore(auth.NewRedisBackend(client), opts, authKey, encKey), nil
	case "cookie":
		cs := sessions.NewCookieStore(authKey, encKey)
		cs.Options = &opts
		cs.MaxAge(opts.MaxAge)
		return cs, nil
	default:
		return nil, fmt.Errorf("unsupported session backend %q", cfg.SessionBackend)
	}
}

// Close stops background work and releases connections in reverse order.
func (a *App) Close() error {
	if a.cancel != nil {
		a.cancel()
	}
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// Migrate opens the configured database and applies pending migrations.
func Migrate(ctx context.Context, cfg config.Config) error {
	conn, err := db.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	defer conn.Close()
	return db.Migrate(ctx, conn, cfg.DatabaseDriver)
}
