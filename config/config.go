package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	envPrefix = "NOTES"

	placeholderSecret = "CHANGE_ME_IN_PRODUCTION"
)

type Config struct {
	AppName  string
	LogLevel string

	HTTPAddress string
	// BasePath is stripped from incoming paths, e.g. "/api" behind a functions gateway.
	BasePath string

	DatabaseDriver string
	DatabaseDSN    string

	SessionSecret       string
	SessionName         string
	SessionMaxAge       time.Duration
	SessionRolling      bool
	SessionCookieSecure bool
	SessionBackend      string
	// SecretGenerated is set when no secret was configured and a random one was used.
	SecretGenerated bool

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	AllowedOrigins  []string
	CSRFEnabled     bool
	CaptchaRequired bool
	BcryptCost      int

	RateLimitMaxAttempts int
	RateLimitWindow      time.Duration
}

// ApplyDefaults configures defaults and env bindings on v.
func ApplyDefaults(v *viper.Viper) {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("app_name", "notesapi")
	v.SetDefault("log.level", "info")
	v.SetDefault("http.address", "0.0.0.0:4000")
	v.SetDefault("http.base_path", "")
	v.SetDefault("database.driver", "sqlite3")
	v.SetDefault("database.dsn", "notes.db?_foreign_keys=on")
	v.SetDefault("session.secret", "")
	v.SetDefault("session.name", "notes_session")
	v.SetDefault("session.max_age", 60*time.Second)
	v.SetDefault("session.rolling", true)
	v.SetDefault("session.cookie_secure", false)
	v.SetDefault("session.backend", "sql")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("cors.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("csrf.enabled", false)
	v.SetDefault("captcha.required", false)
	v.SetDefault("auth.bcrypt_cost", 10)
	v.SetDefault("ratelimit.max_attempts", 5)
	v.SetDefault("ratelimit.window", 15*time.Minute)
}

// NewViper returns a viper instance with defaults and env bindings configured.
func NewViper() *viper.Viper {
	v := viper.New()
	ApplyDefaults(v)
	return v
}

// LoadConfig reads the optional file at path (any format viper understands)
// on top of defaults and NOTES_* environment variables.
func LoadConfig(path string) (Config, error) {
	v := NewViper()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}
	return Load(v)
}

// Load builds a Config from an already prepared viper instance.
func Load(v *viper.Viper) (Config, error) {
	cfg := Config{
		AppName:              v.GetString("app_name"),
		LogLevel:             v.GetString("log.level"),
		HTTPAddress:          v.GetString("http.address"),
		BasePath:             strings.TrimRight(v.GetString("http.base_path"), "/"),
		DatabaseDriver:       v.GetString("database.driver"),
		DatabaseDSN:          v.GetString("database.dsn"),
		SessionSecret:        v.GetString("session.secret"),
		SessionName:          v.GetString("session.name"),
		SessionMaxAge:        v.GetDuration("session.max_age"),
		SessionRolling:       v.GetBool("session.rolling"),
		SessionCookieSecure:  v.GetBool("session.cookie_secure"),
		SessionBackend:       strings.ToLower(v.GetString("session.backend")),
		RedisAddr:            v.GetString("redis.addr"),
		RedisPassword:        v.GetString("redis.password"),
		RedisDB:              v.GetInt("redis.db"),
		AllowedOrigins:       v.GetStringSlice("cors.allowed_origins"),
		CSRFEnabled:          v.GetBool("csrf.enabled"),
		CaptchaRequired:      v.GetBool("captcha.required"),
		BcryptCost:           v.GetInt("auth.bcrypt_cost"),
		RateLimitMaxAttempts: v.GetInt("ratelimit.max_attempts"),
		RateLimitWindow:      v.GetDuration("ratelimit.window"),
	}

	// If no secret is provided or it's the placeholder, generate a random one
	if cfg.SessionSecret == "" || cfg.SessionSecret == placeholderSecret {
		randomKey := make([]byte, 32)
		if _, err := rand.Read(randomKey); err != nil {
			return Config{}, err
		}
		cfg.SessionSecret = hex.EncodeToString(randomKey)
		cfg.SecretGenerated = true
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.DatabaseDriver {
	case "sqlite3", "pgx":
	default:
		return fmt.Errorf("unsupported database.driver %q", c.DatabaseDriver)
	}
	if strings.TrimSpace(c.DatabaseDSN) == "" {
		return errors.New("database.dsn is required")
	}
	switch c.SessionBackend {
	case "sql", "redis", "cookie":
	default:
		return fmt.Errorf("unsupported session.backend %q", c.SessionBackend)
	}
	if strings.TrimSpace(c.SessionName) == "" {
		return errors.New("session.name is required")
	}
	// Cookie lifetimes are whole seconds; anything shorter would expire on save.
	if c.SessionMaxAge < time.Second {
		return fmt.Errorf("session.max_age %v must be at least 1s", c.SessionMaxAge)
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return fmt.Errorf("auth.bcrypt_cost %d out of range", c.BcryptCost)
	}
	return nil
}
