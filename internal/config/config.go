// Package config loads runtime configuration from defaults, an optional
// YAML file, SOLACE_* environment variables and bound flags, in increasing
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/alexanderramin/solace/internal/domain"
	"github.com/alexanderramin/solace/internal/timezone"
)

// Calendar backends.
const (
	BackendLocal  = "local"
	BackendGoogle = "google"
	BackendMemory = "memory"
)

const envPrefix = "SOLACE"

type Config struct {
	DBPath   string
	Timezone string
	// User scopes CLI commands; the HTTP API takes the user from the token.
	User string

	Calendar CalendarConfig
	Auth     AuthConfig
	HTTP     HTTPConfig
	Sweep    SweepConfig
	Due      DueConfig
	Log      LogConfig
}

type CalendarConfig struct {
	Backend string
	ID      string
	Google  GoogleConfig
}

type GoogleConfig struct {
	Endpoint  string
	Token     string
	TimeoutMs int
}

type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

type HTTPConfig struct {
	Addr string
}

type SweepConfig struct {
	// Cron is a robfig/cron spec; empty disables the background sweep.
	Cron    string
	Users   []string
	Timeout time.Duration
}

type DueConfig struct {
	MonthMode domain.MonthMode
}

type LogConfig struct {
	Level    string
	UseCases bool
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		DBPath:   defaultDBPath(),
		Timezone: timezone.DefaultZone,
		User:     "local",
		Calendar: CalendarConfig{
			Backend: BackendLocal,
			ID:      "primary",
			Google: GoogleConfig{
				Endpoint:  "https://www.googleapis.com/calendar/v3",
				TimeoutMs: 10000,
			},
		},
		Auth:  AuthConfig{TokenTTL: 72 * time.Hour},
		HTTP:  HTTPConfig{Addr: ":8080"},
		Sweep: SweepConfig{Timeout: 5 * time.Minute},
		Due:   DueConfig{MonthMode: domain.MonthRolling30},
		Log:   LogConfig{Level: "info"},
	}
}

// NewViper returns a viper instance with defaults and environment binding
// applied. A non-empty configFile is read as well.
func NewViper(configFile string) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", configFile, err)
		}
	}
	return v, nil
}

// SetDefaults registers every key with its default so AutomaticEnv can see it.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("db.path", d.DBPath)
	v.SetDefault("timezone", d.Timezone)
	v.SetDefault("user", d.User)
	v.SetDefault("calendar.backend", d.Calendar.Backend)
	v.SetDefault("calendar.id", d.Calendar.ID)
	v.SetDefault("calendar.google.endpoint", d.Calendar.Google.Endpoint)
	v.SetDefault("calendar.google.token", "")
	v.SetDefault("calendar.google.timeout_ms", d.Calendar.Google.TimeoutMs)
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", d.Auth.TokenTTL)
	v.SetDefault("http.addr", d.HTTP.Addr)
	v.SetDefault("sweep.cron", "")
	v.SetDefault("sweep.users", []string{})
	v.SetDefault("sweep.timeout", d.Sweep.Timeout)
	v.SetDefault("due.month_mode", string(d.Due.MonthMode))
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.use_cases", false)
}

// flagKeys maps global command-line flags to their configuration keys.
var flagKeys = map[string]string{
	"db":        "db.path",
	"timezone":  "timezone",
	"user":      "user",
	"calendar":  "calendar.backend",
	"log-level": "log.level",
}

// RegisterFlags adds the global flags that override configuration keys.
// Defaults are left empty so unset flags never shadow file or env values.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "Path to a YAML config file")
	fs.String("db", "", "SQLite database path")
	fs.String("timezone", "", "Reference IANA timezone")
	fs.String("user", "", "User the command acts for")
	fs.String("calendar", "", "Calendar backend: local, google or memory")
	fs.String("log-level", "", "Log level: debug, info, warn or error")
}

// BindFlags binds the flags registered by RegisterFlags onto v. Only flags
// the user actually set take part, so viper's precedence stays intact.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	var errs []error
	fs.Visit(func(f *pflag.Flag) {
		key, ok := flagKeys[f.Name]
		if !ok {
			return
		}
		if err := v.BindPFlag(key, f); err != nil {
			errs = append(errs, fmt.Errorf("binding flag --%s: %w", f.Name, err))
		}
	})
	return errors.Join(errs...)
}

// Load reads a Config out of v and validates it.
func Load(v *viper.Viper) (Config, error) {
	cfg := Config{
		DBPath:   v.GetString("db.path"),
		Timezone: v.GetString("timezone"),
		User:     strings.TrimSpace(v.GetString("user")),
		Calendar: CalendarConfig{
			Backend: strings.ToLower(v.GetString("calendar.backend")),
			ID:      v.GetString("calendar.id"),
			Google: GoogleConfig{
				Endpoint:  v.GetString("calendar.google.endpoint"),
				Token:     v.GetString("calendar.google.token"),
				TimeoutMs: v.GetInt("calendar.google.timeout_ms"),
			},
		},
		Auth: AuthConfig{
			JWTSecret: v.GetString("auth.jwt_secret"),
			TokenTTL:  v.GetDuration("auth.token_ttl"),
		},
		HTTP: HTTPConfig{Addr: v.GetString("http.addr")},
		Sweep: SweepConfig{
			Cron:    v.GetString("sweep.cron"),
			Users:   v.GetStringSlice("sweep.users"),
			Timeout: v.GetDuration("sweep.timeout"),
		},
		Log: LogConfig{
			Level:    v.GetString("log.level"),
			UseCases: v.GetBool("log.use_cases"),
		},
	}

	mode, err := domain.ParseMonthMode(v.GetString("due.month_mode"))
	if err != nil {
		return Config{}, err
	}
	cfg.Due.MonthMode = mode

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values that cannot be caught by type alone.
func (c Config) Validate() error {
	var errs []error
	if _, err := timezone.Load(c.Timezone); err != nil {
		errs = append(errs, err)
	}
	switch c.Calendar.Backend {
	case BackendLocal, BackendMemory:
	case BackendGoogle:
		if c.Calendar.Google.Token == "" {
			errs = append(errs, errors.New("calendar.google.token is required for the google backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("calendar.backend %q must be one of local, google, memory", c.Calendar.Backend))
	}
	if c.Calendar.ID == "" {
		errs = append(errs, errors.New("calendar.id must not be empty"))
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	if c.User == "" {
		errs = append(errs, errors.New("user must not be empty"))
	}
	if c.Sweep.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("sweep.timeout %s must be positive", c.Sweep.Timeout))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, fmt.Errorf("auth.token_ttl %s must be positive", c.Auth.TokenTTL))
	}
	return errors.Join(errs...)
}

// SlogLevel returns the configured log level.
func (c Config) SlogLevel() slog.Level {
	lvl, _ := parseLevel(c.Log.Level)
	return lvl
}

func parseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log.level %q: %w", s, err)
	}
	return lvl, nil
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "solace.db"
	}
	return filepath.Join(home, ".solace", "solace.db")
}
