package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/go-redis/redis/v8"
	"github.com/platinummonkey/hrms-lite/pkg/database"
	"github.com/platinummonkey/hrms-lite/pkg/observability"
)

// InsecureSecretKey is used when SECRET_KEY is unset. The "insecure-" prefix
// makes an unconfigured deployment easy to spot.
const InsecureSecretKey = "insecure-change-this-in-production"

const (
	// FrontendDir is both a template search path and a static source dir
	FrontendDir = "frontend"
	// StaticRootDir is where collected static assets are served from
	StaticRootDir = "staticfiles"
)

// Config holds all application configuration. It is built once by Load and
// must be treated as read-only afterwards; it is shared by every request.
type Config struct {
	BaseDir string

	Security      SecurityConfig
	Database      database.Descriptor
	Static        StaticConfig
	Templates     TemplateConfig
	CORS          CORSConfig
	Session       SessionConfig
	Server        ServerConfig
	Observability ObservabilityConfig
}

// SecurityConfig covers signing, host validation and cross-origin write protection
type SecurityConfig struct {
	SecretKey           string
	Debug               bool
	AllowedHosts        []string
	CSRFTrustedOrigins  []string
	CSRFCookieName      string
	HSTSSeconds         int
	SSLRedirect         bool
	TrustForwardedProto bool // treat X-Forwarded-Proto: https as a secure request
	XFrameOptions       string
	AppendSlash         bool
}

// StaticConfig describes where static assets come from and where they are served
type StaticConfig struct {
	URL  string   // served URL prefix, e.g. /static/
	Dirs []string // source directories (served directly in debug)
	Root string   // collection target served in production
}

// TemplateConfig holds the template search path
type TemplateConfig struct {
	Dirs      []string
	CacheSize int
}

// CORSConfig holds the cross-origin allow-list
type CORSConfig struct {
	AllowedOrigins   []string
	AllowCredentials bool
}

// SessionConfig holds session cookie and backend settings
type SessionConfig struct {
	CookieName   string
	CookieAge    time.Duration
	CookieSecure bool
	RedisURL     string // empty selects signed-cookie sessions
	// Redis holds the parsed RedisURL; nil when RedisURL is empty
	Redis *redis.Options
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	HealthPort      string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	LogLevel       observability.LogLevel
	MetricsEnabled bool
	OTel           observability.OTelConfig
}

// environment is the raw process environment, one field per variable
type environment struct {
	BaseDir string `env:"BASE_DIR"`

	SecretKey          string   `env:"SECRET_KEY" envDefault:"insecure-change-this-in-production"`
	Debug              bool     `env:"DEBUG" envDefault:"false"`
	AllowedHosts       []string `env:"ALLOWED_HOSTS" envDefault:"*"`
	CSRFTrustedOrigins []string `env:"CSRF_TRUSTED_ORIGINS" envDefault:"https://*.railway.app"`
	CSRFCookieName     string   `env:"CSRF_COOKIE_NAME" envDefault:"csrftoken"`
	HSTSSeconds        int      `env:"SECURE_HSTS_SECONDS" envDefault:"0"`
	SSLRedirect        bool     `env:"SECURE_SSL_REDIRECT" envDefault:"false"`
	ProxySSLHeader     bool     `env:"SECURE_PROXY_SSL_HEADER" envDefault:"false"`
	XFrameOptions      string   `env:"X_FRAME_OPTIONS" envDefault:"DENY"`
	AppendSlash        bool     `env:"APPEND_SLASH" envDefault:"true"`

	DatabaseURL string `env:"DATABASE_URL" envDefault:"sqlite:///db.sqlite3"`
	ConnMaxAge  int    `env:"CONN_MAX_AGE" envDefault:"600"`

	StaticURL         string `env:"STATIC_URL" envDefault:"/static/"`
	TemplateCacheSize int    `env:"TEMPLATE_CACHE_SIZE" envDefault:"64"`

	CORSAllowedOrigins   []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"http://localhost:3000,http://127.0.0.1:3000"`
	CORSAllowCredentials bool     `env:"CORS_ALLOW_CREDENTIALS" envDefault:"true"`

	SessionCookieName   string `env:"SESSION_COOKIE_NAME" envDefault:"sessionid"`
	SessionCookieAge    int    `env:"SESSION_COOKIE_AGE" envDefault:"1209600"`
	SessionCookieSecure bool   `env:"SESSION_COOKIE_SECURE" envDefault:"false"`
	SessionRedisURL     string `env:"SESSION_REDIS_URL"`

	Host            string        `env:"HOST" envDefault:"0.0.0.0"`
	Port            string        `env:"PORT" envDefault:"8000"`
	HealthPort      string        `env:"HEALTH_PORT" envDefault:"9090"`
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"15s"`
	IdleTimeout     time.Duration `env:"IDLE_TIMEOUT" envDefault:"60s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	LogLevel           string  `env:"LOG_LEVEL" envDefault:"info"`
	MetricsEnabled     bool    `env:"METRICS_ENABLED" envDefault:"true"`
	OTelEnabled        bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTelEndpoint       string  `env:"OTEL_ENDPOINT" envDefault:"localhost:4317"`
	OTelServiceName    string  `env:"OTEL_SERVICE_NAME" envDefault:"hrms-lite"`
	OTelServiceVersion string  `env:"OTEL_SERVICE_VERSION" envDefault:"1.0.0"`
	OTelInsecure       bool    `env:"OTEL_INSECURE" envDefault:"true"`
	OTelSampleRatio    float64 `env:"OTEL_TRACES_SAMPLE_RATIO" envDefault:"1"`
}

// Error reports a configuration problem, naming the offending variable
type Error struct {
	Var   string
	Value string
	Err   error
}

func (e *Error) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("invalid %s: %v", e.Var, e.Err)
	}
	return fmt.Sprintf("invalid %s=%q: %v", e.Var, e.Value, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Load reads the process environment into a Config
func Load() (*Config, error) {
	return LoadFrom(environ())
}

// LoadFrom builds a Config from an explicit variable map. Variables missing
// from vars take their documented defaults.
func LoadFrom(vars map[string]string) (*Config, error) {
	var raw environment
	err := env.ParseWithOptions(&raw, env.Options{
		Environment: vars,
		FuncMap: map[reflect.Type]env.ParserFunc{
			reflect.TypeOf(false): parseBool,
		},
	})
	if err != nil {
		return nil, translateEnvError(err, vars)
	}

	cfg, err := build(raw)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func build(raw environment) (*Config, error) {
	baseDir := raw.BaseDir
	if baseDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, &Error{Var: "BASE_DIR", Err: fmt.Errorf("cannot determine working directory: %w", err)}
		}
		baseDir = wd
	}
	baseDir = filepath.Clean(baseDir)

	if raw.ConnMaxAge < 0 {
		return nil, &Error{Var: "CONN_MAX_AGE", Value: fmt.Sprint(raw.ConnMaxAge), Err: errors.New("must not be negative")}
	}
	db, err := database.Parse(raw.DatabaseURL, baseDir, time.Duration(raw.ConnMaxAge)*time.Second)
	if err != nil {
		// the URL may carry credentials, so it is not echoed back
		return nil, &Error{Var: "DATABASE_URL", Err: err}
	}

	var redisOpts *redis.Options
	if raw.SessionRedisURL != "" {
		redisOpts, err = redis.ParseURL(raw.SessionRedisURL)
		if err != nil {
			// may carry a password too
			return nil, &Error{Var: "SESSION_REDIS_URL", Err: err}
		}
	}

	level, err := observability.ParseLogLevel(raw.LogLevel)
	if err != nil {
		return nil, &Error{Var: "LOG_LEVEL", Value: raw.LogLevel, Err: err}
	}

	frontend := filepath.Join(baseDir, FrontendDir)

	return &Config{
		BaseDir: baseDir,
		Security: SecurityConfig{
			SecretKey:           raw.SecretKey,
			Debug:               raw.Debug,
			AllowedHosts:        cleanList(raw.AllowedHosts),
			CSRFTrustedOrigins:  cleanList(raw.CSRFTrustedOrigins),
			CSRFCookieName:      raw.CSRFCookieName,
			HSTSSeconds:         raw.HSTSSeconds,
			SSLRedirect:         raw.SSLRedirect,
			TrustForwardedProto: raw.ProxySSLHeader,
			XFrameOptions:       strings.ToUpper(strings.TrimSpace(raw.XFrameOptions)),
			AppendSlash:         raw.AppendSlash,
		},
		Database: db,
		Static: StaticConfig{
			URL:  raw.StaticURL,
			Dirs: []string{frontend},
			Root: filepath.Join(baseDir, StaticRootDir),
		},
		Templates: TemplateConfig{
			Dirs:      []string{frontend},
			CacheSize: raw.TemplateCacheSize,
		},
		CORS: CORSConfig{
			AllowedOrigins:   cleanList(raw.CORSAllowedOrigins),
			AllowCredentials: raw.CORSAllowCredentials,
		},
		Session: SessionConfig{
			CookieName:   raw.SessionCookieName,
			CookieAge:    time.Duration(raw.SessionCookieAge) * time.Second,
			CookieSecure: raw.SessionCookieSecure,
			RedisURL:     raw.SessionRedisURL,
			Redis:        redisOpts,
		},
		Server: ServerConfig{
			Host:            raw.Host,
			Port:            raw.Port,
			HealthPort:      raw.HealthPort,
			ReadTimeout:     raw.ReadTimeout,
			WriteTimeout:    raw.WriteTimeout,
			IdleTimeout:     raw.IdleTimeout,
			ShutdownTimeout: raw.ShutdownTimeout,
		},
		Observability: ObservabilityConfig{
			LogLevel:       level,
			MetricsEnabled: raw.MetricsEnabled,
			OTel: observability.OTelConfig{
				Enabled:        raw.OTelEnabled,
				Endpoint:       raw.OTelEndpoint,
				ServiceName:    raw.OTelServiceName,
				ServiceVersion: raw.OTelServiceVersion,
				Insecure:       raw.OTelInsecure,
				SampleRatio:    raw.OTelSampleRatio,
			},
		},
	}, nil
}

// Validate checks cross-field constraints
func (c *Config) Validate() error {
	if c.Security.SecretKey == "" {
		return &Error{Var: "SECRET_KEY", Err: errors.New("must not be empty")}
	}
	if c.Security.HSTSSeconds < 0 {
		return &Error{Var: "SECURE_HSTS_SECONDS", Err: errors.New("must not be negative")}
	}
	if c.Security.XFrameOptions != "DENY" && c.Security.XFrameOptions != "SAMEORIGIN" {
		return &Error{Var: "X_FRAME_OPTIONS", Value: c.Security.XFrameOptions, Err: errors.New("must be DENY or SAMEORIGIN")}
	}
	if c.Security.CSRFCookieName == "" {
		return &Error{Var: "CSRF_COOKIE_NAME", Err: errors.New("must not be empty")}
	}

	if !strings.HasPrefix(c.Static.URL, "/") || !strings.HasSuffix(c.Static.URL, "/") || c.Static.URL == "/" {
		return &Error{Var: "STATIC_URL", Value: c.Static.URL, Err: errors.New("must start and end with '/' and not be the site root")}
	}
	if c.Templates.CacheSize < 1 {
		return &Error{Var: "TEMPLATE_CACHE_SIZE", Err: errors.New("must be positive")}
	}

	if c.Session.CookieName == "" {
		return &Error{Var: "SESSION_COOKIE_NAME", Err: errors.New("must not be empty")}
	}
	if c.Session.CookieName == c.Security.CSRFCookieName {
		return &Error{Var: "SESSION_COOKIE_NAME", Err: errors.New("must differ from CSRF_COOKIE_NAME")}
	}
	if c.Session.CookieAge <= 0 {
		return &Error{Var: "SESSION_COOKIE_AGE", Err: errors.New("must be positive")}
	}

	if c.Server.Port == "" {
		return &Error{Var: "PORT", Err: errors.New("server port is required")}
	}
	if c.Server.HealthPort == "" {
		return &Error{Var: "HEALTH_PORT", Err: errors.New("health port is required")}
	}
	if c.Server.Port == c.Server.HealthPort {
		return &Error{Var: "HEALTH_PORT", Value: c.Server.HealthPort, Err: errors.New("server port and health port must be different")}
	}

	if c.Observability.OTel.Enabled {
		if c.Observability.OTel.Endpoint == "" {
			return &Error{Var: "OTEL_ENDPOINT", Err: errors.New("required when OTEL_ENABLED is set")}
		}
		if c.Observability.OTel.ServiceName == "" {
			return &Error{Var: "OTEL_SERVICE_NAME", Err: errors.New("required when OTEL_ENABLED is set")}
		}
		if r := c.Observability.OTel.SampleRatio; r < 0 || r > 1 {
			return &Error{Var: "OTEL_TRACES_SAMPLE_RATIO", Value: fmt.Sprint(r), Err: errors.New("must be between 0 and 1")}
		}
	}

	return nil
}

// UsesInsecureSecretKey reports whether SECRET_KEY was left at its placeholder
func (c *Config) UsesInsecureSecretKey() bool {
	return strings.HasPrefix(c.Security.SecretKey, "insecure-")
}

// FrontendDir returns the directory serving both templates and static sources
func (c *Config) FrontendDir() string {
	return filepath.Join(c.BaseDir, FrontendDir)
}

// parseBool accepts the spellings python-decouple does
func parseBool(v string) (interface{}, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "y", "yes", "t", "true", "on":
		return true, nil
	case "0", "n", "no", "f", "false", "off", "":
		return false, nil
	default:
		return nil, fmt.Errorf("not a boolean: %q", v)
	}
}

// cleanList trims entries and drops empty ones, so "a,b," yields [a b]
func cleanList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func environ() map[string]string {
	vars := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			vars[k] = v
		}
	}
	return vars
}

// translateEnvError maps env parse failures back to variable names
func translateEnvError(err error, vars map[string]string) error {
	var agg env.AggregateError
	if !errors.As(err, &agg) || len(agg.Errors) == 0 {
		return fmt.Errorf("failed to parse environment: %w", err)
	}

	var pe env.ParseError
	if !errors.As(agg.Errors[0], &pe) {
		return fmt.Errorf("failed to parse environment: %w", agg.Errors[0])
	}

	name := pe.Name
	if field, ok := reflect.TypeOf(environment{}).FieldByName(pe.Name); ok {
		if tag, _, _ := strings.Cut(field.Tag.Get("env"), ","); tag != "" {
			name = tag
		}
	}
	return &Error{Var: name, Value: vars[name], Err: pe.Err}
}
