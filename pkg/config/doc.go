// Package config loads application configuration from environment variables.
//
// # Overview
//
// Load reads the process environment once at startup and returns an
// immutable Config. Any variable that is present but cannot be interpreted
// aborts startup with an *Error naming the variable:
//
//	cfg, err := config.Load()
//	if err != nil {
//		fmt.Fprintln(os.Stderr, err) // invalid DEBUG="maybe": not a boolean: "maybe"
//		os.Exit(1)
//	}
//
// A local .env file is not read here; cmd/hrms loads it into the process
// environment before calling Load.
//
// # Core Settings
//
//	SECRET_KEY="..."                    # defaults to an insecure placeholder
//	DEBUG="false"                       # true/false, yes/no, on/off, 1/0
//	DATABASE_URL="sqlite:///db.sqlite3" # relative paths resolve against BASE_DIR
//	CORS_ALLOWED_ORIGINS="http://localhost:3000,http://127.0.0.1:3000"
//	ALLOWED_HOSTS="*"
//	CSRF_TRUSTED_ORIGINS="https://*.railway.app"
//
// List values are comma separated. Whitespace around items is trimmed and
// empty items are dropped, so a trailing comma is harmless.
//
// # Server Settings
//
//	HOST="0.0.0.0"
//	PORT="8000"
//	HEALTH_PORT="9090"
//	READ_TIMEOUT="15s"
//	WRITE_TIMEOUT="15s"
//	SHUTDOWN_TIMEOUT="30s"
//
// # Sessions
//
//	SESSION_COOKIE_NAME="sessionid"
//	SESSION_COOKIE_AGE="1209600"   # seconds
//	SESSION_REDIS_URL=""           # empty keeps sessions in signed cookies
//
// # Observability
//
//	LOG_LEVEL="info"
//	METRICS_ENABLED="true"
//	OTEL_ENABLED="false"
//	OTEL_ENDPOINT="localhost:4317"
//	OTEL_TRACES_SAMPLE_RATIO="1"   # parent-based, 0..1
package config
