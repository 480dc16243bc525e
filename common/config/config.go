package config

import (
	"strings"
	"time"

	"github.com/fuchsia74/gemini-pool/common/env"
)

var (
	// DebugEnabled toggles verbose structured logging when DEBUG=true.
	DebugEnabled = env.Bool("DEBUG", false)
	// DebugSQLEnabled toggles per-query SQL logging when DEBUG_SQL=true.
	DebugSQLEnabled = env.Bool("DEBUG_SQL", false)

	// ServerPort overrides the --port flag when running inside container or PaaS environments.
	ServerPort = strings.TrimSpace(env.String("PORT", ""))
	// GinMode allows forcing Gin into release mode (or other modes) without recompiling.
	GinMode = strings.TrimSpace(env.String("GIN_MODE", ""))

	// SQLDSN selects the database backend: postgres:// or mysql DSN, empty means SQLite.
	SQLDSN = strings.TrimSpace(env.String("SQL_DSN", ""))
	// SQLitePath is the SQLite database file used when SQL_DSN is not set.
	SQLitePath = env.String("SQLITE_PATH", "gemini-pool.db")
	// SQLiteBusyTimeout is passed to the SQLite driver as _busy_timeout (milliseconds).
	SQLiteBusyTimeout = env.Int("SQLITE_BUSY_TIMEOUT", 3500)

	// RedisConnString enables the Redis model-list cache when non-empty.
	RedisConnString = strings.TrimSpace(env.String("REDIS_CONN_STRING", ""))

	// UpstreamBaseURL is the Gemini API endpoint all upstream calls are issued against.
	UpstreamBaseURL = strings.TrimRight(env.String("UPSTREAM_BASE_URL", "https://generativelanguage.googleapis.com"), "/")
	// UpstreamAPIVersion is the REST surface version used for upstream paths.
	UpstreamAPIVersion = env.String("UPSTREAM_API_VERSION", "v1beta")

	// RelayTimeout bounds upstream HTTP requests (seconds) before aborting them. Zero means no timeout.
	RelayTimeout = env.Int("RELAY_TIMEOUT", 0)
	// ShutdownTimeoutSec specifies the graceful shutdown timeout for the HTTP server.
	ShutdownTimeoutSec = env.Int("SHUTDOWN_TIMEOUT", 30)

	// MaxInlineImageSizeMB limits the size (MB) of images fetched from HTTP(S) URLs and
	// inlined as base64, to prevent oversized payloads from overwhelming the upstream.
	MaxInlineImageSizeMB = func() int {
		v := env.Int("MAX_INLINE_IMAGE_SIZE_MB", 30)
		if v < 0 {
			panic("MAX_INLINE_IMAGE_SIZE_MB must not be negative")
		}
		return v
	}()

	// ModelListCacheTTL controls how long upstream model lists are cached.
	ModelListCacheTTL = time.Second * time.Duration(env.Int("MODEL_LIST_CACHE_TTL", 300))

	// RotateCASMaxRetries bounds the compare-and-set loop on the rotation cursor before
	// falling back to a plain read.
	RotateCASMaxRetries = env.Int("ROTATE_CAS_MAX_RETRIES", 5)

	// InitialAdminPassword seeds the admin password hash on first boot when set.
	InitialAdminPassword = strings.TrimSpace(env.String("INITIAL_ADMIN_PASSWORD", ""))
)
