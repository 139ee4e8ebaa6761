package config

import (
	"strings"
	"time"

	"github.com/matchops/arena-api/common/env"
)

var (
	// ServerPort overrides the default listen port, useful in container or PaaS environments.
	ServerPort = strings.TrimSpace(env.String("PORT", "3000"))
	// GinMode allows forcing Gin into release mode (or other modes) without recompiling.
	GinMode = strings.TrimSpace(env.String("GIN_MODE", ""))
	// DebugEnabled toggles verbose structured logging when DEBUG=true.
	DebugEnabled = env.Bool("DEBUG", false)

	// RedisConnString points at the shared KV store that backs rate limiting
	// and the custom-match party keys.
	RedisConnString = env.String("REDIS_URL", "redis://localhost:6379/0")

	// ClickHouseDSN is the columnar analytics store holding match data,
	// salts and player history.
	ClickHouseDSN = env.String("CLICKHOUSE_DSN", "clickhouse://default:@localhost:9000/default")
	// PostgresDSN is the relational metadata store holding API keys,
	// custom quotas and the protected-users set.
	PostgresDSN = env.String("POSTGRES_DSN", "")

	// Primary object store (processed replay artifacts).
	S3Region          = env.String("S3_REGION", "us-east-1")
	S3Bucket          = env.String("S3_BUCKET_NAME", "")
	S3Endpoint        = env.String("S3_ENDPOINT_URL", "")
	S3AccessKeyID     = env.String("S3_ACCESS_KEY_ID", "")
	S3SecretAccessKey = env.String("S3_SECRET_ACCESS_KEY", "")

	// Cache object store, consulted before the primary store.
	S3CacheRegion          = env.String("S3_CACHE_REGION", "us-east-1")
	S3CacheBucket          = env.String("S3_CACHE_BUCKET_NAME", "")
	S3CacheEndpoint        = env.String("S3_CACHE_ENDPOINT_URL", "")
	S3CacheAccessKeyID     = env.String("S3_CACHE_ACCESS_KEY_ID", "")
	S3CacheSecretAccessKey = env.String("S3_CACHE_SECRET_ACCESS_KEY", "")

	// ProxyURL is the coordinator-proxy dispatcher that fronts the bot fleet.
	ProxyURL = env.String("STEAM_PROXY_URL", "")
	// ProxyAPIToken authenticates calls to the coordinator proxy.
	ProxyAPIToken = env.String("STEAM_PROXY_API_TOKEN", "")

	// InternalAPIKey is the shared secret that unlocks trusted endpoints
	// (salt ingest without HEAD validation, privacy opt-out).
	InternalAPIKey = env.String("INTERNAL_API_KEY", "")

	// EmergencyMode rejects all unauthenticated traffic when true.
	EmergencyMode = env.Bool("EMERGENCY_MODE", false)

	// FeatureFlagsPath locates the JSON document mapping route paths to
	// booleans; missing entries default to enabled.
	FeatureFlagsPath = env.String("FEATURE_FLAGS_PATH", "feature_flags.json")

	// DemoBroadcastURL is the CDN base serving live-match HTTP broadcasts.
	DemoBroadcastURL = env.String("DEMO_BROADCAST_URL", "https://dist1-ord1.steamcontent.com/tv")

	// ReplayBaseURLFormat composes the upstream CDN host from a cluster id.
	ReplayBaseURLFormat = env.String("REPLAY_BASE_URL_FORMAT", "http://replay%d.valve.net")

	// GameAppID is the Steam application id used in replay CDN paths.
	GameAppID = env.Int("GAME_APP_ID", 1422450)

	// ClientVersion and ClientPlatform are forwarded on spectate requests so
	// the bot fleet joins lobbies with a compatible client.
	ClientVersion  = env.Int("GC_CLIENT_VERSION", 5637)
	ClientPlatform = env.Int("GC_CLIENT_PLATFORM", 1)

	// SpectateLobbyDuration bounds how long a bot stays in a spectated lobby
	// or custom-match party before leaving.
	SpectateLobbyDuration = time.Duration(env.Int("SPECTATE_LOBBY_DURATION_S", 15*60)) * time.Second

	// RelayTimeout bounds upstream HTTP requests (seconds) before aborting them; 0 disables.
	RelayTimeout = env.Int("RELAY_TIMEOUT", 0)

	// ShutdownTimeoutSec specifies the graceful shutdown timeout for the HTTP server.
	ShutdownTimeoutSec = env.Int("SHUTDOWN_TIMEOUT", 30)

	// EnablePrometheusMetrics exposes the /metrics endpoint for Prometheus scrapers when true.
	EnablePrometheusMetrics = env.Bool("ENABLE_PROMETHEUS_METRICS", true)
)

// SaltsCollectionWatermark is the oldest match id for which salts were ever
// collected; requests below it are rejected without consulting any backend.
const SaltsCollectionWatermark uint64 = 30_742_540

// Version is stamped by the build via -ldflags "-X ...".
var Version = "v0.0.0-dev"
