package config

import "time"

const (
	EnvDev   = "dev"
	EnvProd  = "prod"
	EnvLocal = "local"
)

const (
	CacheDriverMemory   = "memory"
	CacheDriverFile     = "file"
	CacheDriverSQLite   = "sqlite"
	CacheDriverPostgres = "postgres"
)

var globalConfig *Config

func Global() *Config {
	return globalConfig
}

func SetGlobal(cfg *Config) {
	globalConfig = cfg
}

type Config struct {
	Env      string `yaml:"env" env:"ENV" env-required:"true"`
	Remote   RemoteConfig
	Push     PushConfig
	Cache    CacheConfig
	Sync     SyncConfig
	Postgres PostgresConfig
	HTTP     HTTPConfig
}

type RemoteConfig struct {
	BaseURL string        `yaml:"base_url" env:"REMOTE_BASE_URL" env-required:"true"`
	Token   string        `yaml:"token" env:"REMOTE_TOKEN"`
	Timeout time.Duration `yaml:"timeout" env:"REMOTE_TIMEOUT" env-default:"10s"`

	// TokenSigningKey verifies bearer tokens when set. Without it the
	// identity is read from the token unverified; the remote store does
	// the verifying.
	TokenSigningKey string `yaml:"token_signing_key" env:"REMOTE_TOKEN_SIGNING_KEY"`
}

type PushConfig struct {
	URL              string        `yaml:"url" env:"PUSH_URL"`
	HandshakeTimeout time.Duration `yaml:"handshake_timeout" env:"PUSH_HANDSHAKE_TIMEOUT" env-default:"10s"`
	RedialInterval   time.Duration `yaml:"redial_interval" env:"PUSH_REDIAL_INTERVAL" env-default:"30s"`
}

type CacheConfig struct {
	Driver    string `yaml:"driver" env:"CACHE_DRIVER" env-default:"file"`
	Path      string `yaml:"path" env:"CACHE_PATH" env-default:".tasksync"`
	Namespace string `yaml:"namespace" env:"CACHE_NAMESPACE" env-default:"tasksync"`
	PoolSize  int    `yaml:"pool_size" env:"CACHE_POOL_SIZE" env-default:"4"`
}

type SyncConfig struct {
	MonitorInterval time.Duration `yaml:"monitor_interval" env:"MONITOR_INTERVAL" env-default:"15s"`

	// MaxAttempts drops a queued mutation after that many failed replays.
	// Zero keeps failed mutations queued until they succeed.
	MaxAttempts int `yaml:"max_attempts" env:"SYNC_MAX_ATTEMPTS" env-default:"0"`
}

// PostgresConfig is only read when the cache driver is postgres.
type PostgresConfig struct {
	Host           string        `yaml:"host" env:"POSTGRES_HOST" env-default:"localhost"`
	Port           int           `yaml:"port" env:"POSTGRES_PORT" env-default:"5432"`
	Username       string        `yaml:"username" env:"POSTGRES_USERNAME"`
	Password       string        `yaml:"password" env:"POSTGRES_PASSWORD"`
	Database       string        `yaml:"database" env:"POSTGRES_DATABASE"`
	SSLMode        string        `yaml:"ssl_mode" env:"POSTGRES_SSL_MODE" env-default:"disable"`
	ConnectTimeout time.Duration `yaml:"connect_timeout" env:"POSTGRES_CONNECT_TIMEOUT" env-default:"10s"`
	PingTimeout    time.Duration `yaml:"ping_timeout" env:"POSTGRES_PING_TIMEOUT" env-default:"10s"`
}

type HTTPConfig struct {
	Host            string        `yaml:"host" env:"HTTP_HOST" env-default:"127.0.0.1"`
	Port            string        `yaml:"port" env:"HTTP_PORT" env-default:"8080"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"5s"`
}
