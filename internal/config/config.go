package config

import "time"

type PostgresConfig struct {
	DSN             string        `env:"PG_DSN"`
	MaxOpenConns    int           `env:"PG_MAX_OPEN_CONNS,default=10"`
	MaxIdleConns    int           `env:"PG_MAX_IDLE_CONNS,default=5"`
	ConnMaxIdleTime time.Duration `env:"PG_CONN_MAX_IDLE_TIME,default=5m"`
	ConnMaxLifetime time.Duration `env:"PG_CONN_MAX_LIFETIME,default=30m"`
}

// RedisConfig is optional; an empty Addr disables the recent-rolls cache.
type RedisConfig struct {
	Addr     string        `env:"REDIS_ADDR,optional"`
	Password string        `env:"REDIS_PASSWORD,optional"`
	DB       int           `env:"REDIS_DB,optional"`
	CacheTTL time.Duration `env:"ROLLS_CACHE_TTL,default=1m"`
}

func (c RedisConfig) Enabled() bool { return c.Addr != "" }

type SpinConfig struct {
	// OpTimeout bounds every storage call made while spinning.
	OpTimeout time.Duration `env:"SPIN_OP_TIMEOUT,default=3s"`
}

type TLSConfig struct {
	CertFile string `env:"TLS_CERT_FILE,optional"`
	KeyFile  string `env:"TLS_KEY_FILE,optional"`
}

func (c TLSConfig) Enabled() bool { return c.CertFile != "" && c.KeyFile != "" }
