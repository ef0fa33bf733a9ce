package config

import (
	"time"
)

type AppConfig struct {
	APIPort     string `env:"PORT,required" envDefault:"12333"`
	APIKey      string `env:"API_KEY,required"`
	RabbitMQURL string `env:"RABBITMQ_URL"`
}

type DatabaseConfig struct {
	Host            string `env:"DOMAINSTACK_POSTGRES_HOST,required"`
	Port            string `env:"DOMAINSTACK_POSTGRES_PORT,required"`
	User            string `env:"DOMAINSTACK_POSTGRES_USER,required"`
	DBName          string `env:"DOMAINSTACK_POSTGRES_DB_NAME,required"`
	Password        string `env:"DOMAINSTACK_POSTGRES_PASSWORD,required"`
	MaxConn         int    `env:"DOMAINSTACK_POSTGRES_DB_MAX_CONN"`
	MaxIdleConn     int    `env:"DOMAINSTACK_POSTGRES_DB_MAX_IDLE_CONN"`
	ConnMaxLifetime int    `env:"DOMAINSTACK_POSTGRES_DB_CONN_MAX_LIFETIME"`
	LogLevel        string `env:"DOMAINSTACK_POSTGRES_LOG_LEVEL" envDefault:"WARN"`
	SSLMode         string `env:"DOMAINSTACK_POSTGRES_SSL_MODE"`
}

// DomainConfig describes the platform's edge. A subdomain routes with a
// CNAME to CNAMETarget; an apex domain cannot carry a CNAME, so it routes
// with A records against EdgeIPs.
type DomainConfig struct {
	CNAMETarget        string        `env:"DOMAIN_CNAME_TARGET" envDefault:"edge.storelift.app"`
	EdgeIPs            []string      `env:"DOMAIN_EDGE_IPS" envSeparator:"," envDefault:"76.76.21.21"`
	TXTLabel           string        `env:"DOMAIN_TXT_LABEL" envDefault:"_storelift"`
	LookupTimeout      time.Duration `env:"DOMAIN_LOOKUP_TIMEOUT" envDefault:"5s"`
	MinRecheckInterval time.Duration `env:"DOMAIN_MIN_RECHECK_INTERVAL" envDefault:"30s"`
	VerifyConcurrency  int           `env:"DOMAIN_VERIFY_CONCURRENCY" envDefault:"8"`
}
