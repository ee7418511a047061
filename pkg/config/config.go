package config

import (
	"time"
)

type DB struct {
	Url string `envconfig:"URL"`
}

type Jwt struct {
	Secret string        `envconfig:"SECRET" required:"true"`
	Expiry time.Duration `envconfig:"EXPIRY" default:"24h"`
}

type Auth struct {
	Jwt *Jwt `envconfig:"JWT"`
	// AdminEmails are promoted to the admin role on signup.
	AdminEmails []string `envconfig:"ADMIN_EMAILS"`
}

type Redis struct {
	URL          string        `envconfig:"URL" default:""`
	KeyPrefix    string        `envconfig:"KEY_PREFIX" default:"ledger:"`
	PoolSize     int           `envconfig:"POOL_SIZE" default:"10"`
	DialTimeout  time.Duration `envconfig:"DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"WRITE_TIMEOUT" default:"3s"`
}

// Kafka enables the outbound event stream when Brokers is set.
type Kafka struct {
	Brokers     string `envconfig:"BROKERS" default:""`
	TopicPrefix string `envconfig:"TOPIC_PREFIX" default:"ledger.events"`
	GroupID     string `envconfig:"GROUP_ID" default:"ledger"`
}

type RateLimit struct {
	MaxRequests int           `envconfig:"MAX_REQUESTS" default:"100"`
	Window      time.Duration `envconfig:"WINDOW" default:"1m"`
}

type Log struct {
	Level      int    `envconfig:"LEVEL" default:"0"`
	Format     string `envconfig:"FORMAT" default:"json"`
	TimeFormat string `envconfig:"TIME_FORMAT" default:"2006-01-02 15:04:05"`
	Prefix     string `envconfig:"PREFIX" default:"[ledger]"`
}

type Server struct {
	Scheme string `envconfig:"SCHEME" default:"http"`
	Host   string `envconfig:"HOST" default:"localhost"`
	Port   int    `envconfig:"PORT" default:"3000"`
}

// Accrual configures the profit accrual scheduler.
type Accrual struct {
	Enabled  bool          `envconfig:"ENABLED" default:"true"`
	Interval time.Duration `envconfig:"INTERVAL" default:"3s"`
	// LockTTL is how long one instance holds the accrual lease.
	LockTTL time.Duration `envconfig:"LOCK_TTL" default:"30s"`
	// ReleasePrincipal credits the invested amount back to the main balance at maturity.
	ReleasePrincipal bool `envconfig:"RELEASE_PRINCIPAL" default:"true"`
}

type Reconcile struct {
	MaxRetries int `envconfig:"MAX_RETRIES" default:"3"`
}

type App struct {
	Env       string     `envconfig:"APP_ENV" default:"development"`
	PlansFile string     `envconfig:"PLANS_FILE" default:""`
	Server    *Server    `envconfig:"SERVER"`
	Log       *Log       `envconfig:"LOG"`
	DB        *DB        `envconfig:"DATABASE"`
	Auth      *Auth      `envconfig:"AUTH"`
	Redis     *Redis     `envconfig:"REDIS"`
	Kafka     *Kafka     `envconfig:"KAFKA"`
	RateLimit *RateLimit `envconfig:"RATE_LIMIT"`
	Accrual   *Accrual   `envconfig:"ACCRUAL"`
	Reconcile *Reconcile `envconfig:"RECONCILE"`
}
