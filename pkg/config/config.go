package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App        AppConfig
	DB         DBConfig
	Redis      RedisConfig
	GCP        GCPConfig
	PubSub     PubSubConfig
	Scheduling SchedulingConfig
	Callback   CallbackConfig
	LLM        LLMConfig
	Worker     WorkerConfig
	Features   FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.LLM.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"QNA_APP_ENV" required:"true"`
	Port         string `envconfig:"QNA_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"QNA_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"QNA_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"QNA_DB_DSN"`
	Driver string `envconfig:"QNA_DB_DRIVER" default:"postgres"`

	MaxOpenConns    int           `envconfig:"QNA_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"QNA_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"QNA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"QNA_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the configured driver is the embedded sqlite one.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(db.Driver, DriverSQLite)
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	// Local sqlite runs fall back to an on-disk file; Postgres deployments
	// must point QNA_DB_DSN at the database explicitly.
	if db.IsSQLite() {
		db.DSN = "qna.db"
		return nil
	}
	return fmt.Errorf("%s is required when driver is %q", EnvDBDSN, db.Driver)
}

type RedisConfig struct {
	URL          string        `envconfig:"QNA_REDIS_URL"`
	PoolSize     int           `envconfig:"QNA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"QNA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"QNA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"QNA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"QNA_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether a Redis endpoint was configured at all.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != ""
}

type GCPConfig struct {
	ProjectID       string `envconfig:"QNA_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON string `envconfig:"QNA_GCP_CREDENTIALS_JSON"`
}

type PubSubConfig struct {
	QnaTopic        string `envconfig:"QNA_PUBSUB_QNA_TOPIC" default:"content-events"`
	QnaSubscription string `envconfig:"QNA_PUBSUB_QNA_SUBSCRIPTION" default:"qna-engine.qna-created"`
	Prefetch        int    `envconfig:"QNA_PUBSUB_PREFETCH" default:"32"`
}

type SchedulingConfig struct {
	CronPrimary       string        `envconfig:"QNA_CRON_PRIMARY" default:"0 12 * * *"`
	CronSecondary     string        `envconfig:"QNA_CRON_SECONDARY" default:"0 18 * * *"`
	Timezone          string        `envconfig:"QNA_TIMEZONE" default:"Asia/Seoul"`
	Immediate         bool          `envconfig:"QNA_IMMEDIATE_PROCESS" default:"false"`
	ImmediateInterval time.Duration `envconfig:"QNA_IMMEDIATE_INTERVAL" default:"5s"`
}

// Specs returns the non-empty cron expressions in declaration order.
func (s SchedulingConfig) Specs() []string {
	specs := []string{}
	for _, spec := range []string{s.CronPrimary, s.CronSecondary} {
		if trimmed := strings.TrimSpace(spec); trimmed != "" {
			specs = append(specs, trimmed)
		}
	}
	return specs
}

type CallbackConfig struct {
	BaseURL     string        `envconfig:"QNA_CALLBACK_BASE" default:"http://localhost:8080/api-v1/qna"`
	Timeout     time.Duration `envconfig:"QNA_CALLBACK_TIMEOUT" default:"30s"`
	MaxAttempts int           `envconfig:"QNA_CALLBACK_MAX_ATTEMPTS" default:"3"`
}

type LLMConfig struct {
	Provider    string  `envconfig:"QNA_LLM_PROVIDER" default:"openai"`
	Model       string  `envconfig:"QNA_LLM_MODEL" default:"gpt-4o-mini"`
	APIKey      string  `envconfig:"QNA_LLM_API_KEY"`
	Temperature float64 `envconfig:"QNA_LLM_TEMPERATURE" default:"0.2"`
	MaxTokens   int     `envconfig:"QNA_LLM_MAX_TOKENS" default:"512"`
	BaseURL     string  `envconfig:"QNA_LLM_BASE_URL"`
}

func (l LLMConfig) validate() error {
	if l.Temperature < 0 || l.Temperature > 2 {
		return fmt.Errorf("llm temperature %v out of range", l.Temperature)
	}
	if l.MaxTokens <= 0 {
		return fmt.Errorf("llm max tokens must be positive")
	}
	return nil
}

type WorkerConfig struct {
	BatchSize int           `envconfig:"QNA_WORKER_BATCH_SIZE" default:"200"`
	LockKey   string        `envconfig:"QNA_WORKER_LOCK_KEY" default:"qna:worker:cycle"`
	LockTTL   time.Duration `envconfig:"QNA_WORKER_LOCK_TTL" default:"10m"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"QNA_AUTO_MIGRATE" default:"false"`
}
