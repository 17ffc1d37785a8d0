package config

// EnvPrefix is applied by envconfig to any field without an explicit tag.
const EnvPrefix = "qna"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Canonical environment variable names referenced outside struct tags.
const (
	EnvAppEnv       = "QNA_APP_ENV"
	EnvAppPort      = "QNA_APP_PORT"
	EnvDBDSN        = "QNA_DB_DSN"
	EnvDBDriver     = "QNA_DB_DRIVER"
	EnvRedisURL     = "QNA_REDIS_URL"
	EnvGCPProjectID = "QNA_GCP_PROJECT_ID"
	EnvQnaTopic     = "QNA_PUBSUB_QNA_TOPIC"
	EnvQnaSub       = "QNA_PUBSUB_QNA_SUBSCRIPTION"
	EnvLLMProvider  = "QNA_LLM_PROVIDER"
	EnvLLMAPIKey    = "QNA_LLM_API_KEY"
	EnvCallbackBase = "QNA_CALLBACK_BASE"
)
