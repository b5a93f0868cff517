package config

// EnvPrefix is the envconfig prefix shared by all binaries.
const EnvPrefix = "POTHOLE"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

// Environment variable names referenced outside struct tags (tests, error
// messages).
const (
	EnvAppEnv            = "POTHOLE_APP_ENV"
	EnvPort              = "POTHOLE_APP_PORT"
	EnvDBDSN             = "POTHOLE_DB_DSN"
	EnvDBHost            = "POTHOLE_DB_HOST"
	EnvDBUser            = "POTHOLE_DB_USER"
	EnvDBName            = "POTHOLE_DB_NAME"
	EnvRedisURL          = "POTHOLE_REDIS_URL"
	EnvPaystackSecretKey = "POTHOLE_PAYSTACK_SECRET_KEY"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
