package config

const EnvPrefix = "FERROMART"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "production"
)

const (
	EnvAppEnv            = "FERROMART_APP_ENV"
	EnvDBDSN             = "FERROMART_DB_DSN"
	EnvDBHost            = "FERROMART_DB_HOST"
	EnvDBUser            = "FERROMART_DB_USER"
	EnvDBName            = "FERROMART_DB_NAME"
	EnvRedisURL          = "FERROMART_REDIS_URL"
	EnvDriveRootFolder   = "FERROMART_DRIVE_ROOT_FOLDER_ID"
	EnvDriveSourceFolder = "FERROMART_DRIVE_SOURCE_FOLDER_ID"
	EnvStorageRoot       = "FERROMART_STORAGE_ROOT"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
