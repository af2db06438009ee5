package config

const (
	EnvPrefix = "CARDLEDGER"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	DefaultDataDirName = ".gift_card_manager"

	EnvAppEnv   = "CARDLEDGER_APP_ENV"
	EnvPort     = "CARDLEDGER_APP_PORT"
	EnvDBDSN    = "CARDLEDGER_DB_DSN"
	EnvDBDriver = "CARDLEDGER_DB_DRIVER"
	EnvDataDir  = "CARDLEDGER_DATA_DIR"
	EnvDBHost   = "CARDLEDGER_DB_HOST"
	EnvDBUser   = "CARDLEDGER_DB_USER"
	EnvDBName   = "CARDLEDGER_DB_NAME"
	EnvRedisURL = "CARDLEDGER_REDIS_URL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
