package config

const EnvPrefix = "STOREFRONT"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	CartStoreMemory = "memory"
	CartStoreRedis  = "redis"
	CartStoreSQL    = "sql"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"
)

const (
	EnvAppEnv       = "STOREFRONT_APP_ENV"
	EnvPort         = "STOREFRONT_APP_PORT"
	EnvCartStore    = "STOREFRONT_CART_STORE"
	EnvCartKey      = "STOREFRONT_CART_STORAGE_KEY"
	EnvCartFlatTax  = "STOREFRONT_CART_FLAT_TAX"
	EnvCheckoutWait = "STOREFRONT_CHECKOUT_DELAY"
	EnvDBDSN        = "STOREFRONT_DB_DSN"
	EnvDBDriver     = "STOREFRONT_DB_DRIVER"
	EnvDBHost       = "STOREFRONT_DB_HOST"
	EnvDBPort       = "STOREFRONT_DB_PORT"
	EnvDBUser       = "STOREFRONT_DB_USER"
	EnvDBPassword   = "STOREFRONT_DB_PASSWORD"
	EnvDBName       = "STOREFRONT_DB_NAME"
	EnvRedisURL     = "STOREFRONT_REDIS_URL"
	EnvRedisAddr    = "STOREFRONT_REDIS_ADDR"
)

var discreteDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
