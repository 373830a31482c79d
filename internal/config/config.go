package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/umit144/subscriber-provisioner/internal/services"
)

type Config struct {
	MongoURI        string
	MongoDB         string
	MongoCollection string
	MongoUniqueIMSI bool

	// MySQLDSN enables the credential mirror when set.
	MySQLDSN   string
	MySQLTable string

	// RedisAddr enables provisioning events when set.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisChannel  string

	Strategy         services.Strategy
	DeriveOPc        bool
	ProfilePath      string
	OperationTimeout time.Duration

	LogFile       string
	LogLevel      string
	LogMaxSize    int
	LogMaxBackups int
	LogMaxAge     int
}

// LoadConfig reads the environment. Callers apply their overrides and then
// call Validate.
func LoadConfig() (*Config, error) {
	// A missing .env is fine; the environment may already carry everything.
	_ = godotenv.Load()

	cfg := &Config{
		MongoURI:         getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:          getEnv("MONGO_DB", "open5gs"),
		MongoCollection:  getEnv("MONGO_COLLECTION", "subscribers"),
		MongoUniqueIMSI:  getEnvAsBool("MONGO_UNIQUE_IMSI", false),
		MySQLDSN:         getEnv("MYSQL_DSN", ""),
		MySQLTable:       getEnv("MYSQL_TABLE", "subscribers"),
		RedisAddr:        getEnv("REDIS_ADDR", ""),
		RedisPassword:    getEnv("REDIS_PASSWORD", ""),
		RedisDB:          getEnvAsInt("REDIS_DB", 0),
		RedisChannel:     getEnv("REDIS_CHANNEL", "notifications.subscriber.updated"),
		Strategy:         services.Strategy(getEnv("PROVISION_STRATEGY", string(services.StrategyDeleteInsert))),
		DeriveOPc:        getEnvAsBool("DERIVE_OPC", false),
		ProfilePath:      getEnv("PROFILE_PATH", ""),
		OperationTimeout: getEnvAsDuration("OPERATION_TIMEOUT", 10*time.Second),
		LogFile:          getEnv("LOG_FILE", ""),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogMaxSize:       getEnvAsInt("LOG_MAX_SIZE", 10),
		LogMaxBackups:    getEnvAsInt("LOG_MAX_BACKUPS", 3),
		LogMaxAge:        getEnvAsInt("LOG_MAX_AGE", 28),
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Strategy {
	case services.StrategyDeleteInsert, services.StrategyUpsert:
	default:
		return fmt.Errorf("unknown provisioning strategy %q", c.Strategy)
	}
	if c.MongoURI == "" || c.MongoDB == "" || c.MongoCollection == "" {
		return fmt.Errorf("mongo uri, database and collection are required")
	}
	if c.OperationTimeout <= 0 {
		return fmt.Errorf("operation timeout must be positive, got %s", c.OperationTimeout)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return fallback
	}
	return value
}

func getEnvAsBool(key string, fallback bool) bool {
	valueStr := strings.TrimSpace(getEnv(key, ""))
	if valueStr == "" {
		return fallback
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return fallback
	}
	return value
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := strings.TrimSpace(getEnv(key, ""))
	if valueStr == "" {
		return fallback
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return fallback
	}
	return value
}
