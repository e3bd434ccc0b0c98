package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server  ServerConfig
	Logger  LoggerConfig
	Catalog CatalogConfig
	Mongo   MongoConfig
	Redis   RedisConfig
	Kafka   KafkaConfig
	Breaker BreakerConfig
	Cart    CartConfig
}

type ServerConfig struct {
	AppEnv          string
	HTTPPort        string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

type LoggerConfig struct {
	Level             string
	Encoding          string
	DisableCaller     bool
	DisableStacktrace bool
}

type CatalogConfig struct {
	DBPath         string
	MigrationsPath string
}

type MongoConfig struct {
	URI      string
	Database string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	CartTTL  time.Duration
}

type KafkaConfig struct {
	Enabled bool
	Brokers []string
	Topic   string
	GroupID string
}

type BreakerConfig struct {
	MaxRequests      int
	Interval         time.Duration
	Timeout          time.Duration
	ConsecutiveFails int
}

type CartConfig struct {
	LenientItemLookup  bool
	EnforceCouponRules  bool
}

// Load reads a .env file when one is present and then builds the config
// from the environment.
func Load() *Config {
	_ = godotenv.Load()
	return LoadEnv()
}

func LoadEnv() *Config {
	return &Config{
		Server: ServerConfig{
			AppEnv:          getEnv("APP_ENV", "dev"),
			HTTPPort:        getEnv("HTTP_PORT", "8080"),
			RequestTimeout:  getEnvDuration("REQUEST_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Logger: LoggerConfig{
			Level:             getEnv("LOGGER_LEVEL", "debug"),
			Encoding:          getEnv("LOGGER_ENCODING", "console"),
			DisableCaller:     getEnvBool("LOGGER_DISABLE_CALLER", false),
			DisableStacktrace: getEnvBool("LOGGER_DISABLE_STACKTRACE", true),
		},
		Catalog: CatalogConfig{
			DBPath:         getEnv("CATALOG_DB_PATH", "catalog.db"),
			MigrationsPath: getEnv("CATALOG_MIGRATIONS_PATH", "internal/catalog/migrations"),
		},
		Mongo: MongoConfig{
			URI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
			Database: getEnv("MONGO_DATABASE", "pricing"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			CartTTL:  getEnvDuration("REDIS_CART_TTL", 15*time.Minute),
		},
		Kafka: KafkaConfig{
			Enabled: getEnvBool("KAFKA_ENABLED", true),
			Brokers: getEnvSlice("KAFKA_BROKERS", []string{"localhost:9092"}),
			Topic:   getEnv("KAFKA_TOPIC_CHECKOUT", "checkout-outbox"),
			GroupID: getEnv("KAFKA_GROUP_ID", "pricing-service-consumer"),
		},
		Breaker: BreakerConfig{
			MaxRequests:      getEnvInt("BREAKER_MAX_REQUESTS", 1),
			Interval:         getEnvDuration("BREAKER_INTERVAL", time.Minute),
			Timeout:          getEnvDuration("BREAKER_TIMEOUT", 30*time.Second),
			ConsecutiveFails: getEnvInt("BREAKER_CONSECUTIVE_FAILS", 5),
		},
		Cart: CartConfig{
			LenientItemLookup:  getEnvBool("CART_LENIENT_ITEM_LOOKUP", false),
			EnforceCouponRules: getEnvBool("CART_ENFORCE_COUPON_RULES", false),
		},
	}
}

func (c *Config) IsDevelopment() bool {
	return c.Server.AppEnv == "dev" || c.Server.AppEnv == "development"
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvSlice(key string, fallback []string) []string {
	if value, ok := os.LookupEnv(key); ok {
		parts := strings.Split(value, ",")
		out := parts[:0]
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}
	return fallback
}
