package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env  string
	Port string

	MongoURI      string
	MongoDatabase string

	JWTSecret []byte
	JWTTTL    time.Duration

	Location *time.Location

	FreeShippingThreshold float64
	FlatShippingCost      float64

	RedisAddr     string
	RedisPassword string

	KafkaBrokers []string
	KafkaTopic   string

	JaegerEndpoint string

	UploadDir     string
	PublicBaseURL string
	CORSOrigins   []string

	AdminEmail    string
	AdminPassword string
}

// Production reports whether raw error text must be hidden from clients.
func (c *Config) Production() bool {
	return c.Env == "production"
}

// Load reads .env if present and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Env:            getEnv("APP_ENV", "development"),
		Port:           getEnv("PORT", "5000"),
		MongoURI:       getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDatabase:  getEnv("MONGODB_DATABASE", "kondapalli"),
		RedisAddr:      getEnv("REDIS_ADDR", ""),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		KafkaTopic:     getEnv("KAFKA_TOPIC", "order_events"),
		JaegerEndpoint: getEnv("JAEGER_ENDPOINT", ""),
		UploadDir:      getEnv("UPLOAD_DIR", "static/uploads"),
		PublicBaseURL:  strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:5173"), "/"),
		AdminEmail:     getEnv("ADMIN_EMAIL", ""),
		AdminPassword:  getEnv("ADMIN_PASSWORD", ""),
	}

	if brokers := getEnv("KAFKA_BROKERS", ""); brokers != "" {
		cfg.KafkaBrokers = splitList(brokers)
	}
	cfg.CORSOrigins = splitList(getEnv("CORS_ORIGINS", "*"))

	secret := getEnv("JWT_SECRET", "")
	if secret == "" {
		if cfg.Production() {
			return nil, fmt.Errorf("JWT_SECRET must be set in production")
		}
		secret = "dev-secret-change-me"
	}
	cfg.JWTSecret = []byte(secret)

	ttl, err := time.ParseDuration(getEnv("JWT_TTL", "168h"))
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_TTL: %w", err)
	}
	cfg.JWTTTL = ttl

	cfg.Location = time.Local
	if tz := getEnv("STORE_TIMEZONE", ""); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return nil, fmt.Errorf("invalid STORE_TIMEZONE: %w", err)
		}
		cfg.Location = loc
	}

	if cfg.FreeShippingThreshold, err = getFloat("FREE_SHIPPING_THRESHOLD", 499); err != nil {
		return nil, err
	}
	if cfg.FlatShippingCost, err = getFloat("FLAT_SHIPPING_COST", 100); err != nil {
		return nil, err
	}

	if _, err := strconv.Atoi(strings.TrimPrefix(cfg.Port, ":")); err != nil {
		return nil, fmt.Errorf("invalid PORT %q", cfg.Port)
	}
	return cfg, nil
}

// Addr is the listen address derived from Port.
func (c *Config) Addr() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

func getFloat(key string, defaultValue float64) (float64, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("invalid %s %q", key, raw)
	}
	return v, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
