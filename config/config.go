package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	devJWTSecret       = "food_ordering_dev_secret"
	devAdminSignupCode = "ADMIN123"
)

// Config holds all application configuration
type Config struct {
	Port      string
	GoEnv     string
	APIPrefix string
	LogLevel  string

	DatabaseDriver string
	DatabaseURL    string

	JWTSecret       string
	TokenTTL        time.Duration
	AdminSignupCode string

	UploadDir      string
	MaxUploadBytes int64
	ImageStore     string

	AWSRegion          string
	AWSS3Bucket        string
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	S3PublicBaseURL    string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	AMQPURL string

	OrderTotalPolicy string
	OrderTransitions string

	CORSOrigins []string

	envFile string
}

// Load reads configuration from the environment. It first tries
// .env.<GO_ENV>, then .env; missing files are not an error.
func Load() (*Config, error) {
	env := getEnv("GO_ENV", "development")
	loadedFrom := ""
	if err := godotenv.Load(fmt.Sprintf(".env.%s", env)); err == nil {
		loadedFrom = ".env." + env
	} else if err := godotenv.Load(); err == nil {
		loadedFrom = ".env"
	}

	cfg := &Config{
		Port:      getEnv("PORT", "8080"),
		GoEnv:     getEnv("GO_ENV", "development"),
		APIPrefix: getEnv("API_PREFIX", "/api"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),

		DatabaseDriver: strings.ToLower(getEnv("DB_DRIVER", DriverSQLite)),
		DatabaseURL:    getEnv("DATABASE_URL", "food_ordering.db"),

		JWTSecret:       os.Getenv("JWT_SECRET"),
		TokenTTL:        getEnvDuration("TOKEN_TTL", 24*time.Hour),
		AdminSignupCode: os.Getenv("ADMIN_SIGNUP_CODE"),

		UploadDir:      getEnv("UPLOAD_DIR", "./uploads"),
		MaxUploadBytes: int64(getEnvInt("MAX_UPLOAD_BYTES", 5*1024*1024)),
		ImageStore:     strings.ToLower(getEnv("IMAGE_STORE", "local")),

		AWSRegion:          getEnv("AWS_REGION", "us-east-1"),
		AWSS3Bucket:        os.Getenv("AWS_S3_BUCKET"),
		AWSAccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
		AWSSecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
		S3PublicBaseURL:    os.Getenv("S3_PUBLIC_BASE_URL"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		AMQPURL: os.Getenv("AMQP_URL"),

		OrderTotalPolicy: strings.ToLower(getEnv("ORDER_TOTAL_POLICY", "recompute")),
		OrderTransitions: strings.ToLower(getEnv("ORDER_TRANSITIONS", "permissive")),

		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "*")),

		envFile: loadedFrom,
	}

	if !cfg.IsProduction() {
		if cfg.JWTSecret == "" {
			cfg.JWTSecret = devJWTSecret
		}
		if _, set := os.LookupEnv("ADMIN_SIGNUP_CODE"); !set {
			cfg.AdminSignupCode = devAdminSignupCode
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that all required configuration values are set
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	switch c.DatabaseDriver {
	case DriverSQLite, DriverPostgres, DriverMySQL:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DatabaseDriver)
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive")
	}
	switch c.ImageStore {
	case "local":
	case "s3":
		if c.AWSS3Bucket == "" {
			return fmt.Errorf("AWS_S3_BUCKET is required when IMAGE_STORE=s3")
		}
	default:
		return fmt.Errorf("unsupported IMAGE_STORE %q", c.ImageStore)
	}
	switch c.OrderTotalPolicy {
	case "recompute", "trust":
	default:
		return fmt.Errorf("unsupported ORDER_TOTAL_POLICY %q", c.OrderTotalPolicy)
	}
	switch c.OrderTransitions {
	case "permissive", "strict":
	default:
		return fmt.Errorf("unsupported ORDER_TRANSITIONS %q", c.OrderTransitions)
	}
	return nil
}

// IsProduction returns true if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.GoEnv == "production"
}

// IsTest returns true if the application is running in test mode
func (c *Config) IsTest() bool {
	return c.GoEnv == "test"
}

// EnvFile names the dotenv file the configuration was read from, if any.
func (c *Config) EnvFile() string {
	return c.envFile
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
