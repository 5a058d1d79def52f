package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Development defaults that must not be used in release mode
const (
	defaultJWTSecret    = "your-secret-key"
	defaultSeedPassword = "testPassword24!"
)

// Config holds all configuration for our application
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Logger    LoggerConfig
	JWT       JWTConfig
	CORS      CORSConfig
	Storage   StorageConfig
	Redis     RedisConfig
	Password  PasswordConfig
	Scheduler SchedulerConfig
	Seed      SeedConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port    string
	GinMode string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
	MaxIdle     int
	MaxOpen     int
	MaxLifetime time.Duration
	LogLevel    string
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level  string
	Format string
}

// JWTConfig holds session token configuration
type JWTConfig struct {
	Secret       string
	Issuer       string
	TTL          time.Duration
	CookieName   string
	CookieSecure bool
}

// CORSConfig holds CORS configuration
type CORSConfig struct {
	AllowedOrigins string
}

// StorageConfig selects where uploaded avatars are written
type StorageConfig struct {
	Driver    string // "local" or "minio"
	LocalDir  string
	PublicURL string
	MinIO     MinIOConfig
}

// MinIOConfig holds MinIO object storage configuration
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// RedisConfig holds redis configuration. An empty Addr disables token revocation.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// PasswordConfig holds the password strength policy
type PasswordConfig struct {
	MinLength        int
	RequireMixedCase bool
	RequireNumbers   bool
	RequireSymbols   bool
	BcryptCost       int
}

// SchedulerConfig holds scheduler configuration. An empty expression disables the purge job.
type SchedulerConfig struct {
	PurgeCronExpression string
	TrashRetentionDays  int
}

// SeedConfig controls creation of the initial account
type SeedConfig struct {
	Enabled  bool
	Prefix   string
	First    string
	Last     string
	Username string
	Email    string
	Password string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		// It's okay if .env file doesn't exist
		fmt.Println("No .env file found, using environment variables")
	}

	config := &Config{
		Server: ServerConfig{
			Port:    getEnv("PORT", "8080"),
			GinMode: getEnv("GIN_MODE", "debug"),
		},
		Database: DatabaseConfig{
			Host:        getEnv("DB_HOST", "localhost"),
			Port:        getEnvAsInt("DB_PORT", 5432),
			User:        getEnv("DB_USER", "postgres"),
			Password:    getEnv("DB_PASSWORD", "secret"),
			DBName:      getEnv("DB_NAME", "users"),
			SSLMode:     getEnv("DB_SSLMODE", "disable"),
			MaxIdle:     getEnvAsInt("DB_MAX_IDLE", 10),
			MaxOpen:     getEnvAsInt("DB_MAX_OPEN", 50),
			MaxLifetime: time.Duration(getEnvAsInt("DB_MAX_LIFETIME_MINUTES", 30)) * time.Minute,
			LogLevel:    getEnv("DB_LOG_LEVEL", "warn"),
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "debug"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		JWT: JWTConfig{
			Secret:       getEnv("JWT_SECRET", defaultJWTSecret),
			Issuer:       getEnv("JWT_ISSUER", "user-management-svc"),
			TTL:          time.Duration(getEnvAsInt("JWT_TTL_HOURS", 24)) * time.Hour,
			CookieName:   getEnv("JWT_COOKIE_NAME", "auth-token"),
			CookieSecure: getEnvAsBool("JWT_COOKIE_SECURE", false),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://127.0.0.1:3000"),
		},
		Storage: StorageConfig{
			Driver:    getEnv("STORAGE_DRIVER", "local"),
			LocalDir:  getEnv("STORAGE_LOCAL_DIR", "storage/public"),
			PublicURL: getEnv("STORAGE_PUBLIC_URL", "http://localhost:8080/storage"),
			MinIO: MinIOConfig{
				Endpoint:  getEnv("MINIO_ENDPOINT", "localhost:9000"),
				AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
				SecretKey: getEnv("MINIO_SECRET_KEY", ""),
				Bucket:    getEnv("MINIO_BUCKET", "public"),
				UseSSL:    getEnvAsBool("MINIO_USE_SSL", false),
			},
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Password: PasswordConfig{
			MinLength:        getEnvAsInt("PASSWORD_MIN_LENGTH", 8),
			RequireMixedCase: getEnvAsBool("PASSWORD_REQUIRE_MIXED_CASE", false),
			RequireNumbers:   getEnvAsBool("PASSWORD_REQUIRE_NUMBERS", false),
			RequireSymbols:   getEnvAsBool("PASSWORD_REQUIRE_SYMBOLS", false),
			BcryptCost:       getEnvAsInt("BCRYPT_COST", 10),
		},
		Scheduler: SchedulerConfig{
			PurgeCronExpression: getEnv("PURGE_CRON_EXPRESSION", ""),
			TrashRetentionDays:  getEnvAsInt("TRASH_RETENTION_DAYS", 30),
		},
		Seed: SeedConfig{
			Enabled:  getEnvAsBool("SEED_DEFAULT_USER", false),
			Prefix:   getEnv("SEED_PREFIX", "Mr"),
			First:    getEnv("SEED_FIRST_NAME", "Test"),
			Last:     getEnv("SEED_LAST_NAME", "User"),
			Username: getEnv("SEED_USERNAME", "testuser"),
			Email:    getEnv("SEED_EMAIL", "test@test.com"),
			Password: getEnv("SEED_PASSWORD", defaultSeedPassword),
		},
	}

	if config.Storage.Driver != "local" && config.Storage.Driver != "minio" {
		return nil, fmt.Errorf("unsupported storage driver %q", config.Storage.Driver)
	}

	if err := config.checkReleaseSecrets(); err != nil {
		return nil, err
	}

	return config, nil
}

// checkReleaseSecrets refuses the built-in development secrets in release mode
func (c *Config) checkReleaseSecrets() error {
	if c.Server.GinMode != "release" {
		return nil
	}
	if c.JWT.Secret == defaultJWTSecret {
		return fmt.Errorf("JWT_SECRET must be set in release mode")
	}
	if c.Seed.Enabled && c.Seed.Password == defaultSeedPassword {
		return fmt.Errorf("SEED_PASSWORD must be set when seeding in release mode")
	}
	return nil
}

// GetDSN returns PostgreSQL connection string
func (d *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// AllowedOriginList splits the comma separated origin list
func (c *CORSConfig) AllowedOriginList() []string {
	var origins []string
	for _, origin := range strings.Split(c.AllowedOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}

// getEnv gets an environment variable with a fallback value
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// getEnvAsInt gets an environment variable as integer with a fallback value
func getEnvAsInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

// getEnvAsBool gets an environment variable as boolean with a fallback value
func getEnvAsBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}
