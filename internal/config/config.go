// internal/config/config.go
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Authorization backends selectable with AUTHZ_MODE.
const (
	AuthzModeGroup   = "group"
	AuthzModeTenant  = "tenant"
	AuthzModePermify = "permify"
)

// Notification backends selectable with NOTIFY_BACKEND.
const (
	NotifyMemory   = "memory"
	NotifyPostgres = "postgres"
	NotifyRedis    = "redis"
)

type Config struct {
	Database struct {
		Driver     string `json:"driver"`
		Host       string `json:"host"`
		Port       string `json:"port"`
		User       string `json:"user"`
		Password   string `json:"password"`
		Name       string `json:"name"`
		SSLMode    string `json:"sslmode"`
		SearchPath string `json:"schema"`
		// Path is the SQLite file used when Driver is "sqlite".
		Path string `json:"path"`
	} `json:"database"`
	Authz struct {
		Mode string `json:"mode"`
	} `json:"authz"`
	Permify struct {
		Endpoint      string `json:"endpoint"`
		Tenant        string `json:"tenant"`
		SchemaVersion string `json:"schema_version"`
	} `json:"permify"`
	Redis struct {
		Addr     string `json:"addr"`
		Password string `json:"password"`
		DB       int    `json:"db"`
	} `json:"redis"`
	Notify struct {
		Backend string `json:"backend"`
	} `json:"notify"`
	JWT struct {
		Secret       string        `json:"secret"`
		ExpiryPeriod time.Duration `json:"expiry_period"`
	} `json:"jwt"`
	Server struct {
		Port         string        `json:"port"`
		ReadTimeout  time.Duration `json:"read_timeout"`
		WriteTimeout time.Duration `json:"write_timeout"`
	}
	Sendgrid struct {
		APIKey string `json:"api_key"`
		From   string `json:"from"`
	} `json:"sendgrid"`
	SMTP struct {
		Host     string `json:"host"`
		Port     int    `json:"port"`
		Username string `json:"username"`
		Password string `json:"password"`
		From     string `json:"from"`
	} `json:"smtp"`
	Reconcile struct {
		Interval time.Duration `json:"interval"`
	} `json:"reconcile"`
	BaseURL string `json:"base_url"`
}

// DSN returns the Postgres connection string in key/value form.
func (c *Config) DSN() string {
	return "host=" + c.Database.Host +
		" port=" + c.Database.Port +
		" user=" + c.Database.User +
		" password=" + c.Database.Password +
		" dbname=" + c.Database.Name +
		" sslmode=" + c.Database.SSLMode +
		" search_path=" + c.Database.SearchPath
}

// URL returns the Postgres connection string in URL form, as expected by pgx and migrate.
func (c *Config) URL() string {
	return "postgres://" + c.Database.User + ":" + c.Database.Password +
		"@" + c.Database.Host + ":" + c.Database.Port + "/" + c.Database.Name +
		"?sslmode=" + c.Database.SSLMode + "&search_path=" + c.Database.SearchPath
}

func Load() *Config {
	// A missing .env is fine; the environment wins anyway.
	_ = godotenv.Load()

	cfg := &Config{}

	// Database configuration
	cfg.Database.Driver = strings.ToLower(getEnv("DB_DRIVER", "postgres"))
	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = getEnv("DB_PORT", "5432")
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "")
	cfg.Database.Name = getEnv("DB_NAME", "orgtodo")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.Database.SearchPath = getEnv("DB_SCHEMA", "public")
	cfg.Database.Path = getEnv("DB_PATH", "orgtodo.db")

	// Authorization
	cfg.Authz.Mode = strings.ToLower(getEnv("AUTHZ_MODE", AuthzModeGroup))
	cfg.Permify.Endpoint = getEnv("PERMIFY_ENDPOINT", "localhost:3478")
	cfg.Permify.Tenant = getEnv("PERMIFY_TENANT", "t1")
	cfg.Permify.SchemaVersion = getEnv("PERMIFY_SCHEMA_VERSION", "")

	// Redis is optional; an empty address disables it.
	cfg.Redis.Addr = getEnv("REDIS_ADDR", "")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = getEnvInt("REDIS_DB", 0)

	cfg.Notify.Backend = strings.ToLower(getEnv("NOTIFY_BACKEND", NotifyMemory))

	// JWT configuration
	cfg.JWT.Secret = getEnv("JWT_SECRET", "your-secret-key")
	cfg.JWT.ExpiryPeriod = getEnvDuration("JWT_EXPIRY", time.Hour*24)

	// Sendgrid configuration
	cfg.Sendgrid.APIKey = getEnv("SENDGRID_API_KEY", "")
	cfg.Sendgrid.From = getEnv("SENDGRID_FROM", "")

	// SMTP configuration
	cfg.SMTP.Host = getEnv("SMTP_HOST", "")
	cfg.SMTP.Port = getEnvInt("SMTP_PORT", 587)
	cfg.SMTP.Username = getEnv("SMTP_USERNAME", "")
	cfg.SMTP.Password = getEnv("SMTP_PASSWORD", "")
	cfg.SMTP.From = getEnv("SMTP_FROM", "")

	// Server configuration
	cfg.Server.Port = getEnv("SERVER_PORT", "8080")
	cfg.Server.ReadTimeout = time.Second * 15
	cfg.Server.WriteTimeout = getEnvDuration("SERVER_WRITE_TIMEOUT", 0)

	cfg.Reconcile.Interval = getEnvDuration("RECONCILE_INTERVAL", 5*time.Minute)

	cfg.BaseURL = getEnv("BASE_URL", "http://localhost:8080")

	return cfg
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	parsed, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return defaultValue
	}
	return parsed
}
