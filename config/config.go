package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"abr-search/abr"
)

const (
	// DefaultSearchURL is the ABR advanced name search endpoint (simple protocol, 2017 schema).
	DefaultSearchURL = "https://abr.business.gov.au/abrxmlsearch/AbrXmlSearch.asmx/ABRSearchByNameAdvancedSimpleProtocol2017"
	// DefaultMaxResults is large enough to mean "everything the registry will return".
	DefaultMaxResults = 100000
	// DefaultAuthGUID is the registry web services GUID used when ABR_AUTH_GUID is unset.
	DefaultAuthGUID = "60ff3b3e-c2f4-4e9d-a086-78c396e7013d"

	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	ABRSearchURL      string
	ABRAuthGUID       string
	RequestTimeoutSec int
	MaxResults        int
	UserAgent         string

	DownloadDir string
	ListenAddr  string

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	MaxConcurrency int
	RateLimitMs    int
	MaxRetries     int

	LogLevel  string
	LogFormat string
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		ABRSearchURL:      getEnv("ABR_SEARCH_URL", DefaultSearchURL),
		ABRAuthGUID:       getEnv("ABR_AUTH_GUID", DefaultAuthGUID),
		RequestTimeoutSec: getEnvInt("ABR_TIMEOUT_SEC", 30),
		MaxResults:        getEnvInt("ABR_MAX_RESULTS", DefaultMaxResults),
		UserAgent:         getEnv("ABR_USER_AGENT", DefaultUserAgent),

		DownloadDir: getEnv("DOWNLOAD_DIR", "./downloads"),
		ListenAddr:  getEnv("LISTEN_ADDR", ":5000"),

		PostgresHost:     getEnv("POSTGRES_HOST", ""),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "abr"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", ""),
		PostgresDB:       getEnv("POSTGRES_DB", "abr_search"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 3),
		RateLimitMs:    getEnvInt("RATE_LIMIT_MS", 1000),
		MaxRetries:     getEnvInt("MAX_RETRIES", 3),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),
	}
}

// PostgresEnabled reports whether search runs should be recorded in PostgreSQL.
func (c *Config) PostgresEnabled() bool {
	return c.PostgresHost != ""
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

// ClientConfig returns the registry client settings.
func (c *Config) ClientConfig() abr.ClientConfig {
	return abr.ClientConfig{
		Endpoint:   c.ABRSearchURL,
		AuthGUID:   c.ABRAuthGUID,
		Timeout:    time.Duration(c.RequestTimeoutSec) * time.Second,
		UserAgent:  c.UserAgent,
		MaxResults: c.MaxResults,
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}
