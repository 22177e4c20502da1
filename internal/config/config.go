package config

import (
	"errors"  // Validation errors
	"fmt"     // DSN formatting
	"os"      // For environment variables
	"strconv" // For string to int conversion
	"strings" // For list parsing
	"time"    // For durations

	"github.com/joho/godotenv" // For loading .env files
)

// Config holds the application configuration
type Config struct {
	AppPort        string        // Application port
	DBDriver       string        // mysql or memory
	DBUser         string        // Database user
	DBPassword     string        // Database password
	DBHost         string        // Database host
	DBPort         string        // Database port
	DBName         string        // Database name
	JWTSecret      string        // JWT secret key
	AccessTTL      time.Duration // Access token lifetime
	RefreshTTL     time.Duration // Refresh token lifetime
	LinkTTL        time.Duration // Activation and reset link lifetime
	RedisAddr      string        // Redis server address, empty disables Redis
	RedisPass      string        // Redis password
	RedisDB        int           // Redis database number
	CacheTTL       time.Duration // Read cache entry lifetime
	IsProd         bool          // Is production environment
	LogLevel       string        // logrus level name
	SiteDomain     string        // Base URL used in mailed links
	EmailHost      string        // SMTP host, empty logs mail instead
	EmailPort      string        // SMTP port
	EmailUser      string        // SMTP user and sender
	EmailPassword  string        // SMTP password
	InitialStatus  string        // Status of new ledger rows: pending or processed
	MaxRetries     int           // Retries on wallet lock contention
	RateLimitMax   int           // Money movements per window per user
	RateLimitWin   time.Duration // Rate limit window
	TrustedProxies []string      // Proxies gin trusts for client IPs
	AdminEmail     string        // Bootstrap admin account
	AdminPassword  string        // Bootstrap admin password
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	_ = godotenv.Load() // Load .env file if present
	return &Config{
		AppPort:        getEnv("APP_PORT", "8080"),                      // Application port
		DBDriver:       getEnv("DB_DRIVER", "mysql"),                    // Store backend
		DBUser:         os.Getenv("DB_USER"),                            // Database user
		DBPassword:     os.Getenv("DB_PASSWORD"),                        // Database password
		DBHost:         getEnv("DB_HOST", "127.0.0.1"),                  // Database host
		DBPort:         getEnv("DB_PORT", "3306"),                       // Database port
		DBName:         os.Getenv("DB_NAME"),                            // Database name
		JWTSecret:      os.Getenv("JWT_SECRET"),                         // JWT secret key
		AccessTTL:      getDuration("ACCESS_TOKEN_TTL", 15*time.Minute), // Access token lifetime
		RefreshTTL:     getDuration("REFRESH_TOKEN_TTL", 24*time.Hour),  // Refresh token lifetime
		LinkTTL:        getDuration("LINK_TOKEN_TTL", 72*time.Hour),     // Link lifetime
		RedisAddr:      os.Getenv("REDIS_ADDR"),                         // Redis server address
		RedisPass:      os.Getenv("REDIS_PASS"),                         // Redis password
		RedisDB:        getInt("REDIS_DB", 0),                           // Redis database number
		CacheTTL:       getDuration("CACHE_TTL", 60*time.Second),        // Read cache lifetime
		IsProd:         os.Getenv("IS_PROD") == "true",                  // Is production environment
		LogLevel:       getEnv("LOG_LEVEL", "info"),                     // Log level
		SiteDomain:     getEnv("SITE_DOMAIN", "http://localhost:8080"),  // Link base URL
		EmailHost:      os.Getenv("EMAIL_HOST"),                         // SMTP host
		EmailPort:      getEnv("EMAIL_PORT", "587"),                     // SMTP port
		EmailUser:      os.Getenv("EMAIL_HOST_USER"),                    // SMTP user
		EmailPassword:  os.Getenv("EMAIL_HOST_PASSWORD"),                // SMTP password
		InitialStatus:  getEnv("LEDGER_INITIAL_STATUS", "pending"),      // New row status
		MaxRetries:     getInt("LEDGER_MAX_RETRIES", 3),                 // Contention retries
		RateLimitMax:   getInt("RATE_LIMIT_MAX", 10),                    // Requests per window
		RateLimitWin:   getDuration("RATE_LIMIT_WINDOW", time.Minute),   // Window length
		TrustedProxies: getList("TRUSTED_PROXIES"),                      // Trusted proxies
		AdminEmail:     os.Getenv("ADMIN_EMAIL"),                        // Bootstrap admin
		AdminPassword:  os.Getenv("ADMIN_PASSWORD"),                     // Bootstrap admin password
	}
}

// Validate reports settings the server cannot start with
func (c *Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	switch c.DBDriver {
	case "mysql":
		if c.DBName == "" || c.DBUser == "" {
			errs = append(errs, errors.New("DB_NAME and DB_USER are required for the mysql driver"))
		}
	case "memory":
		if c.IsProd {
			errs = append(errs, errors.New("the memory driver is not allowed in production"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown DB_DRIVER %q", c.DBDriver))
	}
	if c.InitialStatus != "pending" && c.InitialStatus != "processed" {
		errs = append(errs, fmt.Errorf("LEDGER_INITIAL_STATUS must be pending or processed, got %q", c.InitialStatus))
	}
	if c.MaxRetries < 0 {
		errs = append(errs, errors.New("LEDGER_MAX_RETRIES must not be negative"))
	}
	if (c.AdminEmail == "") != (c.AdminPassword == "") {
		errs = append(errs, errors.New("ADMIN_EMAIL and ADMIN_PASSWORD must be set together"))
	}
	return errors.Join(errs...)
}

// DSN builds the MySQL connection string
func (c *Config) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return n
}

// getDuration accepts Go durations ("90s") or plain seconds ("90")
func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	return fallback
}

func getList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
