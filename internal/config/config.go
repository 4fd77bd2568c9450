package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMongo    = "mongo"
)

type Config struct {
	ServerAddress string
	StoreDriver   string
	DatabaseURL   string
	DBMaxConns    int32
	SQLitePath    string
	MongoURI      string
	MongoDB       string
	JWTSecret     string
	JWTExpiration time.Duration
	PasswordSalt  string
	CookieSecure  bool
	NASAAPIKey    string
	NASAAPIURL    string
	NASATimeout   time.Duration

	// parseErrs holds values that were set but could not be read.
	parseErrs []error
}

func Load() *Config {
	var perrs []error
	return &Config{
		ServerAddress: serverAddress(),
		StoreDriver:   strings.ToLower(getEnv("STORE_DRIVER", DriverPostgres)),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		DBMaxConns:    int32(getEnvInt("DB_MAX_CONNS", 5, &perrs)),
		SQLitePath:    getEnv("SQLITE_PATH", "apod.db"),
		MongoURI:      getEnv("MONGO_URI", ""),
		MongoDB:       getEnv("MONGO_DB", "apod"),
		JWTSecret:     getEnv("JWT_SECRET", ""),
		JWTExpiration: getEnvDuration("TOKEN_TTL", 8*time.Hour, &perrs),
		PasswordSalt:  getEnv("SALT", ""),
		CookieSecure:  getEnvBool("COOKIE_SECURE", false, &perrs),
		NASAAPIKey:    getEnv("NASA_API_KEY", "DEMO_KEY"),
		NASAAPIURL:    getEnv("NASA_API_URL", "https://api.nasa.gov/planetary/apod"),
		NASATimeout:   getEnvDuration("NASA_TIMEOUT", 10*time.Second, &perrs),
		parseErrs:     perrs,
	}
}

// Validate reports settings the process cannot start without, including any
// value Load could not parse.
func (c *Config) Validate() error {
	errs := append([]error(nil), c.parseErrs...)

	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if len(c.PasswordSalt) < 8 {
		errs = append(errs, errors.New("SALT is required and must be at least 8 bytes"))
	}
	if c.JWTExpiration <= 0 {
		errs = append(errs, errors.New("TOKEN_TTL must be positive"))
	}
	if c.NASATimeout <= 0 {
		errs = append(errs, errors.New("NASA_TIMEOUT must be positive"))
	}

	switch c.StoreDriver {
	case DriverPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres store"))
		}
		if c.DBMaxConns <= 0 {
			errs = append(errs, errors.New("DB_MAX_CONNS must be positive"))
		}
	case DriverSQLite:
		if c.SQLitePath == "" {
			errs = append(errs, errors.New("SQLITE_PATH is required for the sqlite store"))
		}
	case DriverMongo:
		if c.MongoURI == "" {
			errs = append(errs, errors.New("MONGO_URI is required for the mongo store"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver))
	}

	return errors.Join(errs...)
}

// serverAddress honours the API_HOST/API_PORT pair before SERVER_ADDRESS.
func serverAddress() string {
	host, port := os.Getenv("API_HOST"), os.Getenv("API_PORT")
	if host != "" && port != "" {
		return host + ":" + port
	}
	return getEnv("SERVER_ADDRESS", ":3000")
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int, errs *[]error) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %q is not an integer", key, v))
		return defaultValue
	}
	return n
}

func getEnvDuration(key string, defaultValue time.Duration, errs *[]error) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %q is not a duration", key, v))
		return defaultValue
	}
	return d
}

func getEnvBool(key string, defaultValue bool, errs *[]error) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %q is not a boolean", key, v))
		return defaultValue
	}
	return b
}
