package shared

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv      string
	LogLevel    string
	HTTPAddr    string
	MetricsAddr string

	DBDriver   string // sqlite | mysql
	SQLitePath string
	MySQLDSN   string

	RedisAddr string
	RedisDB   int
	RedisPass string
	CacheTTL  time.Duration

	HelloPeterBase string
	PageSize       int
	RequestDelay   time.Duration
	MaxRetries     int
	BackoffBase    time.Duration
	BackoffFactor  float64
	BackoffMaxWait time.Duration
	HTTPTimeout    time.Duration

	OutputDir string
}

func Load() Config {
	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
			log.Warn().Str("key", k).Str("value", v).Msg("ignoring non-integer env value")
		}
		return def
	}
	atof := func(k string, def float64) float64 {
		if v := os.Getenv(k); v != "" {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				return f
			}
			log.Warn().Str("key", k).Str("value", v).Msg("ignoring non-numeric env value")
		}
		return def
	}
	ms := func(k string, def int) time.Duration { return time.Duration(atoi(k, def)) * time.Millisecond }

	c := Config{
		AppEnv:      env("APP_ENV", "prod"),
		LogLevel:    env("LOG_LEVEL", "info"),
		HTTPAddr:    env("HTTP_ADDR", ":8080"),
		MetricsAddr: env("METRICS_ADDR", ":9100"),

		DBDriver:   strings.ToLower(env("DB_DRIVER", "sqlite")),
		SQLitePath: env("SQLITE_PATH", "hellopeter_reviews.db"),
		MySQLDSN:   env("MYSQL_DSN", "root:root@tcp(localhost:3306)/reviews?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),

		RedisAddr: env("REDIS_ADDR", ""),
		RedisPass: env("REDIS_PASSWORD", ""),
		RedisDB:   atoi("REDIS_DB", 0),
		CacheTTL:  time.Duration(atoi("CACHE_TTL_SECONDS", 900)) * time.Second,

		HelloPeterBase: env("HELLOPETER_BASE_URL", "https://api-v6.hellopeter.com/api/consumer"),
		PageSize:       atoi("HELLOPETER_PAGE_SIZE", 10),
		RequestDelay:   ms("REQUEST_DELAY_MS", 1000),
		MaxRetries:     atoi("MAX_RETRIES", 3),
		BackoffBase:    ms("BACKOFF_BASE_MS", 1000),
		BackoffFactor:  atof("BACKOFF_FACTOR", 2),
		BackoffMaxWait: ms("BACKOFF_MAX_WAIT_MS", 30000),
		HTTPTimeout:    time.Duration(atoi("HTTP_TIMEOUT_SECONDS", 20)) * time.Second,

		OutputDir: env("OUTPUT_DIR", "output"),
	}
	if c.DBDriver != "sqlite" && c.DBDriver != "mysql" {
		log.Warn().Str("driver", c.DBDriver).Msg("unknown DB_DRIVER, falling back to sqlite")
		c.DBDriver = "sqlite"
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
