package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	ProxyModeAuto     = "auto"
	ProxyModeDirect   = "direct"
	ProxyModeStatic   = "static"
	ProxyModeWebshare = "webshare"
	ProxyModePool     = "pool"
)

type Config struct {
	// Server settings
	ServerPort      string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// Rate limiting
	RateLimit         int
	RateLimitInterval time.Duration

	// Logging
	LogLevel  string
	LogFormat string
	LogDir    string

	Proxy    ProxyConfig
	Provider ProviderConfig
}

type ProxyConfig struct {
	Mode               string
	URL                string
	Username           string
	Password           string
	ListPath           string
	MaxAttempts        int
	AttemptTimeout     time.Duration
	DirectTimeout      time.Duration
	ProbeURL           string
	InsecureSkipVerify bool
}

type ProviderConfig struct {
	Timeout   time.Duration
	Languages []string
}

// LoadConfig reads .env (if present) and then the process environment.
// Values already set in the environment win over .env entries.
func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logrus.WithError(err).Warn("Failed to load .env file")
	}

	return &Config{
		ServerPort:        GetEnv("PORT", "5001"),
		ReadTimeout:       getEnvAsDuration("READ_TIMEOUT", 30*time.Second),
		WriteTimeout:      getEnvAsDuration("WRITE_TIMEOUT", 90*time.Second),
		IdleTimeout:       getEnvAsDuration("IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout:   getEnvAsDuration("SHUTDOWN_TIMEOUT", 5*time.Second),
		RateLimit:         getEnvAsInt("RATE_LIMIT", 5),
		RateLimitInterval: getEnvAsDuration("RATE_LIMIT_INTERVAL", 1*time.Second),
		LogLevel:          GetEnv("LOG_LEVEL", "info"),
		LogFormat:         GetEnv("LOG_FORMAT", "text"),
		LogDir:            GetEnv("LOG_DIR", ""),
		Proxy: ProxyConfig{
			Mode:               strings.ToLower(GetEnv("PROXY_MODE", ProxyModeAuto)),
			URL:                GetEnv("PROXY_URL", ""),
			Username:           GetEnv("PROXY_USERNAME", ""),
			Password:           GetEnv("PROXY_PASSWORD", ""),
			ListPath:           GetEnv("PROXY_LIST_PATH", "proxies.txt"),
			MaxAttempts:        getEnvAsInt("PROXY_MAX_ATTEMPTS", 5),
			AttemptTimeout:     getEnvAsDuration("PROXY_ATTEMPT_TIMEOUT", 2*time.Second),
			DirectTimeout:      getEnvAsDuration("DIRECT_TIMEOUT", 5*time.Second),
			ProbeURL:           GetEnv("PROBE_URL", "https://www.youtube.com/"),
			InsecureSkipVerify: getEnvAsBool("PROXY_INSECURE_SKIP_VERIFY", false),
		},
		Provider: ProviderConfig{
			Timeout:   getEnvAsDuration("PROVIDER_TIMEOUT", 15*time.Second),
			Languages: getEnvAsStringSlice("TRANSCRIPT_LANGUAGES", []string{"en"}),
		},
	}
}

func GetEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		logrus.WithFields(logrus.Fields{
			"key":          key,
			"value":        value,
			"defaultValue": defaultValue,
		}).Warn("Invalid duration, using default")
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
		logrus.WithFields(logrus.Fields{
			"key":          key,
			"value":        value,
			"defaultValue": defaultValue,
		}).Warn("Invalid integer, using default")
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
		logrus.WithFields(logrus.Fields{
			"key":          key,
			"value":        value,
			"defaultValue": defaultValue,
		}).Warn("Invalid boolean, using default")
	}
	return defaultValue
}

func getEnvAsStringSlice(key string, defaultValue []string) []string {
	if value, exists := os.LookupEnv(key); exists {
		var out []string
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}

func ValidateConfig(cfg *Config) error {
	if cfg.ServerPort == "" {
		return errors.New("server port is required")
	}
	if cfg.ReadTimeout <= 0 {
		return errors.New("read timeout must be greater than 0")
	}
	if cfg.WriteTimeout <= 0 {
		return errors.New("write timeout must be greater than 0")
	}
	if cfg.IdleTimeout <= 0 {
		return errors.New("idle timeout must be greater than 0")
	}
	if cfg.RateLimit <= 0 {
		return errors.New("rate limit must be greater than 0")
	}
	if cfg.RateLimitInterval <= 0 {
		return errors.New("rate limit interval must be greater than 0")
	}
	if cfg.Proxy.MaxAttempts < 1 {
		return errors.New("proxy max attempts must be at least 1")
	}
	if cfg.Proxy.AttemptTimeout <= 0 {
		return errors.New("proxy attempt timeout must be greater than 0")
	}
	if cfg.Proxy.DirectTimeout <= 0 {
		return errors.New("direct timeout must be greater than 0")
	}
	if cfg.Provider.Timeout <= 0 {
		return errors.New("provider timeout must be greater than 0")
	}
	if budget := WorstCaseFetch(cfg); cfg.WriteTimeout <= budget {
		return errors.Errorf("write timeout %s must exceed the worst-case upstream time %s (PROXY_MAX_ATTEMPTS x max(PROVIDER_TIMEOUT, PROXY_ATTEMPT_TIMEOUT))", cfg.WriteTimeout, budget)
	}
	switch cfg.Proxy.Mode {
	case ProxyModeAuto, ProxyModeDirect, ProxyModeStatic, ProxyModeWebshare, ProxyModePool:
	default:
		return errors.Errorf("unknown proxy mode %q", cfg.Proxy.Mode)
	}
	return nil
}

// WorstCaseFetch is the longest a single request can spend upstream: every
// pool attempt running into its own time limit.
func WorstCaseFetch(cfg *Config) time.Duration {
	perAttempt := max(cfg.Provider.Timeout, cfg.Proxy.AttemptTimeout)
	return time.Duration(cfg.Proxy.MaxAttempts) * perAttempt
}
