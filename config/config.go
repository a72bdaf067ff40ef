package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// Push transports understood by PushTransport.
const (
	PushNone      = "none"
	PushWebSocket = "websocket"
	PushNATS      = "nats"
)

type Config struct {
	AppEnv   string `yaml:"app_env"`
	LogLevel string `yaml:"log_level"`

	// Client side
	APIURL          string        `yaml:"api_url"`
	AuthToken       string        `yaml:"auth_token"`
	PushTransport   string        `yaml:"push_transport"`
	WebSocketURL    string        `yaml:"websocket_url"`
	NatsURL         string        `yaml:"nats_url"`
	NatsSubject     string        `yaml:"nats_subject"`
	PushTimeout     time.Duration `yaml:"push_timeout"`
	PollAttempts    int           `yaml:"poll_attempts"`
	PollMinInterval time.Duration `yaml:"poll_min_interval"`
	PollMaxInterval time.Duration `yaml:"poll_max_interval"`
	PendingTTL      time.Duration `yaml:"pending_ttl"`
	CacheTTL        time.Duration `yaml:"cache_ttl"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`

	// Mock API side
	AppPort            string        `yaml:"app_port"`
	AllowedOrigins     string        `yaml:"allowed_origins"`
	CommandDelay       time.Duration `yaml:"command_delay"`
	DBDriver           string        `yaml:"db_driver"`
	DBHost             string        `yaml:"db_host"`
	DBPort             string        `yaml:"db_port"`
	DBUser             string        `yaml:"db_user"`
	DBPassword         string        `yaml:"db_password"`
	DBName             string        `yaml:"db_name"`
	DBPath             string        `yaml:"db_path"`
	DBMaxIdleConns     int           `yaml:"db_max_idle_conns"`
	DBMaxOpenConns     int           `yaml:"db_max_open_conns"`
	JWTSecret          string        `yaml:"jwt_secret"`
	JWTExpirationHours int           `yaml:"jwt_expiration_hours"`
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Debug().Str("key", key).Str("default", defaultValue).Msg("env not set, using default")
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
		log.Warn().Str("key", key).Int("default", defaultValue).Msg("invalid integer value, using default")
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		log.Warn().Str("key", key).Dur("default", defaultValue).Msg("invalid duration value, using default")
	}
	return defaultValue
}

func Load() Config {
	return Config{
		AppEnv:   getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		APIURL:          getEnv("API_URL", "http://localhost:8080/api/v1"),
		AuthToken:       getEnv("AUTH_TOKEN", ""),
		PushTransport:   getEnv("PUSH_TRANSPORT", PushWebSocket),
		WebSocketURL:    getEnv("WEBSOCKET_URL", "ws://localhost:8080/api/v1/ws"),
		NatsURL:         getEnv("NATS_URL", "nats://localhost:4222"),
		NatsSubject:     getEnv("NATS_SUBJECT", "operations.updated"),
		PushTimeout:     getEnvAsDuration("PUSH_TIMEOUT", 5*time.Second),
		PollAttempts:    getEnvAsInt("POLL_ATTEMPTS", 10),
		PollMinInterval: getEnvAsDuration("POLL_MIN_INTERVAL", 500*time.Millisecond),
		PollMaxInterval: getEnvAsDuration("POLL_MAX_INTERVAL", 1000*time.Millisecond),
		PendingTTL:      getEnvAsDuration("PENDING_TTL", 5*time.Minute),
		CacheTTL:        getEnvAsDuration("CACHE_TTL", 5*time.Second),
		RequestTimeout:  getEnvAsDuration("REQUEST_TIMEOUT", 30*time.Second),

		AppPort:            getEnv("APP_PORT", "8080"),
		AllowedOrigins:     getEnv("ALLOWED_ORIGINS", "*"),
		CommandDelay:       getEnvAsDuration("COMMAND_DELAY", 1500*time.Millisecond),
		DBDriver:           getEnv("DB_DRIVER", "sqlite"),
		DBHost:             getEnv("DB_HOST", "localhost"),
		DBPort:             getEnv("DB_PORT", "5432"),
		DBUser:             getEnv("DB_USER", "warden"),
		DBPassword:         getEnv("DB_PASSWORD", "warden"),
		DBName:             getEnv("DB_NAME", "warden"),
		DBPath:             getEnv("DB_PATH", "warden.db"),
		DBMaxIdleConns:     getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
		DBMaxOpenConns:     getEnvAsInt("DB_MAX_OPEN_CONNS", 100),
		JWTSecret:          getEnv("JWT_SECRET", "your-super-secret-key-change-this-in-production"),
		JWTExpirationHours: getEnvAsInt("JWT_EXPIRATION_HOURS", 24),
	}
}

// LoadFile loads the environment configuration and overlays the YAML file at
// path on top of it. Keys missing from the file keep their env value.
func LoadFile(path string) (Config, error) {
	cfg := Load()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	log.Info().Str("path", path).Msg("configuration file loaded")
	return cfg, nil
}

func (c Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}
