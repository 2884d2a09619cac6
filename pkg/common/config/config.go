package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Server
	ServerPort     string
	ServerHost     string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	MaxRequestBody int64

	// Database
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string
	PostgresMaxOpen  int
	PostgresMaxIdle  int
	PostgresConnTTL  time.Duration

	// Redis
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	RedisTimeout  time.Duration

	// Kafka
	KafkaBrokers      []string
	KafkaGroupID      string
	TriageEventsTopic string
	EventsEnabled     bool

	// Decision service
	DecisionServiceURL string
	DecisionTimeout    time.Duration
	DecisionRetryCount int

	// Triage
	PatientCacheTTL      time.Duration
	SimulationInterval   time.Duration
	SimulationParamsFile string
	SimulationSeed       int64

	// Alert service
	AlertServicePort string

	// Rate limiting
	RateLimitRPS   int
	RateLimitBurst int
}

func Load() *Config {
	return &Config{
		ServerPort:  getEnv("SERVER_PORT", "5001"),
		ServerHost:  getEnv("SERVER_HOST", "0.0.0.0"),
		ReadTimeout: getDuration("READ_TIMEOUT", 30*time.Second),
		// simulate runs one decision call per patient, so writes get a long deadline
		WriteTimeout:   getDuration("WRITE_TIMEOUT", 10*time.Minute),
		MaxRequestBody: int64(getIntEnv("MAX_REQUEST_BODY_BYTES", 10*1024*1024)),

		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "medicast"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "medicast123"),
		PostgresDB:       getEnv("POSTGRES_DB", "medicast"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		PostgresMaxOpen:  getIntEnv("POSTGRES_MAX_OPEN_CONNS", 20),
		PostgresMaxIdle:  getIntEnv("POSTGRES_MAX_IDLE_CONNS", 5),
		PostgresConnTTL:  getDuration("POSTGRES_CONN_MAX_LIFETIME", 30*time.Minute),

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getIntEnv("REDIS_DB", 0),
		RedisTimeout:  getDuration("REDIS_TIMEOUT", 500*time.Millisecond),

		KafkaBrokers:      getStringSliceEnv("KAFKA_BROKERS", []string{"localhost:9092"}),
		KafkaGroupID:      getEnv("KAFKA_GROUP_ID", "medicast-alerts"),
		TriageEventsTopic: getEnv("TRIAGE_EVENTS_TOPIC", "triage-events"),
		EventsEnabled:     getBoolEnv("TRIAGE_EVENTS_ENABLED", false),

		DecisionServiceURL: getEnv("AI_SERVICE_URL", "http://localhost:5002"),
		DecisionTimeout:    getDuration("DECISION_TIMEOUT", 120*time.Second),
		DecisionRetryCount: getIntEnv("DECISION_RETRY_COUNT", 0),

		PatientCacheTTL:      getDuration("PATIENT_CACHE_TTL", 30*time.Second),
		SimulationInterval:   getDuration("SIMULATION_INTERVAL", 0),
		SimulationParamsFile: getEnv("SIMULATION_PARAMS_FILE", ""),
		SimulationSeed:       int64(getIntEnv("SIMULATION_SEED", 0)),

		AlertServicePort: getEnv("ALERT_SERVICE_PORT", "5003"),

		RateLimitRPS:   getIntEnv("RATE_LIMIT_RPS", 50),
		RateLimitBurst: getIntEnv("RATE_LIMIT_BURST", 100),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getStringSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		var out []string
		for _, part := range strings.Split(value, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
