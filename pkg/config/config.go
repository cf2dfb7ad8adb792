package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// Config holds the configuration for a palate agent
type Config struct {
	// MQTT configuration
	MQTTBroker   string
	MQTTPort     int
	MQTTUser     string
	MQTTPassword string
	MQTTClientID string

	// Redis configuration
	RedisHost     string
	RedisPort     int
	RedisPassword string
	RedisDB       int

	// Postgres configuration
	PostgresHost               string
	PostgresPort               int
	PostgresUser               string
	PostgresPassword           string
	PostgresDB                 string
	PostgresSSLMode            string
	PostgresMaxConnections     int
	PostgresMaxIdleConnections int
	PostgresConnMaxLifetime    time.Duration

	// Service configuration
	ServiceName string
	HealthPort  int
	LogLevel    string

	// Geographic location for daylight context tagging
	Latitude  float64
	Longitude float64

	// Preference engine configuration
	BaseLearningRate     float64
	DecayRate            float64
	ConfidenceThreshold  float64
	MaxRatingHistory     int
	HistoryRetentionDays int
	TablesFile           string

	// Planner configuration
	PlanDays       int
	NoRepeatWindow int
}

// NewConfig creates a new Config with default values
func NewConfig() *Config {
	return &Config{
		MQTTBroker:   "localhost",
		MQTTPort:     1883,
		MQTTUser:     "",
		MQTTPassword: "",
		MQTTClientID: "",

		RedisHost:     "localhost",
		RedisPort:     6379,
		RedisPassword: "",
		RedisDB:       0,

		PostgresHost:               "localhost",
		PostgresPort:               5432,
		PostgresUser:               "palate",
		PostgresPassword:           "",
		PostgresDB:                 "palate",
		PostgresSSLMode:            "disable",
		PostgresMaxConnections:     10,
		PostgresMaxIdleConnections: 5,
		PostgresConnMaxLifetime:    30 * time.Minute,

		ServiceName: "palate-agent",
		HealthPort:  8080,
		LogLevel:    "info",

		// Helsinki coordinates
		Latitude:  60.1695,
		Longitude: 24.9354,

		BaseLearningRate:     0.1,
		DecayRate:            0.02,
		ConfidenceThreshold:  0.7,
		MaxRatingHistory:     200,
		HistoryRetentionDays: 90,
		TablesFile:           "",

		PlanDays:       7,
		NoRepeatWindow: 14,
	}
}

// LoadFromEnv loads configuration from environment variables with PALATE_ prefix
func (c *Config) LoadFromEnv() {
	// MQTT configuration
	if v := os.Getenv("PALATE_MQTT_BROKER"); v != "" {
		c.MQTTBroker = v
	}
	if v := os.Getenv("PALATE_MQTT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.MQTTPort = port
		}
	}
	if v := os.Getenv("PALATE_MQTT_USER"); v != "" {
		c.MQTTUser = v
	}
	if v := os.Getenv("PALATE_MQTT_PASSWORD"); v != "" {
		c.MQTTPassword = v
	}
	if v := os.Getenv("PALATE_MQTT_CLIENT_ID"); v != "" {
		c.MQTTClientID = v
	}

	// Redis configuration
	if v := os.Getenv("PALATE_REDIS_HOST"); v != "" {
		c.RedisHost = v
	}
	if v := os.Getenv("PALATE_REDIS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.RedisPort = port
		}
	}
	if v := os.Getenv("PALATE_REDIS_PASSWORD"); v != "" {
		c.RedisPassword = v
	}
	if v := os.Getenv("PALATE_REDIS_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			c.RedisDB = db
		}
	}

	// Postgres configuration
	if v := os.Getenv("PALATE_POSTGRES_HOST"); v != "" {
		c.PostgresHost = v
	}
	if v := os.Getenv("PALATE_POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.PostgresPort = port
		}
	}
	if v := os.Getenv("PALATE_POSTGRES_USER"); v != "" {
		c.PostgresUser = v
	}
	if v := os.Getenv("PALATE_POSTGRES_PASSWORD"); v != "" {
		c.PostgresPassword = v
	}
	if v := os.Getenv("PALATE_POSTGRES_DB"); v != "" {
		c.PostgresDB = v
	}
	if v := os.Getenv("PALATE_POSTGRES_SSLMODE"); v != "" {
		c.PostgresSSLMode = v
	}

	// Service configuration
	if v := os.Getenv("PALATE_SERVICE_NAME"); v != "" {
		c.ServiceName = v
	}
	if v := os.Getenv("PALATE_HEALTH_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.HealthPort = port
		}
	}
	if v := os.Getenv("PALATE_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}

	// Location
	if v := os.Getenv("PALATE_LATITUDE"); v != "" {
		if lat, err := strconv.ParseFloat(v, 64); err == nil {
			c.Latitude = lat
		}
	}
	if v := os.Getenv("PALATE_LONGITUDE"); v != "" {
		if lon, err := strconv.ParseFloat(v, 64); err == nil {
			c.Longitude = lon
		}
	}

	// Preference engine configuration
	if v := os.Getenv("PALATE_BASE_LEARNING_RATE"); v != "" {
		if rate, err := strconv.ParseFloat(v, 64); err == nil {
			c.BaseLearningRate = rate
		}
	}
	if v := os.Getenv("PALATE_DECAY_RATE"); v != "" {
		if rate, err := strconv.ParseFloat(v, 64); err == nil {
			c.DecayRate = rate
		}
	}
	if v := os.Getenv("PALATE_CONFIDENCE_THRESHOLD"); v != "" {
		if threshold, err := strconv.ParseFloat(v, 64); err == nil {
			c.ConfidenceThreshold = threshold
		}
	}
	if v := os.Getenv("PALATE_MAX_RATING_HISTORY"); v != "" {
		if max, err := strconv.Atoi(v); err == nil {
			c.MaxRatingHistory = max
		}
	}
	if v := os.Getenv("PALATE_HISTORY_RETENTION_DAYS"); v != "" {
		if days, err := strconv.Atoi(v); err == nil {
			c.HistoryRetentionDays = days
		}
	}
	if v := os.Getenv("PALATE_TABLES_FILE"); v != "" {
		c.TablesFile = v
	}

	// Planner configuration
	if v := os.Getenv("PALATE_PLAN_DAYS"); v != "" {
		if days, err := strconv.Atoi(v); err == nil {
			c.PlanDays = days
		}
	}
	if v := os.Getenv("PALATE_NO_REPEAT_WINDOW"); v != "" {
		if window, err := strconv.Atoi(v); err == nil {
			c.NoRepeatWindow = window
		}
	}
}

// LoadFromFlags parses command-line flags and overrides config values
func (c *Config) LoadFromFlags() {
	// MQTT flags
	pflag.StringVar(&c.MQTTBroker, "mqtt-broker", c.MQTTBroker, "MQTT broker hostname")
	pflag.IntVar(&c.MQTTPort, "mqtt-port", c.MQTTPort, "MQTT broker port")
	pflag.StringVar(&c.MQTTUser, "mqtt-user", c.MQTTUser, "MQTT username")
	pflag.StringVar(&c.MQTTPassword, "mqtt-password", c.MQTTPassword, "MQTT password")
	pflag.StringVar(&c.MQTTClientID, "mqtt-client-id", c.MQTTClientID, "MQTT client ID")

	// Redis flags
	pflag.StringVar(&c.RedisHost, "redis-host", c.RedisHost, "Redis hostname")
	pflag.IntVar(&c.RedisPort, "redis-port", c.RedisPort, "Redis port")
	pflag.StringVar(&c.RedisPassword, "redis-password", c.RedisPassword, "Redis password")
	pflag.IntVar(&c.RedisDB, "redis-db", c.RedisDB, "Redis database number")

	// Postgres flags
	pflag.StringVar(&c.PostgresHost, "postgres-host", c.PostgresHost, "Postgres hostname")
	pflag.IntVar(&c.PostgresPort, "postgres-port", c.PostgresPort, "Postgres port")
	pflag.StringVar(&c.PostgresUser, "postgres-user", c.PostgresUser, "Postgres username")
	pflag.StringVar(&c.PostgresPassword, "postgres-password", c.PostgresPassword, "Postgres password")
	pflag.StringVar(&c.PostgresDB, "postgres-db", c.PostgresDB, "Postgres database name")
	pflag.StringVar(&c.PostgresSSLMode, "postgres-sslmode", c.PostgresSSLMode, "Postgres SSL mode")

	// Service flags
	pflag.StringVar(&c.ServiceName, "service-name", c.ServiceName, "Service name")
	pflag.IntVar(&c.HealthPort, "health-port", c.HealthPort, "Health check HTTP port")
	pflag.StringVar(&c.LogLevel, "log-level", c.LogLevel, "Log level (debug, info, warn, error)")

	// Location flags
	pflag.Float64Var(&c.Latitude, "latitude", c.Latitude, "Geographic latitude for daylight tagging")
	pflag.Float64Var(&c.Longitude, "longitude", c.Longitude, "Geographic longitude for daylight tagging")

	// Preference engine flags
	pflag.Float64Var(&c.BaseLearningRate, "base-learning-rate", c.BaseLearningRate, "Base learning rate for preference updates")
	pflag.Float64Var(&c.DecayRate, "decay-rate", c.DecayRate, "Daily preference decay rate")
	pflag.Float64Var(&c.ConfidenceThreshold, "confidence-threshold", c.ConfidenceThreshold, "Minimum prediction confidence for accuracy tracking")
	pflag.IntVar(&c.MaxRatingHistory, "max-rating-history", c.MaxRatingHistory, "Maximum rating history records to keep")
	pflag.IntVar(&c.HistoryRetentionDays, "history-retention-days", c.HistoryRetentionDays, "Days to retain preference history entries")
	pflag.StringVar(&c.TablesFile, "tables-file", c.TablesFile, "YAML file overriding the feature keyword tables")

	// Planner flags
	pflag.IntVar(&c.PlanDays, "plan-days", c.PlanDays, "Default number of days to plan")
	pflag.IntVar(&c.NoRepeatWindow, "no-repeat-window", c.NoRepeatWindow, "Recent meals excluded from re-selection")

	pflag.Parse()
}

// fileConfig mirrors the YAML config file schema. Only fields present in
// the file override the current values.
type fileConfig struct {
	MQTT struct {
		Broker   *string `yaml:"broker"`
		Port     *int    `yaml:"port"`
		User     *string `yaml:"user"`
		Password *string `yaml:"password"`
		ClientID *string `yaml:"client_id"`
	} `yaml:"mqtt"`
	Redis struct {
		Host     *string `yaml:"host"`
		Port     *int    `yaml:"port"`
		Password *string `yaml:"password"`
		DB       *int    `yaml:"db"`
	} `yaml:"redis"`
	Postgres struct {
		Host     *string `yaml:"host"`
		Port     *int    `yaml:"port"`
		User     *string `yaml:"user"`
		Password *string `yaml:"password"`
		Database *string `yaml:"database"`
		SSLMode  *string `yaml:"sslmode"`
	} `yaml:"postgres"`
	Service struct {
		Name       *string `yaml:"name"`
		HealthPort *int    `yaml:"health_port"`
		LogLevel   *string `yaml:"log_level"`
	} `yaml:"service"`
	Location struct {
		Latitude  *float64 `yaml:"latitude"`
		Longitude *float64 `yaml:"longitude"`
	} `yaml:"location"`
	Engine struct {
		BaseLearningRate     *float64 `yaml:"base_learning_rate"`
		DecayRate            *float64 `yaml:"decay_rate"`
		ConfidenceThreshold  *float64 `yaml:"confidence_threshold"`
		MaxRatingHistory     *int     `yaml:"max_rating_history"`
		HistoryRetentionDays *int     `yaml:"history_retention_days"`
		TablesFile           *string  `yaml:"tables_file"`
	} `yaml:"engine"`
	Planner struct {
		PlanDays       *int `yaml:"plan_days"`
		NoRepeatWindow *int `yaml:"no_repeat_window"`
	} `yaml:"planner"`
}

// LoadFromFile loads configuration overrides from a YAML file
func (c *Config) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	setString := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	setInt := func(dst *int, src *int) {
		if src != nil {
			*dst = *src
		}
	}
	setFloat := func(dst *float64, src *float64) {
		if src != nil {
			*dst = *src
		}
	}

	setString(&c.MQTTBroker, fc.MQTT.Broker)
	setInt(&c.MQTTPort, fc.MQTT.Port)
	setString(&c.MQTTUser, fc.MQTT.User)
	setString(&c.MQTTPassword, fc.MQTT.Password)
	setString(&c.MQTTClientID, fc.MQTT.ClientID)

	setString(&c.RedisHost, fc.Redis.Host)
	setInt(&c.RedisPort, fc.Redis.Port)
	setString(&c.RedisPassword, fc.Redis.Password)
	setInt(&c.RedisDB, fc.Redis.DB)

	setString(&c.PostgresHost, fc.Postgres.Host)
	setInt(&c.PostgresPort, fc.Postgres.Port)
	setString(&c.PostgresUser, fc.Postgres.User)
	setString(&c.PostgresPassword, fc.Postgres.Password)
	setString(&c.PostgresDB, fc.Postgres.Database)
	setString(&c.PostgresSSLMode, fc.Postgres.SSLMode)

	setString(&c.ServiceName, fc.Service.Name)
	setInt(&c.HealthPort, fc.Service.HealthPort)
	setString(&c.LogLevel, fc.Service.LogLevel)

	setFloat(&c.Latitude, fc.Location.Latitude)
	setFloat(&c.Longitude, fc.Location.Longitude)

	setFloat(&c.BaseLearningRate, fc.Engine.BaseLearningRate)
	setFloat(&c.DecayRate, fc.Engine.DecayRate)
	setFloat(&c.ConfidenceThreshold, fc.Engine.ConfidenceThreshold)
	setInt(&c.MaxRatingHistory, fc.Engine.MaxRatingHistory)
	setInt(&c.HistoryRetentionDays, fc.Engine.HistoryRetentionDays)
	setString(&c.TablesFile, fc.Engine.TablesFile)

	setInt(&c.PlanDays, fc.Planner.PlanDays)
	setInt(&c.NoRepeatWindow, fc.Planner.NoRepeatWindow)

	return nil
}

// Validate checks that required configuration values are set
func (c *Config) Validate() error {
	if c.MQTTBroker == "" {
		return fmt.Errorf("MQTT broker is required")
	}
	if c.MQTTPort <= 0 || c.MQTTPort > 65535 {
		return fmt.Errorf("MQTT port must be between 1 and 65535")
	}
	if c.RedisHost == "" {
		return fmt.Errorf("Redis host is required")
	}
	if c.RedisPort <= 0 || c.RedisPort > 65535 {
		return fmt.Errorf("Redis port must be between 1 and 65535")
	}
	if c.HealthPort <= 0 || c.HealthPort > 65535 {
		return fmt.Errorf("Health port must be between 1 and 65535")
	}
	if c.ServiceName == "" {
		return fmt.Errorf("Service name is required")
	}
	if c.BaseLearningRate <= 0 || c.BaseLearningRate > 1 {
		return fmt.Errorf("base learning rate must be in (0, 1]")
	}
	if c.DecayRate < 0 || c.DecayRate >= 1 {
		return fmt.Errorf("decay rate must be in [0, 1)")
	}
	if c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 1 {
		return fmt.Errorf("confidence threshold must be in [0, 1]")
	}
	if c.MaxRatingHistory <= 0 {
		return fmt.Errorf("max rating history must be positive")
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}

	return nil
}

// MQTTAddress returns the full MQTT broker address
func (c *Config) MQTTAddress() string {
	return fmt.Sprintf("tcp://%s:%d", c.MQTTBroker, c.MQTTPort)
}

// RedisAddress returns the full Redis address
func (c *Config) RedisAddress() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// PostgresConnectionString returns the lib/pq connection string
func (c *Config) PostgresConnectionString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgresHost, c.PostgresPort, c.PostgresUser, c.PostgresPassword, c.PostgresDB, c.PostgresSSLMode)
}
