package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// Config holds the configuration for a LOOKin platform agent
type Config struct {
	// Hub configuration
	HubAddress         string `yaml:"hub_address"`
	HubReadTimeoutSec  int    `yaml:"hub_read_timeout_sec"`
	HubWriteTimeoutSec int    `yaml:"hub_write_timeout_sec"`

	// MQTT configuration
	MQTTBroker   string `yaml:"mqtt_broker"`
	MQTTPort     int    `yaml:"mqtt_port"`
	MQTTUser     string `yaml:"mqtt_user"`
	MQTTPassword string `yaml:"mqtt_password"`
	MQTTClientID string `yaml:"mqtt_client_id"`

	// Redis configuration
	RedisHost     string `yaml:"redis_host"`
	RedisPort     int    `yaml:"redis_port"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`

	// Postgres configuration (learning session archive)
	PostgresHost            string        `yaml:"postgres_host"`
	PostgresPort            int           `yaml:"postgres_port"`
	PostgresUser            string        `yaml:"postgres_user"`
	PostgresPassword        string        `yaml:"postgres_password"`
	PostgresDB              string        `yaml:"postgres_db"`
	PostgresSSLMode         string        `yaml:"postgres_ssl_mode"`
	PostgresMaxConnections  int           `yaml:"postgres_max_connections"`
	PostgresMaxIdle         int           `yaml:"postgres_max_idle"`
	PostgresConnMaxLifetime time.Duration `yaml:"postgres_conn_max_lifetime"`
	ArchiveEnabled          bool          `yaml:"archive_enabled"`

	// Service configuration
	ServiceName string `yaml:"service_name"`
	HealthPort  int    `yaml:"health_port"`
	LogLevel    string `yaml:"log_level"`

	// Learning agent configuration
	LearnDurationSec        int     `yaml:"learn_duration_sec"`
	LearnMaxSignals         int     `yaml:"learn_max_signals"`
	LearnPollIntervalSec    int     `yaml:"learn_poll_interval_sec"`
	LearnSampleTolerance    float64 `yaml:"learn_sample_tolerance"`
	LearnMatchThreshold     float64 `yaml:"learn_match_threshold"`
	LearnRequireEqualLength bool    `yaml:"learn_require_equal_length"`
	LearnMinClusterSize     int     `yaml:"learn_min_cluster_size"`
	AuxDataPath             string  `yaml:"aux_data_path"`

	// Climate agent configuration
	ClimateIntervalSec int    `yaml:"climate_interval_sec"`
	Location           string `yaml:"location"`
	MaxSensorHistory   int    `yaml:"max_sensor_history"`
}

// NewConfig creates a new Config with default values
func NewConfig() *Config {
	return &Config{
		HubAddress:              "",
		HubReadTimeoutSec:       30,
		HubWriteTimeoutSec:      10,
		MQTTBroker:              "localhost",
		MQTTPort:                1883,
		MQTTUser:                "",
		MQTTPassword:            "",
		MQTTClientID:            "",
		RedisHost:               "localhost",
		RedisPort:               6379,
		RedisPassword:           "",
		RedisDB:                 0,
		PostgresHost:            "localhost",
		PostgresPort:            5432,
		PostgresUser:            "lookin",
		PostgresPassword:        "",
		PostgresDB:              "lookin",
		PostgresSSLMode:         "disable",
		PostgresMaxConnections:  10,
		PostgresMaxIdle:         2,
		PostgresConnMaxLifetime: 30 * time.Minute,
		ArchiveEnabled:          false,
		ServiceName:             "lookin-agent",
		HealthPort:              8080,
		LogLevel:                "info",
		// Learning defaults match the tuned capture routine: poll once per
		// second for up to five minutes or ten signals.
		LearnDurationSec:        300,
		LearnMaxSignals:         10,
		LearnPollIntervalSec:    1,
		LearnSampleTolerance:    0.10,
		LearnMatchThreshold:     0.98,
		LearnRequireEqualLength: true,
		LearnMinClusterSize:     2,
		AuxDataPath:             "./auxdata.json",
		ClimateIntervalSec:      60,
		Location:                "living_room",
		MaxSensorHistory:        1000,
	}
}

// LoadFromFile merges configuration from a YAML file, if it exists.
// A missing file is not an error so agents can run on env/flags alone.
func (c *Config) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// LoadFromEnv loads configuration from environment variables with LOOKIN_ prefix
func (c *Config) LoadFromEnv() {
	// Hub configuration
	if v := os.Getenv("LOOKIN_HUB_ADDRESS"); v != "" {
		c.HubAddress = v
	}
	if v := os.Getenv("LOOKIN_HUB_READ_TIMEOUT_SEC"); v != "" {
		if sec, err := strconv.Atoi(v); err == nil {
			c.HubReadTimeoutSec = sec
		}
	}
	if v := os.Getenv("LOOKIN_HUB_WRITE_TIMEOUT_SEC"); v != "" {
		if sec, err := strconv.Atoi(v); err == nil {
			c.HubWriteTimeoutSec = sec
		}
	}

	// MQTT configuration
	if v := os.Getenv("LOOKIN_MQTT_BROKER"); v != "" {
		c.MQTTBroker = v
	}
	if v := os.Getenv("LOOKIN_MQTT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.MQTTPort = port
		}
	}
	if v := os.Getenv("LOOKIN_MQTT_USER"); v != "" {
		c.MQTTUser = v
	}
	if v := os.Getenv("LOOKIN_MQTT_PASSWORD"); v != "" {
		c.MQTTPassword = v
	}
	if v := os.Getenv("LOOKIN_MQTT_CLIENT_ID"); v != "" {
		c.MQTTClientID = v
	}

	// Redis configuration
	if v := os.Getenv("LOOKIN_REDIS_HOST"); v != "" {
		c.RedisHost = v
	}
	if v := os.Getenv("LOOKIN_REDIS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.RedisPort = port
		}
	}
	if v := os.Getenv("LOOKIN_REDIS_PASSWORD"); v != "" {
		c.RedisPassword = v
	}
	if v := os.Getenv("LOOKIN_REDIS_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			c.RedisDB = db
		}
	}

	// Postgres configuration
	if v := os.Getenv("LOOKIN_POSTGRES_HOST"); v != "" {
		c.PostgresHost = v
	}
	if v := os.Getenv("LOOKIN_POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.PostgresPort = port
		}
	}
	if v := os.Getenv("LOOKIN_POSTGRES_USER"); v != "" {
		c.PostgresUser = v
	}
	if v := os.Getenv("LOOKIN_POSTGRES_PASSWORD"); v != "" {
		c.PostgresPassword = v
	}
	if v := os.Getenv("LOOKIN_POSTGRES_DB"); v != "" {
		c.PostgresDB = v
	}
	if v := os.Getenv("LOOKIN_POSTGRES_SSL_MODE"); v != "" {
		c.PostgresSSLMode = v
	}
	if v := os.Getenv("LOOKIN_ARCHIVE_ENABLED"); v != "" {
		if enable, err := strconv.ParseBool(v); err == nil {
			c.ArchiveEnabled = enable
		}
	}

	// Service configuration
	if v := os.Getenv("LOOKIN_SERVICE_NAME"); v != "" {
		c.ServiceName = v
	}
	if v := os.Getenv("LOOKIN_HEALTH_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.HealthPort = port
		}
	}
	if v := os.Getenv("LOOKIN_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}

	// Learning agent configuration
	if v := os.Getenv("LOOKIN_LEARN_DURATION_SEC"); v != "" {
		if sec, err := strconv.Atoi(v); err == nil {
			c.LearnDurationSec = sec
		}
	}
	if v := os.Getenv("LOOKIN_LEARN_MAX_SIGNALS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.LearnMaxSignals = n
		}
	}
	if v := os.Getenv("LOOKIN_LEARN_POLL_INTERVAL_SEC"); v != "" {
		if sec, err := strconv.Atoi(v); err == nil {
			c.LearnPollIntervalSec = sec
		}
	}
	if v := os.Getenv("LOOKIN_LEARN_SAMPLE_TOLERANCE"); v != "" {
		if tol, err := strconv.ParseFloat(v, 64); err == nil {
			c.LearnSampleTolerance = tol
		}
	}
	if v := os.Getenv("LOOKIN_LEARN_MATCH_THRESHOLD"); v != "" {
		if thr, err := strconv.ParseFloat(v, 64); err == nil {
			c.LearnMatchThreshold = thr
		}
	}
	if v := os.Getenv("LOOKIN_LEARN_REQUIRE_EQUAL_LENGTH"); v != "" {
		if req, err := strconv.ParseBool(v); err == nil {
			c.LearnRequireEqualLength = req
		}
	}
	if v := os.Getenv("LOOKIN_LEARN_MIN_CLUSTER_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.LearnMinClusterSize = n
		}
	}
	if v := os.Getenv("LOOKIN_AUX_DATA_PATH"); v != "" {
		c.AuxDataPath = v
	}

	// Climate agent configuration
	if v := os.Getenv("LOOKIN_CLIMATE_INTERVAL_SEC"); v != "" {
		if sec, err := strconv.Atoi(v); err == nil {
			c.ClimateIntervalSec = sec
		}
	}
	if v := os.Getenv("LOOKIN_LOCATION"); v != "" {
		c.Location = v
	}
	if v := os.Getenv("LOOKIN_MAX_SENSOR_HISTORY"); v != "" {
		if max, err := strconv.Atoi(v); err == nil {
			c.MaxSensorHistory = max
		}
	}
}

// LoadFromFlags parses command-line flags and overrides config values
func (c *Config) LoadFromFlags() {
	// Hub flags
	pflag.StringVar(&c.HubAddress, "hub-address", c.HubAddress, "LOOKin hub IP or DNS address")
	pflag.IntVar(&c.HubReadTimeoutSec, "hub-read-timeout", c.HubReadTimeoutSec, "Hub read timeout in seconds")
	pflag.IntVar(&c.HubWriteTimeoutSec, "hub-write-timeout", c.HubWriteTimeoutSec, "Hub write timeout in seconds")

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
	pflag.StringVar(&c.PostgresUser, "postgres-user", c.PostgresUser, "Postgres user")
	pflag.StringVar(&c.PostgresPassword, "postgres-password", c.PostgresPassword, "Postgres password")
	pflag.StringVar(&c.PostgresDB, "postgres-db", c.PostgresDB, "Postgres database name")
	pflag.BoolVar(&c.ArchiveEnabled, "archive-enabled", c.ArchiveEnabled, "Enable Postgres session archive")

	// Service flags
	pflag.StringVar(&c.ServiceName, "service-name", c.ServiceName, "Service name")
	pflag.IntVar(&c.HealthPort, "health-port", c.HealthPort, "Health check HTTP port")
	pflag.StringVar(&c.LogLevel, "log-level", c.LogLevel, "Log level (debug, info, warn, error)")

	// Learning agent flags
	pflag.IntVar(&c.LearnDurationSec, "learn-duration", c.LearnDurationSec, "Maximum capture session duration in seconds")
	pflag.IntVar(&c.LearnMaxSignals, "learn-max-signals", c.LearnMaxSignals, "Stop capturing after this many valid signals (0 = unlimited)")
	pflag.IntVar(&c.LearnPollIntervalSec, "learn-poll-interval", c.LearnPollIntervalSec, "Delay between sensor polls in seconds (0 = as fast as possible)")
	pflag.Float64Var(&c.LearnSampleTolerance, "learn-sample-tolerance", c.LearnSampleTolerance, "Maximum relative timing difference per sample")
	pflag.Float64Var(&c.LearnMatchThreshold, "learn-match-threshold", c.LearnMatchThreshold, "Minimum similarity score for signals to cluster together")
	pflag.BoolVar(&c.LearnRequireEqualLength, "learn-require-equal-length", c.LearnRequireEqualLength, "Require equal sequence length for signals to cluster together")
	pflag.IntVar(&c.LearnMinClusterSize, "learn-min-cluster-size", c.LearnMinClusterSize, "Minimum cluster size for a learnable command")
	pflag.StringVar(&c.AuxDataPath, "aux-data-path", c.AuxDataPath, "Auxiliary data file for learned functions the device rejects")

	// Climate agent flags
	pflag.IntVar(&c.ClimateIntervalSec, "climate-interval", c.ClimateIntervalSec, "Meteo sensor poll interval in seconds")
	pflag.StringVar(&c.Location, "location", c.Location, "Location label for published sensor readings")
	pflag.IntVar(&c.MaxSensorHistory, "max-sensor-history", c.MaxSensorHistory, "Maximum sensor history entries kept in Redis")

	pflag.Parse()
}

// Validate checks that required configuration values are set
func (c *Config) Validate() error {
	if c.HubAddress == "" {
		return fmt.Errorf("hub address is required")
	}
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
	if c.LearnDurationSec <= 0 {
		return fmt.Errorf("learn duration must be positive")
	}
	if c.LearnMaxSignals < 0 {
		return fmt.Errorf("learn max signals may not be negative")
	}
	if c.LearnPollIntervalSec < 0 {
		return fmt.Errorf("learn poll interval may not be negative")
	}
	if c.LearnSampleTolerance <= 0 || c.LearnSampleTolerance >= 1 {
		return fmt.Errorf("learn sample tolerance must be in (0, 1)")
	}
	if c.LearnMatchThreshold <= 0 || c.LearnMatchThreshold > 1 {
		return fmt.Errorf("learn match threshold must be in (0, 1]")
	}
	if c.LearnMinClusterSize < 1 {
		return fmt.Errorf("learn min cluster size must be at least 1")
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

// HubReadTimeout returns the hub read timeout as a duration
func (c *Config) HubReadTimeout() time.Duration {
	return time.Duration(c.HubReadTimeoutSec) * time.Second
}

// HubWriteTimeout returns the hub write timeout as a duration
func (c *Config) HubWriteTimeout() time.Duration {
	return time.Duration(c.HubWriteTimeoutSec) * time.Second
}
