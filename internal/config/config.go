package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config represents the application configuration
type Config struct {
	Server   ServerConfig   `json:"server"`
	Database DatabaseConfig `json:"database"`
	Logging  LoggingConfig  `json:"logging"`
	Carbon   CarbonConfig   `json:"carbon"`
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Host         string        `json:"host"`
	Port         int           `json:"port"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
	IdleTimeout  time.Duration `json:"idle_timeout"`
}

// DatabaseConfig represents database configuration
type DatabaseConfig struct {
	Host           string        `json:"host"`
	Port           int           `json:"port"`
	User           string        `json:"user"`
	Password       string        `json:"password"`
	DBName         string        `json:"db_name"`
	SSLMode        string        `json:"ssl_mode"`
	MaxConnections int           `json:"max_connections"`
	MaxIdleConns   int           `json:"max_idle_conns"`
	MaxLifetime    time.Duration `json:"max_lifetime"`
}

// LoggingConfig controls log verbosity. Levels other than "debug" and
// "development" surface internal errors to callers as opaque messages.
type LoggingConfig struct {
	Level string `json:"level"`
}

// CarbonConfig carries the externally supplied lookup tables the carbon
// calculator depends on. Both vary by deployment and must never be
// hardcoded in calculation code.
type CarbonConfig struct {
	// IndustryIntensity maps an industry code to the multiplier used for
	// the per-production-unit intensity figure. An industry absent from
	// the map yields no per-unit figure rather than a silent default.
	IndustryIntensity map[string]float64 `json:"industry_intensity"`

	// RequiredMetrics is the checklist used by the confidence score.
	RequiredMetrics []string `json:"required_metrics"`

	// Classification holds keyword tables mapping free-text emission
	// source names to semantic categories per scope. Matching is
	// best-effort, not compliance grade.
	Classification ClassificationConfig `json:"classification"`
}

// ClassificationConfig maps category name to the keywords that select it,
// one table per scope.
type ClassificationConfig struct {
	Scope1 map[string][]string `json:"scope1"`
	Scope2 map[string][]string `json:"scope2"`
	Scope3 map[string][]string `json:"scope3"`
}

// LoadConfig loads configuration from file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Database: DatabaseConfig{
			Host:    "localhost",
			Port:    5432,
			User:    os.Getenv("USER"),
			DBName:  "esg_metrics",
			SSLMode: "disable",
		},
		Logging: LoggingConfig{Level: "info"},
		Carbon:  DefaultCarbonConfig(),
	}

	// Load from file if exists
	if configPath != "" {
		if data, err := os.ReadFile(configPath); err == nil {
			if err := json.Unmarshal(data, config); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	overrideWithEnv(config)

	return config, nil
}

// DefaultCarbonConfig returns the baseline lookup tables shipped with the
// service. Deployments override these through the config file.
func DefaultCarbonConfig() CarbonConfig {
	return CarbonConfig{
		IndustryIntensity: map[string]float64{
			"agriculture": 1.0,
			"forestry":    0.8,
			"livestock":   1.4,
			"aquaculture": 1.1,
		},
		RequiredMetrics: []string{
			"scope1_emissions",
			"scope2_emissions",
			"scope3_emissions",
			"total_emissions",
			"sequestration_total",
			"reporting_area",
		},
		Classification: ClassificationConfig{
			Scope1: map[string][]string{
				"stationary_combustion": {"boiler", "furnace", "generator", "heating", "stationary"},
				"mobile_combustion":     {"diesel", "petrol", "gasoline", "vehicle", "tractor", "fleet", "machinery"},
				"fugitive":              {"refrigerant", "leak", "fugitive", "methane"},
				"process":               {"fertilizer", "lime", "urea", "process"},
			},
			Scope2: map[string][]string{
				"grid_electricity": {"grid", "electricity", "power"},
				"purchased_steam":  {"steam", "heat", "chilled", "cooling"},
			},
			Scope3: map[string][]string{
				"purchased_goods":      {"purchased", "goods", "feed", "seed", "input"},
				"upstream_transport":   {"freight", "upstream", "inbound", "shipping"},
				"downstream_transport": {"distribution", "downstream", "outbound"},
				"waste":                {"waste", "landfill", "compost"},
				"business_travel":      {"travel", "flight", "hotel"},
				"employee_commuting":   {"commut"},
			},
		},
	}
}

func overrideWithEnv(config *Config) {
	if host := os.Getenv("SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if dbHost := os.Getenv("DATABASE_HOST"); dbHost != "" {
		config.Database.Host = dbHost
	}
	if dbPort := os.Getenv("DATABASE_PORT"); dbPort != "" {
		if p, err := strconv.Atoi(dbPort); err == nil {
			config.Database.Port = p
		}
	}
	if dbUser := os.Getenv("DATABASE_USER"); dbUser != "" {
		config.Database.User = dbUser
	}
	if dbPass := os.Getenv("DATABASE_PASSWORD"); dbPass != "" {
		config.Database.Password = dbPass
	}
	if dbName := os.Getenv("DATABASE_DBNAME"); dbName != "" {
		config.Database.DBName = dbName
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
}

// GetDSN returns the database connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// GetServerAddr returns the server address
func (c *ServerConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
