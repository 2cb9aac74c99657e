package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	AWS      AWSConfig      `yaml:"aws"`
	APNs     APNsConfig     `yaml:"apns"`
	JWT      JWTConfig      `yaml:"jwt"`
	Limits   LimitsConfig   `yaml:"limits"`
	Admin    AdminConfig    `yaml:"admin"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// DatabaseConfig holds database configuration.
// Driver is "postgres" (default) or "memory".
type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
	MaxConns int32  `yaml:"max_conns"`
}

// AWSConfig holds S3 configuration for avatars. Empty bucket disables uploads.
type AWSConfig struct {
	Region    string `yaml:"region"`
	S3Bucket  string `yaml:"s3_bucket"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Endpoint  string `yaml:"endpoint"`
}

// APNsConfig holds push configuration. Empty key path disables push.
type APNsConfig struct {
	KeyPath    string `yaml:"key_path"`
	KeyID      string `yaml:"key_id"`
	TeamID     string `yaml:"team_id"`
	Topic      string `yaml:"topic"`
	Production bool   `yaml:"production"`
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret   string        `yaml:"secret"`
	TokenTTL time.Duration `yaml:"token_ttl"`
}

// LimitsConfig holds per-user rate limits
type LimitsConfig struct {
	FriendRequestsPerMinute int `yaml:"friend_requests_per_minute"`
	FriendRequestBurst      int `yaml:"friend_request_burst"`
	AuthPerMinute           int `yaml:"auth_per_minute"`
}

// AdminConfig lists accounts that become admins on registration
type AdminConfig struct {
	Emails []string `yaml:"emails"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used for unset fields
func Default() Config {
	return Config{
		Server: ServerConfig{Host: "0.0.0.0", Port: 8080},
		Database: DatabaseConfig{
			Driver:   "postgres",
			Host:     "localhost",
			Port:     5432,
			SSLMode:  "disable",
			MaxConns: 10,
		},
		JWT: JWTConfig{TokenTTL: 30 * 24 * time.Hour},
		Limits: LimitsConfig{
			FriendRequestsPerMinute: 20,
			FriendRequestBurst:      5,
			AuthPerMinute:           10,
		},
		Log: LogConfig{Level: "info", Format: "console"},
	}
}

// Load reads configuration from a YAML file and applies environment overrides
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults and applies environment overrides
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyEnv overrides secrets and connection settings from SOCIAL_* variables
func (c *Config) applyEnv() error {
	strVars := map[string]*string{
		"SOCIAL_DB_HOST":        &c.Database.Host,
		"SOCIAL_DB_USER":        &c.Database.User,
		"SOCIAL_DB_PASSWORD":    &c.Database.Password,
		"SOCIAL_DB_NAME":        &c.Database.DBName,
		"SOCIAL_JWT_SECRET":     &c.JWT.Secret,
		"SOCIAL_AWS_ACCESS_KEY": &c.AWS.AccessKey,
		"SOCIAL_AWS_SECRET_KEY": &c.AWS.SecretKey,
		"SOCIAL_LOG_LEVEL":      &c.Log.Level,
	}
	for name, dst := range strVars {
		if v, ok := os.LookupEnv(name); ok {
			*dst = v
		}
	}

	if v, ok := os.LookupEnv("SOCIAL_PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid SOCIAL_PORT %q: %w", v, err)
		}
		c.Server.Port = port
	}
	return nil
}

// Validate checks required fields
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port out of range: %d", c.Server.Port))
	}
	if len(c.JWT.Secret) < 16 {
		errs = append(errs, errors.New("jwt.secret must be at least 16 characters"))
	}
	switch c.Database.Driver {
	case "postgres":
		if c.Database.DBName == "" {
			errs = append(errs, errors.New("database.dbname is required"))
		}
	case "memory":
	default:
		errs = append(errs, fmt.Errorf("unknown database.driver %q", c.Database.Driver))
	}
	if c.APNs.KeyPath != "" && (c.APNs.KeyID == "" || c.APNs.TeamID == "" || c.APNs.Topic == "") {
		errs = append(errs, errors.New("apns.key_id, apns.team_id and apns.topic are required with apns.key_path"))
	}
	if c.AWS.S3Bucket != "" && c.AWS.Region == "" {
		errs = append(errs, errors.New("aws.region is required with aws.s3_bucket"))
	}
	return errors.Join(errs...)
}

// DSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s pool_max_conns=%d",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode, c.MaxConns)
}
