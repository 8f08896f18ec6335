// Package container provides dependency injection and lifecycle management
// for the expense desk.
package container

import (
	"fmt"
	"time"
)

// Config holds all configuration for the Container.
// It aggregates configurations for all subsystems.
type Config struct {
	// Database configuration
	Database DatabaseConfig

	// GraphQL API configuration
	GraphQL GraphQLConfig

	// Process action configuration
	Process ProcessConfig

	// Lark notification configuration
	Lark LarkConfig

	// Server configuration
	Server ServerConfig
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// Path to SQLite database file
	Path string

	// MaxOpenConns is the maximum number of open connections
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections
	MaxIdleConns int

	// ConnMaxLifetime is the maximum connection lifetime
	ConnMaxLifetime time.Duration

	// MigrationsDir overrides the embedded migrations when set
	MigrationsDir string
}

// GraphQLConfig holds platform API settings.
type GraphQLConfig struct {
	Endpoint         string
	Token            string
	Timeout          time.Duration
	RequestsPerSec   float64
	Burst            int
	BreakerFailures  uint32
	BreakerOpenDelay time.Duration
}

// ProcessConfig holds process action settings.
type ProcessConfig struct {
	// ActionTimeout bounds one remote process call
	ActionTimeout time.Duration
}

// LarkConfig holds Lark API settings.
type LarkConfig struct {
	// Enabled turns outcome notifications on
	Enabled bool

	// AppID is the Lark application ID
	AppID string

	// AppSecret is the Lark application secret
	AppSecret string

	// ReceiveID is the chat or user that receives notifications
	ReceiveID string

	// ReceiveIDType qualifies ReceiveID (chat_id, open_id, ...)
	ReceiveIDType string

	// APITimeout is the timeout for API calls
	APITimeout time.Duration
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host to bind to
	Host string

	// Port to listen on
	Port int

	// ReadTimeout for HTTP server
	ReadTimeout time.Duration

	// WriteTimeout for HTTP server
	WriteTimeout time.Duration

	// AllowedOrigins enables CORS for the listed origins
	AllowedOrigins []string
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:         "data/expense-desk.db",
			MaxOpenConns: 1,
			MaxIdleConns: 1,
		},
		GraphQL: GraphQLConfig{
			Timeout:          30 * time.Second,
			RequestsPerSec:   5,
			Burst:            10,
			BreakerFailures:  5,
			BreakerOpenDelay: 30 * time.Second,
		},
		Process: ProcessConfig{
			ActionTimeout: 45 * time.Second,
		},
		Lark: LarkConfig{
			ReceiveIDType: "chat_id",
			APITimeout:    10 * time.Second,
		},
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 60 * time.Second,
		},
	}
}

// Validate checks that required configuration values are present.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	if c.GraphQL.Endpoint == "" {
		return fmt.Errorf("graphql.endpoint is required")
	}

	// Lark is optional, but an enabled notifier needs credentials and a target
	if c.Lark.Enabled {
		if c.Lark.AppID == "" {
			return fmt.Errorf("lark.app_id is required")
		}
		if c.Lark.AppSecret == "" {
			return fmt.Errorf("lark.app_secret is required")
		}
		if c.Lark.ReceiveID == "" {
			return fmt.Errorf("lark.receive_id is required")
		}
	}

	return nil
}
