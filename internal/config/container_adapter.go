package config

import (
	"github.com/garyjia/expense-desk/internal/container"
)

// ToContainerConfig converts the application Config to a container.Config.
// This provides a bridge between the file-based config loaded by viper
// and the container's configuration structure.
func (c *Config) ToContainerConfig() *container.Config {
	return &container.Config{
		Database: container.DatabaseConfig{
			Path:            c.Database.Path,
			MaxOpenConns:    c.Database.MaxOpenConns,
			MaxIdleConns:    c.Database.MaxIdleConns,
			ConnMaxLifetime: c.Database.ConnMaxLifetime,
			MigrationsDir:   c.Database.MigrationsDir,
		},
		GraphQL: container.GraphQLConfig{
			Endpoint:         c.GraphQL.Endpoint,
			Token:            c.GraphQL.Token,
			Timeout:          c.GraphQL.Timeout,
			RequestsPerSec:   c.GraphQL.RequestsPerSec,
			Burst:            c.GraphQL.Burst,
			BreakerFailures:  c.GraphQL.BreakerFailures,
			BreakerOpenDelay: c.GraphQL.BreakerOpenDelay,
		},
		Process: container.ProcessConfig{
			ActionTimeout: c.Process.ActionTimeout,
		},
		Lark: container.LarkConfig{
			Enabled:       c.Lark.Enabled,
			AppID:         c.Lark.AppID,
			AppSecret:     c.Lark.AppSecret,
			ReceiveID:     c.Lark.ReceiveID,
			ReceiveIDType: c.Lark.ReceiveIDType,
			APITimeout:    c.Lark.APITimeout,
		},
		Server: container.ServerConfig{
			Host:           c.Server.Host,
			Port:           c.Server.Port,
			ReadTimeout:    c.Server.ReadTimeout,
			WriteTimeout:   c.Server.WriteTimeout,
			AllowedOrigins: c.Server.AllowedOrigins,
		},
	}
}
