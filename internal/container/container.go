package container

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/garyjia/expense-desk/internal/application/eventbus"
	"github.com/garyjia/expense-desk/internal/application/port"
	"github.com/garyjia/expense-desk/internal/application/service"
	"github.com/garyjia/expense-desk/internal/infrastructure/external/graphql"
	"github.com/garyjia/expense-desk/internal/infrastructure/persistence/sqlite"
	httpserver "github.com/garyjia/expense-desk/internal/interfaces/http"
	"go.uber.org/zap"
)

// Container manages all application dependencies and lifecycle.
// Components are initialized in order and torn down in reverse.
type Container struct {
	config *Config
	logger *zap.Logger

	// Infrastructure - Data
	sqlDB      *sql.DB
	db         *sqlite.DB
	actionLogs port.ActionLogRepository

	// Infrastructure - External
	graphqlClient *graphql.Client
	messenger     port.MessageSender

	// Application
	bus      *eventbus.Bus
	expenses service.ExpenseService

	// Interfaces
	server *httpserver.Server

	// Lifecycle
	mu     sync.RWMutex
	ready  atomic.Bool
	closed atomic.Bool
}

// HealthStatus represents the health of all components.
type HealthStatus struct {
	Overall    bool                       `json:"overall"`
	Components map[string]ComponentHealth `json:"components"`
}

// ComponentHealth represents health of a single component.
type ComponentHealth struct {
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
}

// NewContainer creates a new container from configuration.
// It does not initialize components - call Start() to initialize.
func NewContainer(cfg *Config, logger *zap.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Container{
		config: cfg,
		logger: logger,
	}, nil
}

// Start initializes all components in dependency order:
// 1. Database and action log repository
// 2. External clients (GraphQL, Lark)
// 3. Event bus and its subscribers
// 4. Expense service
// 5. HTTP server (not yet listening)
func (c *Container) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container has been closed")
	}

	if c.ready.Load() {
		return fmt.Errorf("container already started")
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	c.logger.Info("Starting container initialization")

	// Step 1: Initialize database and repositories
	if err := c.initDatabase(); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	c.logger.Info("Database initialized")

	// Step 2: Initialize external clients
	if err := c.initExternalClients(); err != nil {
		return fmt.Errorf("failed to initialize external clients: %w", err)
	}
	c.logger.Info("External clients initialized")

	// Step 3: Initialize event bus
	if err := c.initEventBus(); err != nil {
		return fmt.Errorf("failed to initialize event bus: %w", err)
	}
	c.logger.Info("Event bus initialized")

	// Step 4: Initialize application services
	if err := c.initServices(); err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	c.logger.Info("Application services initialized")

	// Step 5: Build the HTTP server
	c.server = ProvideHTTPServer(&c.config.Server, c.expenses, c, c.logger)
	c.logger.Info("HTTP server configured", zap.String("address", c.server.Address()))

	c.ready.Store(true)
	c.logger.Info("Container started successfully")

	return nil
}

// Close gracefully shuts down all components in reverse order.
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container already closed")
	}

	c.logger.Info("Closing container")

	var errs []error

	// Step 1: Stop HTTP server (reverse of step 5)
	if c.server != nil {
		if err := c.server.Stop(); err != nil {
			c.logger.Error("Failed to stop HTTP server", zap.Error(err))
			errs = append(errs, fmt.Errorf("stop http server: %w", err))
		}
	}

	// Step 2: Services don't need explicit cleanup (reverse of step 4)

	// Step 3: Drain pending event handlers (reverse of step 3)
	if c.bus != nil {
		if err := c.bus.Close(); err != nil && !errors.Is(err, eventbus.ErrClosed) {
			c.logger.Error("Failed to close event bus", zap.Error(err))
			errs = append(errs, fmt.Errorf("close event bus: %w", err))
		} else {
			c.logger.Info("Event bus closed")
		}
	}

	// Step 4: External clients don't need explicit cleanup (reverse of step 2)

	// Step 5: Close database (reverse of step 1)
	if c.sqlDB != nil {
		if err := c.sqlDB.Close(); err != nil {
			c.logger.Error("Failed to close database", zap.Error(err))
			errs = append(errs, fmt.Errorf("close database: %w", err))
		} else {
			c.logger.Info("Database closed")
		}
	}

	c.closed.Store(true)
	c.ready.Store(false)

	if len(errs) > 0 {
		c.logger.Error("Container closed with errors", zap.Int("error_count", len(errs)))
		return errors.Join(errs...)
	}

	c.logger.Info("Container closed successfully")
	return nil
}

// Ready returns true when all components are initialized.
func (c *Container) Ready() bool {
	return c.ready.Load()
}

// Check implements the HTTP health checker: it fails when any component is unhealthy.
func (c *Container) Check(ctx context.Context) error {
	status := c.Health(ctx)
	if status.Overall {
		return nil
	}
	for name, component := range status.Components {
		if !component.Healthy {
			return fmt.Errorf("%s: %s", name, component.Message)
		}
	}
	return fmt.Errorf("unhealthy")
}

// Health returns health status of all components.
func (c *Container) Health(ctx context.Context) *HealthStatus {
	status := &HealthStatus{
		Overall:    true,
		Components: make(map[string]ComponentHealth),
	}

	// Check database
	if c.db != nil {
		if err := c.db.Check(ctx); err != nil {
			status.Components["database"] = ComponentHealth{
				Healthy: false,
				Message: fmt.Sprintf("ping failed: %v", err),
			}
			status.Overall = false
		} else {
			status.Components["database"] = ComponentHealth{Healthy: true}
		}
	} else {
		status.Components["database"] = ComponentHealth{
			Healthy: false,
			Message: "not initialized",
		}
		status.Overall = false
	}

	// Check event bus
	if c.bus != nil {
		status.Components["event_bus"] = ComponentHealth{Healthy: true}
	} else {
		status.Components["event_bus"] = ComponentHealth{
			Healthy: false,
			Message: "not initialized",
		}
		status.Overall = false
	}

	// Lark is optional
	if c.messenger != nil {
		status.Components["lark"] = ComponentHealth{Healthy: true}
	} else {
		status.Components["lark"] = ComponentHealth{Healthy: true, Message: "disabled"}
	}

	return status
}

// initDatabase initializes the database and the action log repository.
func (c *Container) initDatabase() error {
	dbBundle, err := ProvideDatabase(&c.config.Database, c.logger)
	if err != nil {
		return err
	}

	c.sqlDB = dbBundle.SqlDB
	c.db = dbBundle.TransactionMgr

	repo, err := ProvideActionLogRepository(c.db, c.logger)
	if err != nil {
		c.sqlDB.Close()
		return err
	}

	c.actionLogs = repo
	return nil
}

// initExternalClients initializes the GraphQL client and the optional Lark messenger.
func (c *Container) initExternalClients() error {
	client, err := ProvideGraphQLClient(&c.config.GraphQL, c.logger)
	if err != nil {
		return err
	}
	c.graphqlClient = client

	c.messenger = ProvideMessenger(&c.config.Lark, c.logger)
	return nil
}

// initEventBus creates the bus and subscribes the outcome handlers.
func (c *Container) initEventBus() error {
	bus, err := ProvideEventBus(&EventBusDeps{
		TxManager:  c.db,
		ActionLogs: c.actionLogs,
		Messenger:  c.messenger,
		ReceiveID:  c.config.Lark.ReceiveID,
		Logger:     c.logger.Named("events"),
	})
	if err != nil {
		return err
	}

	c.bus = bus
	return nil
}

// initServices initializes the expense service.
func (c *Container) initServices() error {
	expenses, err := ProvideExpenseService(&ServiceDeps{
		Client:     c.graphqlClient,
		ActionLogs: c.actionLogs,
		Bus:        c.bus,
		Process:    &c.config.Process,
		Logger:     c.logger,
	})
	if err != nil {
		return err
	}

	c.expenses = expenses
	return nil
}

// Getters for accessing container components

// DB returns the transaction manager.
func (c *Container) DB() port.TransactionManager {
	return c.db
}

// ActionLogs returns the action log repository.
func (c *Container) ActionLogs() port.ActionLogRepository {
	return c.actionLogs
}

// EventBus returns the event bus.
func (c *Container) EventBus() *eventbus.Bus {
	return c.bus
}

// Expenses returns the expense service.
func (c *Container) Expenses() service.ExpenseService {
	return c.expenses
}

// Server returns the HTTP server.
func (c *Container) Server() *httpserver.Server {
	return c.server
}

// Logger returns the container's logger.
func (c *Container) Logger() *zap.Logger {
	return c.logger
}

// Config returns the container's configuration.
func (c *Container) Config() *Config {
	return c.config
}
