package container

import (
	"database/sql"
	"fmt"
	"io/fs"
	"os"

	"github.com/garyjia/expense-desk/internal/application/dispatcher"
	"github.com/garyjia/expense-desk/internal/application/eventbus"
	"github.com/garyjia/expense-desk/internal/application/port"
	"github.com/garyjia/expense-desk/internal/application/service"
	"github.com/garyjia/expense-desk/internal/domain/event"
	"github.com/garyjia/expense-desk/internal/infrastructure/external/graphql"
	infraLark "github.com/garyjia/expense-desk/internal/infrastructure/external/lark"
	"github.com/garyjia/expense-desk/internal/infrastructure/persistence/repository"
	"github.com/garyjia/expense-desk/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/expense-desk/internal/infrastructure/report"
	httpserver "github.com/garyjia/expense-desk/internal/interfaces/http"
	"github.com/garyjia/expense-desk/pkg/database"
	"github.com/garyjia/expense-desk/pkg/utils"
	"go.uber.org/zap"
)

// DatabaseBundle holds database-related components.
type DatabaseBundle struct {
	SqlDB          *sql.DB
	TransactionMgr *sqlite.DB
}

// ProvideDatabase opens the database and runs pending migrations.
// The embedded migrations are used unless cfg.MigrationsDir is set.
func ProvideDatabase(cfg *DatabaseConfig, logger *zap.Logger) (*DatabaseBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	sqlDB, err := database.Open(database.Config{
		Path:            cfg.Path,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, err
	}

	var migrations fs.FS = database.Migrations()
	if cfg.MigrationsDir != "" {
		migrations = os.DirFS(cfg.MigrationsDir)
	}

	if _, err := database.NewMigrator(sqlDB, logger).Run(migrations); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &DatabaseBundle{
		SqlDB:          sqlDB,
		TransactionMgr: sqlite.NewDB(sqlDB, logger),
	}, nil
}

// ProvideActionLogRepository creates the action log store.
func ProvideActionLogRepository(db *sqlite.DB, logger *zap.Logger) (port.ActionLogRepository, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	return repository.NewActionLogRepository(db, logger), nil
}

// ProvideGraphQLClient creates the platform API client. It serves both as
// the expense source and the process transport.
func ProvideGraphQLClient(cfg *GraphQLConfig, logger *zap.Logger) (*graphql.Client, error) {
	if cfg == nil || cfg.Endpoint == "" {
		return nil, fmt.Errorf("graphql endpoint is required")
	}

	return graphql.NewClient(graphql.Config{
		Endpoint:         cfg.Endpoint,
		Token:            cfg.Token,
		Timeout:          cfg.Timeout,
		RequestsPerSec:   cfg.RequestsPerSec,
		Burst:            cfg.Burst,
		BreakerFailures:  cfg.BreakerFailures,
		BreakerOpenDelay: cfg.BreakerOpenDelay,
	}, logger.Named("graphql")), nil
}

// ProvideMessenger creates the Lark message sender, or nil when
// notifications are disabled.
func ProvideMessenger(cfg *LarkConfig, logger *zap.Logger) port.MessageSender {
	if cfg == nil || !cfg.Enabled {
		logger.Info("Lark notifications disabled")
		return nil
	}

	return infraLark.NewMessenger(infraLark.Config{
		AppID:         cfg.AppID,
		AppSecret:     cfg.AppSecret,
		ReceiveIDType: cfg.ReceiveIDType,
		Timeout:       cfg.APITimeout,
	}, logger.Named("lark"))
}

// EventBusDeps holds the collaborators of the event subscribers.
type EventBusDeps struct {
	TxManager  port.TransactionManager
	ActionLogs port.ActionLogRepository
	Messenger  port.MessageSender // nil disables notifications
	ReceiveID  string
	Logger     *zap.Logger
}

// ProvideEventBus creates the event bus and subscribes the action recorder
// and, when a messenger is configured, the Lark notifier to every outcome.
func ProvideEventBus(deps *EventBusDeps) (*eventbus.Bus, error) {
	if deps == nil || deps.ActionLogs == nil {
		return nil, fmt.Errorf("action log repository is required")
	}
	if deps.TxManager == nil {
		return nil, fmt.Errorf("transaction manager is required")
	}

	kv := utils.NewKVLogger(deps.Logger)
	bus := eventbus.New(kv)

	recorder := service.NewActionRecorder(deps.TxManager, deps.ActionLogs, kv)
	var notifier *service.ActionNotifier
	if deps.Messenger != nil {
		notifier = service.NewActionNotifier(deps.Messenger, deps.ReceiveID, kv)
	}

	for _, t := range []event.Type{event.TypeActionSucceeded, event.TypeActionFailed} {
		bus.Subscribe(t, "action_recorder", recorder.Handle)
		if notifier != nil {
			bus.Subscribe(t, "lark_notifier", notifier.Handle)
		}
	}

	return bus, nil
}

// ServiceDeps holds dependencies for the expense service.
type ServiceDeps struct {
	Client     *graphql.Client
	ActionLogs port.ActionLogRepository
	Bus        *eventbus.Bus
	Process    *ProcessConfig
	Logger     *zap.Logger
}

// ProvideExpenseService creates the expense service and the xlsx exporter it uses.
func ProvideExpenseService(deps *ServiceDeps) (service.ExpenseService, error) {
	if deps == nil || deps.Client == nil {
		return nil, fmt.Errorf("graphql client is required")
	}
	if deps.ActionLogs == nil {
		return nil, fmt.Errorf("action log repository is required")
	}

	kv := utils.NewKVLogger(deps.Logger)
	dispatchDeps := dispatcher.Deps{
		Processor: deps.Client,
		Logger:    kv,
	}
	if deps.Bus != nil {
		dispatchDeps.Publisher = deps.Bus
	}
	if deps.Process != nil {
		dispatchDeps.Timeout = deps.Process.ActionTimeout
	}

	return service.NewExpenseService(
		deps.Client,
		deps.ActionLogs,
		report.NewXLSXExporter(deps.Logger.Named("report")),
		dispatchDeps,
		kv,
	), nil
}

// ProvideHTTPServer creates the admin API server.
func ProvideHTTPServer(cfg *ServerConfig, expenses service.ExpenseService, health httpserver.HealthChecker, logger *zap.Logger) *httpserver.Server {
	return httpserver.NewServer(httpserver.ServerConfig{
		Host:           cfg.Host,
		Port:           cfg.Port,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		AllowedOrigins: cfg.AllowedOrigins,
	}, expenses, health, utils.NewKVLogger(logger.Named("http")))
}
