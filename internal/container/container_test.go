package container

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/garyjia/expense-desk/internal/domain/event"
	"github.com/garyjia/expense-desk/internal/infrastructure/persistence/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testConfig(t *testing.T) *Config {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Database.Path = filepath.Join(t.TempDir(), "desk.db")
	cfg.GraphQL.Endpoint = "http://127.0.0.1:0/graphql"
	cfg.Server.Port = 0
	return cfg
}

func TestNewContainer_Validation(t *testing.T) {
	_, err := NewContainer(nil, zap.NewNop())
	assert.Error(t, err)

	_, err = NewContainer(DefaultConfig(), nil)
	assert.Error(t, err)

	// DefaultConfig has no endpoint
	_, err = NewContainer(DefaultConfig(), zap.NewNop())
	assert.ErrorContains(t, err, "graphql.endpoint")

	cfg := testConfig(t)
	cfg.Lark.Enabled = true
	_, err = NewContainer(cfg, zap.NewNop())
	assert.ErrorContains(t, err, "lark.app_id")
}

func TestContainer_StartAndClose(t *testing.T) {
	c, err := NewContainer(testConfig(t), zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, c.Start(context.Background()))
	assert.True(t, c.Ready())
	assert.NotNil(t, c.Expenses())
	assert.NotNil(t, c.Server())
	assert.Equal(t, []string{"action_recorder"}, c.EventBus().Handlers(event.TypeActionSucceeded))
	assert.Equal(t, []string{"action_recorder"}, c.EventBus().Handlers(event.TypeActionFailed))

	status := c.Health(context.Background())
	assert.True(t, status.Overall)
	assert.Equal(t, "disabled", status.Components["lark"].Message)
	assert.NoError(t, c.Check(context.Background()))

	assert.ErrorContains(t, c.Start(context.Background()), "already started")

	require.NoError(t, c.Close())
	assert.False(t, c.Ready())
	assert.Error(t, c.Close())
	assert.ErrorContains(t, c.Start(context.Background()), "closed")
}

func TestContainer_HealthBeforeStart(t *testing.T) {
	c, err := NewContainer(testConfig(t), zap.NewNop())
	require.NoError(t, err)

	status := c.Health(context.Background())
	assert.False(t, status.Overall)
	assert.False(t, status.Components["database"].Healthy)
	assert.Error(t, c.Check(context.Background()))
}

func TestProvideEventBus_SubscribesNotifierWhenEnabled(t *testing.T) {
	c, err := NewContainer(testConfig(t), zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, c.Start(context.Background()))
	defer c.Close()

	bus, err := ProvideEventBus(&EventBusDeps{
		TxManager:  c.DB(),
		ActionLogs: c.ActionLogs(),
		Messenger:  ProvideMessenger(&LarkConfig{Enabled: true, AppID: "cli", AppSecret: "s"}, zap.NewNop()),
		ReceiveID:  "oc_1",
		Logger:     zap.NewNop(),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"action_recorder", "lark_notifier"}, bus.Handlers(event.TypeActionFailed))
}

func TestProvideEventBus_RequiresTransactionManager(t *testing.T) {
	_, err := ProvideEventBus(&EventBusDeps{ActionLogs: &repository.ActionLogRepository{}, Logger: zap.NewNop()})
	assert.ErrorContains(t, err, "transaction manager is required")
}
