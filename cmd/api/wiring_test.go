package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"partner-edge/internal/config"
	"partner-edge/internal/infrastructure/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type trackedStores struct {
	migrated int
	closed   int
	failWith error
}

func (ts *trackedStores) open(ctx context.Context, _ *config.Config) (*stores, error) {
	db, err := repository.OpenSQLite(ctx, ":memory:")
	if err != nil {
		return nil, err
	}
	return &stores{
		connections: repository.NewSQLConnectionRepository(db),
		webhookLog:  repository.NewSQLWebhookLog(db),
		migrate: func(context.Context) error {
			ts.migrated++
			return ts.failWith
		},
		close: func(context.Context) error {
			ts.closed++
			return db.Close()
		},
	}, nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	env := map[string]string{
		"ENCRYPTION_SECRET": "secret",
		"TABLE_SERVICE_URL": "https://account.table.core.windows.net/?sv=2022-11-02&sig=x",
		"REDIS_URL":         "redis://localhost:6379/0",
	}
	cfg, err := config.FromEnv(func(k string) string { return env[k] })
	require.NoError(t, err)
	return cfg
}

func TestBuildAppEnsuresStoreIndexes(t *testing.T) {
	ts := &trackedStores{}

	edge, err := buildApp(context.Background(), testConfig(t), ts.open)
	require.NoError(t, err)
	t.Cleanup(func() { edge.Close(context.Background()) })

	assert.Equal(t, 1, ts.migrated)

	rec := httptest.NewRecorder()
	edge.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestBuildAppFailsWhenIndexesCannotBeCreated(t *testing.T) {
	ts := &trackedStores{failWith: errors.New("index build failed")}

	_, err := buildApp(context.Background(), testConfig(t), ts.open)
	require.Error(t, err)
	assert.ErrorIs(t, err, ts.failWith)
	assert.Equal(t, 1, ts.migrated)
	assert.Equal(t, 1, ts.closed)
}

func TestBuildAppRequiresOrderTable(t *testing.T) {
	cfg := testConfig(t)
	cfg.TableServiceURL = ""
	ts := &trackedStores{}

	_, err := buildApp(context.Background(), cfg, ts.open)
	require.Error(t, err)
	assert.Equal(t, 1, ts.closed)
}
