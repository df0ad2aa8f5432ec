package services

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"vcfo/internal/config"
	"vcfo/internal/shared/testutil"
	"vcfo/internal/store"
	ws "vcfo/internal/websocket"
	"vcfo/pkg/contracts"
)

func TestHealthService_HealthCheck(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	hs := NewHealthService(store.NewMemoryStore(), config.StoreBackendMemory, nil, logger)

	status := hs.HealthCheck(context.Background())
	assert.Equal(t, StatusOK, status.Status)
	assert.Equal(t, contracts.Version, status.Version)
	assert.False(t, status.Timestamp.IsZero())
}

func TestHealthService_LivenessCheck(t *testing.T) {
	hs := NewHealthService(nil, "", nil, nil)

	status := hs.LivenessCheck(context.Background())
	assert.Equal(t, StatusAlive, status.Status)
	assert.Contains(t, status.Runtime, "uptime")
	assert.Contains(t, status.Runtime, "goroutines")
}

func TestHealthService_ReadinessCheck(t *testing.T) {
	memory := store.NewMemoryStore()
	require.NoError(t, memory.Replace(context.Background(), "acme", sampleRecords()))

	failing := new(MockRecordStore)
	failing.On("Ping", mock.Anything).Return(errors.New("data dir not writable"))

	tests := []struct {
		name        string
		store       store.RecordStore
		hub         *ws.Hub
		wantStatus  string
		wantStore   string
		wantMessage string
	}{
		{
			name:       "memory store with hub",
			store:      memory,
			hub:        ws.NewHub(nil, nil),
			wantStatus: StatusReady,
			wantStore:  StatusReady,
		},
		{
			name:        "failing store",
			store:       failing,
			wantStatus:  StatusNotReady,
			wantStore:   StatusNotReady,
			wantMessage: "record store unavailable: data dir not writable",
		},
		{
			name:        "no store",
			store:       nil,
			wantStatus:  StatusNotReady,
			wantStore:   StatusNotReady,
			wantMessage: "record store not initialized",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, logs := testutil.NewTestLogger(t)
			hs := NewHealthService(tt.store, config.StoreBackendMemory, tt.hub, logger)

			status := hs.ReadinessCheck(context.Background())
			assert.Equal(t, tt.wantStatus, status.Status)
			require.Contains(t, status.Services, "store")
			assert.Equal(t, tt.wantStore, status.Services["store"].Status)
			assert.Equal(t, tt.wantMessage, status.Services["store"].Message)
			assert.Equal(t, StatusReady, status.Services["websocket"].Status)

			if tt.wantStatus == StatusNotReady {
				testutil.AssertLogContains(t, logs, slog.LevelWarn, "Readiness check failed")
			}
		})
	}
}

func TestHealthService_ReadinessReportsOwners(t *testing.T) {
	memory := store.NewMemoryStore()
	require.NoError(t, memory.Replace(context.Background(), "acme", sampleRecords()))

	hs := NewHealthService(memory, config.StoreBackendMemory, nil, nil)
	details, ok := hs.ReadinessCheck(context.Background()).Services["store"].Details.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, config.StoreBackendMemory, details["backend"])
	assert.Equal(t, 1, details["owners"])
}

func TestHealthService_Version(t *testing.T) {
	info := NewHealthService(nil, "", nil, nil).Version()
	assert.Equal(t, contracts.Version, info.Version)
	assert.Equal(t, contracts.APIVersion, info.APIVersion)
}
