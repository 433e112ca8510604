package main

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/noah-isme/uniattend-api/internal/repository"
	"github.com/noah-isme/uniattend-api/pkg/config"
)

type unreachableSlots struct{}

func (unreachableSlots) Read(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("connection refused")
}

func (unreachableSlots) Write(context.Context, string, []byte) error {
	return errors.New("connection refused")
}

func stubSlots(t *testing.T, store repository.SlotStore, openErr error) *int {
	t.Helper()
	released := 0
	original := openSlots
	openSlots = func(context.Context, *config.Config, *zap.Logger) (repository.SlotStore, func(), error) {
		if openErr != nil {
			return nil, func() {}, openErr
		}
		return store, func() { released++ }, nil
	}
	t.Cleanup(func() { openSlots = original })
	return &released
}

func TestRunReleasesStorageWhenLoadFails(t *testing.T) {
	released := stubSlots(t, unreachableSlots{}, nil)

	err := run(&config.Config{Storage: config.StorageConfig{Driver: config.StorageRedis}}, zaptest.NewLogger(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load collections")
	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, 1, *released)
}

func TestRunReportsOpenFailure(t *testing.T) {
	released := stubSlots(t, nil, errors.New("dial tcp: timeout"))

	err := run(&config.Config{Storage: config.StorageConfig{Driver: config.StoragePostgres}}, zaptest.NewLogger(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open postgres storage")
	assert.Equal(t, 0, *released)
}
