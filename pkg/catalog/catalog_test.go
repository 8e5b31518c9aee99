package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/docket/pkg/types"
)

func TestNewBackend(t *testing.T) {
	cat, err := NewBackend(types.BackendSQLite, nil)
	require.NoError(t, err)
	assert.NotNil(t, cat)

	_, err = NewBackend("", nil)
	assert.ErrorIs(t, err, types.ErrBackendEmpty)

	_, err = NewBackend("dolt", nil)
	assert.ErrorIs(t, err, types.ErrBackendUnknown)
}

func TestOpen(t *testing.T) {
	cat, err := Open(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}, nil)
	require.NoError(t, err)
	defer cat.Detach()

	snap, err := cat.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snap.Records)
}
