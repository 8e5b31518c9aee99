package artifacts

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/docket/pkg/types"
)

type flakyStore struct {
	failures int
	err      error
	calls    int
}

func (f *flakyStore) Rename(_ context.Context, ref types.ArtifactRef, newName string) (types.ArtifactRef, error) {
	f.calls++
	if f.calls <= f.failures {
		return ref, f.err
	}
	return types.ArtifactRef{Handle: newName, Name: newName}, nil
}

func TestRetryingStore(t *testing.T) {
	cfg := types.RetryConfig{MaxAttempts: 3, InitialIntervalMS: 1}
	transient := errors.New("connection reset")

	tests := []struct {
		name      string
		failures  int
		err       error
		wantErr   error
		wantCalls int
	}{
		{"succeeds first time", 0, nil, nil, 1},
		{"recovers from transient failures", 2, transient, nil, 3},
		{"gives up after max attempts", 5, transient, transient, 3},
		{"does not retry conflicts", 5, types.ErrArtifactExists, types.ErrArtifactExists, 1},
		{"does not retry missing artifacts", 5, types.ErrArtifactNotFound, types.ErrArtifactNotFound, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := &flakyStore{failures: tt.failures, err: tt.err}
			store := NewRetryingStore(next, cfg, nil)

			ref, err := store.Rename(context.Background(), types.ArtifactRef{Handle: "a"}, "b")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, "b", ref.Name)
			}
			assert.Equal(t, tt.wantCalls, next.calls)
		})
	}
}

func TestRetryingStoreDefaults(t *testing.T) {
	store := NewRetryingStore(&flakyStore{}, types.RetryConfig{}, nil)
	assert.Equal(t, DefaultMaxAttempts, store.maxAttempts)
	assert.Equal(t, DefaultInitialInterval, store.initial)
}
