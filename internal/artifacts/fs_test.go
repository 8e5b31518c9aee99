package artifacts

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/docket/pkg/types"
)

func memStore(t *testing.T, files ...string) (*FSStore, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	for _, f := range files {
		require.NoError(t, afero.WriteFile(fs, f, []byte(f), 0o644))
	}
	return NewFSStoreFromFs(fs, nil), fs
}

func TestFSStoreRename(t *testing.T) {
	store, fs := memStore(t, "docs/TMP-E-0001_scan.pdf")
	ref := types.ArtifactRef{Handle: "docs/TMP-E-0001_scan.pdf", Name: "TMP-E-0001_scan.pdf"}

	got, err := store.Rename(context.Background(), ref, "E-001_scan.pdf")
	require.NoError(t, err)
	assert.Equal(t, types.ArtifactRef{Handle: "docs/E-001_scan.pdf", Name: "E-001_scan.pdf"}, got)

	ok, err := afero.Exists(fs, "docs/E-001_scan.pdf")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = afero.Exists(fs, "docs/TMP-E-0001_scan.pdf")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFSStoreRenameErrors(t *testing.T) {
	tests := []struct {
		name    string
		files   []string
		handle  string
		newName string
		wantErr error
	}{
		{"target exists", []string{"a/E-001.pdf", "a/E-002.pdf"}, "a/E-001.pdf", "E-002.pdf", types.ErrArtifactExists},
		{"source missing", nil, "a/E-001.pdf", "E-002.pdf", types.ErrArtifactNotFound},
		{"name with slash", []string{"a/E-001.pdf"}, "a/E-001.pdf", "b/E-002.pdf", types.ErrInvalidID},
		{"empty name", []string{"a/E-001.pdf"}, "a/E-001.pdf", "", types.ErrInvalidID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, _ := memStore(t, tt.files...)
			_, err := store.Rename(context.Background(), types.ArtifactRef{Handle: tt.handle}, tt.newName)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestFSStoreRenameIsRepeatable(t *testing.T) {
	store, _ := memStore(t, "a/E-004_x.pdf")
	ref := types.ArtifactRef{Handle: "a/E-004_x.pdf", Name: "E-004_x.pdf"}

	first, err := store.Rename(context.Background(), ref, "E-005_x.pdf")
	require.NoError(t, err)
	second, err := store.Rename(context.Background(), ref, "E-005_x.pdf")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestFSStoreRenameCancelled(t *testing.T) {
	store, _ := memStore(t, "a/E-001.pdf")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := store.Rename(ctx, types.ArtifactRef{Handle: "a/E-001.pdf"}, "E-002.pdf")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFSStoreMovesSidecar(t *testing.T) {
	store, fs := memStore(t, "a/TMP-E-0001_x.pdf", "a/TMP-E-0001_x.pdf"+SidecarSuffix)

	_, err := store.Rename(context.Background(), types.ArtifactRef{Handle: "a/TMP-E-0001_x.pdf"}, "E-001_x.pdf")
	require.NoError(t, err)
	ok, err := afero.Exists(fs, "a/E-001_x.pdf"+SidecarSuffix)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestFSStoreRefAndList(t *testing.T) {
	store, fs := memStore(t, "in/b.pdf", "in/a.pdf", "in/a.pdf"+SidecarSuffix, "in/.hidden")
	require.NoError(t, fs.MkdirAll("in/sub", 0o755))

	ref, err := store.Ref("in/a.pdf")
	require.NoError(t, err)
	assert.Equal(t, types.ArtifactRef{Handle: "in/a.pdf", Name: "a.pdf"}, ref)

	_, err = store.Ref("in/missing.pdf")
	assert.ErrorIs(t, err, types.ErrArtifactNotFound)

	refs, err := store.List("in")
	require.NoError(t, err)
	assert.Equal(t, []types.ArtifactRef{
		{Handle: "in/a.pdf", Name: "a.pdf"},
		{Handle: "in/b.pdf", Name: "b.pdf"},
	}, refs)
}

func TestCleanHandle(t *testing.T) {
	assert.Equal(t, "a/b.pdf", cleanHandle("/a/./b.pdf"))
	assert.Equal(t, "b.pdf", cleanHandle("../../b.pdf"))
	assert.Equal(t, "a/b.pdf", cleanHandle(`a\b.pdf`))
}
