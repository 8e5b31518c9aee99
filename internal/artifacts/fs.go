package artifacts

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/afero"

	"github.com/mesh-intelligence/docket/pkg/types"
)

// FSStore renames artifacts on a filesystem. Handles are slash-separated
// paths relative to the store root. A rename keeps the artifact in its
// directory and carries the date sidecar along when one exists.
type FSStore struct {
	fs     afero.Fs
	logger hclog.Logger
}

// NewFSStore returns a store rooted at root on the OS filesystem.
func NewFSStore(root string, logger hclog.Logger) (*FSStore, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("store root %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("store root %s is not a directory", root)
	}
	return NewFSStoreFromFs(afero.NewBasePathFs(afero.NewOsFs(), root), logger), nil
}

// NewFSStoreFromFs returns a store over an existing afero filesystem.
func NewFSStoreFromFs(fs afero.Fs, logger hclog.Logger) *FSStore {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &FSStore{fs: fs, logger: logger.Named("fs-store")}
}

// Fs returns the underlying filesystem.
func (s *FSStore) Fs() afero.Fs {
	return s.fs
}

// Rename implements types.ArtifactStore.
//
// A rename whose source is gone but whose target exists is treated as
// already done, so retrying a rename that succeeded is harmless.
func (s *FSStore) Rename(ctx context.Context, ref types.ArtifactRef, newName string) (types.ArtifactRef, error) {
	if err := ctx.Err(); err != nil {
		return ref, err
	}
	if err := checkName(newName); err != nil {
		return ref, err
	}
	src := cleanHandle(ref.Handle)
	dst := siblingPath(src, newName)
	if dst == src {
		return types.ArtifactRef{Handle: src, Name: newName}, nil
	}

	srcExists, err := afero.Exists(s.fs, src)
	if err != nil {
		return ref, fmt.Errorf("stat %s: %w", src, err)
	}
	dstExists, err := afero.Exists(s.fs, dst)
	if err != nil {
		return ref, fmt.Errorf("stat %s: %w", dst, err)
	}
	switch {
	case !srcExists && dstExists:
		s.logger.Debug("rename already applied", "from", src, "to", dst)
		return types.ArtifactRef{Handle: dst, Name: newName}, nil
	case !srcExists:
		return ref, fmt.Errorf("%w: %s", types.ErrArtifactNotFound, src)
	case dstExists:
		return ref, fmt.Errorf("%w: %s", types.ErrArtifactExists, dst)
	}

	if err := s.fs.Rename(src, dst); err != nil {
		return ref, fmt.Errorf("rename %s to %s: %w", src, dst, err)
	}
	s.moveSidecar(src, dst)
	s.logger.Debug("renamed artifact", "from", src, "to", dst)
	return types.ArtifactRef{Handle: dst, Name: newName}, nil
}

func (s *FSStore) moveSidecar(src, dst string) {
	from, to := src+SidecarSuffix, dst+SidecarSuffix
	ok, err := afero.Exists(s.fs, from)
	if err != nil || !ok {
		return
	}
	if err := s.fs.Rename(from, to); err != nil {
		s.logger.Warn("date sidecar left behind", "sidecar", from, "error", err)
	}
}

// Ref returns the reference for an existing artifact at handle.
func (s *FSStore) Ref(handle string) (types.ArtifactRef, error) {
	h := cleanHandle(handle)
	info, err := s.fs.Stat(h)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return types.ArtifactRef{}, fmt.Errorf("%w: %s", types.ErrArtifactNotFound, h)
		}
		return types.ArtifactRef{}, fmt.Errorf("stat %s: %w", h, err)
	}
	if info.IsDir() {
		return types.ArtifactRef{}, fmt.Errorf("%s is a directory", h)
	}
	return types.ArtifactRef{Handle: h, Name: path.Base(h)}, nil
}

// List returns references for the artifacts in dir, sorted by name.
// Date sidecars and hidden files are skipped.
func (s *FSStore) List(dir string) ([]types.ArtifactRef, error) {
	d := cleanHandle(dir)
	if d == "" {
		d = "."
	}
	entries, err := afero.ReadDir(s.fs, d)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", d, err)
	}
	var refs []types.ArtifactRef
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || strings.HasSuffix(name, SidecarSuffix) {
			continue
		}
		handle := name
		if d != "." {
			handle = path.Join(d, name)
		}
		refs = append(refs, types.ArtifactRef{Handle: handle, Name: name})
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].Name < refs[j].Name })
	return refs, nil
}

func checkName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: artifact name %q", types.ErrInvalidID, name)
	}
	return nil
}

func cleanHandle(h string) string {
	return strings.TrimPrefix(path.Clean("/"+strings.ReplaceAll(h, `\`, "/")), "/")
}

func siblingPath(handle, name string) string {
	dir := path.Dir(handle)
	if dir == "." || dir == "/" {
		return name
	}
	return path.Join(dir, name)
}
