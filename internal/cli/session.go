package cli

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/docket/internal/artifacts"
	"github.com/mesh-intelligence/docket/internal/paths"
	"github.com/mesh-intelligence/docket/pkg/catalog"
	"github.com/mesh-intelligence/docket/pkg/dates"
	"github.com/mesh-intelligence/docket/pkg/sequence"
	"github.com/mesh-intelligence/docket/pkg/types"
)

// candidateTTL bounds how long sidecar candidates are reused within one run.
const candidateTTL = 5 * time.Minute

// session is one attached catalog plus the artifact store it binds records
// to. The caller must call close.
type session struct {
	config  types.Config
	catalog types.QueryableCatalog
	logger  hclog.Logger

	fs    *artifacts.FSStore
	store types.ArtifactStore
}

// open loads the configuration, builds the logger and attaches the catalog.
func (a *app) open(cmd *cobra.Command) (*session, error) {
	configDir, err := paths.ResolveConfigDir(a.flags.configDir)
	if err != nil {
		return nil, sysErr("resolve config dir: %w", err)
	}
	v, err := loadConfig(configDir)
	if err != nil {
		return nil, sysErr("load config: %w", err)
	}
	cfg, err := buildConfig(v, a.flags)
	if err != nil {
		return nil, err
	}

	level := a.flags.logLevel
	if level == "" {
		level = v.GetString(cfgKeyLogLevel)
	}
	logger := hclog.New(&hclog.LoggerOptions{
		Name:   "docket",
		Level:  hclog.LevelFromString(level),
		Output: cmd.ErrOrStderr(),
	})

	cat, err := catalog.Open(cfg, logger)
	if err != nil {
		return nil, sysErr("attach catalog: %w", err)
	}
	logger.Debug("catalog attached", "data_dir", cfg.DataDir, "store_kind", cfg.Store.Kind)
	return &session{config: cfg, catalog: cat, logger: logger}, nil
}

func (s *session) close() error {
	return s.catalog.Detach()
}

// artifactStore builds the configured store on first use, wrapped in the
// retrying client.
func (s *session) artifactStore(ctx context.Context) (types.ArtifactStore, error) {
	if s.store != nil {
		return s.store, nil
	}
	var next types.ArtifactStore
	switch s.config.Store.Kind {
	case types.StoreS3:
		st, err := artifacts.NewS3Store(ctx, s.config.Store.S3, s.logger)
		if err != nil {
			return nil, sysErr("open s3 store: %w", err)
		}
		next = st
	default:
		st, err := artifacts.NewFSStore(s.config.Store.Root, s.logger)
		if err != nil {
			return nil, sysErr("open local store: %w", err)
		}
		s.fs = st
		next = st
	}
	s.store = artifacts.NewRetryingStore(next, s.config.Store.Retry, s.logger)
	return s.store, nil
}

// ref turns a command-line argument into an artifact reference. Local
// paths may be absolute or relative to the working directory as long as
// they sit below the store root; S3 arguments are keys below the prefix.
func (s *session) ref(ctx context.Context, arg string) (types.ArtifactRef, error) {
	if _, err := s.artifactStore(ctx); err != nil {
		return types.ArtifactRef{}, err
	}
	if s.config.Store.Kind == types.StoreS3 {
		key := artifacts.Key(s.config.Store.S3.Prefix, arg)
		return types.ArtifactRef{Handle: key, Name: path.Base(key)}, nil
	}
	abs, err := filepath.Abs(arg)
	if err != nil {
		return types.ArtifactRef{}, err
	}
	rel, err := filepath.Rel(s.config.Store.Root, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return types.ArtifactRef{}, fmt.Errorf("%s is outside the store root %s", arg, s.config.Store.Root)
	}
	return s.fs.Ref(filepath.ToSlash(rel))
}

// provider returns the date payload provider for the local store.
func (s *session) provider(ctx context.Context) (types.DatePayloadProvider, error) {
	if s.config.Store.Kind == types.StoreS3 {
		return nil, fmt.Errorf("resolve-dates reads sidecar files and needs a local store")
	}
	if _, err := s.artifactStore(ctx); err != nil {
		return nil, err
	}
	return dates.NewCachedProvider(artifacts.NewSidecarProvider(s.fs.Fs()), candidateTTL), nil
}

// engine returns a sequencing engine that checkpoints into the catalog.
func (s *session) engine(ctx context.Context) (*sequence.Engine, error) {
	store, err := s.artifactStore(ctx)
	if err != nil {
		return nil, err
	}
	return sequence.NewEngine(sequence.Options{
		Store:      store,
		Checkpoint: s.catalog,
		Logger:     s.logger,
	})
}

// withSession opens a session, runs fn and closes the session.
func (a *app) withSession(cmd *cobra.Command, fn func(ctx context.Context, s *session) error) error {
	s, err := a.open(cmd)
	if err != nil {
		return err
	}
	defer func() {
		if err := s.close(); err != nil {
			s.logger.Error("detach catalog", "error", err)
		}
	}()
	return fn(cmd.Context(), s)
}

func parseNamespaceFlag(v string) (types.Namespace, error) {
	return types.ParseNamespace(strings.ToLower(strings.TrimSpace(v)))
}
