package types

import (
	"errors"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Config holds backend selection and parameters for Catalog.Attach, plus the
// artifact store the CLI binds records to.
type Config struct {
	Backend string      `json:"backend" yaml:"backend"`
	DataDir string      `json:"data_dir" yaml:"data_dir"`
	Store   StoreConfig `json:"store" yaml:"store"`
}

// StoreConfig selects and parameterizes an artifact store.
type StoreConfig struct {
	Kind  string      `json:"kind" yaml:"kind" mapstructure:"kind"`
	Root  string      `json:"root" yaml:"root" mapstructure:"root"`
	S3    S3Config    `json:"s3" yaml:"s3" mapstructure:"s3"`
	Retry RetryConfig `json:"retry" yaml:"retry" mapstructure:"retry"`
}

// S3Config holds the connection settings for an S3-compatible store.
type S3Config struct {
	Bucket    string `json:"bucket" yaml:"bucket" mapstructure:"bucket"`
	Region    string `json:"region" yaml:"region" mapstructure:"region"`
	Endpoint  string `json:"endpoint" yaml:"endpoint" mapstructure:"endpoint"`
	Prefix    string `json:"prefix" yaml:"prefix" mapstructure:"prefix"`
	AccessKey string `json:"access_key" yaml:"access_key" mapstructure:"access_key"`
	SecretKey string `json:"secret_key" yaml:"secret_key" mapstructure:"secret_key"`
}

// RetryConfig bounds the store client's own retries. The sequencing core
// never retries a rename itself.
type RetryConfig struct {
	MaxAttempts       int `json:"max_attempts" yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialIntervalMS int `json:"initial_interval_ms" yaml:"initial_interval_ms" mapstructure:"initial_interval_ms"`
}

// Supported backend and store names.
const (
	BackendSQLite = "sqlite"

	StoreLocal = "local"
	StoreS3    = "s3"
)

// Config validation errors.
var (
	ErrBackendEmpty   = errors.New("backend must not be empty")
	ErrBackendUnknown = errors.New("unknown backend")
	ErrStoreInvalid   = errors.New("invalid store configuration")
)

// knownBackends lists the backends that Validate accepts.
var knownBackends = map[string]bool{
	BackendSQLite: true,
}

// Validate checks that the Config is well-formed. Backend problems return
// the sentinel errors above; store problems wrap ErrStoreInvalid.
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return ErrBackendUnknown
	}
	if err := c.Store.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreInvalid, err)
	}
	return nil
}

// Validate checks the store section. An empty Kind is allowed and means the
// caller does not bind artifacts to a store.
func (s StoreConfig) Validate() error {
	err := validation.ValidateStruct(&s,
		validation.Field(&s.Kind, validation.In(StoreLocal, StoreS3)),
		validation.Field(&s.Root, validation.When(s.Kind == StoreLocal, validation.Required)),
	)
	if err != nil {
		return err
	}
	if s.Kind == StoreS3 {
		if err := validation.ValidateStruct(&s.S3,
			validation.Field(&s.S3.Bucket, validation.Required),
			validation.Field(&s.S3.Region, validation.Required),
		); err != nil {
			return err
		}
	}
	return validation.ValidateStruct(&s.Retry,
		validation.Field(&s.Retry.MaxAttempts, validation.Min(0)),
		validation.Field(&s.Retry.InitialIntervalMS, validation.Min(0)),
	)
}
