package artifacts

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/hashicorp/go-hclog"

	"github.com/mesh-intelligence/docket/pkg/types"
)

// S3API is the subset of the S3 client S3Store uses.
type S3API interface {
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	CopyObject(ctx context.Context, in *s3.CopyObjectInput, optFns ...func(*s3.Options)) (*s3.CopyObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Store renames objects in one bucket. Handles are object keys; the
// key's directory part is kept and the last segment becomes the new name.
// S3 has no rename, so a rename is a copy followed by a delete of the
// source.
type S3Store struct {
	client S3API
	bucket string
	logger hclog.Logger
}

// NewS3Store builds an S3 client from cfg and returns a store over it.
// A non-empty Endpoint selects path-style addressing for S3-compatible
// services such as MinIO.
func NewS3Store(ctx context.Context, cfg types.S3Config, logger hclog.Logger) (*S3Store, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return NewS3StoreWithClient(client, cfg.Bucket, logger), nil
}

// NewS3StoreWithClient returns a store over an existing client.
func NewS3StoreWithClient(client S3API, bucket string, logger hclog.Logger) *S3Store {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &S3Store{client: client, bucket: bucket, logger: logger.Named("s3-store")}
}

// Key returns the object key for a handle below prefix.
func Key(prefix, handle string) string {
	if prefix == "" {
		return cleanHandle(handle)
	}
	return cleanHandle(path.Join(prefix, handle))
}

// Rename implements types.ArtifactStore. The returned reference carries
// the new key.
func (s *S3Store) Rename(ctx context.Context, ref types.ArtifactRef, newName string) (types.ArtifactRef, error) {
	if err := checkName(newName); err != nil {
		return ref, err
	}
	src := cleanHandle(ref.Handle)
	dst := siblingPath(src, newName)
	if dst == src {
		return types.ArtifactRef{Handle: src, Name: newName}, nil
	}

	srcExists, err := s.exists(ctx, src)
	if err != nil {
		return ref, err
	}
	dstExists, err := s.exists(ctx, dst)
	if err != nil {
		return ref, err
	}
	switch {
	case !srcExists && dstExists:
		s.logger.Debug("rename already applied", "from", src, "to", dst)
		return types.ArtifactRef{Handle: dst, Name: newName}, nil
	case !srcExists:
		return ref, fmt.Errorf("%w: s3://%s/%s", types.ErrArtifactNotFound, s.bucket, src)
	case dstExists:
		return ref, fmt.Errorf("%w: s3://%s/%s", types.ErrArtifactExists, s.bucket, dst)
	}

	_, err = s.client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(s.bucket),
		Key:        aws.String(dst),
		CopySource: aws.String(copySource(s.bucket, src)),
	})
	if err != nil {
		return ref, fmt.Errorf("copy %s to %s: %w", src, dst, err)
	}
	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(src),
	})
	if err != nil {
		// The copy exists under the new name; a retry finds the source and
		// target both present, so report the delete failure loudly.
		s.logger.Error("source object left after copy", "key", src, "error", err)
		return types.ArtifactRef{Handle: dst, Name: newName}, fmt.Errorf("delete %s: %w", src, err)
	}
	s.logger.Debug("renamed object", "from", src, "to", dst)
	return types.ArtifactRef{Handle: dst, Name: newName}, nil
}

func (s *S3Store) exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err == nil {
		return true, nil
	}
	var nf *s3types.NotFound
	var nsk *s3types.NoSuchKey
	if errors.As(err, &nf) || errors.As(err, &nsk) {
		return false, nil
	}
	return false, fmt.Errorf("head s3://%s/%s: %w", s.bucket, key, err)
}

func copySource(bucket, key string) string {
	segments := strings.Split(key, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return bucket + "/" + strings.Join(segments, "/")
}
