// Package blob implements core.BlobStore on the local filesystem, S3 (or any S3 compatible server)
// and process memory.
package blob

import (
	"context"
	"path"
	"strings"

	"github.com/pkg/errors"

	"github.com/koinonia-app/koinonia/core"
)

// Drivers
const (
	DriverFilesystem = "filesystem"
	DriverS3         = "s3"
	DriverMemory     = "memory"
)

var ErrInvalidKey = errors.New("invalid blob key")

// Open returns the blob store selected by conf.Blob.Driver.
func Open(ctx context.Context, conf *core.Config) (core.BlobStore, error) {
	switch conf.Blob.Driver {
	case DriverFilesystem, "":
		return NewFilesystemStore(conf.Blob.Root)
	case DriverS3:
		return NewS3Store(ctx, S3Config{
			Bucket:          conf.Blob.S3Bucket,
			Region:          conf.Blob.S3Region,
			Endpoint:        conf.Blob.S3Endpoint,
			AccessKeyID:     conf.Blob.S3KeyID,
			SecretAccessKey: conf.Blob.S3SecretKey,
			PathStyle:       conf.Blob.S3PathStyle,
		})
	case DriverMemory:
		return NewMemoryStore(), nil
	default:
		return nil, errors.Errorf("unknown blob driver %q", conf.Blob.Driver)
	}
}

// cleanKey rejects keys escaping the store root: absolute paths & `..` segments.
func cleanKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return "", ErrInvalidKey
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == ".." {
			return "", ErrInvalidKey
		}
	}
	return path.Clean(key), nil
}
