package core

import (
	"context"
	"io"
	"time"
)

var ErrBlobNotFound = NewNotFoundError("file not found")

type (
	// BlobInfo describes a stored file.
	BlobInfo struct {
		Key          string    `json:"key"`
		Size         int64     `json:"size"`
		ContentType  string    `json:"content_type"`
		ETag         string    `json:"etag"`
		LastModified time.Time `json:"last_modified"`
	}

	// BlobStore keeps uploaded files (member photos, post covers). Put overwrites existing keys.
	BlobStore interface {
		Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (BlobInfo, error)
		Get(ctx context.Context, key string) (BlobInfo, io.ReadCloser, error)
		Delete(ctx context.Context, key string) error
	}
)
