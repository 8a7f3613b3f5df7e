package blob

import (
	"bytes"
	"context"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/pkg/errors"

	"github.com/koinonia-app/koinonia/core"
)

// S3Store keeps blobs in a single S3 (or MinIO) bucket. Keys map to object keys.
type S3Store struct {
	client *s3.Client
	bucket string
}

var _ core.BlobStore = (*S3Store)(nil)

type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string // for S3 compatible servers
	AccessKeyID     string // falls back to the default credentials chain when empty
	SecretAccessKey string
	PathStyle       bool
}

func NewS3Store(ctx context.Context, cfg S3Config, optFns ...func(*s3.Options)) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3 bucket required")
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, errors.Wrap(err, "loading aws config")
	}

	client := s3.NewFromConfig(awsCfg, append([]func(*s3.Options){func(o *s3.Options) {
		o.UsePathStyle = cfg.PathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	}}, optFns...)...)
	return &S3Store{client: client, bucket: cfg.Bucket}, nil
}

func isS3NotFound(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	return false
}

func (s *S3Store) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (core.BlobInfo, error) {
	key, err := cleanKey(key)
	if err != nil {
		return core.BlobInfo{}, err
	}
	// the sdk needs a seekable body to sign the payload
	body, ok := r.(io.ReadSeeker)
	if !ok {
		b, err := io.ReadAll(r)
		if err != nil {
			return core.BlobInfo{}, errors.Wrap(err, "reading blob")
		}
		body, size = bytes.NewReader(b), int64(len(b))
	}
	input := &s3.PutObjectInput{Bucket: &s.bucket, Key: &key, Body: body}
	if size > 0 {
		input.ContentLength = aws.Int64(size)
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	out, err := s.client.PutObject(ctx, input)
	if err != nil {
		return core.BlobInfo{}, errors.Wrapf(err, "putting %s", key)
	}
	return core.BlobInfo{
		Key:          key,
		Size:         size,
		ContentType:  contentType,
		ETag:         strings.Trim(aws.ToString(out.ETag), `"`),
		LastModified: core.NowFunc().UTC(),
	}, nil
}

func (s *S3Store) Get(ctx context.Context, key string) (core.BlobInfo, io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{Bucket: &s.bucket, Key: &key})
	if err != nil {
		if isS3NotFound(err) {
			return core.BlobInfo{}, nil, core.ErrBlobNotFound
		}
		return core.BlobInfo{}, nil, errors.Wrapf(err, "getting %s", key)
	}
	info := core.BlobInfo{
		Key:          key,
		Size:         aws.ToInt64(out.ContentLength),
		ContentType:  aws.ToString(out.ContentType),
		ETag:         strings.Trim(aws.ToString(out.ETag), `"`),
		LastModified: aws.ToTime(out.LastModified).UTC(),
	}
	return info, out.Body, nil
}

// Delete removes the object. S3 does not report missing keys on delete, so check first.
func (s *S3Store) Delete(ctx context.Context, key string) error {
	if _, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: &s.bucket, Key: &key}); err != nil {
		if isS3NotFound(err) {
			return core.ErrBlobNotFound
		}
		return errors.Wrapf(err, "checking %s", key)
	}
	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: &s.bucket, Key: &key}); err != nil {
		return errors.Wrapf(err, "deleting %s", key)
	}
	return nil
}
