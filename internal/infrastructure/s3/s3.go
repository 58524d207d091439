package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"gallery-api/config"
)

type minioAPI interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
}

type getObjectFunc func(ctx context.Context, bucketName, objectName string) (io.ReadCloser, error)

var ErrObjectTooLarge = errors.New("object too large")

type Client struct {
	logger    *zap.Logger
	client    minioAPI
	getObject getObjectFunc
	bucket    string
	baseURL   string
}

func New(
	ctx context.Context,
	logger *zap.Logger,
	cfg config.S3,
) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("S3_ENDPOINT is required")
	}

	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	c := newClient(logger, mc, cfg)
	c.getObject = func(ctx context.Context, bucketName, objectName string) (io.ReadCloser, error) {
		return mc.GetObject(ctx, bucketName, objectName, minio.GetObjectOptions{})
	}
	if err = c.ensureBucket(ctx); err != nil {
		return nil, err
	}

	logger.Info("object storage connected successfully", zap.String("bucket", c.bucket))

	return c, nil
}

func newClient(logger *zap.Logger, api minioAPI, cfg config.S3) *Client {
	base := strings.TrimRight(cfg.PublicBaseURL, "/")
	if base == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		base = fmt.Sprintf("%s://%s/%s", scheme, cfg.Endpoint, cfg.BucketUploads)
	}

	return &Client{
		logger:  logger,
		client:  api,
		bucket:  cfg.BucketUploads,
		baseURL: base,
	}
}

func (c *Client) ensureBucket(ctx context.Context) error {
	exists, err := c.client.BucketExists(ctx, c.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", c.bucket, err)
	}
	if exists {
		return nil
	}
	if err = c.client.MakeBucket(ctx, c.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create bucket %s: %w", c.bucket, err)
	}
	return nil
}

func (c *Client) GetPublicURL(key string) string {
	segments := strings.Split(key, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return c.baseURL + "/" + strings.Join(segments, "/")
}

func (c *Client) GetBucket() string { return c.bucket }

// Upload stores the object under key and returns its public URL.
func (c *Client) Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	if _, err := c.client.PutObject(ctx, c.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	}); err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}

	return c.GetPublicURL(key), nil
}

// Download reads the object under key, refusing anything over limit bytes.
func (c *Client) Download(ctx context.Context, key string, limit int64) ([]byte, error) {
	obj, err := c.getObject(ctx, c.bucket, key)
	if err != nil {
		return nil, fmt.Errorf("get object %s: %w", key, err)
	}
	defer obj.Close()

	b, err := io.ReadAll(io.LimitReader(obj, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read object %s: %w", key, err)
	}
	if int64(len(b)) > limit {
		return nil, ErrObjectTooLarge
	}
	return b, nil
}

// Delete removes every key and keeps going past failures. The returned error
// joins one error per key that could not be removed.
func (c *Client) Delete(ctx context.Context, keys []string) error {
	var errs []error
	for _, k := range keys {
		if err := c.client.RemoveObject(ctx, c.bucket, k, minio.RemoveObjectOptions{}); err != nil {
			errs = append(errs, &DeleteError{Key: k, Err: err})
		}
	}

	return errors.Join(errs...)
}

type DeleteError struct {
	Key string
	Err error
}

func (e *DeleteError) Error() string { return fmt.Sprintf("remove object %s: %v", e.Key, e.Err) }

func (e *DeleteError) Unwrap() error { return e.Err }

// FailedKeys lists the keys reported by the *DeleteError values in err.
func FailedKeys(err error) []string {
	if err == nil {
		return nil
	}
	var errs []error
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		errs = j.Unwrap()
	} else {
		errs = []error{err}
	}

	var keys []string
	for _, e := range errs {
		var de *DeleteError
		if errors.As(e, &de) {
			keys = append(keys, de.Key)
		}
	}
	return keys
}
