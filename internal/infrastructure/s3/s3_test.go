package s3

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"gallery-api/config"
)

type fakeMinio struct {
	exists    bool
	made      bool
	puts      map[string][]byte
	putType   string
	removed   []string
	failOnKey string
}

func (f *fakeMinio) BucketExists(ctx context.Context, bucketName string) (bool, error) {
	return f.exists, nil
}

func (f *fakeMinio) MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error {
	f.made = true
	return nil
}

func (f *fakeMinio) PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	b, err := io.ReadAll(reader)
	if err != nil {
		return minio.UploadInfo{}, err
	}
	if f.puts == nil {
		f.puts = map[string][]byte{}
	}
	f.puts[objectName] = b
	f.putType = opts.ContentType
	return minio.UploadInfo{Key: objectName, Size: int64(len(b))}, nil
}

func (f *fakeMinio) RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error {
	if objectName == f.failOnKey {
		return errors.New("access denied")
	}
	f.removed = append(f.removed, objectName)
	return nil
}

func TestClient_GetPublicURL(t *testing.T) {
	c := newClient(zap.NewNop(), &fakeMinio{}, config.S3{Endpoint: "minio:9000", BucketUploads: "uploads"})
	assert.Equal(t, "http://minio:9000/uploads/images/a%20b.png", c.GetPublicURL("images/a b.png"))

	c = newClient(zap.NewNop(), &fakeMinio{}, config.S3{PublicBaseURL: "https://cdn.example.com/", BucketUploads: "uploads"})
	assert.Equal(t, "https://cdn.example.com/images/a.png", c.GetPublicURL("images/a.png"))
}

func TestClient_EnsureBucket(t *testing.T) {
	f := &fakeMinio{exists: false}
	c := newClient(zap.NewNop(), f, config.S3{Endpoint: "minio:9000", BucketUploads: "uploads"})

	require.NoError(t, c.ensureBucket(context.Background()))
	assert.True(t, f.made)
}

func TestClient_Upload(t *testing.T) {
	f := &fakeMinio{}
	c := newClient(zap.NewNop(), f, config.S3{PublicBaseURL: "https://cdn.example.com", BucketUploads: "uploads"})

	u, err := c.Upload(context.Background(), "images/x.png", bytes.NewReader([]byte("png")), 3, "image/png")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/images/x.png", u)
	assert.Equal(t, []byte("png"), f.puts["images/x.png"])
	assert.Equal(t, "image/png", f.putType)
}

func TestClient_Delete_ContinuesPastFailures(t *testing.T) {
	f := &fakeMinio{failOnKey: "b"}
	c := newClient(zap.NewNop(), f, config.S3{BucketUploads: "uploads"})

	err := c.Delete(context.Background(), []string{"a", "b", "c"})
	require.Error(t, err)
	assert.Equal(t, []string{"a", "c"}, f.removed)

	var de *DeleteError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "b", de.Key)
	assert.Equal(t, []string{"b"}, FailedKeys(err))

	require.NoError(t, c.Delete(context.Background(), nil))
}

func (f *fakeMinio) getObject(_ context.Context, _, objectName string) (io.ReadCloser, error) {
	b, ok := f.puts[objectName]
	if !ok {
		return nil, errors.New("no such key")
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func TestClient_Download(t *testing.T) {
	f := &fakeMinio{puts: map[string][]byte{"images/a.png": []byte("png-bytes")}}
	c := newClient(zap.NewNop(), f, config.S3{BucketUploads: "uploads"})
	c.getObject = f.getObject

	b, err := c.Download(context.Background(), "images/a.png", 1024)
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), b)

	_, err = c.Download(context.Background(), "images/a.png", 4)
	require.ErrorIs(t, err, ErrObjectTooLarge)

	_, err = c.Download(context.Background(), "images/missing.png", 1024)
	require.Error(t, err)
}
