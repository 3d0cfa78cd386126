package seed

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// FileAsset is a seed dataset already present on local disk, the common
// case when the asset ships inside the application bundle.
type FileAsset struct {
	Path string
}

// Resolve verifies the bundled file exists and returns its path.
func (a FileAsset) Resolve(_ context.Context) (string, error) {
	if strings.TrimSpace(a.Path) == "" {
		return "", errors.New("seed asset path is required")
	}
	if _, err := os.Stat(a.Path); err != nil {
		return "", fmt.Errorf("seed asset not readable: %w", err)
	}
	return a.Path, nil
}

// ObjectAsset is a seed dataset stored in an object bucket, downloaded to a
// local cache directory on first resolve. Later resolves reuse the cached
// copy.
type ObjectAsset struct {
	client   *minio.Client
	bucket   string
	object   string
	cacheDir string
}

// NewObjectAsset builds an object-bucket seed resolver.
func NewObjectAsset(endpoint, accessKey, secretKey, bucket, object, cacheDir string, useSSL bool) (*ObjectAsset, error) {
	if strings.TrimSpace(bucket) == "" || strings.TrimSpace(object) == "" {
		return nil, errors.New("seed object bucket and key are required")
	}
	if strings.TrimSpace(cacheDir) == "" {
		return nil, errors.New("seed cache dir is required")
	}
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("init object client: %w", err)
	}
	return &ObjectAsset{client: client, bucket: bucket, object: object, cacheDir: cacheDir}, nil
}

// Resolve downloads the seed object into the cache directory if it is not
// already there and returns the local path.
func (a *ObjectAsset) Resolve(ctx context.Context) (string, error) {
	local := filepath.Join(a.cacheDir, filepath.Base(a.object))
	if _, err := os.Stat(local); err == nil {
		return local, nil
	}
	if err := os.MkdirAll(a.cacheDir, 0o755); err != nil {
		return "", fmt.Errorf("create seed cache dir: %w", err)
	}
	if err := a.client.FGetObject(ctx, a.bucket, a.object, local, minio.GetObjectOptions{}); err != nil {
		os.Remove(local)
		return "", fmt.Errorf("download seed object %s/%s: %w", a.bucket, a.object, err)
	}
	return local, nil
}
