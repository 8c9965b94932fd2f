package offload

import (
	"context"
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/AhmedElBanna80/Knative-open-nextjs/packages/ssr-builder/internal/config"
)

// MinIOUploader implements Uploader against any S3-compatible endpoint.
type MinIOUploader struct {
	Client    *minio.Client
	Bucket    string
	PublicURL string
}

// NewMinIOUploader initializes a MinIO client from the storage config.
func NewMinIOUploader(storage config.Storage) (*MinIOUploader, error) {
	if storage.Endpoint == "" || storage.Bucket == "" {
		return nil, fmt.Errorf("%w: storage endpoint and bucket are required", config.ErrInvalid)
	}

	// minio expects host:port
	endpoint := strings.TrimPrefix(strings.TrimPrefix(storage.Endpoint, "https://"), "http://")
	endpoint = strings.TrimSuffix(endpoint, "/")

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(storage.AccessKey, storage.SecretKey, ""),
		Secure: storage.UseSSL,
		Region: storage.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	publicURL := storage.PublicURL
	if publicURL == "" {
		scheme := "http"
		if storage.UseSSL {
			scheme = "https"
		}
		publicURL = fmt.Sprintf("%s://%s/%s", scheme, endpoint, storage.Bucket)
	}

	return &MinIOUploader{
		Client:    client,
		Bucket:    storage.Bucket,
		PublicURL: strings.TrimSuffix(publicURL, "/"),
	}, nil
}

func (u *MinIOUploader) Upload(ctx context.Context, localPath, remoteKey string) (string, error) {
	contentType := mime.TypeByExtension(filepath.Ext(localPath))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err := u.Client.FPutObject(ctx, u.Bucket, remoteKey, localPath, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload object: %w", err)
	}

	return fmt.Sprintf("%s/%s", u.PublicURL, remoteKey), nil
}
