package offload

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"strings"
)

// Uploader stores a local file under remoteKey and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, localPath, remoteKey string) (string, error)
}

// OffloadDir uploads every regular file below dir, keyed by prefix plus the
// slash-separated path relative to dir. It returns LocalPath -> PublicURL.
func OffloadDir(ctx context.Context, upl Uploader, dir, prefix string) (map[string]string, error) {
	result := make(map[string]string)

	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		key := RemoteKey(prefix, filepath.ToSlash(rel))

		url, err := upl.Upload(ctx, p, key)
		if err != nil {
			return fmt.Errorf("failed to upload %s: %w", p, err)
		}
		result[p] = url
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// RemoteKey joins prefix and rel into an object key without leading slashes.
func RemoteKey(prefix, rel string) string {
	rel = strings.TrimPrefix(rel, "./")
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return strings.TrimPrefix(rel, "/")
	}
	return path.Join(prefix, rel)
}
