package offload

import (
	"context"
	"strings"
	"sync"
)

// MockUploader records uploads without contacting storage. Used for dry runs.
type MockUploader struct {
	BaseURL string

	mu            sync.Mutex
	UploadedFiles map[string]string // LocalPath -> RemoteURL
}

func (m *MockUploader) Upload(_ context.Context, localPath, remoteKey string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.UploadedFiles == nil {
		m.UploadedFiles = make(map[string]string)
	}
	baseURL := strings.TrimSuffix(m.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://cdn.example.com"
	}

	url := baseURL + "/" + remoteKey
	m.UploadedFiles[localPath] = url
	return url, nil
}
