package helper

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

// MemoryBlobStore dipakai saat ALI_OSS_* tidak diset (dev lokal) dan di unit test.
type MemoryBlobStore struct {
	mu      sync.RWMutex
	objects map[string]MemoryObject
	BaseURL string
}

type MemoryObject struct {
	Data        []byte
	ContentType string
}

func NewMemoryBlobStore(baseURL string) *MemoryBlobStore {
	if baseURL == "" {
		baseURL = "memory://blobs"
	}
	return &MemoryBlobStore{objects: make(map[string]MemoryObject), BaseURL: strings.TrimRight(baseURL, "/")}
}

func (m *MemoryBlobStore) Put(ctx context.Context, key string, body io.Reader, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	m.objects[key] = MemoryObject{Data: data, ContentType: contentType}
	m.mu.Unlock()
	return m.BaseURL + "/" + key, nil
}

// PutWebP sama seperti OSSService.PutWebP: re-encode lalu simpan "<dir>/<name>.webp".
func (m *MemoryBlobStore) PutWebP(ctx context.Context, dir, name string, src io.Reader, opt WebPOptions) (string, string, error) {
	data, err := io.ReadAll(src)
	if err != nil {
		return "", "", fmt.Errorf("read image: %w", err)
	}
	webpData, err := ConvertToWebP(data, name, opt)
	if err != nil {
		return "", "", err
	}
	key := strings.Trim(dir, "/") + "/" + name + ".webp"
	url, err := m.Put(ctx, key, bytes.NewReader(webpData), "image/webp")
	if err != nil {
		return "", "", err
	}
	return url, key, nil
}

func (m *MemoryBlobStore) Delete(_ context.Context, keys []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.objects, k)
	}
	return nil
}

func (m *MemoryBlobStore) Get(key string) (MemoryObject, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.objects[key]
	return o, ok
}

func (m *MemoryBlobStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}
