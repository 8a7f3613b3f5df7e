package blob

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/koinonia-app/koinonia/core"
)

type memoryEntry struct {
	info core.BlobInfo
	data []byte
}

// MemoryStore keeps blobs in process memory. Used in tests & throwaway setups.
type MemoryStore struct {
	mu   sync.RWMutex
	objs map[string]memoryEntry
}

var _ core.BlobStore = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objs: make(map[string]memoryEntry)}
}

func (s *MemoryStore) Put(_ context.Context, key string, r io.Reader, _ int64, contentType string) (core.BlobInfo, error) {
	key, err := cleanKey(key)
	if err != nil {
		return core.BlobInfo{}, err
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return core.BlobInfo{}, err
	}
	sum := md5.Sum(b)
	info := core.BlobInfo{
		Key:          key,
		Size:         int64(len(b)),
		ContentType:  contentType,
		ETag:         hex.EncodeToString(sum[:]),
		LastModified: core.NowFunc().UTC(),
	}

	s.mu.Lock()
	s.objs[key] = memoryEntry{info: info, data: b}
	s.mu.Unlock()
	return info, nil
}

func (s *MemoryStore) Get(_ context.Context, key string) (core.BlobInfo, io.ReadCloser, error) {
	s.mu.RLock()
	obj, ok := s.objs[key]
	s.mu.RUnlock()
	if !ok {
		return core.BlobInfo{}, nil, core.ErrBlobNotFound
	}
	data := make([]byte, len(obj.data))
	copy(data, obj.data)
	return obj.info, io.NopCloser(bytes.NewReader(data)), nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objs[key]; !ok {
		return core.ErrBlobNotFound
	}
	delete(s.objs, key)
	return nil
}

// Keys lists the stored keys starting with `prefix`, sorted.
func (s *MemoryStore) Keys(prefix string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.objs))
	for k := range s.objs {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}
