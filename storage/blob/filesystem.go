package blob

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"github.com/koinonia-app/koinonia/core"
)

// FilesystemStore maps keys to files under a root directory. A `.meta` JSON sidecar
// next to each file holds its content type & etag.
type FilesystemStore struct {
	root string
}

var _ core.BlobStore = (*FilesystemStore)(nil)

type metaFile struct {
	ContentType string    `json:"content_type"`
	ETag        string    `json:"etag"`
	Size        int64     `json:"size"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewFilesystemStore returns a store rooted at `root`, creating it if needed.
func NewFilesystemStore(root string) (*FilesystemStore, error) {
	if root == "" {
		root = "./blobdata"
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, errors.Wrap(err, "creating blob root")
	}
	return &FilesystemStore{root: root}, nil
}

func (s *FilesystemStore) paths(key string) (dataPath, metaPath string, err error) {
	key, err = cleanKey(key)
	if err != nil {
		return "", "", err
	}
	dataPath = filepath.Join(s.root, filepath.FromSlash(key))
	return dataPath, dataPath + ".meta", nil
}

func (s *FilesystemStore) Put(_ context.Context, key string, r io.Reader, _ int64, contentType string) (core.BlobInfo, error) {
	dataPath, metaPath, err := s.paths(key)
	if err != nil {
		return core.BlobInfo{}, err
	}
	if err := os.MkdirAll(filepath.Dir(dataPath), 0o755); err != nil {
		return core.BlobInfo{}, errors.Wrap(err, "creating blob dir")
	}

	// write to a temp file first, then move it into place
	tmp, err := os.CreateTemp(filepath.Dir(dataPath), ".tmp-*")
	if err != nil {
		return core.BlobInfo{}, errors.Wrap(err, "creating temp file")
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	h := sha256.New()
	size, err := io.Copy(io.MultiWriter(tmp, h), r)
	if err != nil {
		_ = tmp.Close()
		return core.BlobInfo{}, errors.Wrap(err, "writing blob")
	}
	if err := tmp.Close(); err != nil {
		return core.BlobInfo{}, errors.Wrap(err, "closing blob")
	}
	if err := os.Rename(tmp.Name(), dataPath); err != nil {
		return core.BlobInfo{}, errors.Wrap(err, "moving blob")
	}

	mf := metaFile{ContentType: contentType, ETag: hex.EncodeToString(h.Sum(nil)), Size: size, UpdatedAt: core.NowFunc().UTC()}
	b, err := json.Marshal(mf)
	if err != nil {
		return core.BlobInfo{}, err
	}
	if err := os.WriteFile(metaPath, b, 0o644); err != nil {
		return core.BlobInfo{}, errors.Wrap(err, "writing blob metadata")
	}
	return mf.info(key), nil
}

func (s *FilesystemStore) Get(_ context.Context, key string) (core.BlobInfo, io.ReadCloser, error) {
	dataPath, metaPath, err := s.paths(key)
	if err != nil {
		return core.BlobInfo{}, nil, err
	}
	f, err := os.Open(dataPath)
	if err != nil {
		if os.IsNotExist(err) {
			return core.BlobInfo{}, nil, core.ErrBlobNotFound
		}
		return core.BlobInfo{}, nil, errors.Wrap(err, "opening blob")
	}

	var mf metaFile
	b, err := os.ReadFile(metaPath)
	if err == nil {
		err = json.Unmarshal(b, &mf)
	}
	if err != nil {
		_ = f.Close()
		return core.BlobInfo{}, nil, errors.Wrap(err, "reading blob metadata")
	}
	return mf.info(key), f, nil
}

func (s *FilesystemStore) Delete(_ context.Context, key string) error {
	dataPath, metaPath, err := s.paths(key)
	if err != nil {
		return err
	}
	if err := os.Remove(dataPath); err != nil {
		if os.IsNotExist(err) {
			return core.ErrBlobNotFound
		}
		return errors.Wrap(err, "deleting blob")
	}
	_ = os.Remove(metaPath)
	return nil
}

func (mf metaFile) info(key string) core.BlobInfo {
	return core.BlobInfo{Key: key, Size: mf.Size, ContentType: mf.ContentType, ETag: mf.ETag, LastModified: mf.UpdatedAt}
}
