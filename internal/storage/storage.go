// Package storage implements durable byte storage for file content under a
// configurable root directory.
package storage

import (
	"io"
	"os"
	"path/filepath"
)

// ContentStore is path-addressed read/write of opaque blobs. Keys are
// generated unique tokens, so writers never collide and content is
// write-once.
type ContentStore interface {
	Write(key string, data []byte) error
	Read(key string) (io.ReadCloser, error)
	Exists(key string) (bool, error)
}

// FilesystemStorage stores blobs as flat files on local disk.
type FilesystemStorage struct {
	root string
}

func NewFilesystemStorage(root string) *FilesystemStorage {
	return &FilesystemStorage{root: root}
}

// Write persists data under key. The root directory is created lazily and
// idempotently on first write.
func (fs *FilesystemStorage) Write(key string, data []byte) error {
	if err := os.MkdirAll(fs.root, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(fs.root, key), data, 0o644)
}

func (fs *FilesystemStorage) Read(key string) (io.ReadCloser, error) {
	return os.Open(filepath.Join(fs.root, key))
}

func (fs *FilesystemStorage) Exists(key string) (bool, error) {
	_, err := os.Stat(filepath.Join(fs.root, key))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
