package blob

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

var _ Bucket = (*FSBucket)(nil)

// FSBucket stores files in a flat directory under the storage root.
type FSBucket struct {
	name string
	dir  string
}

func NewFSBucket(root, name string) (*FSBucket, error) {
	dir := filepath.Join(root, name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create bucket directory: %w", err)
	}

	return &FSBucket{name: name, dir: dir}, nil
}

// NewFSStore creates both namespaces under root.
func NewFSStore(root string) (*Store, error) {
	uploads, err := NewFSBucket(root, BucketUploads)
	if err != nil {
		return nil, err
	}

	images, err := NewFSBucket(root, BucketImages)
	if err != nil {
		return nil, err
	}

	return &Store{Uploads: uploads, Images: images}, nil
}

func (b *FSBucket) Name() string {
	return b.name
}

func (b *FSBucket) Put(ctx context.Context, name string, r io.Reader) error {
	f, err := os.Create(filepath.Join(b.dir, filepath.Base(name)))
	if err != nil {
		return err
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}

func (b *FSBucket) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	return os.Open(filepath.Join(b.dir, filepath.Base(name)))
}

func (b *FSBucket) Delete(ctx context.Context, name string) error {
	err := os.Remove(filepath.Join(b.dir, filepath.Base(name)))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func (b *FSBucket) Exists(ctx context.Context, name string) (bool, error) {
	_, err := os.Stat(filepath.Join(b.dir, filepath.Base(name)))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return true, nil
}

func (b *FSBucket) List(ctx context.Context) ([]FileInfo, error) {
	entries, err := os.ReadDir(b.dir)
	if err != nil {
		return nil, err
	}

	var files []FileInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			return nil, err
		}

		files = append(files, FileInfo{Bucket: b.name, Name: entry.Name(), Size: info.Size()})
	}

	return files, nil
}
