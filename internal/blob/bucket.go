// Package blob provides the two flat image namespaces: "uploads" for
// direct cover images and "images" for deduplicated editor images.
package blob

import (
	"context"
	"io"
	"strings"
)

const (
	BucketUploads = "uploads"
	BucketImages  = "images"
)

// FileInfo describes one stored file.
type FileInfo struct {
	Bucket string
	Name   string
	Size   int64
}

// Path returns the bucket-relative storage path, e.g. "images/a.png".
func (f FileInfo) Path() string {
	return f.Bucket + "/" + f.Name
}

// Bucket is one flat namespace of image files addressable by name.
type Bucket interface {
	// Name returns the namespace name.
	Name() string
	// Put stores a file under the given name, overwriting any existing file.
	Put(ctx context.Context, name string, r io.Reader) error
	// Open opens a stored file for reading.
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	// Delete removes a stored file. Deleting a missing file is not an error.
	Delete(ctx context.Context, name string) error
	// Exists reports whether a file is present.
	Exists(ctx context.Context, name string) (bool, error)
	// List returns all files in the namespace.
	List(ctx context.Context) ([]FileInfo, error)
}

// Store is the pair of namespaces the application writes images to.
type Store struct {
	Uploads Bucket
	Images  Bucket
}

// Resolve splits a normalized storage path into its bucket and file name.
// Paths with an images/ prefix belong to the editor-image namespace,
// everything else to uploads.
func (s *Store) Resolve(path string) (Bucket, string) {
	if name, ok := strings.CutPrefix(path, BucketImages+"/"); ok {
		return s.Images, name
	}
	if name, ok := strings.CutPrefix(path, BucketUploads+"/"); ok {
		return s.Uploads, name
	}

	return s.Uploads, path
}

// List returns the files of both namespaces.
func (s *Store) List(ctx context.Context) ([]FileInfo, error) {
	uploads, err := s.Uploads.List(ctx)
	if err != nil {
		return nil, err
	}

	images, err := s.Images.List(ctx)
	if err != nil {
		return nil, err
	}

	return append(uploads, images...), nil
}

// URL maps a storage path to the public serving URL.
func URL(path string) string {
	return "/storage/" + path
}
