// Package upload accepts image uploads into the two storage namespaces:
// direct uploads keep their (slugified) names, editor uploads are
// content-addressed and deduplicated through the hash index.
package upload

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"

	"github.com/gabriel-vasile/mimetype"
	"github.com/sirupsen/logrus"

	"github.com/emrgen/contentstore/internal/blob"
	"github.com/emrgen/contentstore/internal/hashindex"
)

var (
	// ErrFileTooLarge is returned when an upload exceeds the size limit.
	ErrFileTooLarge = errors.New("file exceeds the maximum upload size")
	// ErrUnsupportedType is returned when the sniffed content type is not allow-listed.
	ErrUnsupportedType = errors.New("unsupported image type")
)

// Result reports where an upload ended up.
type Result struct {
	Path   string `json:"path"`
	URL    string `json:"url"`
	Size   int64  `json:"size"`
	Reused bool   `json:"reused"`
}

// Options bound what an upload may contain.
type Options struct {
	MaxSize      int64
	AllowedTypes []string
}

func DefaultOptions() Options {
	return Options{
		MaxSize:      2 << 20,
		AllowedTypes: []string{"jpeg", "jpg", "png", "gif", "webp"},
	}
}

type Service struct {
	blobs *blob.Store
	index hashindex.Index
	opts  Options
}

func NewService(blobs *blob.Store, index hashindex.Index, opts Options) *Service {
	if opts.MaxSize <= 0 {
		opts.MaxSize = DefaultOptions().MaxSize
	}
	if len(opts.AllowedTypes) == 0 {
		opts.AllowedTypes = DefaultOptions().AllowedTypes
	}

	return &Service{blobs: blobs, index: index, opts: opts}
}

var mimeByType = map[string]string{
	"jpeg": "image/jpeg",
	"jpg":  "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"webp": "image/webp",
}

// readValidated reads the upload, enforcing the size limit and the type
// allow-list before any hashing or storage work. The content type is
// sniffed from the bytes, the client-declared type is not trusted.
func (s *Service) readValidated(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.opts.MaxSize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > s.opts.MaxSize {
		return nil, ErrFileTooLarge
	}

	mtype := mimetype.Detect(data)
	for _, t := range s.opts.AllowedTypes {
		if mime, ok := mimeByType[t]; ok && mtype.Is(mime) {
			return data, nil
		}
	}

	return nil, ErrUnsupportedType
}

// Direct stores a cover-image upload under the uploads namespace with no
// deduplication. Name collisions get the first free numeric suffix.
func (s *Service) Direct(ctx context.Context, filename string, r io.Reader) (*Result, error) {
	data, err := s.readValidated(r)
	if err != nil {
		return nil, err
	}

	name, err := blob.UniqueName(ctx, s.blobs.Uploads, filename)
	if err != nil {
		return nil, err
	}

	if err := s.blobs.Uploads.Put(ctx, name, bytes.NewReader(data)); err != nil {
		return nil, err
	}

	path := blob.BucketUploads + "/" + name
	return &Result{Path: path, URL: blob.URL(path), Size: int64(len(data))}, nil
}

// Editor stores an in-document image upload under the images namespace,
// deduplicated by content hash: byte-identical uploads resolve to one
// stored file as long as the index is consistent.
func (s *Service) Editor(ctx context.Context, filename string, r io.Reader) (*Result, error) {
	data, err := s.readValidated(r)
	if err != nil {
		return nil, err
	}

	sum := sha256.Sum256(data)
	hash := hex.EncodeToString(sum[:])

	existing, found, err := s.index.Get(ctx, hash)
	if err != nil {
		// a broken index lookup degrades to a fresh upload
		logrus.Errorf("hash index lookup failed: %v", err)
		found = false
	}
	if found {
		bucket, name := s.blobs.Resolve(existing)
		ok, err := bucket.Exists(ctx, name)
		if err != nil {
			return nil, err
		}
		if ok {
			return &Result{Path: existing, URL: blob.URL(existing), Size: int64(len(data)), Reused: true}, nil
		}

		// the indexed file is gone, prune the stale entry and re-upload
		if err := s.index.Delete(ctx, hash); err != nil {
			logrus.Errorf("failed to prune stale hash index entry %s: %v", hash, err)
		}
	}

	name := blob.TimestampName(filename)
	if err := s.blobs.Images.Put(ctx, name, bytes.NewReader(data)); err != nil {
		return nil, err
	}

	path := blob.BucketImages + "/" + name
	if err := s.index.Put(ctx, hash, path); err != nil {
		// the file write wins, the worst case is a duplicate file that the
		// sweep reclaims later
		logrus.Errorf("failed to index uploaded image %s: %v", path, err)
	}

	return &Result{Path: path, URL: blob.URL(path), Size: int64(len(data))}, nil
}
