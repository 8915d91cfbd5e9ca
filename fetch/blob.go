package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
	"sync"

	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob" // file:// buckets
	_ "gocloud.dev/blob/memblob"  // mem:// buckets
	"gocloud.dev/gcerrors"
)

// BucketOpener opens the bucket behind a bucket URL.
type BucketOpener func(ctx context.Context, bucketURL string) (*blob.Bucket, error)

// BlobReader reads documents from gocloud blob buckets. Buckets stay open
// until Close.
type BlobReader struct {
	open BucketOpener

	mu      sync.Mutex
	buckets map[string]*blob.Bucket
}

// NewBlobReader creates a BlobReader that opens buckets with blob.OpenBucket.
func NewBlobReader() *BlobReader {
	return NewBlobReaderWithOpener(blob.OpenBucket)
}

// NewBlobReaderWithOpener creates a BlobReader with a custom bucket opener.
func NewBlobReaderWithOpener(open BucketOpener) *BlobReader {
	return &BlobReader{
		open:    open,
		buckets: make(map[string]*blob.Bucket),
	}
}

func (r *BlobReader) Read(ctx context.Context, rawURL string) ([]byte, error) {
	bucketURL, key, err := SplitBlobURL(rawURL)
	if err != nil {
		return nil, err
	}

	bucket, err := r.bucket(ctx, bucketURL)
	if err != nil {
		return nil, err
	}

	data, err := bucket.ReadAll(ctx, key)
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil, fmt.Errorf("%w: %q", ErrNotFound, rawURL)
		}
		return nil, fmt.Errorf("reading %q: %w", rawURL, err)
	}
	return data, nil
}

func (r *BlobReader) bucket(ctx context.Context, bucketURL string) (*blob.Bucket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if b, ok := r.buckets[bucketURL]; ok {
		return b, nil
	}

	b, err := r.open(ctx, bucketURL)
	if err != nil {
		return nil, fmt.Errorf("opening bucket %q: %w", bucketURL, err)
	}
	r.buckets[bucketURL] = b
	return b, nil
}

// Close closes every bucket the reader opened.
func (r *BlobReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for u, b := range r.buckets {
		if err := b.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing bucket %q: %w", u, err))
		}
		delete(r.buckets, u)
	}
	return errors.Join(errs...)
}

// SplitBlobURL separates a document URL into its bucket URL and object key.
// For file URLs the bucket is the containing directory; for other schemes the
// bucket is scheme://host with the query kept and the key is the path.
func SplitBlobURL(rawURL string) (string, string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "", fmt.Errorf("parsing blob url %q: %w", rawURL, err)
	}
	if u.Scheme == "" {
		return "", "", fmt.Errorf("blob url %q has no scheme", rawURL)
	}

	if u.Scheme == "file" {
		bucket := &url.URL{Scheme: u.Scheme, Path: path.Dir(u.Path), RawQuery: u.RawQuery}
		return bucket.String(), path.Base(u.Path), nil
	}

	key := strings.TrimPrefix(u.Path, "/")
	if key == "" {
		return "", "", fmt.Errorf("blob url %q has no object key", rawURL)
	}
	bucket := &url.URL{Scheme: u.Scheme, Host: u.Host, RawQuery: u.RawQuery}
	return bucket.String(), key, nil
}
