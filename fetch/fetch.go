// Package fetch reads dictionary documents from where the manifest says they
// live: http(s) URLs, local files or any gocloud blob bucket.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"

	"github.com/pitabwire/util"

	"github.com/pitabwire/localize/dictionary"
)

// ErrNotFound is returned when a document does not exist at its source.
var ErrNotFound = errors.New("dictionary document not found")

// Reader returns the raw bytes stored at a URL.
type Reader interface {
	Read(ctx context.Context, rawURL string) ([]byte, error)
}

// ReaderFunc adapts a function to a Reader.
type ReaderFunc func(ctx context.Context, rawURL string) ([]byte, error)

func (f ReaderFunc) Read(ctx context.Context, rawURL string) ([]byte, error) {
	return f(ctx, rawURL)
}

// Fetcher returns the decoded dictionary stored at a URL.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (dictionary.Content, error)
}

// FetcherFunc adapts a function to a Fetcher.
type FetcherFunc func(ctx context.Context, rawURL string) (dictionary.Content, error)

func (f FetcherFunc) Fetch(ctx context.Context, rawURL string) (dictionary.Content, error) {
	return f(ctx, rawURL)
}

type decodingFetcher struct {
	reader Reader
}

// NewFetcher decodes what reader returns, picking json, yaml or toml from the
// extension of the URL path. Documents ending in .gz or .zst are
// decompressed first.
func NewFetcher(reader Reader) Fetcher {
	return &decodingFetcher{reader: reader}
}

func (f *decodingFetcher) Fetch(ctx context.Context, rawURL string) (dictionary.Content, error) {
	data, err := f.reader.Read(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	docPath, compression := SplitCompression(rawURL)
	if data, err = Decompress(compression, data); err != nil {
		return nil, fmt.Errorf("decompressing %q: %w", rawURL, err)
	}

	content, err := dictionary.Decode(dictionary.FormatFromPath(docPath), data)
	if err != nil {
		return nil, fmt.Errorf("decoding %q: %w", rawURL, err)
	}

	util.Log(ctx).WithField("url", rawURL).WithField("keys", len(content)).Debug("dictionary document decoded")
	return content, nil
}

// Mux sends http and https URLs to HTTP and everything else to Blob. Bare
// paths are read as local files.
type Mux struct {
	HTTP Reader
	Blob Reader
}

// NewMux creates a Mux over the default HTTP and blob readers.
func NewMux() *Mux {
	return &Mux{
		HTTP: NewHTTPReader(nil),
		Blob: NewBlobReader(),
	}
}

func (m *Mux) Read(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing dictionary url %q: %w", rawURL, err)
	}

	switch u.Scheme {
	case "http", "https":
		return m.HTTP.Read(ctx, rawURL)
	case "":
		fileURL, fileErr := FileURL(rawURL)
		if fileErr != nil {
			return nil, fileErr
		}
		return m.Blob.Read(ctx, fileURL)
	default:
		return m.Blob.Read(ctx, rawURL)
	}
}

// FileURL turns a local path into a file:// URL.
func FileURL(localPath string) (string, error) {
	abs, err := filepath.Abs(localPath)
	if err != nil {
		return "", fmt.Errorf("resolving %q: %w", localPath, err)
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String(), nil
}
