// Package tests holds the suite shared by tests that need dictionary files on
// disk and served over the supported sources.
package tests

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"

	"github.com/stretchr/testify/suite"

	"github.com/pitabwire/localize/fetch"
)

// SourceOption is one way of reaching the fixture directory.
type SourceOption struct {
	name string
	base string
}

func (o SourceOption) Name() string {
	return o.name
}

// Base is the base URL dictionaries are resolved against.
func (o SourceOption) Base() string {
	return o.base
}

// BaseTestSuite gives every test a fresh fixture directory, also served over http.
type BaseTestSuite struct {
	suite.Suite
	Dir    string
	server *httptest.Server
}

func (bs *BaseTestSuite) SetupTest() {
	bs.Dir = bs.T().TempDir()
	bs.server = httptest.NewServer(http.FileServer(http.Dir(bs.Dir)))
	bs.T().Cleanup(bs.server.Close)
}

// WriteFiles writes files, keyed by slash separated path, below Dir.
func (bs *BaseTestSuite) WriteFiles(files map[string]string) {
	for name, content := range files {
		p := filepath.Join(bs.Dir, filepath.FromSlash(name))
		bs.Require().NoError(os.MkdirAll(filepath.Dir(p), 0o755))
		bs.Require().NoError(os.WriteFile(p, []byte(content), 0o600))
	}
}

// Path returns the absolute path of a fixture file.
func (bs *BaseTestSuite) Path(name string) string {
	return filepath.Join(bs.Dir, filepath.FromSlash(name))
}

// Sources lists the directory, file URL and http forms of the fixture directory.
func (bs *BaseTestSuite) Sources() []SourceOption {
	fileURL, err := fetch.FileURL(bs.Dir)
	bs.Require().NoError(err)

	return []SourceOption{
		{name: "directory", base: bs.Dir},
		{name: "file", base: fileURL},
		{name: "http", base: bs.server.URL},
	}
}

// WithTestSources runs testFn as a subtest for each source.
func (bs *BaseTestSuite) WithTestSources(testFn func(src SourceOption)) {
	for _, src := range bs.Sources() {
		bs.Run(src.Name(), func() {
			testFn(src)
		})
	}
}
