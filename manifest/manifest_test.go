package manifest_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"
	"golang.org/x/text/language"

	"github.com/pitabwire/localize/dictionary"
	"github.com/pitabwire/localize/manifest"
)

const yamlManifest = `
name: Sample
packages:
  common:
    namespace: Common
    localize: true
  charts:
    namespace: Sample.charts
    localize: true
  theme:
    namespace: Theme
    localize: false
  bare:
    localize: true
localize:
  language: en-us
  urlTpl: locale-{0}.json
  usePackages: true
  debug: true
`

const tomlManifest = `
name = "Sample"

[packages.common]
namespace = "Common"
localize = true

[localize]
language = "fr"
urlTpl = "locale-{0}.toml"
usePackages = false
`

const jsonManifest = `{
  "name": "Sample",
  "packages": {"common": {"namespace": "Common", "localize": true}},
  "localize": {"language": "de", "urlTpl": "i18n/{0}.yaml", "usePackages": true}
}`

type ManifestSuite struct {
	suite.Suite
}

func TestManifestSuite(t *testing.T) {
	suite.Run(t, new(ManifestSuite))
}

func (s *ManifestSuite) parse(format dictionary.Format, doc string) *manifest.Manifest {
	m, err := manifest.Parse(format, []byte(doc))
	s.Require().NoError(err)
	return m
}

func (s *ManifestSuite) TestParseFormats() {
	testCases := []struct {
		name     string
		format   dictionary.Format
		doc      string
		language string
		packages []string
	}{
		{name: "yaml", format: dictionary.FormatYAML, doc: yamlManifest, language: "en-us",
			packages: []string{"Sample", "bare", "charts", "common"}},
		{name: "toml", format: dictionary.FormatTOML, doc: tomlManifest, language: "fr",
			packages: []string{"Sample"}},
		{name: "json", format: dictionary.FormatJSON, doc: jsonManifest, language: "de",
			packages: []string{"Sample", "common"}},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			m := s.parse(tc.format, tc.doc)
			s.Require().NoError(m.Validate())
			s.Equal("Sample", m.Name)
			s.Equal(tc.language, m.Language())
			s.NotEqual(language.Und.String(), m.Tag().String())
			s.Equal(tc.packages, m.PackageIDs())
		})
	}
}

func (s *ManifestSuite) TestNamespaceTable() {
	m := s.parse(dictionary.FormatYAML, yamlManifest)

	s.Equal(map[string]string{
		"Sample":        "Sample",
		"Common":        "common",
		"Sample.charts": "charts",
		"bare":          "bare",
	}, m.NamespaceTable())

	s.True(m.Knows("common"))
	s.False(m.Knows("theme"))
	s.False(m.Knows("unknown"))
	s.Equal("Theme", m.Namespace("theme"))
	s.Equal("bare", m.Namespace("bare"))
}

func (s *ManifestSuite) TestNamespaceTableWithoutPackages() {
	m := s.parse(dictionary.FormatTOML, tomlManifest)

	s.Equal(map[string]string{"Sample": "Sample"}, m.NamespaceTable())
	s.Empty(m.LocalizedPackages())
	s.True(m.Knows("common"), "on-demand packages remain known")
}

func (s *ManifestSuite) TestSources() {
	m := s.parse(dictionary.FormatYAML, yamlManifest)

	sources, err := m.Sources("http://cdn.local/app/")
	s.Require().NoError(err)
	s.Equal([]manifest.Source{
		{Package: "Sample", URL: "http://cdn.local/app/resources/locale-en-us.json"},
		{Package: "bare", URL: "http://cdn.local/app/resources/bare/locale-en-us.json"},
		{Package: "charts", URL: "http://cdn.local/app/resources/charts/locale-en-us.json"},
		{Package: "common", URL: "http://cdn.local/app/resources/common/locale-en-us.json"},
	}, sources)

	rel, err := m.Sources("")
	s.Require().NoError(err)
	s.Equal("resources/locale-en-us.json", rel[0].URL)

	fileURL, err := m.SourceURL("file:///srv/app", "Common")
	s.Require().NoError(err)
	s.Equal("file:///srv/app/resources/common/locale-en-us.json", fileURL)

	_, err = m.SourceURL("://bad", "Sample")
	s.Error(err)
}

func (s *ManifestSuite) TestValidate() {
	testCases := []struct {
		name string
		m    manifest.Manifest
		err  error
	}{
		{name: "missing name", m: manifest.Manifest{Localize: &manifest.Localize{Language: "en", URLTemplate: "x"}},
			err: manifest.ErrMissingName},
		{name: "missing localize", m: manifest.Manifest{Name: "App"}, err: manifest.ErrMissingLocalizeConfig},
		{name: "missing template", m: manifest.Manifest{Name: "App", Localize: &manifest.Localize{Language: "en"}},
			err: manifest.ErrMissingURLTemplate},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			s.ErrorIs(tc.m.Validate(), tc.err)

			_, err := tc.m.Sources("")
			s.ErrorIs(err, tc.err)
		})
	}

	s.Equal("", (&manifest.Manifest{Name: "App"}).Language())
	s.Equal(language.Und.String(), (&manifest.Manifest{Name: "App"}).Tag().String())
}

func (s *ManifestSuite) TestLanguageKeptAsConfigured() {
	testCases := []struct {
		name     string
		language string
		template string
		path     string
		tag      language.Tag
	}{
		{name: "underscore region", language: "en_US", template: "locale/{0}.json",
			path: "resources/locale/en_US.json", tag: language.AmericanEnglish},
		{name: "lower case region", language: "pt_br", template: "locale-{0}.json",
			path: "resources/locale-pt_br.json", tag: language.BrazilianPortuguese},
		{name: "every placeholder", language: "en_US", template: "{0}/strings-{0}.yaml",
			path: "resources/en_US/strings-en_US.yaml", tag: language.AmericanEnglish},
		{name: "not a tag", language: "default", template: "locale-{0}.json",
			path: "resources/locale-default.json", tag: language.Und},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			m := manifest.Manifest{
				Name:     "App",
				Localize: &manifest.Localize{Language: tc.language, URLTemplate: tc.template},
			}
			s.Require().NoError(m.Validate())
			s.Equal(tc.language, m.Language())
			s.Equal(tc.path, m.DictionaryPath("App"))
			s.Equal(tc.tag.String(), m.Tag().String())
		})
	}
}

func (s *ManifestSuite) TestLoadFile() {
	dir := s.T().TempDir()
	p := filepath.Join(dir, "app.yaml")
	s.Require().NoError(os.WriteFile(p, []byte(yamlManifest), 0o600))

	m, err := manifest.Load(p)
	s.Require().NoError(err)
	s.Equal("Sample", m.Name)
	s.True(m.Localize.Debug)

	_, err = manifest.Load(filepath.Join(dir, "missing.yaml"))
	s.Error(err)

	broken := filepath.Join(dir, "broken.json")
	s.Require().NoError(os.WriteFile(broken, []byte("{"), 0o600))
	_, err = manifest.Load(broken)
	s.Error(err)
}
