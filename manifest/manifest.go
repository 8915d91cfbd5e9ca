// Package manifest reads the application manifest that lists the packages of an
// application and its localization settings.
package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/pitabwire/localize/dictionary"
)

var (
	// ErrMissingLocalizeConfig is returned when the manifest has no localize section.
	ErrMissingLocalizeConfig = errors.New("manifest is missing localize config")
	ErrMissingName           = errors.New("manifest is missing the application name")
	ErrMissingURLTemplate    = errors.New("manifest localize config is missing urlTpl")
)

const (
	// LanguagePlaceholder is replaced by the language in the URL template.
	LanguagePlaceholder = "{0}"
	ResourcesDir        = "resources"
)

// Package describes one package the application is built with.
type Package struct {
	Namespace string `json:"namespace" yaml:"namespace" toml:"namespace"`
	Localize  bool   `json:"localize"  yaml:"localize"  toml:"localize"`
}

// Localize carries the localization settings of the application.
type Localize struct {
	Language    string `json:"language"    yaml:"language"    toml:"language"`
	URLTemplate string `json:"urlTpl"      yaml:"urlTpl"      toml:"urlTpl"`
	UsePackages bool   `json:"usePackages" yaml:"usePackages" toml:"usePackages"`
	Debug       bool   `json:"debug"       yaml:"debug"       toml:"debug"`
}

// Manifest is the application manifest.
type Manifest struct {
	Name     string             `json:"name"     yaml:"name"     toml:"name"`
	Packages map[string]Package `json:"packages" yaml:"packages" toml:"packages"`
	Localize *Localize          `json:"localize" yaml:"localize" toml:"localize"`
}

// Source is where the dictionary of one package is fetched from.
type Source struct {
	Package string
	URL     string
}

// Load reads a manifest file, picking the decoder from its extension.
func Load(filePath string) (*Manifest, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("reading manifest %q: %w", filePath, err)
	}

	m, err := Parse(dictionary.FormatFromPath(filePath), data)
	if err != nil {
		return nil, fmt.Errorf("manifest %q: %w", filePath, err)
	}
	return m, nil
}

// Parse decodes a manifest document.
func Parse(format dictionary.Format, data []byte) (*Manifest, error) {
	var m Manifest

	var err error
	switch format {
	case dictionary.FormatYAML:
		err = yaml.Unmarshal(data, &m)
	case dictionary.FormatTOML:
		err = toml.Unmarshal(data, &m)
	case dictionary.FormatJSON, "":
		err = json.Unmarshal(data, &m)
	default:
		return nil, fmt.Errorf("%w: %q", dictionary.ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, fmt.Errorf("decoding manifest: %w", err)
	}

	return &m, nil
}

// Validate checks the manifest can drive localization.
func (m *Manifest) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return ErrMissingName
	}
	if m.Localize == nil {
		return ErrMissingLocalizeConfig
	}
	if strings.TrimSpace(m.Localize.URLTemplate) == "" {
		return ErrMissingURLTemplate
	}
	return nil
}

// Language returns the configured language exactly as written. It names
// dictionary documents and is never rewritten.
func (m *Manifest) Language() string {
	if m.Localize == nil {
		return ""
	}
	return m.Localize.Language
}

// Tag returns the configured language as a BCP 47 tag for the translation
// bundle. Underscores are read as hyphens; a language that does not parse,
// or a missing localize section, gives language.Und.
func (m *Manifest) Tag() language.Tag {
	if m.Localize == nil {
		return language.Und
	}

	tag, err := language.Parse(strings.ReplaceAll(strings.TrimSpace(m.Localize.Language), "_", "-"))
	if err != nil {
		return language.Und
	}
	return tag
}

// LocalizedPackages lists the names of packages that carry their own dictionary,
// sorted. It is empty unless usePackages is on.
func (m *Manifest) LocalizedPackages() []string {
	if m.Localize == nil || !m.Localize.UsePackages {
		return nil
	}

	var names []string
	for name, pkg := range m.Packages {
		if pkg.Localize {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// PackageIDs lists every package whose dictionary is loaded at startup:
// the application first, then the localized packages.
func (m *Manifest) PackageIDs() []string {
	return append([]string{m.Name}, m.LocalizedPackages()...)
}

// NamespaceTable returns the namespace prefix to package mapping. The
// application name maps to itself; localized packages map their namespace,
// or their name when no namespace is declared.
func (m *Manifest) NamespaceTable() map[string]string {
	table := map[string]string{m.Name: m.Name}
	for _, name := range m.LocalizedPackages() {
		table[m.namespaceOf(name)] = name
	}
	return table
}

func (m *Manifest) namespaceOf(name string) string {
	if ns := strings.TrimSpace(m.Packages[name].Namespace); ns != "" {
		return ns
	}
	return name
}

// DictionaryPath returns the resource path of the dictionary of a package:
// resources/<doc> for the application, resources/<lower(pkg)>/<doc> for packages.
// Every placeholder in the template is replaced by the configured language.
func (m *Manifest) DictionaryPath(packageID string) string {
	doc := ""
	if m.Localize != nil {
		doc = strings.ReplaceAll(m.Localize.URLTemplate, LanguagePlaceholder, m.Language())
	}

	if packageID == m.Name {
		return path.Join(ResourcesDir, doc)
	}
	return path.Join(ResourcesDir, strings.ToLower(packageID), doc)
}

// Sources returns where each startup dictionary is fetched from, relative to baseURL.
func (m *Manifest) Sources(baseURL string) ([]Source, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}

	ids := m.PackageIDs()
	sources := make([]Source, 0, len(ids))
	for _, id := range ids {
		u, err := m.SourceURL(baseURL, id)
		if err != nil {
			return nil, err
		}
		sources = append(sources, Source{Package: id, URL: u})
	}
	return sources, nil
}

// SourceURL resolves the dictionary URL of one package against baseURL.
// An empty base leaves the resource path relative.
func (m *Manifest) SourceURL(baseURL, packageID string) (string, error) {
	rel := m.DictionaryPath(packageID)
	if baseURL == "" {
		return rel, nil
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parsing base url %q: %w", baseURL, err)
	}
	return base.JoinPath(rel).String(), nil
}

// Knows reports whether name is a localized package of the manifest, whether
// or not usePackages loads it at startup.
func (m *Manifest) Knows(name string) bool {
	pkg, ok := m.Packages[name]
	return ok && pkg.Localize
}

// Namespace returns the namespace prefix of a package.
func (m *Manifest) Namespace(name string) string {
	return m.namespaceOf(name)
}
