package dictionary_test

import (
	"github.com/pitabwire/localize/dictionary"
)

func (s *DictionarySuite) TestFormatFromPath() {
	testCases := map[string]dictionary.Format{
		"resources/locale-en.json":            dictionary.FormatJSON,
		"resources/locale-en.yaml":            dictionary.FormatYAML,
		"resources/locale-en.YML":             dictionary.FormatYAML,
		"resources/locale-en.toml":            dictionary.FormatTOML,
		"http://x/locale-en.toml?v=2":         dictionary.FormatTOML,
		"http://x/locale-en.yaml#fragment":    dictionary.FormatYAML,
		"resources/locale-en":                 dictionary.FormatJSON,
		"s3://bucket/resources/locale-en.txt": dictionary.FormatJSON,
	}

	for p, want := range testCases {
		s.Run(p, func() {
			s.Equal(want, dictionary.FormatFromPath(p))
		})
	}
}

func (s *DictionarySuite) TestDecodeFormats() {
	testCases := []struct {
		name   string
		format dictionary.Format
		doc    string
	}{
		{
			name:   "json",
			format: dictionary.FormatJSON,
			doc:    `{"title": "Title", "nav": {"users": "Users"}, "count": 2}`,
		},
		{
			name:   "yaml",
			format: dictionary.FormatYAML,
			doc:    "title: Title\nnav:\n  users: Users\ncount: 2\n",
		},
		{
			name:   "toml",
			format: dictionary.FormatTOML,
			doc:    "title = \"Title\"\ncount = 2\n\n[nav]\nusers = \"Users\"\n",
		},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			content, err := dictionary.Decode(tc.format, []byte(tc.doc))
			s.Require().NoError(err)

			got, ok := dictionary.Lookup(content, "title")
			s.True(ok)
			s.Equal("Title", got)

			got, ok = dictionary.Lookup(content, "nav.users")
			s.True(ok)
			s.Equal("Users", got)

			got, ok = dictionary.Lookup(content, "count")
			s.True(ok)
			s.Equal("2", got)
		})
	}
}

func (s *DictionarySuite) TestDecodeYAMLNonStringKeys() {
	content, err := dictionary.Decode(dictionary.FormatYAML, []byte("codes:\n  404: Not found\n  true: Yes\n"))
	s.Require().NoError(err)

	got, ok := dictionary.Lookup(content, "codes.404")
	s.True(ok)
	s.Equal("Not found", got)
}

func (s *DictionarySuite) TestDecodeErrors() {
	_, err := dictionary.Decode(dictionary.FormatJSON, []byte("   "))
	s.ErrorIs(err, dictionary.ErrEmptyDocument)

	_, err = dictionary.Decode(dictionary.FormatJSON, []byte(`["not", "a", "mapping"]`))
	s.Error(err)

	_, err = dictionary.Decode(dictionary.FormatYAML, []byte("key: [unterminated"))
	s.Error(err)

	_, err = dictionary.Decode(dictionary.FormatTOML, []byte("= broken"))
	s.Error(err)

	_, err = dictionary.Decode(dictionary.Format("xml"), []byte("<a/>"))
	s.ErrorIs(err, dictionary.ErrUnsupportedFormat)
}
