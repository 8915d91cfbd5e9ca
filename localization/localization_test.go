package localization_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"
	"golang.org/x/text/language"

	"github.com/pitabwire/localize/dictionary"
	"github.com/pitabwire/localize/localization"
)

type LocalizationTestSuite struct {
	suite.Suite
	manager localization.Manager
}

func TestLocalizationSuite(t *testing.T) {
	suite.Run(t, &LocalizationTestSuite{})
}

func (s *LocalizationTestSuite) SetupTest() {
	store := dictionary.NewStore()
	store.Register("App", dictionary.Content{
		"title": "Main",
		"menu":  map[string]any{"file": "File", "count": 3},
		"greet": "Hello {{.Name}}",
	})
	store.Register("common", dictionary.Content{"yes": "Yes"})
	store.Fail("charts", context.DeadlineExceeded)

	s.manager = localization.NewManager(language.English, store)
	s.Require().NoError(s.manager.Refresh(context.Background()))
}

func (s *LocalizationTestSuite) TestTranslations() {
	testCases := []struct {
		name      string
		messageID string
		variables map[string]any
		expected  string
	}{
		{name: "top level key", messageID: localization.MessageID("App", "title"), expected: "Main"},
		{name: "nested key", messageID: "App|menu.file", expected: "File"},
		{name: "number value", messageID: "App|menu.count", expected: "3"},
		{name: "other package", messageID: "common|yes", expected: "Yes"},
		{name: "template data", messageID: "App|greet", variables: map[string]any{"Name": "Air"}, expected: "Hello Air"},
		{name: "unknown id", messageID: "App|missing", expected: "App|missing"},
		{name: "failed package", messageID: "charts|anything", expected: "charts|anything"},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			got := s.manager.TranslateWithMap(context.Background(), tc.messageID, tc.variables)
			s.Equal(tc.expected, got)
		})
	}
}

func (s *LocalizationTestSuite) TestTranslatePlainAndCount() {
	ctx := context.Background()
	s.Equal("Yes", s.manager.Translate(ctx, "common|yes"))
	s.Equal("File", s.manager.TranslateWithMapAndCount(ctx, "App|menu.file", nil, 5))
}

func (s *LocalizationTestSuite) TestBundleLanguage() {
	s.Equal(language.English, s.manager.Language())
	s.Contains(s.manager.Bundle().LanguageTags(), language.English)
}

func (s *LocalizationTestSuite) TestRefreshPicksUpNewPackages() {
	store := dictionary.NewStore()
	manager := localization.NewManager(language.French, store)
	ctx := context.Background()

	s.Equal("grid|title", manager.Translate(ctx, "grid|title"))

	store.Register("grid", dictionary.Content{"title": "Grille"})
	s.Require().NoError(manager.Refresh(ctx))
	s.Equal("Grille", manager.Translate(ctx, "grid|title"))
}

func (s *LocalizationTestSuite) TestLanguageContext() {
	ctx := context.Background()
	s.Nil(localization.FromContext(ctx))

	ctx = localization.ToContext(ctx, []string{"sw", "en"})
	s.Equal([]string{"sw", "en"}, localization.FromContext(ctx))

	s.Equal("Yes", s.manager.Translate(ctx, "common|yes"))
}
