// Package localization exposes the loaded dictionaries as a go-i18n bundle so
// they can be used for server side message translation as well.
package localization

import (
	"context"
	"errors"
	"slices"
	"sort"
	"sync"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/pitabwire/util"
	"golang.org/x/text/language"

	"github.com/pitabwire/localize/dictionary"
	"github.com/pitabwire/localize/marker"
)

type contextKey string

func (c contextKey) String() string {
	return "localize/localization/" + string(c)
}

const ctxKeyLanguage = contextKey("languageKey")

// ToContext adds preferred languages to the supplied context.
func ToContext(ctx context.Context, lang []string) context.Context {
	return context.WithValue(ctx, ctxKeyLanguage, lang)
}

// FromContext extracts preferred languages from the supplied context if any exist.
func FromContext(ctx context.Context) []string {
	languages, ok := ctx.Value(ctxKeyLanguage).([]string)
	if !ok {
		return nil
	}

	return languages
}

// MessageID is the bundle message id of a dictionary key: pkg|dotted.key.
func MessageID(packageID, key string) string {
	return packageID + marker.PackageSeparator + key
}

type Manager interface {
	Bundle() *i18n.Bundle
	Language() language.Tag
	// Refresh rebuilds the bundle from what the store currently holds.
	Refresh(ctx context.Context) error
	Translate(ctx context.Context, messageID string) string
	TranslateWithMap(ctx context.Context, messageID string, variables map[string]any) string
	TranslateWithMapAndCount(ctx context.Context, messageID string, variables map[string]any, count int) string
}

type managerImpl struct {
	tag   language.Tag
	store *dictionary.Store

	mu     sync.RWMutex
	bundle *i18n.Bundle
}

// NewManager creates a Manager over the dictionaries of store, all of which are
// in the tag language.
func NewManager(tag language.Tag, store *dictionary.Store) Manager {
	return &managerImpl{
		tag:    tag,
		store:  store,
		bundle: i18n.NewBundle(tag),
	}
}

func (s *managerImpl) Language() language.Tag {
	return s.tag
}

// Bundle Access the translation bundle built from the store.
func (s *managerImpl) Bundle() *i18n.Bundle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bundle
}

func (s *managerImpl) Refresh(ctx context.Context) error {
	bundle := i18n.NewBundle(s.tag)

	var errs []error
	count := 0
	for _, pkg := range s.store.Loaded() {
		messages := bundleMessages(pkg, s.store.Content(pkg))
		if err := bundle.AddMessages(s.tag, messages...); err != nil {
			errs = append(errs, err)
			continue
		}
		count += len(messages)
	}

	s.mu.Lock()
	s.bundle = bundle
	s.mu.Unlock()

	util.Log(ctx).
		WithField("language", s.tag.String()).
		WithField("messages", count).
		Debug("translation bundle rebuilt")

	return errors.Join(errs...)
}

func bundleMessages(packageID string, content dictionary.Content) []*i18n.Message {
	flat := dictionary.Flatten(content)

	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	messages := make([]*i18n.Message, 0, len(keys))
	for _, k := range keys {
		messages = append(messages, &i18n.Message{ID: MessageID(packageID, k), Other: flat[k]})
	}
	return messages
}

// Translate performs a quick translation based on the supplied message id.
func (s *managerImpl) Translate(ctx context.Context, messageID string) string {
	return s.TranslateWithMap(ctx, messageID, map[string]any{})
}

// TranslateWithMap performs a translation with variables based on the supplied message id.
func (s *managerImpl) TranslateWithMap(ctx context.Context, messageID string, variables map[string]any) string {
	return s.TranslateWithMapAndCount(ctx, messageID, variables, 1)
}

// TranslateWithMapAndCount performs a translation with variables based on the
// supplied message id and can pluralize. Unknown ids come back unchanged.
func (s *managerImpl) TranslateWithMapAndCount(
	ctx context.Context,
	messageID string,
	variables map[string]any,
	count int,
) string {
	languages := append(slices.Clone(FromContext(ctx)), s.tag.String())
	localizer := i18n.NewLocalizer(s.Bundle(), languages...)

	translated, err := localizer.Localize(&i18n.LocalizeConfig{
		MessageID:      messageID,
		DefaultMessage: &i18n.Message{ID: messageID, Other: messageID},
		TemplateData:   variables,
		PluralCount:    count,
	})
	if err != nil {
		util.Log(ctx).WithError(err).WithField("messageID", messageID).Debug("could not perform translation")
	}
	if translated == "" {
		return messageID
	}
	return translated
}
