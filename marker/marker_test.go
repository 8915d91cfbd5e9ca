package marker_test

import (
	"context"
	"strings"

	"github.com/pitabwire/localize/marker"
)

func (s *WalkerSuite) TestParseString() {
	testCases := []struct {
		name     string
		sentinel string
		value    string
		want     marker.Reference
		ok       bool
	}{
		{name: "plain key", sentinel: "~", value: "~firstName", want: marker.Reference{Key: "firstName"}, ok: true},
		{name: "dotted key", sentinel: "~", value: "~a.b.c", want: marker.Reference{Key: "a.b.c"}, ok: true},
		{name: "foreign", sentinel: "~", value: "~common|yes", want: marker.Reference{Package: "common", Key: "yes"}, ok: true},
		{name: "empty foreign", sentinel: "~", value: "~|yes", want: marker.Reference{Key: "yes"}, ok: true},
		{name: "multi char sentinel", sentinel: "@@", value: "@@key", want: marker.Reference{Key: "key"}, ok: true},
		{name: "not a marker", sentinel: "~", value: "key"},
		{name: "empty sentinel never matches", sentinel: "", value: "key"},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			got, ok := marker.ParseString(tc.sentinel, tc.value)
			s.Equal(tc.ok, ok)
			s.Equal(tc.want, got)
		})
	}
}

func (s *WalkerSuite) TestParseStructured() {
	ref, ok := marker.ParseStructured(map[string]any{"$key": "k", "tpl": "{0}!", "pkg": "p"})
	s.True(ok)
	s.Equal(marker.Reference{Key: "k", Template: "{0}!", Package: "p"}, ref)
	s.True(ref.Foreign())
	s.Equal("p", ref.PackageOr("current"))
	s.Equal("v!", ref.Apply("v"))

	ref, ok = marker.ParseStructured(map[string]any{"$key": "k", "tpl": 5, "pkg": false})
	s.True(ok)
	s.False(ref.Foreign())
	s.Equal("current", ref.PackageOr("current"))
	s.Equal("v", ref.Apply("v"))

	for _, node := range []map[string]any{
		{},
		{"$key": ""},
		{"$key": 12},
		{"$key": map[string]any{"nested": "x"}},
		{"key": "k"},
	} {
		_, ok = marker.ParseStructured(node)
		s.False(ok)
	}
}

func (s *WalkerSuite) TestDiagnosticString() {
	miss := marker.Diagnostic{
		Kind:      marker.KindLookupMiss,
		ClassName: "App.view.Main",
		Property:  "title",
		Value:     "~title3",
		Package:   "test1",
	}
	s.True(strings.Contains(miss.String(), `missing localization for "title" with value "~title3"`))
	s.True(strings.Contains(miss.String(), "package: test1"))

	guard := marker.Diagnostic{Kind: marker.KindAlreadyInitialized, ClassName: "App.view.Main", Property: "store"}
	s.True(strings.Contains(guard.String(), "already initialized"))
}

func (s *WalkerSuite) TestCollectorForwards() {
	var forwarded []marker.Diagnostic
	collector := &marker.Collector{
		Next: marker.ReporterFunc(func(_ context.Context, d marker.Diagnostic) {
			forwarded = append(forwarded, d)
		}),
	}

	collector.Report(context.Background(), marker.Diagnostic{Kind: marker.KindLookupMiss, Value: "~x"})

	s.Len(collector.Diagnostics(), 1)
	s.Len(forwarded, 1)

	collector.Reset()
	s.Empty(collector.Diagnostics())
}
