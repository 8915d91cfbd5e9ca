package marker_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/pitabwire/localize/dictionary"
	"github.com/pitabwire/localize/marker"
)

type WalkerSuite struct {
	suite.Suite

	store     *dictionary.Store
	collector *marker.Collector
	walker    *marker.Walker
}

func TestWalkerSuite(t *testing.T) {
	suite.Run(t, new(WalkerSuite))
}

func (s *WalkerSuite) SetupTest() {
	s.store = dictionary.NewStore()
	s.store.Register("pkgA", dictionary.Content{
		"firstName": "First name",
		"greeting":  "Hello from A",
		"name":      "Hi",
		"empty":     "",
		"content": map[string]any{
			"dummy": "Dummy content",
		},
		"showTimesFor": "Show times for:",
	})
	s.store.Register("pkgB", dictionary.Content{
		"greeting": "Hello from B",
		"yes":      "Yes",
	})

	s.collector = &marker.Collector{}
	s.walker = marker.NewWalker(s.store.Lookup,
		marker.WithReporter(s.collector),
		marker.WithDebug(true),
	)
}

func (s *WalkerSuite) walk(tree any) {
	s.walker.Walk(context.Background(), "App.view.Main", "pkgA", tree)
}

func (s *WalkerSuite) TestStringMarkers() {
	testCases := []struct {
		name  string
		value string
		want  string
		miss  bool
	}{
		{name: "simple key", value: "~firstName", want: "First name"},
		{name: "nested key", value: "~content.dummy", want: "Dummy content"},
		{name: "foreign package", value: "~pkgB|greeting", want: "Hello from B"},
		{name: "foreign package ignores current", value: "~pkgB|firstName", want: "~pkgB|firstName", miss: true},
		{name: "empty value is still a hit", value: "~empty", want: ""},
		{name: "missing key restored", value: "~title3", want: "~title3", miss: true},
		{name: "missing package restored", value: "~nope|greeting", want: "~nope|greeting", miss: true},
		{name: "bare sentinel", value: "~", want: "~", miss: true},
		{name: "extra pipe segment ignored", value: "~pkgB|yes|trailing", want: "Yes"},
		{name: "plain string untouched", value: "firstName", want: "firstName"},
		{name: "sentinel not leading", value: "a~firstName", want: "a~firstName"},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			s.collector.Reset()
			tree := map[string]any{"label": tc.value}

			s.walk(tree)

			s.Equal(tc.want, tree["label"])
			if tc.miss {
				s.Require().Len(s.collector.Diagnostics(), 1)
				d := s.collector.Diagnostics()[0]
				s.Equal(marker.KindLookupMiss, d.Kind)
				s.Equal("App.view.Main", d.ClassName)
				s.Equal("label", d.Property)
				s.Equal(tc.value, d.Value)
			} else {
				s.Empty(s.collector.Diagnostics())
			}
		})
	}
}

func (s *WalkerSuite) TestStructuredMarkers() {
	testCases := []struct {
		name  string
		value map[string]any
		want  string
		miss  bool
	}{
		{name: "raw value", value: map[string]any{"$key": "firstName"}, want: "First name"},
		{name: "template", value: map[string]any{"$key": "name", "tpl": "{0}!"}, want: "Hi!"},
		{
			name:  "template keeps other placeholders",
			value: map[string]any{"$key": "showTimesFor", "tpl": "{0} {movieName}"},
			want:  "Show times for: {movieName}",
		},
		{
			name:  "only first placeholder replaced",
			value: map[string]any{"$key": "name", "tpl": "{0} and {0}"},
			want:  "Hi and {0}",
		},
		{name: "package override", value: map[string]any{"$key": "yes", "pkg": "pkgB"}, want: "Yes"},
		{
			name:  "package override with template",
			value: map[string]any{"$key": "greeting", "pkg": "pkgB", "tpl": "<{0}>"},
			want:  "<Hello from B>",
		},
		{name: "empty package falls back", value: map[string]any{"$key": "greeting", "pkg": ""}, want: "Hello from A"},
		{name: "miss yields sentinel key", value: map[string]any{"$key": "lastNameLabel", "tpl": "{0} Name"}, want: "~lastNameLabel", miss: true},
		{name: "miss in override package", value: map[string]any{"$key": "firstName", "pkg": "pkgB"}, want: "~firstName", miss: true},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			s.collector.Reset()
			tree := map[string]any{"text": tc.value}

			s.walk(tree)

			s.Equal(tc.want, tree["text"])
			if tc.miss {
				s.Require().Len(s.collector.Diagnostics(), 1)
				d := s.collector.Diagnostics()[0]
				s.Equal(marker.KindLookupMiss, d.Kind)
				s.Equal(tc.value["$key"], d.Value)
			} else {
				s.Empty(s.collector.Diagnostics())
			}
		})
	}
}

func (s *WalkerSuite) TestNestedContainers() {
	tree := map[string]any{
		"xtype": "panel",
		"bind": map[string]any{
			"title": map[string]any{"$key": "showTimesFor", "tpl": "{0} {movieName}"},
		},
		"items": []any{
			map[string]any{"xtype": "textfield", "fieldLabel": "~firstName"},
			"~pkgB|yes",
			[]any{"~content.dummy", 42},
		},
		"dockedItems": map[string]any{
			"inner": map[string]any{"html": "~content.dummy"},
		},
	}

	s.walk(tree)

	s.Equal("Show times for: {movieName}", tree["bind"].(map[string]any)["title"])
	items := tree["items"].([]any)
	s.Equal("First name", items[0].(map[string]any)["fieldLabel"])
	s.Equal("Yes", items[1])
	s.Equal([]any{"Dummy content", 42}, items[2])
	s.Equal("Dummy content", tree["dockedItems"].(map[string]any)["inner"].(map[string]any)["html"])
	s.Empty(s.collector.Diagnostics())
}

func (s *WalkerSuite) TestMissPropertyPath() {
	tree := map[string]any{
		"items": []any{
			map[string]any{"bind": map[string]any{"title": "~absent"}},
		},
	}

	s.walk(tree)

	s.Require().Len(s.collector.Diagnostics(), 1)
	s.Equal("items.0.bind.title", s.collector.Diagnostics()[0].Property)
	s.Equal("pkgA", s.collector.Diagnostics()[0].Package)
}

func (s *WalkerSuite) TestMarkerFreeTreeUnchanged() {
	called := 0
	fn := func() { called++ }

	build := func() map[string]any {
		return map[string]any{
			"xtype":    "grid",
			"width":    300,
			"ratio":    0.5,
			"hidden":   false,
			"closable": true,
			"title":    "Plain title",
			"nothing":  nil,
			"columns": []any{
				map[string]any{"dataIndex": "name", "flex": 1},
				"text",
			},
			"listeners": map[string]any{"click": fn},
			"tpl":       "{0} plain",
		}
	}

	tree := build()
	s.walk(tree)

	expected := build()
	s.Equal(fmt.Sprintf("%v", expected["columns"]), fmt.Sprintf("%v", tree["columns"]))
	for _, key := range []string{"xtype", "width", "ratio", "hidden", "closable", "title", "nothing", "tpl"} {
		s.Equal(expected[key], tree[key], key)
	}
	s.Zero(called, "callables are never invoked")
	s.Empty(s.collector.Diagnostics())
}

func (s *WalkerSuite) TestBooleansAndCallablesSkipped() {
	type host struct{ Label string }
	handler := func(string) string { return "~firstName" }

	tree := map[string]any{
		"truthy":  true,
		"falsy":   false,
		"handler": handler,
		"struct":  &host{Label: "~firstName"},
		"typed":   map[string]string{"label": "~firstName"},
	}

	s.walk(tree)

	s.Equal(true, tree["truthy"])
	s.Equal(false, tree["falsy"])
	s.Equal("~firstName", tree["struct"].(*host).Label)
	s.Equal("~firstName", tree["typed"].(map[string]string)["label"])
	s.NotNil(tree["handler"])
	s.Empty(s.collector.Diagnostics())
}

func (s *WalkerSuite) TestIdempotentMiss() {
	tree := map[string]any{
		"a": "~missing",
		"b": map[string]any{"$key": "missing"},
	}

	s.walk(tree)
	first := map[string]any{"a": tree["a"], "b": tree["b"]}
	s.walk(tree)

	s.Equal(first, tree)
	s.Equal("~missing", tree["a"])
	s.Equal("~missing", tree["b"])
}

func (s *WalkerSuite) TestFinalizedGuard() {
	live := map[string]any{
		"$finalized": true,
		"title":      "~firstName",
	}
	tree := map[string]any{
		"store":  live,
		"label":  "~firstName",
		"marker": map[string]any{"$key": "firstName", "$finalized": true},
	}

	s.walk(tree)

	s.Equal("~firstName", live["title"], "initialized nodes are never mutated")
	s.Equal("First name", tree["label"])
	s.Equal(map[string]any{"$key": "firstName", "$finalized": true}, tree["marker"])

	diags := s.collector.Diagnostics()
	s.Require().Len(diags, 2)
	s.Equal(marker.KindAlreadyInitialized, diags[0].Kind)
	s.Equal("marker", diags[0].Property)
	s.Equal(marker.KindAlreadyInitialized, diags[1].Kind)
	s.Equal("store", diags[1].Property)
}

func (s *WalkerSuite) TestFinalizedRoot() {
	tree := map[string]any{"$finalized": true, "label": "~firstName"}

	s.walk(tree)

	s.Equal("~firstName", tree["label"])
	s.Require().Len(s.collector.Diagnostics(), 1)
	s.Equal(marker.KindAlreadyInitialized, s.collector.Diagnostics()[0].Kind)
}

func (s *WalkerSuite) TestFinalizedFlagMustBeTrue() {
	tree := map[string]any{"$finalized": "yes", "label": "~firstName"}

	s.walk(tree)

	s.Equal("First name", tree["label"])
}

func (s *WalkerSuite) TestCyclesVisitedOnce() {
	tree := map[string]any{"label": "~firstName"}
	tree["self"] = tree
	list := []any{"~pkgB|yes", nil}
	list[1] = list
	tree["list"] = list

	s.NotPanics(func() { s.walk(tree) })
	s.Equal("First name", tree["label"])
	s.Equal("Yes", list[0])
}

func (s *WalkerSuite) TestSlicesSharingBackingArray() {
	items := []any{"~firstName", "~greeting", "~pkgB|yes"}
	tree := map[string]any{
		"first":  items[:1],
		"second": items,
		"third":  items[1:2],
	}

	s.walk(tree)

	s.Equal([]any{"First name", "Hello from A", "Yes"}, tree["second"])
	s.Equal([]any{"First name"}, tree["first"])
	s.Empty(s.collector.Diagnostics())
}

func (s *WalkerSuite) TestDiagnosticsSuppressedWithoutDebug() {
	walker := marker.NewWalker(s.store.Lookup, marker.WithReporter(s.collector))
	tree := map[string]any{"label": "~missing", "live": map[string]any{"$finalized": true}}

	walker.Walk(context.Background(), "App.view.Main", "pkgA", tree)

	s.Equal("~missing", tree["label"])
	s.Empty(s.collector.Diagnostics())
	s.False(walker.Debug())
}

func (s *WalkerSuite) TestCustomSentinelAndFinalizedKey() {
	walker := marker.NewWalker(s.store.Lookup,
		marker.WithSentinel("^"),
		marker.WithFinalizedKey("isInstance"),
		marker.WithReporter(s.collector),
		marker.WithDebug(true),
	)
	tree := map[string]any{
		"a":    "^firstName",
		"b":    "~firstName",
		"c":    map[string]any{"$key": "absent"},
		"live": map[string]any{"isInstance": true, "x": "^firstName"},
	}

	walker.Walk(context.Background(), "App.view.Main", "pkgA", tree)

	s.Equal("^", walker.Sentinel())
	s.Equal("First name", tree["a"])
	s.Equal("~firstName", tree["b"])
	s.Equal("^absent", tree["c"])
	s.Equal("^firstName", tree["live"].(map[string]any)["x"])
}

func (s *WalkerSuite) TestNonMapRootIgnored() {
	s.NotPanics(func() {
		s.walk("~firstName")
		s.walk(nil)
		s.walk(42)
	})

	list := []any{"~firstName"}
	s.walk(list)
	s.Equal("First name", list[0])
}

func (s *WalkerSuite) TestResolveString() {
	got, ok := s.walker.ResolveString("pkgA", "~pkgB|greeting")
	s.True(ok)
	s.Equal("Hello from B", got)

	got, ok = s.walker.ResolveString("pkgA", "~missing")
	s.False(ok)
	s.Equal("~missing", got)

	got, ok = s.walker.ResolveString("pkgA", "plain")
	s.False(ok)
	s.Equal("plain", got)
}

func (s *WalkerSuite) TestDefaultLogReporter() {
	walker := marker.NewWalker(s.store.Lookup, marker.WithDebug(true), marker.WithReporter(nil))
	tree := map[string]any{"label": "~missing", "live": map[string]any{"$finalized": true}}

	s.NotPanics(func() {
		walker.Walk(context.Background(), "App.view.Main", "pkgA", tree)
	})
	s.Equal("~missing", tree["label"])
}
