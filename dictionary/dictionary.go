// Package dictionary holds the translation content loaded for each package and
// resolves dotted keys against it.
package dictionary

import (
	"fmt"
	"sort"
	"strings"
)

// Content is the parsed key/value translation document of one package.
// Values are strings (or other scalars) and nested Content/map values.
type Content map[string]any

// KeySeparator splits a dotted key into path segments.
const KeySeparator = "."

// Lookup walks content segment by segment along dottedKey.
//
// Segments are used as literal map keys, so "a..b" reads content["a"][""]["b"].
// The result is absent when any segment is missing or the path ends on a
// mapping, a sequence or nil. Non-string scalars are formatted with fmt.Sprint.
// An empty string value is found and resolves to "".
func Lookup(content Content, dottedKey string) (string, bool) {
	if content == nil {
		return "", false
	}

	var current any = map[string]any(content)
	for _, segment := range strings.Split(dottedKey, KeySeparator) {
		node, ok := asMap(current)
		if !ok {
			return "", false
		}

		current, ok = node[segment]
		if !ok {
			return "", false
		}
	}

	return scalar(current)
}

// Flatten returns every scalar leaf of content keyed by its dotted path.
func Flatten(content Content) map[string]string {
	out := make(map[string]string)
	flatten("", map[string]any(content), out)
	return out
}

func flatten(prefix string, node map[string]any, out map[string]string) {
	for key, value := range node {
		path := key
		if prefix != "" {
			path = prefix + KeySeparator + key
		}

		if child, ok := asMap(value); ok {
			flatten(path, child, out)
			continue
		}

		if text, ok := scalar(value); ok {
			out[path] = text
		}
	}
}

// Keys returns the sorted dotted paths of every scalar leaf.
func (c Content) Keys() []string {
	flat := Flatten(c)
	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case Content:
		return m, true
	default:
		return nil, false
	}
}

func scalar(v any) (string, bool) {
	switch val := v.(type) {
	case nil:
		return "", false
	case string:
		return val, true
	case bool, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, float32, float64:
		return fmt.Sprint(val), true
	default:
		return "", false
	}
}
