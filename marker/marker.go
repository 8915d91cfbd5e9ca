// Package marker finds localization markers inside configuration trees and
// replaces them with dictionary values.
//
// Two marker forms are recognised as property values:
//
//	fieldLabel: "~firstName"            // current package
//	html:       "~common|yes"           // foreign package "common"
//	text:       {"$key": "lastNameLabel", "tpl": "{0} Name", "pkg": "common"}
//
// A miss leaves the original marker text in place so nothing is lost.
package marker

import (
	"strings"
)

const (
	DefaultSentinel     = "~"
	DefaultFinalizedKey = "$finalized"

	KeyField         = "$key"
	TemplateField    = "tpl"
	PackageField     = "pkg"
	PackageSeparator = "|"
	Placeholder      = "{0}"
)

// Reference is a parsed marker: the key to look up and the package to look it up in.
// Package is empty when the marker does not name one, meaning the current package.
type Reference struct {
	Package  string
	Key      string
	Template string
}

// Foreign reports whether the marker names its own package.
func (r Reference) Foreign() bool {
	return r.Package != ""
}

// PackageOr returns the marker package or current when none was named.
func (r Reference) PackageOr(current string) string {
	if r.Package != "" {
		return r.Package
	}
	return current
}

// Apply renders value into the template, or returns value when there is no template.
// Only the first placeholder is replaced.
func (r Reference) Apply(value string) string {
	if r.Template == "" {
		return value
	}
	return strings.Replace(r.Template, Placeholder, value, 1)
}

// ParseString parses a string form marker. The value must start with sentinel.
// A pipe splits the remainder into package and key; text after a second pipe is ignored.
func ParseString(sentinel, value string) (Reference, bool) {
	if sentinel == "" || !strings.HasPrefix(value, sentinel) {
		return Reference{}, false
	}

	body := value[len(sentinel):]
	parts := strings.Split(body, PackageSeparator)
	if len(parts) > 1 {
		return Reference{Package: parts[0], Key: parts[1]}, true
	}
	return Reference{Key: body}, true
}

// ParseStructured parses a structured marker object. The object is a marker
// only when it carries a non-empty string key field.
func ParseStructured(node map[string]any) (Reference, bool) {
	key, ok := node[KeyField].(string)
	if !ok || key == "" {
		return Reference{}, false
	}

	ref := Reference{Key: key}
	if pkg, isString := node[PackageField].(string); isString {
		ref.Package = pkg
	}
	if tpl, isString := node[TemplateField].(string); isString {
		ref.Template = tpl
	}
	return ref, true
}
