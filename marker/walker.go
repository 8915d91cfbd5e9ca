package marker

import (
	"context"
	"reflect"
	"sort"
	"strconv"
)

// LookupFunc resolves a dotted key in the dictionary of a package.
type LookupFunc func(packageID, key string) (string, bool)

// Walker substitutes markers in configuration trees.
//
// A Walker holds no per-walk state and may be shared by goroutines walking
// independent trees.
type Walker struct {
	lookup       LookupFunc
	sentinel     string
	finalizedKey string
	reporter     Reporter
	debug        bool
}

// Option configures a Walker.
type Option func(*Walker)

// WithSentinel sets the leading text that marks a string value as a marker.
func WithSentinel(sentinel string) Option {
	return func(w *Walker) {
		if sentinel != "" {
			w.sentinel = sentinel
		}
	}
}

// WithFinalizedKey sets the property that flags a node as already initialized.
func WithFinalizedKey(key string) Option {
	return func(w *Walker) {
		if key != "" {
			w.finalizedKey = key
		}
	}
}

// WithReporter sets where diagnostics go.
func WithReporter(reporter Reporter) Option {
	return func(w *Walker) {
		if reporter != nil {
			w.reporter = reporter
		}
	}
}

// WithDebug enables diagnostics. They are off in production builds.
func WithDebug(debug bool) Option {
	return func(w *Walker) {
		w.debug = debug
	}
}

// NewWalker creates a Walker resolving keys through lookup.
func NewWalker(lookup LookupFunc, opts ...Option) *Walker {
	w := &Walker{
		lookup:       lookup,
		sentinel:     DefaultSentinel,
		finalizedKey: DefaultFinalizedKey,
		reporter:     LogReporter{},
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *Walker) Sentinel() string {
	return w.sentinel
}

func (w *Walker) Debug() bool {
	return w.debug
}

// container identifies a map or slice already walked. Slices sharing a
// backing array differ by length, so both are part of the identity.
type container struct {
	ptr uintptr
	len int
}

type walk struct {
	className string
	packageID string
	visited   map[container]struct{}
}

// Walk resolves every marker below node in place. node is normally a
// map[string]any; a []any root is walked element by element and any other
// value is left alone.
func (w *Walker) Walk(ctx context.Context, className, packageID string, node any) {
	st := &walk{
		className: className,
		packageID: packageID,
		visited:   make(map[container]struct{}),
	}

	switch n := node.(type) {
	case map[string]any:
		w.walkMap(ctx, st, n, "")
	case []any:
		w.walkSlice(ctx, st, n, "")
	}
}

// ResolveString resolves a single string form marker. Values that are not
// markers come back unchanged with ok set to false; misses return the
// original value, also with ok false.
func (w *Walker) ResolveString(packageID, value string) (string, bool) {
	ref, isMarker := ParseString(w.sentinel, value)
	if !isMarker {
		return value, false
	}

	resolved, found := w.lookup(ref.PackageOr(packageID), ref.Key)
	if !found {
		return value, false
	}
	return resolved, true
}

func (w *Walker) walkMap(ctx context.Context, st *walk, node map[string]any, path string) {
	if w.isFinalized(node) {
		w.report(ctx, Diagnostic{
			Kind:      KindAlreadyInitialized,
			ClassName: st.className,
			Property:  path,
			Package:   st.packageID,
		})
		return
	}

	if !st.enter(container{ptr: reflect.ValueOf(node).Pointer()}) {
		return
	}

	keys := make([]string, 0, len(node))
	for k := range node {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if value, replace := w.visit(ctx, st, node[k], join(path, k)); replace {
			node[k] = value
		}
	}
}

func (w *Walker) walkSlice(ctx context.Context, st *walk, node []any, path string) {
	if len(node) == 0 || !st.enter(container{ptr: reflect.ValueOf(node).Pointer(), len: len(node)}) {
		return
	}

	for i := range node {
		if value, replace := w.visit(ctx, st, node[i], join(path, strconv.Itoa(i))); replace {
			node[i] = value
		}
	}
}

// visit handles one property value and returns its replacement, if any.
func (w *Walker) visit(ctx context.Context, st *walk, value any, path string) (any, bool) {
	switch v := value.(type) {
	case nil, bool:
		return nil, false

	case string:
		return w.resolveString(ctx, st, v, path)

	case map[string]any:
		if ref, ok := ParseStructured(v); ok && !w.isFinalized(v) {
			return w.resolveStructured(ctx, st, ref, path), true
		}
		w.walkMap(ctx, st, v, path)
		return nil, false

	case []any:
		w.walkSlice(ctx, st, v, path)
		return nil, false

	default:
		// Callables and other host values are never inspected.
		return nil, false
	}
}

func (w *Walker) resolveString(ctx context.Context, st *walk, value, path string) (any, bool) {
	ref, ok := ParseString(w.sentinel, value)
	if !ok {
		return nil, false
	}

	pkg := ref.PackageOr(st.packageID)
	if resolved, found := w.lookup(pkg, ref.Key); found {
		return resolved, true
	}

	w.report(ctx, Diagnostic{
		Kind:      KindLookupMiss,
		ClassName: st.className,
		Property:  path,
		Value:     value,
		Package:   pkg,
	})
	return value, true
}

func (w *Walker) resolveStructured(ctx context.Context, st *walk, ref Reference, path string) any {
	pkg := ref.PackageOr(st.packageID)
	if resolved, found := w.lookup(pkg, ref.Key); found {
		return ref.Apply(resolved)
	}

	w.report(ctx, Diagnostic{
		Kind:      KindLookupMiss,
		ClassName: st.className,
		Property:  path,
		Value:     ref.Key,
		Package:   pkg,
	})
	return w.sentinel + ref.Key
}

func (w *Walker) isFinalized(node map[string]any) bool {
	flag, ok := node[w.finalizedKey].(bool)
	return ok && flag
}

func (w *Walker) report(ctx context.Context, d Diagnostic) {
	if !w.debug {
		return
	}
	w.reporter.Report(ctx, d)
}

// enter records a container as visited and reports whether it is new.
func (st *walk) enter(c container) bool {
	if _, seen := st.visited[c]; seen {
		return false
	}
	st.visited[c] = struct{}{}
	return true
}

func join(path, property string) string {
	if path == "" {
		return property
	}
	return path + "." + property
}
