package marker

import (
	"context"
	"fmt"
	"sync"

	"github.com/pitabwire/util"
)

// Kind classifies a walker diagnostic.
type Kind string

const (
	// KindLookupMiss is reported when a marker key is not in the consulted dictionary.
	KindLookupMiss Kind = "lookup_miss"
	// KindAlreadyInitialized is reported when a node was already finalized by its owner.
	KindAlreadyInitialized Kind = "already_initialized"
)

// Diagnostic describes one problem found while walking a tree.
type Diagnostic struct {
	Kind      Kind
	ClassName string
	Property  string
	Value     string
	Package   string
}

func (d Diagnostic) String() string {
	switch d.Kind {
	case KindAlreadyInitialized:
		return fmt.Sprintf("refusing to localize %q in %s: node is already initialized", d.Property, d.ClassName)
	default:
		return fmt.Sprintf("missing localization for %q with value %q in dictionary for package: %s (%s)",
			d.Property, d.Value, d.Package, d.ClassName)
	}
}

// Reporter receives walker diagnostics.
type Reporter interface {
	Report(ctx context.Context, d Diagnostic)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(ctx context.Context, d Diagnostic)

func (f ReporterFunc) Report(ctx context.Context, d Diagnostic) {
	f(ctx, d)
}

// LogReporter writes diagnostics to the context logger.
type LogReporter struct{}

func (LogReporter) Report(ctx context.Context, d Diagnostic) {
	log := util.Log(ctx).WithFields(map[string]any{
		"kind":      string(d.Kind),
		"className": d.ClassName,
		"property":  d.Property,
		"value":     d.Value,
		"package":   d.Package,
	})

	switch d.Kind {
	case KindAlreadyInitialized:
		log.Error("localization attempted on an initialized node")
	default:
		log.Warn("missing localization")
	}
}

// Collector keeps every diagnostic it receives, optionally forwarding to Next.
type Collector struct {
	Next Reporter

	mu    sync.Mutex
	items []Diagnostic
}

func (c *Collector) Report(ctx context.Context, d Diagnostic) {
	c.mu.Lock()
	c.items = append(c.items, d)
	c.mu.Unlock()

	if c.Next != nil {
		c.Next.Report(ctx, d)
	}
}

// Diagnostics returns a copy of the collected diagnostics in report order.
func (c *Collector) Diagnostics() []Diagnostic {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Diagnostic, len(c.items))
	copy(out, c.items)
	return out
}

// Reset drops collected diagnostics.
func (c *Collector) Reset() {
	c.mu.Lock()
	c.items = nil
	c.mu.Unlock()
}
