package localize

import (
	"context"
	"fmt"
	"strings"

	"github.com/pitabwire/localize/manifest"
)

const (
	// HookName is the name the resolution hook is registered under.
	HookName = "localize"
	// ClassNameField is where Preprocess reads the class name of a tree from.
	ClassNameField = "$className"
)

// Hook transforms the configuration tree of the class named identifier
// before the host builds it.
type Hook func(ctx context.Context, identifier string, tree map[string]any) map[string]any

// Host is the class system configuration trees belong to.
type Host interface {
	RegisterHook(name string, hook Hook)
}

// ResolveTree substitutes every marker in tree with its localized text,
// looking keys up in the package that owns className. The tree is changed in
// place and returned. Nothing happens while the engine is disabled or still
// loading, for reserved namespaces, or when no package owns className.
func (e *Engine) ResolveTree(ctx context.Context, className string, tree map[string]any) map[string]any {
	if tree == nil || !e.Ready() {
		return tree
	}
	if className == "" || e.isReserved(className) {
		return tree
	}

	packageID, ok := e.table.Resolve(className)
	if !ok {
		return tree
	}

	e.walker.Walk(ctx, className, packageID, tree)
	return tree
}

func (e *Engine) isReserved(className string) bool {
	for _, prefix := range e.reservedNamespaces() {
		if strings.HasPrefix(className, prefix) {
			return true
		}
	}
	return false
}

// Hook returns ResolveTree as a Hook.
func (e *Engine) Hook() Hook {
	return e.ResolveTree
}

// Preprocess resolves a tree that names its own class in $className.
func (e *Engine) Preprocess(ctx context.Context, tree map[string]any) map[string]any {
	className, _ := tree[ClassNameField].(string)
	return e.ResolveTree(ctx, className, tree)
}

// Register installs the resolution hook on host once every startup
// dictionary has loaded. A disabled engine never registers.
func (e *Engine) Register(ctx context.Context, host Host) error {
	barrier, disabled := e.state()
	if disabled {
		e.Log(ctx).Error("localization is disabled, hook not registered")
		return ErrMissingLocalizeConfig
	}
	if barrier == nil {
		return ErrNotStarted
	}

	registered := false
	e.registerOnce.Do(func() {
		registered = true
		barrier.OnOpen(func() {
			host.RegisterHook(HookName, e.Hook())
			e.Log(ctx).WithField("hook", HookName).Debug("localization hook registered")
		})
	})
	if !registered {
		return ErrHookRegistered
	}
	return nil
}

// Lookup resolves a dotted key in the dictionary of packageID, defaulting to
// the application package.
func (e *Engine) Lookup(key, packageID string) (string, bool) {
	if barrier, _ := e.state(); packageID == "" && barrier != nil {
		packageID = e.manifest.Name
	}
	return e.store.Lookup(packageID, key)
}

// LoadPackage loads the dictionary of a package that was not loaded at
// startup and makes its namespace resolvable. Loading an already loaded
// package does nothing. A caller whose ctx ends stops waiting with its error;
// the shared load still completes for everyone else.
func (e *Engine) LoadPackage(ctx context.Context, name string) error {
	barrier, disabled := e.state()
	if disabled {
		return ErrMissingLocalizeConfig
	}
	if barrier == nil {
		return ErrNotStarted
	}
	if !e.manifest.Knows(name) {
		return fmt.Errorf("%w: %q", ErrUnknownPackage, name)
	}

	if e.store.IsReady(name) && e.store.Err(name) == nil {
		return nil
	}

	// Concurrent callers for one package share a single fetch. It runs
	// detached so one caller giving up does not fail the others.
	loadCtx := context.WithoutCancel(ctx)
	results := e.loads.DoChan(name, func() (any, error) {
		return nil, e.loadPackage(loadCtx, name)
	})

	select {
	case res := <-results:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *Engine) loadPackage(ctx context.Context, name string) error {
	if e.store.IsReady(name) && e.store.Err(name) == nil {
		return nil
	}

	src, err := e.packageSource(name)
	if err != nil {
		return err
	}

	if content, ok := e.preload[name]; ok {
		e.store.Register(name, content)
	} else if err = e.loader.LoadOne(ctx, src); err != nil {
		return err
	}

	e.table.Add(e.manifest.Namespace(name), name)
	if err = e.translator.Refresh(ctx); err != nil {
		e.Log(ctx).WithError(err).Warn("could not rebuild translation bundle")
	}

	e.Log(ctx).WithField("package", name).Info("package dictionary loaded")
	return nil
}

func (e *Engine) packageSource(name string) (manifest.Source, error) {
	u, err := e.manifest.SourceURL(e.sourceBase(), name)
	if err != nil {
		return manifest.Source{}, err
	}
	return manifest.Source{Package: name, URL: u}, nil
}
