package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tidwall/gjson"

	"github.com/pitabwire/localize"
	"github.com/pitabwire/localize/config"
	"github.com/pitabwire/localize/version"
)

const (
	minArgsCommand = 2
	defaultTimeout = 30 * time.Second
)

var errUsage = errors.New("invalid arguments")

func main() {
	if len(os.Args) < minArgsCommand {
		usage()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch os.Args[1] {
	case "resolve":
		exitOnErr(cmdResolve(ctx, os.Args[2:], os.Stdin, os.Stdout))
	case "lookup":
		exitOnErr(cmdLookup(ctx, os.Args[2:], os.Stdout))
	case "keys":
		exitOnErr(cmdKeys(ctx, os.Args[2:], os.Stdout))
	case "version":
		printVersion(os.Stdout)
	case "help", "-h", "--help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %q\n", os.Args[1])
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stdout, "localize <command> [args]")
	fmt.Fprintln(os.Stdout, "")
	fmt.Fprintln(os.Stdout, "Commands:")
	fmt.Fprintln(os.Stdout, "  resolve -manifest FILE [-base DIR|URL] -class NAME [-select PATH] [tree.json]")
	fmt.Fprintln(os.Stdout, "  lookup -manifest FILE [-base DIR|URL] [-pkg NAME] <key>")
	fmt.Fprintln(os.Stdout, "  keys -manifest FILE [-base DIR|URL] [-pkg NAME]")
	fmt.Fprintln(os.Stdout, "  version")
	fmt.Fprintln(os.Stdout, "")
	fmt.Fprintln(os.Stdout, "Engine commands also accept -env FILE to read settings from a dotenv file.")
}

func exitOnErr(err error) {
	if err == nil {
		return
	}
	fmt.Fprintln(os.Stderr, err)
	if errors.Is(err, errUsage) {
		usage()
	}
	os.Exit(1)
}

type engineFlags struct {
	manifest string
	base     string
	envFile  string
	timeout  time.Duration
}

func (f *engineFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.manifest, "manifest", "", "application manifest (json, yaml or toml)")
	fs.StringVar(&f.base, "base", "", "directory or URL dictionary resources are read from")
	fs.StringVar(&f.envFile, "env", "", "dotenv file with LOCALIZE_* settings, .env when present by default")
	fs.DurationVar(&f.timeout, "timeout", defaultTimeout, "how long to wait for dictionaries to load")
}

// start builds an engine and waits for its startup dictionaries.
func (f *engineFlags) start(ctx context.Context) (context.Context, *localize.Engine, error) {
	if f.manifest == "" {
		return ctx, nil, fmt.Errorf("%w: -manifest is required", errUsage)
	}

	var envFiles []string
	if f.envFile != "" {
		envFiles = append(envFiles, f.envFile)
	}
	if err := config.LoadEnvFiles(envFiles...); err != nil {
		return ctx, nil, fmt.Errorf("loading env file: %w", err)
	}

	opts := []localize.Option{
		localize.WithManifestFile(f.manifest),
		localize.WithInMemoryCache(),
	}
	if f.base != "" {
		opts = append(opts, localize.WithBaseURL(f.base))
	}

	ctx, engine := localize.NewEngine(ctx, opts...)
	if err := engine.Start(ctx); err != nil {
		_ = engine.Close(ctx)
		return ctx, nil, err
	}

	waitCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()
	if err := engine.WaitReady(waitCtx); err != nil {
		_ = engine.Close(ctx)
		return ctx, nil, fmt.Errorf("waiting for dictionaries: %w", err)
	}
	return ctx, engine, nil
}

func cmdResolve(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("resolve", flag.ContinueOnError)
	var ef engineFlags
	ef.register(fs)
	className := fs.String("class", "", "class name the tree belongs to")
	selectPath := fs.String("select", "", "print only the value at this path of the resolved tree")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *className == "" {
		return fmt.Errorf("%w: -class is required", errUsage)
	}

	input := stdin
	if fs.NArg() > 0 {
		f, err := os.Open(fs.Arg(0))
		if err != nil {
			return err
		}
		defer f.Close()
		input = f
	}

	var tree map[string]any
	if err := json.NewDecoder(input).Decode(&tree); err != nil {
		return fmt.Errorf("decoding tree: %w", err)
	}

	ctx, engine, err := ef.start(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = engine.Close(ctx) }()

	resolved := engine.ResolveTree(ctx, *className, tree)
	if *selectPath == "" {
		out := json.NewEncoder(stdout)
		out.SetIndent("", "  ")
		return out.Encode(resolved)
	}

	data, err := json.Marshal(resolved)
	if err != nil {
		return err
	}
	result := gjson.GetBytes(data, *selectPath)
	if !result.Exists() {
		return fmt.Errorf("nothing at %q in the resolved tree", *selectPath)
	}
	if result.Type == gjson.String {
		_, err = fmt.Fprintln(stdout, result.String())
	} else {
		_, err = fmt.Fprintln(stdout, result.Raw)
	}
	return err
}

func cmdLookup(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("lookup", flag.ContinueOnError)
	var ef engineFlags
	ef.register(fs)
	pkg := fs.String("pkg", "", "package to look in, the application by default")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("%w: lookup requires a key", errUsage)
	}

	ctx, engine, err := ef.start(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = engine.Close(ctx) }()

	if *pkg != "" && !engine.Store().IsReady(*pkg) {
		if err = engine.LoadPackage(ctx, *pkg); err != nil {
			return err
		}
	}

	value, ok := engine.Lookup(fs.Arg(0), *pkg)
	if !ok {
		return fmt.Errorf("no value for %q", fs.Arg(0))
	}
	_, err = fmt.Fprintln(stdout, value)
	return err
}

func cmdKeys(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("keys", flag.ContinueOnError)
	var ef engineFlags
	ef.register(fs)
	pkg := fs.String("pkg", "", "package to list, the application by default")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, engine, err := ef.start(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = engine.Close(ctx) }()

	id := *pkg
	if id == "" {
		id = engine.Manifest().Name
	}
	if !engine.Store().IsReady(id) {
		if err = engine.LoadPackage(ctx, id); err != nil {
			return err
		}
	}

	for _, key := range engine.Store().Content(id).Keys() {
		if _, err = fmt.Fprintln(stdout, key); err != nil {
			return err
		}
	}
	return nil
}

func printVersion(w io.Writer) {
	fmt.Fprintln(w, version.String("localize"))
}
