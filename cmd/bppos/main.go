// Package main is the bppos command: it connects to a debug server, mirrors
// its source list, and prints the valid breakpoint positions for one source.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/janelledement/debugger/internal/debug/breakpoints"
	"github.com/janelledement/debugger/internal/debug/rdp"
	"github.com/janelledement/debugger/internal/debug/source"
	"github.com/janelledement/debugger/internal/debug/sourcemap"
	"github.com/janelledement/debugger/internal/debug/store"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

type options struct {
	Addr     string
	SourceID string
	URL      string
	List     bool
	Timeout  time.Duration
}

func main() {
	os.Exit(run())
}

func run() int {
	opts := parseFlags()

	ctx, cancel := context.WithTimeout(context.Background(), opts.Timeout)
	defer cancel()

	transport, err := rdp.NewSocketTransport(opts.Addr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to connect to %s: %v\n", opts.Addr, err)
		return 1
	}
	client := rdp.NewClient(transport)
	defer client.Close()

	maps, err := sourcemap.NewService(client)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to create map service: %v\n", err)
		return 1
	}

	st := store.New()
	if err := registerSources(ctx, client, maps, st); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to load sources: %v\n", err)
		return 1
	}

	if opts.List {
		listSources(st)
		return 0
	}

	sourceID := opts.SourceID
	if sourceID == "" {
		src, ok := st.SourceByURL(opts.URL)
		if !ok {
			fmt.Fprintf(os.Stderr, "Error: no source with URL %q\n", opts.URL)
			return 1
		}
		sourceID = src.ID
	}

	resolver := breakpoints.NewResolver(st, client, maps)
	set, err := resolver.ResolvePositions(ctx, sourceID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	printPositions(set)
	return 0
}

// registerSources mirrors the server's source list into the store, deriving
// original source records from each generated source's map.
func registerSources(ctx context.Context, client *rdp.Client, maps *sourcemap.Service, st *store.Store) error {
	sources, err := client.Sources(ctx)
	if err != nil {
		return err
	}
	for _, src := range sources {
		if err := st.Dispatch(store.AddSource(src)); err != nil {
			return err
		}
		if src.SourceMapURL == "" {
			continue
		}
		originals, err := maps.OriginalSourcesFor(ctx, src.ID)
		if err != nil {
			return fmt.Errorf("originals of %s: %w", src.ID, err)
		}
		for _, orig := range originals {
			if err := st.Dispatch(store.AddSource(orig)); err != nil {
				return err
			}
		}
	}
	return nil
}

func listSources(st *store.Store) {
	sources := st.Sources()
	sort.Slice(sources, func(i, j int) bool { return sources[i].ID < sources[j].ID })
	for _, src := range sources {
		kind := "generated"
		if src.IsOriginal() {
			kind = "original"
		}
		fmt.Printf("%-9s %s  %s\n", kind, src.ID, src.URL)
	}
}

func printPositions(set source.BreakpointPositionSet) {
	for _, pos := range set {
		fmt.Printf("%d:%d", pos.Generated.Line, pos.Generated.Column)
		if pos.Location != nil {
			fmt.Printf("  <- %s %d:%d", pos.Location.SourceID, pos.Location.Line, pos.Location.Column)
		}
		fmt.Println()
	}
}

func parseFlags() options {
	var opts options
	var showVersion bool
	var showHelp bool

	flag.StringVar(&opts.Addr, "addr", "127.0.0.1:9229", "Debug server address")
	flag.StringVar(&opts.SourceID, "source", "", "Source id to resolve positions for")
	flag.StringVar(&opts.SourceID, "s", "", "Source id to resolve positions for (shorthand)")
	flag.StringVar(&opts.URL, "url", "", "Source URL to resolve positions for")
	flag.StringVar(&opts.URL, "u", "", "Source URL to resolve positions for (shorthand)")
	flag.BoolVar(&opts.List, "list", false, "List known sources and exit")
	flag.BoolVar(&opts.List, "l", false, "List known sources and exit (shorthand)")
	flag.DurationVar(&opts.Timeout, "timeout", 10*time.Second, "Overall request timeout")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")
	flag.BoolVar(&showHelp, "help", false, "Show help message")
	flag.BoolVar(&showHelp, "h", false, "Show help message (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "bppos - breakpoint position inspector\n\n")
		fmt.Fprintf(os.Stderr, "Usage: bppos [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  bppos -list                          List sources on the default server\n")
		fmt.Fprintf(os.Stderr, "  bppos -source source-abc             Positions for a generated source\n")
		fmt.Fprintf(os.Stderr, "  bppos -url http://app/main.src       Positions by source URL\n")
	}

	flag.Parse()

	if showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if showVersion {
		fmt.Printf("bppos %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
		os.Exit(0)
	}

	if !opts.List && opts.SourceID == "" && opts.URL == "" {
		fmt.Fprintln(os.Stderr, "Error: one of -source, -url, or -list is required")
		flag.Usage()
		os.Exit(1)
	}

	return opts
}
