package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/dnswlt/pokedex/internal/config"
	"github.com/dnswlt/pokedex/internal/favorites"
	"github.com/dnswlt/pokedex/internal/pokeapi"
	"github.com/dnswlt/pokedex/internal/query"
	"github.com/dnswlt/pokedex/internal/telemetry"
	"github.com/dnswlt/pokedex/internal/web"
	"github.com/peterbourgon/ff/v3"
	"github.com/prometheus/client_golang/prometheus"
)

// Options contains program options that can be set via command-line flags or environment variables.
type Options struct {
	Addr           string
	ConfigFile     string
	BaseDir        string
	APIURL         string
	ListLimit      int
	EntryCacheSize int
	LogLevel       string
	LogFile        string
	Query          string
	JSON           bool
}

func main() {
	if len(os.Args) < 2 {
		// Default to "serve"
		runServe(os.Args[1:])
		return
	}

	switch os.Args[1] {
	case "serve":
		runServe(os.Args[2:])
	case "list":
		runList(os.Args[2:])
	case "show":
		runShow(os.Args[2:])
	default:
		// Also default to serve if the argument looks like a flag
		if strings.HasPrefix(os.Args[1], "-") {
			runServe(os.Args[1:])
			return
		}
		fmt.Fprintf(os.Stderr, "Unknown command %q. Available commands: serve, list, show\n", os.Args[1])
		os.Exit(1)
	}
}

// commonFlags registers the flags shared by all commands.
func commonFlags(fs *flag.FlagSet, opts *Options) {
	fs.StringVar(&opts.ConfigFile, "config", "", "Path to the configuration YAML file. If empty, defaults are used.")
	fs.StringVar(&opts.APIURL, "api-url", "", "Base URL of the PokéAPI. Overrides catalog.baseURL from the config file.")
	fs.IntVar(&opts.ListLimit, "list-limit", 0, "Number of Pokémon to list per page. Overrides catalog.listLimit from the config file.")
	fs.StringVar(&opts.LogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	fs.StringVar(&opts.LogFile, "log-file", "", "If set, logs are also written to this file in JSON format")
}

func parseFlags(fs *flag.FlagSet, args []string) {
	if err := ff.Parse(fs, args, ff.WithEnvVarPrefix("POKEDEX")); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		os.Exit(1)
	}
}

// setup loads the configuration, applies flag overrides, and creates the logger.
// The returned function must be called before the program exits.
func setup(opts Options) (*config.Bundle, *slog.Logger, func()) {
	level, err := config.ParseLevel(opts.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		os.Exit(1)
	}
	logger, closeLog, err := config.SetupLogger(opts.LogFile, level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Could not set up logging: %v\n", err)
		os.Exit(1)
	}
	cleanup := func() {
		if err := closeLog(); err != nil {
			fmt.Fprintf(os.Stderr, "Could not close log file: %v\n", err)
		}
	}

	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		logger.Error("Could not load configuration", "error", err)
		cleanup()
		os.Exit(1)
	}
	if opts.APIURL != "" {
		cfg.Catalog.BaseURL = opts.APIURL
	}
	if opts.ListLimit > 0 {
		cfg.Catalog.ListLimit = opts.ListLimit
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", "error", err)
		cleanup()
		os.Exit(1)
	}
	return cfg, logger, cleanup
}

func runServe(args []string) {
	var opts Options
	fs := flag.NewFlagSet("pokedex serve", flag.ExitOnError)
	commonFlags(fs, &opts)
	fs.StringVar(&opts.Addr, "addr", "localhost:8080", "Address to listen on")
	fs.StringVar(&opts.BaseDir, "base-dir", "", "Base directory for resource files. If empty, uses embedded resources (recommended for production).")
	fs.IntVar(&opts.EntryCacheSize, "entry-cache-size", 0, "Max. number of fetched Pokémon to hold in the in-memory LRU cache (0 disables the cache)")
	parseFlags(fs, args)

	cfg, logger, cleanup := setup(opts)
	defer cleanup()
	logger.Debug("Using config from flags/env vars", "options", fmt.Sprintf("%+v", opts))

	metrics := telemetry.NewPrometheusMetrics(prometheus.DefaultRegisterer)
	client := pokeapi.New(cfg.Catalog.BaseURL,
		pokeapi.WithObserver(metrics),
		pokeapi.WithLogger(logger),
	)
	store := favorites.NewStore(favorites.WithLogger(logger))
	store.Subscribe(metrics.ObserveFavorites)

	server, err := web.NewServer(
		web.ServerOptions{
			Addr:           opts.Addr,
			BaseDir:        opts.BaseDir,
			ListLimit:      cfg.Catalog.ListLimit,
			EntryCacheSize: opts.EntryCacheSize,
			UI:             cfg.UI,
			Gatherer:       prometheus.DefaultGatherer,
			Logger:         logger,
		},
		client,
		store,
	)
	if err != nil {
		logger.Error("Could not create server", "error", err)
		cleanup()
		os.Exit(1)
	}
	logger.Info("Using PokéAPI", "url", client.BaseURL())

	if err := server.Serve(); err != nil {
		logger.Error("Server failed", "error", err)
		cleanup()
		os.Exit(1)
	}
}

func runList(args []string) {
	var opts Options
	fs := flag.NewFlagSet("pokedex list", flag.ExitOnError)
	commonFlags(fs, &opts)
	fs.StringVar(&opts.Query, "q", "", "Only list Pokémon matching this query, e.g. 'name~^char'")
	parseFlags(fs, args)

	cfg, logger, cleanup := setup(opts)
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	client := pokeapi.New(cfg.Catalog.BaseURL,
		pokeapi.WithObserver(telemetry.NoopMetrics{}),
		pokeapi.WithLogger(logger),
	)
	if err := list(ctx, os.Stdout, client, cfg.Catalog.ListLimit, opts.Query); err != nil {
		logger.Error("Could not list Pokémon", "error", err)
		cleanup()
		os.Exit(1)
	}
}

func list(ctx context.Context, w io.Writer, client *pokeapi.Client, limit int, q string) error {
	summaries, err := client.ListCatalog(ctx, limit)
	if err != nil {
		return err
	}
	matches, err := query.Filter(q, summaries)
	if err != nil {
		return err
	}
	for _, s := range matches {
		fmt.Fprintln(w, s.Name)
	}
	return nil
}

func runShow(args []string) {
	var opts Options
	fs := flag.NewFlagSet("pokedex show", flag.ExitOnError)
	commonFlags(fs, &opts)
	fs.BoolVar(&opts.JSON, "json", false, "Print all attributes as JSON")
	parseFlags(fs, args)

	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: pokedex show [flags] <name or id>")
		os.Exit(1)
	}

	cfg, logger, cleanup := setup(opts)
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	client := pokeapi.New(cfg.Catalog.BaseURL,
		pokeapi.WithObserver(telemetry.NoopMetrics{}),
		pokeapi.WithLogger(logger),
	)
	entry, err := client.FetchEntry(ctx, fs.Arg(0))
	if err != nil {
		logger.Error("Could not fetch Pokémon", "name", fs.Arg(0), "error", err)
		cleanup()
		os.Exit(1)
	}
	if opts.JSON {
		err = writeJSON(os.Stdout, entry)
	} else {
		writeText(os.Stdout, entry)
	}
	if err != nil {
		logger.Error("Could not write output", "error", err)
		cleanup()
		os.Exit(1)
	}
}

func writeJSON(w io.Writer, e *pokeapi.Entry) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(e.Attributes)
}

func writeText(w io.Writer, e *pokeapi.Entry) {
	fmt.Fprintf(w, "%s %s\n", e.DisplayID(), e.Name)
	fmt.Fprintf(w, "Types:  %s\n", strings.Join(e.TypeNames(), ", "))
	fmt.Fprintf(w, "Height: %.1f m\n", float64(e.Height)/10)
	fmt.Fprintf(w, "Weight: %.1f kg\n", float64(e.Weight)/10)
	for _, s := range e.Stats {
		fmt.Fprintf(w, "  %-16s %3d\n", s.Stat.Name, s.BaseStat)
	}
}
