package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/climap/internal"
	"github.com/starford/climap/internal/catalog"
	"github.com/starford/climap/internal/ccl"
	"github.com/starford/climap/internal/report"
	"github.com/starford/climap/internal/validate"
	pkgconfig "github.com/starford/climap/pkg/config"
)

var version = "dev"

var errValidationFailed = errors.New("validation failed")

// loadConfig reads the config file and applies command-line overrides.
// A missing default config file falls back to built-in defaults; a missing
// explicit one is an error.
func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	path := cmd.String("config")

	load := pkgconfig.LoadOptional[internal.Config]
	if cmd.IsSet("config") {
		load = pkgconfig.Load[internal.Config]
	}
	if err := load(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if v := cmd.String("data-dir"); v != "" {
		cfg.Data.Dir = v
	}
	if v := cmd.String("db"); v != "" {
		cfg.Data.Database = v
	}
	if v := cmd.String("output"); v != "" {
		cfg.Data.CrossrefOutput = v
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func cliLogger(cfg *internal.Config) *slog.Logger {
	logger := internal.NewLogger(os.Stderr, cfg.App.LogLevel)
	slog.SetDefault(logger)
	return logger
}

// modeFlag returns the mode selected by --dry-run, --write or --append.
func modeFlag(cmd *cli.Command) (catalog.Mode, error) {
	mode := catalog.ModePreview
	n := 0
	for _, f := range []struct {
		name string
		mode catalog.Mode
	}{
		{"dry-run", catalog.ModeDryRun},
		{"write", catalog.ModeWrite},
		{"append", catalog.ModeAppend},
	} {
		if cmd.Bool(f.name) {
			mode = f.mode
			n++
		}
	}
	if n > 1 {
		return mode, fmt.Errorf("--dry-run, --write and --append are mutually exclusive")
	}
	return mode, nil
}

func modeFlags(write, appendUsage string) []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{Name: "dry-run", Usage: "Show what would change without writing"},
		&cli.BoolFlag{Name: "write", Usage: write},
		&cli.BoolFlag{Name: "append", Usage: appendUsage},
	}
}

func dbFlag() cli.Flag {
	return &cli.StringFlag{Name: "db", Usage: "Package database path, relative to the data directory"}
}

func runCrossref(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	mode, err := modeFlag(cmd)
	if err != nil {
		return err
	}
	logger := cliLogger(cfg)

	comps, err := internal.Open(cfg, logger, mode == catalog.ModeAppend)
	if err != nil {
		return err
	}
	defer comps.Close()

	limit := cfg.Crossref.Limit
	if cmd.IsSet("limit") {
		limit = int(cmd.Int("limit"))
	}
	out, err := comps.Catalog.Crossref(ctx, catalog.CrossrefOptions{
		Limit:           limit,
		IncludeExisting: cmd.Bool("include-existing"),
	})
	if err != nil {
		return err
	}

	switch mode {
	case catalog.ModeWrite:
		if err := comps.Catalog.WriteCrossref(out); err != nil {
			return err
		}
		logger.Info("crossref output written", slog.String("path", cfg.Data.CrossrefOutput))
	case catalog.ModeAppend:
		if err := comps.Catalog.RecordRun(out); err != nil {
			return err
		}
		logger.Info("crossref run recorded", slog.String("run_id", out.RunID))
	}

	report.New(os.Stdout).Crossref(out)
	return nil
}

func runMerge(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	mode, err := modeFlag(cmd)
	if err != nil {
		return err
	}
	logger := cliLogger(cfg)

	comps, err := internal.Open(cfg, logger, false)
	if err != nil {
		return err
	}
	defer comps.Close()

	verified, err := comps.Catalog.LoadVerified(cmd.String("input"))
	if err != nil {
		return err
	}
	minSources := cfg.Merge.MinSources
	if cmd.IsSet("min-sources") {
		minSources = int(cmd.Int("min-sources"))
	}

	res, err := comps.Catalog.Merge(ctx, verified, catalog.MergeOptions{MinSources: minSources, Mode: mode})
	if err != nil {
		return err
	}

	switch mode {
	case catalog.ModePreview:
		fmt.Fprint(os.Stdout, res.Text)
	case catalog.ModeDryRun:
		fmt.Fprint(os.Stdout, res.Text)
		report.New(os.Stderr).Merge(res.Stats)
	default:
		report.New(os.Stdout).Merge(res.Stats)
	}
	return nil
}

func runValidate(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := cliLogger(cfg)

	comps, err := internal.Open(cfg, logger, false)
	if err != nil {
		return err
	}
	defer comps.Close()

	strict := cmd.Bool("strict")
	printer := report.New(os.Stdout)

	if cmd.Bool("watch") {
		path, err := comps.Store.Abs(cfg.Data.Database)
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return validate.Watch(ctx, path, comps.Catalog.Validator(strict), logger, func(_ string, r *validate.Report) {
			printer.Validation(r)
			fmt.Fprintln(os.Stdout)
		})
	}

	r, err := comps.Catalog.Validate(strict)
	if err != nil {
		return err
	}
	printer.Validation(r)
	if r.Failed() {
		return errValidationFailed
	}
	return nil
}

func runLookup(_ context.Context, cmd *cli.Command) error {
	name := cmd.Args().First()
	if name == "" {
		return fmt.Errorf("lookup: package name is required")
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	comps, err := internal.Open(cfg, cliLogger(cfg), false)
	if err != nil {
		return err
	}
	defer comps.Close()

	e, err := comps.Catalog.Lookup(name)
	if err != nil {
		return err
	}
	fmt.Fprint(os.Stdout, ccl.SerializeEntry(e))
	return nil
}

func runCandidates(_ context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	comps, err := internal.Open(cfg, cliLogger(cfg), true)
	if err != nil {
		return err
	}
	defer comps.Close()

	cands, err := comps.Catalog.Candidates(cmd.String("query"), int(cmd.Int("limit")))
	if err != nil {
		return err
	}
	report.New(os.Stdout).Candidates(cands)
	return nil
}

func runServe(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func runMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.RunMCP(ctx, internal.WithConfig(cfg), internal.WithVersion(version))
}

func main() {
	cmd := &cli.Command{
		Name:    "climap",
		Usage:   "Cross-reference CLI tool packages across ecosystems and maintain the package database",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
			&cli.StringFlag{
				Name:    "data-dir",
				Usage:   "Data directory (overrides data.dir)",
				Sources: cli.EnvVars("CLIMAP_DATA_DIR"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "crossref",
				Usage:  "Resolve collected source files into ranked candidates",
				Action: runCrossref,
				Flags: append([]cli.Flag{
					dbFlag(),
					&cli.StringFlag{Name: "output", Usage: "Crossref output path, relative to the data directory"},
					&cli.IntFlag{Name: "limit", Usage: "Maximum number of candidates (0 keeps all)", Value: 200},
					&cli.BoolFlag{Name: "include-existing", Usage: "Keep packages already in the database"},
				}, modeFlags("Replace the crossref output file", "Record the run in the candidate index")...),
			},
			{
				Name:   "merge",
				Usage:  "Merge verified packages into the package database",
				Action: runMerge,
				Flags: append([]cli.Flag{
					dbFlag(),
					&cli.StringFlag{Name: "input", Usage: "Verified packages file, relative to the data directory"},
					&cli.IntFlag{Name: "min-sources", Usage: "Skip packages verified in fewer sources", Value: 1},
				}, modeFlags("Replace the database file", "Append new entries to the database file")...),
			},
			{
				Name:   "validate",
				Usage:  "Check the package database",
				Action: runValidate,
				Flags: []cli.Flag{
					dbFlag(),
					&cli.BoolFlag{Name: "strict", Usage: "Treat unrecognized lines as errors"},
					&cli.BoolFlag{Name: "watch", Usage: "Revalidate on every change until interrupted"},
				},
			},
			{
				Name:      "lookup",
				Usage:     "Print the database entry for a package",
				ArgsUsage: "<name>",
				Action:    runLookup,
				Flags:     []cli.Flag{dbFlag()},
			},
			{
				Name:   "candidates",
				Usage:  "List candidates of the latest recorded crossref run",
				Action: runCandidates,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "query", Aliases: []string{"q"}, Usage: "Search query"},
					&cli.IntFlag{Name: "limit", Usage: "Maximum number of results", Value: 50},
				},
			},
			{
				Name:   "serve",
				Usage:  "Run the HTTP API with live validation events",
				Action: runServe,
			},
			{
				Name:   "mcp",
				Usage:  "Run the MCP server on stdin/stdout",
				Action: runMCP,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
