package main

import (
	"bytes"
	"cmp"
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"

	"github.com/alecthomas/errors"
	"github.com/alecthomas/kong"
	kongtoml "github.com/alecthomas/kong-toml"
	"github.com/kballard/go-shellquote"

	"github.com/alecthomas/zeroinject/internal/depgraph"
	"github.com/alecthomas/zeroinject/internal/flock"
	"github.com/alecthomas/zeroinject/internal/goanalysis"
	"github.com/alecthomas/zeroinject/internal/logging"
	"github.com/alecthomas/zeroinject/internal/report"
)

type CLI struct {
	Version     kong.VersionFlag   `help:"Print the version and exit."`
	Chdir       kong.ChangeDirFlag `help:"Change to this directory before running." placeholder:"DIR" short:"C"`
	Config      kong.ConfigFlag    `help:"Load flags from this TOML file." placeholder:"FILE"`
	Debug       bool               `help:"Enable debug logging."`
	Log         logging.Config     `embed:"" prefix:"log-"`
	Tags        []string           `help:"Tags to enable during type analysis (will also be read from $GOFLAGS)." placeholder:"TAG"`
	Root        []string           `help:"Only aggregate bindings from these modules and their includes." placeholder:"MODULE" short:"r"`
	Format      report.Format      `help:"Report format (${enum})." enum:"text,json" default:"text"`
	Output      string             `help:"Write the report to this file rather than stdout." placeholder:"FILE" short:"o"`
	Check       bool               `help:"Fail if --output is not up to date, rather than writing it."`
	LockTimeout time.Duration      `help:"Maximum time to wait for the lock on --output." default:"30s"`
	Werror      bool               `help:"Treat warnings as errors."`
	Dest        string             `help:"Destination package directory." arg:"" type:"existingdir"`
	Patterns    []string           `help:"Additional packages pattern to scan." arg:"" optional:""`
}

func main() {
	version := "dev"
	if info, ok := debug.ReadBuildInfo(); ok {
		version = info.Main.Version
	}
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Description("Resolve compile-time dependency injection graphs for Go packages."),
		kong.Configuration(kongtoml.Loader, ".zeroinject.toml", "~/.zeroinject.toml"),
		kong.Vars{"version": version},
	)
	if cli.Debug {
		cli.Log.Level = slog.LevelDebug
	}
	logger := logging.New(os.Stderr, cli.Log)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	err := run(ctx, &cli, logger)
	kctx.FatalIfErrorf(err)
}

func run(ctx context.Context, cli *CLI, logger *slog.Logger) error {
	if cli.Check && cli.Output == "" {
		return errors.Errorf("--check requires --output")
	}

	// Combine explicit tags and tags from GOFLAGS
	tags := append(cli.Tags, parseGoTags()...)

	analysis, err := goanalysis.Analyse(ctx, cli.Dest,
		goanalysis.WithPatterns(cli.Patterns...),
		goanalysis.WithTags(tags...),
		goanalysis.WithLogger(logger),
	)
	if err != nil {
		return errors.WithStack(err)
	}
	analysis.Universe.Roots = cli.Root

	pass, err := depgraph.NewPass(analysis.Universe, depgraph.WithLogger(logger))
	if err != nil {
		return errors.WithStack(err)
	}
	result, err := pass.Run()
	if err != nil {
		return errors.WithStack(err)
	}
	if cli.Werror && len(result.Warnings) > 0 {
		return errors.Errorf("%d warning(s) treated as errors", len(result.Warnings))
	}
	logger.Debug("Resolved", "dest", analysis.Dest, "targets", len(result.Targets), "shared", len(result.Shared))

	doc := report.Build(result)
	if cli.Output == "" {
		return report.Render(os.Stdout, cli.Format, doc)
	}
	return writeOutput(ctx, cli, doc)
}

func writeOutput(ctx context.Context, cli *CLI, doc *report.Document) error {
	release, err := flock.Acquire(ctx, cli.Output+".lock", cli.LockTimeout)
	if err != nil {
		return errors.WithStack(err)
	}
	defer release() //nolint:errcheck

	if cli.Check {
		dir, name := filepath.Split(cli.Output)
		return report.Check(os.DirFS(cmp.Or(dir, ".")), name, cli.Format, doc)
	}
	buf := &bytes.Buffer{}
	if err := report.Render(buf, cli.Format, doc); err != nil {
		return errors.WithStack(err)
	}
	if err := os.WriteFile(cli.Output, buf.Bytes(), 0600); err != nil {
		return errors.Errorf("failed to write report: %w", err)
	}
	return nil
}

func parseGoTags() []string {
	goFlags := os.Getenv("GOFLAGS")
	words, err := shellquote.Split(goFlags)
	if err != nil {
		return nil
	}
	tags := []string{}
	for _, word := range words {
		if tagList, ok := strings.CutPrefix(word, "-tags="); ok {
			tags = append(tags, strings.Split(tagList, ",")...)
		} else if tagList, ok := strings.CutPrefix(word, "--tags="); ok {
			tags = append(tags, strings.Split(tagList, ",")...)
		}
	}
	return tags
}
