// Package goanalysis loads Go packages and extracts the declarations annotated with //inject:... directives into a
// [facts.Universe].
package goanalysis

import (
	"context"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/alecthomas/errors"
	"golang.org/x/mod/modfile"
	"golang.org/x/tools/go/packages"

	"github.com/alecthomas/zeroinject/internal/facts"
	"github.com/alecthomas/zeroinject/internal/logging"
)

// RuntimePackage is the import path of the runtime wrapper types.
const RuntimePackage = "github.com/alecthomas/zeroinject"

// Wrappers maps the Go wrapper types recognised by the analyser to their kind.
var Wrappers = map[string]facts.WrapperKind{
	RuntimePackage + ".Provider": facts.DeferredProvider,
	RuntimePackage + ".Lazy":     facts.Lazy,
	"weak.Pointer":               facts.WeakRef,
	funcWrapper:                  facts.DeferredProvider,
}

type analyseOptions struct {
	// Additional package patterns to search for annotations.
	patterns []string
	tags     []string
	logger   *slog.Logger
}

type Option func(*analyseOptions) error

// WithPatterns adds additional package patterns to search for annotations.
func WithPatterns(patterns ...string) Option {
	return func(o *analyseOptions) error {
		o.patterns = append(o.patterns, patterns...)
		return nil
	}
}

// WithTags sets the build tags used when loading packages.
func WithTags(tags ...string) Option {
	return func(o *analyseOptions) error {
		for _, tag := range tags {
			if strings.ContainsAny(tag, " ,") {
				return errors.Errorf("invalid build tag %q", tag)
			}
		}
		o.tags = append(o.tags, tags...)
		return nil
	}
}

// WithLogger sets the logger used for package loading and declaration traces.
func WithLogger(logger *slog.Logger) Option {
	return func(o *analyseOptions) error {
		if logger == nil {
			return errors.Errorf("logger must not be nil")
		}
		o.logger = logger
		return nil
	}
}

func WithOptions(options ...Option) Option {
	return func(o *analyseOptions) error {
		for _, opt := range options {
			err := opt(o)
			if err != nil {
				return errors.WithStack(err)
			}
		}
		return nil
	}
}

// Analysis is the result of analysing a set of Go packages.
type Analysis struct {
	// Dest is the import path of the destination package, where generated code will live.
	Dest     string
	Universe *facts.Universe
}

// Analyse statically loads Go packages, then collects their //inject:... annotated declarations into a universe
// suitable for resolution.
func Analyse(ctx context.Context, dest string, options ...Option) (*Analysis, error) {
	opts := &analyseOptions{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range options {
		if err := opt(opts); err != nil {
			return nil, errors.WithStack(err)
		}
	}

	destImport, err := importPathForDir(dest)
	if err != nil {
		return nil, errors.Errorf("failed to determine import path for destination directory %s: %w", dest, err)
	}

	a := newAnalyser(destImport, opts.logger)
	cfg := &packages.Config{
		Context: ctx,
		Logf:    logging.Legacy(opts.logger, slog.LevelDebug).Printf,
		Fset:    a.fset,
		Mode: packages.NeedName | packages.NeedFiles | packages.NeedCompiledGoFiles |
			packages.NeedImports | packages.NeedTypes | packages.NeedSyntax |
			packages.NeedTypesInfo,
	}
	if len(opts.tags) > 0 {
		cfg.BuildFlags = []string{"-tags=" + strings.Join(opts.tags, ",")}
	}
	pkgs, err := packages.Load(cfg, append(opts.patterns, dest)...)
	if err != nil {
		return nil, errors.Errorf("failed to load packages: %w", err)
	}

	var loadErrors []error
	found := false
	for _, pkg := range pkgs {
		for _, pkgErr := range pkg.Errors {
			loadErrors = append(loadErrors, errors.Errorf("%s: %s", pkg.PkgPath, pkgErr))
		}
		if pkg.PkgPath == destImport {
			found = true
		}
	}
	if len(loadErrors) > 0 {
		return nil, errors.Errorf("failed to load packages: %w", errors.Join(loadErrors...))
	}
	if !found {
		return nil, errors.Errorf("destination package %q not found", destImport)
	}

	universe, err := a.analyse(pkgs)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return &Analysis{Dest: destImport, Universe: universe}, nil
}

func importPathForDir(dir string) (string, error) {
	if !modfile.IsDirectoryPath(dir) {
		return dir, nil
	}
	root, err := filepath.Abs(dir)
	if err != nil {
		return "", errors.Errorf("failed to get absolute path for directory %s: %w", dir, err)
	}
	dir = root
	// Search up directories for go.mod file
	for {
		if _, err := os.Stat(filepath.Join(root, "go.mod")); err == nil {
			break
		}
		if root == filepath.Dir(root) {
			return "", errors.Errorf("couldn't find a go.mod file above %s", dir)
		}
		root = filepath.Dir(root)
	}
	dir, err = filepath.Rel(root, dir)
	if err != nil {
		return "", errors.Errorf("failed to get relative path for directory %s: %w", dir, err)
	}
	goModPath := filepath.Join(root, "go.mod")
	data, err := os.ReadFile(goModPath) //nolint
	if err != nil {
		return "", errors.Errorf("failed to read go.mod file at %s: %w", goModPath, err)
	}
	mod, err := modfile.Parse(goModPath, data, nil)
	if err != nil {
		return "", errors.Errorf("failed to parse go.mod file at %s: %w", goModPath, err)
	}
	return path.Join(mod.Module.Mod.Path, filepath.ToSlash(dir)), nil
}
