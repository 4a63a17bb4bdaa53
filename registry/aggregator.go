package registry

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/vitalvas/autoswag/inference"
	"github.com/vitalvas/autoswag/openapi"
	"github.com/vitalvas/autoswag/rules"
	"github.com/vitalvas/autoswag/source"
)

// Kind is a class of schema sources.
type Kind string

const (
	KindInterfaces Kind = "interfaces"
	KindModels     Kind = "models"
	KindValidators Kind = "validators"
	KindEnums      Kind = "enums"
)

// ErrValidatorScanAborted marks the validator failure that stopped the
// validator kind.
var ErrValidatorScanAborted = errors.New("validator scan aborted")

// SourceError is a failure to load one source file.
type SourceError struct {
	Kind Kind
	Path string
	Err  error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Kind, e.Path, e.Err)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

// Paths lists the source directory of each kind. An empty path disables the
// kind.
type Paths struct {
	Interfaces string
	Models     string
	Validators string
	Enums      string
}

// Options configures an Aggregator.
type Options struct {
	Paths Paths

	// SnakeCase converts model field names to snake_case.
	SnakeCase bool
}

// Aggregator scans source directories into a Registry.
type Aggregator struct {
	registry *Registry
	opts     Options
	engine   *inference.Engine
	logger   *zap.Logger
	failures []*SourceError
}

// NewAggregator creates an aggregator filling reg.
func NewAggregator(reg *Registry, opts Options, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{
		registry: reg,
		opts:     opts,
		engine:   inference.New(logger.Named("inference")),
		logger:   logger,
	}
}

// Registry returns the registry being filled.
func (a *Aggregator) Registry() *Registry {
	return a.registry
}

// Failures returns the source errors of the last Scan.
func (a *Aggregator) Failures() []*SourceError {
	return a.failures
}

// Scan loads the kinds in order: interfaces, models, validators, enums. A
// later kind overwrites names registered by an earlier one, and interfaces
// only inherit from schemas registered before them.
//
// Interface, model and enum files that fail are logged and skipped. The first
// failing validator file stops the remaining validator files. Scan only
// returns an error for a cancelled context or a frozen registry.
func (a *Aggregator) Scan(ctx context.Context) error {
	if a.registry.Frozen() {
		return ErrFrozen
	}
	a.failures = nil

	steps := []struct {
		kind Kind
		dir  string
		exts []string
		load func(ctx context.Context, path string) error
	}{
		{KindInterfaces, a.opts.Paths.Interfaces, []string{".ts"}, a.loadInterfaces},
		{KindModels, a.opts.Paths.Models, []string{".ts"}, a.loadModel},
		{KindValidators, a.opts.Paths.Validators, []string{".yml", ".yaml"}, a.loadValidators},
		{KindEnums, a.opts.Paths.Enums, []string{".ts"}, a.loadEnums},
	}

	for _, step := range steps {
		files, err := a.files(step.kind, step.dir, step.exts)
		if err != nil {
			a.fail(step.kind, step.dir, err)
			continue
		}

		for _, path := range files {
			if err := ctx.Err(); err != nil {
				return err
			}

			if err := step.load(ctx, path); err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}

				if step.kind == KindValidators {
					a.fail(step.kind, path, fmt.Errorf("%w: %w", ErrValidatorScanAborted, err))
					break
				}
				a.fail(step.kind, path, err)
			}
		}
	}

	a.logger.Info("schemas loaded",
		zap.Int("schemas", a.registry.Len()),
		zap.Int("failures", len(a.failures)),
	)

	return nil
}

func (a *Aggregator) fail(kind Kind, path string, err error) {
	serr := &SourceError{Kind: kind, Path: path, Err: err}
	a.failures = append(a.failures, serr)
	a.logger.Error("failed to load schema source",
		zap.String("kind", string(kind)),
		zap.String("path", path),
		zap.Error(err),
	)
}

// files lists the source files of a kind in lexical order. A missing
// directory yields no files; files of other types (README.md included) are
// ignored.
func (a *Aggregator) files(kind Kind, dir string, exts []string) ([]string, error) {
	if dir == "" {
		return nil, nil
	}

	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		a.logger.Debug("schema source directory does not exist",
			zap.String("kind", string(kind)),
			zap.String("path", dir),
		)
		return nil, nil
	}

	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !hasExt(d.Name(), exts) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}

	a.logger.Debug("found schema sources",
		zap.String("kind", string(kind)),
		zap.Strings("files", files),
	)

	return files, nil
}

func hasExt(name string, exts []string) bool {
	for _, ext := range exts {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

func (a *Aggregator) register(name string, s *openapi.Schema) error {
	if err := a.registry.Register(name, s); err != nil {
		return fmt.Errorf("register %s: %w", name, err)
	}
	return nil
}

func (a *Aggregator) loadInterfaces(_ context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	p := source.DeclarationParser{Schemas: a.registry}
	for _, named := range p.Parse(string(data)) {
		if err := a.register(named.Name, named.Schema); err != nil {
			return err
		}
	}
	return nil
}

func (a *Aggregator) loadModel(_ context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	p := source.ModelParser{SnakeCase: a.opts.SnakeCase}
	m := p.Parse(string(data))
	if m.Name == "" {
		m.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	return a.register(m.Name, m.Schema())
}

func (a *Aggregator) loadValidators(ctx context.Context, path string) error {
	named, err := rules.LoadFile(path)
	if err != nil {
		return err
	}

	for _, nv := range named {
		s, err := a.engine.Infer(ctx, nv.Validator)
		if err != nil {
			return fmt.Errorf("%s: %w", nv.Name, err)
		}
		s.Description = nv.Name + " (Validator)"

		if err := a.register(nv.Name, s); err != nil {
			return err
		}
	}
	return nil
}

func (a *Aggregator) loadEnums(_ context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	for _, named := range (source.EnumParser{}).Parse(string(data)) {
		if err := a.register(named.Name, named.Schema); err != nil {
			return err
		}
	}
	return nil
}
