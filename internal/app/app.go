// Package app wires the declaration loaders, the builder and the engine
// into the command-line workflow: load a model file, apply writes, evaluate
// the requested steps, and optionally sweep one input over several values
// while reusing every cache entry the writes did not invalidate.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/retracehq/retrace"
	"github.com/retracehq/retrace/internal/builder"
	"github.com/retracehq/retrace/internal/config"
	"github.com/retracehq/retrace/internal/ctxlog"
	"github.com/retracehq/retrace/internal/hclmodel"
	"github.com/retracehq/retrace/internal/yamlmodel"
)

// Config holds everything an App needs to run.
type Config struct {
	// ModelPath points at a .hcl or .yaml model declaration file.
	ModelPath string
	// ModelName selects a model when the file declares several. Empty is
	// allowed only for single-model files.
	ModelName string

	// Sets are `input=expression` assignments applied before evaluation.
	Sets []string
	// Evals are the step names to evaluate and print.
	Evals []string
	// Sweep is an `input=v1,v2,...` specification: the input is written
	// each value in turn and the Evals re-evaluated after every write.
	Sweep string

	LogFormat string
	LogLevel  string
}

// NewConfig validates a Config.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.ModelPath == "" {
		return nil, errors.New("ModelPath is a required configuration field and cannot be empty")
	}
	if len(cfg.Evals) == 0 {
		return nil, errors.New("at least one step to evaluate is required")
	}
	return &cfg, nil
}

// App encapsulates the application's dependencies and lifecycle.
type App struct {
	outW   io.Writer
	errW   io.Writer
	logger *slog.Logger
	config *Config
}

// New constructs an App with its own isolated logger. Logs go to errW so
// that outW carries only evaluation results.
func New(outW, errW io.Writer, cfg *Config) *App {
	return &App{
		outW:   outW,
		errW:   errW,
		logger: newLogger(cfg.LogLevel, cfg.LogFormat, errW),
		config: cfg,
	}
}

// Run executes the full workflow for the configured model file.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("app run started", "model_path", a.config.ModelPath)

	doc, err := a.loadDocument(ctx)
	if err != nil {
		return err
	}

	cfgModel, err := a.selectModel(doc)
	if err != nil {
		return err
	}

	model, err := builder.Build(ctx, cfgModel)
	if err != nil {
		return err
	}

	for _, assignment := range a.config.Sets {
		if err := a.applySet(ctx, model, assignment); err != nil {
			return err
		}
	}

	if a.config.Sweep == "" {
		return a.evaluate(ctx, model)
	}
	return a.sweep(ctx, model)
}

// loadDocument picks the declaration front-end by file extension.
func (a *App) loadDocument(ctx context.Context) (*config.Document, error) {
	switch ext := filepath.Ext(a.config.ModelPath); ext {
	case ".hcl":
		return hclmodel.NewLoader().LoadFile(ctx, a.config.ModelPath)
	case ".yaml", ".yml":
		return yamlmodel.LoadFile(ctx, a.config.ModelPath)
	default:
		return nil, fmt.Errorf("unsupported model file extension %q (expected .hcl, .yaml or .yml)", ext)
	}
}

func (a *App) selectModel(doc *config.Document) (*config.Model, error) {
	if a.config.ModelName != "" {
		return doc.ModelByName(a.config.ModelName)
	}
	if len(doc.Models) != 1 {
		return nil, fmt.Errorf("file declares %d models; select one with -model-name", len(doc.Models))
	}
	return doc.Models[0], nil
}

// evaluate runs every requested step once and prints its value.
func (a *App) evaluate(ctx context.Context, model *retrace.Model) error {
	for _, name := range a.config.Evals {
		value, err := model.Evaluate(ctx, name)
		if err != nil {
			return fmt.Errorf("evaluating step '%s': %w", name, err)
		}
		rendered, err := renderValue(value)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.outW, "%s = %s\n", name, rendered)
	}
	return nil
}

// sweep writes the swept input each value in turn and re-evaluates the
// requested steps after every write. Steps outside the written input's
// dependent set keep their caches across iterations.
func (a *App) sweep(ctx context.Context, model *retrace.Model) error {
	inputName, rawValues, err := splitAssignment(a.config.Sweep)
	if err != nil {
		return fmt.Errorf("invalid -sweep: %w", err)
	}

	for _, rawValue := range strings.Split(rawValues, ",") {
		value, err := parseValue(strings.TrimSpace(rawValue))
		if err != nil {
			return fmt.Errorf("invalid sweep value %q: %w", rawValue, err)
		}
		if err := model.SetInput(ctx, inputName, value); err != nil {
			return err
		}

		rendered, err := renderValue(value)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.outW, "-- %s = %s\n", inputName, rendered)

		if err := a.evaluate(ctx, model); err != nil {
			return err
		}
	}
	return nil
}

// applySet parses one `input=expression` assignment and writes it.
func (a *App) applySet(ctx context.Context, model *retrace.Model, assignment string) error {
	name, rawValue, err := splitAssignment(assignment)
	if err != nil {
		return fmt.Errorf("invalid -set: %w", err)
	}
	value, err := parseValue(rawValue)
	if err != nil {
		return fmt.Errorf("invalid value in -set %q: %w", assignment, err)
	}
	return model.SetInput(ctx, name, value)
}

func splitAssignment(s string) (name, rest string, err error) {
	name, rest, ok := strings.Cut(s, "=")
	if !ok || name == "" {
		return "", "", fmt.Errorf("expected name=value, got %q", s)
	}
	return name, rest, nil
}
