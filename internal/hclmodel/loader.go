package hclmodel

import (
	"context"
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/retracehq/retrace/internal/config"
	"github.com/retracehq/retrace/internal/ctxlog"
	"github.com/retracehq/retrace/internal/schema"
)

// Loader parses .hcl model declaration files into the format-agnostic
// config model.
type Loader struct {
	parser *hclparse.Parser
}

// NewLoader creates a new HCL loader.
func NewLoader() *Loader {
	return &Loader{parser: hclparse.NewParser()}
}

// LoadFile reads and parses a single model declaration file from disk.
func (l *Loader) LoadFile(ctx context.Context, path string) (*config.Document, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading model file: %w", err)
	}
	return l.Parse(ctx, path, src)
}

// Parse parses model declaration source. The filename is used only for
// diagnostics.
func (l *Loader) Parse(ctx context.Context, filename string, src []byte) (*config.Document, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("parsing model declaration file", "file", filename)

	file, diags := l.parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parsing %s: %w", filename, diags)
	}

	var parsed schema.File
	if diags := gohcl.DecodeBody(file.Body, nil, &parsed); diags.HasErrors() {
		return nil, fmt.Errorf("decoding %s: %w", filename, diags)
	}

	doc := &config.Document{Models: make([]*config.Model, 0, len(parsed.Models))}
	for _, m := range parsed.Models {
		translated, err := translateModel(m)
		if err != nil {
			return nil, err
		}
		doc.Models = append(doc.Models, translated)
	}

	logger.Debug("model declaration parsed", "file", filename, "models", len(doc.Models))
	return doc, nil
}
