package loader

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidemark-data/tidemark/internal/dag"
	"github.com/tidemark-data/tidemark/internal/sqlref"
	"github.com/tidemark-data/tidemark/pkg/core"
)

// Loader discovers SQL model files under a directory tree.
type Loader struct {
	logger *slog.Logger
}

// New creates a Loader. A nil logger discards output.
func New(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Loader{logger: logger}
}

// LoadDir walks dir for *.sql files and parses each into a model
// definition. Model names must be unique across the tree.
func (l *Loader) LoadDir(dir string) (map[string]*core.ModelDefinition, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve models directory: %w", err)
	}

	models := make(map[string]*core.ModelDefinition)

	err = filepath.Walk(absDir, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if info.IsDir() || !strings.HasSuffix(info.Name(), ".sql") {
			return nil
		}

		model, err := l.LoadFile(path)
		if err != nil {
			return err
		}

		if existing, ok := models[model.Name]; ok {
			return fmt.Errorf("duplicate model name %q: defined in %s and %s",
				model.Name, existing.FilePath, path)
		}
		models[model.Name] = model

		l.logger.Debug("loaded model", "name", model.Name, "kind", model.Kind, "path", path)
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.logger.Info("models loaded", "dir", absDir, "count", len(models))
	return models, nil
}

// LoadFile parses a single SQL model file.
func (l *Loader) LoadFile(path string) (*core.ModelDefinition, error) {
	content, err := os.ReadFile(path) //nolint:gosec // G304: path comes from filepath.Walk
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return l.Parse(path, string(content))
}

// Parse builds a model definition from raw file content.
func (l *Loader) Parse(path, content string) (*core.ModelDefinition, error) {
	result, err := ExtractFrontmatter(content)
	if err != nil {
		annotateFile(err, path)
		return nil, err
	}

	cfg := result.Config
	cfg.ApplyDefaults(filepath.Base(path))

	if strings.TrimSpace(result.SQL) == "" {
		return nil, &FrontmatterParseError{File: path, Message: "model has no SQL body"}
	}

	return &core.ModelDefinition{
		Name:            cfg.Name,
		Kind:            cfg.ModelKind(),
		RawSQL:          content,
		CleanSQL:        result.SQL,
		ContractMode:    cfg.ContractMode(),
		ContractColumns: cfg.ContractColumns(),
		Dependencies:    append([]string(nil), cfg.DependsOn...),
		Owner:           cfg.Owner,
		Description:     cfg.Description,
		Tags:            append([]string(nil), cfg.Tags...),
		FilePath:        path,
	}, nil
}

// BuildGraph constructs the dependency graph from loaded models.
// Declared depends_on entries are merged with table references found in
// the SQL body; names that do not match a loaded model are treated as
// external sources and skipped. A cycle among models is an error.
func BuildGraph(models map[string]*core.ModelDefinition) (*dag.Graph, error) {
	g := dag.New()

	for name, m := range models {
		g.AddNode(name, m)
	}

	for name, m := range models {
		deps := append([]string(nil), m.Dependencies...)
		// Unparseable SQL contributes no inferred deps.
		if inferred, err := sqlref.ExtractTableRefs(m.CleanSQL); err == nil {
			deps = append(deps, inferred...)
		}

		for _, dep := range deps {
			if dep == name {
				continue // Skip self-references
			}
			if !g.HasNode(dep) {
				continue // External source
			}
			if err := g.AddEdge(dep, name); err != nil {
				return nil, fmt.Errorf("failed to add dependency %s -> %s: %w", dep, name, err)
			}
		}
	}

	if hasCycle, cyclePath := g.HasCycle(); hasCycle {
		return nil, fmt.Errorf("circular dependency detected: %v", cyclePath)
	}

	return g, nil
}

// annotateFile attaches the file path to loader error types.
func annotateFile(err error, path string) {
	switch e := err.(type) {
	case *FrontmatterParseError:
		e.File = path
	case *UnknownFieldError:
		e.File = path
	}
}
