// Package loader reads SQL model files with YAML frontmatter headers.
package loader

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/tidemark-data/tidemark/pkg/core"
	"gopkg.in/yaml.v3"
)

// FrontmatterConfig represents parsed YAML frontmatter.
// Unknown fields cause parse errors (use Meta for extensions).
type FrontmatterConfig struct {
	Name        string          `yaml:"name"`
	Description string          `yaml:"description"`
	Kind        string          `yaml:"kind"` // full_refresh, incremental_by_time_range, append_only, merge_by_key
	DependsOn   []string        `yaml:"depends_on"`
	Contract    *ContractConfig `yaml:"contract"`
	Owner       string          `yaml:"owner"`
	Tags        []string        `yaml:"tags"`
	Meta        map[string]any  `yaml:"meta"` // Extension point for custom fields
}

// ContractConfig declares an output schema contract for a model.
type ContractConfig struct {
	Mode    string                 `yaml:"mode"` // enforced or disabled
	Columns []ContractColumnConfig `yaml:"columns"`
}

// ContractColumnConfig declares a single contracted column.
type ContractColumnConfig struct {
	Name     string `yaml:"name"`
	Type     string `yaml:"type"`
	Nullable *bool  `yaml:"nullable"` // nil means nullable
}

// FrontmatterResult holds the result of frontmatter extraction.
type FrontmatterResult struct {
	Config  *FrontmatterConfig
	SQL     string // SQL content after frontmatter
	HasYAML bool   // Whether frontmatter was found
}

// frontmatterPattern matches /*--- ... ---*/ blocks
// The pattern allows optional content between the delimiters
var frontmatterPattern = regexp.MustCompile(`(?s)^\s*/\*---\s*\n(.*?)\s*---\*/`)

// ExtractFrontmatter extracts YAML frontmatter from SQL content.
// Returns the parsed config, remaining SQL, and any error.
func ExtractFrontmatter(content string) (*FrontmatterResult, error) {
	result := &FrontmatterResult{
		Config:  &FrontmatterConfig{},
		SQL:     content,
		HasYAML: false,
	}

	matches := frontmatterPattern.FindStringSubmatch(content)
	if len(matches) < 2 {
		// No frontmatter found, return content as-is
		return result, nil
	}

	result.HasYAML = true
	yamlContent := matches[1]

	// Remove the frontmatter block from SQL
	result.SQL = strings.TrimSpace(frontmatterPattern.ReplaceAllString(content, ""))

	// Parse YAML with strict mode to reject unknown fields
	config, err := parseFrontmatterYAML(yamlContent)
	if err != nil {
		return nil, err
	}

	result.Config = config
	return result, nil
}

// validKinds maps accepted frontmatter kind strings to core kinds.
var validKinds = map[string]core.ModelKind{
	"full_refresh":              core.KindFullRefresh,
	"incremental_by_time_range": core.KindIncrementalByTimeRange,
	"append_only":               core.KindAppendOnly,
	"merge_by_key":              core.KindMergeByKey,
}

// parseFrontmatterYAML parses YAML content with strict field validation.
func parseFrontmatterYAML(yamlContent string) (*FrontmatterConfig, error) {
	// First, decode into a map to check for unknown fields
	var rawMap map[string]any
	if err := yaml.Unmarshal([]byte(yamlContent), &rawMap); err != nil {
		return nil, &FrontmatterParseError{
			Message: fmt.Sprintf("invalid YAML: %v", err),
		}
	}

	// Check for unknown fields
	knownFields := map[string]bool{
		"name":        true,
		"description": true,
		"kind":        true,
		"depends_on":  true,
		"contract":    true,
		"owner":       true,
		"tags":        true,
		"meta":        true,
	}

	for field := range rawMap {
		if !knownFields[field] {
			return nil, &UnknownFieldError{
				Field: field,
			}
		}
	}

	var config FrontmatterConfig
	if err := yaml.Unmarshal([]byte(yamlContent), &config); err != nil {
		return nil, &FrontmatterParseError{
			Message: fmt.Sprintf("failed to parse frontmatter: %v", err),
		}
	}

	// Validate kind value if present
	if config.Kind != "" {
		if _, ok := validKinds[strings.ToLower(config.Kind)]; !ok {
			return nil, &FrontmatterParseError{
				Message: fmt.Sprintf("invalid kind: %q, must be one of: full_refresh, incremental_by_time_range, append_only, merge_by_key", config.Kind),
			}
		}
	}

	// Validate contract mode if present
	if config.Contract != nil && config.Contract.Mode != "" {
		mode := strings.ToLower(config.Contract.Mode)
		if mode != "enforced" && mode != "disabled" {
			return nil, &FrontmatterParseError{
				Message: fmt.Sprintf("invalid contract mode: %q, must be \"enforced\" or \"disabled\"", config.Contract.Mode),
			}
		}
	}

	return &config, nil
}

// ApplyDefaults applies default values to a FrontmatterConfig based on file context.
func (c *FrontmatterConfig) ApplyDefaults(filename string) {
	// Default name from filename (without .sql extension)
	if c.Name == "" {
		c.Name = strings.TrimSuffix(filename, ".sql")
	}

	// Default kind to full refresh
	if c.Kind == "" {
		c.Kind = "full_refresh"
	}
}

// ModelKind returns the core kind for the configured kind string.
// ApplyDefaults must have run first.
func (c *FrontmatterConfig) ModelKind() core.ModelKind {
	return validKinds[strings.ToLower(c.Kind)]
}

// ContractMode returns the core contract mode for the configured contract.
func (c *FrontmatterConfig) ContractMode() core.ContractMode {
	if c.Contract == nil || strings.ToLower(c.Contract.Mode) != "enforced" {
		return core.ContractDisabled
	}
	return core.ContractEnforced
}

// ContractColumns converts the declared contract columns to core types.
func (c *FrontmatterConfig) ContractColumns() []core.ContractColumn {
	if c.Contract == nil || len(c.Contract.Columns) == 0 {
		return nil
	}
	cols := make([]core.ContractColumn, 0, len(c.Contract.Columns))
	for _, col := range c.Contract.Columns {
		nullable := true
		if col.Nullable != nil {
			nullable = *col.Nullable
		}
		cols = append(cols, core.ContractColumn{
			Name:     col.Name,
			DataType: col.Type,
			Nullable: nullable,
		})
	}
	return cols
}

// FrontmatterParseError represents a frontmatter parsing error.
type FrontmatterParseError struct {
	File    string
	Line    int
	Message string
}

func (e *FrontmatterParseError) Error() string {
	if e.File != "" {
		if e.Line > 0 {
			return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Message)
		}
		return fmt.Sprintf("%s: %s", e.File, e.Message)
	}
	return e.Message
}

// UnknownFieldError represents an error for unknown frontmatter fields.
type UnknownFieldError struct {
	File  string
	Field string
}

func (e *UnknownFieldError) Error() string {
	msg := fmt.Sprintf("unknown field %q in frontmatter, use \"meta\" field for custom fields", e.Field)
	if e.File != "" {
		return fmt.Sprintf("%s: %s", e.File, msg)
	}
	return msg
}
