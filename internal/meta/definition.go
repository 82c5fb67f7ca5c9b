package meta

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/zulandar/studio/internal/fieldtype"
	"github.com/zulandar/studio/internal/models"
	"gopkg.in/yaml.v3"
)

// Check is a boolean that also accepts the 0/1 integers used in DocType
// JSON files.
type Check bool

// UnmarshalYAML implements yaml.Unmarshaler.
func (c *Check) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a check value, got a collection", n.Line)
	}
	switch strings.ToLower(n.Value) {
	case "1", "true", "yes":
		*c = true
	case "0", "false", "no", "", "null", "~":
		*c = false
	default:
		return fmt.Errorf("line %d: invalid check value %q", n.Line, n.Value)
	}
	return nil
}

// Definition is a DocType as declared in a schema file. JSON files exported
// by the framework parse as-is; unknown keys are ignored.
type Definition struct {
	Name    string            `yaml:"name"`
	Module  string            `yaml:"module"`
	IsTable Check             `yaml:"istable"`
	Fields  []FieldDefinition `yaml:"fields"`

	// Path is the file the definition was read from, if any.
	Path string `yaml:"-"`
}

// FieldDefinition is one entry of Definition.Fields.
type FieldDefinition struct {
	Fieldname   string `yaml:"fieldname"`
	Label       string `yaml:"label"`
	Fieldtype   string `yaml:"fieldtype"`
	Options     string `yaml:"options"`
	Reqd        Check  `yaml:"reqd"`
	ReadOnly    Check  `yaml:"read_only"`
	Hidden      Check  `yaml:"hidden"`
	InListView  Check  `yaml:"in_list_view"`
	Default     string `yaml:"default"`
	Description string `yaml:"description"`
}

// ParseDefinition decodes a single JSON or YAML DocType definition.
func ParseDefinition(data []byte) (*Definition, error) {
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("meta: parse definition: %w", err)
	}
	for i := range def.Fields {
		if def.Fields[i].Fieldtype == "" {
			def.Fields[i].Fieldtype = string(fieldtype.Data)
		}
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &def, nil
}

// Validate checks the definition for missing names, unknown fieldtypes and
// duplicate fieldnames.
func (d *Definition) Validate() error {
	var errs []string
	if d.Name == "" {
		errs = append(errs, "name is required")
	}
	seen := make(map[string]bool, len(d.Fields))
	for i, f := range d.Fields {
		ft := fieldtype.Type(f.Fieldtype)
		if !fieldtype.Known(ft) {
			errs = append(errs, fmt.Sprintf("fields[%d]: unknown fieldtype %q", i, f.Fieldtype))
		}
		if f.Fieldname == "" {
			if fieldtype.IsValueField(ft) {
				errs = append(errs, fmt.Sprintf("fields[%d]: fieldname is required for %s fields", i, f.Fieldtype))
			}
			continue
		}
		if seen[f.Fieldname] {
			errs = append(errs, fmt.Sprintf("fields[%d]: duplicate fieldname %q", i, f.Fieldname))
		}
		seen[f.Fieldname] = true
	}
	if len(errs) > 0 {
		name := d.Name
		if name == "" {
			name = "<unnamed>"
		}
		return fmt.Errorf("meta: invalid definition %s: %s", name, strings.Join(errs, "; "))
	}
	return nil
}

// Model converts the definition into a DocType row with fields numbered
// from idx 1 in declaration order.
func (d *Definition) Model() models.DocType {
	dt := models.DocType{
		Name:    d.Name,
		Module:  d.Module,
		IsTable: bool(d.IsTable),
		Fields:  make([]models.DocField, 0, len(d.Fields)),
	}
	for i, f := range d.Fields {
		dt.Fields = append(dt.Fields, models.DocField{
			Parent:       d.Name,
			Idx:          i + 1,
			Fieldname:    f.Fieldname,
			Label:        f.Label,
			Fieldtype:    f.Fieldtype,
			Options:      f.Options,
			Reqd:         bool(f.Reqd),
			ReadOnly:     bool(f.ReadOnly),
			Hidden:       bool(f.Hidden),
			InListView:   bool(f.InListView),
			DefaultValue: f.Default,
			Description:  f.Description,
		})
	}
	return dt
}

// isDefinitionFile reports whether path has a supported extension.
func isDefinitionFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}

// LoadDefinitions reads every .json, .yaml and .yml file under dir
// (recursively, in lexical order). Two files declaring the same DocType is
// an error.
func LoadDefinitions(dir string) ([]Definition, error) {
	var defs []Definition
	byName := make(map[string]string)

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isDefinitionFile(path) {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		def, err := ParseDefinition(data)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if prev, ok := byName[def.Name]; ok {
			return fmt.Errorf("doctype %q declared in both %s and %s", def.Name, prev, path)
		}
		byName[def.Name] = path
		def.Path = path
		defs = append(defs, *def)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("meta: load definitions from %s: %w", dir, err)
	}
	return defs, nil
}
