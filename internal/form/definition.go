// internal/form/definition.go
//
// Orderform – Forms subsystem: YAML definition loader.
//
// Context
//   The order page layout is declared in YAML: labels, input types, option
//   lists, and the accept filter of the picture input.  Definitions are
//   embedded under “forms/” and parsed once at start-up into an in-memory
//   registry.  The renderer fetches a definition by ID and pairs each field
//   with the session snapshot, so the layout and the domain model stay in two
//   places that are cross-checked here: every field name must be a known
//   order.Field.
//
// Workflow
//   •  LoadFormDef parses one YAML document and validates structural rules.
//   •  RegisterForms walks an fs.FS for “*.yaml” and fills the registry.
//   •  GetFormDef offers safe, read-only access to a parsed form by ID.
//
//------------------------------------------------------------------------------

package form

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/yanizio/orderform/internal/order"
)

//go:embed forms/*.yaml
var embedded embed.FS

// OrderFormID is the definition rendered on /form.
const OrderFormID = "order"

// -----------------------------------------------------------------------------
// Data structures
// -----------------------------------------------------------------------------

// FormDef represents one form definition loaded from YAML.
type FormDef struct {
	ID     string     `yaml:"id"`     // Registry key.
	Title  string     `yaml:"title"`  // Page heading, optional.
	Submit string     `yaml:"submit"` // Submit button caption.
	Fields []FieldDef `yaml:"fields"` // Rendered in order.
}

// FieldDef describes a single input control.  Required only adds the HTML5
// hint; the authoritative rules live in order.Validate.
type FieldDef struct {
	Name        string   `yaml:"name"`
	Label       string   `yaml:"label"`
	Type        string   `yaml:"type"` // text, date, select, checkbox, checkboxes, radio, file
	Placeholder string   `yaml:"placeholder"`
	Required    bool     `yaml:"required"`
	Options     []string `yaml:"options"`
	Accept      string   `yaml:"accept"` // file inputs only

	field order.Field
}

// Field returns the domain field this control edits.
func (f *FieldDef) Field() order.Field { return f.field }

var fieldTypes = map[string]bool{
	"text":       true,
	"date":       true,
	"select":     true,
	"checkbox":   true,
	"checkboxes": true,
	"radio":      true,
	"file":       true,
}

// -----------------------------------------------------------------------------
// Registry
// -----------------------------------------------------------------------------

var (
	registryMu sync.RWMutex
	registry   = make(map[string]*FormDef)
)

// GetFormDef returns a parsed FormDef by ID.  The boolean is false when the
// ID is unknown.
func GetFormDef(id string) (*FormDef, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	fd, ok := registry[id]
	return fd, ok
}

// MustRegisterEmbedded loads the built-in definitions and panics on error.
// Broken embedded YAML is a build defect, so failing at init is correct.
func MustRegisterEmbedded() {
	if err := RegisterForms(embedded); err != nil {
		panic(err)
	}
}

func init() { MustRegisterEmbedded() }

// -----------------------------------------------------------------------------
// Loader API
// -----------------------------------------------------------------------------

// LoadFormDef parses one YAML document, validates its structure, and returns
// a populated FormDef.  It never mutates the registry.
func LoadFormDef(raw []byte, src string) (*FormDef, error) {
	var fd FormDef
	if err := yaml.Unmarshal(raw, &fd); err != nil {
		return nil, fmt.Errorf("parse YAML %s: %w", src, err)
	}
	if err := validateFormDef(&fd, src); err != nil {
		return nil, err
	}
	return &fd, nil
}

// RegisterForms loads every “*.yaml” in fsys and adds it to the registry.  A
// later file with the same ID overrides an earlier one.
func RegisterForms(fsys fs.FS) error {
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || path.Ext(p) != ".yaml" {
			return nil
		}
		raw, err := fs.ReadFile(fsys, p)
		if err != nil {
			return fmt.Errorf("read form file %s: %w", p, err)
		}
		fd, err := LoadFormDef(raw, p)
		if err != nil {
			return err
		}
		register(fd)
		return nil
	})
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func register(fd *FormDef) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[fd.ID] = fd
}

// -----------------------------------------------------------------------------
// Validation helpers
// -----------------------------------------------------------------------------

// validateFormDef enforces rules that YAML tags cannot express and resolves
// each field name to its order.Field.
func validateFormDef(fd *FormDef, src string) error {
	if fd.ID == "" {
		return fmt.Errorf("form definition %s: missing required 'id'", src)
	}
	if len(fd.Fields) == 0 {
		return fmt.Errorf("form definition %s: must have 'fields'", src)
	}

	seen := make(map[string]struct{}, len(fd.Fields))
	for i := range fd.Fields {
		f := &fd.Fields[i]
		if err := validateField(f, src); err != nil {
			return err
		}
		if _, dup := seen[f.Name]; dup {
			return fmt.Errorf("form %s: duplicate field name '%s'", src, f.Name)
		}
		seen[f.Name] = struct{}{}
	}
	return nil
}

// validateField confirms that essential attributes are present and sane.
func validateField(f *FieldDef, src string) error {
	if f.Name == "" {
		return fmt.Errorf("form %s: field missing 'name'", src)
	}
	fld, ok := order.ParseField(f.Name)
	if !ok {
		return fmt.Errorf("form %s: field '%s' is not an order field", src, f.Name)
	}
	f.field = fld

	if f.Label == "" {
		return fmt.Errorf("form %s: field '%s' missing 'label'", src, f.Name)
	}
	if !fieldTypes[f.Type] {
		return fmt.Errorf("form %s: field '%s' has unsupported type %q", src, f.Name, f.Type)
	}
	switch f.Type {
	case "select", "checkboxes", "radio":
		if len(f.Options) == 0 {
			return fmt.Errorf("form %s: field '%s' needs 'options'", src, f.Name)
		}
	}
	if f.Accept != "" && f.Type != "file" {
		return fmt.Errorf("form %s: field '%s': 'accept' applies to file inputs only", src, f.Name)
	}
	return nil
}
