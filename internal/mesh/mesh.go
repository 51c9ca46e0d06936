package mesh

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/golang/geo/r3"
	"pkg.jsn.cam/fieldminmax/pkg/minmax"
)

// Mesh is a cell-centred field container: cell centres plus named fields
// stored in the same cell order.
type Mesh struct {
	Cells  []r3.Vector             `json:"cells"`
	Fields map[string]minmax.Field `json:"fields"`
}

// New returns an empty mesh over the given cell centres.
func New(cells []r3.Vector) *Mesh {
	return &Mesh{
		Cells:  cells,
		Fields: make(map[string]minmax.Field),
	}
}

// AddField registers a field, checking it covers every cell.
func (m *Mesh) AddField(f minmax.Field) error {
	if err := m.checkField(f); err != nil {
		return err
	}
	if m.Fields == nil {
		m.Fields = make(map[string]minmax.Field)
	}
	m.Fields[f.Name] = f
	return nil
}

// Validate checks a decoded mesh: every field must be stored under its own
// name and cover every cell.
func (m *Mesh) Validate() error {
	for _, key := range m.FieldNames() {
		f := m.Fields[key]
		if f.Name != key {
			return fmt.Errorf("field %q is stored under key %q", f.Name, key)
		}
		if err := m.checkField(f); err != nil {
			return err
		}
	}
	return nil
}

func (m *Mesh) checkField(f minmax.Field) error {
	if err := f.Validate(); err != nil {
		return err
	}
	if f.Cells() != len(m.Cells) {
		return fmt.Errorf("field %s has %d cells, mesh has %d", f.Name, f.Cells(), len(m.Cells))
	}
	return nil
}

// Field implements minmax.Source.
func (m *Mesh) Field(name string) (minmax.Field, error) {
	f, ok := m.Fields[name]
	if !ok {
		return minmax.Field{}, fmt.Errorf("%s: %w", name, minmax.ErrFieldNotFound)
	}
	return f, nil
}

// Locations implements minmax.Source.
func (m *Mesh) Locations() []r3.Vector {
	return m.Cells
}

// FieldNames returns the registered field names in sorted order.
func (m *Mesh) FieldNames() []string {
	names := make([]string, 0, len(m.Fields))
	for name := range m.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Partition is one subdomain of a decomposed mesh.
type Partition struct {
	Mesh
	ID int `json:"id"`
}

// Load reads a mesh or partition file written by Save.
func Load(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read mesh: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode mesh %s: %w", path, err)
	}
	return nil
}

// Save writes a mesh or partition as JSON.
func Save(path string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode mesh: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write mesh: %w", err)
	}
	return nil
}
