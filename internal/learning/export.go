package learning

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// ExportVersion is written into every export envelope.
const ExportVersion = "1.0"

//go:embed export_schema.json
var exportSchemaJSON []byte

var (
	exportSchemaOnce sync.Once
	exportSchema     *jsonschema.Schema
	exportSchemaErr  error
)

// Export is the portable form of a single path.
type Export struct {
	Path       LearningPath `json:"path"`
	ExportedAt time.Time    `json:"exportedAt"`
	Version    string       `json:"version"`
}

// ExportPath encodes the path with id as an indented JSON envelope.
func (m *Manager) ExportPath(id string) ([]byte, error) {
	p := m.find(id)
	if p == nil {
		return nil, fmt.Errorf("export %q: %w", id, ErrPathNotFound)
	}
	data, err := json.MarshalIndent(Export{
		Path:       p.clone(),
		ExportedAt: m.now().UTC(),
		Version:    ExportVersion,
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode export: %w", err)
	}
	return data, nil
}

// ImportPath creates a new path from an export envelope. The path is named
// "<name> (Imported)" and receives the exported modules in order with
// their progress reset.
func (m *Manager) ImportPath(data []byte) (LearningPath, error) {
	if err := validateExport(data); err != nil {
		return LearningPath{}, err
	}
	var env Export
	if err := json.Unmarshal(data, &env); err != nil {
		return LearningPath{}, fmt.Errorf("decode export: %w", err)
	}

	created := m.CreatePath(CreatePathInput{
		Name:        env.Path.Name + " (Imported)",
		Description: env.Path.Description,
		Color:       env.Path.Color,
		Tags:        env.Path.Tags,
	})
	p := m.find(created.ID)
	now := m.now()
	for _, mod := range env.Path.Modules {
		p.AddModule(resetModule(mod, p.ID, now), now)
	}
	m.persist()
	return p.clone(), nil
}

// DuplicatePath creates a copy of the path with id, modules included,
// named "<name> (Copy)".
func (m *Manager) DuplicatePath(id string) (LearningPath, bool) {
	src := m.find(id)
	if src == nil {
		return LearningPath{}, false
	}
	desc := src.Description
	if desc != "" {
		desc += " (Copy)"
	}
	return m.CreatePath(CreatePathInput{
		Name:           src.Name + " (Copy)",
		Description:    desc,
		Color:          src.Color,
		Tags:           slices.Clone(src.Tags),
		CopyFromPathID: src.ID,
	}), true
}

func validateExport(data []byte) error {
	exportSchemaOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(exportSchemaJSON))
		if err != nil {
			exportSchemaErr = fmt.Errorf("parse export schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource("schema://path-export.json", doc); err != nil {
			exportSchemaErr = fmt.Errorf("add resource: %w", err)
			return
		}
		exportSchema, exportSchemaErr = c.Compile("schema://path-export.json")
	})
	if exportSchemaErr != nil {
		return exportSchemaErr
	}

	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if err := exportSchema.Validate(doc); err != nil {
		return fmt.Errorf("invalid import data format: %w", err)
	}
	return nil
}
