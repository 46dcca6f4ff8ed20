package protocol

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/apistol78/replica/shared/netconfig"
	"github.com/apistol78/replica/shared/replica"
)

// SchemaFile is the YAML form of a set of replication schemas, for entity
// types defined by game data rather than code.
type SchemaFile struct {
	Schemas []SchemaDef `yaml:"schemas"`
}

type SchemaDef struct {
	ID     uint8      `yaml:"id"`
	Name   string     `yaml:"name"`
	Fields []FieldDef `yaml:"fields"`
}

// FieldDef describes one field. Which keys apply depends on Kind.
type FieldDef struct {
	Kind         string   `yaml:"kind"` // boolean, float, vector4, direction, transform, bodystate
	Debounce     *float32 `yaml:"debounce,omitempty"`
	Min          float32  `yaml:"min,omitempty"`
	Max          float32  `yaml:"max,omitempty"`
	LowPrecision bool     `yaml:"lowPrecision,omitempty"`
	FixedW       *float32 `yaml:"fixedW,omitempty"`
	Extent       float32  `yaml:"extent,omitempty"`
	LinearError  float32  `yaml:"linearError,omitempty"`
	AngularError float32  `yaml:"angularError,omitempty"`
}

// Template builds the value template a field describes.
func (f FieldDef) Template() (replica.ValueTemplate, error) {
	switch f.Kind {
	case "boolean":
		debounce := netconfig.Replication.Debounce
		if f.Debounce != nil {
			debounce = *f.Debounce
		}
		return replica.NewBooleanTemplate(debounce), nil
	case "float":
		if f.Max <= f.Min {
			return nil, fmt.Errorf("float field: max %v must exceed min %v", f.Max, f.Min)
		}
		return replica.NewFloatTemplate(f.Min, f.Max, f.LowPrecision), nil
	case "vector4", "direction":
		var opts []replica.Vector4Option
		if f.FixedW != nil {
			opts = append(opts, replica.WithFixedW(*f.FixedW))
		}
		if f.Extent > 0 {
			opts = append(opts, replica.WithExtent(f.Extent))
		}
		if f.Kind == "direction" {
			return replica.NewDirectionTemplate(f.LowPrecision, opts...), nil
		}
		return replica.NewVector4Template(f.LowPrecision, opts...), nil
	case "transform":
		return replica.NewTransformTemplate(f.Extent), nil
	case "bodystate":
		linear, angular := f.LinearError, f.AngularError
		if linear <= 0 {
			linear = netconfig.Replication.LinearError
		}
		if angular <= 0 {
			angular = netconfig.Replication.AngularError
		}
		var opts []replica.BodyStateOption
		if f.Extent > 0 {
			opts = append(opts, replica.WithBodyExtent(f.Extent))
		}
		return replica.NewBodyStateTemplate(linear, angular, opts...), nil
	default:
		return nil, fmt.Errorf("unknown field kind %q", f.Kind)
	}
}

// StateTemplate builds the schema.
func (d SchemaDef) StateTemplate() (*replica.StateTemplate, error) {
	templates := make([]replica.ValueTemplate, 0, len(d.Fields))
	for i, f := range d.Fields {
		t, err := f.Template()
		if err != nil {
			return nil, fmt.Errorf("schema %q field %d: %w", d.Name, i, err)
		}
		templates = append(templates, t)
	}
	st, err := replica.NewStateTemplate(templates...)
	if err != nil {
		return nil, fmt.Errorf("schema %q: %w", d.Name, err)
	}
	return st, nil
}

// LoadSchemas parses a schema file and registers every schema in it. A file
// with any invalid schema registers nothing.
func LoadSchemas(r io.Reader) error {
	var file SchemaFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return fmt.Errorf("decode schema file: %w", err)
	}
	entries := make([]entry, 0, len(file.Schemas))
	for _, def := range file.Schemas {
		st, err := def.StateTemplate()
		if err != nil {
			return err
		}
		entries = append(entries, entry{id: def.ID, name: def.Name, schema: st})
	}
	return registerAll(entries)
}

// LoadSchemaFile is LoadSchemas for a path on disk.
func LoadSchemaFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open schema file: %w", err)
	}
	defer f.Close()
	return LoadSchemas(f)
}
