package parsersdk

import (
	"fmt"
	"math"
	"path/filepath"
	"slices"
	"strings"

	"github.com/reglet-dev/parserkit/wireformat"
)

// ConfigValue is the closed set of values a host can supply at init.
type ConfigValue interface {
	// Kind returns the wire discriminator, matching ConfigInput.Kind.
	Kind() string
	isConfigValue()
}

type (
	// BoolValue answers a BooleanInput.
	BoolValue bool
	// IntegerValue answers an IntegerInput.
	IntegerValue int32
	// FloatValue answers a FloatInput.
	FloatValue float32
	// TextValue answers a TextInput.
	TextValue string
	// DropdownValue is the selected option of a DropdownInput.
	DropdownValue string
	// FilesValue lists file paths for a FilesInput.
	FilesValue []string
	// DirectoriesValue lists directory paths for a DirectoriesInput.
	DirectoriesValue []string
)

func (BoolValue) Kind() string        { return wireformat.TypeBoolean }
func (IntegerValue) Kind() string     { return wireformat.TypeInteger }
func (FloatValue) Kind() string       { return wireformat.TypeFloat }
func (TextValue) Kind() string        { return wireformat.TypeText }
func (DropdownValue) Kind() string    { return wireformat.TypeDropdown }
func (FilesValue) Kind() string       { return wireformat.TypeFiles }
func (DirectoriesValue) Kind() string { return wireformat.TypeDirectories }

func (BoolValue) isConfigValue()        {}
func (IntegerValue) isConfigValue()     {}
func (FloatValue) isConfigValue()       {}
func (TextValue) isConfigValue()        {}
func (DropdownValue) isConfigValue()    {}
func (FilesValue) isConfigValue()       {}
func (DirectoriesValue) isConfigValue() {}

// ConfigValueItem is one value resolved by the host, keyed by schema ID.
type ConfigValueItem struct {
	ID    string
	Value ConfigValue
}

// Configs is the validated, ID-indexed view of the values received at init.
type Configs struct {
	values map[string]ConfigValue
}

// Len returns the number of resolved values.
func (c Configs) Len() int {
	return len(c.values)
}

// Value returns the raw value for id.
func (c Configs) Value(id string) (ConfigValue, bool) {
	v, ok := c.values[id]
	return v, ok
}

// Bool returns the boolean value for id.
func (c Configs) Bool(id string) (bool, error) {
	v, err := lookup[BoolValue](c, id)
	return bool(v), err
}

// Integer returns the integer value for id.
func (c Configs) Integer(id string) (int32, error) {
	v, err := lookup[IntegerValue](c, id)
	return int32(v), err
}

// Float returns the float value for id.
func (c Configs) Float(id string) (float32, error) {
	v, err := lookup[FloatValue](c, id)
	return float32(v), err
}

// Text returns the text value for id.
func (c Configs) Text(id string) (string, error) {
	v, err := lookup[TextValue](c, id)
	return string(v), err
}

// Dropdown returns the selected option for id.
func (c Configs) Dropdown(id string) (string, error) {
	v, err := lookup[DropdownValue](c, id)
	return string(v), err
}

// Files returns the file paths for id.
func (c Configs) Files(id string) ([]string, error) {
	v, err := lookup[FilesValue](c, id)
	return slices.Clone(v), err
}

// Directories returns the directory paths for id.
func (c Configs) Directories(id string) ([]string, error) {
	v, err := lookup[DirectoriesValue](c, id)
	return slices.Clone(v), err
}

func lookup[T ConfigValue](c Configs, id string) (T, error) {
	var zero T
	raw, ok := c.values[id]
	if !ok {
		return zero, NewMissingConfigError(id)
	}
	v, ok := raw.(T)
	if !ok {
		return zero, NewInvalidConfigError(id, fmt.Sprintf("expected %s value, got %s", zero.Kind(), raw.Kind()))
	}
	return v, nil
}

// ResolveConfigs checks values against the schema. Every declared ID must be
// present with a value of the declared kind. IDs the schema does not declare
// are returned in unknown and otherwise ignored.
func ResolveConfigs(schema []ConfigSchemaItem, items []ConfigValueItem) (configs Configs, unknown []string, err error) {
	declared := make(map[string]ConfigInput, len(schema))
	for _, s := range schema {
		declared[s.ID] = s.Input
	}

	values := make(map[string]ConfigValue, len(items))
	for _, item := range items {
		input, ok := declared[item.ID]
		if !ok {
			unknown = append(unknown, item.ID)
			continue
		}
		if _, dup := values[item.ID]; dup {
			return Configs{}, unknown, NewInvalidConfigError(item.ID, "value supplied more than once")
		}
		if err := checkValue(input, item.Value); err != nil {
			return Configs{}, unknown, NewInvalidConfigError(item.ID, err.Error())
		}
		values[item.ID] = item.Value
	}

	for _, s := range schema {
		if _, ok := values[s.ID]; !ok {
			return Configs{}, unknown, NewMissingConfigError(s.ID)
		}
	}
	return Configs{values: values}, unknown, nil
}

func checkValue(input ConfigInput, value ConfigValue) error {
	if value == nil {
		return fmt.Errorf("no value")
	}
	if input.Kind() != value.Kind() {
		return fmt.Errorf("expected %s value, got %s", input.Kind(), value.Kind())
	}
	switch in := input.(type) {
	case DropdownInput:
		selected := string(value.(DropdownValue))
		if !slices.Contains(in.Options, selected) {
			return fmt.Errorf("%q is not one of %s", selected, strings.Join(in.Options, ", "))
		}
	case FilesInput:
		for _, path := range value.(FilesValue) {
			if !extensionAllowed(path, in.Extensions) {
				return fmt.Errorf("file %q must have one of the extensions %s", path, strings.Join(in.Extensions, ", "))
			}
		}
	case FloatInput:
		f := float64(value.(FloatValue))
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("float value must be finite")
		}
	}
	return nil
}

func extensionAllowed(path string, allowed []string) bool {
	if len(allowed) == 0 {
		return true
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	for _, a := range allowed {
		if strings.TrimPrefix(strings.ToLower(a), ".") == ext {
			return true
		}
	}
	return false
}
