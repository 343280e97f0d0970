package parsersdk

import (
	"fmt"
	"slices"

	"github.com/reglet-dev/parserkit/wireformat"
)

// ConfigInput is the closed set of input kinds a plugin can declare. Switch on the
// concrete type; the set is sealed by an unexported method.
type ConfigInput interface {
	// Kind returns the wire discriminator ("boolean", "text", ...).
	Kind() string
	isConfigInput()
}

// BooleanInput is a checkbox with a default.
type BooleanInput struct {
	Default bool
}

// TextInput is free text with a default.
type TextInput struct {
	Default string
}

// DropdownInput selects one of Options.
type DropdownInput struct {
	Options []string
	Default string
}

// FilesInput is a list of file paths. Empty Extensions allows any file.
type FilesInput struct {
	Extensions []string
}

// DirectoriesInput is a list of directory paths.
type DirectoriesInput struct{}

// IntegerInput is a 32-bit integer with a default.
type IntegerInput struct {
	Default int32
}

// FloatInput is a 32-bit float with a default.
type FloatInput struct {
	Default float32
}

func (BooleanInput) Kind() string     { return wireformat.TypeBoolean }
func (TextInput) Kind() string        { return wireformat.TypeText }
func (DropdownInput) Kind() string    { return wireformat.TypeDropdown }
func (FilesInput) Kind() string       { return wireformat.TypeFiles }
func (DirectoriesInput) Kind() string { return wireformat.TypeDirectories }
func (IntegerInput) Kind() string     { return wireformat.TypeInteger }
func (FloatInput) Kind() string       { return wireformat.TypeFloat }

func (BooleanInput) isConfigInput()     {}
func (TextInput) isConfigInput()        {}
func (DropdownInput) isConfigInput()    {}
func (FilesInput) isConfigInput()       {}
func (DirectoriesInput) isConfigInput() {}
func (IntegerInput) isConfigInput()     {}
func (FloatInput) isConfigInput()       {}

// ConfigSchemaItem declares one configuration input a plugin wants from the host.
type ConfigSchemaItem struct {
	ID          string
	Title       string
	Description *string
	Input       ConfigInput
}

// NewConfigSchemaItem builds a schema item. An empty description is omitted.
func NewConfigSchemaItem(id, title, description string, input ConfigInput) ConfigSchemaItem {
	item := ConfigSchemaItem{ID: id, Title: title, Input: input}
	if description != "" {
		item.Description = &description
	}
	return item
}

// ValidateSchemas checks that every item has an ID, that IDs are unique and that
// inputs are well formed.
func ValidateSchemas(items []ConfigSchemaItem) error {
	seen := make(map[string]struct{}, len(items))
	for i, item := range items {
		if item.ID == "" {
			return fmt.Errorf("config schema item %d: empty id", i)
		}
		if _, dup := seen[item.ID]; dup {
			return fmt.Errorf("config schema item %d: duplicate id %q", i, item.ID)
		}
		seen[item.ID] = struct{}{}

		switch in := item.Input.(type) {
		case nil:
			return fmt.Errorf("config schema item %q: missing input type", item.ID)
		case DropdownInput:
			if len(in.Options) == 0 {
				return fmt.Errorf("config schema item %q: dropdown without options", item.ID)
			}
			if !slices.Contains(in.Options, in.Default) {
				return fmt.Errorf("config schema item %q: dropdown default %q is not an option", item.ID, in.Default)
			}
		}
	}
	return nil
}

// CloneSchemas returns a deep copy of items.
func CloneSchemas(items []ConfigSchemaItem) []ConfigSchemaItem {
	out := make([]ConfigSchemaItem, len(items))
	for i, item := range items {
		out[i] = item
		if item.Description != nil {
			d := *item.Description
			out[i].Description = &d
		}
		switch in := item.Input.(type) {
		case DropdownInput:
			out[i].Input = DropdownInput{Options: slices.Clone(in.Options), Default: in.Default}
		case FilesInput:
			out[i].Input = FilesInput{Extensions: slices.Clone(in.Extensions)}
		}
	}
	return out
}

// DefaultConfigs returns one value per schema item, taken from the declared
// defaults. Files and directories default to empty lists.
func DefaultConfigs(items []ConfigSchemaItem) []ConfigValueItem {
	out := make([]ConfigValueItem, 0, len(items))
	for _, item := range items {
		var v ConfigValue
		switch in := item.Input.(type) {
		case BooleanInput:
			v = BoolValue(in.Default)
		case TextInput:
			v = TextValue(in.Default)
		case DropdownInput:
			v = DropdownValue(in.Default)
		case FilesInput:
			v = FilesValue{}
		case DirectoriesInput:
			v = DirectoriesValue{}
		case IntegerInput:
			v = IntegerValue(in.Default)
		case FloatInput:
			v = FloatValue(in.Default)
		default:
			continue
		}
		out = append(out, ConfigValueItem{ID: item.ID, Value: v})
	}
	return out
}
