package config

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	parsersdk "github.com/reglet-dev/parserkit/sdk"
)

// Resolve converts raw values (from YAML, --set flags or prompts) into one
// typed value per schema item, in schema order. Items without a raw value get
// their declared default. Keys the schema does not declare are returned in
// unknown and otherwise ignored.
func Resolve(schema []parsersdk.ConfigSchemaItem, raw map[string]any) (items []parsersdk.ConfigValueItem, unknown []string, err error) {
	declared := make(map[string]bool, len(schema))
	defaults := parsersdk.DefaultConfigs(schema)
	items = make([]parsersdk.ConfigValueItem, 0, len(schema))

	for i, item := range schema {
		declared[item.ID] = true
		v, ok := raw[item.ID]
		if !ok {
			items = append(items, defaults[i])
			continue
		}
		value, err := convert(item, v)
		if err != nil {
			return nil, nil, err
		}
		items = append(items, parsersdk.ConfigValueItem{ID: item.ID, Value: value})
	}

	for id := range raw {
		if !declared[id] {
			unknown = append(unknown, id)
		}
	}
	sort.Strings(unknown)
	return items, unknown, nil
}

// Merge overlays the maps left to right; later maps win.
func Merge(layers ...map[string]any) map[string]any {
	out := make(map[string]any)
	for _, layer := range layers {
		for k, v := range layer {
			out[k] = v
		}
	}
	return out
}

func convert(item parsersdk.ConfigSchemaItem, v any) (parsersdk.ConfigValue, error) {
	invalid := func(format string, args ...any) error {
		return parsersdk.NewInvalidConfigError(item.ID, fmt.Sprintf(format, args...))
	}

	switch item.Input.(type) {
	case parsersdk.BooleanInput:
		switch b := v.(type) {
		case bool:
			return parsersdk.BoolValue(b), nil
		case string:
			parsed, err := strconv.ParseBool(strings.TrimSpace(b))
			if err != nil {
				return nil, invalid("%q is not a boolean", b)
			}
			return parsersdk.BoolValue(parsed), nil
		}
		return nil, invalid("expected a boolean, got %T", v)

	case parsersdk.IntegerInput:
		n, err := toInt64(v)
		if err != nil {
			return nil, invalid("%v", err)
		}
		if n < math.MinInt32 || n > math.MaxInt32 {
			return nil, invalid("%d is out of the 32-bit integer range", n)
		}
		return parsersdk.IntegerValue(int32(n)), nil //nolint:gosec // G115: range checked above

	case parsersdk.FloatInput:
		f, err := toFloat64(v)
		if err != nil {
			return nil, invalid("%v", err)
		}
		if math.Abs(f) > math.MaxFloat32 {
			return nil, invalid("%g is out of the 32-bit float range", f)
		}
		return parsersdk.FloatValue(float32(f)), nil

	case parsersdk.TextInput:
		s, ok := scalarString(v)
		if !ok {
			return nil, invalid("expected text, got %T", v)
		}
		return parsersdk.TextValue(s), nil

	case parsersdk.DropdownInput:
		s, ok := v.(string)
		if !ok {
			return nil, invalid("expected one of the dropdown options, got %T", v)
		}
		return parsersdk.DropdownValue(s), nil

	case parsersdk.FilesInput:
		paths, err := toPaths(v)
		if err != nil {
			return nil, invalid("%v", err)
		}
		return parsersdk.FilesValue(paths), nil

	case parsersdk.DirectoriesInput:
		paths, err := toPaths(v)
		if err != nil {
			return nil, invalid("%v", err)
		}
		return parsersdk.DirectoriesValue(paths), nil
	}
	return nil, invalid("unsupported input type %T", item.Input)
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	case uint64:
		if n > math.MaxInt64 {
			return 0, fmt.Errorf("%d is out of range", n)
		}
		return int64(n), nil
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("%g is not a whole number", n)
		}
		return int64(n), nil
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%q is not an integer", n)
		}
		return parsed, nil
	}
	return 0, fmt.Errorf("expected an integer, got %T", v)
}

func toFloat64(v any) (float64, error) {
	switch n := v.(type) {
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	case float64:
		return n, nil
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, fmt.Errorf("%q is not a number", n)
		}
		return parsed, nil
	}
	return 0, fmt.Errorf("expected a number, got %T", v)
}

func scalarString(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case bool, int, int64, uint64, float64:
		return fmt.Sprint(s), true
	}
	return "", false
}

// toPaths accepts a YAML list of strings or a comma-separated string.
func toPaths(v any) ([]string, error) {
	switch p := v.(type) {
	case []any:
		out := make([]string, 0, len(p))
		for i, item := range p {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("entry %d is %T, expected a path", i, item)
			}
			out = append(out, s)
		}
		return out, nil
	case []string:
		return append([]string(nil), p...), nil
	case string:
		if strings.TrimSpace(p) == "" {
			return []string{}, nil
		}
		parts := strings.Split(p, ",")
		out := make([]string, 0, len(parts))
		for _, part := range parts {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out, nil
	}
	return nil, fmt.Errorf("expected a list of paths, got %T", v)
}
