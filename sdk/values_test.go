package parsersdk

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveConfigs(t *testing.T) {
	schema := []ConfigSchemaItem{
		NewConfigSchemaItem("mode", "Mode", "", DropdownInput{Options: []string{"fast", "slow"}, Default: "fast"}),
		NewConfigSchemaItem("limit", "Limit", "", IntegerInput{Default: 10}),
		NewConfigSchemaItem("ratio", "Ratio", "", FloatInput{Default: 0.5}),
		NewConfigSchemaItem("dirs", "Dirs", "", DirectoriesInput{}),
	}

	tests := []struct {
		name    string
		items   []ConfigValueItem
		kind    InitErrorKind
		wantErr bool
	}{
		{
			name:  "defaults resolve",
			items: DefaultConfigs(schema),
		},
		{
			name: "dropdown option not declared",
			items: []ConfigValueItem{
				{ID: "mode", Value: DropdownValue("medium")},
				{ID: "limit", Value: IntegerValue(1)},
				{ID: "ratio", Value: FloatValue(1)},
				{ID: "dirs", Value: DirectoriesValue{"/tmp"}},
			},
			wantErr: true,
			kind:    InitInvalidConfig,
		},
		{
			name: "nan float",
			items: []ConfigValueItem{
				{ID: "mode", Value: DropdownValue("slow")},
				{ID: "limit", Value: IntegerValue(1)},
				{ID: "ratio", Value: FloatValue(float32(math.NaN()))},
				{ID: "dirs", Value: DirectoriesValue{}},
			},
			wantErr: true,
			kind:    InitInvalidConfig,
		},
		{
			name: "duplicate id",
			items: []ConfigValueItem{
				{ID: "mode", Value: DropdownValue("slow")},
				{ID: "mode", Value: DropdownValue("fast")},
			},
			wantErr: true,
			kind:    InitInvalidConfig,
		},
		{
			name:    "missing id",
			items:   []ConfigValueItem{{ID: "mode", Value: DropdownValue("slow")}},
			wantErr: true,
			kind:    InitMissingConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configs, _, err := ResolveConfigs(schema, tt.items)
			if tt.wantErr {
				var initErr *InitError
				require.ErrorAs(t, err, &initErr)
				assert.Equal(t, tt.kind, initErr.Kind)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, len(schema), configs.Len())
		})
	}
}

func TestResolveConfigs_ReportsUnknown(t *testing.T) {
	_, unknown, err := ResolveConfigs(nil, []ConfigValueItem{
		{ID: "a", Value: BoolValue(true)},
		{ID: "b", Value: TextValue("x")},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, unknown)
}

func TestConfigs_TypedAccessors(t *testing.T) {
	schema := []ConfigSchemaItem{
		NewConfigSchemaItem("n", "N", "", IntegerInput{}),
		NewConfigSchemaItem("f", "F", "", FilesInput{Extensions: []string{".JSON"}}),
	}
	configs, _, err := ResolveConfigs(schema, []ConfigValueItem{
		{ID: "n", Value: IntegerValue(42)},
		{ID: "f", Value: FilesValue{"a.json", "b.Json"}},
	})
	require.NoError(t, err)

	n, err := configs.Integer("n")
	require.NoError(t, err)
	assert.Equal(t, int32(42), n)

	files, err := configs.Files("f")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.json", "b.Json"}, files)

	_, err = configs.Text("n")
	var initErr *InitError
	require.ErrorAs(t, err, &initErr)
	assert.Equal(t, InitInvalidConfig, initErr.Kind)

	_, err = configs.Bool("absent")
	require.ErrorAs(t, err, &initErr)
	assert.Equal(t, InitMissingConfig, initErr.Kind)
}

func TestValidateSchemas_UniqueIDs(t *testing.T) {
	items := []ConfigSchemaItem{
		NewConfigSchemaItem("a", "A", "", BooleanInput{}),
		NewConfigSchemaItem("b", "B", "", TextInput{}),
	}
	require.NoError(t, ValidateSchemas(items))

	items = append(items, NewConfigSchemaItem("", "Empty", "", TextInput{}))
	assert.ErrorContains(t, ValidateSchemas(items), "empty id")

	missing := []ConfigSchemaItem{{ID: "x", Title: "X"}}
	assert.ErrorContains(t, ValidateSchemas(missing), "missing input type")
}

func TestDefaultConfigs_FollowSchemaOrder(t *testing.T) {
	schema := []ConfigSchemaItem{
		NewConfigSchemaItem("z", "Z", "", FloatInput{Default: 1.5}),
		NewConfigSchemaItem("a", "A", "", BooleanInput{Default: true}),
	}
	got := DefaultConfigs(schema)
	assert.Equal(t, []ConfigValueItem{
		{ID: "z", Value: FloatValue(1.5)},
		{ID: "a", Value: BoolValue(true)},
	}, got)
}
