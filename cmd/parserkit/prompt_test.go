package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reglet-dev/parserkit/internal/infrastructure/config"
	parsersdk "github.com/reglet-dev/parserkit/sdk"
)

func promptSchemas() []parsersdk.ConfigSchemaItem {
	return []parsersdk.ConfigSchemaItem{
		parsersdk.NewConfigSchemaItem("strict", "Strict", "Reject bad lines", parsersdk.BooleanInput{Default: true}),
		parsersdk.NewConfigSchemaItem("mode", "Mode", "", parsersdk.DropdownInput{Options: []string{"fast", "safe"}, Default: "safe"}),
		parsersdk.NewConfigSchemaItem("limit", "Limit", "", parsersdk.IntegerInput{Default: 42}),
		parsersdk.NewConfigSchemaItem("ratio", "Ratio", "", parsersdk.FloatInput{Default: 0.5}),
		parsersdk.NewConfigSchemaItem("files", "Files", "", parsersdk.FilesInput{Extensions: []string{"log"}}),
		parsersdk.NewConfigSchemaItem("name", "Name", "", parsersdk.TextInput{Default: "app"}),
	}
}

func TestConfigForm_SkipsPresetValues(t *testing.T) {
	form := newConfigForm(promptSchemas(), map[string]any{"mode": "fast", "name": "svc"})

	assert.False(t, form.Empty())
	values := form.Values()
	assert.NotContains(t, values, "mode")
	assert.NotContains(t, values, "name")
	assert.Len(t, values, 4)
}

func TestConfigForm_DefaultsResolve(t *testing.T) {
	schemas := promptSchemas()
	form := newConfigForm(schemas, nil)

	items, unknown, err := config.Resolve(schemas, form.Values())
	require.NoError(t, err)
	assert.Empty(t, unknown)
	assert.Equal(t, parsersdk.DefaultConfigs(schemas), items)
}

func TestConfigForm_Empty(t *testing.T) {
	form := newConfigForm(promptSchemas()[:1], map[string]any{"strict": false})
	assert.True(t, form.Empty())
	require.NoError(t, form.Run())
}

func TestValidateNumbers(t *testing.T) {
	require.NoError(t, validateInteger(" 12 "))
	require.Error(t, validateInteger("1.5"))
	require.Error(t, validateInteger("99999999999"))
	require.NoError(t, validateFloat("1.5"))
	require.Error(t, validateFloat("abc"))
}
