package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reglet-dev/parserkit/internal/application/ports"
	"github.com/reglet-dev/parserkit/internal/parsers/jsonl"
	"github.com/reglet-dev/parserkit/internal/parsers/lines"
	parsersdk "github.com/reglet-dev/parserkit/sdk"
)

// brokenDefaults declares a default that does not survive its own Init.
type brokenDefaults struct {
	*jsonl.Parser
}

func (brokenDefaults) ConfigSchemas() []parsersdk.ConfigSchemaItem {
	return []parsersdk.ConfigSchemaItem{
		parsersdk.NewConfigSchemaItem(jsonl.TimePathID, "Time", "", parsersdk.TextInput{Default: " "}),
		parsersdk.NewConfigSchemaItem(jsonl.LevelPathID, "Level", "", parsersdk.TextInput{Default: "level"}),
		parsersdk.NewConfigSchemaItem(jsonl.MessagePathID, "Message", "", parsersdk.TextInput{Default: "msg"}),
		parsersdk.NewConfigSchemaItem(jsonl.StrictID, "Strict", "", parsersdk.BooleanInput{}),
	}
}

func newPluginService() *PluginService {
	return NewPluginService(&fakeResolver{plugins: map[string]ports.ParserPlugin{
		"lines":  linesPlugin(lines.ModeColumns),
		"broken": &fakePlugin{name: "broken", factory: func() parsersdk.Parser { return brokenDefaults{jsonl.New()} }},
	}}, nil)
}

func TestPluginService_Describe(t *testing.T) {
	info, err := newPluginService().Describe(context.Background(), "lines")
	require.NoError(t, err)
	assert.Equal(t, "lines", info.Name)
	assert.True(t, info.Render.IsColumns())

	_, err = newPluginService().Describe(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrPluginNotFound)
}

func TestPluginService_Validate(t *testing.T) {
	results := newPluginService().Validate(context.Background(), []string{"lines", "nope", "broken"})
	require.Len(t, results, 3)

	assert.Equal(t, "lines", results[0].Ref)
	assert.NoError(t, results[0].Err)
	require.NotNil(t, results[0].Info)

	assert.ErrorIs(t, results[1].Err, ErrPluginNotFound)
	assert.Nil(t, results[1].Info)

	var initErr *parsersdk.InitError
	require.ErrorAs(t, results[2].Err, &initErr)
	assert.Equal(t, jsonl.TimePathID, initErr.ID)
	assert.NotNil(t, results[2].Info)
}
