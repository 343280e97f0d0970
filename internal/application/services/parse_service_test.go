package services

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reglet-dev/parserkit/internal/application/dto"
	apperrors "github.com/reglet-dev/parserkit/internal/application/errors"
	"github.com/reglet-dev/parserkit/internal/application/ports"
	"github.com/reglet-dev/parserkit/internal/parsers/jsonl"
	"github.com/reglet-dev/parserkit/internal/parsers/lines"
	"github.com/reglet-dev/parserkit/internal/parsers/template"
	parsersdk "github.com/reglet-dev/parserkit/sdk"
)

func linesPlugin(mode lines.Mode) *fakePlugin {
	return &fakePlugin{name: "lines", factory: func() parsersdk.Parser { return lines.New(mode) }}
}

func newUseCase(plugin *fakePlugin, input string, chunkSize int) *ParseUseCase {
	resolver := &fakeResolver{plugins: map[string]ports.ParserPlugin{plugin.name: plugin}}
	return NewParseUseCase(resolver, &fakeOpener{input: input}, nil, chunkSize, nil)
}

func TestParseUseCase_StreamsInChunks(t *testing.T) {
	gofakeit.Seed(11)

	var want []string
	var sb strings.Builder
	for i := 0; i < 100; i++ {
		line := fmt.Sprintf("%s %s", gofakeit.RandString([]string{"INFO", "WARN", "ERROR"}), gofakeit.Sentence(6))
		want = append(want, line)
		sb.WriteString(line + "\n")
	}
	input := sb.String()

	plugin := linesPlugin(lines.ModeLine)
	sink := &sliceSink{}
	resp, err := newUseCase(plugin, input, 7).Execute(context.Background(), dto.ParseRequest{
		PluginRef: "lines",
		Configs:   plugin.defaults(),
		Metadata:  dto.RequestMetadata{RequestID: "req-1"},
	}, sink)
	require.NoError(t, err)

	got := make([]string, 0, len(sink.records))
	var lastOffset uint64
	for i, rec := range sink.records {
		assert.Equal(t, uint64(i), rec.Index)
		assert.GreaterOrEqual(t, rec.Offset, lastOffset)
		lastOffset = rec.Offset
		got = append(got, rec.Text())
	}
	assert.Equal(t, want, got)

	assert.Equal(t, "req-1", resp.Metadata.RequestID)
	assert.Equal(t, uint64(len(input)), resp.BytesRead)
	assert.Equal(t, uint64(len(input)), resp.Consumed)
	assert.Equal(t, uint64(100), resp.Messages)
	assert.Equal(t, uint64(100), resp.Written)
}

func TestParseUseCase_Offsets(t *testing.T) {
	plugin := linesPlugin(lines.ModeLine)
	sink := &sliceSink{}
	_, err := newUseCase(plugin, "alpha\nbe\ngamma\n", 0).Execute(context.Background(), dto.ParseRequest{
		PluginRef: "lines",
		Configs:   plugin.defaults(),
	}, sink)
	require.NoError(t, err)

	require.Len(t, sink.records, 3)
	assert.Equal(t, []uint64{0, 6, 9}, []uint64{sink.records[0].Offset, sink.records[1].Offset, sink.records[2].Offset})
	assert.Equal(t, uint64(6), sink.records[0].Consumed)
}

func TestParseUseCase_GeneratesRequestID(t *testing.T) {
	plugin := linesPlugin(lines.ModeLine)
	resp, err := newUseCase(plugin, "x\n", 0).Execute(context.Background(), dto.ParseRequest{
		PluginRef: "lines",
		Configs:   plugin.defaults(),
	}, &sliceSink{})
	require.NoError(t, err)
	assert.Len(t, resp.Metadata.RequestID, 36)
}

func TestParseUseCase_Filter(t *testing.T) {
	plugin := linesPlugin(lines.ModeColumns)
	input := "2024-05-01T12:00:00Z [warn] disk almost full\n" +
		"2024-05-01T12:00:01Z [error] disk full\n" +
		"plain text\n"

	sink := &sliceSink{}
	resp, err := newUseCase(plugin, input, 0).Execute(context.Background(), dto.ParseRequest{
		PluginRef: "lines",
		Configs:   plugin.defaults(),
		Options:   dto.ParseOptions{FilterExpression: `columns["Level"] == "ERROR"`},
	}, sink)
	require.NoError(t, err)

	require.Len(t, sink.records, 1)
	assert.Equal(t, parsersdk.Columns{"2024-05-01T12:00:01Z", "ERROR", "disk full"}, sink.records[0].Message)
	assert.Equal(t, uint64(1), sink.records[0].Index)
	assert.Equal(t, uint64(3), resp.Messages)
	assert.Equal(t, uint64(1), resp.Written)
}

func TestParseUseCase_InvalidFilter(t *testing.T) {
	plugin := linesPlugin(lines.ModeLine)
	_, err := newUseCase(plugin, "", 0).Execute(context.Background(), dto.ParseRequest{
		PluginRef: "lines",
		Configs:   plugin.defaults(),
		Options:   dto.ParseOptions{FilterExpression: "index +"},
	}, &sliceSink{})

	var validationErr *apperrors.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "filter", validationErr.Field)
}

func TestParseUseCase_RecoverableParseErrors(t *testing.T) {
	plugin := &fakePlugin{name: "jsonl", factory: func() parsersdk.Parser { return jsonl.New() }}
	input := `{"msg":"one"}` + "\nnot json\n"

	sink := &sliceSink{}
	resp, err := newUseCase(plugin, input, 0).Execute(context.Background(), dto.ParseRequest{
		PluginRef: "jsonl",
		Configs:   plugin.defaults(parsersdk.ConfigValueItem{ID: jsonl.StrictID, Value: parsersdk.BoolValue(true)}),
	}, sink)
	require.NoError(t, err)

	assert.Empty(t, sink.records, "strict mode drops the whole call")
	assert.Equal(t, uint64(1), resp.ParseErrors)
	assert.Equal(t, uint64(len(input)), resp.Consumed)
}

func TestParseUseCase_InitFailure(t *testing.T) {
	plugin := linesPlugin(lines.ModeLine)
	_, err := newUseCase(plugin, "", 0).Execute(context.Background(), dto.ParseRequest{
		PluginRef: "lines",
		Configs:   plugin.defaults(parsersdk.ConfigValueItem{ID: lines.PatternID, Value: parsersdk.TextValue("(")}),
	}, &sliceSink{})

	var initErr *parsersdk.InitError
	require.ErrorAs(t, err, &initErr)
	assert.Equal(t, parsersdk.InitInvalidConfig, initErr.Kind)
	assert.Contains(t, err.Error(), "plugin init failed")
}

func TestParseUseCase_UnknownPlugin(t *testing.T) {
	_, err := newUseCase(linesPlugin(lines.ModeLine), "", 0).Execute(context.Background(), dto.ParseRequest{
		PluginRef: "missing",
	}, &sliceSink{})
	assert.ErrorIs(t, err, ErrPluginNotFound)
}

func TestParseUseCase_Redaction(t *testing.T) {
	plugin := linesPlugin(lines.ModeLine)
	resolver := &fakeResolver{plugins: map[string]ports.ParserPlugin{"lines": plugin}}
	uc := NewParseUseCase(resolver, &fakeOpener{input: "token=hunter2\n"}, replaceRedactor{secret: "hunter2"}, 0, nil)

	sink := &sliceSink{}
	_, err := uc.Execute(context.Background(), dto.ParseRequest{PluginRef: "lines", Configs: plugin.defaults()}, sink)
	require.NoError(t, err)
	require.Len(t, sink.records, 1)
	assert.Equal(t, parsersdk.Line("token=[REDACTED]"), sink.records[0].Message)
}

func TestParseUseCase_FileTimestampHint(t *testing.T) {
	plugin := &fakePlugin{name: "template", factory: func() parsersdk.Parser { return template.New(template.ModeLine) }}
	modTime := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	resolver := &fakeResolver{plugins: map[string]ports.ParserPlugin{"template": plugin}}
	uc := NewParseUseCase(resolver, &fakeOpener{input: "abc", modTime: modTime}, nil, 0, nil)

	sink := &sliceSink{}
	_, err := uc.Execute(context.Background(), dto.ParseRequest{
		PluginRef: "template",
		Configs:   plugin.defaults(),
		Options:   dto.ParseOptions{UseFileTimestamp: true},
	}, sink)
	require.NoError(t, err)

	require.Len(t, sink.records, 1)
	assert.Equal(t, parsersdk.Line("The length of provided bytes: 3"), sink.records[0].Message)
	require.NotNil(t, sink.records[0].Timestamp)
	assert.Equal(t, uint64(modTime.UnixMilli()), *sink.records[0].Timestamp)
}

func TestParseUseCase_CancelledContext(t *testing.T) {
	plugin := linesPlugin(lines.ModeLine)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newUseCase(plugin, "a\n", 0).Execute(ctx, dto.ParseRequest{
		PluginRef: "lines",
		Configs:   plugin.defaults(),
	}, &sliceSink{})
	assert.ErrorIs(t, err, context.Canceled)
}
