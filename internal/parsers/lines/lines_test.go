package lines

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	parsersdk "github.com/reglet-dev/parserkit/sdk"
)

func newSession(t *testing.T, mode Mode, overrides ...parsersdk.ConfigValueItem) *parsersdk.Session {
	t.Helper()
	p := New(mode)
	s, err := parsersdk.NewSession(p)
	require.NoError(t, err)

	configs := parsersdk.DefaultConfigs(p.ConfigSchemas())
	for _, o := range overrides {
		for i := range configs {
			if configs[i].ID == o.ID {
				configs[i] = o
			}
		}
	}
	require.NoError(t, s.Init(parsersdk.GeneralConfig{}, configs))
	return s
}

func messages(result parsersdk.ParseResult) []parsersdk.ParsedMessage {
	var out []parsersdk.ParsedMessage
	for _, item := range result.Items {
		if item.Value != nil {
			out = append(out, item.Value)
		}
	}
	return out
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		name    string
		want    Mode
		wantErr bool
	}{
		{name: "", want: ModeLine},
		{name: "line", want: ModeLine},
		{name: "columns", want: ModeColumns},
		{name: "table", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMode(tt.name)
			if tt.wantErr {
				assert.ErrorContains(t, err, "unknown column mode")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_Lines(t *testing.T) {
	s := newSession(t, ModeLine)

	input := "first\n\nsecond\nthi"
	result, err := s.Parse([]byte(input), nil)
	require.NoError(t, err)

	assert.Equal(t, uint64(len(input)), result.Consumed())
	assert.Equal(t, []parsersdk.ParsedMessage{parsersdk.Line("first"), parsersdk.Line("second")}, messages(result))

	result, err = s.Parse([]byte("rd\n"), nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), result.Consumed())
	assert.Equal(t, []parsersdk.ParsedMessage{parsersdk.Line("third")}, messages(result))
}

func TestParse_KeepEmpty(t *testing.T) {
	s := newSession(t, ModeLine, parsersdk.ConfigValueItem{ID: SkipEmptyID, Value: parsersdk.BoolValue(false)})

	result, err := s.Parse([]byte("a\n\nb\n"), nil)
	require.NoError(t, err)
	assert.Equal(t, []parsersdk.ParsedMessage{parsersdk.Line("a"), parsersdk.Line(""), parsersdk.Line("b")}, messages(result))
}

func TestParse_CRLF(t *testing.T) {
	s := newSession(t, ModeLine, parsersdk.ConfigValueItem{ID: DelimiterID, Value: parsersdk.DropdownValue(DelimiterCRLF)})

	result, err := s.Parse([]byte("a\r\nb\nc\r\n"), nil)
	require.NoError(t, err)
	assert.Equal(t, []parsersdk.ParsedMessage{parsersdk.Line("a"), parsersdk.Line("b\nc")}, messages(result))
}

func TestParse_Columns(t *testing.T) {
	s := newSession(t, ModeColumns)

	input := "2024-05-01T12:00:00Z [warn] disk almost full\nplain text\n"
	result, err := s.Parse([]byte(input), nil)
	require.NoError(t, err)

	assert.Equal(t, []parsersdk.ParsedMessage{
		parsersdk.Columns{"2024-05-01T12:00:00Z", "WARN", "disk almost full"},
		parsersdk.Columns{"", "", "plain text"},
	}, messages(result))

	require.NotNil(t, result.Timestamp)
	want := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC).UnixMilli()
	assert.Equal(t, uint64(want), *result.Timestamp)
}

func TestParse_TimestampFallsBackToHint(t *testing.T) {
	s := newSession(t, ModeLine)

	hint := uint64(1234)
	result, err := s.Parse([]byte("no time here\n"), &hint)
	require.NoError(t, err)
	require.NotNil(t, result.Timestamp)
	assert.Equal(t, hint, *result.Timestamp)
}

func TestParse_CustomPattern(t *testing.T) {
	pattern := `^(?P<level>\w+)\|(?P<message>.*)$`
	s := newSession(t, ModeColumns, parsersdk.ConfigValueItem{ID: PatternID, Value: parsersdk.TextValue(pattern)})

	result, err := s.Parse([]byte("error|boom\n"), nil)
	require.NoError(t, err)
	assert.Equal(t, []parsersdk.ParsedMessage{parsersdk.Columns{"", "ERROR", "boom"}}, messages(result))
}

func TestInit_InvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		item parsersdk.ConfigValueItem
	}{
		{name: "bad regex", item: parsersdk.ConfigValueItem{ID: PatternID, Value: parsersdk.TextValue("(")}},
		{name: "zero max", item: parsersdk.ConfigValueItem{ID: MaxRecordBytesID, Value: parsersdk.IntegerValue(0)}},
		{name: "unknown delimiter", item: parsersdk.ConfigValueItem{ID: DelimiterID, Value: parsersdk.DropdownValue(";")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(ModeLine)
			s, err := parsersdk.NewSession(p)
			require.NoError(t, err)

			configs := parsersdk.DefaultConfigs(p.ConfigSchemas())
			for i := range configs {
				if configs[i].ID == tt.item.ID {
					configs[i] = tt.item
				}
			}
			err = s.Init(parsersdk.GeneralConfig{}, configs)

			var initErr *parsersdk.InitError
			require.ErrorAs(t, err, &initErr)
			assert.Equal(t, parsersdk.InitInvalidConfig, initErr.Kind)
			assert.Equal(t, tt.item.ID, initErr.ID)
		})
	}
}

func TestParse_OversizedRecord(t *testing.T) {
	s := newSession(t, ModeLine, parsersdk.ConfigValueItem{ID: MaxRecordBytesID, Value: parsersdk.IntegerValue(4)})

	result, err := s.Parse([]byte("abcdef\n"), nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), result.Consumed())
	assert.Equal(t, []parsersdk.ParsedMessage{parsersdk.Line("abcd"), parsersdk.Line("ef")}, messages(result))
}

// TestParse_ArbitraryChunking feeds generated log lines in random chunk sizes
// and checks that every line comes out exactly once, in order.
func TestParse_ArbitraryChunking(t *testing.T) {
	gofakeit.Seed(7)

	want := make([]parsersdk.ParsedMessage, 0, 200)
	var sb strings.Builder
	for i := 0; i < 200; i++ {
		line := fmt.Sprintf("%s %s %s",
			gofakeit.Date().UTC().Format(time.RFC3339),
			gofakeit.RandString([]string{"INFO", "WARN", "ERROR", "DEBUG"}),
			gofakeit.Sentence(8))
		want = append(want, parsersdk.Line(line))
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	input := []byte(sb.String())

	s := newSession(t, ModeLine)
	var got []parsersdk.ParsedMessage
	for len(input) > 0 {
		n := min(gofakeit.Number(1, 97), len(input))
		result, err := s.Parse(input[:n], nil)
		require.NoError(t, err)
		require.Equal(t, uint64(n), result.Consumed())
		got = append(got, messages(result)...)
		input = input[n:]
	}

	assert.Equal(t, want, got)
}
