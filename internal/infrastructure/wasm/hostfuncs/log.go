package hostfuncs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/tetratelabs/wazero/api"

	parsersdk "github.com/reglet-dev/parserkit/sdk"
	"github.com/reglet-dev/parserkit/wireformat"
)

// LogMessage implements the `log_message` host function.
// It receives a packed uint64 (ptr+len) pointing to a JSON-encoded LogMessageWire.
// It does not return any value and never reports failure to the guest.
func LogMessage(ctx context.Context, mod api.Module, stack []uint64) {
	record, ok := readLogRecord(ctx, mod, stack[0])
	if !ok {
		return
	}
	Emit(ctx, record)
}

// Emit writes a plugin log record to the context logger, tagged with the
// plugin name when one is set.
func Emit(ctx context.Context, record parsersdk.LogRecord) {
	logger := LoggerFromContext(ctx)
	if name, ok := PluginNameFromContext(ctx); ok {
		logger = logger.With(slog.String("plugin", name))
	}
	parsersdk.SlogSink{Logger: logger}.Log(record)
}

// readLogRecord reads and unmarshals the log message from guest memory.
func readLogRecord(ctx context.Context, mod api.Module, messagePacked uint64) (parsersdk.LogRecord, bool) {
	messageBytes, err := readGuestBytes(mod, messagePacked)
	if err != nil {
		slog.ErrorContext(ctx, "hostfuncs: failed to read log message from guest memory", "error", err)
		return parsersdk.LogRecord{}, false
	}

	var wire wireformat.LogMessageWire
	if err := json.Unmarshal(messageBytes, &wire); err != nil {
		slog.ErrorContext(ctx, "hostfuncs: failed to unmarshal log message", "error", err)
		return parsersdk.LogRecord{}, false
	}

	return parsersdk.LogRecordFromWire(wire), true
}
