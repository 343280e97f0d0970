//go:build !wasip1

package parsersdk

// defaultSink logs through slog.Default() when the plugin runs in-process.
func defaultSink() LogSink {
	return SlogSink{}
}
