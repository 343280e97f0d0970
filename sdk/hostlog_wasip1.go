//go:build wasip1

package parsersdk

import (
	"encoding/json"
	"runtime"
	"unsafe"

	"github.com/reglet-dev/parserkit/wireformat"
)

// hostLogMessage is provided by the host module. It receives a packed ptr+len
// of a JSON LogMessageWire and copies it out before returning.
//
//go:wasmimport parser_host log_message
func hostLogMessage(packed uint64)

type hostSink struct{}

func defaultSink() LogSink {
	return hostSink{}
}

// Log implements LogSink by crossing into the host.
func (hostSink) Log(record LogRecord) {
	data, err := json.Marshal(LogRecordToWire(record))
	if err != nil || len(data) == 0 {
		return
	}
	ptr := uint32(uintptr(unsafe.Pointer(&data[0])))
	hostLogMessage(wireformat.PackPtrLen(ptr, uint32(len(data))))
	runtime.KeepAlive(data)
}
