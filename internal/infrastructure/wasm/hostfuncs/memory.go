package hostfuncs

import (
	"fmt"

	"github.com/tetratelabs/wazero/api"

	"github.com/reglet-dev/parserkit/wireformat"
)

// maxGuestMessage bounds a single guest-to-host payload.
const maxGuestMessage = 1 << 20

// readGuestBytes copies a packed ptr+len region out of guest memory. The
// returned slice never aliases the guest's linear memory.
func readGuestBytes(mod api.Module, packed uint64) ([]byte, error) {
	ptr, length := wireformat.UnpackPtrLen(packed)
	if length == 0 {
		return nil, fmt.Errorf("empty payload at offset %d", ptr)
	}
	if length > maxGuestMessage {
		return nil, fmt.Errorf("payload of %d bytes exceeds limit of %d", length, maxGuestMessage)
	}

	data, ok := mod.Memory().Read(ptr, length)
	if !ok {
		return nil, fmt.Errorf("failed to read memory at offset %d", ptr)
	}

	out := make([]byte, length)
	copy(out, data)
	return out, nil
}
