//go:build wasip1

// Package main is the template parser plugin compiled to WASM.
//
// Build: GOOS=wasip1 GOARCH=wasm go build -buildmode=c-shared -o template.wasm ./plugins/template
// Columns mode: add -ldflags "-X main.columnMode=columns".
package main

import (
	"github.com/reglet-dev/parserkit/internal/parsers/template"
	parsersdk "github.com/reglet-dev/parserkit/sdk"
)

// columnMode is set at link time ("line" or "columns").
var columnMode = "line"

var guest = newGuest()

func newGuest() *parsersdk.Guest {
	mode, err := template.ParseMode(columnMode)
	if err != nil {
		panic(err)
	}
	return parsersdk.MustNewGuest(template.New(mode))
}

//go:wasmexport allocate
func allocate(size uint32) uint32 {
	return parsersdk.Allocate(size)
}

//go:wasmexport deallocate
func deallocate(ptr uint32, size uint32) {
	parsersdk.Deallocate(ptr, size)
}

//go:wasmexport get_version
func getVersion() uint64 {
	return parsersdk.WriteResult(guest.VersionJSON())
}

//go:wasmexport get_config_schemas
func getConfigSchemas() uint64 {
	return parsersdk.WriteResult(guest.ConfigSchemasJSON())
}

//go:wasmexport get_render_options
func getRenderOptions() uint64 {
	return parsersdk.WriteResult(guest.RenderOptionsJSON())
}

//go:wasmexport init
func initPlugin(ptr, length uint32) uint64 {
	return parsersdk.WriteResult(guest.Init(parsersdk.ReadInput(ptr, length)))
}

//go:wasmexport parse
func parse(ptr, length uint32, hasTimestamp uint32, timestamp uint64) uint64 {
	var ts *uint64
	if hasTimestamp != 0 {
		ts = &timestamp
	}
	return parsersdk.WriteResult(guest.Parse(parsersdk.ReadInput(ptr, length), ts))
}

func main() {}
