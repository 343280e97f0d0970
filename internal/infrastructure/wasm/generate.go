package wasm

// The round-trip tests load the template plugin compiled for wasip1.
//go:generate env GOOS=wasip1 GOARCH=wasm go build -buildmode=c-shared -o ../../../plugins/template/template.wasm ../../../plugins/template
