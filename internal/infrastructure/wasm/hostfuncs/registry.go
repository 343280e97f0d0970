package hostfuncs

import (
	"context"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
)

// ModuleName is the import module parser plugins link against.
const ModuleName = "parser_host"

// RegisterHostFunctions registers all host functions with the wazero runtime
func RegisterHostFunctions(ctx context.Context, runtime wazero.Runtime) error {
	builder := runtime.NewHostModuleBuilder(ModuleName)

	// Register logging function
	// Parameters: messagePacked (i64) - packed ptr+len of LogMessageWire JSON
	builder.NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(func(ctx context.Context, mod api.Module, stack []uint64) {
			LogMessage(ctx, mod, stack)
		}), []api.ValueType{api.ValueTypeI64}, []api.ValueType{}). // No return value
		Export("log_message")

	_, err := builder.Instantiate(ctx)
	return err
}
