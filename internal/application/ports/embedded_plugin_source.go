package ports

// BuiltinPluginSource provides access to the parsers compiled into the host.
type BuiltinPluginSource interface {
	// Get returns the builtin plugin with the given name, or nil.
	Get(name string) ParserPlugin

	// List returns names of all builtin plugins.
	List() []string
}
