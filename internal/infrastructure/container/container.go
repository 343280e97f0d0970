// Package container provides dependency injection for the application.
package container

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/reglet-dev/parserkit/internal/application/ports"
	"github.com/reglet-dev/parserkit/internal/application/services"
	"github.com/reglet-dev/parserkit/internal/infrastructure/adapters"
	"github.com/reglet-dev/parserkit/internal/infrastructure/config"
	"github.com/reglet-dev/parserkit/internal/infrastructure/output"
	"github.com/reglet-dev/parserkit/internal/infrastructure/redaction"
	"github.com/reglet-dev/parserkit/internal/infrastructure/secrets"
	"github.com/reglet-dev/parserkit/internal/infrastructure/source"
	"github.com/reglet-dev/parserkit/internal/infrastructure/system"
)

// Container holds all application dependencies.
type Container struct {
	systemCfg     *system.Config
	runtimeCfg    *config.RuntimeConfig
	redactor      *redaction.Redactor
	secrets       *secrets.Resolver
	resolver      ports.PluginResolver
	formatters    ports.OutputFormatterFactory
	parseUseCase  *services.ParseUseCase
	pluginService *services.PluginService
	builtins      *adapters.BuiltinSource
	logger        *slog.Logger
}

// Options configure the container.
type Options struct {
	Logger           *slog.Logger
	SystemConfigPath string
	// RedactOutput scrubs secrets from parsed records, not only from plugin stdio
	RedactOutput bool
	// ChunkSize overrides the configured chunk size when positive
	ChunkSize int
	// WasmMemoryLimitMB overrides the configured limit when non-zero
	WasmMemoryLimitMB int
	// PluginDirs are searched before the configured plugin directories
	PluginDirs []string
}

// New creates a new dependency injection container.
func New(ctx context.Context, opts Options) (*Container, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	systemConfigAdapter := adapters.NewSystemConfigAdapter()

	// Load system config
	systemCfg, err := systemConfigAdapter.LoadConfig(ctx, opts.SystemConfigPath)
	if err != nil {
		return nil, err
	}
	runtimeCfg := systemConfigAdapter.RuntimeConfig()
	if opts.ChunkSize > 0 {
		runtimeCfg.ChunkSize = opts.ChunkSize
	}
	if opts.WasmMemoryLimitMB != 0 {
		runtimeCfg.WasmMemoryLimitMB = opts.WasmMemoryLimitMB
	}
	if len(opts.PluginDirs) > 0 {
		runtimeCfg.PluginDirs = append(append([]string(nil), opts.PluginDirs...), runtimeCfg.PluginDirs...)
	}

	// Initialize redactor
	redactor, err := redaction.New(redaction.Config{
		Patterns:        systemCfg.Redaction.Patterns,
		HashMode:        systemCfg.Redaction.HashMode.Enabled,
		Salt:            systemCfg.Redaction.HashMode.Salt,
		DisableGitleaks: systemCfg.Redaction.DisableGitleaks,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create redactor: %w", err)
	}

	// The WASM runtime is shared by every plugin the resolver loads
	loader, err := adapters.NewWasmLoaderAdapter(ctx, redactor, runtimeCfg.WasmMemoryLimitMB)
	if err != nil {
		return nil, fmt.Errorf("failed to create WASM runtime: %w", err)
	}

	builtins := adapters.NewBuiltinSource(opts.Logger)
	resolver := services.NewChainResolver(builtins, loader, systemConfigAdapter)

	var fieldRedactor ports.FieldRedactor
	if opts.RedactOutput {
		fieldRedactor = redactor
	}

	return &Container{
		systemCfg:     systemCfg,
		runtimeCfg:    runtimeCfg,
		redactor:      redactor,
		secrets:       secrets.NewResolver(systemCfg.Secrets, redactor),
		resolver:      resolver,
		formatters:    output.NewFormatterFactory(),
		parseUseCase:  services.NewParseUseCase(resolver, source.NewOpener(opts.Logger), fieldRedactor, runtimeCfg.ChunkSize, opts.Logger),
		pluginService: services.NewPluginService(resolver, opts.Logger),
		builtins:      builtins,
		logger:        opts.Logger,
	}, nil
}

// ParseUseCase returns the parse use case.
func (c *Container) ParseUseCase() *services.ParseUseCase {
	return c.parseUseCase
}

// PluginService returns the plugin inspection service.
func (c *Container) PluginService() *services.PluginService {
	return c.pluginService
}

// Resolver returns the plugin resolver.
func (c *Container) Resolver() ports.PluginResolver {
	return c.resolver
}

// Formatters returns the output formatter factory.
func (c *Container) Formatters() ports.OutputFormatterFactory {
	return c.formatters
}

// BuiltinNames lists the builtin parsers.
func (c *Container) BuiltinNames() []string {
	return c.builtins.List()
}

// SystemConfig returns the system configuration.
func (c *Container) SystemConfig() *system.Config {
	return c.systemCfg
}

// RuntimeConfig returns the effective runtime configuration.
func (c *Container) RuntimeConfig() *config.RuntimeConfig {
	return c.runtimeCfg
}

// Redactor returns the shared redactor.
func (c *Container) Redactor() *redaction.Redactor {
	return c.redactor
}

// Secrets resolves secrets referenced by plugin config files. Resolved values
// are tracked by the redactor.
func (c *Container) Secrets() ports.SecretResolver {
	return c.secrets
}

// Logger returns the configured logger.
func (c *Container) Logger() *slog.Logger {
	return c.logger
}

// Close releases the WASM runtime and every plugin loaded through it.
func (c *Container) Close(ctx context.Context) error {
	return c.resolver.Close(ctx)
}
