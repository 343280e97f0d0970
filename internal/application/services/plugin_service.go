package services

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/reglet-dev/parserkit/internal/application/ports"
	parsersdk "github.com/reglet-dev/parserkit/sdk"
)

// maxConcurrentValidations bounds how many plugins are instantiated at once.
const maxConcurrentValidations = 4

// PluginService orchestrates plugin inspection use cases.
type PluginService struct {
	resolver ports.PluginResolver
	logger   *slog.Logger
}

// NewPluginService creates a plugin service.
func NewPluginService(resolver ports.PluginResolver, logger *slog.Logger) *PluginService {
	if logger == nil {
		logger = slog.Default()
	}
	return &PluginService{resolver: resolver, logger: logger}
}

// Describe resolves ref and returns its validated advertisement.
func (s *PluginService) Describe(ctx context.Context, ref string) (*ports.PluginInfo, error) {
	plugin, err := s.resolver.Resolve(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve plugin: %w", err)
	}
	return plugin.Describe(ctx)
}

// ValidationResult is the outcome of validating one plugin reference.
type ValidationResult struct {
	Ref  string
	Info *ports.PluginInfo
	Err  error
}

// Validate checks every reference concurrently: the advertisement must be
// valid and a session must initialize with the declared defaults. Results keep
// the order of refs; a failing plugin does not stop the others.
func (s *PluginService) Validate(ctx context.Context, refs []string) []ValidationResult {
	results := make([]ValidationResult, len(refs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentValidations)
	for i, ref := range refs {
		g.Go(func() error {
			info, err := s.validateOne(gctx, ref)
			results[i] = ValidationResult{Ref: ref, Info: info, Err: err}
			if err != nil {
				s.logger.Debug("plugin validation failed", "plugin", ref, "error", err)
			}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (s *PluginService) validateOne(ctx context.Context, ref string) (*ports.PluginInfo, error) {
	plugin, err := s.resolver.Resolve(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve plugin: %w", err)
	}
	info, err := plugin.Describe(ctx)
	if err != nil {
		return nil, err
	}

	defaults := parsersdk.DefaultConfigs(info.Schemas)
	session, err := plugin.Open(ctx, defaults)
	if err != nil {
		return info, err
	}
	defer func() { _ = session.Close(context.WithoutCancel(ctx)) }()

	if err := session.Init(ctx, parsersdk.GeneralConfig{LogLevel: parsersdk.LevelError}, defaults); err != nil {
		return info, fmt.Errorf("init with default configs failed: %w", err)
	}
	return info, nil
}
