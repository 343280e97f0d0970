package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/reglet-dev/parserkit/internal/infrastructure/container"
)

// CommandContext provides common command dependencies.
// Eliminates repetitive container initialization across CLI commands.
type CommandContext struct {
	Container *container.Container
	Logger    *slog.Logger
	Context   context.Context
}

// CommandHandler is a function that executes with initialized dependencies.
// Commands focus on business logic, not infrastructure setup.
type CommandHandler func(*CommandContext, *cobra.Command, []string) error

// ContainerOption adjusts container options from command flags before the
// container is built.
type ContainerOption func(*cobra.Command, *container.Options) error

// withContainer wraps a command handler with container initialization.
// Handles common setup: config loading, logger creation, dependency injection.
// The container is closed once the handler returns.
//
// Usage:
//
//	cmd := &cobra.Command{
//	    Use: "info <plugin>",
//	    RunE: withContainer(func(ctx *CommandContext, cmd *cobra.Command, args []string) error {
//	        info, err := ctx.Container.PluginService().Describe(ctx.Context, args[0])
//	        ...
//	    }),
//	}
func withContainer(handler CommandHandler, options ...ContainerOption) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		logger := slog.Default()

		opts := container.Options{
			SystemConfigPath: viper.GetString("config"),
			PluginDirs:       viper.GetStringSlice("plugin-dir"),
			Logger:           logger,
		}
		for _, apply := range options {
			if err := apply(cmd, &opts); err != nil {
				return err
			}
		}

		runCtx := cmd.Context()
		if runCtx == nil {
			runCtx = context.Background()
		}

		c, err := container.New(runCtx, opts)
		if err != nil {
			return fmt.Errorf("failed to initialize application: %w", err)
		}
		defer func() {
			if err := c.Close(context.WithoutCancel(runCtx)); err != nil {
				logger.Warn("failed to release plugins", "error", err)
			}
		}()

		ctx := &CommandContext{
			Container: c,
			Logger:    logger,
			Context:   runCtx,
		}

		return handler(ctx, cmd, args)
	}
}
