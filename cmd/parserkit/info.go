package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newInfoCmd())
}

func newInfoCmd() *cobra.Command {
	opts := DefaultCommonOptions()

	cmd := &cobra.Command{
		Use:   "info <plugin>",
		Short: "Show a plugin's version, configuration inputs and layout",
		Long: `Load a plugin and print what it advertises: its version, the API version it
was built against, the configuration inputs it accepts and how its records
are laid out.

A plugin is a path to a .wasm file, the name of a .wasm file in a plugin
directory, or builtin:<name>.`,
		Example: `  parserkit info builtin:lines-columns
  parserkit info ./plugins/nginx.wasm --format json`,
		Args: cobra.ExactArgs(1),
		RunE: withContainer(func(ctx *CommandContext, cmd *cobra.Command, args []string) error {
			if err := opts.ValidateFlags(ctx.Container.Formatters().SupportedFormats()); err != nil {
				return err
			}
			runCtx, cancel := opts.ApplyToContext(ctx.Context)
			defer cancel()

			info, err := ctx.Container.PluginService().Describe(runCtx, args[0])
			if err != nil {
				return err
			}

			w, closeOutput, err := opts.OpenOutput(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = closeOutput() }()

			formatter, err := ctx.Container.Formatters().Create(opts.Format, w, opts.FormatterOptions(w, info.Render))
			if err != nil {
				return err
			}
			if err := formatter.FormatInfo(info); err != nil {
				return fmt.Errorf("failed to format plugin info: %w", err)
			}
			return formatter.Flush()
		}),
	}

	opts.RegisterFlags(cmd)
	return cmd
}
