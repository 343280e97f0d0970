package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newValidateCmd())
}

func newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <plugin>...",
		Short: "Check that plugins load and initialize with their defaults",
		Long: `Load each plugin, check its advertisement (version, configuration inputs and
layout) and initialize a session with the declared default values.

Every plugin is checked even if an earlier one fails. The command fails when
any plugin does.`,
		Example: `  parserkit validate ./plugins/*.wasm
  parserkit validate builtin:jsonl nginx`,
		Args: cobra.MinimumNArgs(1),
		RunE: withContainer(func(ctx *CommandContext, cmd *cobra.Command, args []string) error {
			results := ctx.Container.PluginService().Validate(ctx.Context, args)

			out := cmd.OutOrStdout()
			failed := 0
			for _, r := range results {
				if r.Err != nil {
					failed++
					fmt.Fprintf(out, "✗ %s: %v\n", r.Ref, r.Err)
					continue
				}
				fmt.Fprintf(out, "✓ %s (%s v%s, %d configs)\n", r.Ref, r.Info.Name, r.Info.Version, len(r.Info.Schemas))
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d plugins failed validation", failed, len(results))
			}
			return nil
		}),
	}
	return cmd
}
