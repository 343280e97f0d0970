package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/reglet-dev/parserkit/internal/application/services"
)

func init() {
	rootCmd.AddCommand(newPluginsCmd())
}

func newPluginsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plugins",
		Short: "List builtin parsers and plugins found in plugin directories",
		Long: `List the builtin parsers and every .wasm file in the plugin directories.

Plugin directories come from --plugin-dir and the plugins.dirs setting of the
system config. Earlier directories shadow later ones.`,
		Example: `  parserkit plugins
  parserkit plugins --plugin-dir ./build`,
		Args: cobra.NoArgs,
		RunE: withContainer(func(ctx *CommandContext, cmd *cobra.Command, _ []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
			if _, err := fmt.Fprintln(w, "REFERENCE\tSOURCE"); err != nil {
				return fmt.Errorf("failed to write header: %w", err)
			}

			for _, name := range ctx.Container.BuiltinNames() {
				if _, err := fmt.Fprintf(w, "%s%s\tbuiltin\n", services.BuiltinPrefix, name); err != nil {
					return fmt.Errorf("failed to write plugin: %w", err)
				}
			}

			seen := make(map[string]bool)
			for _, dir := range ctx.Container.RuntimeConfig().PluginDirs {
				entries, err := os.ReadDir(dir)
				if err != nil {
					ctx.Logger.Debug("skipping plugin directory", "dir", dir, "error", err)
					continue
				}
				for _, e := range entries {
					name, ok := strings.CutSuffix(e.Name(), ".wasm")
					if !ok || e.IsDir() || seen[name] {
						continue
					}
					seen[name] = true
					if _, err := fmt.Fprintf(w, "%s\t%s\n", name, filepath.Join(dir, e.Name())); err != nil {
						return fmt.Errorf("failed to write plugin: %w", err)
					}
				}
			}

			if err := w.Flush(); err != nil {
				return fmt.Errorf("failed to flush writer: %w", err)
			}
			return nil
		}),
	}
}
