package main

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	parsersdk "github.com/reglet-dev/parserkit/sdk"
)

var cfgFile string

// rootCmd is the application entry point.
var rootCmd = &cobra.Command{
	Use:   "parserkit",
	Short: "Stream log sources through sandboxed parser plugins",
	Long: `Parserkit feeds files or standard input to parser plugins and prints the
records they produce. Plugins are WebAssembly modules run in a sandbox, or
one of the builtin parsers (builtin:lines, builtin:jsonl, ...).

Each plugin advertises its configuration inputs and how its records are laid
out. Use 'parserkit info <plugin>' to see them.`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		setupLogging()
	},
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "cli-config", "", "CLI defaults file (default is $HOME/.parserkit.yaml)")
	flags.String("config", "", "system config file (default is $HOME/.parserkit/config.yaml)")
	flags.StringSlice("plugin-dir", nil, "directories searched for <name>.wasm before the configured ones")
	flags.BoolP("verbose", "v", false, "enable verbose output")

	for _, name := range []string{"config", "plugin-dir", "verbose"} {
		_ = viper.BindPFlag(name, flags.Lookup(name))
	}
}

// initConfig loads CLI defaults from the defaults file and PARSERKIT_* environment variables.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			slog.Error("failed to find home directory", "error", err)
			os.Exit(1)
		}

		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".parserkit")
	}

	viper.SetEnvPrefix("parserkit")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		slog.Debug("using config file", "file", viper.ConfigFileUsed())
	}
}

func setupLogging() {
	level := slog.LevelInfo
	if viper.GetBool("verbose") {
		level = slog.LevelDebug
	}
	// Plugin logs pass through the same handler, so a chattier plugin level
	// lowers the host threshold too.
	if name := viper.GetString("log-level"); name != "" {
		if l, err := parsersdk.ParseLevel(name); err == nil && l.Slog() < level {
			level = l.Slog()
		}
	}

	// Using TextHandler for CLI friendliness
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
}
