package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/reglet-dev/parserkit/internal/application/dto"
	"github.com/reglet-dev/parserkit/internal/infrastructure/config"
	"github.com/reglet-dev/parserkit/internal/infrastructure/container"
	"github.com/reglet-dev/parserkit/internal/infrastructure/source"
	parsersdk "github.com/reglet-dev/parserkit/sdk"
)

// ParseOptions holds the flags of the parse command.
type ParseOptions struct {
	CommonOptions

	// Plugin configuration
	ConfigFile  string
	Sets        []string
	Interactive bool

	// Streaming
	Filter        string
	SessionID     string
	ChunkSize     int
	Follow        bool
	Redact        bool
	FileTimestamp bool
}

func init() {
	rootCmd.AddCommand(newParseCmd())
}

func newParseCmd() *cobra.Command {
	opts := ParseOptions{CommonOptions: DefaultCommonOptions()}

	cmd := &cobra.Command{
		Use:   "parse <plugin> [file]",
		Short: "Parse a file or standard input with a plugin",
		Long: `Stream a file (or standard input when no file or "-" is given) through a
parser plugin and print the records it produces.

Configuration values are layered: declared defaults, then the configs section
of --config-file, then --set id=value flags. With --interactive, inputs that
are still unset are asked for on the terminal.

Filtering:
  --filter takes an expression evaluated for every record. The record's
  index, offset, text, fields, columns (by caption), timestamp and
  attachment are available.
  --filter 'columns["Level"] in ["ERROR", "WARN"]'
  --filter 'text contains "timeout" && has_timestamp'`,
		Example: `  parserkit parse builtin:lines-columns /var/log/app.log
  tail -f app.log | parserkit parse builtin:jsonl --set strict=true
  parserkit parse nginx access.log --config-file nginx.yaml --format json
  parserkit parse builtin:lines app.log --follow`,
		Args: cobra.RangeArgs(1, 2),
		RunE: withContainer(func(ctx *CommandContext, cmd *cobra.Command, args []string) error {
			return runParse(ctx, cmd, args, &opts)
		}, opts.containerOptions),
	}

	opts.RegisterFlags(cmd)
	flags := cmd.Flags()
	flags.StringVar(&opts.ConfigFile, "config-file", "", "Plugin config file (general, vars and configs sections)")
	flags.StringArrayVar(&opts.Sets, "set", nil, "Set a plugin config value (id=value, repeatable)")
	flags.BoolVarP(&opts.Interactive, "interactive", "i", false, "Prompt for config values that are not set")
	flags.StringVar(&opts.Filter, "filter", "", "Only print records matching this expression")
	flags.StringVar(&opts.SessionID, "session-id", "", "Session ID handed to the plugin (default: random UUID)")
	flags.IntVar(&opts.ChunkSize, "chunk-size", 0, "Bytes handed to the plugin per parse call (default from system config)")
	flags.BoolVarP(&opts.Follow, "follow", "f", false, "Keep reading as the file grows")
	flags.BoolVar(&opts.Redact, "redact", false, "Scrub secrets from parsed records")
	flags.BoolVar(&opts.FileTimestamp, "file-timestamp", false, "Pass the file modification time as the timestamp hint")
	flags.String("log-level", "", "Plugin log level: error, warn, info, debug, trace (default: config file or info)")
	_ = viper.BindPFlag("log-level", flags.Lookup("log-level"))

	return cmd
}

// containerOptions carries the flags that shape the container.
func (opts *ParseOptions) containerOptions(_ *cobra.Command, co *container.Options) error {
	if opts.ChunkSize < 0 {
		return fmt.Errorf("--chunk-size must not be negative")
	}
	co.ChunkSize = opts.ChunkSize
	co.RedactOutput = opts.Redact
	return nil
}

func runParse(ctx *CommandContext, cmd *cobra.Command, args []string, opts *ParseOptions) error {
	if err := opts.ValidateFlags(ctx.Container.Formatters().SupportedFormats()); err != nil {
		return err
	}
	sourcePath := source.Stdin
	if len(args) == 2 {
		sourcePath = args[1]
	}
	if opts.Interactive && sourcePath == source.Stdin {
		return fmt.Errorf("--interactive cannot be used while reading standard input")
	}

	runCtx, stop := signal.NotifyContext(ctx.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()
	runCtx, cancel := opts.ApplyToContext(runCtx)
	defer cancel()

	info, err := ctx.Container.PluginService().Describe(runCtx, args[0])
	if err != nil {
		return err
	}

	var pluginCfg *config.PluginConfig
	if opts.ConfigFile != "" {
		pluginCfg, err = config.LoadPluginConfig(opts.ConfigFile, config.WithSecrets(ctx.Container.Secrets().Resolve))
		if err != nil {
			return err
		}
	}

	var prompt func(map[string]any) (map[string]any, error)
	if opts.Interactive {
		prompt = func(preset map[string]any) (map[string]any, error) {
			form := newConfigForm(info.Schemas, preset)
			if err := form.Run(); err != nil {
				return nil, err
			}
			return form.Values(), nil
		}
	}

	configs, err := buildConfigs(info.Schemas, pluginCfg, opts.Sets, prompt, ctx.Logger)
	if err != nil {
		return err
	}
	level, err := resolveLogLevel(viper.GetString("log-level"), pluginCfg)
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

	resp, err := ctx.Container.ParseUseCase().Execute(runCtx, dto.ParseRequest{
		PluginRef:  args[0],
		SourcePath: sourcePath,
		General:    parsersdk.GeneralConfig{LogLevel: level, SessionID: opts.SessionID},
		Configs:    configs,
		Options: dto.ParseOptions{
			ChunkSize:        opts.ChunkSize,
			Follow:           opts.Follow,
			FilterExpression: opts.Filter,
			UseFileTimestamp: opts.FileTimestamp,
		},
		Metadata: dto.RequestMetadata{RequestID: opts.SessionID},
	}, formatter)
	if flushErr := formatter.Flush(); flushErr != nil && err == nil {
		err = fmt.Errorf("failed to flush output: %w", flushErr)
	}
	if err != nil {
		return err
	}

	if resp.ParseErrors > 0 {
		ctx.Logger.Warn("plugin reported malformed input",
			"request_id", resp.Metadata.RequestID,
			"parse_errors", resp.ParseErrors)
	}
	return nil
}

// buildConfigs layers plugin config values: declared defaults, the configs
// section of the plugin config file, --set flags and finally prompted values.
// The config file section is checked against the schema before it is merged.
func buildConfigs(
	schemas []parsersdk.ConfigSchemaItem,
	pluginCfg *config.PluginConfig,
	sets []string,
	prompt func(preset map[string]any) (map[string]any, error),
	logger *slog.Logger,
) ([]parsersdk.ConfigValueItem, error) {
	var fromFile map[string]any
	if pluginCfg != nil {
		if err := config.ValidateDocument(schemas, pluginCfg.Configs); err != nil {
			return nil, err
		}
		fromFile = pluginCfg.Configs
	}

	fromFlags, err := config.ParseSetFlags(sets)
	if err != nil {
		return nil, err
	}
	raw := config.Merge(fromFile, fromFlags)

	if prompt != nil {
		prompted, err := prompt(raw)
		if err != nil {
			return nil, err
		}
		raw = config.Merge(raw, prompted)
	}

	items, unknown, err := config.Resolve(schemas, raw)
	if err != nil {
		return nil, err
	}
	for _, id := range unknown {
		logger.Warn("ignoring config value the plugin does not declare", "id", id)
	}
	return items, nil
}

// resolveLogLevel picks the plugin log level: the flag, then the general
// section of the plugin config file, then info.
func resolveLogLevel(flag string, pluginCfg *config.PluginConfig) (parsersdk.Level, error) {
	name := flag
	if name == "" && pluginCfg != nil {
		name = pluginCfg.General.LogLevel
	}
	if name == "" {
		return parsersdk.LevelInfo, nil
	}
	return parsersdk.ParseLevel(name)
}
