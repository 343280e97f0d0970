package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/reglet-dev/parserkit/internal/application/ports"
	parsersdk "github.com/reglet-dev/parserkit/sdk"
)

// CommonOptions contains the output flags shared by commands that print
// plugin data.
type CommonOptions struct {
	// Output
	Format     string
	OutputPath string

	// Execution
	Timeout time.Duration

	NoColor bool
}

// DefaultCommonOptions returns sensible defaults.
func DefaultCommonOptions() CommonOptions {
	return CommonOptions{
		Format: "table",
	}
}

// RegisterFlags adds common flags to a cobra command.
func (opts *CommonOptions) RegisterFlags(cmd *cobra.Command) {
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", opts.Timeout,
		"Global timeout for the command (0 to disable)")

	// Output
	cmd.Flags().StringVar(&opts.Format, "format", opts.Format,
		"Output format: table, json, yaml")
	cmd.Flags().StringVarP(&opts.OutputPath, "output", "o", opts.OutputPath,
		"Output file path (default: stdout)")
	cmd.Flags().BoolVar(&opts.NoColor, "no-color", opts.NoColor,
		"Disable colored table output")
}

// ApplyToContext applies timeout to context.
// Returns new context and cancel function.
func (opts *CommonOptions) ApplyToContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if opts.Timeout > 0 {
		return context.WithTimeout(ctx, opts.Timeout)
	}
	return context.WithCancel(ctx)
}

// ValidateFlags checks the options against the formats the factory supports.
func (opts *CommonOptions) ValidateFlags(supported []string) error {
	if opts.Timeout < 0 {
		return fmt.Errorf("--timeout must not be negative")
	}
	if !slices.Contains(supported, opts.Format) {
		return fmt.Errorf("invalid format: %s (valid: %s)", opts.Format, strings.Join(supported, ", "))
	}
	return nil
}

// OpenOutput returns the writer selected by --output and a function that
// closes it. Without --output it is the command's stdout.
func (opts *CommonOptions) OpenOutput(cmd *cobra.Command) (io.Writer, func() error, error) {
	if opts.OutputPath == "" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	//nolint:gosec // G304: User-controlled output file path is intentional
	file, err := os.Create(opts.OutputPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return file, file.Close, nil
}

// FormatterOptions derives formatter settings for writer. Color and terminal
// width only apply when writer is a terminal.
func (opts *CommonOptions) FormatterOptions(w io.Writer, render parsersdk.RenderOptions) ports.FormatterOptions {
	fo := ports.FormatterOptions{Render: render, Indent: true}
	file, ok := w.(*os.File)
	if !ok {
		return fo
	}
	fd := int(file.Fd()) //nolint:gosec // G115: file descriptors fit in int
	if !term.IsTerminal(fd) {
		return fo
	}
	fo.Color = !opts.NoColor
	if width, _, err := term.GetSize(fd); err == nil {
		fo.Width = width
	}
	return fo
}
