package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	parsersdk "github.com/reglet-dev/parserkit/sdk"
)

func TestCommonOptions_ApplyToContext(t *testing.T) {
	t.Parallel()

	t.Run("with timeout", func(t *testing.T) {
		t.Parallel()
		opts := CommonOptions{Timeout: 100 * time.Millisecond}
		ctx, cancel := opts.ApplyToContext(context.Background())
		defer cancel()

		deadline, ok := ctx.Deadline()
		assert.True(t, ok)
		assert.WithinDuration(t, time.Now().Add(100*time.Millisecond), deadline, 10*time.Millisecond)
	})

	t.Run("no timeout", func(t *testing.T) {
		t.Parallel()
		opts := CommonOptions{Timeout: 0}
		ctx, cancel := opts.ApplyToContext(context.Background())
		defer cancel()

		_, ok := ctx.Deadline()
		assert.False(t, ok)
	})
}

func TestCommonOptions_ValidateFlags(t *testing.T) {
	t.Parallel()
	supported := []string{"table", "json", "yaml"}

	tests := []struct {
		name    string
		opts    CommonOptions
		wantErr bool
		errMsg  string
	}{
		{
			name: "valid options",
			opts: CommonOptions{Format: "table"},
		},
		{
			name:    "negative timeout",
			opts:    CommonOptions{Format: "table", Timeout: -time.Second},
			wantErr: true,
			errMsg:  "must not be negative",
		},
		{
			name:    "invalid format",
			opts:    CommonOptions{Format: "xml"},
			wantErr: true,
			errMsg:  "invalid format: xml (valid: table, json, yaml)",
		},
		{
			name: "valid format yaml",
			opts: CommonOptions{Format: "yaml"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.opts.ValidateFlags(supported)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestCommonOptions_OpenOutput(t *testing.T) {
	t.Parallel()

	cmd := &cobra.Command{}
	var stdout bytes.Buffer
	cmd.SetOut(&stdout)

	opts := CommonOptions{}
	w, closeFn, err := opts.OpenOutput(cmd)
	require.NoError(t, err)
	assert.Same(t, &stdout, w)
	require.NoError(t, closeFn())

	opts.OutputPath = filepath.Join(t.TempDir(), "out.txt")
	w, closeFn, err = opts.OpenOutput(cmd)
	require.NoError(t, err)
	assert.NotSame(t, &stdout, w)
	require.NoError(t, closeFn())
}

func TestCommonOptions_FormatterOptions_NotATerminal(t *testing.T) {
	t.Parallel()

	opts := CommonOptions{}
	fo := opts.FormatterOptions(&bytes.Buffer{}, parsersdk.SingleColumn())
	assert.False(t, fo.Color)
	assert.Zero(t, fo.Width)
	assert.True(t, fo.Indent)
}

func TestDefaultCommonOptions(t *testing.T) {
	t.Parallel()
	opts := DefaultCommonOptions()
	assert.Equal(t, "table", opts.Format)
	assert.Zero(t, opts.Timeout)
}
