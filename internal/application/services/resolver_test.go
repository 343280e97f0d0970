package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reglet-dev/parserkit/internal/application/ports"
	"github.com/reglet-dev/parserkit/internal/parsers/lines"
)

func TestBuiltinPluginResolver(t *testing.T) {
	builtin := linesPlugin(lines.ModeLine)
	source := fakeBuiltins{"lines": builtin}

	t.Run("ResolvesBuiltin", func(t *testing.T) {
		p, err := NewBuiltinPluginResolver(source).Resolve(context.Background(), "builtin:lines")
		require.NoError(t, err)
		assert.Same(t, builtin, p)
	})

	t.Run("UnknownBuiltinListsAvailable", func(t *testing.T) {
		_, err := NewBuiltinPluginResolver(source).Resolve(context.Background(), "builtin:xml")
		require.ErrorIs(t, err, ErrPluginNotFound)
		assert.Contains(t, err.Error(), "available: lines")
	})

	t.Run("DelegatesOnOtherRefs", func(t *testing.T) {
		r := NewBuiltinPluginResolver(source)
		loader := &fakeLoader{}
		r.SetNext(NewPathPluginResolver(loader))

		_, err := r.Resolve(context.Background(), "./parser.wasm")
		require.NoError(t, err)
		assert.Equal(t, []string{"./parser.wasm"}, loader.loaded)
	})

	t.Run("EndOfChain", func(t *testing.T) {
		_, err := NewBuiltinPluginResolver(source).Resolve(context.Background(), "parser")
		assert.ErrorIs(t, err, ErrPluginNotFound)
	})
}

func TestDirectoryPluginResolver(t *testing.T) {
	empty := t.TempDir()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "nginx.wasm"), []byte{0}, 0o600))

	loader := &fakeLoader{}
	r := NewDirectoryPluginResolver(loader, staticDirs{empty, dir})

	_, err := r.Resolve(context.Background(), "nginx")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "nginx.wasm")}, loader.loaded)

	_, err = r.Resolve(context.Background(), "apache")
	assert.ErrorIs(t, err, ErrPluginNotFound)
}

func TestChainResolver(t *testing.T) {
	loader := &fakeLoader{}
	chain := NewChainResolver(fakeBuiltins{"lines": linesPlugin(lines.ModeLine)}, loader, staticDirs{})

	first, err := chain.Resolve(context.Background(), "/opt/parsers/json.wasm")
	require.NoError(t, err)
	second, err := chain.Resolve(context.Background(), "/opt/parsers/json.wasm")
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Len(t, loader.loaded, 1, "second resolve is served from the cache")

	_, err = chain.Resolve(context.Background(), "builtin:lines")
	require.NoError(t, err)

	_, err = chain.Resolve(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrPluginNotFound)

	require.NoError(t, chain.Close(context.Background()))
	assert.True(t, loader.closed)
}

func TestIsPath(t *testing.T) {
	assert.True(t, isPath("parser.wasm"))
	assert.True(t, isPath("./parser"))
	assert.True(t, isPath(`C:\parsers\p`))
	assert.False(t, isPath("parser"))
}

var _ ports.PluginResolver = (*fakeResolver)(nil)
