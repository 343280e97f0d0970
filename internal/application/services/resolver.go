package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/reglet-dev/parserkit/internal/application/ports"
)

// BuiltinPrefix marks a reference to a parser compiled into the host.
const BuiltinPrefix = "builtin:"

// ErrPluginNotFound is returned when no resolver in the chain handles a reference.
var ErrPluginNotFound = errors.New("plugin not found")

// PluginResolutionStrategy is one link in the resolver chain.
type PluginResolutionStrategy interface {
	Resolve(ctx context.Context, ref string) (ports.ParserPlugin, error)
	SetNext(next PluginResolutionStrategy)
}

// BaseResolver holds the next link and delegates to it.
type BaseResolver struct {
	next PluginResolutionStrategy
}

// SetNext sets the resolver consulted when this one cannot handle a reference.
func (b *BaseResolver) SetNext(next PluginResolutionStrategy) {
	b.next = next
}

// ResolveNext delegates to the next resolver, or fails with ErrPluginNotFound.
func (b *BaseResolver) ResolveNext(ctx context.Context, ref string) (ports.ParserPlugin, error) {
	if b.next == nil {
		return nil, fmt.Errorf("%w: %s", ErrPluginNotFound, ref)
	}
	return b.next.Resolve(ctx, ref)
}

// BuiltinPluginResolver handles builtin:<name> references.
type BuiltinPluginResolver struct {
	BaseResolver
	source ports.BuiltinPluginSource
}

// NewBuiltinPluginResolver creates a builtin plugin resolver.
func NewBuiltinPluginResolver(source ports.BuiltinPluginSource) *BuiltinPluginResolver {
	return &BuiltinPluginResolver{source: source}
}

// Resolve returns the builtin parser, otherwise delegates to next.
func (r *BuiltinPluginResolver) Resolve(ctx context.Context, ref string) (ports.ParserPlugin, error) {
	name, ok := strings.CutPrefix(ref, BuiltinPrefix)
	if !ok {
		return r.ResolveNext(ctx, ref)
	}
	if p := r.source.Get(name); p != nil {
		return p, nil
	}
	return nil, fmt.Errorf("%w: no builtin parser %q (available: %s)",
		ErrPluginNotFound, name, strings.Join(r.source.List(), ", "))
}

// PathPluginResolver loads references that look like file paths.
type PathPluginResolver struct {
	BaseResolver
	loader ports.PluginLoader
}

// NewPathPluginResolver creates a path plugin resolver.
func NewPathPluginResolver(loader ports.PluginLoader) *PathPluginResolver {
	return &PathPluginResolver{loader: loader}
}

// Resolve loads a .wasm path, otherwise delegates to next.
func (r *PathPluginResolver) Resolve(ctx context.Context, ref string) (ports.ParserPlugin, error) {
	if !isPath(ref) {
		return r.ResolveNext(ctx, ref)
	}
	return r.loader.Load(ctx, ref)
}

func isPath(ref string) bool {
	return strings.HasSuffix(ref, ".wasm") || strings.ContainsAny(ref, `/\`)
}

// DirectoryPluginResolver looks bare names up as <dir>/<name>.wasm.
type DirectoryPluginResolver struct {
	BaseResolver
	loader ports.PluginLoader
	dirs   ports.PluginDirectoryProvider
}

// NewDirectoryPluginResolver creates a directory plugin resolver.
func NewDirectoryPluginResolver(loader ports.PluginLoader, dirs ports.PluginDirectoryProvider) *DirectoryPluginResolver {
	return &DirectoryPluginResolver{loader: loader, dirs: dirs}
}

// Resolve searches the plugin directories in order, otherwise delegates to next.
func (r *DirectoryPluginResolver) Resolve(ctx context.Context, ref string) (ports.ParserPlugin, error) {
	if r.dirs != nil {
		for _, dir := range r.dirs.PluginDirs() {
			path := filepath.Join(dir, ref+".wasm")
			if _, err := os.Stat(path); err == nil {
				return r.loader.Load(ctx, path)
			}
		}
	}
	return r.ResolveNext(ctx, ref)
}

// CachedPluginResolver remembers what the chain behind it resolved.
type CachedPluginResolver struct {
	BaseResolver

	mu    sync.Mutex
	cache map[string]ports.ParserPlugin
}

// NewCachedPluginResolver creates a cached plugin resolver.
func NewCachedPluginResolver() *CachedPluginResolver {
	return &CachedPluginResolver{cache: make(map[string]ports.ParserPlugin)}
}

// Resolve checks the cache, otherwise delegates to next and caches the result.
func (r *CachedPluginResolver) Resolve(ctx context.Context, ref string) (ports.ParserPlugin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.cache[ref]; ok {
		return p, nil
	}
	p, err := r.ResolveNext(ctx, ref)
	if err != nil {
		return nil, err
	}
	r.cache[ref] = p
	return p, nil
}

// ChainResolver implements ports.PluginResolver over a resolver chain:
// cache, builtin, path, plugin directories.
type ChainResolver struct {
	head   PluginResolutionStrategy
	loader ports.PluginLoader
}

// NewChainResolver wires the default chain.
func NewChainResolver(builtins ports.BuiltinPluginSource, loader ports.PluginLoader, dirs ports.PluginDirectoryProvider) *ChainResolver {
	cached := NewCachedPluginResolver()
	builtin := NewBuiltinPluginResolver(builtins)
	path := NewPathPluginResolver(loader)
	dir := NewDirectoryPluginResolver(loader, dirs)

	cached.SetNext(builtin)
	builtin.SetNext(path)
	path.SetNext(dir)

	return &ChainResolver{head: cached, loader: loader}
}

// Resolve runs ref through the chain.
func (c *ChainResolver) Resolve(ctx context.Context, ref string) (ports.ParserPlugin, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, fmt.Errorf("%w: empty plugin reference", ErrPluginNotFound)
	}
	return c.head.Resolve(ctx, ref)
}

// Close releases every WASM plugin loaded through the chain.
func (c *ChainResolver) Close(ctx context.Context) error {
	if c.loader == nil {
		return nil
	}
	return c.loader.Close(ctx)
}

var _ ports.PluginResolver = (*ChainResolver)(nil)
