package wasm

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sort"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/reglet-dev/parserkit/internal/infrastructure/wasm/hostfuncs"
	parsersdk "github.com/reglet-dev/parserkit/sdk"
	"github.com/reglet-dev/parserkit/wireformat"
)

// Plugin is a compiled parser module. Describe runs on throwaway instances;
// Open creates the long-lived instance backing a parsing session.
type Plugin struct {
	name    string
	module  wazero.CompiledModule
	runtime wazero.Runtime

	// Mutex protects cached metadata
	mu   sync.Mutex
	info *PluginInfo

	// Redacted output streams (wraps os.Stderr with redaction)
	stdout io.Writer
	stderr io.Writer
}

// fsMount represents a read-only directory exposed to the guest.
type fsMount struct {
	hostPath  string
	guestPath string
}

// Name returns the unique identifier of the plugin.
func (p *Plugin) Name() string {
	return p.name
}

// extractMountPath returns the directory to mount for a configured path.
// Files mount their parent ("/var/log/app.log" → "/var/log"); directories
// mount themselves.
func extractMountPath(path string, isDir bool) string {
	if path == "" {
		return ""
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		slog.Error("cannot resolve configured path", "path", path, "error", err)
		return ""
	}
	if isDir {
		return abs
	}
	return filepath.Dir(abs)
}

// mountsFor builds read-only mounts for every path referenced by a files or
// directories config value.
func (p *Plugin) mountsFor(configs []parsersdk.ConfigValueItem) []fsMount {
	seen := make(map[string]bool)
	for _, item := range configs {
		var paths []string
		isDir := false
		switch v := item.Value.(type) {
		case parsersdk.FilesValue:
			paths = v
		case parsersdk.DirectoriesValue:
			paths, isDir = v, true
		default:
			continue
		}
		for _, path := range paths {
			mountPath := extractMountPath(path, isDir)
			if mountPath == "" {
				slog.Warn("skipping path without a safe mount point", "plugin", p.name, "config", item.ID, "path", path)
				continue
			}
			if mountPath == "/" {
				slog.Warn("plugin granted read access to the root filesystem", "plugin", p.name, "config", item.ID)
			}
			seen[mountPath] = true
		}
	}

	mounts := make([]fsMount, 0, len(seen))
	for path := range seen {
		mounts = append(mounts, fsMount{hostPath: path, guestPath: path})
	}
	sort.Slice(mounts, func(i, j int) bool { return mounts[i].hostPath < mounts[j].hostPath })
	return mounts
}

// absolutePaths rewrites relative files/directories values to the absolute
// paths they are mounted under.
func absolutePaths(configs []parsersdk.ConfigValueItem) []parsersdk.ConfigValueItem {
	out := make([]parsersdk.ConfigValueItem, len(configs))
	for i, item := range configs {
		out[i] = item
		switch v := item.Value.(type) {
		case parsersdk.FilesValue:
			out[i].Value = parsersdk.FilesValue(absAll(v))
		case parsersdk.DirectoriesValue:
			out[i].Value = parsersdk.DirectoriesValue(absAll(v))
		}
	}
	return out
}

func absAll(paths []string) []string {
	out := make([]string, len(paths))
	for i, path := range paths {
		if abs, err := filepath.Abs(path); err == nil {
			out[i] = abs
		} else {
			out[i] = path
		}
	}
	return out
}

// createModuleConfig builds the wazero module configuration: clocks, random,
// redacted stdio and read-only mounts. No environment variables are passed.
func (p *Plugin) createModuleConfig(mounts []fsMount) wazero.ModuleConfig {
	fsConfig := wazero.NewFSConfig()
	for _, mount := range mounts {
		fsConfig = fsConfig.WithReadOnlyDirMount(mount.hostPath, mount.guestPath)
		slog.Debug("mounting read-only filesystem", "plugin", p.name, "path", mount.hostPath)
	}
	if len(mounts) == 0 {
		slog.Debug("plugin has no filesystem access", "plugin", p.name)
	}

	return wazero.NewModuleConfig().
		// Anonymous instances so several sessions of one plugin can coexist
		WithName("").
		WithFSConfig(fsConfig).
		WithSysWalltime().
		WithSysNanotime().
		WithSysNanosleep().
		WithRandSource(rand.Reader).
		WithStderr(p.stderr).
		WithStdout(p.stdout).
		WithStartFunctions("_initialize")
}

// createInstance instantiates the module with a fresh memory environment.
func (p *Plugin) createInstance(ctx context.Context, mounts []fsMount) (api.Module, error) {
	instance, err := p.runtime.InstantiateModule(ctx, p.module, p.createModuleConfig(mounts))
	if err != nil {
		return nil, fmt.Errorf("failed to instantiate plugin %s: %w", p.name, err)
	}
	return instance, nil
}

// Describe reads version, config schemas and render options from a throwaway
// instance. The result is cached; callers get their own copy.
func (p *Plugin) Describe(ctx context.Context) (*PluginInfo, error) {
	ctx = hostfuncs.WithPluginName(ctx, p.name)

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.info != nil {
		return cloneInfo(p.info), nil
	}

	instance, err := p.createInstance(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = instance.Close(ctx)
	}()

	var version wireformat.VersionWire
	if err := callJSON(ctx, instance, exportGetVersion, &version); err != nil {
		return nil, err
	}
	var schemas []wireformat.ConfigSchemaItemWire
	if err := callJSON(ctx, instance, exportGetConfigSchemas, &schemas); err != nil {
		return nil, err
	}
	var render wireformat.RenderOptionsWire
	if err := callJSON(ctx, instance, exportGetRenderOptions, &render); err != nil {
		return nil, err
	}

	info := &PluginInfo{Name: p.name, Render: parsersdk.RenderOptionsFromWire(render)}
	info.Version, info.APIVersion = parsersdk.VersionFromWire(version)
	if info.Schemas, err = parsersdk.ConfigSchemasFromWire(schemas); err != nil {
		return nil, fmt.Errorf("failed to decode %s() result: %w", exportGetConfigSchemas, err)
	}

	p.info = info
	return cloneInfo(info), nil
}

// Open instantiates a new session with read-only mounts for every path the
// configs reference. The session stays Unconfigured until Init.
func (p *Plugin) Open(ctx context.Context, configs []parsersdk.ConfigValueItem) (*Session, error) {
	ctx = hostfuncs.WithPluginName(ctx, p.name)
	instance, err := p.createInstance(ctx, p.mountsFor(configs))
	if err != nil {
		return nil, err
	}
	return &Session{plugin: p, instance: instance}, nil
}

// Close releases the compiled module.
func (p *Plugin) Close(ctx context.Context) error {
	return p.module.Close(ctx)
}

func cloneInfo(info *PluginInfo) *PluginInfo {
	out := *info
	out.Schemas = parsersdk.CloneSchemas(info.Schemas)
	out.Render = info.Render.Clone()
	return &out
}

// callJSON calls a no-argument export and decodes its JSON result into v.
func callJSON(ctx context.Context, instance api.Module, name string, v any) error {
	data, err := call(ctx, instance, name)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode %s() result: %w", name, err)
	}
	return nil
}

// call invokes an export that returns a packed ptr+len and copies the result out.
func call(ctx context.Context, instance api.Module, name string, params ...uint64) ([]byte, error) {
	fn := instance.ExportedFunction(name)
	if fn == nil {
		return nil, fmt.Errorf("plugin does not export %s() function", name)
	}

	results, err := fn.Call(ctx, params...)
	if err != nil {
		return nil, fmt.Errorf("failed to call %s(): %w", name, err)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("%s() returned no results", name)
	}

	ptr, size := wireformat.UnpackPtrLen(results[0])
	if ptr == 0 || size == 0 {
		return nil, fmt.Errorf("%s() returned null pointer or zero length", name)
	}

	data, err := readResult(ctx, instance, ptr, size)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s() result: %w", name, err)
	}
	return data, nil
}

// readResult copies a guest-owned buffer out of WASM memory and releases it.
func readResult(ctx context.Context, instance api.Module, ptr uint32, size uint32) ([]byte, error) {
	defer deallocate(ctx, instance, ptr, size)

	data, ok := instance.Memory().Read(ptr, size)
	if !ok {
		return nil, fmt.Errorf("failed to read memory at offset %d", ptr)
	}

	result := make([]byte, size)
	copy(result, data)
	return result, nil
}

// writeToMemory allocates guest memory and copies data into it. The caller
// releases it with deallocate once the call that consumes it has returned.
func writeToMemory(ctx context.Context, instance api.Module, data []byte) (uint32, error) {
	allocateFn := instance.ExportedFunction(exportAllocate)
	if allocateFn == nil {
		return 0, fmt.Errorf("plugin does not export allocate() function")
	}

	results, err := allocateFn.Call(ctx, uint64(len(data)))
	if err != nil {
		return 0, fmt.Errorf("failed to allocate memory: %w", err)
	}
	if len(results) == 0 {
		return 0, fmt.Errorf("allocate() returned no results")
	}

	ptr := uint32(results[0]) //nolint:gosec // G115: WASM32 pointers are always 32-bit
	if ptr == 0 {
		return 0, fmt.Errorf("allocate() returned null pointer")
	}

	if !instance.Memory().Write(ptr, data) {
		return 0, fmt.Errorf("failed to write to WASM memory at offset %d", ptr)
	}
	return ptr, nil
}

// deallocate is best-effort cleanup.
func deallocate(ctx context.Context, instance api.Module, ptr, size uint32) {
	// Prevent cleanup panic from clobbering an existing panic
	defer func() {
		_ = recover()
	}()

	if fn := instance.ExportedFunction(exportDeallocate); fn != nil {
		//nolint:errcheck,gosec // G104: Deallocation is best-effort cleanup
		fn.Call(ctx, uint64(ptr), uint64(size))
	}
}
