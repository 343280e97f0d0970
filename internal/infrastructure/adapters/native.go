package adapters

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	apperrors "github.com/reglet-dev/parserkit/internal/application/errors"
	"github.com/reglet-dev/parserkit/internal/application/ports"
	"github.com/reglet-dev/parserkit/internal/infrastructure/validation"
	"github.com/reglet-dev/parserkit/internal/parsers/jsonl"
	"github.com/reglet-dev/parserkit/internal/parsers/lines"
	"github.com/reglet-dev/parserkit/internal/parsers/template"
	parsersdk "github.com/reglet-dev/parserkit/sdk"
)

var (
	_ ports.ParserPlugin        = (*NativePlugin)(nil)
	_ ports.ParserSession       = (*nativeSession)(nil)
	_ ports.BuiltinPluginSource = (*BuiltinSource)(nil)
)

// NativePlugin runs a parser in-process through parsersdk.Session. Every
// session gets a fresh parser from the factory.
type NativePlugin struct {
	name    string
	factory func() parsersdk.Parser
	logger  *slog.Logger

	once sync.Once
	info *ports.PluginInfo
	err  error
}

// NewNativePlugin wraps a parser factory.
func NewNativePlugin(name string, factory func() parsersdk.Parser, logger *slog.Logger) *NativePlugin {
	return &NativePlugin{name: name, factory: factory, logger: logger}
}

// Name returns the plugin name.
func (p *NativePlugin) Name() string {
	return p.name
}

// Describe builds the advertisement from a throwaway parser.
func (p *NativePlugin) Describe(_ context.Context) (*ports.PluginInfo, error) {
	p.once.Do(func() {
		s, err := parsersdk.NewSession(p.factory())
		if err != nil {
			p.err = apperrors.NewPluginError(p.name, "describe", "invalid advertisement", err)
			return
		}
		info := &ports.PluginInfo{
			Name:       p.name,
			Version:    s.Version(),
			APIVersion: parsersdk.APIVersion,
			Schemas:    s.ConfigSchemas(),
			Render:     s.RenderOptions(),
		}
		if err := validation.ValidatePluginInfo(info); err != nil {
			p.err = err
			return
		}
		p.info = info
	})
	if p.err != nil {
		return nil, p.err
	}

	out := *p.info
	out.Schemas = parsersdk.CloneSchemas(p.info.Schemas)
	out.Render = p.info.Render.Clone()
	return &out, nil
}

// Open creates a session. Builtin parsers read the host filesystem directly,
// so configs play no part here.
func (p *NativePlugin) Open(_ context.Context, _ []parsersdk.ConfigValueItem) (ports.ParserSession, error) {
	s, err := parsersdk.NewSession(p.factory(), parsersdk.WithLogSink(SlogLogSink(p.logger, p.name)))
	if err != nil {
		return nil, apperrors.NewPluginError(p.name, "open", "invalid advertisement", err)
	}
	return &nativeSession{session: s}, nil
}

type nativeSession struct {
	session *parsersdk.Session
}

func (s *nativeSession) Init(ctx context.Context, general parsersdk.GeneralConfig, configs []parsersdk.ConfigValueItem) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.session.Init(general, configs)
}

func (s *nativeSession) Parse(ctx context.Context, data []byte, maybeTimestamp *uint64) (parsersdk.ParseResult, error) {
	if err := ctx.Err(); err != nil {
		return parsersdk.ParseResult{}, err
	}
	return s.session.Parse(data, maybeTimestamp)
}

func (s *nativeSession) Close(context.Context) error {
	return nil
}

// Builtin parser names, used as builtin:<name>.
const (
	BuiltinTemplate        = "template"
	BuiltinTemplateColumns = "template-columns"
	BuiltinLines           = "lines"
	BuiltinLinesColumns    = "lines-columns"
	BuiltinJSONL           = "jsonl"
)

// BuiltinSource implements ports.BuiltinPluginSource over the parsers
// compiled into the host.
type BuiltinSource struct {
	plugins map[string]*NativePlugin
}

// NewBuiltinSource registers every builtin parser.
func NewBuiltinSource(logger *slog.Logger) *BuiltinSource {
	factories := map[string]func() parsersdk.Parser{
		BuiltinTemplate:        func() parsersdk.Parser { return template.New(template.ModeLine) },
		BuiltinTemplateColumns: func() parsersdk.Parser { return template.New(template.ModeColumns) },
		BuiltinLines:           func() parsersdk.Parser { return lines.New(lines.ModeLine) },
		BuiltinLinesColumns:    func() parsersdk.Parser { return lines.New(lines.ModeColumns) },
		BuiltinJSONL:           func() parsersdk.Parser { return jsonl.New() },
	}

	plugins := make(map[string]*NativePlugin, len(factories))
	for name, factory := range factories {
		plugins[name] = NewNativePlugin(name, factory, logger)
	}
	return &BuiltinSource{plugins: plugins}
}

// Get returns the named builtin plugin, or nil.
func (s *BuiltinSource) Get(name string) ports.ParserPlugin {
	p, ok := s.plugins[name]
	if !ok {
		return nil
	}
	return p
}

// List returns the builtin names in sorted order.
func (s *BuiltinSource) List() []string {
	names := make([]string, 0, len(s.plugins))
	for name := range s.plugins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
