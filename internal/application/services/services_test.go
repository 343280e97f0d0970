package services

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/reglet-dev/parserkit/internal/application/dto"
	"github.com/reglet-dev/parserkit/internal/application/ports"
	parsersdk "github.com/reglet-dev/parserkit/sdk"
)

// fakePlugin drives an in-process parser through parsersdk.Session.
type fakePlugin struct {
	name    string
	factory func() parsersdk.Parser
}

func (p *fakePlugin) Name() string { return p.name }

func (p *fakePlugin) Describe(context.Context) (*ports.PluginInfo, error) {
	s, err := parsersdk.NewSession(p.factory())
	if err != nil {
		return nil, err
	}
	return &ports.PluginInfo{
		Name:       p.name,
		Version:    s.Version(),
		APIVersion: parsersdk.APIVersion,
		Schemas:    s.ConfigSchemas(),
		Render:     s.RenderOptions(),
	}, nil
}

func (p *fakePlugin) Open(context.Context, []parsersdk.ConfigValueItem) (ports.ParserSession, error) {
	s, err := parsersdk.NewSession(p.factory())
	if err != nil {
		return nil, err
	}
	return &fakeSession{session: s}, nil
}

// defaults returns the default config values of the plugin, with overrides applied.
func (p *fakePlugin) defaults(overrides ...parsersdk.ConfigValueItem) []parsersdk.ConfigValueItem {
	configs := parsersdk.DefaultConfigs(p.factory().ConfigSchemas())
	for _, o := range overrides {
		for i := range configs {
			if configs[i].ID == o.ID {
				configs[i] = o
			}
		}
	}
	return configs
}

type fakeSession struct {
	session *parsersdk.Session
	closed  bool
}

func (s *fakeSession) Init(_ context.Context, general parsersdk.GeneralConfig, configs []parsersdk.ConfigValueItem) error {
	return s.session.Init(general, configs)
}

func (s *fakeSession) Parse(_ context.Context, data []byte, ts *uint64) (parsersdk.ParseResult, error) {
	return s.session.Parse(data, ts)
}

func (s *fakeSession) Close(context.Context) error {
	s.closed = true
	return nil
}

type fakeResolver struct {
	plugins map[string]ports.ParserPlugin
}

func (r *fakeResolver) Resolve(_ context.Context, ref string) (ports.ParserPlugin, error) {
	p, ok := r.plugins[ref]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPluginNotFound, ref)
	}
	return p, nil
}

func (r *fakeResolver) Close(context.Context) error { return nil }

// fakeLoader records the paths it was asked to load.
type fakeLoader struct {
	loaded []string
	closed bool
}

func (l *fakeLoader) Load(_ context.Context, path string) (ports.ParserPlugin, error) {
	l.loaded = append(l.loaded, path)
	return &fakePlugin{name: path}, nil
}

func (l *fakeLoader) Close(context.Context) error {
	l.closed = true
	return nil
}

type fakeBuiltins map[string]ports.ParserPlugin

func (b fakeBuiltins) Get(name string) ports.ParserPlugin { return b[name] }

func (b fakeBuiltins) List() []string {
	names := make([]string, 0, len(b))
	for name := range b {
		names = append(names, name)
	}
	return names
}

type staticDirs []string

func (d staticDirs) PluginDirs() []string { return d }

// stringSource serves a fixed input, optionally in tiny reads.
type stringSource struct {
	r       io.Reader
	modTime time.Time
}

func (s *stringSource) Read(p []byte) (int, error) { return s.r.Read(p) }
func (s *stringSource) Close() error               { return nil }
func (s *stringSource) Name() string               { return "test" }
func (s *stringSource) ModTime() time.Time         { return s.modTime }

type fakeOpener struct {
	input   string
	modTime time.Time
}

func (o *fakeOpener) Open(context.Context, string, bool) (ports.Source, error) {
	return &stringSource{r: strings.NewReader(o.input), modTime: o.modTime}, nil
}

type sliceSink struct {
	records []dto.ParsedRecord
}

func (s *sliceSink) WriteRecord(record dto.ParsedRecord) error {
	s.records = append(s.records, record)
	return nil
}

type replaceRedactor struct {
	secret string
}

func (r replaceRedactor) ScrubFields(fields []string) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = strings.ReplaceAll(f, r.secret, "[REDACTED]")
	}
	return out
}
