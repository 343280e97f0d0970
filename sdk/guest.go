package parsersdk

import (
	"encoding/json"
	"fmt"

	"github.com/reglet-dev/parserkit/wireformat"
)

// Guest adapts a Session to the JSON wire format. WASM entry points call these
// methods from their exported functions; every method returns a freshly
// allocated payload that the caller hands to the host.
type Guest struct {
	session *Session
}

// NewGuest wraps p in a new Session.
func NewGuest(p Parser, opts ...Option) (*Guest, error) {
	s, err := NewSession(p, opts...)
	if err != nil {
		return nil, err
	}
	return &Guest{session: s}, nil
}

// MustNewGuest is NewGuest for package-level initialization in plugin mains.
func MustNewGuest(p Parser, opts ...Option) *Guest {
	g, err := NewGuest(p, opts...)
	if err != nil {
		panic(fmt.Sprintf("parsersdk: %v", err))
	}
	return g
}

// Session returns the wrapped session.
func (g *Guest) Session() *Session {
	return g.session
}

// VersionJSON encodes the get_version response.
func (g *Guest) VersionJSON() []byte {
	return mustMarshal(VersionToWire(g.session.Version()))
}

// ConfigSchemasJSON encodes the get_config_schemas response.
func (g *Guest) ConfigSchemasJSON() []byte {
	return mustMarshal(ConfigSchemasToWire(g.session.ConfigSchemas()))
}

// RenderOptionsJSON encodes the get_render_options response.
func (g *Guest) RenderOptionsJSON() []byte {
	return mustMarshal(RenderOptionsToWire(g.session.RenderOptions()))
}

// Init decodes an InitRequestWire, runs Session.Init and encodes the response.
func (g *Guest) Init(request []byte) []byte {
	if err := g.init(request); err != nil {
		return mustMarshal(wireformat.InitResponseWire{OK: false, Error: ErrorToWire(err)})
	}
	return mustMarshal(wireformat.InitResponseWire{OK: true})
}

func (g *Guest) init(request []byte) error {
	var req wireformat.InitRequestWire
	if err := json.Unmarshal(request, &req); err != nil {
		return g.rejectInit(NewInitError(InitOther, "malformed init request", err))
	}
	general, err := GeneralConfigFromWire(req.General)
	if err != nil {
		return g.rejectInit(NewInitError(InitInvalidConfig, "invalid general config", err))
	}
	configs, err := ConfigValuesFromWire(req.Configs)
	if err != nil {
		return g.rejectInit(err)
	}
	return g.session.Init(general, configs)
}

// rejectInit records a request that never reached Session.Init. Once Init has
// already run, the protocol error takes precedence.
func (g *Guest) rejectInit(err error) error {
	s := g.session
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateUnconfigured {
		return s.violation("init")
	}
	return s.failInit(err)
}

// Parse runs Session.Parse on data and encodes the response.
func (g *Guest) Parse(data []byte, maybeTimestamp *uint64) []byte {
	result, err := g.session.Parse(data, maybeTimestamp)
	if err != nil {
		return mustMarshal(wireformat.ParseResponseWire{Error: ErrorToWire(err)})
	}
	return mustMarshal(ParseResultToWire(result))
}

// mustMarshal only fails for unsupported types, which the wire structs never contain.
func mustMarshal(v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("parsersdk: marshal %T: %v", v, err))
	}
	return data
}
