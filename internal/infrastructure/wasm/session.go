package wasm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/tetratelabs/wazero/api"

	"github.com/reglet-dev/parserkit/internal/infrastructure/wasm/hostfuncs"
	parsersdk "github.com/reglet-dev/parserkit/sdk"
	"github.com/reglet-dev/parserkit/wireformat"
)

// Session drives one plugin instance through init and parse. The host mirrors
// the guest's state so it never calls into an instance that has failed.
type Session struct {
	plugin   *Plugin
	instance api.Module

	mu     sync.Mutex
	state  parsersdk.State
	render parsersdk.RenderOptions
	closed bool
}

// State returns the host's view of the session state.
func (s *Session) State() parsersdk.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Init sends the general config and config values to the plugin. Errors are
// the SDK types decoded from the wire (*parsersdk.InitError, *parsersdk.ProtocolError)
// or a plain error when the call itself failed.
func (s *Session) Init(ctx context.Context, general parsersdk.GeneralConfig, configs []parsersdk.ConfigValueItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.state != parsersdk.StateUnconfigured {
		return &parsersdk.ProtocolError{Op: "init", State: s.state}
	}

	info, err := s.plugin.Describe(ctx)
	if err != nil {
		return err
	}
	s.render = info.Render

	request, err := json.Marshal(wireformat.InitRequestWire{
		General: parsersdk.GeneralConfigToWire(general),
		Configs: parsersdk.ConfigValuesToWire(absolutePaths(configs)),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal init request: %w", err)
	}

	data, err := s.callWithInput(ctx, exportInit, request)
	if err != nil {
		s.state = parsersdk.StateFailed
		return err
	}

	var resp wireformat.InitResponseWire
	if err := json.Unmarshal(data, &resp); err != nil {
		s.state = parsersdk.StateFailed
		return fmt.Errorf("failed to decode init() result: %w", err)
	}
	if !resp.OK {
		s.state = parsersdk.StateFailed
		if resp.Error == nil {
			return parsersdk.NewInitError(parsersdk.InitOther, "plugin rejected init without a reason", nil)
		}
		return parsersdk.ErrorFromWire(resp.Error)
	}

	s.state = parsersdk.StateInitialized
	return nil
}

// Parse hands data to the plugin. Results that break the output contract fail
// the session with an unrecoverable error.
func (s *Session) Parse(ctx context.Context, data []byte, maybeTimestamp *uint64) (parsersdk.ParseResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || !s.state.CanParse() {
		return parsersdk.ParseResult{}, &parsersdk.ProtocolError{Op: "parse", State: s.state}
	}

	var hasTimestamp, timestamp uint64
	if maybeTimestamp != nil {
		hasTimestamp, timestamp = 1, *maybeTimestamp
	}

	raw, err := s.callWithInput(ctx, exportParse, data, hasTimestamp, timestamp)
	if err != nil {
		s.state = parsersdk.StateFailed
		return parsersdk.ParseResult{}, parsersdk.NewUnrecoverableError("plugin call failed", err)
	}

	var resp wireformat.ParseResponseWire
	if err := json.Unmarshal(raw, &resp); err != nil {
		s.state = parsersdk.StateFailed
		return parsersdk.ParseResult{}, parsersdk.NewUnrecoverableError("undecodable parse response", err)
	}

	result, err := parsersdk.ParseResultFromWire(resp)
	if err != nil {
		var parseErr *parsersdk.ParseError
		if !errors.As(err, &parseErr) || !parseErr.Recoverable() {
			s.state = parsersdk.StateFailed
		}
		return parsersdk.ParseResult{}, err
	}
	if err := parsersdk.CheckResult(s.render, result, len(data)); err != nil {
		s.state = parsersdk.StateFailed
		return parsersdk.ParseResult{}, parsersdk.NewUnrecoverableError("plugin broke the output contract", err)
	}

	s.state = parsersdk.StateParsing
	return result, nil
}

// Close releases the instance. It is safe to call more than once.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.instance.Close(ctx)
}

// callWithInput copies input into guest memory, calls name(ptr, len, extra...)
// and returns the copied result. The input buffer is released after the call.
func (s *Session) callWithInput(ctx context.Context, name string, input []byte, extra ...uint64) ([]byte, error) {
	ctx = hostfuncs.WithPluginName(ctx, s.plugin.name)

	var ptr uint32
	if len(input) > 0 {
		var err error
		ptr, err = writeToMemory(ctx, s.instance, input)
		if err != nil {
			return nil, fmt.Errorf("failed to write %s() input: %w", name, err)
		}
		defer deallocate(ctx, s.instance, ptr, uint32(len(input))) //nolint:gosec // G115: WASM32 lengths are always 32-bit
	}

	params := append([]uint64{uint64(ptr), uint64(len(input))}, extra...)
	return call(ctx, s.instance, name, params...)
}
