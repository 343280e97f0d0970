// Package services contains application use cases.
package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/reglet-dev/parserkit/internal/application/dto"
	"github.com/reglet-dev/parserkit/internal/application/ports"
	parsersdk "github.com/reglet-dev/parserkit/sdk"
)

// DefaultChunkSize is used when neither the request nor the use case sets one.
const DefaultChunkSize = 64 << 10

// maxPendingChunks bounds how much unconsumed input the driver holds while a
// plugin keeps asking for more data.
const maxPendingChunks = 64

// ParseUseCase streams a source through a parser plugin session.
// This is a pure application layer component that depends only on ports.
type ParseUseCase struct {
	resolver  ports.PluginResolver
	opener    ports.SourceOpener
	redactor  ports.FieldRedactor
	chunkSize int
	logger    *slog.Logger
}

// NewParseUseCase creates a new parse use case. redactor may be nil.
func NewParseUseCase(
	resolver ports.PluginResolver,
	opener ports.SourceOpener,
	redactor ports.FieldRedactor,
	chunkSize int,
	logger *slog.Logger,
) *ParseUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &ParseUseCase{
		resolver:  resolver,
		opener:    opener,
		redactor:  redactor,
		chunkSize: chunkSize,
		logger:    logger,
	}
}

// Execute resolves the plugin, initializes a session and feeds it the source
// until end of input (or, when following, until ctx is cancelled). Records are
// written to sink in stream order.
func (uc *ParseUseCase) Execute(ctx context.Context, req dto.ParseRequest, sink ports.RecordSink) (*dto.ParseResponse, error) {
	startTime := time.Now()

	requestID := req.Metadata.RequestID
	if requestID == "" {
		requestID = uuid.NewString()
	}
	logger := uc.logger.With("request_id", requestID, "plugin", req.PluginRef)

	plugin, err := uc.resolver.Resolve(ctx, req.PluginRef)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve plugin: %w", err)
	}
	info, err := plugin.Describe(ctx)
	if err != nil {
		return nil, err
	}

	var filter ports.RecordFilter
	if req.Options.FilterExpression != "" {
		if filter, err = NewExprFilter(req.Options.FilterExpression, info.Render); err != nil {
			return nil, err
		}
	}

	src, err := uc.opener.Open(ctx, req.SourcePath, req.Options.Follow)
	if err != nil {
		return nil, err
	}
	defer func() { _ = src.Close() }()

	session, err := plugin.Open(ctx, req.Configs)
	if err != nil {
		return nil, err
	}
	defer func() { _ = session.Close(context.WithoutCancel(ctx)) }()

	general := req.General
	if general.SessionID == "" {
		general.SessionID = requestID
	}
	if err := session.Init(ctx, general, req.Configs); err != nil {
		return nil, fmt.Errorf("plugin init failed: %w", err)
	}
	logger.Info("session initialized", "source", src.Name(), "version", info.Version.String())

	chunkSize := req.Options.ChunkSize
	if chunkSize <= 0 {
		chunkSize = uc.chunkSize
	}
	d := &driver{
		session:   session,
		sink:      sink,
		filter:    filter,
		redactor:  uc.redactor,
		chunkSize: chunkSize,
		logger:    logger,
	}
	if req.Options.UseFileTimestamp && !src.ModTime().IsZero() {
		ts := uint64(src.ModTime().UnixMilli()) //nolint:gosec // G115: modification times are after 1970
		d.hint = &ts
	}

	runErr := d.run(ctx, src)
	if runErr != nil && !(req.Options.Follow && errors.Is(runErr, context.Canceled)) {
		return nil, runErr
	}

	resp := d.stats
	resp.Metadata = dto.ResponseMetadata{
		RequestID:   requestID,
		ProcessedAt: time.Now(),
		Duration:    time.Since(startTime),
	}
	logger.Info("parse finished",
		"bytes", resp.BytesRead,
		"messages", resp.Messages,
		"written", resp.Written,
		"parse_errors", resp.ParseErrors,
		"duration", resp.Metadata.Duration)
	return &resp, nil
}

// driver feeds a reader to a session in chunks and keeps stream positions.
type driver struct {
	session   ports.ParserSession
	sink      ports.RecordSink
	filter    ports.RecordFilter
	redactor  ports.FieldRedactor
	chunkSize int
	hint      *uint64
	logger    *slog.Logger

	offset uint64
	index  uint64
	stats  dto.ParseResponse
}

func (d *driver) run(ctx context.Context, r io.Reader) error {
	readBuf := make([]byte, d.chunkSize)
	pending := make([]byte, 0, d.chunkSize)
	eof := false

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if !eof {
			n, err := r.Read(readBuf)
			if n > 0 {
				pending = append(pending, readBuf[:n]...)
				d.stats.BytesRead += uint64(n) //nolint:gosec // G115: n is non-negative
			}
			switch {
			case errors.Is(err, io.EOF):
				eof = true
			case err != nil:
				return fmt.Errorf("failed to read source: %w", err)
			}
			if n == 0 && !eof {
				continue
			}
		}

		if len(pending) == 0 {
			if eof {
				return ctx.Err()
			}
			continue
		}

		consumed, err := d.feed(ctx, pending)
		if err != nil {
			return err
		}
		pending = append(pending[:0], pending[consumed:]...)

		if eof && consumed == 0 {
			d.logger.Warn("plugin left trailing bytes unconsumed at end of input", "bytes", len(pending))
			return ctx.Err()
		}
		if len(pending) > maxPendingChunks*d.chunkSize {
			return fmt.Errorf("plugin consumed nothing from %d buffered bytes", len(pending))
		}
	}
}

// feed makes one parse call and returns how many bytes of data were consumed.
// A recoverable parse error drops the whole buffer so the stream can go on.
func (d *driver) feed(ctx context.Context, data []byte) (int, error) {
	result, err := d.session.Parse(ctx, data, d.hint)
	if err != nil {
		var parseErr *parsersdk.ParseError
		if errors.As(err, &parseErr) && parseErr.Kind == parsersdk.ParseIncomplete {
			return 0, nil
		}
		if parseErr != nil && parseErr.Recoverable() {
			d.stats.ParseErrors++
			d.logger.Warn("dropping buffer after parse error",
				"offset", d.offset, "bytes", len(data), "error", err)
			d.offset += uint64(len(data))
			d.stats.Consumed += uint64(len(data))
			return len(data), nil
		}
		return 0, fmt.Errorf("parse failed at offset %d: %w", d.offset, err)
	}

	var consumed uint64
	for _, item := range result.Items {
		start := d.offset + consumed
		consumed += item.Consumed
		if item.Value == nil && item.Attachment == nil {
			continue
		}

		rec := dto.ParsedRecord{
			Index:      d.index,
			Offset:     start,
			Consumed:   item.Consumed,
			Message:    d.redact(item.Value),
			Attachment: item.Attachment,
			Timestamp:  result.Timestamp,
		}
		d.index++
		if item.Value != nil {
			d.stats.Messages++
		}
		if err := d.emit(rec); err != nil {
			return 0, err
		}
	}
	if consumed > uint64(len(data)) {
		return 0, fmt.Errorf("plugin consumed %d of %d bytes", consumed, len(data))
	}

	d.offset += consumed
	d.stats.Consumed += consumed
	return int(consumed), nil //nolint:gosec // G115: bounded by len(data)
}

func (d *driver) emit(rec dto.ParsedRecord) error {
	if d.filter != nil {
		ok, err := d.filter.Match(rec)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
	}
	if err := d.sink.WriteRecord(rec); err != nil {
		return fmt.Errorf("failed to write record %d: %w", rec.Index, err)
	}
	d.stats.Written++
	return nil
}

func (d *driver) redact(msg parsersdk.ParsedMessage) parsersdk.ParsedMessage {
	if d.redactor == nil || msg == nil {
		return msg
	}
	switch m := msg.(type) {
	case parsersdk.Line:
		return parsersdk.Line(d.redactor.ScrubFields([]string{string(m)})[0])
	case parsersdk.Columns:
		return parsersdk.Columns(d.redactor.ScrubFields(m))
	default:
		return msg
	}
}
