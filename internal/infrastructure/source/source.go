// Package source opens parse inputs: regular files, standard input, and files
// followed as they grow.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/reglet-dev/parserkit/internal/application/ports"
)

// Stdin is the path that selects standard input.
const Stdin = "-"

// DefaultPollInterval bounds how long a follower waits without a notification
// before checking the file again.
const DefaultPollInterval = time.Second

var _ ports.SourceOpener = (*Opener)(nil)

// Opener implements ports.SourceOpener.
type Opener struct {
	stdin        io.Reader
	pollInterval time.Duration
	logger       *slog.Logger
}

// NewOpener creates an opener that reads standard input from os.Stdin.
func NewOpener(logger *slog.Logger) *Opener {
	if logger == nil {
		logger = slog.Default()
	}
	return &Opener{stdin: os.Stdin, pollInterval: DefaultPollInterval, logger: logger}
}

// WithStdin replaces the reader used for "-".
func (o *Opener) WithStdin(r io.Reader) *Opener {
	o.stdin = r
	return o
}

// WithPollInterval sets the fallback poll interval of followers.
func (o *Opener) WithPollInterval(d time.Duration) *Opener {
	o.pollInterval = d
	return o
}

// Open opens path. Standard input cannot be followed.
func (o *Opener) Open(ctx context.Context, path string, follow bool) (ports.Source, error) {
	if path == "" || path == Stdin {
		if follow {
			return nil, fmt.Errorf("cannot follow standard input")
		}
		return &stdinSource{r: o.stdin}, nil
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	f, err := os.Open(abs) //nolint:gosec // G304: user-selected input file
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		_ = f.Close()
		return nil, fmt.Errorf("%s is a directory", path)
	}

	if !follow {
		return &fileSource{File: f, name: path, modTime: info.ModTime()}, nil
	}
	return newFollower(ctx, f, abs, path, info.ModTime(), o.pollInterval, o.logger)
}

type stdinSource struct {
	r io.Reader
}

func (s *stdinSource) Read(p []byte) (int, error) { return s.r.Read(p) }
func (s *stdinSource) Close() error               { return nil }
func (s *stdinSource) Name() string               { return Stdin }
func (s *stdinSource) ModTime() time.Time         { return time.Time{} }

type fileSource struct {
	*os.File
	name    string
	modTime time.Time
}

func (s *fileSource) Name() string       { return s.name }
func (s *fileSource) ModTime() time.Time { return s.modTime }

// follower reads a file like tail -F: at end of file it waits for the file to
// grow, be truncated or be replaced, until ctx is done. Cancellation ends the
// stream with io.EOF.
type follower struct {
	ctx     context.Context
	watcher *fsnotify.Watcher
	logger  *slog.Logger
	poll    time.Duration

	path    string
	name    string
	modTime time.Time

	mu     sync.Mutex
	file   *os.File
	offset int64
}

func newFollower(ctx context.Context, f *os.File, abs, name string, modTime time.Time, poll time.Duration, logger *slog.Logger) (*follower, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("error creating watcher for %s: %w", name, err)
	}
	// The directory is watched so rotation (remove + create) is seen too.
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		_ = watcher.Close()
		_ = f.Close()
		return nil, fmt.Errorf("error watching directory of %s: %w", name, err)
	}
	if poll <= 0 {
		poll = DefaultPollInterval
	}
	return &follower{
		ctx:     ctx,
		watcher: watcher,
		logger:  logger,
		poll:    poll,
		path:    abs,
		name:    name,
		modTime: modTime,
		file:    f,
	}, nil
}

func (f *follower) Name() string       { return f.name }
func (f *follower) ModTime() time.Time { return f.modTime }

func (f *follower) Read(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for {
		if f.file != nil {
			n, err := f.file.Read(p)
			f.offset += int64(n)
			if n > 0 {
				return n, nil
			}
			if err != nil && !errors.Is(err, io.EOF) {
				return 0, err
			}
			f.checkTruncated()
		}
		if err := f.wait(); err != nil {
			return 0, io.EOF
		}
	}
}

// checkTruncated rewinds when the file shrank below the read offset.
func (f *follower) checkTruncated() {
	info, err := f.file.Stat()
	if err != nil || info.Size() >= f.offset {
		return
	}
	f.logger.Info("file truncated, reading from the start", "file", f.name)
	if _, err := f.file.Seek(0, io.SeekStart); err == nil {
		f.offset = 0
	}
}

// wait blocks until the followed file may have new data.
func (f *follower) wait() error {
	timer := time.NewTimer(f.poll)
	defer timer.Stop()

	for {
		select {
		case <-f.ctx.Done():
			return f.ctx.Err()
		case <-timer.C:
			return nil
		case err, ok := <-f.watcher.Errors:
			if !ok {
				return io.EOF
			}
			f.logger.Warn("file watcher error", "file", f.name, "error", err)
		case evt, ok := <-f.watcher.Events:
			if !ok {
				return io.EOF
			}
			if evt.Name != f.path {
				continue
			}
			switch {
			case evt.Has(fsnotify.Write):
				return nil
			case evt.Has(fsnotify.Create):
				f.reopen()
				return nil
			case evt.Has(fsnotify.Remove), evt.Has(fsnotify.Rename):
				f.logger.Info("file moved away, waiting for it to reappear", "file", f.name)
			}
		}
	}
}

func (f *follower) reopen() {
	next, err := os.Open(f.path)
	if err != nil {
		f.logger.Debug("error opening file, will retry later", "file", f.name, "error", err)
		return
	}
	if f.file != nil {
		_ = f.file.Close()
	}
	f.file = next
	f.offset = 0
	f.logger.Info("reopened file", "file", f.name)
}

// Close stops the watcher first, which wakes a blocked Read.
func (f *follower) Close() error {
	werr := f.watcher.Close()

	f.mu.Lock()
	defer f.mu.Unlock()
	var ferr error
	if f.file != nil {
		ferr = f.file.Close()
		f.file = nil
	}
	return errors.Join(werr, ferr)
}
