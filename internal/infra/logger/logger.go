package logger

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Config controls where the process log lands and how it rotates.
type Config struct {
	Root  string
	Debug bool

	// Rotation settings; zero values fall back to 10MB, 3 backups, 28 days.
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// state is the process-wide logger. Commands run one at a time, but the run
// feed logs from worker goroutines, so access stays behind a lock.
var state = struct {
	mu   sync.RWMutex
	log  *slog.Logger
	sink *lumberjack.Logger
	path string
}{log: discard()}

func discard() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// Setup routes the global logger to <root>/.covrig/logs/covrig.log with
// rotation, returning a cleanup func that closes the sink. On failure the
// global logger keeps discarding.
func Setup(conf Config) (func() error, error) {
	root := filepath.Clean(conf.Root)
	if root == "" {
		root = "."
	}

	dir := filepath.Join(root, ".covrig", "logs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		reset()
		return nil, err
	}
	path := filepath.Join(dir, "covrig.log")

	// Create the file up front so it gets 0600 before lumberjack opens it.
	fh, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		reset()
		return nil, err
	}
	_ = fh.Close()

	sink := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    defaulted(conf.MaxSizeMB, 10),
		MaxBackups: defaulted(conf.MaxBackups, 3),
		MaxAge:     defaulted(conf.MaxAgeDays, 28),
		Compress:   true,
	}

	opts := &slog.HandlerOptions{Level: slog.LevelInfo, ReplaceAttr: utcTimestamps}
	if conf.Debug {
		opts.Level = slog.LevelDebug
		opts.AddSource = true
	}
	l := slog.New(slog.NewJSONHandler(sink, opts))

	state.mu.Lock()
	state.log = l
	state.sink = sink
	state.path = path
	state.mu.Unlock()

	l.Info("log.opened", "path", path, "debug", conf.Debug)

	return teardown, nil
}

func teardown() error {
	state.mu.Lock()
	defer state.mu.Unlock()

	var err error
	if state.sink != nil {
		err = state.sink.Close()
	}
	state.log = discard()
	state.sink = nil
	state.path = ""
	return err
}

func reset() {
	state.mu.Lock()
	defer state.mu.Unlock()
	state.log = discard()
	state.sink = nil
	state.path = ""
}

// utcTimestamps pins the time attribute to RFC3339Nano in UTC so log lines
// sort the same regardless of host timezone.
func utcTimestamps(_ []string, a slog.Attr) slog.Attr {
	if a.Key != slog.TimeKey || a.Value.Kind() != slog.KindTime {
		return a
	}
	a.Value = slog.StringValue(a.Value.Time().UTC().Format(time.RFC3339Nano))
	return a
}

func defaulted(v, fallback int) int {
	if v <= 0 {
		return fallback
	}
	return v
}

// Log returns the process logger, which discards until Setup succeeds.
func Log() *slog.Logger {
	state.mu.RLock()
	defer state.mu.RUnlock()
	return state.log
}

// Filename returns the active log file path, or "" when logging is off.
func Filename() string {
	state.mu.RLock()
	defer state.mu.RUnlock()
	return state.path
}
