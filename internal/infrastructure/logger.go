package infrastructure

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"vcfo/internal/config"
)

var (
	globalMu     sync.Mutex
	globalLogger *slog.Logger
	logFile      *os.File
)

// InitializeLogger builds the logger described by cfg and installs it as
// the slog default. A log file opened by an earlier call is closed first.
func InitializeLogger(cfg config.LoggingConfig) (*slog.Logger, error) {
	if err := CloseLogFile(); err != nil {
		return nil, err
	}

	w, file, err := logOutput(cfg)
	if err != nil {
		return nil, err
	}
	logger := slog.New(newHandler(w, cfg.Format, cfg.Level))

	globalMu.Lock()
	globalLogger = logger
	logFile = file
	globalMu.Unlock()

	slog.SetDefault(logger)
	return logger, nil
}

// GetLogger returns the logger installed by InitializeLogger, falling back
// to slog.Default
func GetLogger() *slog.Logger {
	globalMu.Lock()
	defer globalMu.Unlock()
	if globalLogger == nil {
		return slog.Default()
	}
	return globalLogger
}

// NewJSONLogger writes JSON records at level to w. Used by the command line
// tool, which keeps stdout for its own output.
func NewJSONLogger(w io.Writer, level string) *slog.Logger {
	return slog.New(newHandler(w, "json", level))
}

// CloseLogFile closes the file opened for "file" or "both" output
func CloseLogFile() error {
	globalMu.Lock()
	defer globalMu.Unlock()

	if logFile == nil {
		return nil
	}
	err := logFile.Close()
	logFile = nil
	return err
}

func logOutput(cfg config.LoggingConfig) (io.Writer, *os.File, error) {
	switch strings.ToLower(cfg.Output) {
	case "file", "both":
		if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0755); err != nil {
			return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := os.OpenFile(cfg.FilePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		if strings.EqualFold(cfg.Output, "both") {
			return io.MultiWriter(os.Stdout, f), f, nil
		}
		return f, f, nil
	case "stderr":
		return os.Stderr, nil, nil
	default:
		return os.Stdout, nil, nil
	}
}

// newHandler picks the JSON or text handler and wraps it so records logged
// with a request context carry trace_id and owner_id
func newHandler(w io.Writer, format, level string) slog.Handler {
	opts := &slog.HandlerOptions{
		AddSource:   true,
		Level:       parseLogLevel(level),
		ReplaceAttr: shortSource,
	}

	var h slog.Handler
	if strings.EqualFold(format, "text") {
		h = slog.NewTextHandler(w, opts)
	} else {
		h = slog.NewJSONHandler(w, opts)
	}
	return &contextHandler{Handler: h}
}

// shortSource trims the source attribute to dir/file.go:line
func shortSource(groups []string, a slog.Attr) slog.Attr {
	if a.Key != slog.SourceKey || len(groups) > 0 {
		return a
	}
	src, ok := a.Value.Any().(*slog.Source)
	if !ok || src == nil {
		return a
	}
	file := filepath.Join(filepath.Base(filepath.Dir(src.File)), filepath.Base(src.File))
	return slog.String(slog.SourceKey, file+":"+strconv.Itoa(src.Line))
}

func parseLogLevel(level string) slog.Level {
	if strings.EqualFold(level, "warning") {
		return slog.LevelWarn
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return l
}

type contextHandler struct {
	slog.Handler
}

func (h *contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if traceID := GetTraceID(ctx); traceID != "" {
		r.AddAttrs(slog.String("trace_id", traceID))
	}
	if ownerID := GetOwnerID(ctx); ownerID != "" {
		r.AddAttrs(slog.String("owner_id", ownerID))
	}
	return h.Handler.Handle(ctx, r)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithGroup(name)}
}
