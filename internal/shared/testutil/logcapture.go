package testutil

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// LogRecord is one captured log call with its attributes flattened.
// Grouped keys are joined with a dot.
type LogRecord struct {
	Time    time.Time
	Level   slog.Level
	Message string
	Attrs   map[string]any
}

type capture struct {
	mu      sync.Mutex
	records []LogRecord
}

// BufferedSlogHandler records every log call in memory and echoes it to
// t.Log. Handlers derived through WithAttrs or WithGroup write into the
// same buffer.
type BufferedSlogHandler struct {
	buf    *capture
	attrs  []slog.Attr
	prefix string
	t      testing.TB
}

// NewTestLogger returns a logger backed by a fresh BufferedSlogHandler
func NewTestLogger(t testing.TB) (*slog.Logger, *BufferedSlogHandler) {
	h := &BufferedSlogHandler{buf: &capture{}, t: t}
	return slog.New(h), h
}

func (h *BufferedSlogHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *BufferedSlogHandler) Handle(_ context.Context, r slog.Record) error {
	attrs := make(map[string]any, len(h.attrs)+r.NumAttrs())
	for _, a := range h.attrs {
		flatten(attrs, "", a)
	}
	r.Attrs(func(a slog.Attr) bool {
		flatten(attrs, h.prefix, a)
		return true
	})

	h.buf.mu.Lock()
	h.buf.records = append(h.buf.records, LogRecord{Time: r.Time, Level: r.Level, Message: r.Message, Attrs: attrs})
	h.buf.mu.Unlock()

	if h.t != nil {
		h.t.Logf("%s %s %v", r.Level, r.Message, attrs)
	}
	return nil
}

func (h *BufferedSlogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	c.attrs = append([]slog.Attr(nil), h.attrs...)
	for _, a := range attrs {
		a.Key = h.prefix + a.Key
		c.attrs = append(c.attrs, a)
	}
	return &c
}

func (h *BufferedSlogHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	c := *h
	c.prefix = h.prefix + name + "."
	return &c
}

func flatten(dst map[string]any, prefix string, a slog.Attr) {
	v := a.Value.Resolve()
	if v.Kind() == slog.KindGroup {
		for _, ga := range v.Group() {
			flatten(dst, prefix+a.Key+".", ga)
		}
		return
	}
	dst[prefix+a.Key] = v.Any()
}

// GetRecords returns a copy of everything captured so far
func (h *BufferedSlogHandler) GetRecords() []LogRecord {
	h.buf.mu.Lock()
	defer h.buf.mu.Unlock()
	return append([]LogRecord(nil), h.buf.records...)
}

func (h *BufferedSlogHandler) Count() int {
	h.buf.mu.Lock()
	defer h.buf.mu.Unlock()
	return len(h.buf.records)
}

// ContainsMessage reports whether any record's message contains message
func (h *BufferedSlogHandler) ContainsMessage(message string) bool {
	return h.find(func(r LogRecord) bool { return strings.Contains(r.Message, message) })
}

func (h *BufferedSlogHandler) find(match func(LogRecord) bool) bool {
	for _, r := range h.GetRecords() {
		if match(r) {
			return true
		}
	}
	return false
}

// AssertLogContains fails t unless a record at level contains message
func AssertLogContains(t *testing.T, h *BufferedSlogHandler, level slog.Level, message string) {
	t.Helper()
	found := h.find(func(r LogRecord) bool {
		return r.Level == level && strings.Contains(r.Message, message)
	})
	assert.Truef(t, found, "no %s record containing %q in %v", level, message, messages(h))
}

// AssertLogAttr fails t unless some record carries key with exactly value.
// slog stores integers as int64.
func AssertLogAttr(t *testing.T, h *BufferedSlogHandler, key string, value any) {
	t.Helper()
	found := h.find(func(r LogRecord) bool {
		v, ok := r.Attrs[key]
		return ok && v == value
	})
	assert.Truef(t, found, "no record with %s=%v in %v", key, value, messages(h))
}

func messages(h *BufferedSlogHandler) []string {
	records := h.GetRecords()
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Message
	}
	return out
}
