package logging

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/term"
)

const (
	ansiReset  = "\033[0m"
	ansiRed    = "\033[31m"
	ansiYellow = "\033[33m"
	ansiCyan   = "\033[36m"
	ansiGray   = "\033[90m"

	shortTraceIDLen = 8
)

// ConsoleHandler is a slog.Handler for people reading a terminal:
//
//	[LEVEL] [SYSTEM] [HH:MM:SS] [trace 4bf92f35] message key=value
//
// A top-level "system" attribute becomes the second bracket. trace_id is
// shortened into its own bracket and span_id is dropped; use the JSON
// format when full ids are needed.
type ConsoleHandler struct {
	sink   *consoleSink
	level  slog.Leveler
	system string
	prefix string // open groups, dot-terminated
	attrs  []byte // rendered WithAttrs pairs
}

// consoleSink is shared by every handler derived from one NewConsoleHandler
type consoleSink struct {
	mu    sync.Mutex
	w     io.Writer
	color bool
}

// NewConsoleHandler creates a console handler. Colors are used only when w is a terminal.
func NewConsoleHandler(w io.Writer, opts *slog.HandlerOptions) *ConsoleHandler {
	var level slog.Leveler = slog.LevelInfo
	if opts != nil && opts.Level != nil {
		level = opts.Level
	}
	return &ConsoleHandler{
		sink:  &consoleSink{w: w, color: isTerminal(w)},
		level: level,
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Enabled reports whether level is at or above the configured level.
func (h *ConsoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle renders r as a single line.
func (h *ConsoleHandler) Handle(_ context.Context, r slog.Record) error {
	system := h.system
	var traceID string

	var pairs bytes.Buffer
	pairs.Write(h.attrs)
	r.Attrs(func(a slog.Attr) bool {
		switch {
		case a.Key == "trace_id":
			traceID = a.Value.String()
		case a.Key == "span_id":
		case a.Key == "system" && h.prefix == "":
			system = a.Value.String()
		default:
			appendAttr(&pairs, h.prefix, a)
		}
		return true
	})

	label, color := levelStyle(r.Level)

	var line bytes.Buffer
	h.bracket(&line, label, color)
	if system != "" {
		line.WriteByte(' ')
		h.bracket(&line, system, "")
	}
	if !r.Time.IsZero() {
		line.WriteByte(' ')
		h.bracket(&line, r.Time.Format(time.TimeOnly), ansiGray)
	}
	if traceID != "" {
		line.WriteByte(' ')
		h.bracket(&line, "trace "+shortTraceID(traceID), ansiGray)
	}
	line.WriteByte(' ')
	line.WriteString(r.Message)
	line.Write(pairs.Bytes())
	line.WriteByte('\n')

	h.sink.mu.Lock()
	defer h.sink.mu.Unlock()
	_, err := h.sink.w.Write(line.Bytes())
	return err
}

// WithAttrs renders attrs once so Handle only appends bytes.
func (h *ConsoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	c := h.clone()

	var buf bytes.Buffer
	buf.Write(h.attrs)
	for _, a := range attrs {
		if a.Key == "system" && h.prefix == "" {
			c.system = a.Value.String()
			continue
		}
		appendAttr(&buf, h.prefix, a)
	}
	c.attrs = buf.Bytes()
	return c
}

// WithGroup qualifies later keys as name.key.
func (h *ConsoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	c := h.clone()
	c.prefix = h.prefix + name + "."
	return c
}

func (h *ConsoleHandler) clone() *ConsoleHandler {
	c := *h
	return &c
}

func (h *ConsoleHandler) bracket(buf *bytes.Buffer, text, color string) {
	colored := h.sink.color && color != ""
	if colored {
		buf.WriteString(color)
	}
	buf.WriteByte('[')
	buf.WriteString(text)
	buf.WriteByte(']')
	if colored {
		buf.WriteString(ansiReset)
	}
}

// appendAttr writes " prefix.key=value", flattening groups
func appendAttr(buf *bytes.Buffer, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}

	if a.Value.Kind() == slog.KindGroup {
		if a.Key != "" {
			prefix += a.Key + "."
		}
		for _, ga := range a.Value.Group() {
			appendAttr(buf, prefix, ga)
		}
		return
	}

	buf.WriteByte(' ')
	buf.WriteString(prefix)
	buf.WriteString(a.Key)
	buf.WriteByte('=')
	buf.WriteString(formatValue(a.Value))
}

// formatValue quotes values that would break key=value parsing
func formatValue(v slog.Value) string {
	var s string
	switch v.Kind() {
	case slog.KindString:
		s = v.String()
	case slog.KindTime:
		s = v.Time().Format(time.RFC3339)
	case slog.KindDuration:
		s = v.Duration().String()
	default:
		s = fmt.Sprint(v.Any())
	}
	if s == "" || strings.ContainsAny(s, " \t\n\"=") {
		return strconv.Quote(s)
	}
	return s
}

// levelStyle rounds custom levels down to the nearest named one
func levelStyle(level slog.Level) (label, color string) {
	switch {
	case level >= slog.LevelError:
		return "ERROR", ansiRed
	case level >= slog.LevelWarn:
		return "WARN", ansiYellow
	case level >= slog.LevelInfo:
		return "INFO", ansiCyan
	default:
		return "DEBUG", ansiGray
	}
}

func shortTraceID(id string) string {
	if len(id) > shortTraceIDLen {
		return id[:shortTraceIDLen]
	}
	return id
}
