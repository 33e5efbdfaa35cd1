package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

type Config struct {
	Level  string
	Format string // "text", "json", "console"
	File   string
	Output io.Writer
}

var (
	once   sync.Once
	lg     *slog.Logger
	closer io.Closer
)

// Init installs the process-wide logger. When File is set, output goes there
// instead of Output: the walkthrough owns the terminal in raw mode.
func Init(cfg Config) error {
	var initErr error
	once.Do(func() {
		if cfg.File != "" {
			f, err := openLogFile(cfg.File)
			if err != nil {
				initErr = err
			} else {
				cfg.Output = f
				closer = f
			}
		}
		if cfg.Output == nil {
			cfg.Output = os.Stdout
		}
		lg = slog.New(newHandler(cfg))
		slog.SetDefault(lg)
	})
	return initErr
}

func L() *slog.Logger {
	if lg == nil {
		_ = Init(Config{Level: "debug", Format: "console"})
	}
	return lg
}

// Close flushes and closes the log file opened by Init, if any.
func Close() error {
	if closer == nil {
		return nil
	}
	return closer.Close()
}

func openLogFile(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}

func newHandler(cfg Config) slog.Handler {
	level := parseLevel(cfg.Level)
	switch cfg.Format {
	case "json":
		return slog.NewJSONHandler(cfg.Output, &slog.HandlerOptions{Level: level})
	case "text":
		return slog.NewTextHandler(cfg.Output, &slog.HandlerOptions{Level: level})
	default:
		return &consoleHandler{w: cfg.Output, level: level}
	}
}

func parseLevel(levelStr string) slog.Level {
	switch levelStr {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// consoleHandler outputs human-friendly log lines:
//
//	12:00:00 INFO  Mode changed  from=first_person to=overview
type consoleHandler struct {
	mu    sync.Mutex
	w     io.Writer
	level slog.Level
	attrs []slog.Attr
	group string
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *consoleHandler) Handle(_ context.Context, r slog.Record) error {
	ts := r.Time.Format(time.TimeOnly) // "15:04:05"
	lvl := levelTag(r.Level)

	line := fmt.Sprintf("%s %s %s", ts, lvl, r.Message)

	for _, a := range h.attrs {
		line += formatAttr(h.group, a)
	}
	r.Attrs(func(a slog.Attr) bool {
		line += formatAttr(h.group, a)
		return true
	})

	line += "\n"
	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := fmt.Fprint(h.w, line)
	return err
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &consoleHandler{
		w:     h.w,
		level: h.level,
		attrs: append(append([]slog.Attr{}, h.attrs...), attrs...),
		group: h.group,
	}
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	prefix := name
	if h.group != "" {
		prefix = h.group + "." + name
	}
	return &consoleHandler{
		w:     h.w,
		level: h.level,
		attrs: append([]slog.Attr{}, h.attrs...),
		group: prefix,
	}
}

func levelTag(l slog.Level) string {
	switch {
	case l >= slog.LevelError:
		return "ERROR"
	case l >= slog.LevelWarn:
		return "WARN "
	case l >= slog.LevelInfo:
		return "INFO "
	default:
		return "DEBUG"
	}
}

func formatAttr(group string, a slog.Attr) string {
	key := a.Key
	if group != "" {
		key = group + "." + key
	}
	return fmt.Sprintf("  %s=%s", key, formatValue(a.Value))
}

// formatValue prints vectors with fixed precision so positions stay readable.
func formatValue(v slog.Value) string {
	if v.Kind() == slog.KindAny {
		switch vec := v.Any().(type) {
		case mgl64.Vec3:
			return fmt.Sprintf("(%.2f,%.2f,%.2f)", vec[0], vec[1], vec[2])
		case mgl64.Vec2:
			return fmt.Sprintf("(%.2f,%.2f)", vec[0], vec[1])
		}
	}
	return v.String()
}
