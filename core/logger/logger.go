package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/hashicorp/go-multierror"

	"github.com/m3rciful/ledgerbot/core/buildinfo"
	coreconfig "github.com/m3rciful/ledgerbot/core/config"
)

const defaultDebugSample = "1/50"

var (
	initOnce   sync.Once
	shutdownMu sync.Mutex
	shutDown   bool

	logWriter *asyncWriter
	logFiles  []io.Closer

	levelVar slog.LevelVar

	debugSampler  = newEventSampler(1, 50)
	traceOverride bool

	// L is the base logger; component loggers below derive from it.
	L *slog.Logger

	// DB logs database connection events.
	DB *slog.Logger
	// TG logs Telegram transport events.
	TG *slog.Logger
	// MIG logs database migration events.
	MIG *slog.Logger
	// TWire logs Telegram wiring steps.
	TWire *slog.Logger
	// Session logs session store lifecycle such as expiry sweeps.
	Session *slog.Logger
	// Dialog logs conversation transitions and effect execution.
	Dialog *slog.Logger
)

// Component loggers write through slog's default handler until InitLogger runs.
func init() {
	L = slog.Default()
	wireComponents()
}

// settings is the logging section resolved to concrete values.
type settings struct {
	format   logFormat
	level    slog.Level
	keyOrder []string
	profile  string
	sampleN  int
	sampleD  int
	filePath string
}

func resolveSettings(cfg *coreconfig.Config) settings {
	var lc coreconfig.LoggingConfig
	if cfg != nil {
		lc = cfg.Logging
	}
	s := settings{
		profile:  strings.ToLower(strings.TrimSpace(lc.Profile)),
		level:    parseLevel(lc.Level),
		keyOrder: parseKeyOrder(lc.KeysOrder),
	}
	if s.profile == "" {
		s.profile = "prod"
	}

	switch strings.ToLower(strings.TrimSpace(lc.Format)) {
	case "kv", "text", "pretty":
		s.format = formatKV
	case "json":
		s.format = formatJSON
	default:
		if s.profile == "debug" || s.profile == "dev" {
			s.format = formatKV
		} else {
			s.format = formatJSON
		}
	}

	spec := strings.TrimSpace(lc.DebugSample)
	if spec == "" {
		spec = defaultDebugSample
	}
	s.sampleN, s.sampleD = parseRatioSpec(spec)

	dir, file := strings.TrimSpace(lc.Dir), strings.TrimSpace(lc.BotFile)
	if dir != "" && file != "" {
		s.filePath = filepath.Join(dir, file)
	}
	return s
}

func parseLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func parseKeyOrder(raw string) []string {
	var order []string
	if raw = strings.TrimSpace(raw); raw != "default" {
		for _, p := range strings.Split(raw, ",") {
			if p = strings.TrimSpace(p); p != "" {
				order = append(order, p)
			}
		}
	}
	if len(order) == 0 {
		return append([]string(nil), defaultKeyOrder...)
	}
	return order
}

// InitLogger configures the global structured logger. Later calls are no-ops.
func InitLogger(cfg *coreconfig.Config) error {
	var initErr error
	initOnce.Do(func() {
		s := resolveSettings(cfg)
		levelVar.Set(s.level)
		debugSampler.Set(s.sampleN, s.sampleD)
		traceOverride = isTruthy(os.Getenv("TRACE")) || isTruthy(os.Getenv("LOG_TRACE"))

		outputs := []io.Writer{os.Stdout}
		if s.filePath != "" {
			f, err := openLogFile(s.filePath)
			if err != nil {
				initErr = err
				return
			}
			outputs = append(outputs, f)
			logFiles = append(logFiles, f)
		}
		logWriter = newAsyncWriter(outputs, defaultSinkBuffer)

		L = slog.New(newStructuredHandler(handlerConfig{
			level:    &levelVar,
			writer:   logWriter,
			format:   s.format,
			keyOrder: s.keyOrder,
		}))
		slog.SetDefault(L)
		wireComponents()

		L.LogAttrs(context.Background(), slog.LevelInfo, "startup",
			slog.String("component", "app"),
			slog.String("event", "startup"),
			slog.String("go_version", runtime.Version()),
			slog.String("build", buildinfo.Summary()),
			slog.String("cfg_profile", s.profile),
			slog.String("log_file", s.filePath),
		)
	})
	return initErr
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("logger: create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("logger: open log file: %w", err)
	}
	return f, nil
}

func wireComponents() {
	if L == nil {
		return
	}
	DB = L.With("component", "db")
	TG = L.With("component", "tg")
	MIG = L.With("component", "db.migrate")
	TWire = L.With("component", "tg.wire")
	Session = L.With("component", "session")
	Dialog = L.With("component", "dialog")
}

// Shutdown flushes buffered log output and closes opened log files.
func Shutdown() error {
	shutdownMu.Lock()
	defer shutdownMu.Unlock()
	if shutDown {
		return nil
	}
	shutDown = true

	var result *multierror.Error
	if logWriter != nil {
		if err := logWriter.Flush(); err != nil {
			result = multierror.Append(result, err)
		}
		if err := logWriter.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	for _, c := range logFiles {
		if err := c.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

// LogEvent logs attrs with an event attribute, resolving the logger from ctx when logg is nil.
func LogEvent(ctx context.Context, logg *slog.Logger, level slog.Level, event string, attrs ...slog.Attr) {
	if logg == nil {
		logg = FromContext(ctx)
	}
	if logg == nil {
		logg = L
	}
	if logg == nil {
		return
	}
	if event != "" {
		attrs = append([]slog.Attr{slog.String("event", event)}, attrs...)
	}
	logg.LogAttrs(ctx, level, "", attrs...)
}

// Component constructs a logger scoped to the provided component attribute.
func Component(name string) *slog.Logger {
	if L == nil {
		return nil
	}
	if name = strings.TrimSpace(name); name == "" {
		return L
	}
	return L.With("component", name)
}

// Event logs through the component logger, or the context logger before init.
func Event(ctx context.Context, component string, level slog.Level, event string, attrs ...slog.Attr) {
	logg := Component(component)
	if logg == nil {
		if logg = FromContext(ctx); logg != nil && strings.TrimSpace(component) != "" {
			logg = logg.With("component", strings.TrimSpace(component))
		}
	}
	LogEvent(ctx, logg, level, event, attrs...)
}

// Debug logs a debug-level event for the given component.
func Debug(ctx context.Context, component, event string, attrs ...slog.Attr) {
	Event(ctx, component, slog.LevelDebug, event, attrs...)
}

// Info logs an info-level event for the given component.
func Info(ctx context.Context, component, event string, attrs ...slog.Attr) {
	Event(ctx, component, slog.LevelInfo, event, attrs...)
}

// Warn logs a warn-level event for the given component.
func Warn(ctx context.Context, component, event string, attrs ...slog.Attr) {
	Event(ctx, component, slog.LevelWarn, event, attrs...)
}

// Error logs an error-level event for the given component.
func Error(ctx context.Context, component, event string, attrs ...slog.Attr) {
	Event(ctx, component, slog.LevelError, event, attrs...)
}

func isTruthy(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}

// ShouldSampleDebug reports whether a high-volume debug record of the given
// kind should be written. TRACE=1 disables sampling.
func ShouldSampleDebug(kind string) bool {
	if traceOverride {
		return true
	}
	return debugSampler.Allow(kind)
}
