package logger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

type logFormat string

const (
	formatJSON logFormat = "json"
	formatKV   logFormat = "kv"

	timeFormatMillis = "2006-01-02T15:04:05.000Z07:00"
)

var errNoWriter = errors.New("logger: writer not initialized")

type handlerConfig struct {
	level    slog.Leveler
	writer   *asyncWriter
	format   logFormat
	keyOrder []string
}

// structuredHandler renders records as one flat JSON object or key=value
// line with the schema keys first.
type structuredHandler struct {
	cfg    handlerConfig
	attrs  []slog.Attr
	groups []string
}

func newStructuredHandler(cfg handlerConfig) *structuredHandler {
	if cfg.level == nil {
		cfg.level = slog.LevelInfo
	}
	if cfg.keyOrder == nil {
		cfg.keyOrder = append([]string(nil), defaultKeyOrder...)
	}
	return &structuredHandler{cfg: cfg}
}

func (h *structuredHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.cfg.level.Level()
}

func (h *structuredHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.cfg.writer == nil {
		return errNoWriter
	}
	f := h.fieldsFor(ctx, r)
	line, err := f.render(h.cfg.format, h.cfg.keyOrder)
	if err != nil {
		return err
	}
	return h.cfg.writer.Write(append(line, '\n'))
}

func (h *structuredHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr(nil), h.attrs...), attrs...)
	return &clone
}

func (h *structuredHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.groups = append(append([]string(nil), h.groups...), name)
	return &clone
}

// fieldsFor flattens the record, the handler attrs and the request metadata
// carried by ctx. Explicit attrs win over context values.
func (h *structuredHandler) fieldsFor(ctx context.Context, r slog.Record) fields {
	f := make(fields, 16)
	ts := r.Time.UTC()
	f["ts"] = ts.Truncate(time.Millisecond).Format(timeFormatMillis)
	f["level"] = normalizeLevel(r.Level.String())
	if h.cfg.format == formatJSON {
		f["ts_unix_nano"] = ts.UnixNano()
	}

	prefix := strings.Join(h.groups, ".")
	for _, a := range h.attrs {
		f.add(prefix, a)
	}
	r.Attrs(func(a slog.Attr) bool {
		f.add(prefix, a)
		return true
	})

	if ctx != nil {
		f.setDefault("rid", RIDFrom(ctx))
		f.setDefault("user_id", UserIDFrom(ctx))
		f.setDefault("update_id", int64(UpdateIDFrom(ctx)))
		f.setDefault("chat_id", ChatIDFrom(ctx))
		f.setDefault("handler", HandlerFrom(ctx))
	}

	if rid := f.str("rid"); rid != "" {
		if compact := CompactRID(rid); compact != "" && compact != rid {
			if h.cfg.format == formatJSON {
				f.setDefault("rid_full", rid)
			}
			f["rid"] = compact
		}
	}
	if f.str("event") == "" {
		event := r.Message
		if event == "" {
			event = "unknown"
		}
		f["event"] = event
	}
	if f.str("component") == "" {
		f["component"] = "app"
	}

	if s := f.str("status"); s != "" {
		if normalized, ok := normalizeStatus(s); ok {
			f["status"] = normalized
		}
	}
	if o := f.str("outcome"); o != "" {
		if normalized, ok := normalizeOutcome(o); ok {
			f["outcome"] = normalized
		} else {
			delete(f, "outcome")
		}
	}
	f.pruneEmpty()
	return f
}

// fields is one log line before rendering.
type fields map[string]any

// add stores attr under prefix, flattening groups into dotted keys.
func (f fields) add(prefix string, attr slog.Attr) {
	key := attr.Key
	if prefix != "" {
		if key == "" {
			key = prefix
		} else {
			key = prefix + "." + key
		}
	}
	if attr.Value.Kind() == slog.KindGroup {
		for _, child := range attr.Value.Group() {
			f.add(key, child)
		}
		return
	}
	if key == "" {
		return
	}
	if k, v, ok := normalizeValue(key, attr.Value.Resolve()); ok {
		f[k] = v
	}
}

// setDefault stores val under key unless the key is taken or val is zero.
func (f fields) setDefault(key string, val any) {
	if _, taken := f[key]; taken {
		return
	}
	switch v := val.(type) {
	case string:
		if v == "" {
			return
		}
	case int64:
		if v == 0 {
			return
		}
	}
	f[key] = val
}

func (f fields) str(key string) string {
	switch v := f[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

func (f fields) pruneEmpty() {
	for k, v := range f {
		switch val := v.(type) {
		case nil:
			delete(f, k)
		case string:
			if val == "" {
				delete(f, k)
			}
		case fmt.Stringer:
			if val.String() == "" {
				delete(f, k)
			}
		}
	}
}

// keys lists order first, then the remaining keys sorted.
func (f fields) keys(order []string) []string {
	keys := make([]string, 0, len(f))
	seen := make(map[string]struct{}, len(f))
	for _, k := range order {
		if _, ok := f[k]; ok {
			if _, dup := seen[k]; !dup {
				keys = append(keys, k)
				seen[k] = struct{}{}
			}
		}
	}
	rest := len(keys)
	for k := range f {
		if _, ok := seen[k]; !ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys[rest:])
	return keys
}

func (f fields) render(format logFormat, order []string) ([]byte, error) {
	keys := f.keys(order)
	buf := make([]byte, 0, 256)
	if format != formatJSON {
		for i, k := range keys {
			if i > 0 {
				buf = append(buf, ' ')
			}
			buf = append(buf, k...)
			buf = append(buf, '=')
			buf = appendKVValue(buf, f[k])
		}
		return buf, nil
	}

	buf = append(buf, '{')
	for i, k := range keys {
		data, err := json.Marshal(f[k])
		if err != nil {
			return nil, fmt.Errorf("logger: encode %s: %w", k, err)
		}
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = strconv.AppendQuote(buf, k)
		buf = append(buf, ':')
		buf = append(buf, data...)
	}
	return append(buf, '}'), nil
}

func appendKVValue(buf []byte, val any) []byte {
	switch v := val.(type) {
	case bool:
		return strconv.AppendBool(buf, v)
	case int64:
		return strconv.AppendInt(buf, v, 10)
	case uint64:
		return strconv.AppendUint(buf, v, 10)
	case float64:
		return strconv.AppendFloat(buf, v, 'g', -1, 64)
	}
	s, ok := val.(string)
	if !ok {
		s = fmt.Sprint(val)
	}
	if strings.IndexFunc(s, needsQuote) >= 0 {
		return strconv.AppendQuote(buf, s)
	}
	return append(buf, s...)
}

func needsQuote(r rune) bool {
	return r <= 32 || r == '=' || r == '"'
}

// normalizeValue converts val to a JSON friendly scalar. Durations become
// whole milliseconds under a key ending in _ms.
func normalizeValue(key string, val slog.Value) (string, any, bool) {
	switch val.Kind() {
	case slog.KindString:
		return key, strings.TrimSpace(val.String()), true
	case slog.KindBool:
		return key, val.Bool(), true
	case slog.KindInt64:
		return key, val.Int64(), true
	case slog.KindUint64:
		if u := val.Uint64(); u <= math.MaxInt64 {
			return key, int64(u), true
		}
		return key, val.Uint64(), true
	case slog.KindFloat64:
		return key, val.Float64(), true
	case slog.KindDuration:
		return durationKey(key), RoundMS(val.Duration()).Milliseconds(), true
	case slog.KindTime:
		return key, val.Time().UTC().Format(time.RFC3339Nano), true
	}

	switch x := val.Any().(type) {
	case nil:
		return key, nil, false
	case error:
		return key, x.Error(), true
	case string:
		return key, strings.TrimSpace(x), true
	case time.Duration:
		return durationKey(key), RoundMS(x).Milliseconds(), true
	case fmt.Stringer:
		return key, x.String(), true
	default:
		return key, fmt.Sprint(x), true
	}
}

// durationKey renames duration attributes so the unit is part of the key.
func durationKey(key string) string {
	switch {
	case key == "duration":
		return "duration_ms"
	case strings.HasSuffix(key, "_ms"):
		return key
	}
	return key + "_ms"
}
