package logger

import "strings"

// Level names as written to the "level" field.
var levelNames = map[string]string{
	"debug":   "DEBUG",
	"info":    "INFO",
	"warn":    "WARN",
	"warning": "WARN",
	"error":   "ERROR",
	"fatal":   "FATAL",
}

// Statuses outside this set are kept lowercased; unknown outcomes are dropped.
var (
	knownStatuses = wordSet("ok", "fail", "skip", "retry", "rate_limited", "cancelled", "expired", "stale")
	knownOutcomes = wordSet("ok", "fail", "cancelled", "rate_limited")
)

func wordSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

func normalizeLevel(level string) string {
	if level == "" {
		return levelNames["info"]
	}
	if name, ok := levelNames[strings.ToLower(level)]; ok {
		return name
	}
	return strings.ToUpper(level)
}

func normalizeStatus(status string) (string, bool) {
	status = strings.ToLower(strings.TrimSpace(status))
	_, ok := knownStatuses[status]
	return status, ok && status != ""
}

func normalizeOutcome(outcome string) (string, bool) {
	outcome = strings.ToLower(strings.TrimSpace(outcome))
	_, ok := knownOutcomes[outcome]
	return outcome, ok
}

// defaultKeyOrder puts the envelope first, then request identity, handler
// summary, transport, dialog and error keys. Other keys follow sorted.
var defaultKeyOrder = []string{
	"ts",
	"level",
	"component",
	"event",
	"status",
	"rid",
	"rid_full",
	"ts_unix_nano",
	"update_id",
	"user_id",
	"chat_id",
	"chat_type",
	"handler",
	"operation",
	"op",
	"cb_key",
	"outcome",
	"duration_ms",
	"messages",
	"deleted",
	"kb",
	"count",
	"page",
	"pages",
	"payload",
	"lang",
	"username",
	"mode",
	"listen",
	"public_url",
	"http_code",
	"db",
	"host",
	"port",
	"state",
	"next_state",
	"button",
	"tx_id",
	"tx_type",
	"price",
	"prompt_id",
	"effects",
	"sessions",
	"err",
	"err_code",
	"cause",
	"retryable",
	"attempts",
	"backoff_ms",
	"rate_limited",
	"collapsed",
	"repeats",
	"pending_count",
	"expired",
}
