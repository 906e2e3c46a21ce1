package logger

import "strings"

var levelNames = map[string]string{
	"debug":   "DEBUG",
	"info":    "INFO",
	"warn":    "WARN",
	"warning": "WARN",
	"error":   "ERROR",
}

// statusAliases folds the spellings used across packages onto one set.
var statusAliases = map[string]string{
	"error":     "fail",
	"failed":    "fail",
	"canceled":  "cancelled",
	"throttled": "rate_limited",
}

var outcomes = map[string]bool{
	"ok":           true,
	"fail":         true,
	"cancelled":    true,
	"rate_limited": true,
	"rejected":     true,
}

func normalizeLevel(level string) string {
	if level == "" {
		return "INFO"
	}
	if name, ok := levelNames[strings.ToLower(level)]; ok {
		return name
	}
	return strings.ToUpper(level)
}

func normalizeStatus(status string) string {
	status = strings.ToLower(strings.TrimSpace(status))
	if alias, ok := statusAliases[status]; ok {
		return alias
	}
	return status
}

func normalizeOutcome(outcome string) (string, bool) {
	outcome = strings.ToLower(strings.TrimSpace(outcome))
	if alias, ok := statusAliases[outcome]; ok {
		outcome = alias
	}
	return outcome, outcomes[outcome]
}

// defaultKeyOrder puts correlation first, then the listing, then errors.
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
	"outcome",
	"duration_ms",
	"elapsed_ms",
	"listing_id",
	"ref",
	"kind",
	"state",
	"action",
	"target",
	"endpoint",
	"count",
	"messages",
	"kb",
	"payload",
	"username",
	"mode",
	"listen",
	"addr",
	"public_url",
	"http_code",
	"db",
	"host",
	"port",
	"err",
	"err_code",
	"error_kind",
	"cause",
	"attempt",
	"attempts",
	"delay_ms",
	"pending_count",
}
