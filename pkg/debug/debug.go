// Package debug provides category-based debug logging for citygate.
//
// Two orthogonal controls:
//   - Categories (WHAT to debug): controlled via CITYGATE_DEBUG env or config
//   - Levels (HOW MUCH detail): controlled via CITYGATE_LOG_LEVEL env or config
//
// Usage:
//
//	debug.Log("auth", "live account check rejected token", "reason", reason)
//	if debug.Enabled("storage") { /* expensive formatting */ }
//
// Categories: auth, storage, transport, config, all.
// Levels: ERROR, WARN, INFO, DEBUG, TRACE.
//
// Credentials and token contents must never be passed to Log.
package debug

import (
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"
)

// LevelTrace is below slog.LevelDebug for maximum verbosity.
const LevelTrace = slog.LevelDebug - 4

// KnownCategories lists the categories recognized by the server.
var KnownCategories = []string{"auth", "storage", "transport", "config", "all"}

// categories holds the set of enabled debug categories.
// Access is read-only after Init(), so no synchronization needed.
var categories map[string]bool

func init() {
	// Initialize from environment for immediate availability.
	// Can be re-initialized later via Init() with config values.
	categories = parseCategories(os.Getenv("CITYGATE_DEBUG"))
}

// Init configures the debug system and installs the default slog logger
// on stderr. Called at startup with values from config. Environment
// overrides config. format is "text" (default) or "json".
func Init(configCategories, configLevel, format string) {
	initWithWriter(os.Stderr, configCategories, configLevel, format)
}

func initWithWriter(w io.Writer, configCategories, configLevel, format string) {
	cats := os.Getenv("CITYGATE_DEBUG")
	if cats == "" {
		cats = configCategories
	}
	categories = parseCategories(cats)

	level := os.Getenv("CITYGATE_LOG_LEVEL")
	if level == "" {
		level = configLevel
	}

	opts := &slog.HandlerOptions{Level: ParseLevel(level)}
	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// Enabled reports whether debug output is active for the given category.
func Enabled(category string) bool {
	return categories["all"] || categories[category]
}

// Log emits a debug message for the given category.
// If the category is not enabled, this is a no-op.
func Log(category string, msg string, args ...any) {
	if !Enabled(category) {
		return
	}
	slog.Debug(msg, append([]any{"debug", category}, args...)...)
}

// Trace emits a trace-level message for the given category.
// Only visible when CITYGATE_LOG_LEVEL=TRACE.
func Trace(category string, msg string, args ...any) {
	if !Enabled(category) {
		return
	}
	slog.Log(nil, LevelTrace, msg, append([]any{"debug", category}, args...)...)
}

// ParseLevel converts a level string to a slog.Level.
func ParseLevel(s string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TRACE":
		return LevelTrace
	case "DEBUG":
		return slog.LevelDebug
	case "INFO", "":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ValidLevel reports whether s names a level ParseLevel understands.
// The empty string is valid and means INFO.
func ValidLevel(s string) bool {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TRACE", "DEBUG", "INFO", "", "WARN", "WARNING", "ERROR":
		return true
	}
	return false
}

// UnknownCategories returns the entries of a comma-separated category list
// that are not in KnownCategories.
func UnknownCategories(s string) []string {
	var unknown []string
	for cat := range parseCategories(s) {
		if !slices.Contains(KnownCategories, cat) {
			unknown = append(unknown, cat)
		}
	}
	slices.Sort(unknown)
	return unknown
}

// Categories returns the sorted list of enabled categories.
func Categories() []string {
	var result []string
	for k := range categories {
		result = append(result, k)
	}
	slices.Sort(result)
	return result
}

func parseCategories(s string) map[string]bool {
	m := make(map[string]bool)
	if s == "" {
		return m
	}
	for _, cat := range strings.Split(s, ",") {
		cat = strings.TrimSpace(strings.ToLower(cat))
		if cat != "" {
			m[cat] = true
		}
	}
	return m
}
