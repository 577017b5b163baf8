package debug

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestParseCategories(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  map[string]bool
	}{
		{"empty", "", map[string]bool{}},
		{"single", "auth", map[string]bool{"auth": true}},
		{"multiple", "auth,storage", map[string]bool{"auth": true, "storage": true}},
		{"all", "all", map[string]bool{"all": true}},
		{"with spaces", " auth , storage ", map[string]bool{"auth": true, "storage": true}},
		{"uppercase normalized", "AUTH,Storage", map[string]bool{"auth": true, "storage": true}},
		{"empty segments", "auth,,storage", map[string]bool{"auth": true, "storage": true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseCategories(tt.input)
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("got[%q] = %v, want %v", k, got[k], v)
				}
			}
			if len(got) != len(tt.want) {
				t.Errorf("len(got) = %d, want %d", len(got), len(tt.want))
			}
		})
	}
}

func TestEnabled(t *testing.T) {
	orig := categories
	defer func() { categories = orig }()

	categories = parseCategories("auth,storage")

	if !Enabled("auth") {
		t.Error("auth should be enabled")
	}
	if !Enabled("storage") {
		t.Error("storage should be enabled")
	}
	if Enabled("transport") {
		t.Error("transport should not be enabled")
	}
	if Enabled("all") {
		t.Error("all should not be enabled (not in categories)")
	}
}

func TestEnabled_All(t *testing.T) {
	orig := categories
	defer func() { categories = orig }()

	categories = parseCategories("all")

	for _, cat := range []string{"auth", "storage", "anything"} {
		if !Enabled(cat) {
			t.Errorf("%s should be enabled via 'all'", cat)
		}
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"TRACE", LevelTrace},
		{"trace", LevelTrace},
		{"DEBUG", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"WARN", slog.LevelWarn},
		{"WARNING", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{"unknown", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestValidLevel(t *testing.T) {
	for _, s := range []string{"", "info", "DEBUG", "trace", "warning"} {
		if !ValidLevel(s) {
			t.Errorf("ValidLevel(%q) = false, want true", s)
		}
	}
	if ValidLevel("verbose") {
		t.Error("ValidLevel(verbose) = true, want false")
	}
}

func TestUnknownCategories(t *testing.T) {
	got := UnknownCategories("auth, providers,storage,mcp")
	if len(got) != 2 || got[0] != "mcp" || got[1] != "providers" {
		t.Errorf("UnknownCategories = %v, want [mcp providers]", got)
	}
	if got := UnknownCategories("all"); len(got) != 0 {
		t.Errorf("UnknownCategories(all) = %v, want none", got)
	}
}

func TestInit_ConfigValues(t *testing.T) {
	t.Setenv("CITYGATE_DEBUG", "")
	t.Setenv("CITYGATE_LOG_LEVEL", "")
	orig := categories
	origLogger := slog.Default()
	defer func() {
		categories = orig
		slog.SetDefault(origLogger)
	}()

	var buf bytes.Buffer
	initWithWriter(&buf, "auth", "DEBUG", "json")

	Log("auth", "token accepted", "subject", "user-1")
	Log("storage", "not shown")

	out := buf.String()
	if !strings.Contains(out, `"msg":"token accepted"`) {
		t.Errorf("expected JSON debug line, got:\n%s", out)
	}
	if !strings.Contains(out, `"debug":"auth"`) {
		t.Errorf("expected category attribute, got:\n%s", out)
	}
	if strings.Contains(out, "not shown") {
		t.Errorf("disabled category was logged:\n%s", out)
	}
}

func TestInit_EnvOverridesConfig(t *testing.T) {
	t.Setenv("CITYGATE_DEBUG", "storage")
	t.Setenv("CITYGATE_LOG_LEVEL", "WARN")
	orig := categories
	origLogger := slog.Default()
	defer func() {
		categories = orig
		slog.SetDefault(origLogger)
	}()

	var buf bytes.Buffer
	initWithWriter(&buf, "auth", "DEBUG", "text")

	if Enabled("auth") {
		t.Error("auth should be disabled: env overrides config")
	}
	if !Enabled("storage") {
		t.Error("storage should be enabled from env")
	}

	slog.Info("below threshold")
	slog.Warn("at threshold")
	out := buf.String()
	if strings.Contains(out, "below threshold") {
		t.Errorf("INFO line logged at WARN level:\n%s", out)
	}
	if !strings.Contains(out, "at threshold") {
		t.Errorf("WARN line missing:\n%s", out)
	}
}

func TestLog_DisabledCategory(t *testing.T) {
	orig := categories
	defer func() { categories = orig }()

	categories = parseCategories("")

	// Should not panic or produce output.
	Log("auth", "test message", "key", "value")
	Trace("auth", "trace message", "key", "value")
}
