package debug

import (
	"log/slog"
	"testing"
)

func TestParseCategories(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty", "", nil},
		{"single", "provider", []string{"provider"}},
		{"multiple", "provider,ratelimit", []string{"provider", "ratelimit"}},
		{"whitespace", " provider , auth ", []string{"provider", "auth"}},
		{"uppercase", "PROVIDER", []string{"provider"}},
		{"trailing comma", "provider,", []string{"provider"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseCategories(tt.input)
			if len(got) != len(tt.want) {
				t.Fatalf("parseCategories(%q) has %d categories, want %d", tt.input, len(got), len(tt.want))
			}
			for _, cat := range tt.want {
				if !got[cat] {
					t.Errorf("parseCategories(%q) missing category %q", tt.input, cat)
				}
			}
		})
	}
}

func TestEnabled(t *testing.T) {
	saved := categories
	defer func() { categories = saved }()

	categories = parseCategories("provider,ratelimit")

	if !Enabled("provider") {
		t.Error("Enabled(provider) = false, want true")
	}
	if !Enabled("ratelimit") {
		t.Error("Enabled(ratelimit) = false, want true")
	}
	if Enabled("auth") {
		t.Error("Enabled(auth) = true, want false")
	}
}

func TestEnabledAll(t *testing.T) {
	saved := categories
	defer func() { categories = saved }()

	categories = parseCategories("all")

	for _, cat := range []string{"provider", "ratelimit", "auth", "anything"} {
		if !Enabled(cat) {
			t.Errorf("Enabled(%s) = false with all enabled, want true", cat)
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
		{"bogus", slog.LevelInfo},
		{" debug ", slog.LevelDebug},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.input); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		input  string
		maxLen int
		want   string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"this is too long", 10, "this is to..."},
		{"", 5, ""},
	}

	for _, tt := range tests {
		if got := Truncate(tt.input, tt.maxLen); got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.input, tt.maxLen, got, tt.want)
		}
	}
}

func TestLogDisabledCategory(t *testing.T) {
	saved := categories
	defer func() { categories = saved }()

	categories = parseCategories("")

	// Must not panic and must not emit; there is no handler assertion
	// here because a disabled category short-circuits before slog.
	Log("provider", "should not appear", "key", "value")
	Trace("provider", "should not appear either")

	if TraceIsEnabled("provider") {
		t.Error("TraceIsEnabled(provider) = true with no categories, want false")
	}
}
