package cli

import (
	"strings"
	"testing"

	"tubegrab/internal/config"
)

func TestApplySetting(t *testing.T) {
	s := config.Default()

	if err := applySetting(&s, "mode", "audio"); err != nil {
		t.Fatalf("set mode: %v", err)
	}
	if s.Mode != "audio" {
		t.Fatalf("mode not applied: %q", s.Mode)
	}

	if err := applySetting(&s, "update_check", "never"); err != nil {
		t.Fatalf("set update_check: %v", err)
	}
	if s.UpdateCheck != config.UpdateNever {
		t.Fatalf("update_check not applied: %q", s.UpdateCheck)
	}

	if err := applySetting(&s, "console_lines", "80"); err != nil {
		t.Fatalf("set console_lines: %v", err)
	}
	if s.ConsoleLines != 80 {
		t.Fatalf("console_lines not applied: %d", s.ConsoleLines)
	}

	if err := applySetting(&s, "console_lines", "zero"); err == nil {
		t.Fatal("non-numeric console_lines accepted")
	}
	if err := applySetting(&s, "nonsense", "x"); err == nil || !strings.Contains(err.Error(), "unknown settings key") {
		t.Fatalf("unknown key accepted: %v", err)
	}
}

func TestFormatBytes(t *testing.T) {
	cases := []struct {
		in   int64
		want string
	}{
		{0, "-"},
		{512, "512B"},
		{2048, "2.00KiB"},
		{5 << 20, "5.00MiB"},
		{3 << 30, "3.00GiB"},
	}
	for _, tc := range cases {
		if got := formatBytes(tc.in); got != tc.want {
			t.Fatalf("formatBytes(%d) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
