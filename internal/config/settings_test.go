package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "settings.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Mode != "video" {
		t.Fatalf("expected default mode video, got %q", s.Mode)
	}
	if s.ConsoleLines != 50 {
		t.Fatalf("expected default console_lines 50, got %d", s.ConsoleLines)
	}
	if s.UpdateCheck != UpdateCheck("1h") {
		t.Fatalf("expected default update_check 1h, got %q", s.UpdateCheck)
	}
}

func TestLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	in := Default()
	in.OutputDir = "/tmp/media"
	in.Mode = "audio"
	in.UpdateCheck = UpdateNever

	if err := Save(path, in); err != nil {
		t.Fatalf("Save: %v", err)
	}
	out, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if out.OutputDir != in.OutputDir || out.Mode != in.Mode || out.UpdateCheck != in.UpdateCheck {
		t.Fatalf("round trip mismatch: %+v", out)
	}
}

func TestLoadPartialFileFillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	if err := os.WriteFile(path, []byte("output_dir: /data\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.OutputDir != "/data" {
		t.Fatalf("expected output_dir /data, got %q", s.OutputDir)
	}
	if s.AudioFormat != "mp3" {
		t.Fatalf("expected default audio_format, got %q", s.AudioFormat)
	}
}

func TestLoadRejectsInvalidMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	if err := os.WriteFile(path, []byte("mode: webm\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for invalid mode")
	}
}

func TestUpdateInterval(t *testing.T) {
	cases := []struct {
		in      UpdateCheck
		want    time.Duration
		wantErr bool
	}{
		{UpdateAlways, 0, false},
		{UpdateNever, -1, false},
		{UpdateCheck("30m"), 30 * time.Minute, false},
		{UpdateCheck("bogus"), 0, true},
		{UpdateCheck("-5m"), 0, true},
	}
	for _, tc := range cases {
		s := Settings{UpdateCheck: tc.in}
		got, err := s.UpdateInterval()
		if tc.wantErr {
			if err == nil {
				t.Fatalf("%q: expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%q: %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("%q: expected %v, got %v", tc.in, tc.want, got)
		}
	}
}
