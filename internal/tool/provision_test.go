package tool

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func stubToolchain(t *testing.T) {
	t.Helper()
	origLook := lookFFmpeg
	lookFFmpeg = func() error { return nil }
	t.Cleanup(func() { lookFFmpeg = origLook })
}

func stubRelease(t *testing.T, spec releaseSpec, err error) *int {
	t.Helper()
	calls := new(int)
	orig := lookupLatestRelease
	lookupLatestRelease = func(_ context.Context) (releaseSpec, error) {
		*calls++
		return spec, err
	}
	t.Cleanup(func() { lookupLatestRelease = orig })
	return calls
}

func stubFetch(t *testing.T, payload []byte, err error) *int {
	t.Helper()
	calls := new(int)
	orig := fetchArtifact
	fetchArtifact = func(_ context.Context, _ string, dest string) error {
		*calls++
		if err != nil {
			return err
		}
		return os.WriteFile(dest, payload, 0o755)
	}
	t.Cleanup(func() { fetchArtifact = orig })
	return calls
}

func stubVersionProbe(t *testing.T, version string, err error) {
	t.Helper()
	orig := readBinaryVersion
	readBinaryVersion = func(_ context.Context, _ string) (string, error) {
		return version, err
	}
	t.Cleanup(func() { readBinaryVersion = orig })
}

func TestEnsureReadyFirstInstall(t *testing.T) {
	stubToolchain(t)
	stubRelease(t, releaseSpec{Version: "2025.08.10", URL: "https://example.com/yt-dlp"}, nil)
	fetches := stubFetch(t, []byte("binary"), nil)
	stubVersionProbe(t, "2025.08.10", nil)

	binDir := t.TempDir()
	p := New(binDir, time.Hour)

	inst, err := p.EnsureReady(context.Background())
	if err != nil {
		t.Fatalf("EnsureReady: %v", err)
	}
	if inst.Version != "2025.08.10" {
		t.Fatalf("expected version 2025.08.10, got %q", inst.Version)
	}
	if inst.BinPath != filepath.Join(binDir, Extractor().Executable) {
		t.Fatalf("unexpected bin path %q", inst.BinPath)
	}
	if *fetches != 1 {
		t.Fatalf("expected 1 download, got %d", *fetches)
	}
	if _, err := os.Stat(inst.BinPath); err != nil {
		t.Fatalf("binary not installed: %v", err)
	}
	if _, ok := loadRecord(binDir); !ok {
		t.Fatal("install record not persisted")
	}
}

func TestEnsureReadyIdempotentInsideWindow(t *testing.T) {
	stubToolchain(t)
	releases := stubRelease(t, releaseSpec{Version: "2025.08.10", URL: "https://example.com/yt-dlp"}, nil)
	fetches := stubFetch(t, []byte("binary"), nil)
	stubVersionProbe(t, "2025.08.10", nil)

	p := New(t.TempDir(), time.Hour)
	ctx := context.Background()

	if _, err := p.EnsureReady(ctx); err != nil {
		t.Fatalf("first EnsureReady: %v", err)
	}
	if _, err := p.EnsureReady(ctx); err != nil {
		t.Fatalf("second EnsureReady: %v", err)
	}

	if *releases != 1 {
		t.Fatalf("expected 1 release lookup, got %d", *releases)
	}
	if *fetches != 1 {
		t.Fatalf("expected 1 download, got %d", *fetches)
	}
}

func TestEnsureReadyUpdateCheckFailureKeepsLocalBinary(t *testing.T) {
	stubToolchain(t)
	stubRelease(t, releaseSpec{Version: "2025.08.10", URL: "https://example.com/yt-dlp"}, nil)
	stubFetch(t, []byte("binary"), nil)
	stubVersionProbe(t, "2025.08.10", nil)

	p := New(t.TempDir(), 0)
	ctx := context.Background()

	if _, err := p.EnsureReady(ctx); err != nil {
		t.Fatalf("install: %v", err)
	}

	stubRelease(t, releaseSpec{}, errors.New("dial tcp: network unreachable"))

	inst, err := p.EnsureReady(ctx)
	if err != nil {
		t.Fatalf("EnsureReady after network loss: %v", err)
	}
	if inst.Version != "2025.08.10" {
		t.Fatalf("expected existing version, got %q", inst.Version)
	}
	if len(inst.Notices) == 0 {
		t.Fatal("expected an update-check notice")
	}
}

func TestEnsureReadyNoNetworkNoBinary(t *testing.T) {
	stubToolchain(t)
	stubRelease(t, releaseSpec{}, errors.New("dial tcp: network unreachable"))

	p := New(t.TempDir(), 0)
	_, err := p.EnsureReady(context.Background())
	if !IsKind(err, KindNoBinary) {
		t.Fatalf("expected KindNoBinary, got %v", err)
	}
}

func TestEnsureReadyCorruptDownloadRetriesOnce(t *testing.T) {
	stubToolchain(t)
	stubRelease(t, releaseSpec{Version: "2025.08.10", URL: "https://example.com/yt-dlp"}, nil)
	fetches := stubFetch(t, []byte("garbage"), nil)
	stubVersionProbe(t, "", errors.New("exec format error"))

	binDir := t.TempDir()
	p := New(binDir, 0)

	_, err := p.EnsureReady(context.Background())
	if !IsKind(err, KindCorrupt) {
		t.Fatalf("expected KindCorrupt, got %v", err)
	}
	if *fetches != 2 {
		t.Fatalf("expected exactly one retry (2 downloads), got %d", *fetches)
	}

	// A failed install must never leave a binary at the canonical path.
	if _, statErr := os.Stat(filepath.Join(binDir, Extractor().Executable)); !errors.Is(statErr, os.ErrNotExist) {
		t.Fatalf("corrupt binary left in place: %v", statErr)
	}
}

func TestEnsureReadyUpgradesWhenNewer(t *testing.T) {
	stubToolchain(t)
	stubRelease(t, releaseSpec{Version: "2025.01.01", URL: "https://example.com/yt-dlp"}, nil)
	stubFetch(t, []byte("old"), nil)
	stubVersionProbe(t, "2025.01.01", nil)

	p := New(t.TempDir(), 0)
	ctx := context.Background()

	if _, err := p.EnsureReady(ctx); err != nil {
		t.Fatalf("install: %v", err)
	}

	stubRelease(t, releaseSpec{Version: "2025.08.10", URL: "https://example.com/yt-dlp"}, nil)
	fetches := stubFetch(t, []byte("new"), nil)
	stubVersionProbe(t, "2025.08.10", nil)

	inst, err := p.EnsureReady(ctx)
	if err != nil {
		t.Fatalf("upgrade: %v", err)
	}
	if inst.Version != "2025.08.10" {
		t.Fatalf("expected upgraded version, got %q", inst.Version)
	}
	if *fetches != 1 {
		t.Fatalf("expected 1 download for upgrade, got %d", *fetches)
	}

	data, err := os.ReadFile(inst.BinPath)
	if err != nil {
		t.Fatalf("read binary: %v", err)
	}
	if string(data) != "new" {
		t.Fatalf("binary not replaced, contents %q", data)
	}
}

func TestEnsureReadySkipsDownloadWhenCurrent(t *testing.T) {
	stubToolchain(t)
	stubRelease(t, releaseSpec{Version: "2025.08.10", URL: "https://example.com/yt-dlp"}, nil)
	fetches := stubFetch(t, []byte("binary"), nil)
	stubVersionProbe(t, "2025.08.10", nil)

	p := New(t.TempDir(), 0)
	ctx := context.Background()

	if _, err := p.EnsureReady(ctx); err != nil {
		t.Fatalf("install: %v", err)
	}
	if _, err := p.EnsureReady(ctx); err != nil {
		t.Fatalf("recheck: %v", err)
	}
	if *fetches != 1 {
		t.Fatalf("expected no re-download for same version, got %d", *fetches)
	}
}

func TestEnsureReadyNeverPolicySkipsLookup(t *testing.T) {
	stubToolchain(t)
	releases := stubRelease(t, releaseSpec{Version: "2025.08.10", URL: "https://example.com/yt-dlp"}, nil)
	stubFetch(t, []byte("binary"), nil)
	stubVersionProbe(t, "2025.08.10", nil)

	dir := t.TempDir()
	ctx := context.Background()

	if _, err := New(dir, 0).EnsureReady(ctx); err != nil {
		t.Fatalf("install: %v", err)
	}
	lookupsAfterInstall := *releases

	if _, err := New(dir, -1).EnsureReady(ctx); err != nil {
		t.Fatalf("EnsureReady with never policy: %v", err)
	}
	if *releases != lookupsAfterInstall {
		t.Fatalf("expected no further lookups, got %d", *releases-lookupsAfterInstall)
	}
}

func TestEnsureReadyMissingFFmpegNotice(t *testing.T) {
	origLook := lookFFmpeg
	lookFFmpeg = func() error { return fmt.Errorf("not found") }
	t.Cleanup(func() { lookFFmpeg = origLook })

	stubRelease(t, releaseSpec{Version: "2025.08.10", URL: "https://example.com/yt-dlp"}, nil)
	stubFetch(t, []byte("binary"), nil)
	stubVersionProbe(t, "2025.08.10", nil)

	inst, err := New(t.TempDir(), 0).EnsureReady(context.Background())
	if err != nil {
		t.Fatalf("EnsureReady: %v", err)
	}
	found := false
	for _, n := range inst.Notices {
		if n == "ffmpeg not found in PATH; audio extraction may fail" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected ffmpeg notice, got %v", inst.Notices)
	}
}
