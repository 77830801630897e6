package tool

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"
)

// Provisioner ensures a working, current extractor binary exists under
// BinDir. Safe to call before every operation; EnsureReady is idempotent and
// cheap when the installed binary is fresh.
type Provisioner struct {
	BinDir string

	// Interval controls how often the remote release source is consulted.
	// Zero checks on every call; a negative value disables update checks.
	Interval time.Duration

	// Logf receives progress lines. Optional.
	Logf func(format string, v ...any)
}

// New returns a provisioner rooted at binDir.
func New(binDir string, interval time.Duration) *Provisioner {
	return &Provisioner{BinDir: binDir, Interval: interval}
}

// EnsureReady guarantees a verified extractor binary and returns its
// installation record. Update-check failures with a usable local binary are
// reported through Installation.Notices rather than as errors.
func (p *Provisioner) EnsureReady(ctx context.Context) (Installation, error) {
	inst, ok := loadRecord(p.BinDir)
	if !ok {
		return p.firstInstall(ctx)
	}

	if p.Interval < 0 {
		return p.withToolchainNotices(inst), nil
	}
	if p.Interval > 0 && time.Since(inst.CheckedAt) < p.Interval {
		return p.withToolchainNotices(inst), nil
	}

	spec, err := lookupLatestRelease(ctx)
	if err != nil {
		p.logf("update check failed: %v", err)
		inst.Notices = append(inst.Notices, fmt.Sprintf("update check failed: %v", err))
		return p.withToolchainNotices(inst), nil
	}

	if !Newer(spec.Version, inst.Version) {
		inst.CheckedAt = time.Now().UTC()
		if err := saveRecord(p.BinDir, inst); err != nil {
			return Installation{}, err
		}
		return p.withToolchainNotices(inst), nil
	}

	p.logf("upgrading yt-dlp %s -> %s", inst.Version, spec.Version)
	upgraded, err := p.installRelease(ctx, spec)
	if err != nil {
		if IsKind(err, KindCorrupt) {
			return Installation{}, err
		}
		// Network trouble mid-upgrade degrades like a failed check; the
		// verified local binary stays in place.
		p.logf("upgrade failed: %v", err)
		inst.Notices = append(inst.Notices, fmt.Sprintf("upgrade to %s failed: %v", spec.Version, err))
		return p.withToolchainNotices(inst), nil
	}
	return p.withToolchainNotices(upgraded), nil
}

func (p *Provisioner) firstInstall(ctx context.Context) (Installation, error) {
	spec, err := lookupLatestRelease(ctx)
	if err != nil {
		return Installation{}, &Error{Kind: KindNoBinary, Err: err}
	}

	inst, err := p.installRelease(ctx, spec)
	if err != nil {
		if IsKind(err, KindCorrupt) {
			return Installation{}, err
		}
		return Installation{}, &Error{Kind: KindNoBinary, Err: err}
	}
	return p.withToolchainNotices(inst), nil
}

// installRelease downloads the release artifact to a temporary file, verifies
// it runs, then atomically moves it into place and persists the record. The
// download step is retried once; a binary that downloads but cannot report a
// version is DownloadCorrupt.
func (p *Provisioner) installRelease(ctx context.Context, spec releaseSpec) (Installation, error) {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			p.logf("retrying download of %s", spec.URL)
		}
		inst, err := p.installOnce(ctx, spec)
		if err == nil {
			return inst, nil
		}
		lastErr = err
	}

	var verr *verifyError
	if errors.As(lastErr, &verr) {
		return Installation{}, &Error{Kind: KindCorrupt, Err: verr.err}
	}
	return Installation{}, lastErr
}

func (p *Provisioner) installOnce(ctx context.Context, spec releaseSpec) (Installation, error) {
	if err := os.MkdirAll(p.BinDir, 0o755); err != nil {
		return Installation{}, fmt.Errorf("prepare bin dir: %w", err)
	}

	tmp, err := os.CreateTemp(p.BinDir, "yt-dlp-*.tmp")
	if err != nil {
		return Installation{}, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpPath)
		}
	}()

	p.logf("downloading %s", spec.URL)
	if err := fetchArtifact(ctx, spec.URL, tmpPath); err != nil {
		return Installation{}, err
	}

	if runtime.GOOS != "windows" {
		if err := os.Chmod(tmpPath, 0o755); err != nil {
			return Installation{}, fmt.Errorf("chmod binary: %w", err)
		}
	}

	version, err := readBinaryVersion(ctx, tmpPath)
	if err != nil {
		return Installation{}, &verifyError{err: err}
	}

	dest := filepath.Join(p.BinDir, Extractor().Executable)
	if err := os.Rename(tmpPath, dest); err != nil {
		return Installation{}, fmt.Errorf("install binary: %w", err)
	}
	committed = true

	now := time.Now().UTC()
	inst := Installation{
		BinPath:     dest,
		Version:     version,
		InstalledAt: now,
		CheckedAt:   now,
	}
	if err := saveRecord(p.BinDir, inst); err != nil {
		return Installation{}, err
	}
	p.logf("installed yt-dlp %s at %s", version, dest)
	return inst, nil
}

// withToolchainNotices annotates the installation with missing-companion
// warnings. Audio extraction shells out to ffmpeg, which is detected but
// never downloaded.
func (p *Provisioner) withToolchainNotices(inst Installation) Installation {
	if err := lookFFmpeg(); err != nil {
		inst.Notices = append(inst.Notices, "ffmpeg not found in PATH; audio extraction may fail")
	}
	return inst
}

var lookFFmpeg = func() error {
	_, err := exec.LookPath("ffmpeg")
	return err
}

// fetchArtifact streams the release artifact to dest. Overridable in tests.
var fetchArtifact = func(ctx context.Context, downloadURL, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, downloadURL, nil)
	if err != nil {
		return fmt.Errorf("create download request: %w", err)
	}
	req.Header.Set("User-Agent", "tubegrab/1.0")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("download %s: %w", downloadURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("download %s: unexpected status %s", downloadURL, resp.Status)
	}

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("open download destination: %w", err)
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		return fmt.Errorf("write download: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close download: %w", err)
	}
	return nil
}

func (p *Provisioner) logf(format string, v ...any) {
	if p.Logf != nil {
		p.Logf(format, v...)
	}
}

type verifyError struct {
	err error
}

func (e *verifyError) Error() string { return fmt.Sprintf("verify binary: %v", e.err) }
func (e *verifyError) Unwrap() error { return e.err }
