package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"strings"
	"time"
)

const (
	releaseEndpoint    = "https://api.github.com/repos/yt-dlp/yt-dlp/releases/latest"
	releaseQueryWindow = 10 * time.Second
)

// releaseSpec identifies the newest published extractor build for the host
// platform.
type releaseSpec struct {
	Version string
	URL     string
}

type githubReleaseAsset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
}

type githubRelease struct {
	TagName string               `json:"tag_name"`
	Assets  []githubReleaseAsset `json:"assets"`
}

// lookupLatestRelease queries the distribution source for the newest release.
// The call is bounded; callers degrade to the local binary when it fails.
// Overridable in tests.
var lookupLatestRelease = func(ctx context.Context) (releaseSpec, error) {
	candidates := assetCandidates()
	if len(candidates) == 0 {
		return releaseSpec{}, fmt.Errorf("yt-dlp download unsupported on %s/%s", runtime.GOOS, runtime.GOARCH)
	}

	ctx, cancel := context.WithTimeout(ctx, releaseQueryWindow)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, releaseEndpoint, nil)
	if err != nil {
		return releaseSpec{}, fmt.Errorf("create release request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", "tubegrab/1.0")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return releaseSpec{}, fmt.Errorf("query release: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return releaseSpec{}, fmt.Errorf("release query failed: %s", resp.Status)
	}

	var release githubRelease
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return releaseSpec{}, fmt.Errorf("decode release: %w", err)
	}

	assetURL, err := selectAsset(release.Assets, candidates)
	if err != nil {
		return releaseSpec{}, err
	}

	version := strings.TrimPrefix(release.TagName, "v")
	if version == "" {
		return releaseSpec{}, fmt.Errorf("release metadata missing tag")
	}

	return releaseSpec{Version: version, URL: assetURL}, nil
}

func selectAsset(assets []githubReleaseAsset, candidates []string) (string, error) {
	for _, candidate := range candidates {
		for _, asset := range assets {
			if asset.Name == candidate {
				return asset.BrowserDownloadURL, nil
			}
		}
	}
	return "", fmt.Errorf("no release asset available for platform")
}
