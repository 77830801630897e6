package tool

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// Newer reports whether candidate is strictly newer than current. Versions
// are compared by their numeric components (yt-dlp uses date-based tags like
// 2024.07.16), so "2024.10.07" > "2024.7.16" and suffixed builds compare on
// the shared prefix.
func Newer(candidate, current string) bool {
	if candidate == "" {
		return false
	}
	if current == "" {
		return true
	}

	c := numericParts(candidate)
	v := numericParts(current)
	for len(c) < len(v) {
		c = append(c, 0)
	}
	for len(v) < len(c) {
		v = append(v, 0)
	}
	for i := range c {
		if c[i] > v[i] {
			return true
		}
		if c[i] < v[i] {
			return false
		}
	}
	return false
}

func numericParts(version string) []int {
	var parts []int
	current := strings.Builder{}
	for _, r := range version {
		if r >= '0' && r <= '9' {
			current.WriteRune(r)
			continue
		}
		if current.Len() > 0 {
			val, _ := strconv.Atoi(current.String())
			parts = append(parts, val)
			current.Reset()
		}
	}
	if current.Len() > 0 {
		val, _ := strconv.Atoi(current.String())
		parts = append(parts, val)
	}
	return parts
}

const versionProbeTimeout = 15 * time.Second

// readBinaryVersion runs the binary's version switch and returns the first
// output line. A binary that cannot report a version is treated as unusable.
// Overridable in tests.
var readBinaryVersion = func(ctx context.Context, path string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, versionProbeTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, path, Extractor().VersionSwitch)
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("probe version: %w", err)
	}

	line := firstLine(strings.TrimSpace(string(output)))
	if line == "" {
		return "", fmt.Errorf("probe version: empty output")
	}
	return line, nil
}

func firstLine(text string) string {
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		return text[:idx]
	}
	return text
}
