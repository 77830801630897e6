package download

import (
	"regexp"
	"strconv"
	"strings"
)

// ProgressEvent is a transient snapshot of download progress. Each event
// supersedes the previous one; nothing is persisted.
type ProgressEvent struct {
	Percent        float64
	BytesPerSecond float64
	ETA            string
	Raw            string
}

// progressLine matches the extractor's human progress format:
//
//	[download]  47.3% of 123.45MiB at 1.2MiB/s ETA 00:32
//
// The format is owned by the tool and drifts across its versions, so the
// match is deliberately loose: percent is required, size/speed/ETA are not.
// Anything that does not match passes through as a plain console line.
var progressLine = regexp.MustCompile(
	`^\[download\]\s+([0-9]+(?:\.[0-9]+)?)%` +
		`(?:\s+of\s+~?\s*(\S+))?` +
		`(?:\s+at\s+(\S+))?` +
		`(?:\s+ETA\s+(\S+))?`,
)

// parseProgressLine attempts to interpret line as a progress update.
func parseProgressLine(line string) (ProgressEvent, bool) {
	m := progressLine.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return ProgressEvent{}, false
	}

	percent, err := strconv.ParseFloat(m[1], 64)
	if err != nil || percent < 0 || percent > 100 {
		return ProgressEvent{}, false
	}

	ev := ProgressEvent{Percent: percent, Raw: line}
	if m[3] != "" {
		ev.BytesPerSecond = parseRate(m[3])
	}
	if m[4] != "" && m[4] != "Unknown" {
		ev.ETA = m[4]
	}
	return ev, true
}

// rateUnits is ordered longest suffix first so "MiB/s" wins over "B/s".
var rateUnits = []struct {
	suffix string
	scale  float64
}{
	{"KiB/s", 1 << 10},
	{"MiB/s", 1 << 20},
	{"GiB/s", 1 << 30},
	{"KB/s", 1e3},
	{"MB/s", 1e6},
	{"GB/s", 1e9},
	{"B/s", 1},
}

// parseRate converts a transfer rate like "1.2MiB/s" to bytes per second.
// Unknown units yield zero; the field is optional anyway.
func parseRate(raw string) float64 {
	raw = strings.TrimSpace(raw)
	for _, unit := range rateUnits {
		if strings.HasSuffix(raw, unit.suffix) {
			value, err := strconv.ParseFloat(strings.TrimSuffix(raw, unit.suffix), 64)
			if err != nil {
				return 0
			}
			return value * unit.scale
		}
	}
	return 0
}
