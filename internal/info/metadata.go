package info

import (
	"encoding/json"
	"fmt"
	"strings"
)

// FormatKind classifies a downloadable format by the streams it carries.
type FormatKind string

const (
	KindVideoOnly FormatKind = "video-only"
	KindAudioOnly FormatKind = "audio-only"
	KindCombined  FormatKind = "combined"
)

// Format is one downloadable rendition, derived entirely from extractor
// output. Its identity is the ID string the extractor assigned.
type Format struct {
	ID         string
	Resolution string
	FPS        float64
	VideoKbps  float64
	AudioKbps  float64
	Codec      string
	SizeBytes  int64
	Kind       FormatKind
}

// VideoMetadata is the parsed result of a metadata fetch. Immutable once
// produced.
type VideoMetadata struct {
	Title           string
	DurationSeconds int
	Uploader        string
	ViewCount       int64
	Thumbnail       string
	Formats         []Format
}

// DurationDisplay renders the duration as H:MM:SS or M:SS.
func (m VideoMetadata) DurationDisplay() string {
	total := m.DurationSeconds
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60
	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}

// rawMetadata mirrors the subset of the extractor's -J document we consume.
// The document is versioned by the tool, not by us; unknown fields are
// ignored and missing ones default.
type rawMetadata struct {
	Title     string      `json:"title"`
	Duration  float64     `json:"duration"`
	Uploader  string      `json:"uploader"`
	ViewCount int64       `json:"view_count"`
	Thumbnail string      `json:"thumbnail"`
	Formats   []rawFormat `json:"formats"`
}

type rawFormat struct {
	FormatID       string  `json:"format_id"`
	Resolution     string  `json:"resolution"`
	FPS            float64 `json:"fps"`
	VBR            float64 `json:"vbr"`
	ABR            float64 `json:"abr"`
	VCodec         string  `json:"vcodec"`
	ACodec         string  `json:"acodec"`
	Filesize       int64   `json:"filesize"`
	FilesizeApprox int64   `json:"filesize_approx"`
}

func parseMetadata(payload string) (VideoMetadata, error) {
	var raw rawMetadata
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		return VideoMetadata{}, &ParseError{Raw: payload, Err: err}
	}
	if raw.Title == "" && raw.Duration == 0 && len(raw.Formats) == 0 {
		return VideoMetadata{}, &ParseError{Raw: payload, Err: fmt.Errorf("document carries no recognizable fields")}
	}

	meta := VideoMetadata{
		Title:           raw.Title,
		DurationSeconds: int(raw.Duration),
		Uploader:        raw.Uploader,
		ViewCount:       raw.ViewCount,
		Thumbnail:       raw.Thumbnail,
	}
	for _, rf := range raw.Formats {
		if rf.FormatID == "" {
			continue
		}
		meta.Formats = append(meta.Formats, Format{
			ID:         rf.FormatID,
			Resolution: formatResolution(rf),
			FPS:        rf.FPS,
			VideoKbps:  rf.VBR,
			AudioKbps:  rf.ABR,
			Codec:      formatCodec(rf),
			SizeBytes:  formatSize(rf),
			Kind:       formatKind(rf),
		})
	}
	return meta, nil
}

func formatKind(rf rawFormat) FormatKind {
	videoAbsent := rf.VCodec == "" || rf.VCodec == "none"
	audioAbsent := rf.ACodec == "" || rf.ACodec == "none"
	switch {
	case videoAbsent && !audioAbsent:
		return KindAudioOnly
	case !videoAbsent && audioAbsent:
		return KindVideoOnly
	default:
		return KindCombined
	}
}

func formatResolution(rf rawFormat) string {
	if rf.Resolution != "" {
		return rf.Resolution
	}
	if formatKind(rf) == KindAudioOnly {
		return "audio"
	}
	return ""
}

func formatCodec(rf rawFormat) string {
	parts := make([]string, 0, 2)
	if rf.VCodec != "" && rf.VCodec != "none" {
		parts = append(parts, rf.VCodec)
	}
	if rf.ACodec != "" && rf.ACodec != "none" {
		parts = append(parts, rf.ACodec)
	}
	return strings.Join(parts, "+")
}

func formatSize(rf rawFormat) int64 {
	if rf.Filesize > 0 {
		return rf.Filesize
	}
	return rf.FilesizeApprox
}
