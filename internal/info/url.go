package info

import (
	"regexp"
	"strings"
)

// acceptedURLShapes lists the recognized video URL forms: full watch URLs,
// short youtu.be links, shorts, embeds and live pages. Scheme and www. are
// optional, matching what users paste.
var acceptedURLShapes = []*regexp.Regexp{
	regexp.MustCompile(`^(https?://)?(www\.|m\.)?youtube\.com/watch\?.*v=[\w-]{6,}`),
	regexp.MustCompile(`^(https?://)?youtu\.be/[\w-]{6,}`),
	regexp.MustCompile(`^(https?://)?(www\.|m\.)?youtube\.com/shorts/[\w-]{6,}`),
	regexp.MustCompile(`^(https?://)?(www\.|m\.)?youtube\.com/embed/[\w-]{6,}`),
	regexp.MustCompile(`^(https?://)?(www\.|m\.)?youtube\.com/live/[\w-]{6,}`),
}

// ValidateURL reports whether raw matches an accepted URL shape.
func ValidateURL(raw string) error {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ErrInvalidURL
	}
	for _, shape := range acceptedURLShapes {
		if shape.MatchString(trimmed) {
			return nil
		}
	}
	return ErrInvalidURL
}
