package platforms

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	isoDurationRe   = regexp.MustCompile(`^P(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+(?:\.\d+)?)S)?)?$`)
	parentheticalRe = regexp.MustCompile(`\s*[(\[][^)\]]*[)\]]`)
)

// ParseISODuration converts an ISO-8601 duration (as used by the YouTube
// Data API, e.g. "PT3M27S") into whole milliseconds, truncating fractional
// milliseconds. Returns (0, false) for unparseable input; "P0D" parses to 0,
// which is how YouTube reports content without a playable length.
func ParseISODuration(s string) (int64, bool) {
	m := isoDurationRe.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}

	var ms int64
	if m[1] != "" {
		days, _ := strconv.ParseInt(m[1], 10, 64)
		ms += days * 24 * 3600 * 1000
	}
	if m[2] != "" {
		hours, _ := strconv.ParseInt(m[2], 10, 64)
		ms += hours * 3600 * 1000
	}
	if m[3] != "" {
		minutes, _ := strconv.ParseInt(m[3], 10, 64)
		ms += minutes * 60 * 1000
	}
	if m[4] != "" {
		seconds, err := strconv.ParseFloat(m[4], 64)
		if err != nil {
			return 0, false
		}
		ms += int64(seconds * 1000)
	}

	return ms, true
}

// SplitArtistTitle splits a video title of the form "Artist - Title" on the
// first hyphen delimiter. ok is false when the title carries no delimiter.
func SplitArtistTitle(s string) (artist, title string, ok bool) {
	for _, delim := range []string{" - ", " – ", " — "} {
		if before, after, found := strings.Cut(s, delim); found {
			artist = strings.TrimSpace(before)
			title = strings.TrimSpace(after)
			if artist != "" && title != "" {
				return artist, title, true
			}
		}
	}
	return "", "", false
}

// CleanTitle strips parenthesized and bracketed segments such as
// "(Official Video)" or "[HD]" from a video title.
func CleanTitle(s string) string {
	cleaned := strings.TrimSpace(parentheticalRe.ReplaceAllString(s, ""))
	if cleaned == "" {
		return strings.TrimSpace(s)
	}
	return cleaned
}
