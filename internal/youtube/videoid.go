package youtube

import "regexp"

var (
	videoURLRe = regexp.MustCompile(`(?:youtube\.com/(?:[^/]+/.+/|(?:v|e(?:mbed)?|shorts|live)/|.*[?&]v=)|youtu\.be/)([a-zA-Z0-9_-]{11})`)
	watchRe    = regexp.MustCompile(`[?&]v=([a-zA-Z0-9_-]{11})`)
	bareIDRe   = regexp.MustCompile(`^[a-zA-Z0-9_-]{11}$`)
)

// ExtractVideoID returns the 11-character video id from a watch, short,
// embed or youtu.be URL. A bare id is returned unchanged. ok is false when
// no id can be found.
func ExtractVideoID(raw string) (id string, ok bool) {
	if bareIDRe.MatchString(raw) {
		return raw, true
	}
	if m := videoURLRe.FindStringSubmatch(raw); m != nil {
		return m[1], true
	}
	if m := watchRe.FindStringSubmatch(raw); m != nil {
		return m[1], true
	}
	return "", false
}
