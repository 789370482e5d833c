package http

import (
	"strconv"
	"strings"
)

// revisionETag builds a strong entity tag from the server instance and store revision.
// The instance part keeps tags from colliding across restarts, where revisions start
// over from zero.
func revisionETag(instance string, revision uint64) string {
	return `"` + instance + "-" + strconv.FormatUint(revision, 10) + `"`
}

// etagMatches reports whether an If-None-Match header value matches tag.
func etagMatches(header, tag string) bool {
	if header == "" || tag == "" {
		return false
	}
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || strings.TrimPrefix(candidate, "W/") == tag {
			return true
		}
	}
	return false
}
