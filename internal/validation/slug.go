package validation

import (
	"regexp"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gosimple/slug"
)

const maxSlugBaseLength = 200

var (
	nonWordChars   = regexp.MustCompile(`[^\w\s-]+`)
	nonSlugChars   = regexp.MustCompile(`[^a-z0-9-]+`)
	repeatedDashes = regexp.MustCompile(`-{2,}`)

	lastSlugStamp atomic.Int64
)

// GenerateSlug derives a URL-safe slug from a title and appends a base36
// millisecond timestamp. The result only contains [a-z0-9-]. Symbols are
// dropped before slug.Make sees them, so "Tom & Jerry" gives "tom-jerry".
//
// The suffix is strictly increasing within the process, so two calls never
// return the same slug here; nothing checks the store for collisions.
func GenerateSlug(title string) string {
	base := nonWordChars.ReplaceAllString(strings.ToLower(strings.TrimSpace(title)), "")
	base = slug.Make(base)
	base = nonSlugChars.ReplaceAllString(strings.ToLower(base), "-")
	base = repeatedDashes.ReplaceAllString(base, "-")
	if len(base) > maxSlugBaseLength {
		base = base[:maxSlugBaseLength]
	}
	base = strings.Trim(base, "-")

	suffix := strconv.FormatInt(nextSlugStamp(), 36)
	if base == "" {
		return suffix
	}
	return base + "-" + suffix
}

func nextSlugStamp() int64 {
	for {
		last := lastSlugStamp.Load()
		stamp := time.Now().UnixMilli()
		if stamp <= last {
			stamp = last + 1
		}
		if lastSlugStamp.CompareAndSwap(last, stamp) {
			return stamp
		}
	}
}
