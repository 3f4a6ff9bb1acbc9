package catalog

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

const (
	untitledKey     = "untitled"
	untitledEpisode = "Untitled Episode"
	zeroDuration    = "0:00"
	sentinelDate    = "1900-01-01"
	dateLayout      = "2006-01-02"
)

// rfc822Zone matches the named zones RFC 822 allows in feed dates. time.Parse
// only knows the offsets of UTC and GMT; any other abbreviation would be read
// as a zero offset.
var rfc822Zone = regexp.MustCompile(`\b(UT|Z|EST|EDT|CST|CDT|MST|MDT|PST|PDT)\b`)

var rfc822Offsets = map[string]string{
	"UT": "+0000", "Z": "+0000",
	"EST": "-0500", "EDT": "-0400",
	"CST": "-0600", "CDT": "-0500",
	"MST": "-0700", "MDT": "-0600",
	"PST": "-0800", "PDT": "-0700",
}

// NormalizeTitle lower-cases and trims a title for natural key derivation.
// Blank titles normalize to "untitled".
func NormalizeTitle(title string) string {
	t := strings.ToLower(strings.TrimSpace(title))
	if t == "" {
		return untitledKey
	}
	return t
}

// NormalizeReleaseDate reduces a free-form release date to its UTC calendar
// date (YYYY-MM-DD). Unusable input yields 1900-01-01.
func NormalizeReleaseDate(raw string) string {
	t, ok := ParseReleaseTime(raw)
	if !ok {
		return sentinelDate
	}
	return t.Format(dateLayout)
}

// ParseReleaseTime parses a feed release date, trying in order: a standard
// date/time string, Unix seconds, and the input stripped down to digits,
// hyphens and slashes. The result is in UTC.
func ParseReleaseTime(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}

	if !isDigits(s) {
		if t, err := dateparse.ParseIn(numericZone(s), time.UTC); err == nil && validDate(t) {
			return t.UTC(), true
		}
	}

	if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
		if t := time.Unix(secs, 0).UTC(); validDate(t) {
			return t, true
		}
	}

	stripped := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '-' || r == '/' {
			return r
		}
		return -1
	}, s)
	// Without a separator the digits alone are ambiguous.
	if stripped != s && strings.ContainsAny(stripped, "-/") {
		if t, err := dateparse.ParseIn(stripped, time.UTC); err == nil && validDate(t) {
			return t.UTC(), true
		}
	}

	return time.Time{}, false
}

// numericZone rewrites RFC 822 zone names as numeric offsets.
func numericZone(s string) string {
	return rfc822Zone.ReplaceAllStringFunc(s, func(zone string) string {
		return rfc822Offsets[zone]
	})
}

func validDate(t time.Time) bool {
	y := t.UTC().Year()
	return y >= 1 && y <= 9999
}

func isDigits(s string) bool {
	s = strings.TrimPrefix(s, "-")
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// NormalizeDuration renders a feed duration as H:MM:SS, or M:SS when shorter
// than an hour. It accepts plain seconds, colon separated clock values and Go
// duration strings; anything else becomes "0:00".
func NormalizeDuration(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return zeroDuration
	}

	var total int64
	switch {
	case isDigits(s):
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil || n < 0 {
			return zeroDuration
		}
		total = n
	case strings.Contains(s, ":"):
		parts := strings.Split(s, ":")
		if len(parts) > 3 {
			return zeroDuration
		}
		for _, p := range parts {
			n, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
			if err != nil || n < 0 {
				return zeroDuration
			}
			total = total*60 + n
		}
	default:
		d, err := time.ParseDuration(strings.ReplaceAll(s, " ", ""))
		if err != nil || d < 0 {
			return zeroDuration
		}
		total = int64(d / time.Second)
	}

	h, m, sec := total/3600, (total%3600)/60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, sec)
	}
	return fmt.Sprintf("%d:%02d", m, sec)
}
