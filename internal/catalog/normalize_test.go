package catalog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pod-tracker/internal/models"
)

func TestNormalizeTitle(t *testing.T) {
	cases := map[string]string{
		"":              "untitled",
		"   ":           "untitled",
		"Ep 1":          "ep 1",
		"  The SHOW  ":  "the show",
		"untitled":      "untitled",
		"Über Episode ": "über episode",
	}
	for in, want := range cases {
		got := NormalizeTitle(in)
		assert.Equal(t, want, got, "input %q", in)
		assert.Equal(t, got, NormalizeTitle(got), "not idempotent for %q", in)
	}
}

func TestNormalizeReleaseDate(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"rfc3339", "2023-10-15T12:00:00Z", "2023-10-15"},
		{"offset shifts to utc", "2023-10-15T23:30:00-05:00", "2023-10-16"},
		{"rss pubDate", "Sun, 15 Oct 2023 12:00:00 GMT", "2023-10-15"},
		{"pdt crosses midnight", "Sun, 15 Oct 2023 20:00:00 PDT", "2023-10-16"},
		{"numeric offset crosses midnight", "Sun, 15 Oct 2023 20:00:00 -0700", "2023-10-16"},
		{"est", "Sun, 15 Oct 2023 21:30:00 EST", "2023-10-16"},
		{"cdt same day", "Sun, 15 Oct 2023 08:00:00 CDT", "2023-10-15"},
		{"ut", "Sun, 15 Oct 2023 23:00:00 UT", "2023-10-15"},
		{"plain date", "2023-10-15", "2023-10-15"},
		{"unix seconds", "1697371200", "2023-10-15"},
		{"unix seconds padded", " 1697371200 ", "2023-10-15"},
		{"noise around a date", "Released: 2023-10-15", "2023-10-15"},
		{"garbage", "not a date at all", "1900-01-01"},
		{"separators only", "--//", "1900-01-01"},
		{"empty", "", "1900-01-01"},
		{"blank", "   ", "1900-01-01"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, NormalizeReleaseDate(tc.in))
		})
	}
}

func TestParseReleaseTimeNamedZones(t *testing.T) {
	want := time.Date(2023, 10, 16, 3, 0, 0, 0, time.UTC)
	for _, in := range []string{
		"Sun, 15 Oct 2023 20:00:00 PDT",
		"Sun, 15 Oct 2023 20:00:00 -0700",
		"Sun, 15 Oct 2023 22:00:00 CDT",
		"Sun, 15 Oct 2023 23:00:00 EDT",
		"2023-10-16T03:00:00Z",
	} {
		got, ok := ParseReleaseTime(in)
		require.True(t, ok, in)
		assert.True(t, want.Equal(got), "%q parsed as %s", in, got)
	}

	named := Fingerprint(models.EpisodeDraft{Title: "Ep 1", ReleaseDate: "Sun, 15 Oct 2023 20:00:00 PDT"})
	numeric := Fingerprint(models.EpisodeDraft{Title: "Ep 1", ReleaseDate: "Sun, 15 Oct 2023 20:00:00 -0700"})
	assert.Equal(t, numeric, named)
}

func TestNormalizeDuration(t *testing.T) {
	cases := map[string]string{
		"":          "0:00",
		"30:00":     "30:00",
		"5:7":       "5:07",
		"1800":      "30:00",
		"59":        "0:59",
		"3723":      "1:02:03",
		"01:02:03":  "1:02:03",
		"90:00":     "1:30:00",
		"1h2m3s":    "1:02:03",
		"45m":       "45:00",
		"abc":       "0:00",
		"1:2:3:4":   "0:00",
		"-5":        "0:00",
		" 12:34 ":   "12:34",
		"10:xx":     "0:00",
		"100:00:00": "100:00:00",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeDuration(in), "input %q", in)
	}
}
