package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"pod-tracker/internal/models"
)

func TestFingerprint(t *testing.T) {
	t.Run("blank title and date use defaults", func(t *testing.T) {
		fp := Fingerprint(models.EpisodeDraft{Title: "", ReleaseDate: ""})
		assert.Equal(t, "6e118d506fd614d1ac728eb2ee95eb00", fp) // md5("untitled:1900-01-01")
	})

	t.Run("whitespace-only title is untitled", func(t *testing.T) {
		assert.Equal(t,
			Fingerprint(models.EpisodeDraft{Title: ""}),
			Fingerprint(models.EpisodeDraft{Title: "   \t"}))
	})

	t.Run("case and surrounding whitespace are ignored", func(t *testing.T) {
		a := Fingerprint(models.EpisodeDraft{Title: "Ep 1", ReleaseDate: "2023-10-15T12:00:00Z"})
		b := Fingerprint(models.EpisodeDraft{Title: "  ep 1 ", ReleaseDate: "2023-10-15T23:59:00Z"})
		assert.Equal(t, a, b)
		assert.Equal(t, "8de0fa348627d18c5bc3bf636463a6a7", a) // md5("ep 1:2023-10-15")
	})

	t.Run("epoch seconds match the same calendar date", func(t *testing.T) {
		a := Fingerprint(models.EpisodeDraft{Title: "Ep 1", ReleaseDate: "1697371200"})
		b := Fingerprint(models.EpisodeDraft{Title: "Ep 1", ReleaseDate: "2023-10-15"})
		assert.Equal(t, a, b)
	})

	t.Run("garbage and missing dates agree", func(t *testing.T) {
		a := Fingerprint(models.EpisodeDraft{Title: "Ep 1", ReleaseDate: "not a date at all"})
		b := Fingerprint(models.EpisodeDraft{Title: "Ep 1"})
		assert.Equal(t, a, b)
	})

	t.Run("ignores description and audio", func(t *testing.T) {
		a := Fingerprint(models.EpisodeDraft{Title: "Ep 1", ReleaseDate: "2023-10-15", AudioURL: "https://cdn-a/x.mp3", Description: "<p>hi</p>"})
		b := Fingerprint(models.EpisodeDraft{Title: "Ep 1", ReleaseDate: "2023-10-15", AudioURL: "https://cdn-b/x.mp3", Description: "hi"})
		assert.Equal(t, a, b)
	})

	t.Run("different titles differ", func(t *testing.T) {
		a := Fingerprint(models.EpisodeDraft{Title: "Ep 1", ReleaseDate: "2023-10-15"})
		b := Fingerprint(models.EpisodeDraft{Title: "Ep 2", ReleaseDate: "2023-10-15"})
		assert.NotEqual(t, a, b)
		assert.Len(t, a, 32)
	})

	t.Run("different dates differ", func(t *testing.T) {
		a := Fingerprint(models.EpisodeDraft{Title: "Ep 1", ReleaseDate: "2023-10-15"})
		b := Fingerprint(models.EpisodeDraft{Title: "Ep 1", ReleaseDate: "2023-10-16"})
		assert.NotEqual(t, a, b)
	})
}
