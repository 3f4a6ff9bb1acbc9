package catalog

import (
	"crypto/md5"
	"encoding/hex"

	"pod-tracker/internal/models"
)

// Fingerprint derives the natural key of a draft: the lowercase hex MD5 of
// "normalizedTitle:normalizedDate". Descriptions and audio URLs are left out
// so CDN rotation and markup churn do not create new episodes.
func Fingerprint(draft models.EpisodeDraft) string {
	sum := md5.Sum([]byte(NormalizeTitle(draft.Title) + ":" + NormalizeReleaseDate(draft.ReleaseDate)))
	return hex.EncodeToString(sum[:])
}
