package models

// SyncReport summarizes one sync of a podcast's feed into the catalog.
// The new/updated split is inferred from catalog size before and after the
// sync, not tracked per episode.
type SyncReport struct {
	Message         string    `json:"message"`
	TotalEpisodes   int       `json:"totalEpisodes"`
	NewEpisodes     int       `json:"newEpisodes"`
	UpdatedEpisodes int       `json:"updatedEpisodes"`
	DuplicatesFound int       `json:"duplicatesFound"`
	TotalProcessed  int       `json:"totalProcessed"`
	Episodes        []Episode `json:"episodes"`
}
