package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"pod-tracker/internal/catalog"
	"pod-tracker/internal/feed"
)

// GetRSSFeed renders a podcast's catalog as a public RSS feed.
func (h *Handlers) GetRSSFeed(w http.ResponseWriter, r *http.Request) {
	podcast, err := h.podcasts.GetPodcastByRSSUUID(r.Context(), mux.Vars(r)["uuid"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	page, err := h.reader.ListEpisodes(r.Context(), podcast.ID, catalog.MaxPageLimit, "")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	rss, err := feed.GenerateRSS(podcast, page.Episodes, feed.BaseURL(r, h.baseURL))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/rss+xml")
	_, _ = w.Write([]byte(rss))
}
