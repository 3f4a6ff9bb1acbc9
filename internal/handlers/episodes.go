package handlers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"pod-tracker/internal/catalog"
	"pod-tracker/internal/middleware"
)

// ListEpisodes serves one page of a podcast's catalog, newest first.
func (h *Handlers) ListEpisodes(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			h.writeError(w, r, catalog.Validation("list episodes", "limit must be a number"))
			return
		}
		if n == 0 {
			h.writeError(w, r, catalog.Validation("list episodes", "limit must be between 1 and 1000"))
			return
		}
		limit = n
	}

	podcastID := mux.Vars(r)["id"]
	if _, err := h.ownedPodcast(r.Context(), user.ID, podcastID); err != nil {
		h.writeError(w, r, err)
		return
	}

	page, err := h.reader.ListEpisodes(r.Context(), podcastID, limit, r.URL.Query().Get("cursor"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *Handlers) GetEpisode(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	vars := mux.Vars(r)
	if _, err := h.ownedPodcast(r.Context(), user.ID, vars["id"]); err != nil {
		h.writeError(w, r, err)
		return
	}

	episode, err := h.episodes.GetEpisode(r.Context(), vars["id"], vars["episodeId"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, episode)
}
