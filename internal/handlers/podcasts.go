package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/mux"

	"pod-tracker/internal/catalog"
	"pod-tracker/internal/middleware"
	"pod-tracker/internal/models"
	"pod-tracker/pkg/tasks"
)

type addPodcastRequest struct {
	FeedURL string `json:"feed_url"`
	Title   string `json:"title"`
}

func (h *Handlers) ListPodcasts(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	podcasts, err := h.podcasts.GetPodcastsOwnedBy(r.Context(), user.ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if podcasts == nil {
		podcasts = []models.Podcast{}
	}
	writeJSON(w, http.StatusOK, podcasts)
}

// PostPodcast follows a feed and queues its first sync.
func (h *Handlers) PostPodcast(w http.ResponseWriter, r *http.Request) {
	const op = "add podcast"
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req addPodcastRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, catalog.Validation(op, "invalid JSON body"))
		return
	}
	feedURL, err := validateFeedURL(req.FeedURL)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	count, err := h.podcasts.CountPodcastsByUserID(r.Context(), user.ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if h.maxPodcasts > 0 && count >= h.maxPodcasts {
		writeJSON(w, http.StatusForbidden, errorResponse{Error: "podcast limit reached"})
		return
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = feedURL.Host
	}
	podcast, err := h.podcasts.AddPodcast(r.Context(), user.ID, title, feedURL.String())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	task, err := tasks.NewSyncPodcastTask(podcast.ID, user.ID)
	if err != nil {
		h.log.Error("failed to create sync task", "podcast", podcast.ID, "err", err)
	} else if _, err := h.asynqClient.Enqueue(task); err != nil {
		h.log.Error("failed to enqueue sync task", "podcast", podcast.ID, "err", err)
	}

	writeJSON(w, http.StatusCreated, podcast)
}

func (h *Handlers) DeletePodcast(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if err := h.podcasts.DeletePodcast(r.Context(), user.ID, mux.Vars(r)["id"]); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SyncPodcast runs a sync inline and returns its report.
func (h *Handlers) SyncPodcast(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	report, err := h.syncer.Sync(r.Context(), mux.Vars(r)["id"], user.ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// ownedPodcast returns podcastID if userID owns it, otherwise a NotFound error.
func (h *Handlers) ownedPodcast(ctx context.Context, userID int64, podcastID string) (*models.Podcast, error) {
	podcasts, err := h.podcasts.GetPodcastsOwnedBy(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range podcasts {
		if podcasts[i].ID == podcastID {
			return &podcasts[i], nil
		}
	}
	return nil, catalog.NotFound("get podcast", "podcast not found")
}

func validateFeedURL(raw string) (*url.URL, error) {
	const op = "add podcast"
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, catalog.Validation(op, "feed_url is required")
	}
	u, err := url.ParseRequestURI(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, catalog.Validation(op, "feed_url must be an http(s) URL")
	}
	return u, nil
}
