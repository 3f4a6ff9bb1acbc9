package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gorilla/mux"

	"pod-tracker/internal/catalog"
	"pod-tracker/internal/db"
	"pod-tracker/internal/models"
	"pod-tracker/pkg/tasks"
)

// PodcastStore manages the podcasts users follow.
// Implemented by [db.Store].
type PodcastStore interface {
	GetPodcastsOwnedBy(ctx context.Context, userID int64) ([]models.Podcast, error)
	GetPodcastByRSSUUID(ctx context.Context, rssUUID string) (*models.Podcast, error)
	CountPodcastsByUserID(ctx context.Context, userID int64) (int, error)
	AddPodcast(ctx context.Context, userID int64, title, feedURL string) (*models.Podcast, error)
	DeletePodcast(ctx context.Context, userID int64, podcastID string) error
}

// EpisodeGetter looks up a single catalog entry.
type EpisodeGetter interface {
	GetEpisode(ctx context.Context, podcastID, episodeID string) (*models.Episode, error)
}

// Syncer refreshes a podcast from its feed.
type Syncer interface {
	Sync(ctx context.Context, podcastID string, userID int64) (models.SyncReport, error)
}

// Deps are the collaborators the handlers need.
type Deps struct {
	Podcasts    PodcastStore
	Episodes    EpisodeGetter
	Reader      *catalog.Reader
	Syncer      Syncer
	AsynqClient tasks.TaskEnqueuer
	Logger      *log.Logger
	// BaseURL overrides the host used in RSS links.
	BaseURL     string
	MaxPodcasts int
}

type Handlers struct {
	podcasts    PodcastStore
	episodes    EpisodeGetter
	reader      *catalog.Reader
	syncer      Syncer
	asynqClient tasks.TaskEnqueuer
	log         *log.Logger
	baseURL     string
	maxPodcasts int
}

func New(d Deps) *Handlers {
	return &Handlers{
		podcasts:    d.Podcasts,
		episodes:    d.Episodes,
		reader:      d.Reader,
		syncer:      d.Syncer,
		asynqClient: d.AsynqClient,
		log:         d.Logger,
		baseURL:     d.BaseURL,
		maxPodcasts: d.MaxPodcasts,
	}
}

// Routes mounts the API behind auth and the sync endpoint behind limit.
func (h *Handlers) Routes(auth, limit mux.MiddlewareFunc) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", h.Healthz).Methods(http.MethodGet)
	r.HandleFunc("/rss/{uuid}", h.GetRSSFeed).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(auth)
	api.HandleFunc("/podcasts", h.ListPodcasts).Methods(http.MethodGet)
	api.HandleFunc("/podcasts", h.PostPodcast).Methods(http.MethodPost)
	api.HandleFunc("/podcasts/{id}", h.DeletePodcast).Methods(http.MethodDelete)
	api.Handle("/podcasts/{id}/sync", limit(http.HandlerFunc(h.SyncPodcast))).Methods(http.MethodPost)
	api.HandleFunc("/podcasts/{id}/episodes", h.ListEpisodes).Methods(http.MethodGet)
	api.HandleFunc("/podcasts/{id}/episodes/{episodeId}", h.GetEpisode).Methods(http.MethodGet)
	return r
}

func (h *Handlers) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err onto a status code. Internal causes are logged, never sent.
func (h *Handlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	msg := catalog.PublicMessage(err)

	switch {
	case errors.Is(err, catalog.ErrNotFound):
		status, msg = http.StatusNotFound, "not found"
	case errors.Is(err, db.ErrDuplicatePodcast):
		status, msg = http.StatusConflict, "podcast already added"
	default:
		switch catalog.KindOf(err) {
		case catalog.KindValidation:
			status = http.StatusBadRequest
		case catalog.KindNotFound:
			status = http.StatusNotFound
		case catalog.KindFeedParse:
			status = http.StatusUnprocessableEntity
		}
	}

	if status >= http.StatusInternalServerError {
		h.log.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	} else {
		h.log.Debug("request rejected", "method", r.Method, "path", r.URL.Path, "status", status, "err", err)
	}
	writeJSON(w, status, errorResponse{Error: msg})
}
