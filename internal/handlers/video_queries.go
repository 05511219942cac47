package handlers

import (
	"net/http"
	"strings"

	"github.com/vidshare/backend/internal/logging"
	"github.com/vidshare/backend/internal/models"
)

// VideoQueryHandler serves the read-only video listings.
type VideoQueryHandler struct {
	Videos VideoStore
}

type videoListResponse struct {
	Videos []models.Video `json:"videos"`
}

// All handles GET /api/v1/video/all-videos.
func (h VideoQueryHandler) All(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, models.VideoFilter{})
}

// Get handles GET /api/v1/video/{id}.
func (h VideoQueryHandler) Get(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w, r) {
		return
	}
	video, ok := findVideo(w, r, h.Videos, r.PathValue("id"))
	if !ok {
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, videoResponse{Video: video})
}

// Mine handles GET /api/v1/video/my-videos.
func (h VideoQueryHandler) Mine(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	h.list(w, r, models.VideoFilter{OwnerID: principal.ID})
}

// ByCategory handles GET /api/v1/video/category/{category}.
func (h VideoQueryHandler) ByCategory(w http.ResponseWriter, r *http.Request) {
	category := strings.TrimSpace(r.PathValue("category"))
	if category == "" {
		respondMessage(r.Context(), w, http.StatusBadRequest, "Category is required")
		return
	}
	h.list(w, r, models.VideoFilter{Category: category})
}

// ByTag handles GET /api/v1/video/tag/{tag}.
func (h VideoQueryHandler) ByTag(w http.ResponseWriter, r *http.Request) {
	tag := strings.TrimSpace(r.PathValue("tag"))
	if tag == "" {
		respondMessage(r.Context(), w, http.StatusBadRequest, "Tag is required")
		return
	}
	h.list(w, r, models.VideoFilter{Tag: tag})
}

// Search handles GET /api/v1/video/search/{query}. Matching is a
// case-insensitive substring test over title, description and tags.
func (h VideoQueryHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.PathValue("query"))
	if query == "" {
		respondMessage(r.Context(), w, http.StatusBadRequest, "Search query is required")
		return
	}
	h.list(w, r, models.VideoFilter{Search: query})
}

// ByOwner handles GET /api/v1/video/user/{userId}.
func (h VideoQueryHandler) ByOwner(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(r.PathValue("userId"))
	if userID == "" {
		respondMessage(r.Context(), w, http.StatusBadRequest, "User id is required")
		return
	}
	h.list(w, r, models.VideoFilter{OwnerID: userID})
}

func (h VideoQueryHandler) list(w http.ResponseWriter, r *http.Request, filter models.VideoFilter) {
	ctx := r.Context()
	if !h.ready(w, r) {
		return
	}

	found, err := h.Videos.List(ctx, filter)
	if err != nil {
		logging.FromContext(ctx).Error("list videos failed", "error", err, "filter", filter)
		respondMessage(ctx, w, http.StatusInternalServerError, msgInternal)
		return
	}
	if found == nil {
		found = []models.Video{}
	}

	respondJSON(ctx, w, http.StatusOK, videoListResponse{Videos: found})
}

func (h VideoQueryHandler) ready(w http.ResponseWriter, r *http.Request) bool {
	if h.Videos == nil {
		logging.FromContext(r.Context()).Error("video store unavailable")
		respondMessage(r.Context(), w, http.StatusInternalServerError, msgInternal)
		return false
	}
	return true
}
