package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vidshare/backend/internal/logging"
	"github.com/vidshare/backend/internal/models"
	"github.com/vidshare/backend/internal/repositories"
	"github.com/vidshare/backend/internal/videos"
)

// EngagementHandler implements likes and comments on videos.
type EngagementHandler struct {
	Videos  VideoStore
	NowFunc func() time.Time
}

type commentRequest struct {
	Text string `json:"text"`
}

type commentResponse struct {
	Message string         `json:"message"`
	Comment models.Comment `json:"comment"`
}

// Like handles PUT /api/v1/video/like/{id}.
func (h EngagementHandler) Like(w http.ResponseWriter, r *http.Request) {
	h.like(w, r, r.PathValue("id"))
}

// Dislike handles PUT /api/v1/video/dislike/{id}.
func (h EngagementHandler) Dislike(w http.ResponseWriter, r *http.Request) {
	h.dislike(w, r, r.PathValue("id"))
}

// LikeByQuery handles GET /api/v1/video/liked-video?id=. Despite the path it
// records a like rather than listing liked videos.
func (h EngagementHandler) LikeByQuery(w http.ResponseWriter, r *http.Request) {
	h.like(w, r, r.URL.Query().Get("id"))
}

// DislikeByQuery handles GET /api/v1/video/disliked-video?id= and removes a like.
func (h EngagementHandler) DislikeByQuery(w http.ResponseWriter, r *http.Request) {
	h.dislike(w, r, r.URL.Query().Get("id"))
}

func (h EngagementHandler) like(w http.ResponseWriter, r *http.Request, videoID string) {
	if !h.ready(w, r) {
		return
	}
	h.changeLike(w, r, videoID, h.Videos.AddLike, "You have already liked this video", "Video liked successfully")
}

func (h EngagementHandler) dislike(w http.ResponseWriter, r *http.Request, videoID string) {
	if !h.ready(w, r) {
		return
	}
	h.changeLike(w, r, videoID, h.Videos.RemoveLike, "You have not liked this video", "Video disliked successfully")
}

func (h EngagementHandler) changeLike(
	w http.ResponseWriter,
	r *http.Request,
	videoID string,
	apply func(ctx context.Context, videoID, userID string) error,
	conflictMessage, okMessage string,
) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	videoID = strings.TrimSpace(videoID)
	if videoID == "" {
		respondMessage(ctx, w, http.StatusBadRequest, "Video id is required")
		return
	}

	if err := apply(ctx, videoID, principal.ID); err != nil {
		switch {
		case errors.Is(err, repositories.ErrNotFound):
			respondMessage(ctx, w, http.StatusNotFound, "Video not found")
		case errors.Is(err, repositories.ErrConflict):
			respondMessage(ctx, w, http.StatusBadRequest, conflictMessage)
		default:
			logger.Error("update video likes failed", "error", err, "videoId", videoID, "userId", principal.ID)
			respondMessage(ctx, w, http.StatusInternalServerError, msgInternal)
		}
		return
	}

	respondMessage(ctx, w, http.StatusOK, okMessage)
}

// AddComment handles POST /api/v1/video/comment/{id}.
func (h EngagementHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	principal, ok := requirePrincipal(w, r)
	if !ok || !h.ready(w, r) {
		return
	}

	var req commentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		logger.Warn("invalid comment payload", "error", err)
		rejectBody(ctx, w, err, "Comment text is required")
		return
	}

	text := strings.TrimSpace(req.Text)
	if text == "" {
		respondMessage(ctx, w, http.StatusBadRequest, "Comment text is required")
		return
	}

	videoID := strings.TrimSpace(r.PathValue("id"))
	if videoID == "" {
		respondMessage(ctx, w, http.StatusNotFound, "Video not found")
		return
	}

	comment := models.Comment{
		ID:        uuid.NewString(),
		VideoID:   videoID,
		AuthorID:  principal.ID,
		Text:      text,
		CreatedAt: h.now(),
	}

	if err := h.Videos.AddComment(ctx, comment); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondMessage(ctx, w, http.StatusNotFound, "Video not found")
			return
		}
		logger.Error("add comment failed", "error", err, "videoId", videoID, "userId", principal.ID)
		respondMessage(ctx, w, http.StatusInternalServerError, msgInternal)
		return
	}

	respondJSON(ctx, w, http.StatusCreated, commentResponse{Message: "Comment added successfully", Comment: comment})
}

// DeleteComment handles DELETE /api/v1/video/comment/{id}/{commentId}. Only
// the comment author or the video owner may remove a comment; an unknown
// comment id is a no-op.
func (h EngagementHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	principal, ok := requirePrincipal(w, r)
	if !ok || !h.ready(w, r) {
		return
	}

	video, ok := findVideo(w, r, h.Videos, r.PathValue("id"))
	if !ok {
		return
	}

	comment, found := videos.FindComment(video, r.PathValue("commentId"))
	if !found {
		respondMessage(ctx, w, http.StatusOK, "Comment deleted successfully")
		return
	}

	if err := videos.CanRemoveComment(principal.ID, video, comment); err != nil {
		logger.Warn("comment removal denied", "videoId", video.ID, "commentId", comment.ID, "userId", principal.ID)
		respondMessage(ctx, w, http.StatusForbidden, "You are not allowed to delete this comment")
		return
	}

	if err := h.Videos.DeleteComment(ctx, video.ID, comment.ID); err != nil {
		logger.Error("delete comment failed", "error", err, "videoId", video.ID, "commentId", comment.ID)
		respondMessage(ctx, w, http.StatusInternalServerError, msgInternal)
		return
	}

	respondMessage(ctx, w, http.StatusOK, "Comment deleted successfully")
}

func (h EngagementHandler) ready(w http.ResponseWriter, r *http.Request) bool {
	if h.Videos == nil {
		logging.FromContext(r.Context()).Error("video store unavailable")
		respondMessage(r.Context(), w, http.StatusInternalServerError, msgInternal)
		return false
	}
	return true
}

func (h EngagementHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
