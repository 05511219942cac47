package handlers

import (
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vidshare/backend/internal/logging"
	"github.com/vidshare/backend/internal/models"
	"github.com/vidshare/backend/internal/repositories"
	"github.com/vidshare/backend/internal/videos"
)

// VideoHandler provides endpoints that create, change and remove videos.
type VideoHandler struct {
	Videos         VideoStore
	Users          UserStore
	Media          MediaGateway
	MaxUploadBytes int64
	NowFunc        func() time.Time
}

type videoResponse struct {
	Message string       `json:"message,omitempty"`
	Video   models.Video `json:"video"`
}

// tagList accepts either a comma separated string or a JSON array of strings.
type tagList string

func (t *tagList) UnmarshalJSON(data []byte) error {
	var csv string
	if err := json.Unmarshal(data, &csv); err == nil {
		*t = tagList(csv)
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return errors.New("tags must be a string or an array of strings")
	}
	*t = tagList(strings.Join(list, ","))
	return nil
}

type updateVideoRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Tags        tagList `json:"tags"`
}

// Upload handles POST /api/v1/video/upload. The body is multipart with the
// metadata fields, the video file and its thumbnail.
func (h VideoHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx, span := logging.StartSpan(r.Context(), "video.upload")
	defer span.End()
	logger := logging.FromContext(ctx)

	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	if h.Videos == nil || h.Users == nil || h.Media == nil {
		logger.Error("video dependencies unavailable", "hasVideos", h.Videos != nil, "hasUsers", h.Users != nil, "hasMedia", h.Media != nil)
		respondMessage(ctx, w, http.StatusInternalServerError, msgInternal)
		return
	}

	if err := parseMultipart(w, r, h.MaxUploadBytes); err != nil {
		logger.Warn("invalid upload payload", "error", err, "tooLarge", isBodyTooLarge(err))
		rejectBody(ctx, w, err, "Please fill all fields")
		return
	}
	defer cleanupMultipart(r)

	title := formValue(r, "title")
	description := formValue(r, "description")
	category := formValue(r, "category")
	if title == "" || description == "" || category == "" {
		respondMessage(ctx, w, http.StatusBadRequest, "Please fill all fields")
		return
	}

	videoFile, hasVideo := formFile(r, "videoUrl", "video")
	thumbFile, hasThumb := formFile(r, "thumbnailUrl", "thumbnail")
	if !hasVideo || !hasThumb {
		respondMessage(ctx, w, http.StatusBadRequest, "Please upload a video and thumbnail")
		return
	}

	videoAsset, err := h.upload(r.WithContext(ctx), videos.NamespaceVideos, videoFile)
	if err != nil {
		logger.Error("upload video asset failed", "error", err)
		respondMessage(ctx, w, http.StatusInternalServerError, msgInternal)
		return
	}

	thumbAsset, err := h.upload(r.WithContext(ctx), videos.NamespaceThumbnails, thumbFile)
	if err != nil {
		logger.Error("upload thumbnail asset failed", "error", err, "videoHandle", videoAsset.Handle)
		respondMessage(ctx, w, http.StatusInternalServerError, msgInternal)
		return
	}

	now := h.now()
	video := models.Video{
		ID:           uuid.NewString(),
		Title:        title,
		Description:  description,
		Category:     category,
		Tags:         videos.ParseTags(formValue(r, "tags")),
		VideoURL:     videoAsset.URL,
		VideoID:      videoAsset.Handle,
		ThumbnailURL: thumbAsset.URL,
		ThumbnailID:  thumbAsset.Handle,
		OwnerID:      principal.ID,
		Likes:        []string{},
		Comments:     []models.Comment{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := h.Videos.Create(ctx, video); err != nil {
		logger.Error("persist video failed", "error", err, "videoId", video.ID)
		respondMessage(ctx, w, http.StatusInternalServerError, msgInternal)
		return
	}

	if err := h.Users.AppendVideo(ctx, principal.ID, video.ID); err != nil {
		logger.Error("append owned video failed", "error", err, "videoId", video.ID, "userId", principal.ID)
		respondMessage(ctx, w, http.StatusInternalServerError, msgInternal)
		return
	}

	owner := principal
	owner.Videos = append(append([]string{}, principal.Videos...), video.ID)
	public := owner.Public()
	video.Owner = &public

	span.Annotate("videoId", video.ID, "bytes", videoFile.Size+thumbFile.Size)
	logger.Info("video uploaded", "videoId", video.ID, "userId", principal.ID)
	respondJSON(ctx, w, http.StatusCreated, videoResponse{Message: "Video uploaded successfully", Video: video})
}

// Update handles PUT /api/v1/video/update/{id}. Only metadata and the
// thumbnail can change; the video asset itself is immutable.
func (h VideoHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx, span := logging.StartSpan(r.Context(), "video.update")
	defer span.End()
	logger := logging.FromContext(ctx)

	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	if h.Videos == nil || h.Media == nil {
		logger.Error("video dependencies unavailable", "hasVideos", h.Videos != nil, "hasMedia", h.Media != nil)
		respondMessage(ctx, w, http.StatusInternalServerError, msgInternal)
		return
	}

	video, ok := h.loadOwned(w, r.WithContext(ctx), principal)
	if !ok {
		return
	}

	var (
		changes   videos.Changes
		thumbnail *multipart.FileHeader
	)
	if isMultipart(r) {
		if err := parseMultipart(w, r, h.MaxUploadBytes); err != nil {
			logger.Warn("invalid update payload", "error", err, "tooLarge", isBodyTooLarge(err))
			rejectBody(ctx, w, err, "Invalid request body")
			return
		}
		defer cleanupMultipart(r)

		changes = videos.Changes{
			Title:       r.PostFormValue("title"),
			Description: r.PostFormValue("description"),
			Category:    r.PostFormValue("category"),
			Tags:        r.PostFormValue("tags"),
		}
		if file, found := formFile(r, "thumbnailUrl", "thumbnail"); found {
			thumbnail = file
		}
	} else {
		var req updateVideoRequest
		if err := decodeJSON(w, r, &req); err != nil {
			logger.Warn("invalid update payload", "error", err)
			rejectBody(ctx, w, err, "Invalid request body")
			return
		}
		changes = videos.Changes{
			Title:       req.Title,
			Description: req.Description,
			Category:    req.Category,
			Tags:        string(req.Tags),
		}
	}

	if thumbnail != nil {
		if video.ThumbnailID != "" {
			if err := h.Media.Delete(ctx, video.ThumbnailID); err != nil {
				logger.Error("delete previous thumbnail failed", "error", err, "handle", video.ThumbnailID)
				respondMessage(ctx, w, http.StatusInternalServerError, msgInternal)
				return
			}
		}

		asset, err := h.upload(r.WithContext(ctx), videos.NamespaceThumbnails, thumbnail)
		if err != nil {
			logger.Error("upload replacement thumbnail failed", "error", err, "videoId", video.ID)
			respondMessage(ctx, w, http.StatusInternalServerError, msgInternal)
			return
		}
		video.ThumbnailURL = asset.URL
		video.ThumbnailID = asset.Handle
	}

	if changes.Empty() && thumbnail == nil {
		logger.Info("video update carried no changes", "videoId", video.ID)
		respondJSON(ctx, w, http.StatusOK, videoResponse{Message: "Video updated successfully", Video: video})
		return
	}

	updated := changes.Apply(video)
	updated.UpdatedAt = h.now()

	if err := h.Videos.Update(ctx, updated); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondMessage(ctx, w, http.StatusNotFound, "Video not found")
			return
		}
		logger.Error("persist video update failed", "error", err, "videoId", video.ID)
		respondMessage(ctx, w, http.StatusInternalServerError, msgInternal)
		return
	}

	respondJSON(ctx, w, http.StatusOK, videoResponse{Message: "Video updated successfully", Video: updated})
}

// Delete handles DELETE /api/v1/video/delete/{id}. Both assets are removed
// from the media host before the record itself.
func (h VideoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx, span := logging.StartSpan(r.Context(), "video.delete")
	defer span.End()
	logger := logging.FromContext(ctx)

	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	if h.Videos == nil || h.Users == nil || h.Media == nil {
		logger.Error("video dependencies unavailable", "hasVideos", h.Videos != nil, "hasUsers", h.Users != nil, "hasMedia", h.Media != nil)
		respondMessage(ctx, w, http.StatusInternalServerError, msgInternal)
		return
	}

	video, ok := h.loadOwned(w, r.WithContext(ctx), principal)
	if !ok {
		return
	}

	for _, handle := range []string{video.VideoID, video.ThumbnailID} {
		if handle == "" {
			continue
		}
		if err := h.Media.Delete(ctx, handle); err != nil {
			logger.Error("delete media asset failed", "error", err, "handle", handle, "videoId", video.ID)
			respondMessage(ctx, w, http.StatusInternalServerError, msgInternal)
			return
		}
	}

	if err := h.Videos.Delete(ctx, video.ID); err != nil && !errors.Is(err, repositories.ErrNotFound) {
		logger.Error("delete video record failed", "error", err, "videoId", video.ID)
		respondMessage(ctx, w, http.StatusInternalServerError, msgInternal)
		return
	}

	if err := h.Users.RemoveVideo(ctx, video.OwnerID, video.ID); err != nil {
		if !errors.Is(err, repositories.ErrNotFound) {
			logger.Error("remove owned video failed", "error", err, "videoId", video.ID, "userId", video.OwnerID)
			respondMessage(ctx, w, http.StatusInternalServerError, msgInternal)
			return
		}
		logger.Warn("video owner no longer exists", "videoId", video.ID, "userId", video.OwnerID)
	}

	span.Annotate("videoId", video.ID)
	logger.Info("video deleted", "videoId", video.ID, "userId", principal.ID)
	respondMessage(ctx, w, http.StatusOK, "Video deleted successfully")
}

// loadOwned fetches the video named by the {id} path value and checks that the
// principal owns it, writing the 404 or 403 response itself otherwise.
func (h VideoHandler) loadOwned(w http.ResponseWriter, r *http.Request, principal models.User) (models.Video, bool) {
	ctx := r.Context()

	video, ok := findVideo(w, r, h.Videos, r.PathValue("id"))
	if !ok {
		return models.Video{}, false
	}

	if err := videos.CanModify(principal.ID, video); err != nil {
		logging.FromContext(ctx).Warn("video ownership check failed", "videoId", video.ID, "ownerId", video.OwnerID, "userId", principal.ID)
		respondMessage(ctx, w, http.StatusForbidden, "You are not allowed to modify this video")
		return models.Video{}, false
	}

	return video, true
}

func (h VideoHandler) upload(r *http.Request, namespace string, header *multipart.FileHeader) (models.Asset, error) {
	file, err := header.Open()
	if err != nil {
		return models.Asset{}, err
	}
	defer file.Close()

	return h.Media.Upload(r.Context(), namespace, header.Filename, fileContentType(header), file)
}

func (h VideoHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}

// findVideo loads the video with the given id, answering 404 when it does not
// exist and 500 on any other failure.
func findVideo(w http.ResponseWriter, r *http.Request, store VideoStore, id string) (models.Video, bool) {
	ctx := r.Context()

	id = strings.TrimSpace(id)
	if id == "" {
		respondMessage(ctx, w, http.StatusNotFound, "Video not found")
		return models.Video{}, false
	}

	video, err := store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondMessage(ctx, w, http.StatusNotFound, "Video not found")
			return models.Video{}, false
		}
		logging.FromContext(ctx).Error("video lookup failed", "error", err, "videoId", id)
		respondMessage(ctx, w, http.StatusInternalServerError, msgInternal)
		return models.Video{}, false
	}

	return video, true
}
