package handlers

import (
	"context"
	"io"
	"time"

	"github.com/vidshare/backend/internal/models"
)

// UserStore captures the persistence operations required by the user handlers.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByEmail(ctx context.Context, email string) (models.User, error)
	FindByID(ctx context.Context, id string) (models.User, error)
	AppendVideo(ctx context.Context, userID, videoID string) error
	RemoveVideo(ctx context.Context, userID, videoID string) error
}

// VideoStore captures persistence for videos and their engagement state.
type VideoStore interface {
	Create(ctx context.Context, video models.Video) error
	FindByID(ctx context.Context, id string) (models.Video, error)
	Update(ctx context.Context, video models.Video) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter models.VideoFilter) ([]models.Video, error)
	AddLike(ctx context.Context, videoID, userID string) error
	RemoveLike(ctx context.Context, videoID, userID string) error
	AddComment(ctx context.Context, comment models.Comment) error
	DeleteComment(ctx context.Context, videoID, commentID string) error
}

// MediaGateway stores and removes binary assets in the external media host.
type MediaGateway interface {
	Upload(ctx context.Context, namespace, filename, contentType string, r io.Reader) (models.Asset, error)
	Delete(ctx context.Context, handle string) error
}

// SessionCodec issues and verifies the bearer tokens carried in the session cookie.
type SessionCodec interface {
	Issue(user models.User) (string, time.Time, error)
	Parse(token string) (models.SessionClaims, error)
}
