package repositories

import (
	"context"

	"github.com/vidshare/backend/internal/models"
)

// VideoRepository exposes data access for uploaded videos and their engagement.
type VideoRepository interface {
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
