package repositories

import (
	"context"

	"github.com/vidshare/backend/internal/models"
)

// UserRepository defines persistence for channel accounts.
type UserRepository interface {
	Create(ctx context.Context, user models.User) error
	FindByEmail(ctx context.Context, email string) (models.User, error)
	FindByID(ctx context.Context, id string) (models.User, error)
	AppendVideo(ctx context.Context, userID, videoID string) error
	RemoveVideo(ctx context.Context, userID, videoID string) error
}
