package models

import "time"

// User represents a channel account on the vidshare platform.
type User struct {
	ID                 string
	ChannelName        string
	Email              string
	Phone              string
	Password           string
	LogoURL            string
	LogoID             string
	Videos             []string
	Subscribers        []string
	SubscribedChannels []string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// PublicUser is the projection of a User that is safe to return to clients.
type PublicUser struct {
	ID                 string    `json:"id"`
	ChannelName        string    `json:"channelName"`
	Email              string    `json:"email"`
	Phone              string    `json:"phone"`
	LogoURL            string    `json:"logoUrl"`
	Videos             []string  `json:"videos"`
	Subscribers        int       `json:"subscribers"`
	SubscribedChannels []string  `json:"subscribedChannels"`
	CreatedAt          time.Time `json:"createdAt"`
}

// Public strips credentials and storage handles from the user.
func (u User) Public() PublicUser {
	return PublicUser{
		ID:                 u.ID,
		ChannelName:        u.ChannelName,
		Email:              u.Email,
		Phone:              u.Phone,
		LogoURL:            u.LogoURL,
		Videos:             nonNil(u.Videos),
		Subscribers:        len(u.Subscribers),
		SubscribedChannels: nonNil(u.SubscribedChannels),
		CreatedAt:          u.CreatedAt,
	}
}

// Asset is a file held by the media gateway. Handle is the opaque value
// needed to delete it later.
type Asset struct {
	URL    string
	Handle string
}

// Video is an uploaded video together with its engagement state.
type Video struct {
	ID           string      `json:"id"`
	Title        string      `json:"title"`
	Description  string      `json:"description"`
	Category     string      `json:"category"`
	Tags         []string    `json:"tags"`
	VideoURL     string      `json:"videoUrl"`
	VideoID      string      `json:"videoId"`
	ThumbnailURL string      `json:"thumbnailUrl"`
	ThumbnailID  string      `json:"thumbnailId"`
	OwnerID      string      `json:"ownerId"`
	Owner        *PublicUser `json:"owner,omitempty"`
	Likes        []string    `json:"likes"`
	Comments     []Comment   `json:"comments"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

// Comment is a remark left on a video.
type Comment struct {
	ID        string    `json:"id"`
	VideoID   string    `json:"videoId"`
	AuthorID  string    `json:"authorId"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// VideoFilter narrows a video listing. Zero-valued fields are ignored and
// non-empty fields are AND-combined.
type VideoFilter struct {
	OwnerID  string
	Category string
	Tag      string
	Search   string
}

// SessionClaims identify the principal carried by a bearer token.
type SessionClaims struct {
	UserID      string
	Email       string
	ChannelName string
	Phone       string
	ExpiresAt   time.Time
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
