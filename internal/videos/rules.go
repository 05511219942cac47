package videos

import (
	"strings"

	"github.com/vidshare/backend/internal/models"
)

// Namespaces under which media assets are stored by the gateway.
const (
	NamespaceVideos     = "videos"
	NamespaceThumbnails = "thumbnails"
	NamespaceLogos      = "logos"
)

// ParseTags splits a comma separated tag list into a set. Surrounding
// whitespace is trimmed, blanks are dropped and the first occurrence of a
// duplicate wins. An empty input yields an empty, non-nil slice.
func ParseTags(csv string) []string {
	tags := []string{}
	seen := make(map[string]struct{})
	for _, raw := range strings.Split(csv, ",") {
		tag := strings.TrimSpace(raw)
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}
	return tags
}

// CanModify is the only authorization rule for videos: the principal must be
// the recorded owner.
func CanModify(principalID string, video models.Video) error {
	if principalID == "" || principalID != video.OwnerID {
		return ErrNotOwner
	}
	return nil
}

// CanRemoveComment allows the comment author or the video owner to remove a
// comment.
func CanRemoveComment(principalID string, video models.Video, comment models.Comment) error {
	if principalID != "" && (principalID == comment.AuthorID || principalID == video.OwnerID) {
		return nil
	}
	return ErrNotCommentAuthor
}

// FindComment returns the first comment on the video with the given id.
func FindComment(video models.Video, commentID string) (models.Comment, bool) {
	for _, c := range video.Comments {
		if c.ID == commentID {
			return c, true
		}
	}
	return models.Comment{}, false
}

// Changes holds the metadata supplied to an update. Empty fields mean
// "keep the current value".
type Changes struct {
	Title       string
	Description string
	Category    string
	Tags        string
}

// Empty reports whether no field carries a replacement value.
func (c Changes) Empty() bool {
	return strings.TrimSpace(c.Title) == "" &&
		strings.TrimSpace(c.Description) == "" &&
		strings.TrimSpace(c.Category) == "" &&
		strings.TrimSpace(c.Tags) == ""
}

// Apply returns a copy of the video with every non-empty field of c replacing
// the stored value. Tags are replaced only when the supplied list parses to
// at least one tag.
func (c Changes) Apply(video models.Video) models.Video {
	if v := strings.TrimSpace(c.Title); v != "" {
		video.Title = v
	}
	if v := strings.TrimSpace(c.Description); v != "" {
		video.Description = v
	}
	if v := strings.TrimSpace(c.Category); v != "" {
		video.Category = v
	}
	if tags := ParseTags(c.Tags); len(tags) > 0 {
		video.Tags = tags
	}
	return video
}
