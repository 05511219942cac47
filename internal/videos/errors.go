package videos

import "errors"

var (
	// ErrNotOwner indicates the principal attempted to modify a video they do not own.
	ErrNotOwner = errors.New("principal does not own video")
	// ErrNotCommentAuthor indicates the principal may not remove the comment.
	ErrNotCommentAuthor = errors.New("principal may not remove comment")
)
