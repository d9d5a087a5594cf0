package domain

import "errors"

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrPostNotFound         = errors.New("post not found")
	ErrFlagNotFound         = errors.New("flag not found")
	ErrNotificationNotFound = errors.New("notification not found")
	ErrPostDeleted          = errors.New("post is deleted")
	ErrNotPostAuthor        = errors.New("caller is not the post author")
	ErrFlagAlreadyReviewed  = errors.New("flag already reviewed")
	ErrInvalidTransition    = errors.New("moderation transition not permitted")
	ErrInvalidEmoji         = errors.New("emoji code not recognized")
	ErrInvalidCursor        = errors.New("invalid feed cursor")
)
