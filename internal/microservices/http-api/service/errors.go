package service

import "errors"

var (
	ErrNoteNotFound    = errors.New("note not found")
	ErrSiteNotFound    = errors.New("site not found")
	ErrSiteClaimed     = errors.New("site belongs to another account")
	ErrInvalidArgument = errors.New("invalid argument")
)
