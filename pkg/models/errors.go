package models

import "errors"

// Sentinel errors shared between the storage layer and the HTTP handlers.
var (
	// Storage errors
	ErrVideoNotFound = errors.New("video not found")
	ErrUserNotFound  = errors.New("user not found")
	ErrUserExists    = errors.New("user already exists")
	ErrVideoExists   = errors.New("video already exists")

	// Authorization errors
	ErrNotOwner           = errors.New("user does not own this video")
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Upload validation errors
	ErrInvalidFileType = errors.New("invalid file type")
	ErrFileTooLarge    = errors.New("file too large")
	ErrMissingFile     = errors.New("missing file in form data")

	// Media processing errors
	ErrProbeFailed     = errors.New("ffprobe execution failed")
	ErrNoVideoStream   = errors.New("no video stream found")
	ErrTranscodeFailed = errors.New("ffmpeg execution failed")
)
