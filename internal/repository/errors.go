package repository

import "errors"

var (
	// ErrImageNotFound indicates the image was not found
	ErrImageNotFound = errors.New("image not found")

	// ErrDuplicateImage indicates an image was listed more than once
	ErrDuplicateImage = errors.New("image listed more than once")

	// ErrRepositoryUnavailable indicates the repository is unavailable
	ErrRepositoryUnavailable = errors.New("repository unavailable")
)
