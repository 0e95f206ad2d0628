package domain

import "errors"

var (
	ErrListingNotFound = errors.New("listing not found")
	ErrForbidden       = errors.New("user not authorized to perform this action")

	// ErrQuery wraps catalog query failures. The in-memory list is left at
	// its last known good state and the operation stays retryable.
	ErrQuery = errors.New("catalog query failed")
	// ErrRecordCreation wraps a phase-1 insert failure. Nothing partial is
	// left behind.
	ErrRecordCreation = errors.New("listing record creation failed")
	// ErrImageUpload wraps a phase-2 upload or image-record insert failure.
	// The phase-1 record already exists and is marked incomplete.
	ErrImageUpload = errors.New("listing image upload failed")
	// ErrArchive wraps a status-update failure during archival.
	ErrArchive = errors.New("listing archive failed")
)
