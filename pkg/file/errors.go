package file

import "errors"

// Lookup errors. Session cache misses and clone skips are decided on ErrFileNotFound.
var (
	ErrFileNotFound = errors.New("file: object not found")
	ErrIsDirectory  = errors.New("file: path is a directory")
	// ErrInvalidPath rejects absolute paths and paths escaping the storage root.
	ErrInvalidPath = errors.New("file: invalid object path")
)

// Local directory errors.
var (
	ErrFailedToReadFile        = errors.New("file: read failed")
	ErrFailedToWriteFile       = errors.New("file: write failed")
	ErrFailedToDeleteFile      = errors.New("file: delete failed")
	ErrFailedToCreateDirectory = errors.New("file: mkdir failed")
	ErrFailedToStatPath        = errors.New("file: stat failed")
	ErrFailedToGetAbsolutePath = errors.New("file: cannot resolve storage root")
)

// Bucket errors, classified from S3 API responses.
var (
	ErrBucketNotFound     = errors.New("file: bucket not found")
	ErrAccessDenied       = errors.New("file: access denied")
	ErrRequestTimeout     = errors.New("file: request timed out")
	ErrServiceUnavailable = errors.New("file: storage unavailable")
	ErrOperationTimeout   = errors.New("file: deadline exceeded")
	ErrOperationCanceled  = errors.New("file: canceled")
)

var (
	ErrInvalidConfig      = errors.New("file: invalid storage configuration")
	ErrFailedToLoadConfig = errors.New("file: cannot load AWS configuration")
)
