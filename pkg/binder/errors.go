package binder

import "errors"

var (
	ErrMissingContentType   = errors.New("missing content type")
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	ErrFailedToParseJSON    = errors.New("failed to parse JSON request body")
	ErrFailedToParsePath    = errors.New("failed to parse path parameters")
	// ErrInvalidPath is a programming error: the binder was given a bad target or extractor.
	ErrInvalidPath = errors.New("invalid path binding target")
)

// ErrBinderNotApplicable lets a binder decline a request; handler.Wrap moves on to the next binder.
var ErrBinderNotApplicable = errors.New("binder not applicable")
