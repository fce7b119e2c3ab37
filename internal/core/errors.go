package core

import "errors"

var (
	// ErrValidation marks input the caller has to fix
	ErrValidation = errors.New("validation failed")
	// ErrPreprocessing marks an image the pipeline could not turn into a JPEG
	ErrPreprocessing = errors.New("image preprocessing failed")
)
