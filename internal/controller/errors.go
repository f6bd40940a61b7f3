package controller

import "errors"

var (
	// ErrInvalidRange indicates a limit or manual level outside 0-100, or min > max
	ErrInvalidRange = errors.New("brightness out of range")

	// ErrSampleUnavailable indicates the sampler failed and no usable fallback exists
	ErrSampleUnavailable = errors.New("ambient sample unavailable")

	// ErrCompute indicates the target transform could not be evaluated
	ErrCompute = errors.New("cannot compute target brightness")
)
