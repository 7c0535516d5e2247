package models

import "errors"

// Domain specific errors shared by the discovery packages.
var (
	ErrNotFound   = errors.New("requested item not found")
	ErrBadRequest = errors.New("bad request")
	ErrValidation = errors.New("validation failed")
)
