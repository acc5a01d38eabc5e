package auth

import "errors"

// ErrValidation is returned when input is rejected before any request is made
var ErrValidation = errors.New("validation failed")
