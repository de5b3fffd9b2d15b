package domain

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrAlreadyAccepted  = errors.New("offer already accepted")
	ErrTooFewImages     = errors.New("minimum 2 images required")
	ErrUnsupportedImage = errors.New("unsupported image format")
	ErrInvalidPrice     = errors.New("price must be positive")
	ErrInvalidQuantity  = errors.New("quantity must be positive")
)
