package repository

import "errors"

var (
	// ErrModelNotLoaded indicates no artifact bundle has been loaded yet
	ErrModelNotLoaded = errors.New("model not loaded")
)
