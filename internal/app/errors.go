package app

import (
	"errors"

	"github.com/hylla/sudsboard/internal/domain"
)

// ErrNotFound and related errors describe validation and runtime failures.
var (
	ErrNotFound              = domain.ErrNotFound
	ErrCompletionUnavailable = errors.New("text completion is not configured")
	ErrInvalidSnapshot       = errors.New("invalid snapshot")
)
