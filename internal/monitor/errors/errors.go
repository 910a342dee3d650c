package apperrors

import (
	"errors"
)

var (
	ErrServerNotFound = errors.New("server not found")
	ErrDataIntegrity  = errors.New("data integrity violation")
)
