package domain

import (
	"errors"
	"fmt"
)

var (
	ErrJobNotFound   = errors.New("job not found")
	ErrInvalidInput  = errors.New("invalid input")
	ErrTerminalState = errors.New("job already terminal")
	ErrExtraction    = errors.New("text extraction failed")
	ErrStorage       = errors.New("storage failure")
	ErrEmbedding     = errors.New("embedding unavailable")
	ErrTemporary     = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
