package internalerr

import "errors"

// Sentinel errors for common cases
var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidInput  = errors.New("invalid input")
	ErrInvalidConfig = errors.New("invalid configuration")

	// Data errors. The pipeline treats these as "no groups this run".
	ErrInsufficientData = errors.New("insufficient data")
	ErrEmptyVocabulary  = errors.New("empty vocabulary")
)

// IsDataError reports whether err describes a batch that cannot be
// clustered rather than a broken configuration.
func IsDataError(err error) bool {
	return errors.Is(err, ErrInsufficientData) || errors.Is(err, ErrEmptyVocabulary)
}
