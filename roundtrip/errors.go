package roundtrip

import "errors"

var (
	// ErrMissingResult is returned when the scan collaborator reports success
	// without a result text. The attempt is abandoned; the session stays armed.
	ErrMissingResult = errors.New("scan reported success without a result")

	// ErrSessionDone is returned when a result arrives for a completed session
	ErrSessionDone = errors.New("session already verified")

	// ErrSessionNotFound is returned by Store lookups
	ErrSessionNotFound = errors.New("session not found")
)

// IsMissingResult checks if error is ErrMissingResult
func IsMissingResult(err error) bool {
	return errors.Is(err, ErrMissingResult)
}
