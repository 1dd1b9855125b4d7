package model

// ErrorResponse is the consistent JSON structure for all API error responses.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// Error codes returned in ErrorResponse.Code
const (
	CodeSessionNotFound = "session_not_found"
	CodeSessionDone     = "session_done"
	CodeMissingResult   = "missing_result"
	CodeStoreFull       = "store_full"
	CodeBadRequest      = "bad_request"
	CodeInternal        = "internal"
)
