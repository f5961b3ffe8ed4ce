package core

// Error codes surfaced to clients.
const (
	ErrCodeBadRequest     = "bad_request"
	ErrCodeRateLimited    = "rate_limited"
	ErrCodeStorage        = "storage_error"
	ErrCodeInvalidMessage = "invalid_message"
)

// Error wraps a code, the offending field (if any) and a human-readable message.
type Error struct {
	Code    string
	Field   string
	Message string
}

func (e *Error) Error() string {
	if e.Field != "" {
		return e.Field + ": " + e.Message
	}
	return e.Message
}

func badRequest(field, msg string) *Error {
	return &Error{Code: ErrCodeBadRequest, Field: field, Message: msg}
}
