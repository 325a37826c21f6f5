package errors

// ErrorResponse represents the standard error response structure
type ErrorResponse struct {
	Success bool        `json:"success"`
	Error   ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code    string         `json:"code"`
	Display string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// Stable client facing messages. Internal error text is never returned.
const (
	MsgNotFound           = "Not found"
	MsgNotAuthorized      = "Not authorized"
	MsgSomethingWrong     = "Something went wrong"
	MsgCouldNotCreate     = "Could not create the resource"
	MsgStorageUnavailable = "Service temporarily unavailable, please retry"
)
