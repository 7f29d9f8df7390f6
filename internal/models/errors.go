package models

// APIError is the error payload returned by every failing endpoint.
type APIError struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

// ErrorResponse is the JSON envelope wrapping an APIError.
type ErrorResponse struct {
	Error APIError `json:"error"`
}
