package server

// ErrorResponse represents the standardized JSON response for an API error.
type ErrorResponse struct {
	// Error is the short error code or status text.
	Error string `json:"error"`
	// Message is a descriptive error message.
	Message string `json:"message,omitempty"`
}

// FamiliesResponse lists the registered polynomial families.
type FamiliesResponse struct {
	Families []string `json:"families"`
}

// requestError is a request decoding failure with its HTTP status.
type requestError struct {
	Message    string
	StatusCode int
}

func (e requestError) Error() string { return e.Message }
