package types

// SuccessEnvelope wraps every successful JSON payload as {"data": ...}.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the public face of a failed request.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// NewErrorEnvelope builds an error body. Empty detail maps are dropped so the
// field is omitted on the wire.
func NewErrorEnvelope(code, message string, details any) ErrorEnvelope {
	switch d := details.(type) {
	case map[string]string:
		if len(d) == 0 {
			details = nil
		}
	case map[string]any:
		if len(d) == 0 {
			details = nil
		}
	}
	return ErrorEnvelope{Error: APIError{Code: code, Message: message, Details: details}}
}
