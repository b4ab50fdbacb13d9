package serverutils

// Envelope is the uniform JSON wrapper for every successful response.
type Envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func SuccessResponse(message string, data interface{}) Envelope {
	return Envelope{
		Success: true,
		Message: message,
		Data:    data,
	}
}

// ErrorEnvelope is the uniform JSON wrapper for every error response. Code is
// a stable machine-readable error class, never a stack trace.
type ErrorEnvelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Code    string      `json:"code"`
	Data    interface{} `json:"data,omitempty"`
}

func ErrorResponse(code, message string) ErrorEnvelope {
	return ErrorEnvelope{
		Success: false,
		Message: message,
		Code:    code,
	}
}
