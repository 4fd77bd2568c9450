package models

// Envelope is the JSON body every API route answers with. Exactly one of
// Data or Error is meaningful, selected by Success.
type Envelope struct {
	Success bool        `json:"success"`
	Data    any         `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Fields  FieldErrors `json:"errors,omitempty"`
}

// FieldErrors maps a request field to what is wrong with it.
type FieldErrors map[string]string

func OK(data any) Envelope {
	return Envelope{Success: true, Data: data}
}

func Fail(message string) Envelope {
	return Envelope{Error: message}
}

// Invalid reports a request that failed field validation.
func Invalid(fields FieldErrors) Envelope {
	return Envelope{Error: "Validation failed", Fields: fields}
}

// ClaimsResponse is returned by GET /protected.
type ClaimsResponse struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	ExpiresAt int64  `json:"exp"`
}
