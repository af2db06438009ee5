package types

type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the public error shape. Details carries the violated rule id
// under "rule" when one applies.
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
	RequestID string `json:"request_id,omitempty"`
	Details   any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
