package models

import "time"

// Result is the outcome of one admission check.
type Result struct {
	Allowed   bool      `json:"allowed"`
	Limit     int       `json:"limit"`
	Remaining int       `json:"remaining"`
	ResetAt   time.Time `json:"reset_at"`
	// RetryAfter is whole seconds, set only when Allowed is false.
	RetryAfter int `json:"retry_after,omitempty"`
}

type ExceededResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	RetryAfter       int    `json:"retry_after"`
}

// WriteKey scopes the write budget to one client address.
func WriteKey(clientIP string) string {
	return "registrar:ratelimit:writes:" + clientIP
}
