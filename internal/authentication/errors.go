package authentication

import (
	"fmt"
)

// UnknownErrorCode is reported when the error body carries no error code.
const UnknownErrorCode = "a0.sdk.internal.unknown"

// Auth0Error is returned by Base for responses with a non-2xx status.
type Auth0Error struct {
	StatusCode int
	ErrorCode  string
	Message    string

	body []byte
}

func (e *Auth0Error) Error() string {
	return fmt.Sprintf("%d: %s", e.StatusCode, e.Message)
}

// Body returns the raw response body.
func (e *Auth0Error) Body() []byte {
	return e.body
}

// Status returns the HTTP status code.
func (e *Auth0Error) Status() int {
	return e.StatusCode
}

// RateLimitError is returned for 429 responses. ResetAt is the unix time
// from the x-ratelimit-reset header, or -1 when the header is missing.
type RateLimitError struct {
	Auth0Error
	ResetAt int64
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s (reset at %d)", e.Auth0Error.Error(), e.ResetAt)
}

// Unwrap lets errors.As match *Auth0Error on a rate limit error.
func (e *RateLimitError) Unwrap() error {
	return &e.Auth0Error
}

// NewAuth0Error builds an Auth0Error from a response status and body.
func NewAuth0Error(status int, body []byte) *Auth0Error {
	return newAuth0Error(status, body, parseBody(body))
}

func newAuth0Error(status int, body []byte, content interface{}) *Auth0Error {
	e := &Auth0Error{StatusCode: status, ErrorCode: UnknownErrorCode, body: body}
	obj, ok := content.(map[string]interface{})
	if !ok {
		if s, ok := content.(string); ok {
			e.Message = s
		}
		return e
	}
	for _, key := range []string{"error", "code"} {
		if v, ok := obj[key].(string); ok && v != "" {
			e.ErrorCode = v
			break
		}
	}
	for _, key := range []string{"error_description", "description", "message", "error"} {
		if v, ok := obj[key].(string); ok && v != "" {
			e.Message = v
			break
		}
	}
	return e
}
