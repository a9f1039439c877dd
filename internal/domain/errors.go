package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrBadRequest = errors.New("bad request")

	// ErrUnsupportedAddress means the identifier does not look like a phone
	// number the delivery transport can reach (digits only, length 7-23).
	ErrUnsupportedAddress = errors.New("unsupported address")
	// ErrInvalidTemplate means the message template is missing the ~ placeholder.
	ErrInvalidTemplate = errors.New("invalid message template")
	// ErrCodeGeneration means the generator produced something other than a
	// 4-digit code; the request is aborted and nothing is persisted.
	ErrCodeGeneration = errors.New("code generation failed")
)
