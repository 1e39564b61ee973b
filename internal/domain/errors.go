package domain

import "errors"

// ErrNotFound is returned by repo and service functions when the requested
// trip does not exist.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned by service functions when a well-formed payload
// breaks a field rule (e.g. missing title, title is not a string).
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrMalformed is returned when the submitted payload is not a JSON object.
// Handlers should map this to HTTP 400.
var ErrMalformed = errors.New("malformed payload")

// ErrUnavailable is returned by repo functions when the backing store could
// not serve the request. Clients may retry.
// Handlers should map this to HTTP 503.
var ErrUnavailable = errors.New("storage unavailable")
