package services

// Typed service errors. Handlers map these to HTTP status codes in one
// place; the core never retries or swallows them.

type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string { return "Validation error" }

// QuotaExceededError is returned when a Basic-plan user has reached the
// weekly session cap.
type QuotaExceededError struct{ Message string }

func (e *QuotaExceededError) Error() string { return e.Message }

// ActiveSessionExistsError is returned when a session start is requested
// while the user already has a running session.
type ActiveSessionExistsError struct{ Message string }

func (e *ActiveSessionExistsError) Error() string { return e.Message }

// NoActiveSessionError is returned when a session operation targets a
// session that is not running (already ended, expired, or unknown).
type NoActiveSessionError struct{ Message string }

func (e *NoActiveSessionError) Error() string { return e.Message }

// EmptyDataError is returned when an analytics computation is requested
// over zero history.
type EmptyDataError struct{ Message string }

func (e *EmptyDataError) Error() string { return e.Message }

type ConflictError struct{ Message string }

func (e *ConflictError) Error() string { return e.Message }

type NotFoundError struct{ Message string }

func (e *NotFoundError) Error() string { return e.Message }

type UnauthorizedError struct{ Message string }

func (e *UnauthorizedError) Error() string { return e.Message }

type ForbiddenError struct{ Message string }

func (e *ForbiddenError) Error() string { return e.Message }

type RateLimitError struct{ Message string }

func (e *RateLimitError) Error() string { return e.Message }
