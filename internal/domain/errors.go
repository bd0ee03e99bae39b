package domain

import "errors"

// Error categories for a mention delivery. Callers wrap the underlying cause
// with %w so both the category and the cause survive errors.Is/As.
var (
	// ErrConfiguration means required credentials or settings are missing.
	// Fatal at startup, before any network call.
	ErrConfiguration = errors.New("configuration error")

	// ErrRetrieval means the thread history could not be fetched or decoded.
	ErrRetrieval = errors.New("history retrieval failed")

	// ErrCompletion means the completion API failed or returned an unusable response.
	ErrCompletion = errors.New("completion failed")

	// ErrPost means the reply could not be delivered to the channel.
	ErrPost = errors.New("reply post failed")

	// ErrDuplicateGuard means the processed-event store was unreachable.
	ErrDuplicateGuard = errors.New("duplicate guard unavailable")
)
