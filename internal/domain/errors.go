package domain

import "errors"

var (
	ErrPlanNotFound     = errors.New("plan not found")
	ErrSubjectNotFound  = errors.New("subject not found")
	ErrTopicNotFound    = errors.New("topic not found")
	ErrRevisionNotFound = errors.New("revision not found")
	ErrDeckNotFound     = errors.New("deck not found")
	ErrSubDeckNotFound  = errors.New("sub-deck not found")
	ErrCardNotFound     = errors.New("card not found")
	ErrSessionNotFound  = errors.New("session not found")
	ErrExamNotFound     = errors.New("mock exam not found")
	ErrSourceNotFound   = errors.New("source not found")

	// ErrSourceExists rejects registering the same location twice.
	ErrSourceExists = errors.New("source already registered")

	// ErrRevisionCompleted rejects completing a revision twice.
	ErrRevisionCompleted = errors.New("revision already completed")

	// ErrInvalidScore rejects a correct count above the total.
	ErrInvalidScore = errors.New("correct count exceeds total")

	// ErrNothingDue distinguishes an empty due set from a failure.
	ErrNothingDue = errors.New("nothing due for review")
)
