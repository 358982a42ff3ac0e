package model

import (
	"errors"
	"fmt"
)

// Sentinel errors for the data-integrity failures that abort an evaluation.
// Typed errors below match them through errors.Is.
var (
	ErrUnknownLabel       = errors.New("unknown user need label")
	ErrInvalidOrdinal     = errors.New("invalid impact value")
	ErrDuplicateArticleID = errors.New("duplicate article_id")
	ErrEmptyGroundTruth   = errors.New("no ground truth responses provided")
	ErrNoGroundTruth      = errors.New("at least one ground truth dataset is required")
	ErrMalformedRecord    = errors.New("malformed record")
)

// UnknownLabelError reports a user_need outside the taxonomy
type UnknownLabelError struct {
	Label string
	Side  string // "model", "ground truth" or empty
}

func (e *UnknownLabelError) Error() string {
	if e.Side != "" {
		return fmt.Sprintf("unknown %s user need label: %q", e.Side, e.Label)
	}
	return fmt.Sprintf("unknown user need label: %q", e.Label)
}

func (e *UnknownLabelError) Is(target error) bool { return target == ErrUnknownLabel }

// InvalidOrdinalError reports an impact value outside {1,3,5,7,9}
type InvalidOrdinalError struct {
	Field Field
	Side  string
	Value int
}

func (e *InvalidOrdinalError) Error() string {
	msg := "invalid"
	if e.Side != "" {
		msg += " " + e.Side
	}
	msg += " impact value"
	if e.Field != "" {
		msg += " for " + string(e.Field)
	}
	return fmt.Sprintf("%s: %d (allowed: 1, 3, 5, 7, 9)", msg, e.Value)
}

func (e *InvalidOrdinalError) Is(target error) bool { return target == ErrInvalidOrdinal }

// DuplicateArticleIDError reports an id seen twice in one dataset
type DuplicateArticleIDError struct {
	ID             int64
	FirstCategory  string
	SecondCategory string
}

func (e *DuplicateArticleIDError) Error() string {
	return fmt.Sprintf("duplicate article_id detected: %d (categories %q and %q)", e.ID, e.FirstCategory, e.SecondCategory)
}

func (e *DuplicateArticleIDError) Is(target error) bool { return target == ErrDuplicateArticleID }

// IsInputError reports whether err stems from invalid input data rather than an unexpected failure
func IsInputError(err error) bool {
	var inputErr *InputError
	return errors.Is(err, ErrUnknownLabel) ||
		errors.Is(err, ErrInvalidOrdinal) ||
		errors.Is(err, ErrDuplicateArticleID) ||
		errors.Is(err, ErrEmptyGroundTruth) ||
		errors.Is(err, ErrNoGroundTruth) ||
		errors.Is(err, ErrMalformedRecord) ||
		errors.As(err, &inputErr)
}

// InputError marks failures to read or decode an input document
type InputError struct {
	Path string
	Err  error
}

func (e *InputError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *InputError) Unwrap() error { return e.Err }
