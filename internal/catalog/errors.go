package catalog

import (
	"errors"
	"fmt"
)

// Kind classifies failures surfaced by the catalog and the sync flow.
type Kind int

const (
	// KindInternal covers store outages, serialization failures and anything
	// else the caller should only see as a generic failure.
	KindInternal Kind = iota
	// KindValidation means the caller supplied a missing or malformed value.
	KindValidation
	// KindNotFound means the podcast or episode does not exist for the caller.
	KindNotFound
	// KindFeedParse means the podcast's feed could not be fetched or parsed.
	KindFeedParse
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindFeedParse:
		return "feed_parse"
	default:
		return "internal"
	}
}

// Store-level sentinel errors. Implementations of Store wrap or return these.
var (
	ErrNotFound         = errors.New("catalog: not found")
	ErrIndexUnavailable = errors.New("catalog: release date index unavailable")
	ErrConditionFailed  = errors.New("catalog: write condition failed")
	ErrInvalidCursor    = errors.New("catalog: invalid cursor")
	ErrBatchTooLarge    = errors.New("catalog: batch exceeds maximum size")
)

// Error is a failure tagged with its Kind and the operation that produced it.
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Op == "" {
		return msg
	}
	return fmt.Sprintf("%s: %s", e.Op, msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error by Kind, so errors.Is(err, &Error{Kind: KindNotFound}) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Op == "" && t.Msg == "" && t.Err == nil
}

// Validation returns a KindValidation error whose message is safe to show to callers.
func Validation(op, msg string) error {
	return &Error{Kind: KindValidation, Op: op, Msg: msg}
}

// NotFound returns a KindNotFound error.
func NotFound(op, msg string) error {
	return &Error{Kind: KindNotFound, Op: op, Msg: msg}
}

// FeedParse wraps a feed fetch or parse failure.
func FeedParse(op string, err error) error {
	return &Error{Kind: KindFeedParse, Op: op, Msg: "could not parse feed", Err: err}
}

// Internal wraps an unexpected failure.
func Internal(op string, err error) error {
	return &Error{Kind: KindInternal, Op: op, Err: err}
}

// KindOf reports the Kind of err. Errors that carry no Kind are internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// PublicMessage returns the text a caller may see for err. Internal failures
// never expose the underlying cause.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindInternal {
		if e.Msg != "" {
			return e.Msg
		}
	}
	return "internal server error"
}
