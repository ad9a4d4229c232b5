package vibe

import "fmt"

// Code classifies a terminal run failure.
type Code string

const (
	CodeInvalidRequest     Code = "INVALID_REQUEST"
	CodeParseFailure       Code = "PARSE_FAILURE"
	CodeCommitFetchFailure Code = "COMMIT_FETCH_FAILURE"
	CodeNoCommitsInWindow  Code = "NO_COMMITS_IN_WINDOW"
	CodeTimeout            Code = "TIMEOUT"
	// CodeCanceled means the caller stopped waiting. The run itself may
	// still finish and be cached.
	CodeCanceled Code = "CANCELED"
)

// Error is a terminal outcome surfaced to the caller. Hint tells the user
// what to do about it.
type Error struct {
	Code    Code
	Message string
	Hint    string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

func newError(code Code, message, hint string, cause error) *Error {
	return &Error{Code: code, Message: message, Hint: hint, cause: cause}
}
