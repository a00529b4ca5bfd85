package core

// errors.go defines request-level errors and their user-facing messages.
//
// # Path Errors (PATH001-PATH099)
//
//	PATH001 - Not found: The requested file does not exist in the data root
//	          Action: Check the file name against the files listing
//	          Matches: ErrNotFound
//
//	PATH002 - Forbidden: The requested path is outside the data root
//	          Action: Use a path relative to the data root without ".."
//	          Matches: ErrForbidden
//
// # Parameter Errors (PARAM001-PARAM099)
//
//	PARAM001 - Invalid parameter: A request parameter is out of range
//	           Action: rows must be between 1 and 200
//	           Matches: ErrInvalidParameter
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - Unreadable: A tabular file could not be parsed as delimited text
//	          Action: Check the file for broken quoting or extra fields
//	          Matches: ErrUnparseable
//
// # Rule Errors (RULE001-RULE099)
//
//	RULE001 - Rules unavailable: The rule document is missing or malformed
//	          Action: Check RULES_PATH and the document's YAML syntax
//	          Patterns: "rule document"
//
// # Request Errors (REQ001-REQ099)
//
//	REQ001 - Busy: Too many scans in progress
//	         Action: Please wait a moment and try again
//	         Patterns: "too many concurrent scans"
//
//	REQ002 - Timeout: The scan did not finish in time
//	         Action: Try again; large data roots take longer to profile
//	         Patterns: "context deadline exceeded"
//
// # Default Error (ERR000)
//
//	ERR000 - Unexpected error
//	         Action: Check server logs for the technical error

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when a reference does not name a regular file
	// under the data root.
	ErrNotFound = errors.New("file not found")

	// ErrForbidden is returned when a reference resolves outside the data root.
	ErrForbidden = errors.New("path escapes data root")

	// ErrInvalidParameter is returned for out-of-range request parameters.
	ErrInvalidParameter = errors.New("invalid parameter")
)

// UserMessage is a user-friendly description of an error.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// errorMatcher maps either a sentinel or a message pattern to a user message.
// Sentinels are checked with errors.Is; patterns are case-insensitive
// substring matches. The first match wins.
type errorMatcher struct {
	target  error
	pattern string
	msg     UserMessage
}

var errorMatchers = []errorMatcher{
	{
		target: ErrNotFound,
		msg: UserMessage{
			Message: "File not found",
			Action:  "Check the file name against the files listing",
			Code:    "PATH001",
		},
	},
	{
		target: ErrForbidden,
		msg: UserMessage{
			Message: "Access outside the data root is not allowed",
			Action:  "Use a path relative to the data root without \"..\"",
			Code:    "PATH002",
		},
	},
	{
		target: ErrInvalidParameter,
		msg: UserMessage{
			Message: "Invalid request parameter",
			Action:  fmt.Sprintf("rows must be between %d and %d", MinPreviewRows, MaxPreviewRows),
			Code:    "PARAM001",
		},
	},
	{
		target: ErrUnparseable,
		msg: UserMessage{
			Message: "File could not be parsed",
			Action:  "Check the file for broken quoting or extra fields",
			Code:    "FILE001",
		},
	},
	{
		pattern: "rule document",
		msg: UserMessage{
			Message: "Rule document is missing or invalid",
			Action:  "Check RULES_PATH and the document's YAML syntax",
			Code:    "RULE001",
		},
	},
	{
		pattern: "too many concurrent scans",
		msg: UserMessage{
			Message: "Too many scans in progress",
			Action:  "Please wait a moment and try again",
			Code:    "REQ001",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "The scan did not finish in time",
			Action:  "Try again; large data roots take longer to profile",
			Code:    "REQ002",
		},
	},
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Check server logs for the technical error",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
//
// Example:
//
//	_, err := sb.Resolve("../../etc/passwd")
//	msg := MapError(err)
//	// msg.Code == "PATH002"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())
	for _, m := range errorMatchers {
		if m.target != nil && errors.Is(err, m.target) {
			return m.msg
		}
		if m.pattern != "" && strings.Contains(errStr, m.pattern) {
			return m.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message rather than ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its user-facing message.
type UserError struct {
	Technical error
	User      UserMessage
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError wraps err with its mapped message. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
