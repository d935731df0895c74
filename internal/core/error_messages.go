package core

// error_messages.go maps technical errors to messages a ledger member can
// act on. Each message carries a code that support can look up:
//
//	FILE001  file too large
//	FILE002  file could not be read
//	FILE003  workbook has no sheets
//	FILE004  unsupported file format
//	FILE005  file has no data rows
//	FILE006  file is not a valid spreadsheet/csv
//	VAL001   rows failed validation (see failedRows)
//	VAL002   invalid date
//	VAL003   invalid number
//	VAL004   required field empty
//	IMP001   too many imports in progress
//	IMP002   request cancelled
//	IMP003   request timed out
//	DB001    database unavailable
//	DB002    database rejected the data
//	ERR000   anything else
//
// Typed errors (sentinels, *ReadError, *FieldError) are matched first with
// errors.Is/As; driver errors fall back to case-insensitive substring
// patterns.

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened
	Action  string // What to do about it
	Code    string // Support reference
}

var (
	msgFileTooLarge = UserMessage{
		Message: "File exceeds the maximum upload size",
		Action:  "Split the file by month and import each part",
		Code:    "FILE001",
	}
	msgReadFailed = UserMessage{
		Message: "The file could not be read",
		Action:  "Check the file and try uploading it again",
		Code:    "FILE002",
	}
	msgEmptyWorkbook = UserMessage{
		Message: "The workbook contains no sheets",
		Action:  "Add a sheet with a header row and your transactions",
		Code:    "FILE003",
	}
	msgUnsupportedFormat = UserMessage{
		Message: "This file format is not supported",
		Action:  "Upload an .xlsx or .csv file",
		Code:    "FILE004",
	}
	msgNoRows = UserMessage{
		Message: "The file has no transactions",
		Action:  "Fill in at least one row below the header",
		Code:    "FILE005",
	}
	msgValidation = UserMessage{
		Message: "Some rows could not be imported",
		Action:  "Fix the listed rows and import the file again; nothing was saved",
		Code:    "VAL001",
	}
	msgTooManyImports = UserMessage{
		Message: "Too many imports are running",
		Action:  "Please wait a moment and try again",
		Code:    "IMP001",
	}
	msgCancelled = UserMessage{
		Message: "The request was cancelled",
		Action:  "Please try again",
		Code:    "IMP002",
	}
	msgTimeout = UserMessage{
		Message: "The request timed out",
		Action:  "Try a smaller file or try again later",
		Code:    "IMP003",
	}
	defaultMessage = UserMessage{
		Message: "An unexpected error occurred",
		Action:  "Please try again or contact support",
		Code:    "ERR000",
	}
)

// errorPattern maps a lower-case substring of an error to a message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns are checked in order; specific patterns come first.
var errorPatterns = []errorPattern{
	{"zip: not a valid zip file", UserMessage{
		Message: "The file is not a valid spreadsheet",
		Action:  "Save the file as .xlsx or .csv and upload it again",
		Code:    "FILE006",
	}},
	{"invalid csv", UserMessage{
		Message: "The file is not a valid CSV",
		Action:  "Ensure the file is comma-separated with a header line",
		Code:    "FILE006",
	}},
	{"invalid date", UserMessage{
		Message: "Invalid date format detected",
		Action:  "Use YYYY-MM-DD, YYYY.MM.DD or 2024년 1월 15일",
		Code:    "VAL002",
	}},
	{"invalid number", UserMessage{
		Message: "Invalid amount detected",
		Action:  "Use plain numbers such as 12000 or 12,000원",
		Code:    "VAL003",
	}},
	{"required field", UserMessage{
		Message: "A required field is empty",
		Action:  "Every row needs 구분, 금액 and 날짜",
		Code:    "VAL004",
	}},
	{"connection refused", UserMessage{
		Message: "Unable to reach the database",
		Action:  "Please try again in a few moments",
		Code:    "DB001",
	}},
	{"connection reset", UserMessage{
		Message: "The database connection was interrupted",
		Action:  "Please try again",
		Code:    "DB001",
	}},
	{"violates check constraint", UserMessage{
		Message: "The database rejected one of the transactions",
		Action:  "Check amounts and types, then try again",
		Code:    "DB002",
	}},
}

// MapError converts a technical error into a UserMessage.
// Returns the zero UserMessage for a nil error.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var readErr *ReadError
	switch {
	case errors.Is(err, ErrFileTooLarge):
		return msgFileTooLarge
	case errors.Is(err, ErrValidation):
		return msgValidation
	case errors.Is(err, ErrEmptyWorkbook):
		return msgEmptyWorkbook
	case errors.Is(err, ErrUnsupportedFormat):
		return msgUnsupportedFormat
	case errors.Is(err, ErrNoRows):
		return msgNoRows
	case errors.Is(err, ErrTooManyImports):
		return msgTooManyImports
	case errors.Is(err, context.Canceled):
		return msgCancelled
	case errors.Is(err, context.DeadlineExceeded):
		return msgTimeout
	case errors.As(err, &readErr):
		return msgReadFailed
	}

	lower := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(lower, ep.pattern) {
			return ep.msg
		}
	}
	return defaultMessage
}

// FormatUserError renders err as "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message rather than
// the generic fallback.
func IsUserFacing(err error) bool {
	return err != nil && MapError(err).Code != defaultMessage.Code
}
