package ingest

// messages.go maps pipeline errors onto stable, user-quotable messages.
//
// # Error Codes Reference
//
//	FMT001   - Unsupported format: classification found no handler
//	           Action: upload CSV, XLSX, XLS, JSON, TXT, or ZIP
//
//	PARSE001 - Empty file: the payload had no rows at all
//	PARSE002 - Missing header: the first row/sheet had no header
//	PARSE003 - Malformed payload: the content does not match its format
//	           Action: check the file exports correctly from its source
//
//	ZIP001   - Corrupt archive: the ZIP container could not be opened
//	ZIP002   - Nested archive: ZIP entries inside a ZIP are not expanded
//
//	SYS001   - Busy: all conversion slots are occupied
//	SYS000   - Fallback for unrecognized errors

import (
	"errors"
	"strings"
)

// UserMessage is a client-safe rendering of an error: what happened, what to
// do about it, and a code to quote to support.
type UserMessage struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
}

var defaultMessage = UserMessage{
	Code:    "SYS000",
	Message: "An unexpected error occurred while processing the file",
	Action:  "Please try again",
}

// Substring patterns checked in order after the typed checks.
var messagePatterns = []struct {
	pattern string
	msg     UserMessage
}{
	{"is empty", UserMessage{Code: "PARSE001", Message: "The file contains no data rows", Action: "Check that the file was exported with content"}},
	{"no header", UserMessage{Code: "PARSE002", Message: "The file is missing a header row", Action: "Add a header row naming each column"}},
	{"no sheets", UserMessage{Code: "PARSE002", Message: "The workbook contains no sheets", Action: "Add a sheet with a header row"}},
	{"opening zip", UserMessage{Code: "ZIP001", Message: "The ZIP archive is corrupt or not a ZIP file", Action: "Re-create the archive and upload again"}},
}

// MapError resolves an error to its user-facing message. Typed errors are
// matched first; everything else falls back to substring patterns over the
// raw message text, then to the generic SYS000 message.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var unsupported *UnsupportedFormatError
	if errors.As(err, &unsupported) {
		return UserMessage{
			Code:    "FMT001",
			Message: "The file format is not supported",
			Action:  "Upload a CSV, XLSX, XLS, JSON, TXT, or ZIP file",
		}
	}
	if errors.Is(err, ErrNestedArchive) {
		return UserMessage{
			Code:    "ZIP002",
			Message: "Nested ZIP archives are not supported",
			Action:  "Extract the inner archive and upload its files directly",
		}
	}
	if errors.Is(err, ErrTooManyConversions) {
		return UserMessage{
			Code:    "SYS001",
			Message: "The server is busy processing other files",
			Action:  "Retry in a few seconds",
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, mp := range messagePatterns {
		if strings.Contains(errStr, mp.pattern) {
			return mp.msg
		}
	}

	var parse *ParseError
	if errors.As(err, &parse) {
		return UserMessage{
			Code:    "PARSE003",
			Message: "The file content does not match its format",
			Action:  "Check the file exports correctly from its source system",
		}
	}

	return defaultMessage
}
