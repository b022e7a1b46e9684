package ingest

import (
	"errors"
	"fmt"
)

// ErrNestedArchive marks a zip entry that is itself a zip archive.
// Nested archives are not expanded; the entry is recorded as failed.
// The message surfaces verbatim in the archive ledger, hence the casing.
var ErrNestedArchive = errors.New("Nested ZIP files are not supported")

// UnsupportedFormatError is returned when classification cannot determine a
// handler for the upload. It carries both hints for diagnostics.
type UnsupportedFormatError struct {
	Extension   string
	ContentType string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported file format. Extension: %s, ContentType: %s", e.Extension, e.ContentType)
}

// ParseError is returned when a payload does not match the expected shape for
// its classified format: empty input, a missing header row, or a malformed
// top-level JSON value.
type ParseError struct {
	Format FileType
	Reason string
	Err    error // underlying decoder error, may be nil
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parsing %s file: %s: %v", e.Format, e.Reason, e.Err)
	}
	return fmt.Sprintf("parsing %s file: %s", e.Format, e.Reason)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
