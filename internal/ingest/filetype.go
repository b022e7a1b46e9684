package ingest

import (
	"strings"
)

// FileType identifies one of the supported input formats.
type FileType int

const (
	FileTypeCSV FileType = iota
	FileTypeXLSX
	FileTypeXLS
	FileTypeJSON
	FileTypeText
	FileTypeZip
)

// formatSpec pairs a FileType with the MIME type and extension it matches.
// Order defines classification priority within each matching pass.
var formatSpecs = []struct {
	typ  FileType
	mime string
	ext  string
}{
	{FileTypeCSV, "text/csv", "csv"},
	{FileTypeXLSX, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "xlsx"},
	{FileTypeXLS, "application/vnd.ms-excel", "xls"},
	{FileTypeJSON, "application/json", "json"},
	{FileTypeText, "text/plain", "txt"},
	{FileTypeZip, "application/zip", "zip"},
}

// String returns the format label used in logs and archive ledgers.
func (t FileType) String() string {
	switch t {
	case FileTypeCSV:
		return "CSV"
	case FileTypeXLSX:
		return "XLSX"
	case FileTypeXLS:
		return "XLS"
	case FileTypeJSON:
		return "JSON"
	case FileTypeText:
		return "TEXT"
	case FileTypeZip:
		return "ZIP"
	default:
		return "UNKNOWN"
	}
}

// DetectFileType classifies an upload from its filename and declared content
// type. The declared MIME type wins over the filename extension; two fuzzy
// fallbacks catch vendor-specific JSON and zip MIME variants. A file that
// matches nothing fails with UnsupportedFormatError carrying both hints.
func DetectFileType(filename, contentType string) (FileType, error) {
	if filename == "" {
		return 0, &UnsupportedFormatError{Extension: "", ContentType: contentType}
	}

	ext := ""
	if idx := strings.LastIndex(filename, "."); idx >= 0 {
		ext = strings.ToLower(filename[idx+1:])
	}

	// Declared MIME type takes priority over the extension.
	if contentType != "" {
		for _, spec := range formatSpecs {
			if strings.EqualFold(contentType, spec.mime) {
				return spec.typ, nil
			}
		}
	}

	for _, spec := range formatSpecs {
		if ext == spec.ext {
			return spec.typ, nil
		}
	}

	// Loose fallbacks: JSON by substring, zip by known vendor variants.
	if ext == "json" || strings.Contains(contentType, "json") {
		return FileTypeJSON, nil
	}
	if ext == "zip" || contentType == "application/zip" || contentType == "application/x-zip-compressed" {
		return FileTypeZip, nil
	}

	return 0, &UnsupportedFormatError{Extension: ext, ContentType: contentType}
}
