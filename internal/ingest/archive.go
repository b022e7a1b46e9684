package ingest

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"log/slog"
)

// EntryOutcome is the ledger row for one non-directory archive entry.
// Exactly one of the two states holds: Processed with RecordCount >= 0, or
// not Processed with ErrorMessage set.
type EntryOutcome struct {
	Filename     string `json:"filename"`
	FileType     string `json:"fileType,omitempty"`
	RecordCount  int    `json:"recordCount"`
	Processed    bool   `json:"processed"`
	ErrorMessage string `json:"errorMessage,omitempty"`
}

// ArchiveResult aggregates the records and per-entry outcomes of one archive.
// Records are ordered by entry encounter order, then row order within each
// entry. ProcessedFiles always equals the number of processed outcomes, and
// the outcome record counts always sum to len(Records).
type ArchiveResult struct {
	Records        []Record
	Entries        []EntryOutcome
	TotalFiles     int
	ProcessedFiles int
}

// ProcessArchive walks the entries of a zip payload and runs the full
// classify/parse/normalize pipeline on each one independently. A failing
// entry is recorded in the ledger and never aborts the archive; only a
// container that cannot be opened at all is a fatal error.
func (s *Service) ProcessArchive(data []byte) (*ArchiveResult, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("opening ZIP archive: %w", err)
	}

	result := &ArchiveResult{}
	for _, entry := range zr.File {
		if entry.FileInfo().IsDir() {
			continue
		}
		result.TotalFiles++

		outcome := EntryOutcome{Filename: entry.Name}
		records, detected, err := s.processEntry(entry)
		outcome.FileType = detected
		if err != nil {
			outcome.ErrorMessage = err.Error()
			slog.Warn("archive entry failed", "entry", entry.Name, "error", err)
		} else {
			outcome.Processed = true
			outcome.RecordCount = len(records)
			result.Records = append(result.Records, records...)
			result.ProcessedFiles++
			slog.Debug("archive entry processed", "entry", entry.Name, "records", len(records))
		}
		result.Entries = append(result.Entries, outcome)
	}

	slog.Info("archive processed",
		"total_files", result.TotalFiles,
		"processed_files", result.ProcessedFiles,
		"records", len(result.Records),
	)
	return result, nil
}

// processEntry reads one entry and runs it through the single-file pipeline.
// The detected format label is returned even when processing fails, so the
// ledger can show what the entry was classified as.
func (s *Service) processEntry(entry *zip.File) ([]Record, string, error) {
	rc, err := entry.Open()
	if err != nil {
		return nil, "", fmt.Errorf("reading entry: %w", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, "", fmt.Errorf("reading entry: %w", err)
	}

	typ, err := DetectFileType(entry.Name, "")
	if err != nil {
		return nil, "", err
	}
	if typ == FileTypeZip {
		return nil, typ.String(), ErrNestedArchive
	}

	records, err := s.parseAndNormalize(typ, data)
	if err != nil {
		return nil, typ.String(), err
	}
	return records, typ.String(), nil
}
