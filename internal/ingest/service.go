package ingest

import (
	"log/slog"
	"time"
)

// Service is the entry point for file conversion. It owns the concurrency
// limiter; everything else is stateless per request.
type Service struct {
	limiter *Limiter
}

// NewService creates a Service allowing at most maxConcurrent simultaneous
// conversions, each waiting up to maxWait for a slot.
func NewService(maxConcurrent int, maxWait time.Duration) *Service {
	return &Service{
		limiter: NewLimiter(maxConcurrent, maxWait),
	}
}

// Limiter exposes the conversion limiter for acquisition by callers and for
// drain on shutdown.
func (s *Service) Limiter() *Limiter {
	return s.limiter
}

// ProcessFile classifies a single (non-archive) upload and turns it into
// normalized records. The caller handles FileTypeZip before calling this;
// passing a zip payload here processes it as an archive and returns the
// flattened records.
func (s *Service) ProcessFile(filename, contentType string, data []byte) ([]Record, FileType, error) {
	typ, err := DetectFileType(filename, contentType)
	if err != nil {
		return nil, 0, err
	}

	slog.Info("processing file", "filename", filename, "type", typ.String())

	if typ == FileTypeZip {
		result, err := s.ProcessArchive(data)
		if err != nil {
			return nil, typ, err
		}
		return result.Records, typ, nil
	}

	records, err := s.parseAndNormalize(typ, data)
	if err != nil {
		return nil, typ, err
	}
	return records, typ, nil
}

// parseAndNormalize runs the format parser and normalizes every row,
// preserving row order.
func (s *Service) parseAndNormalize(typ FileType, data []byte) ([]Record, error) {
	maps, err := parseFile(typ, data)
	if err != nil {
		return nil, err
	}
	records := make([]Record, 0, len(maps))
	for _, fm := range maps {
		records = append(records, Normalize(fm))
	}
	return records, nil
}
