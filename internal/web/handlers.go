package web

import (
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/fin2md/fin2md/internal/ingest"
	"github.com/fin2md/fin2md/internal/logging"
	"github.com/fin2md/fin2md/internal/report"
)

// ConvertResponse is the envelope returned by the convert endpoint. The
// archive fields are present only when the upload was a ZIP.
type ConvertResponse struct {
	ConversionID string    `json:"conversionId"`
	Markdown     string    `json:"markdown"`
	Filename     string    `json:"filename"`
	RecordCount  int       `json:"recordCount"`
	ProcessedAt  time.Time `json:"processedAt"`
	FileType     string    `json:"fileType"`
	Status       string    `json:"status"`
	IsZipArchive bool      `json:"isZipArchive"`

	ZipFileContents            []ingest.EntryOutcome `json:"zipFileContents,omitempty"`
	TotalFilesInZip            int                   `json:"totalFilesInZip,omitempty"`
	SuccessfullyProcessedFiles int                   `json:"successfullyProcessedFiles,omitempty"`
}

// handleConvert accepts a multipart upload in the "file" field and returns
// the rendered markdown report.
func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	maxSize := s.cfg.Upload.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		respondBadRequest(w, "file too large or invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondBadRequest(w, "no file provided")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respondBadRequest(w, "failed to read file")
		return
	}
	if len(data) == 0 {
		respondBadRequest(w, "file is empty")
		return
	}

	if err := s.service.Limiter().Acquire(r.Context()); err != nil {
		s.respondError(w, r, err)
		return
	}
	defer s.service.Limiter().Release()

	conversionID := uuid.New().String()
	declaredType := header.Header.Get("Content-Type")
	logger := logging.WithFields(r.Context(),
		"conversion_id", conversionID,
		"filename", header.Filename,
	)
	logger.Info("conversion started", "size", len(data), "declared_type", declaredType)

	typ, err := ingest.DetectFileType(header.Filename, declaredType)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	resp := ConvertResponse{
		ConversionID: conversionID,
		Filename:     header.Filename,
		ProcessedAt:  time.Now(),
		FileType:     declaredType,
		Status:       "SUCCESS",
	}

	if typ == ingest.FileTypeZip {
		result, err := s.service.ProcessArchive(data)
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		resp.Markdown = report.RenderArchive(result, header.Filename)
		resp.RecordCount = len(result.Records)
		resp.IsZipArchive = true
		resp.ZipFileContents = result.Entries
		resp.TotalFilesInZip = result.TotalFiles
		resp.SuccessfullyProcessedFiles = result.ProcessedFiles

		logger.Info("archive conversion finished",
			"total_files", result.TotalFiles,
			"processed_files", result.ProcessedFiles,
			"records", len(result.Records),
		)
	} else {
		records, _, err := s.service.ProcessFile(header.Filename, declaredType, data)
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		resp.Markdown = report.Render(records, header.Filename)
		resp.RecordCount = len(records)

		logger.Info("conversion finished", "type", typ.String(), "records", len(records))
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleHealth is the liveness endpoint.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Financial Data API is running"))
}
