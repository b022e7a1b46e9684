package web

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/fin2md/fin2md/internal/config"
	"github.com/fin2md/fin2md/internal/ingest"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := &config.Config{
		Server: config.ServerConfig{RequestTimeout: time.Minute},
		Upload: config.UploadConfig{
			MaxFileSize:   1 << 20,
			MaxConcurrent: 2,
			MaxWaitTime:   time.Second,
		},
	}
	service := ingest.NewService(cfg.Upload.MaxConcurrent, cfg.Upload.MaxWaitTime)
	return NewServer(service, nil, cfg)
}

func multipartUpload(t *testing.T, filename, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}
	part, err := mw.CreatePart(h)
	if err != nil {
		t.Fatalf("CreatePart() error = %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func postConvert(t *testing.T, s *Server, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/financial-data/convert", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, req)
	return rr
}

func TestHandleConvert_CSV(t *testing.T) {
	s := newTestServer(t)
	body, ct := multipartUpload(t, "txns.csv", "text/csv",
		[]byte("Date,Amount,Category\n2024-03-05,10.50,Food\n2024-03-06,20.00,Travel\n"))

	rr := postConvert(t, s, body, ct)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}

	var resp ConvertResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.RecordCount != 2 {
		t.Errorf("RecordCount = %d, want 2", resp.RecordCount)
	}
	if resp.Status != "SUCCESS" {
		t.Errorf("Status = %q", resp.Status)
	}
	if resp.Filename != "txns.csv" {
		t.Errorf("Filename = %q", resp.Filename)
	}
	if resp.IsZipArchive {
		t.Error("IsZipArchive = true for plain CSV")
	}
	if _, err := uuid.Parse(resp.ConversionID); err != nil {
		t.Errorf("ConversionID %q is not a UUID: %v", resp.ConversionID, err)
	}
	if !strings.Contains(resp.Markdown, "# Financial Data Report") {
		t.Errorf("Markdown missing title:\n%s", resp.Markdown)
	}
	if !strings.Contains(resp.Markdown, "| Total Amount | $30.50 |") {
		t.Errorf("Markdown missing total:\n%s", resp.Markdown)
	}
}

func TestHandleConvert_ZipArchive(t *testing.T) {
	var zbuf bytes.Buffer
	zw := zip.NewWriter(&zbuf)
	for name, content := range map[string]string{
		"a.csv": "Amount\n1.00\n",
		"b.txt": "Amount\n2.00\n3.00\n",
	} {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("Create(%s) error = %v", name, err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("Write(%s) error = %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	s := newTestServer(t)
	body, ct := multipartUpload(t, "bundle.zip", "application/zip", zbuf.Bytes())

	rr := postConvert(t, s, body, ct)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}

	var resp ConvertResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.IsZipArchive {
		t.Error("IsZipArchive = false")
	}
	if resp.TotalFilesInZip != 2 || resp.SuccessfullyProcessedFiles != 2 {
		t.Errorf("archive counts = %d/%d, want 2/2",
			resp.SuccessfullyProcessedFiles, resp.TotalFilesInZip)
	}
	if resp.RecordCount != 3 {
		t.Errorf("RecordCount = %d, want 3", resp.RecordCount)
	}
	if len(resp.ZipFileContents) != 2 {
		t.Errorf("ZipFileContents has %d entries, want 2", len(resp.ZipFileContents))
	}
	if !strings.Contains(resp.Markdown, "ZIP Archive") {
		t.Errorf("Markdown missing archive header:\n%s", resp.Markdown)
	}
}

func TestHandleConvert_UnsupportedFormat(t *testing.T) {
	s := newTestServer(t)
	body, ct := multipartUpload(t, "scan.pdf", "application/pdf", []byte("%PDF-1.4"))

	rr := postConvert(t, s, body, ct)
	if rr.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("status = %d, want 415, body = %s", rr.Code, rr.Body.String())
	}

	var resp ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Code != "FMT001" {
		t.Errorf("Code = %q, want FMT001", resp.Code)
	}
}

func TestHandleConvert_MalformedPayload(t *testing.T) {
	s := newTestServer(t)
	body, ct := multipartUpload(t, "data.json", "application/json", []byte("{not an array"))

	rr := postConvert(t, s, body, ct)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400, body = %s", rr.Code, rr.Body.String())
	}

	var resp ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Code != "PARSE003" {
		t.Errorf("Code = %q, want PARSE003", resp.Code)
	}
}

func TestHandleConvert_EmptyFile(t *testing.T) {
	s := newTestServer(t)
	body, ct := multipartUpload(t, "empty.csv", "text/csv", nil)

	rr := postConvert(t, s, body, ct)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400, body = %s", rr.Code, rr.Body.String())
	}
}

func TestHandleConvert_MissingFileField(t *testing.T) {
	s := newTestServer(t)
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("other", "value"); err != nil {
		t.Fatalf("WriteField() error = %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	rr := postConvert(t, s, &buf, mw.FormDataContentType())
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400, body = %s", rr.Code, rr.Body.String())
	}

	var resp ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Code != "REQ001" {
		t.Errorf("Code = %q, want REQ001", resp.Code)
	}
}

func TestHandleHealth(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/financial-data/health", nil)
	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if got := rr.Body.String(); got != "Financial Data API is running" {
		t.Errorf("body = %q", got)
	}
}

func TestSecurityHeaders(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/financial-data/health", nil)
	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, req)

	if got := rr.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
	if got := rr.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q", got)
	}
}

func TestRateLimiter_Allow(t *testing.T) {
	rl := newRateLimiter(2, time.Minute)

	if !rl.allow("1.2.3.4") || !rl.allow("1.2.3.4") {
		t.Fatal("first two requests should be allowed")
	}
	if rl.allow("1.2.3.4") {
		t.Error("third request within window should be rejected")
	}
	if !rl.allow("5.6.7.8") {
		t.Error("different IP should have its own bucket")
	}
}
