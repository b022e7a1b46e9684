// Package ingest turns uploaded financial data files into normalized records.
//
// The pipeline has three stages: DetectFileType classifies the upload from
// its filename and declared content type, a per-format parser extracts an
// ordered header->value map for every row, and Normalize projects each map
// onto canonical attributes (date, amount, description, category, account)
// using keyword heuristics. ZIP archives fan out over their entries with
// per-entry failure isolation; one bad file never aborts the archive.
//
// The raw field map is always the source of truth. Canonical attributes are
// a best-effort projection and may be absent for any given record.
package ingest
