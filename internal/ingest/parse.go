package ingest

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

// textDelimiters splits plain-text lines on tab, comma, or pipe.
var textDelimiters = regexp.MustCompile(`[\t,|]`)

// parseFile dispatches to the parser for the classified format and returns
// one ordered field map per data row, preserving row order.
func parseFile(typ FileType, data []byte) ([]*FieldMap, error) {
	switch typ {
	case FileTypeCSV:
		return parseCSV(data)
	case FileTypeXLSX:
		return parseXLSX(data)
	case FileTypeXLS:
		return parseXLS(data)
	case FileTypeJSON:
		return parseJSON(data)
	case FileTypeText:
		return parseText(data)
	default:
		return nil, fmt.Errorf("no parser registered for format %s", typ)
	}
}

// parseCSV reads the first row as the header and zips every following row
// against it positionally. Ragged rows are tolerated: a row is truncated to
// the shorter of header and value count.
func parseCSV(data []byte) ([]*FieldMap, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1

	rows, err := r.ReadAll()
	if err != nil {
		return nil, &ParseError{Format: FileTypeCSV, Reason: "invalid CSV", Err: err}
	}
	if len(rows) == 0 {
		return nil, &ParseError{Format: FileTypeCSV, Reason: "file is empty"}
	}

	headers := rows[0]
	maps := make([]*FieldMap, 0, len(rows)-1)
	for _, row := range rows[1:] {
		fm := NewFieldMap()
		for i := 0; i < len(headers) && i < len(row); i++ {
			fm.Set(strings.TrimSpace(headers[i]), strings.TrimSpace(row[i]))
		}
		maps = append(maps, fm)
	}
	return maps, nil
}

// parseXLSX reads the first sheet of a modern Excel workbook. Cell values
// come from excelize's formatted row scan, refined per cell: formula cells
// render their formula text and boolean cells render lowercase true/false.
// Date-formatted numerics are already rendered as date strings by the scan.
func parseXLSX(data []byte) ([]*FieldMap, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, &ParseError{Format: FileTypeXLSX, Reason: "invalid workbook", Err: err}
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, &ParseError{Format: FileTypeXLSX, Reason: "reading first sheet", Err: err}
	}
	if len(rows) == 0 {
		return nil, &ParseError{Format: FileTypeXLSX, Reason: "file has no header row"}
	}

	headers := make([]string, len(rows[0]))
	for c, raw := range rows[0] {
		headers[c] = refineCell(f, sheet, 0, c, raw)
	}

	maps := make([]*FieldMap, 0, len(rows)-1)
	for r := 1; r < len(rows); r++ {
		row := rows[r]
		if len(row) == 0 {
			// Gap row with no cells at all.
			continue
		}
		fm := NewFieldMap()
		for c, h := range headers {
			val := ""
			if c < len(row) {
				val = refineCell(f, sheet, r, c, row[c])
			}
			fm.Set(h, val)
		}
		maps = append(maps, fm)
	}
	return maps, nil
}

// refineCell adjusts a formatted cell value for cell types where the row scan
// output differs from the required stringification.
func refineCell(f *excelize.File, sheet string, row, col int, raw string) string {
	axis, err := excelize.CoordinatesToCellName(col+1, row+1)
	if err != nil {
		return raw
	}
	if formula, err := f.GetCellFormula(sheet, axis); err == nil && formula != "" {
		return formula
	}
	if ct, err := f.GetCellType(sheet, axis); err == nil && ct == excelize.CellTypeBool {
		return strings.ToLower(raw)
	}
	return raw
}

// legacyRow is the slice of the legacy workbook row surface that alignment
// needs. Satisfied by *xls.Row.
type legacyRow interface {
	FirstCol() int
	LastCol() int
	Col(int) string
}

// parseXLS reads the first sheet of a legacy Excel workbook.
func parseXLS(data []byte) ([]*FieldMap, error) {
	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, &ParseError{Format: FileTypeXLS, Reason: "invalid workbook", Err: err}
	}

	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, &ParseError{Format: FileTypeXLS, Reason: "file has no sheets"}
	}
	header := sheet.Row(0)
	if header == nil {
		return nil, &ParseError{Format: FileTypeXLS, Reason: "file has no header row"}
	}

	rowAt := func(i int) legacyRow {
		row := sheet.Row(i)
		if row == nil {
			return nil
		}
		return row
	}
	return alignLegacyRows(header, rowAt, int(sheet.MaxRow)), nil
}

// alignLegacyRows zips data rows against the header positionally. Legacy
// sheets are sparse: the header may not start at column zero, so every header
// label keeps its absolute column index and data cells are looked up by that
// index. Cells at or past a row's LastCol pad as empty; nil rows are skipped.
func alignLegacyRows(header legacyRow, rowAt func(int) legacyRow, maxRow int) []*FieldMap {
	var headers []string
	var headerCols []int
	for c := header.FirstCol(); c < header.LastCol(); c++ {
		headers = append(headers, header.Col(c))
		headerCols = append(headerCols, c)
	}

	var maps []*FieldMap
	for r := 1; r <= maxRow; r++ {
		row := rowAt(r)
		if row == nil {
			continue
		}
		fm := NewFieldMap()
		for i, h := range headers {
			val := ""
			if c := headerCols[i]; c < row.LastCol() {
				val = row.Col(c)
			}
			fm.Set(h, val)
		}
		maps = append(maps, fm)
	}
	return maps
}

// parseJSON requires the payload to be an array of objects. Keys keep their
// document order, which a plain map decode would lose, so objects are walked
// at token level. Non-string scalars are stringified; nested values render as
// compact JSON.
func parseJSON(data []byte) ([]*FieldMap, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, &ParseError{Format: FileTypeJSON, Reason: "invalid JSON", Err: err}
	}
	if d, ok := tok.(json.Delim); !ok || d != '[' {
		return nil, &ParseError{Format: FileTypeJSON, Reason: "top-level value must be an array of objects"}
	}

	var maps []*FieldMap
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, &ParseError{Format: FileTypeJSON, Reason: "invalid JSON", Err: err}
		}
		if d, ok := tok.(json.Delim); !ok || d != '{' {
			return nil, &ParseError{Format: FileTypeJSON, Reason: "array elements must be objects"}
		}

		fm := NewFieldMap()
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return nil, &ParseError{Format: FileTypeJSON, Reason: "invalid JSON", Err: err}
			}
			key, ok := keyTok.(string)
			if !ok {
				return nil, &ParseError{Format: FileTypeJSON, Reason: "invalid object key"}
			}
			val, err := stringifyJSONValue(dec)
			if err != nil {
				return nil, &ParseError{Format: FileTypeJSON, Reason: "invalid JSON", Err: err}
			}
			fm.Set(key, val)
		}
		if _, err := dec.Token(); err != nil { // consume '}'
			return nil, &ParseError{Format: FileTypeJSON, Reason: "invalid JSON", Err: err}
		}
		maps = append(maps, fm)
	}
	if _, err := dec.Token(); err != nil { // consume ']'
		return nil, &ParseError{Format: FileTypeJSON, Reason: "invalid JSON", Err: err}
	}
	return maps, nil
}

// stringifyJSONValue consumes the next JSON value from dec and renders it as
// a string. Scalars render bare; objects and arrays render as compact JSON.
func stringifyJSONValue(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", err
	}
	switch v := tok.(type) {
	case string:
		return v, nil
	case json.Number:
		return v.String(), nil
	case bool:
		return strconv.FormatBool(v), nil
	case nil:
		return "", nil
	case json.Delim:
		var b strings.Builder
		if err := renderCompound(dec, v, &b); err != nil {
			return "", err
		}
		return b.String(), nil
	default:
		return "", nil
	}
}

// renderCompound re-renders a nested object or array as compact JSON,
// starting from its already-consumed opening delimiter.
func renderCompound(dec *json.Decoder, open json.Delim, b *strings.Builder) error {
	b.WriteRune(rune(open))
	isObject := open == '{'
	first := true
	for dec.More() {
		if !first {
			b.WriteByte(',')
		}
		first = false
		if isObject {
			keyTok, err := dec.Token()
			if err != nil {
				return err
			}
			key, _ := keyTok.(string)
			b.WriteString(strconv.Quote(key))
			b.WriteByte(':')
		}
		if err := renderValue(dec, b); err != nil {
			return err
		}
	}
	if _, err := dec.Token(); err != nil { // consume closing delimiter
		return err
	}
	if isObject {
		b.WriteByte('}')
	} else {
		b.WriteByte(']')
	}
	return nil
}

// renderValue writes the next JSON value from dec to b in compact form.
func renderValue(dec *json.Decoder, b *strings.Builder) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	switch v := tok.(type) {
	case string:
		b.WriteString(strconv.Quote(v))
	case json.Number:
		b.WriteString(v.String())
	case bool:
		b.WriteString(strconv.FormatBool(v))
	case nil:
		b.WriteString("null")
	case json.Delim:
		return renderCompound(dec, v, b)
	}
	return nil
}

// parseText treats the first line as a header tokenized by tab, comma, or
// pipe, and zips every following line against it the same way CSV does.
func parseText(data []byte) ([]*FieldMap, error) {
	if len(data) == 0 {
		return nil, &ParseError{Format: FileTypeText, Reason: "file is empty"}
	}

	lines := strings.Split(string(data), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	// Trailing blank lines are artifacts of the final newline, not rows.
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	if len(lines) == 0 {
		return nil, &ParseError{Format: FileTypeText, Reason: "file is empty"}
	}

	headers := textDelimiters.Split(lines[0], -1)
	maps := make([]*FieldMap, 0, len(lines)-1)
	for _, line := range lines[1:] {
		values := textDelimiters.Split(line, -1)
		fm := NewFieldMap()
		for i := 0; i < len(headers) && i < len(values); i++ {
			fm.Set(strings.TrimSpace(headers[i]), strings.TrimSpace(values[i]))
		}
		maps = append(maps, fm)
	}
	return maps, nil
}
