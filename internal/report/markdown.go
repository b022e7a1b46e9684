// Package report renders normalized financial records as markdown.
//
// The layout mirrors what downstream consumers expect: a title block, a
// summary table with amount/date statistics and a category breakdown, a
// capped tabular view of the raw columns, and a per-record detail section.
// Every value that lands inside a table cell is escaped so embedded pipes or
// line breaks cannot break the table structure.
package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/fin2md/fin2md/internal/ingest"
)

const dateFormat = "2006-01-02"

// maxTableColumns caps the tabular view. Columns are chosen by sorting all
// distinct field labels and taking the first maxTableColumns, so wide
// datasets lose columns deterministically (by sort order).
const maxTableColumns = 10

var cellEscaper = strings.NewReplacer("|", "\\|", "\n", " ", "\r", " ")

// Render produces the markdown report for a single-source record list.
func Render(records []ingest.Record, source string) string {
	if len(records) == 0 {
		return renderEmpty(source)
	}

	var b strings.Builder
	b.WriteString("# Financial Data Report\n\n")
	fmt.Fprintf(&b, "**Source File:** %s\n\n", source)
	fmt.Fprintf(&b, "**Total Records:** %d\n\n", len(records))
	b.WriteString("---\n\n")

	b.WriteString("## Summary\n\n")
	writeSummary(&b, records)
	b.WriteString("\n---\n\n")

	b.WriteString("## Financial Records\n\n")
	writeTable(&b, records)
	b.WriteString("\n")

	b.WriteString("## Detailed Records\n\n")
	for i, rec := range records {
		writeRecordDetails(&b, rec, i+1)
		b.WriteString("\n")
	}

	return b.String()
}

// RenderArchive produces the markdown report for an archive: a contents
// ledger, then the combined summary and table over all aggregated records.
func RenderArchive(result *ingest.ArchiveResult, source string) string {
	var b strings.Builder
	b.WriteString("# Financial Data Report - ZIP Archive\n\n")
	fmt.Fprintf(&b, "**Source ZIP File:** %s\n\n", source)
	fmt.Fprintf(&b, "**Total Files in Archive:** %d\n\n", result.TotalFiles)
	fmt.Fprintf(&b, "**Successfully Processed:** %d\n\n", result.ProcessedFiles)
	fmt.Fprintf(&b, "**Total Records:** %d\n\n", len(result.Records))
	b.WriteString("---\n\n")

	b.WriteString("## ZIP Archive Contents\n\n")
	b.WriteString("| File Name | Type | Records | Status |\n")
	b.WriteString("|-----------|------|---------|--------|\n")
	for _, entry := range result.Entries {
		status := "✓ Success"
		if !entry.Processed {
			status = "✗ Failed"
		}
		if entry.ErrorMessage != "" {
			status += " (" + escape(entry.ErrorMessage) + ")"
		}
		typ := entry.FileType
		if typ == "" {
			typ = "Unknown"
		}
		fmt.Fprintf(&b, "| %s | %s | %d | %s |\n",
			escape(entry.Filename), escape(typ), entry.RecordCount, status)
	}
	b.WriteString("\n---\n\n")

	if len(result.Records) > 0 {
		b.WriteString("## Combined Summary\n\n")
		writeSummary(&b, result.Records)
		b.WriteString("\n---\n\n")

		b.WriteString("## All Financial Records\n\n")
		writeTable(&b, result.Records)
		b.WriteString("\n---\n\n")

		b.WriteString("## Records by File\n\n")
		for _, entry := range result.Entries {
			if entry.Processed && entry.RecordCount > 0 {
				fmt.Fprintf(&b, "### File: %s (%d records)\n\n", escape(entry.Filename), entry.RecordCount)
				b.WriteString("_Records from this file are included in the combined table above._\n\n")
			}
		}
	} else {
		b.WriteString("## No Records Processed\n\n")
		b.WriteString("No financial data records were successfully extracted from the ZIP archive.\n\n")
	}

	return b.String()
}

func renderEmpty(source string) string {
	var b strings.Builder
	b.WriteString("# Financial Data Report\n\n")
	fmt.Fprintf(&b, "**Source File:** %s\n\n", source)
	b.WriteString("**Status:** No records found in the file.\n\n")
	return b.String()
}

func writeSummary(b *strings.Builder, records []ingest.Record) {
	total := decimal.Zero
	withAmount := 0
	withDate := 0
	for _, rec := range records {
		if rec.Amount != nil {
			total = total.Add(*rec.Amount)
			withAmount++
		}
		if rec.Date != nil {
			withDate++
		}
	}

	b.WriteString("| Metric | Value |\n")
	b.WriteString("|--------|-------|\n")
	fmt.Fprintf(b, "| Total Records | %d |\n", len(records))
	fmt.Fprintf(b, "| Records with Amount | %d |\n", withAmount)
	fmt.Fprintf(b, "| Records with Date | %d |\n", withDate)

	if !total.IsZero() {
		fmt.Fprintf(b, "| Total Amount | %s |\n", formatCurrency(total))
		average := total.DivRound(decimal.NewFromInt(int64(withAmount)), 2)
		fmt.Fprintf(b, "| Average Amount | %s |\n", formatCurrency(average))
	}

	writeCategoryBreakdown(b, records)
}

// writeCategoryBreakdown appends the category frequency table, sorted by
// count descending. Equal counts keep first-encountered order.
func writeCategoryBreakdown(b *strings.Builder, records []ingest.Record) {
	counts := make(map[string]int)
	var order []string
	for _, rec := range records {
		if rec.Category == "" {
			continue
		}
		if _, seen := counts[rec.Category]; !seen {
			order = append(order, rec.Category)
		}
		counts[rec.Category]++
	}
	if len(order) == 0 {
		return
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})

	b.WriteString("\n### Categories\n\n")
	b.WriteString("| Category | Count |\n")
	b.WriteString("|----------|-------|\n")
	for _, cat := range order {
		fmt.Fprintf(b, "| %s | %d |\n", escape(cat), counts[cat])
	}
}

func writeTable(b *strings.Builder, records []ingest.Record) {
	if len(records) == 0 {
		b.WriteString("No records available.\n")
		return
	}

	display := tableColumns(records)

	b.WriteString("| # | ")
	for _, field := range display {
		b.WriteString(escape(field))
		b.WriteString(" | ")
	}
	b.WriteString("\n|")
	for i := 0; i <= len(display); i++ {
		b.WriteString("---|")
	}
	b.WriteString("\n")

	for i, rec := range records {
		fmt.Fprintf(b, "| %d | ", i+1)
		for _, field := range display {
			b.WriteString(escape(cellValue(rec, field)))
			b.WriteString(" | ")
		}
		b.WriteString("\n")
	}
}

// tableColumns picks the displayed columns: the lexicographically first
// maxTableColumns distinct labels, with a date-like column prepended and an
// amount-like column appended when they exist and were not already chosen.
func tableColumns(records []ingest.Record) []string {
	seen := make(map[string]struct{})
	var fields []string
	for _, rec := range records {
		for _, key := range rec.Fields.Keys() {
			if _, ok := seen[key]; !ok {
				seen[key] = struct{}{}
				fields = append(fields, key)
			}
		}
	}
	sort.Strings(fields)

	display := fields
	if len(display) > maxTableColumns {
		display = display[:maxTableColumns]
	}
	display = append([]string(nil), display...)

	included := make(map[string]struct{}, len(display))
	for _, f := range display {
		included[f] = struct{}{}
	}

	if f, ok := firstContaining(fields, "date"); ok {
		if _, already := included[f]; !already {
			display = append([]string{f}, display...)
			included[f] = struct{}{}
		}
	}
	if f, ok := firstContaining(fields, "amount"); ok {
		if _, already := included[f]; !already {
			display = append(display, f)
		}
	}
	return display
}

func firstContaining(fields []string, sub string) (string, bool) {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), sub) {
			return f, true
		}
	}
	return "", false
}

// cellValue prefers the canonical inferred value for date- and amount-named
// columns; everything else renders the raw string.
func cellValue(rec ingest.Record, field string) string {
	raw, _ := rec.Fields.Get(field)
	lower := strings.ToLower(field)
	if strings.Contains(lower, "date") && rec.Date != nil {
		return rec.Date.Format(dateFormat)
	}
	if strings.Contains(lower, "amount") && rec.Amount != nil {
		return formatCurrency(*rec.Amount)
	}
	return raw
}

func writeRecordDetails(b *strings.Builder, rec ingest.Record, index int) {
	fmt.Fprintf(b, "### Record #%d\n\n", index)

	if rec.Date != nil {
		fmt.Fprintf(b, "- **Date:** %s\n", rec.Date.Format(dateFormat))
	}
	if rec.Amount != nil {
		fmt.Fprintf(b, "- **Amount:** %s\n", formatCurrency(*rec.Amount))
	}
	if rec.Description != "" {
		fmt.Fprintf(b, "- **Description:** %s\n", escape(rec.Description))
	}
	if rec.Category != "" {
		fmt.Fprintf(b, "- **Category:** %s\n", escape(rec.Category))
	}
	if rec.Account != "" {
		fmt.Fprintf(b, "- **Account:** %s\n", escape(rec.Account))
	}

	if rec.Fields.Len() > 0 {
		b.WriteString("\n**All Fields:**\n\n")
		b.WriteString("| Field | Value |\n")
		b.WriteString("|-------|-------|\n")

		keys := append([]string(nil), rec.Fields.Keys()...)
		sort.Strings(keys)
		for _, key := range keys {
			value, _ := rec.Fields.Get(key)
			fmt.Fprintf(b, "| %s | %s |\n", escape(key), escape(value))
		}
	}
}

// formatCurrency renders an amount as $-prefixed with thousands separators
// and two decimal places, e.g. $1,234.56 or $-42.00.
func formatCurrency(d decimal.Decimal) string {
	fixed := d.StringFixed(2)

	sign := ""
	if strings.HasPrefix(fixed, "-") {
		sign = "-"
		fixed = fixed[1:]
	}

	intPart := fixed[:len(fixed)-3]
	fracPart := fixed[len(fixed)-3:]

	var grouped strings.Builder
	for i, digit := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			grouped.WriteByte(',')
		}
		grouped.WriteRune(digit)
	}

	return "$" + sign + grouped.String() + fracPart
}

func escape(s string) string {
	return cellEscaper.Replace(s)
}
