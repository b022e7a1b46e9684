package ingest

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Record is one normalized row: the raw field map plus best-effort canonical
// attributes inferred from it. Nil/empty attributes mean "not inferred".
type Record struct {
	Fields      *FieldMap
	Date        *time.Time
	Amount      *decimal.Decimal
	Description string
	Category    string
	Account     string
}

// Keyword sets for attribute inference. A key matches when its lowercase form
// contains any listed substring.
var (
	amountKeywords      = []string{"amount", "value", "price", "balance"}
	descriptionKeywords = []string{"description", "note", "memo"}
	categoryKeywords    = []string{"category", "type"}
)

// dateLayouts is the parse cascade, tried in order. The first layout that
// parses the trimmed string wins. Both ISO variants of the source cascade
// collapse to the single 2006-01-02 layout.
var dateLayouts = []string{
	"2006-01-02", // ISO
	"01/02/2006", // US
	"02/01/2006", // EU
	"01-02-2006",
}

// amountJunk matches every character that is not part of a decimal number.
var amountJunk = regexp.MustCompile(`[^0-9.\-]`)

// Normalize projects a raw field map onto a Record. It never fails: each
// attribute is inferred independently and a value that cannot be parsed
// simply leaves the attribute as it was. Fields are scanned in source column
// order and a later match overwrites an earlier one.
func Normalize(fields *FieldMap) Record {
	rec := Record{Fields: fields}

	fields.Each(func(key, value string) {
		k := strings.ToLower(key)

		if strings.Contains(k, "date") {
			if d, err := parseDate(value); err == nil {
				rec.Date = d
			}
		}
		if containsAny(k, amountKeywords) {
			if a, err := parseAmount(value); err == nil {
				rec.Amount = a
			}
		}
		if containsAny(k, descriptionKeywords) {
			rec.Description = value
		}
		if containsAny(k, categoryKeywords) {
			rec.Category = value
		}
		if strings.Contains(k, "account") {
			rec.Account = value
		}
	})

	return rec
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// parseDate runs the layout cascade over the trimmed value. An empty value
// yields (nil, nil): the attribute is explicitly cleared, not skipped. A
// non-empty value that matches no layout is a local failure.
func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	trimmed := strings.TrimSpace(s)
	var lastErr error
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, trimmed)
		if err == nil {
			return &t, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

// parseAmount strips everything that is not a digit, dot, or minus sign and
// parses the remainder as an arbitrary-precision decimal. A value that is
// empty before or after stripping clears the attribute; a malformed decimal
// (multiple dots or signs) is a local failure.
func parseAmount(s string) (*decimal.Decimal, error) {
	if s == "" {
		return nil, nil
	}
	cleaned := strings.TrimSpace(amountJunk.ReplaceAllString(s, ""))
	if cleaned == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
