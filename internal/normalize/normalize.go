// Package normalize holds the numeric, date and currency conversions shared
// by the extractors and the spreadsheet engine. Vinted notification emails
// are French-localized: decimal commas, dd/mm/yyyy dates, French month names
// in tab titles.
package normalize

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// French month names, lowercase, as they appear in spreadsheet tab titles.
// Tab lookup is literal string equality so these must never change.
var frenchMonths = [12]string{
	"janvier", "février", "mars", "avril", "mai", "juin",
	"juillet", "août", "septembre", "octobre", "novembre", "décembre",
}

// Layouts tried in order when parsing a date captured from an email body.
var recordDateLayouts = []string{
	"2006-01-02 15:04",
	"2006-01-02",
	"02/01/2006",
}

// ToDecimal parses a localized decimal string ("12,50") into a decimal.
// Absent input (empty string) yields an invalid NullDecimal, never zero.
func ToDecimal(s string) decimal.NullDecimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", "."))
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: d, Valid: true}
}

// MonthLabel formats a date as the tab title convention, e.g. "janvier 2024".
func MonthLabel(t time.Time) string {
	return fmt.Sprintf("%s %d", frenchMonths[t.Month()-1], t.Year())
}

// ParseRecordDate parses a date string captured from an email body, trying
// each known layout in order. ok is false when no layout matches.
func ParseRecordDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range recordDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatEpochMillis formats a Gmail internalDate value (epoch milliseconds
// as a decimal string) as "2006-01-02 15:04" in the given zone.
func FormatEpochMillis(ms string, loc *time.Location) string {
	n, err := strconv.ParseInt(strings.TrimSpace(ms), 10, 64)
	if err != nil {
		return ""
	}
	return time.UnixMilli(n).In(loc).Format("2006-01-02 15:04")
}

// NetShipping computes shipping minus discount from their localized string
// forms, rounded to 2 decimals. The output decimal separator is a deployment
// convention: tabs created by older runs hold comma-separated values and new
// rows must match whatever the target spreadsheet already uses, so the choice
// is explicit here and never unified silently.
//
// Returns "" when the shipping fee itself is absent; an absent discount
// counts as zero.
func NetShipping(shipping, discount string, commaSeparator bool) string {
	fee := ToDecimal(shipping)
	if !fee.Valid {
		return ""
	}
	net := fee.Decimal
	if d := ToDecimal(discount); d.Valid {
		net = net.Sub(d.Decimal)
	}
	out := net.Round(2).StringFixed(2)
	if commaSeparator {
		out = strings.ReplaceAll(out, ".", ",")
	}
	return out
}
