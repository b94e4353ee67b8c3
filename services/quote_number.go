package services

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pocketbase/pocketbase/core"
)

// QuoteNumberPrefix starts every generated quote number.
const QuoteNumberPrefix = "ТКП"

// FormatQuoteNumber constructs the quote number from its sequence.
// 61 → "ТКП00061"
func FormatQuoteNumber(seq int) string {
	return fmt.Sprintf("%s%05d", QuoteNumberPrefix, seq)
}

// ParseQuoteNumber returns the sequence of a generated number. Numbers typed
// by hand in another shape report false.
func ParseQuoteNumber(number string) (int, bool) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(number), QuoteNumberPrefix)
	if !ok || rest == "" {
		return 0, false
	}
	seq, err := strconv.Atoi(rest)
	if err != nil || seq < 0 {
		return 0, false
	}
	return seq, true
}

// NextQuoteNumber returns the number following the highest archived one.
// Sequences start after base, so with base 60 the first quote is ТКП00061.
func NextQuoteNumber(app core.App, base int) (string, error) {
	records, err := app.FindAllRecords("quotes")
	if err != nil {
		return "", Resource("list quotes", err).WithOp("next quote number")
	}

	highest := base
	for _, r := range records {
		if seq, ok := ParseQuoteNumber(r.GetString("number")); ok && seq > highest {
			highest = seq
		}
	}
	return FormatQuoteNumber(highest + 1), nil
}
