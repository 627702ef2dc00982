package pricing

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Money represents a monetary value stored in minor units.
type Money = int64

// Item describes a line item used for pricing calculation.
type Item struct {
	Qty       int
	UnitPrice Money
}

// Summary aggregates computed pricing components.
type Summary struct {
	Subtotal Money
	Units    int
}

// Compute sums the line subtotals and unit counts. Items with a non-positive
// quantity never contribute.
func Compute(items []Item) Summary {
	var out Summary
	for _, it := range items {
		if it.Qty <= 0 {
			continue
		}
		out.Subtotal += Money(it.Qty) * it.UnitPrice
		out.Units += it.Qty
	}
	return out
}

// Format renders minor units as a fixed two-decimal string, e.g. 89997 -> "899.97".
func Format(m Money) string {
	sign := ""
	if m < 0 {
		sign = "-"
		m = -m
	}
	return fmt.Sprintf("%s%d.%02d", sign, m/100, m%100)
}

// Parse converts a decimal string with at most two fractional digits into
// minor units. Only an optional leading "-" and ASCII digits are accepted.
func Parse(value string) (Money, error) {
	raw := strings.TrimSpace(value)
	neg := false
	if strings.HasPrefix(raw, "-") {
		neg = true
		raw = raw[1:]
	}
	if raw == "" {
		return 0, fmt.Errorf("pricing: invalid amount %q", value)
	}
	whole, frac, hasFrac := strings.Cut(raw, ".")
	if hasFrac && (len(frac) == 0 || len(frac) > 2) {
		return 0, fmt.Errorf("pricing: invalid amount %q", value)
	}
	if !digits(whole) || !digits(frac) {
		return 0, fmt.Errorf("pricing: invalid amount %q", value)
	}
	if whole == "" {
		whole = "0"
	}
	frac += strings.Repeat("0", 2-len(frac))
	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil || units > (math.MaxInt64-99)/100 {
		return 0, fmt.Errorf("pricing: amount %q out of range", value)
	}
	cents, _ := strconv.ParseInt(frac, 10, 64)
	total := units*100 + cents
	if neg {
		total = -total
	}
	return total, nil
}

func digits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
