package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// AmountFromString parses decimal text like "123.45" or "-0.5" into raw
// share units at this asset's precision. The grammar is an optional sign, an
// integer part, and an optional fraction whose digit count must not exceed
// the precision. Scientific notation and grouping separators are rejected.
func (a *Asset) AmountFromString(text string) (int64, error) {
	s := text
	neg := false
	if len(s) > 0 && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}

	intPart, fracPart, hasDot := strings.Cut(s, ".")
	if intPart == "" || !allDigits(intPart) {
		return 0, fmt.Errorf("%w: %q", ErrMalformedAmount, text)
	}
	if hasDot && (fracPart == "" || !allDigits(fracPart)) {
		return 0, fmt.Errorf("%w: %q", ErrMalformedAmount, text)
	}
	if len(fracPart) > int(a.Precision) {
		return 0, fmt.Errorf("%w: %q has %d fractional digits, precision is %d",
			ErrPrecisionOverflow, text, len(fracPart), a.Precision)
	}

	// The syntax is already validated; decimal does the exact scaling.
	d, err := decimal.NewFromString(intPart + "." + padRight(fracPart, int(a.Precision)))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrMalformedAmount, text)
	}
	scaled := d.Shift(int32(a.Precision))
	if !scaled.IsInteger() || scaled.Cmp(decimal.NewFromInt(MaxShareSupply)) > 0 {
		return 0, fmt.Errorf("%w: %q exceeds maximum share supply", ErrPrecisionOverflow, text)
	}
	amount := scaled.IntPart()
	if neg {
		amount = -amount
	}
	return amount, nil
}

// AmountToString renders raw share units as decimal text at this asset's
// precision. A whole amount prints without a decimal point; a fractional
// amount prints the full precision including trailing zeros, so the text
// round-trips through AmountFromString exactly.
func (a *Asset) AmountToString(amount int64) string {
	scale := int64(1)
	for i := uint8(0); i < a.Precision; i++ {
		scale *= 10
	}

	neg := amount < 0
	abs := amount
	if neg {
		abs = -abs
	}

	whole := abs / scale
	frac := abs % scale

	var sb strings.Builder
	if neg {
		sb.WriteByte('-')
	}
	fmt.Fprintf(&sb, "%d", whole)
	if frac != 0 {
		fmt.Fprintf(&sb, ".%0*d", int(a.Precision), frac)
	}
	return sb.String()
}

// AmountToPrettyString renders the amount followed by the ticker symbol,
// e.g. "123.45 USD".
func (a *Asset) AmountToPrettyString(amount int64) string {
	return a.AmountToString(amount) + " " + a.Symbol
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) {
			return false
		}
	}
	return true
}

func padRight(s string, width int) string {
	if width == 0 {
		return "0"
	}
	return s + strings.Repeat("0", width-len(s))
}
