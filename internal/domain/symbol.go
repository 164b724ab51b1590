package domain

// Symbol length bounds for ticker symbols.
const (
	MinSymbolLength = 3
	MaxSymbolLength = 16
)

// IsValidSymbol reports whether s is a syntactically legal ticker symbol:
// 3 to 16 characters, starting with an uppercase letter, ending with an
// uppercase letter or digit, with uppercase letters, digits and single dots
// in between. It does not check uniqueness; the by-symbol index enforces
// that at insertion time.
func IsValidSymbol(s string) bool {
	if len(s) < MinSymbolLength || len(s) > MaxSymbolLength {
		return false
	}
	if s[0] < 'A' || s[0] > 'Z' {
		return false
	}
	last := s[len(s)-1]
	if !isUpper(last) && !isDigit(last) {
		return false
	}
	prevDot := false
	for i := 1; i < len(s)-1; i++ {
		c := s[i]
		switch {
		case c == '.':
			if prevDot {
				return false
			}
			prevDot = true
		case isUpper(c) || isDigit(c):
			prevDot = false
		default:
			return false
		}
	}
	return true
}

func isUpper(c byte) bool { return c >= 'A' && c <= 'Z' }
func isDigit(c byte) bool { return c >= '0' && c <= '9' }
