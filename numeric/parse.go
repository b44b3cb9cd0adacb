package numeric

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

// Parse turns decimal-radix number text (as classified by the lexer)
// into a Number at the appropriate tier: an integer literal becomes
// Integer (or BigInteger if it overflows int64), an "n/d" literal
// becomes Rational, and anything with a decimal point becomes Real.
func Parse(text string) (Number, error) {
	if idx := strings.IndexByte(text, '/'); idx >= 0 {
		num, ok := new(big.Int).SetString(text[:idx], 10)
		if !ok {
			return Number{}, fmt.Errorf("numeric: bad rational numerator %q", text)
		}
		den, ok := new(big.Int).SetString(text[idx+1:], 10)
		if !ok || den.Sign() == 0 {
			return Number{}, fmt.Errorf("numeric: bad rational denominator %q", text)
		}
		return FromRat(new(big.Rat).SetFrac(num, den)), nil
	}
	if strings.ContainsAny(text, ".eE") && !isJustSignAndDigits(text) {
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return Number{}, fmt.Errorf("numeric: bad real literal %q: %w", text, err)
		}
		return FromFloat64(f)
	}
	if i, err := strconv.ParseInt(text, 10, 64); err == nil {
		return FromInt64(i), nil
	}
	b, ok := new(big.Int).SetString(text, 10)
	if !ok {
		return Number{}, fmt.Errorf("numeric: not a number %q", text)
	}
	return FromBigInt(b), nil
}

func isJustSignAndDigits(text string) bool {
	for i, r := range text {
		if r == '+' || r == '-' {
			if i != 0 {
				return false
			}
			continue
		}
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ParseWithPrefix handles a lexer token that begins with a radix
// (#b/#o/#d/#x) or exactness (#e/#i) marker, per R7RS number syntax.
// Only one level of prefix is supported, which covers every literal
// the lexer actually forwards this way.
func ParseWithPrefix(text string) (Number, error) {
	if len(text) < 2 || text[0] != '#' {
		return Number{}, fmt.Errorf("numeric: malformed prefixed literal %q", text)
	}
	marker := text[1]
	rest := text[2:]
	switch marker {
	case 'b':
		return parseRadix(rest, 2)
	case 'o':
		return parseRadix(rest, 8)
	case 'd':
		return Parse(rest)
	case 'x':
		return parseRadix(rest, 16)
	case 'e':
		n, err := Parse(rest)
		if err != nil {
			return Number{}, err
		}
		if n.Tier() == TierReal {
			return FromRat(new(big.Rat).SetFloat64(n.Float64())), nil
		}
		return n, nil
	case 'i':
		n, err := Parse(rest)
		if err != nil {
			return Number{}, err
		}
		return FromFloat64(n.Float64())
	}
	return Number{}, fmt.Errorf("numeric: unknown numeric prefix %q", text)
}

func parseRadix(text string, base int) (Number, error) {
	b, ok := new(big.Int).SetString(text, base)
	if !ok {
		return Number{}, fmt.Errorf("numeric: bad base-%d literal %q", base, text)
	}
	return FromBigInt(b), nil
}
