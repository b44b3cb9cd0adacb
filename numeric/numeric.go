// Package numeric implements the four-tier promotion lattice §3.2
// requires: Integer ⊆ Rational ⊆ Real, plus arbitrary-precision
// BigInteger reached when Integer arithmetic overflows. The teacher
// (vm.go's Plus/Minus/Times/Div/Mod cases) gets away with a single
// float64 tag; Corvid generalizes that to the full tier set and the
// promotion rules §3.2 specifies.
package numeric

import (
	"fmt"
	"math"
	"math/big"

	"github.com/cockroachdb/apd/v3"
	"github.com/remyoudompheng/bigfft"
)

// Tier identifies which numeric subtype backs a Number.
type Tier uint8

const (
	TierInteger Tier = iota
	TierRational
	TierReal
	TierBigInteger
)

// bigfftThreshold is the operand size (in big.Word limbs) above which
// BigInteger multiplication is routed through bigfft's FFT-based
// multiplier instead of math/big's schoolbook/Karatsuba path. This
// mirrors the threshold bigfft's own doc comment recommends for
// Montgomery-class moduli.
const bigfftThreshold = 40

// Number is a tagged union over the four tiers. Exactly one of the
// typed fields is meaningful, selected by tier.
type Number struct {
	tier Tier
	i    int64
	rat  *big.Rat
	real *apd.Decimal
	big  *big.Int
}

var decimalCtx = apd.BaseContext.WithPrecision(50)

func FromInt64(i int64) Number { return Number{tier: TierInteger, i: i} }

func FromBigInt(b *big.Int) Number {
	if b.IsInt64() {
		return FromInt64(b.Int64())
	}
	return Number{tier: TierBigInteger, big: new(big.Int).Set(b)}
}

func FromRat(r *big.Rat) Number {
	if r.IsInt() {
		return FromBigInt(r.Num())
	}
	return Number{tier: TierRational, rat: new(big.Rat).Set(r)}
}

func FromDecimal(d *apd.Decimal) Number {
	return Number{tier: TierReal, real: new(apd.Decimal).Set(d)}
}

// FromFloat64 constructs a Real from a float64, the natural entry
// point for literals parsed with a decimal point (§4.2).
func FromFloat64(f float64) (Number, error) {
	d := new(apd.Decimal)
	if _, err := d.SetFloat64(f); err != nil {
		return Number{}, fmt.Errorf("numeric: %w", err)
	}
	return FromDecimal(d), nil
}

func (n Number) Tier() Tier { return n.tier }

// IsZero reports whether n is the additive identity of its tier.
func (n Number) IsZero() bool {
	switch n.tier {
	case TierInteger:
		return n.i == 0
	case TierBigInteger:
		return n.big.Sign() == 0
	case TierRational:
		return n.rat.Sign() == 0
	case TierReal:
		return n.real.IsZero()
	}
	return false
}

func (n Number) String() string {
	switch n.tier {
	case TierInteger:
		return fmt.Sprintf("%d", n.i)
	case TierBigInteger:
		return n.big.String()
	case TierRational:
		return n.rat.RatString()
	case TierReal:
		return n.real.Text('f')
	}
	return "#<number?>"
}

// higherTier returns the more general of a and b, following
// Integer ⊆ Rational ⊆ Real; BigInteger ranks between Integer and
// Rational, so mixing a BigInteger with a Rational yields a Rational.
func higherTier(a, b Tier) Tier {
	rank := func(t Tier) int {
		switch t {
		case TierInteger:
			return 0
		case TierBigInteger:
			return 1
		case TierRational:
			return 2
		case TierReal:
			return 3
		}
		return 0
	}
	if rank(a) >= rank(b) {
		return a
	}
	return b
}

func (n Number) toBigInt() *big.Int {
	switch n.tier {
	case TierInteger:
		return big.NewInt(n.i)
	case TierBigInteger:
		return n.big
	}
	panic("numeric: toBigInt on non-integer tier")
}

func (n Number) toRat() *big.Rat {
	switch n.tier {
	case TierInteger:
		return new(big.Rat).SetInt64(n.i)
	case TierBigInteger:
		return new(big.Rat).SetInt(n.big)
	case TierRational:
		return n.rat
	}
	panic("numeric: toRat on non-exact tier")
}

func (n Number) toDecimal() *apd.Decimal {
	switch n.tier {
	case TierInteger:
		return apd.New(n.i, 0)
	case TierBigInteger:
		d := new(apd.Decimal)
		d.Coeff.SetMathBigInt(n.big)
		return d
	case TierRational:
		num := new(apd.Decimal)
		num.Coeff.SetMathBigInt(n.rat.Num())
		den := new(apd.Decimal)
		den.Coeff.SetMathBigInt(n.rat.Denom())
		result := new(apd.Decimal)
		decimalCtx.Quo(result, num, den)
		return result
	case TierReal:
		return n.real
	}
	panic("numeric: unreachable")
}

// promote brings both operands to the same, higher of their two
// tiers so arithmetic can proceed in one representation, per §3.2's
// promotion lattice.
func promote(a, b Number) Tier { return higherTier(a.tier, b.tier) }

func bigMul(a, b *big.Int) *big.Int {
	if len(a.Bits()) >= bigfftThreshold && len(b.Bits()) >= bigfftThreshold {
		return bigfft.Mul(a, b)
	}
	return new(big.Int).Mul(a, b)
}

// Add implements the `+` trait for any pair of tiers.
func (a Number) Add(b Number) (Number, error) {
	switch promote(a, b) {
	case TierInteger:
		sum := a.i + b.i
		if (b.i > 0 && sum < a.i) || (b.i < 0 && sum > a.i) {
			return FromBigInt(new(big.Int).Add(big.NewInt(a.i), big.NewInt(b.i))), nil
		}
		return FromInt64(sum), nil
	case TierBigInteger:
		return FromBigInt(new(big.Int).Add(a.toBigInt(), b.toBigInt())), nil
	case TierRational:
		return FromRat(new(big.Rat).Add(a.toRat(), b.toRat())), nil
	default:
		var result apd.Decimal
		if _, err := decimalCtx.Add(&result, a.toDecimal(), b.toDecimal()); err != nil {
			return Number{}, err
		}
		return FromDecimal(&result), nil
	}
}

// Sub implements the `-` trait.
func (a Number) Sub(b Number) (Number, error) {
	switch promote(a, b) {
	case TierInteger:
		diff := a.i - b.i
		if (b.i < 0 && diff < a.i) || (b.i > 0 && diff > a.i) {
			return FromBigInt(new(big.Int).Sub(big.NewInt(a.i), big.NewInt(b.i))), nil
		}
		return FromInt64(diff), nil
	case TierBigInteger:
		return FromBigInt(new(big.Int).Sub(a.toBigInt(), b.toBigInt())), nil
	case TierRational:
		return FromRat(new(big.Rat).Sub(a.toRat(), b.toRat())), nil
	default:
		var result apd.Decimal
		if _, err := decimalCtx.Sub(&result, a.toDecimal(), b.toDecimal()); err != nil {
			return Number{}, err
		}
		return FromDecimal(&result), nil
	}
}

// Mul implements the `*` trait. BigInteger multiplication above
// bigfftThreshold limbs is routed through bigfft.
func (a Number) Mul(b Number) (Number, error) {
	switch promote(a, b) {
	case TierInteger:
		if prod, ok := mulInt64(a.i, b.i); ok {
			return FromInt64(prod), nil
		}
		return FromBigInt(bigMul(big.NewInt(a.i), big.NewInt(b.i))), nil
	case TierBigInteger:
		return FromBigInt(bigMul(a.toBigInt(), b.toBigInt())), nil
	case TierRational:
		return FromRat(new(big.Rat).Mul(a.toRat(), b.toRat())), nil
	default:
		var result apd.Decimal
		if _, err := decimalCtx.Mul(&result, a.toDecimal(), b.toDecimal()); err != nil {
			return Number{}, err
		}
		return FromDecimal(&result), nil
	}
}

func mulInt64(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	p := a * b
	if p/b != a {
		return 0, false
	}
	return p, true
}

// Div implements the `/` trait. Division of two Integers producing a
// non-integer result yields a Rational (§3.2).
func (a Number) Div(b Number) (Number, error) {
	if b.IsZero() {
		return Number{}, fmt.Errorf("numeric: division by zero")
	}
	switch promote(a, b) {
	case TierInteger, TierBigInteger, TierRational:
		return FromRat(new(big.Rat).Quo(a.toRat(), b.toRat())), nil
	default:
		var result apd.Decimal
		if _, err := decimalCtx.Quo(&result, a.toDecimal(), b.toDecimal()); err != nil {
			return Number{}, err
		}
		return FromDecimal(&result), nil
	}
}

// Compare returns -1, 0 or 1 per the usual convention, implementing
// the shared backbone for =, <, <=, >, >=.
func (a Number) Compare(b Number) (int, error) {
	switch promote(a, b) {
	case TierInteger:
		switch {
		case a.i < b.i:
			return -1, nil
		case a.i > b.i:
			return 1, nil
		default:
			return 0, nil
		}
	case TierBigInteger:
		return a.toBigInt().Cmp(b.toBigInt()), nil
	case TierRational:
		return a.toRat().Cmp(b.toRat()), nil
	default:
		return a.toDecimal().Cmp(b.toDecimal()), nil
	}
}

func (a Number) Eq(b Number) bool { c, err := a.Compare(b); return err == nil && c == 0 }
func (a Number) Lt(b Number) bool { c, err := a.Compare(b); return err == nil && c < 0 }
func (a Number) Le(b Number) bool { c, err := a.Compare(b); return err == nil && c <= 0 }
func (a Number) Gt(b Number) bool { c, err := a.Compare(b); return err == nil && c > 0 }
func (a Number) Ge(b Number) bool { c, err := a.Compare(b); return err == nil && c >= 0 }

// Float64 converts n to the nearest representable float64, for
// interop with host code that needs one (e.g. formatting, math/big
// use sites). It is lossy for Rational/BigInteger/Real tiers outside
// float64's range or precision.
func (n Number) Float64() float64 {
	switch n.tier {
	case TierInteger:
		return float64(n.i)
	case TierBigInteger:
		f := new(big.Float).SetInt(n.big)
		v, _ := f.Float64()
		return v
	case TierRational:
		f, _ := n.rat.Float64()
		return f
	case TierReal:
		f, _ := n.real.Float64()
		return f
	}
	return math.NaN()
}
