package decimal

import (
	"encoding/json"
	"errors"
	"math/big"
	"regexp"
	"strings"
)

var (
	ErrInvalidDecimal = errors.New("invalid decimal")
	ErrNotWhole       = errors.New("value is not a whole number of units")
	ErrNegative       = errors.New("value is negative")
	ErrOverflow       = errors.New("value overflows 64 bits")
)

// Decimal is an exact decimal amount. Amounts are stored on chain as integer
// units; Exponent is the number of decimal places between the display unit
// and the integer unit (8 for BTC -> satoshi, 12 for XMR -> piconero).
type Decimal struct {
	Value *big.Rat
}

var plainDecimal = regexp.MustCompile(`^-?\d+(\.\d+)?$`)

func pow10(exponent uint) (p *big.Int) {
	return big.NewInt(0).Exp(big.NewInt(10), big.NewInt(int64(exponent)), nil)
}

// FromString parses plain decimal notation: digits with an optional fraction.
// Exponents, ratios and prefixes are rejected.
func (d *Decimal) FromString(s string) (err error) {
	s = strings.TrimSpace(s)
	if !plainDecimal.MatchString(s) {
		return ErrInvalidDecimal
	}

	value, ok := big.NewRat(0, 1).SetString(s)
	if !ok {
		return ErrInvalidDecimal
	}
	d.Value = value
	return nil
}

func (d *Decimal) FromUnits(v uint64, exponent uint) {
	d.Value = big.NewRat(0, 1).SetFrac(big.NewInt(0).SetUint64(v), pow10(exponent))
}

// ToUnits scales the decimal to integer units
func (d *Decimal) ToUnits(exponent uint) (v uint64, err error) {
	if d.Value == nil {
		return 0, ErrInvalidDecimal
	}
	if d.Value.Sign() < 0 {
		return 0, ErrNegative
	}

	scaled := big.NewRat(0, 1).Mul(d.Value, big.NewRat(0, 1).SetInt(pow10(exponent)))
	if !scaled.IsInt() {
		return 0, ErrNotWhole
	}

	asInt := scaled.Num()
	if !asInt.IsUint64() {
		return 0, ErrOverflow
	}
	return asInt.Uint64(), nil
}

func (d *Decimal) Sign() (sign int) {
	if d.Value == nil {
		return 0
	}
	return d.Value.Sign()
}

// Text renders the value with exactly `places` decimals
func (d *Decimal) Text(places int) (s string) {
	if d.Value == nil {
		return big.NewRat(0, 1).FloatString(places)
	}
	return d.Value.FloatString(places)
}

var (
	_ json.Unmarshaler = (*Decimal)(nil)
	_ json.Marshaler   = (*Decimal)(nil)
)

func (d *Decimal) UnmarshalJSON(b []byte) (err error) {
	var asString string
	err = json.Unmarshal(b, &asString)
	if err != nil {
		return err
	}

	return d.FromString(asString)
}

func (d *Decimal) MarshalJSON() (b []byte, err error) {
	if d.Value == nil {
		return []byte(`"0"`), nil
	}
	return json.Marshal(strings.TrimRight(strings.TrimRight(d.Value.FloatString(18), "0"), "."))
}
