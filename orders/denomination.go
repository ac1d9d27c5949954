package orders

import (
	"fmt"
	"strings"
)

// Denomination tells in which unit the requested amount is expressed
type Denomination string

const (
	DenominationSatoshi  Denomination = "satoshi"
	DenominationBit      Denomination = "bit"
	DenominationMillibit Denomination = "mbtc"
	DenominationBtc      Denomination = "btc"

	DefaultDenomination = DenominationSatoshi
)

var exponents = map[Denomination]uint{
	DenominationSatoshi:  0,
	DenominationBit:      2,
	DenominationMillibit: 5,
	DenominationBtc:      8,
}

// ParseDenomination is case insensitive. Empty means DefaultDenomination
func ParseDenomination(raw string) (d Denomination, err error) {
	if raw == "" {
		return DefaultDenomination, nil
	}

	d = Denomination(strings.ToLower(strings.TrimSpace(raw)))
	if _, found := exponents[d]; !found {
		return d, fmt.Errorf("unknown denomination %q", raw)
	}
	return d, nil
}

// Exponent is the number of decimals between this unit and the smallest one
func (d Denomination) Exponent() (exponent uint) {
	return exponents[d]
}
