// Package amount owns the conversion boundary between decimal-ETH strings
// and base-unit (wei) integers. All arithmetic elsewhere in the codebase
// happens on base units; decimal strings exist only for display and input.
package amount

import (
	"fmt"
	"math/big"
	"strings"
)

// Decimals is the number of base-unit digits per whole native token.
const Decimals = 18

var unit = new(big.Int).Exp(big.NewInt(10), big.NewInt(Decimals), nil)

// ToBase converts a decimal-ETH string ("1.5") to base units. At most
// Decimals fractional digits are accepted; no rounding ever happens here.
func ToBase(dec string) (*big.Int, error) {
	s := strings.TrimSpace(dec)
	if s == "" {
		return nil, fmt.Errorf("empty amount")
	}
	if strings.HasPrefix(s, "-") {
		return nil, fmt.Errorf("negative amount %q", dec)
	}

	whole, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		whole, frac = s[:i], s[i+1:]
		if frac == "" {
			return nil, fmt.Errorf("missing fractional digits in %q", dec)
		}
		if strings.IndexByte(frac, '.') >= 0 {
			return nil, fmt.Errorf("malformed amount %q", dec)
		}
	}
	if whole == "" {
		whole = "0"
	}
	if len(frac) > Decimals {
		return nil, fmt.Errorf("amount %q exceeds %d fractional digits", dec, Decimals)
	}

	wholeInt, ok := new(big.Int).SetString(whole, 10)
	if !ok {
		return nil, fmt.Errorf("malformed amount %q", dec)
	}

	result := new(big.Int).Mul(wholeInt, unit)
	if frac != "" {
		// Right-pad the fraction to Decimals digits before parsing.
		padded := frac + strings.Repeat("0", Decimals-len(frac))
		fracInt, ok := new(big.Int).SetString(padded, 10)
		if !ok {
			return nil, fmt.Errorf("malformed amount %q", dec)
		}
		result.Add(result, fracInt)
	}
	return result, nil
}

// FromBase converts base units back to a canonical decimal-ETH string:
// no trailing fractional zeros, no trailing dot, "0" for zero.
func FromBase(base *big.Int) string {
	if base == nil || base.Sign() == 0 {
		return "0"
	}

	quo, rem := new(big.Int).QuoRem(base, unit, new(big.Int))
	if rem.Sign() == 0 {
		return quo.String()
	}

	frac := rem.String()
	if len(frac) < Decimals {
		frac = strings.Repeat("0", Decimals-len(frac)) + frac
	}
	frac = strings.TrimRight(frac, "0")
	return quo.String() + "." + frac
}

// ParseBase parses a base-unit integer string as returned by the ledger.
func ParseBase(s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(strings.TrimSpace(s), 10)
	if !ok {
		return nil, fmt.Errorf("malformed base-unit amount %q", s)
	}
	return v, nil
}

// FromBaseString converts a base-unit integer string to a decimal-ETH string.
func FromBaseString(s string) (string, error) {
	v, err := ParseBase(s)
	if err != nil {
		return "", err
	}
	return FromBase(v), nil
}
