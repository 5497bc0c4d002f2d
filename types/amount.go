package types

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// ZeroAmount is the display form of an empty or unreadable balance.
	ZeroAmount = "0.0000"

	DisplayPrecision = 4
	USDCDecimals     = 6
)

// ParseAmount parses a base-10 amount. An empty string parses as zero.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return d, nil
}

// FormatAmount renders an amount with the fixed display precision.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(DisplayPrecision)
}

// ToMinorUnits converts an amount to integer token units, truncating sub-unit dust.
func ToMinorUnits(d decimal.Decimal, decimals int32) (*big.Int, error) {
	units := d.Shift(decimals).Truncate(0)
	if !units.IsPositive() {
		return nil, fmt.Errorf("%w: %s is not a positive amount", ErrInvalidAmount, d)
	}
	return units.BigInt(), nil
}

// FromMinorUnits converts integer token units to a decimal amount.
func FromMinorUnits(units *big.Int, decimals int32) decimal.Decimal {
	return decimal.NewFromBigInt(units, -decimals)
}
