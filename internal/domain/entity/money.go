package entity

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// ErrAmountTooPrecise is returned when an amount has more decimals than its currency allows
	ErrAmountTooPrecise = errors.New("amount exceeds currency precision")

	// ErrAmountOverflow is returned when an amount does not fit in minor units
	ErrAmountOverflow = errors.New("amount overflows minor units")
)

// DefaultCurrencyPrecision is the number of decimals used by most currencies
const DefaultCurrencyPrecision int32 = 2

// currencies whose precision differs from the default
var currencyPrecision = map[string]int32{
	"BIF": 0, "CLP": 0, "DJF": 0, "GNF": 0, "ISK": 0, "JPY": 0, "KMF": 0, "KRW": 0,
	"PYG": 0, "RWF": 0, "UGX": 0, "VND": 0, "VUV": 0, "XAF": 0, "XOF": 0, "XPF": 0,
	"BHD": 3, "IQD": 3, "JOD": 3, "KWD": 3, "LYD": 3, "OMR": 3, "TND": 3,
}

// CurrencyPrecision returns the number of minor-unit decimals for a currency code
func CurrencyPrecision(currency string) int32 {
	if p, ok := currencyPrecision[strings.ToUpper(currency)]; ok {
		return p
	}
	return DefaultCurrencyPrecision
}

// MajorToMinor converts an amount in major units (12.50) to minor units (1250)
func MajorToMinor(amount decimal.Decimal, currency string) (int64, error) {
	shifted := amount.Shift(CurrencyPrecision(currency))
	if !shifted.IsInteger() {
		return 0, fmt.Errorf("%w: %s %s", ErrAmountTooPrecise, amount.String(), currency)
	}
	bi := shifted.BigInt()
	if !bi.IsInt64() {
		return 0, fmt.Errorf("%w: %s %s", ErrAmountOverflow, amount.String(), currency)
	}
	return bi.Int64(), nil
}

// MinorToMajor converts an amount in minor units to major units
func MinorToMajor(amount int64, currency string) decimal.Decimal {
	return decimal.New(amount, -CurrencyPrecision(currency))
}
