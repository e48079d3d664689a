package domain

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Arithmetic errors returned by Amount operations.
var (
	// ErrOverflow is returned when an arithmetic result leaves the int64 range.
	ErrOverflow = errors.New("amount overflow")

	// ErrSymbolMismatch is returned when two amounts of different symbols
	// are combined.
	ErrSymbolMismatch = errors.New("symbol mismatch")
)

// Amount is a signed fixed-point quantity of one currency. Value is scaled by
// the symbol's precision: Amount{10000, Symbol{"CFF", 4}} is 1.0000 CFF.
type Amount struct {
	Value  int64
	Symbol Symbol
}

// NewAmount creates an Amount and validates its symbol.
func NewAmount(value int64, sym Symbol) (Amount, error) {
	a := Amount{Value: value, Symbol: sym}
	if err := a.Validate(); err != nil {
		return Amount{}, err
	}
	return a, nil
}

// Validate checks that the symbol is well formed.
func (a Amount) Validate() error {
	return a.Symbol.Validate()
}

// IsPositive reports whether the value is strictly greater than zero.
func (a Amount) IsPositive() bool {
	return a.Value > 0
}

// Add returns a+b. Fails on symbol mismatch or int64 overflow.
func (a Amount) Add(b Amount) (Amount, error) {
	if !a.Symbol.Equal(b.Symbol) {
		return Amount{}, fmt.Errorf("%w: %s vs %s", ErrSymbolMismatch, a.Symbol, b.Symbol)
	}
	if (b.Value > 0 && a.Value > math.MaxInt64-b.Value) ||
		(b.Value < 0 && a.Value < math.MinInt64-b.Value) {
		return Amount{}, fmt.Errorf("%w: %d + %d", ErrOverflow, a.Value, b.Value)
	}
	return Amount{Value: a.Value + b.Value, Symbol: a.Symbol}, nil
}

// Sub returns a-b. Fails on symbol mismatch or int64 overflow.
func (a Amount) Sub(b Amount) (Amount, error) {
	if !a.Symbol.Equal(b.Symbol) {
		return Amount{}, fmt.Errorf("%w: %s vs %s", ErrSymbolMismatch, a.Symbol, b.Symbol)
	}
	if (b.Value < 0 && a.Value > math.MaxInt64+b.Value) ||
		(b.Value > 0 && a.Value < math.MinInt64+b.Value) {
		return Amount{}, fmt.Errorf("%w: %d - %d", ErrOverflow, a.Value, b.Value)
	}
	return Amount{Value: a.Value - b.Value, Symbol: a.Symbol}, nil
}

// String formats the amount with the symbol's precision, e.g. "1.0000 CFF".
func (a Amount) String() string {
	if a.Symbol.Precision == 0 {
		return fmt.Sprintf("%d %s", a.Value, a.Symbol.Code)
	}
	v := a.Value
	sign := ""
	if v < 0 {
		sign = "-"
	}
	div := int64(1)
	for i := uint8(0); i < a.Symbol.Precision; i++ {
		div *= 10
	}
	whole := v / div
	frac := v % div
	if whole < 0 {
		whole = -whole
	}
	if frac < 0 {
		frac = -frac
	}
	return fmt.Sprintf("%s%d.%0*d %s", sign, whole, a.Symbol.Precision, frac, a.Symbol.Code)
}

// ParseAmount parses the "<decimal> <CODE>" form produced by String. The
// precision of the resulting symbol is the number of fractional digits
// written, so "1.0000 CFF" yields Amount{10000, Symbol{"CFF", 4}}.
func ParseAmount(str string) (Amount, error) {
	fields := strings.Fields(str)
	if len(fields) != 2 {
		return Amount{}, fmt.Errorf("amount %q must be of form \"1.0000 CODE\"", str)
	}
	numStr, code := fields[0], fields[1]

	neg := false
	if strings.HasPrefix(numStr, "-") {
		neg = true
		numStr = numStr[1:]
	}

	wholeStr, fracStr := numStr, ""
	if i := strings.IndexByte(numStr, '.'); i >= 0 {
		wholeStr, fracStr = numStr[:i], numStr[i+1:]
	}
	if wholeStr == "" {
		wholeStr = "0"
	}
	if len(fracStr) > MaxPrecision {
		return Amount{}, fmt.Errorf("amount %q has more than %d fractional digits", str, MaxPrecision)
	}

	sym, err := NewSymbol(code, uint8(len(fracStr)))
	if err != nil {
		return Amount{}, err
	}

	whole, err := strconv.ParseInt(wholeStr, 10, 64)
	if err != nil {
		return Amount{}, fmt.Errorf("amount %q has invalid integer part: %w", str, err)
	}
	var frac int64
	if fracStr != "" {
		frac, err = strconv.ParseInt(fracStr, 10, 64)
		if err != nil {
			return Amount{}, fmt.Errorf("amount %q has invalid fractional part: %w", str, err)
		}
	}

	value := whole
	for i := 0; i < len(fracStr); i++ {
		if value > math.MaxInt64/10 {
			return Amount{}, fmt.Errorf("%w: %q", ErrOverflow, str)
		}
		value *= 10
	}
	if value > math.MaxInt64-frac {
		return Amount{}, fmt.Errorf("%w: %q", ErrOverflow, str)
	}
	value += frac
	if neg {
		value = -value
	}
	return Amount{Value: value, Symbol: sym}, nil
}
