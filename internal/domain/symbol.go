package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// MaxSymbolCodeLen is the maximum length of a symbol code.
const MaxSymbolCodeLen = 7

// MaxPrecision is the maximum number of decimal digits a symbol may carry.
const MaxPrecision = 18

// Symbol identifies a currency: an uppercase alphabetic code plus the number
// of decimal digits its amounts are scaled by.
type Symbol struct {
	Code      string
	Precision uint8
}

// NewSymbol creates a Symbol and validates it.
func NewSymbol(code string, precision uint8) (Symbol, error) {
	s := Symbol{Code: code, Precision: precision}
	if err := s.Validate(); err != nil {
		return Symbol{}, err
	}
	return s, nil
}

// Validate checks that the code is 1..7 uppercase letters A-Z and the
// precision is within range.
func (s Symbol) Validate() error {
	if s.Code == "" || len(s.Code) > MaxSymbolCodeLen {
		return fmt.Errorf("symbol code %q must be 1..%d characters", s.Code, MaxSymbolCodeLen)
	}
	for _, c := range s.Code {
		if c < 'A' || c > 'Z' {
			return fmt.Errorf("symbol code %q contains invalid character %q", s.Code, c)
		}
	}
	if s.Precision > MaxPrecision {
		return fmt.Errorf("symbol precision %d exceeds maximum %d", s.Precision, MaxPrecision)
	}
	return nil
}

// Equal reports whether both code and precision match.
func (s Symbol) Equal(o Symbol) bool {
	return s.Code == o.Code && s.Precision == o.Precision
}

// String formats the symbol as "<precision>,<code>", e.g. "4,CFF".
func (s Symbol) String() string {
	return fmt.Sprintf("%d,%s", s.Precision, s.Code)
}

// ParseSymbol parses the "<precision>,<code>" form produced by String.
func ParseSymbol(str string) (Symbol, error) {
	parts := strings.SplitN(str, ",", 2)
	if len(parts) != 2 {
		return Symbol{}, fmt.Errorf("symbol %q must be of form \"precision,CODE\"", str)
	}
	prec, err := strconv.ParseUint(parts[0], 10, 8)
	if err != nil {
		return Symbol{}, fmt.Errorf("symbol %q has invalid precision: %w", str, err)
	}
	return NewSymbol(parts[1], uint8(prec))
}
