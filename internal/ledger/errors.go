package ledger

import (
	"errors"
	"fmt"

	"coffee-ledger/internal/domain"
	"coffee-ledger/internal/storage"
)

// Failure kinds. Every operation error wraps exactly one of these; callers
// classify with errors.Is. All failures are fatal to the operation: the
// transaction is rolled back and no state change is observable.
var (
	// ErrInvalidArgument marks malformed symbols, non-positive amounts,
	// over-long memos and precision mismatches.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotFound marks a missing SupplyStat, Balance, Stake or account
	// where existence is required.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists marks duplicate creates and duplicate blacklist adds.
	ErrAlreadyExists = errors.New("already exists")

	// ErrUnauthorized marks a caller that is not the required principal.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrPolicyViolation marks blacklisted participants, exceeded supply
	// ceilings, insufficient (unstaked) balances, non-zero closes and
	// untrusted burn sources.
	ErrPolicyViolation = errors.New("policy violation")

	// ErrOverflow marks arithmetic leaving the representable amount range.
	ErrOverflow = errors.New("overflow")
)

func wrapKind(kind error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", kind, fmt.Sprintf(format, args...))
}

func invalid(format string, args ...any) error {
	return wrapKind(ErrInvalidArgument, format, args...)
}

func notFound(format string, args ...any) error {
	return wrapKind(ErrNotFound, format, args...)
}

func alreadyExists(format string, args ...any) error {
	return wrapKind(ErrAlreadyExists, format, args...)
}

func unauthorized(format string, args ...any) error {
	return wrapKind(ErrUnauthorized, format, args...)
}

func policy(format string, args ...any) error {
	return wrapKind(ErrPolicyViolation, format, args...)
}

// fromArithmetic maps domain arithmetic errors onto failure kinds.
func fromArithmetic(err error) error {
	switch {
	case errors.Is(err, domain.ErrOverflow):
		return fmt.Errorf("%w: %v", ErrOverflow, err)
	case errors.Is(err, domain.ErrSymbolMismatch):
		return fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	default:
		return err
	}
}

// Kind returns the metrics label for an operation error: "ok" for nil, the
// failure kind for classified errors, "internal" for anything else
// (storage faults, commit errors).
func Kind(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrInvalidArgument):
		return "invalid_argument"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrAlreadyExists):
		return "already_exists"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrPolicyViolation):
		return "policy_violation"
	case errors.Is(err, ErrOverflow):
		return "overflow"
	case errors.Is(err, storage.ErrNotFound):
		return "not_found"
	default:
		return "internal"
	}
}
