package domain

import "fmt"

// MaxNameLen is the maximum length of an account name.
const MaxNameLen = 12

// Name is an account identifier: 1..12 characters drawn from a-z, 1-5 and
// dot, not starting or ending with a dot.
type Name string

// Validate checks the account-name alphabet and length rules.
func (n Name) Validate() error {
	if n == "" || len(n) > MaxNameLen {
		return fmt.Errorf("account name %q must be 1..%d characters", n, MaxNameLen)
	}
	for _, c := range n {
		if (c < 'a' || c > 'z') && (c < '1' || c > '5') && c != '.' {
			return fmt.Errorf("account name %q contains invalid character %q", n, c)
		}
	}
	if n[0] == '.' || n[len(n)-1] == '.' {
		return fmt.Errorf("account name %q must not start or end with a dot", n)
	}
	return nil
}

func (n Name) String() string {
	return string(n)
}
