package domain

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"

	dErrors "registrar/pkg/domain-errors"
)

// Account identifies an owner, caller or resolution target.
//
// Accounts are opaque: any non-empty identifier is accepted. Identifiers that
// are well-formed 20-byte hex addresses are rewritten to their EIP-55 checksum
// form so that differently-cased spellings of one address compare equal.
type Account string

// ParseAccount trims and normalizes a raw account identifier.
func ParseAccount(raw string) (Account, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", dErrors.New(dErrors.CodeValidation, "account is required")
	}
	if len(s) > 256 {
		return "", dErrors.New(dErrors.CodeValidation, "account must be at most 256 characters")
	}
	if common.IsHexAddress(s) {
		return Account(common.HexToAddress(s).Hex()), nil
	}
	return Account(s), nil
}

// MustAccount parses raw and panics on failure. Intended for tests and fixtures.
func MustAccount(raw string) Account {
	a, err := ParseAccount(raw)
	if err != nil {
		panic(err)
	}
	return a
}

func (a Account) String() string { return string(a) }

// IsZero reports whether the account is unset.
func (a Account) IsZero() bool { return a == "" }
