package domain

import (
	"strings"

	dErrors "registrar/pkg/domain-errors"
)

// Name is a validated, normalized domain name such as "alice.web3".
//
// Values are only produced by the naming package's validator (or by
// ParseFullName for lookups), so holding a Name means the label and extension
// are already lowercase and trimmed.
type Name struct {
	label     string
	extension string
}

// NewName builds a Name from already-normalized parts. Callers outside the
// naming package should go through naming.Validate instead.
func NewName(label, extension string) Name {
	return Name{label: label, extension: extension}
}

// Label returns the part before the dot.
func (n Name) Label() string { return n.label }

// Extension returns the part after the dot.
func (n Name) Extension() string { return n.extension }

// FullName returns label + "." + extension.
func (n Name) FullName() string {
	if n.IsZero() {
		return ""
	}
	return n.label + "." + n.extension
}

func (n Name) String() string { return n.FullName() }

// IsZero reports whether the name is unset.
func (n Name) IsZero() bool { return n.label == "" && n.extension == "" }

// ParseFullName splits "label.ext" on its last dot and lowercases both parts.
// It does not check the label charset or the extension catalog; use it to key
// lookups of names that were validated at registration time.
func ParseFullName(raw string) (Name, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	idx := strings.LastIndex(s, ".")
	if idx <= 0 || idx == len(s)-1 {
		return Name{}, dErrors.NewReason(dErrors.CodeValidation, ReasonInvalidNameFormat,
			"domain must look like name.extension")
	}
	return Name{label: s[:idx], extension: s[idx+1:]}, nil
}
