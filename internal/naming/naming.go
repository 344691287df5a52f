// Package naming validates and normalizes candidate domain names.
//
// Validate is pure: it performs no I/O and depends only on its arguments, so
// callers fetch the enabled extension set first and pass it in.
package naming

import (
	"regexp"
	"strings"

	"registrar/pkg/domain"
	dErrors "registrar/pkg/domain-errors"
)

// MaxLabelLength is the longest label accepted, matching a DNS label.
const MaxLabelLength = 63

var labelPattern = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?$`)

// ExtensionSet is the set of currently enabled extensions, keyed by lowercase name.
type ExtensionSet map[string]struct{}

// NewExtensionSet builds a set from names, normalizing each one.
func NewExtensionSet(names ...string) ExtensionSet {
	set := make(ExtensionSet, len(names))
	for _, n := range names {
		if n = normalize(n); n != "" {
			set[n] = struct{}{}
		}
	}
	return set
}

// Contains reports whether ext (already normalized) is enabled.
func (s ExtensionSet) Contains(ext string) bool {
	_, ok := s[ext]
	return ok
}

// Validate normalizes rawName and rawExtension and checks them against the
// label rules and the enabled extension set.
func Validate(rawName, rawExtension string, enabled ExtensionSet) (domain.Name, error) {
	label := normalize(rawName)
	if err := ValidateLabel(label); err != nil {
		return domain.Name{}, err
	}
	ext := normalize(strings.TrimPrefix(strings.TrimSpace(rawExtension), "."))
	if ext == "" || !enabled.Contains(ext) {
		return domain.Name{}, dErrors.NewReason(dErrors.CodeValidation, domain.ReasonUnknownExtension,
			"extension ."+ext+" is not available")
	}
	return domain.NewName(label, ext), nil
}

// ValidateFullName splits "label.ext" on its last dot and validates both parts.
func ValidateFullName(raw string, enabled ExtensionSet) (domain.Name, error) {
	s := strings.TrimSpace(raw)
	idx := strings.LastIndex(s, ".")
	if idx <= 0 || idx == len(s)-1 {
		return domain.Name{}, dErrors.NewReason(dErrors.CodeValidation, domain.ReasonInvalidNameFormat,
			"domain must look like name.extension")
	}
	return Validate(s[:idx], s[idx+1:], enabled)
}

// ValidateLabel checks an already-normalized label.
func ValidateLabel(label string) error {
	if len(label) == 0 || len(label) > MaxLabelLength {
		return dErrors.NewReason(dErrors.CodeValidation, domain.ReasonInvalidNameFormat,
			"name must be between 1 and 63 characters")
	}
	if !labelPattern.MatchString(label) {
		return dErrors.NewReason(dErrors.CodeValidation, domain.ReasonInvalidNameFormat,
			"name may only contain a-z, 0-9 and inner hyphens")
	}
	return nil
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
