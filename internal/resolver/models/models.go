package models

import (
	"maps"
	"regexp"
	"time"

	"registrar/pkg/domain"
	dErrors "registrar/pkg/domain-errors"
)

// MaxTextValueLength bounds a single text record value.
const MaxTextValueLength = 2048

var keyPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]{0,63}$`)

// KnownTextKeys is the closed namespace used when arbitrary keys are disabled.
var KnownTextKeys = map[string]struct{}{
	"email": {}, "url": {}, "avatar": {}, "description": {}, "notice": {}, "keywords": {},
	"twitter": {}, "github": {}, "discord": {}, "telegram": {}, "reddit": {},
	"com.twitter": {}, "com.github": {}, "com.discord": {}, "org.telegram": {}, "com.reddit": {},
}

// Record holds what a name resolves to. It is cleared, not deleted, when the
// name changes hands.
type Record struct {
	FullName        string            `json:"full_name"`
	ResolvedAddress *domain.Account   `json:"resolved_address"`
	TextRecords     map[string]string `json:"text_records"`
	// AddressVersion is the event sequence of the latest address update;
	// reverse lookups prefer the highest.
	AddressVersion uint64    `json:"-"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func NewRecord(fullName string, at time.Time) *Record {
	return &Record{FullName: fullName, TextRecords: map[string]string{}, UpdatedAt: at.UTC()}
}

func (r *Record) Clone() *Record {
	c := *r
	if r.ResolvedAddress != nil {
		a := *r.ResolvedAddress
		c.ResolvedAddress = &a
	}
	c.TextRecords = maps.Clone(r.TextRecords)
	if c.TextRecords == nil {
		c.TextRecords = map[string]string{}
	}
	return &c
}

// IsEmpty reports whether the record carries no resolution data.
func (r *Record) IsEmpty() bool {
	return r.ResolvedAddress == nil && len(r.TextRecords) == 0
}

// ValidateTextKey checks key syntax and, when closed is set, membership in
// KnownTextKeys.
func ValidateTextKey(key string, closed bool) error {
	if !keyPattern.MatchString(key) {
		return dErrors.New(dErrors.CodeValidation, "text record key must be 1-64 characters of a-z, 0-9, '.', '_' or '-'")
	}
	if closed {
		if _, ok := KnownTextKeys[key]; !ok {
			return dErrors.NewReason(dErrors.CodeValidation, domain.ReasonUnknownTextRecordKey,
				"unknown text record key "+key)
		}
	}
	return nil
}

func ValidateTextValue(value string) error {
	if len(value) > MaxTextValueLength {
		return dErrors.New(dErrors.CodeValidation, "text record value is too long")
	}
	return nil
}

// Status summarizes a name for dashboards.
type Status struct {
	FullName        string          `json:"full_name"`
	Owner           domain.Account  `json:"owner"`
	Resolved        bool            `json:"resolved"`
	ResolvedAddress *domain.Account `json:"resolved_address,omitempty"`
	TextRecordCount int             `json:"text_record_count"`
}
