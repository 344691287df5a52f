package models

import (
	"time"

	"github.com/shopspring/decimal"

	"registrar/pkg/domain"
)

// Entry is the authoritative ownership record for one full name.
type Entry struct {
	FullName         string         `json:"full_name"`
	Label            string         `json:"name"`
	Extension        string         `json:"extension"`
	Owner            domain.Account `json:"owner"`
	MintedAt         time.Time      `json:"minted_at"`
	TimesTransferred int64          `json:"times_transferred"`
	Active           bool           `json:"active"`
}

// NewEntry mints a fresh active entry.
func NewEntry(name domain.Name, owner domain.Account, at time.Time) *Entry {
	return &Entry{
		FullName:  name.FullName(),
		Label:     name.Label(),
		Extension: name.Extension(),
		Owner:     owner,
		MintedAt:  at.UTC(),
		Active:    true,
	}
}

func (e *Entry) Clone() *Entry {
	c := *e
	return &c
}

// TransferTo moves ownership and bumps the transfer counter.
func (e *Entry) TransferTo(to domain.Account) {
	e.Owner = to
	e.TimesTransferred++
}

// SearchResult describes one candidate name in a search.
type SearchResult struct {
	FullName  string           `json:"full_name"`
	Extension string           `json:"extension"`
	Available bool             `json:"available"`
	Price     decimal.Decimal  `json:"price"`
	Owner     domain.Account   `json:"owner,omitempty"`
	Listed    bool             `json:"listed"`
	ListPrice *decimal.Decimal `json:"list_price,omitempty"`
}
