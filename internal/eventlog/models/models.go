package models

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"registrar/pkg/domain"
	dErrors "registrar/pkg/domain-errors"
)

// Type names the state transition an event records.
type Type string

const (
	TypeMint             Type = "mint"
	TypeTransfer         Type = "transfer"
	TypeResolveUpdate    Type = "resolve_update"
	TypeTextRecordUpdate Type = "text_record_update"
	TypeList             Type = "list"
	TypeUnlist           Type = "unlist"
	TypeSale             Type = "sale"
)

var validTypes = map[Type]struct{}{
	TypeMint: {}, TypeTransfer: {}, TypeResolveUpdate: {}, TypeTextRecordUpdate: {},
	TypeList: {}, TypeUnlist: {}, TypeSale: {},
}

func (t Type) IsValid() bool {
	_, ok := validTypes[t]
	return ok
}

// ParseType accepts an empty string as "any type".
func ParseType(raw string) (Type, error) {
	t := Type(raw)
	if raw == "" || t.IsValid() {
		return t, nil
	}
	return "", dErrors.New(dErrors.CodeValidation, "unknown event type "+raw)
}

// Status is the settlement state of an event.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusFailed    Status = "failed"
)

func (s Status) IsTerminal() bool {
	return s == StatusConfirmed || s == StatusFailed
}

func (s Status) IsValid() bool {
	return s == StatusPending || s.IsTerminal()
}

// Event is an immutable record of one state transition.
type Event struct {
	Sequence     uint64           `json:"sequence"`
	TxHash       string           `json:"tx_hash"`
	Type         Type             `json:"type"`
	FullName     string           `json:"full_name"`
	Actor        domain.Account   `json:"actor"`
	Counterparty domain.Account   `json:"counterparty,omitempty"`
	Amount       *decimal.Decimal `json:"amount,omitempty"`
	Timestamp    time.Time        `json:"timestamp"`
	Status       Status           `json:"status"`
}

// NewEvent builds a confirmed event with a fresh transaction hash.
// Sequence is assigned by the log on append.
func NewEvent(typ Type, fullName string, actor, counterparty domain.Account, amount *decimal.Decimal, at time.Time) *Event {
	e := &Event{
		Type:         typ,
		FullName:     fullName,
		Actor:        actor,
		Counterparty: counterparty,
		Amount:       amount,
		Timestamp:    at.UTC(),
		Status:       StatusConfirmed,
	}
	e.TxHash = computeTxHash(uuid.New(), e)
	return e
}

// computeTxHash derives an opaque 0x-prefixed id from a nonce and the payload.
func computeTxHash(nonce uuid.UUID, e *Event) string {
	amount := ""
	if e.Amount != nil {
		amount = e.Amount.String()
	}
	payload := fmt.Sprintf("%s|%s|%s|%s|%s|%s|%d",
		nonce, e.Type, e.FullName, e.Actor, e.Counterparty, amount, e.Timestamp.UnixNano())
	return crypto.Keccak256Hash([]byte(payload)).Hex()
}

func (e *Event) Validate() error {
	if !e.Type.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "unknown event type "+string(e.Type))
	}
	if e.FullName == "" {
		return dErrors.New(dErrors.CodeValidation, "event full name is required")
	}
	if e.Actor.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "event actor is required")
	}
	if !e.Status.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "unknown event status "+string(e.Status))
	}
	return nil
}

func (e *Event) Clone() *Event {
	c := *e
	if e.Amount != nil {
		a := *e.Amount
		c.Amount = &a
	}
	return &c
}

// Filter narrows a query. Zero fields match everything.
type Filter struct {
	FullName string
	Type     Type
	// After skips events with Sequence <= After.
	After uint64
	// Since skips events timestamped before Since.
	Since time.Time
}

// Matches reports whether e passes every set criterion.
func (f Filter) Matches(e *Event) bool {
	if e.Sequence <= f.After {
		return false
	}
	if f.FullName != "" && e.FullName != f.FullName {
		return false
	}
	if f.Type != "" && e.Type != f.Type {
		return false
	}
	if !f.Since.IsZero() && e.Timestamp.Before(f.Since) {
		return false
	}
	return true
}
