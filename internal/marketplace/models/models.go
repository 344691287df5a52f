package models

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"registrar/pkg/domain"
	dErrors "registrar/pkg/domain-errors"
)

// Listing offers a name for sale at a fixed price. It stays active only while
// the seller still owns the name.
type Listing struct {
	FullName string          `json:"full_name"`
	Seller   domain.Account  `json:"seller"`
	Price    decimal.Decimal `json:"price"`
	ListedAt time.Time       `json:"listed_at"`
	Active   bool            `json:"active"`
}

func NewListing(fullName string, seller domain.Account, price decimal.Decimal, at time.Time) *Listing {
	return &Listing{
		FullName: fullName,
		Seller:   seller,
		Price:    price,
		ListedAt: at.UTC(),
		Active:   true,
	}
}

func (l *Listing) Clone() *Listing {
	c := *l
	return &c
}

// PriceScale is the number of decimal places prices and payments may carry,
// matching the NUMERIC(38, 18) columns they are stored in.
const PriceScale = 18

// maxPriceExclusive is the first value with more integer digits than the
// columns hold.
var maxPriceExclusive = decimal.New(1, 38-PriceScale)

// ValidateAmount rejects amounts the store cannot hold exactly: more than
// PriceScale decimal places, or too many integer digits.
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.Equal(amount.Truncate(PriceScale)) {
		return dErrors.NewReason(dErrors.CodeValidation, domain.ReasonInvalidPrice,
			"amounts carry at most 18 decimal places")
	}
	if amount.Abs().GreaterThanOrEqual(maxPriceExclusive) {
		return dErrors.NewReason(dErrors.CodeValidation, domain.ReasonInvalidPrice, "amount is too large")
	}
	return nil
}

// ValidatePrice requires 0 < price <= ceiling and a storable amount. A zero
// ceiling disables the upper bound.
func ValidatePrice(price, ceiling decimal.Decimal) error {
	if !price.IsPositive() {
		return dErrors.NewReason(dErrors.CodeValidation, domain.ReasonInvalidPrice, "price must be greater than zero")
	}
	if err := ValidateAmount(price); err != nil {
		return err
	}
	if ceiling.IsPositive() && price.GreaterThan(ceiling) {
		return dErrors.NewReason(dErrors.CodeValidation, domain.ReasonInvalidPrice,
			"price must not exceed "+ceiling.String())
	}
	return nil
}

// Sort orders a listing page.
type Sort string

const (
	SortNewest    Sort = "newest"
	SortOldest    Sort = "oldest"
	SortPriceAsc  Sort = "price_asc"
	SortPriceDesc Sort = "price_desc"
	SortLength    Sort = "length"
)

// Label length buckets: short names (3 or fewer characters), exactly four,
// and five or more.
const (
	LengthShort = 3
	LengthFour  = 4
	LengthLong  = 5
)

const (
	DefaultPageSize = 50
	MaxPageSize     = 200
)

// Filter selects and orders active listings. Zero values mean "any".
type Filter struct {
	Extension string
	// Search matches a substring of the full name.
	Search   string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	// Length is one of LengthShort, LengthFour or LengthLong.
	Length int
	Sort   Sort
	Limit  int
	Offset int
}

// Normalize lowercases text criteria, applies defaults and rejects
// contradictory or unknown values.
func (f *Filter) Normalize() error {
	f.Extension = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(f.Extension), "."))
	f.Search = strings.ToLower(strings.TrimSpace(f.Search))
	switch f.Sort {
	case "":
		f.Sort = SortNewest
	case SortNewest, SortOldest, SortPriceAsc, SortPriceDesc, SortLength:
	default:
		return dErrors.New(dErrors.CodeValidation, "unknown sort "+string(f.Sort))
	}
	switch f.Length {
	case 0, LengthShort, LengthFour, LengthLong:
	default:
		return dErrors.New(dErrors.CodeValidation, "length must be 3, 4 or 5")
	}
	for _, p := range []*decimal.Decimal{f.MinPrice, f.MaxPrice} {
		if p == nil {
			continue
		}
		if p.IsNegative() {
			return dErrors.NewReason(dErrors.CodeValidation, domain.ReasonInvalidPrice, "price bounds must not be negative")
		}
		if err := ValidateAmount(*p); err != nil {
			return err
		}
	}
	if f.MinPrice != nil && f.MaxPrice != nil && f.MinPrice.GreaterThan(*f.MaxPrice) {
		return dErrors.New(dErrors.CodeValidation, "min_price must not exceed max_price")
	}
	switch {
	case f.Limit < 0 || f.Offset < 0:
		return dErrors.New(dErrors.CodeValidation, "limit and offset must not be negative")
	case f.Limit == 0:
		f.Limit = DefaultPageSize
	case f.Limit > MaxPageSize:
		f.Limit = MaxPageSize
	}
	return nil
}

// Matches reports whether an active listing passes every criterion.
func (f Filter) Matches(l *Listing) bool {
	if !l.Active {
		return false
	}
	label, ext := SplitFullName(l.FullName)
	if f.Extension != "" && ext != f.Extension {
		return false
	}
	if f.Search != "" && !strings.Contains(l.FullName, f.Search) {
		return false
	}
	if f.MinPrice != nil && l.Price.LessThan(*f.MinPrice) {
		return false
	}
	if f.MaxPrice != nil && l.Price.GreaterThan(*f.MaxPrice) {
		return false
	}
	switch n := len(label); f.Length {
	case LengthShort:
		return n <= LengthShort
	case LengthFour:
		return n == LengthFour
	case LengthLong:
		return n >= LengthLong
	}
	return true
}

// SortListings orders listings in place. Ties fall back to the full name so
// pages are stable.
func SortListings(listings []*Listing, by Sort) {
	slices.SortFunc(listings, func(a, b *Listing) int {
		var c int
		switch by {
		case SortOldest:
			c = a.ListedAt.Compare(b.ListedAt)
		case SortPriceAsc:
			c = a.Price.Cmp(b.Price)
		case SortPriceDesc:
			c = b.Price.Cmp(a.Price)
		case SortLength:
			la, _ := SplitFullName(a.FullName)
			lb, _ := SplitFullName(b.FullName)
			c = cmp.Compare(len(la), len(lb))
		default:
			c = b.ListedAt.Compare(a.ListedAt)
		}
		if c != 0 {
			return c
		}
		return strings.Compare(a.FullName, b.FullName)
	})
}

// SplitFullName returns the label and extension of a normalized full name.
func SplitFullName(fullName string) (label, extension string) {
	label, extension, _ = strings.Cut(fullName, ".")
	return label, extension
}
