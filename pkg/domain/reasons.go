package domain

import (
	dErrors "registrar/pkg/domain-errors"
)

// Stable reasons attached to coded errors. Transports expose them verbatim so
// clients can branch without parsing messages.
const (
	ReasonInvalidNameFormat    = "invalid_name_format"
	ReasonUnknownExtension     = "unknown_extension"
	ReasonAlreadyRegistered    = "already_registered"
	ReasonNotFound             = "not_found"
	ReasonNotOwner             = "not_owner"
	ReasonSameOwner            = "same_owner"
	ReasonUnknownTextRecordKey = "unknown_text_record_key"
	ReasonNotListed            = "not_listed"
	ReasonAlreadyListed        = "already_listed"
	ReasonInvalidPrice         = "invalid_price"
	ReasonPriceMismatch        = "price_mismatch"
	ReasonSelfPurchase         = "self_purchase"
)

func ErrNotFound(fullName string) error {
	return dErrors.NewReason(dErrors.CodeNotFound, ReasonNotFound, fullName+" is not registered")
}

func ErrNotOwner(fullName string) error {
	return dErrors.NewReason(dErrors.CodeForbidden, ReasonNotOwner, "caller does not own "+fullName)
}
