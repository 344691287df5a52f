package models

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"registrar/pkg/domain"
	dErrors "registrar/pkg/domain-errors"
)

func TestValidateTextKey(t *testing.T) {
	assert.NoError(t, ValidateTextKey("email", true))
	assert.NoError(t, ValidateTextKey("com.twitter", true))
	assert.NoError(t, ValidateTextKey("org.custom-key", false))

	err := ValidateTextKey("org.custom-key", true)
	assert.Equal(t, domain.ReasonUnknownTextRecordKey, dErrors.ReasonOf(err))

	for _, bad := range []string{"", "Email", ".email", strings.Repeat("k", 65), "a b"} {
		assert.True(t, dErrors.HasCode(ValidateTextKey(bad, false), dErrors.CodeValidation), bad)
	}
}

func TestValidateTextValue(t *testing.T) {
	assert.NoError(t, ValidateTextValue(""))
	assert.Error(t, ValidateTextValue(strings.Repeat("v", MaxTextValueLength+1)))
}

func TestRecordClone(t *testing.T) {
	addr := domain.Account("0xB")
	r := NewRecord("alice.web3", time.Now())
	r.ResolvedAddress = &addr
	r.TextRecords["email"] = "a@b.c"

	c := r.Clone()
	*c.ResolvedAddress = "0xC"
	c.TextRecords["email"] = "changed"

	assert.Equal(t, domain.Account("0xB"), *r.ResolvedAddress)
	assert.Equal(t, "a@b.c", r.TextRecords["email"])
	assert.False(t, r.IsEmpty())
	assert.True(t, NewRecord("x.web3", time.Now()).IsEmpty())
}
