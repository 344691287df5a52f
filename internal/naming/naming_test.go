package naming

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"registrar/pkg/domain"
	dErrors "registrar/pkg/domain-errors"
)

var defaultSet = NewExtensionSet("web3", "dao", "defi", "nft", "crypto", "meta")

func TestValidate(t *testing.T) {
	tests := []struct {
		name       string
		rawName    string
		rawExt     string
		wantFull   string
		wantReason string
	}{
		{name: "simple", rawName: "alice", rawExt: "web3", wantFull: "alice.web3"},
		{name: "normalizes case and whitespace", rawName: "  Alice ", rawExt: " WEB3", wantFull: "alice.web3"},
		{name: "leading dot on extension", rawName: "bob", rawExt: ".dao", wantFull: "bob.dao"},
		{name: "inner hyphen", rawName: "my-name", rawExt: "nft", wantFull: "my-name.nft"},
		{name: "single char", rawName: "a", rawExt: "meta", wantFull: "a.meta"},
		{name: "digits", rawName: "123", rawExt: "defi", wantFull: "123.defi"},
		{name: "max length", rawName: strings.Repeat("a", 63), rawExt: "web3", wantFull: strings.Repeat("a", 63) + ".web3"},
		{name: "too long", rawName: strings.Repeat("a", 64), rawExt: "web3", wantReason: domain.ReasonInvalidNameFormat},
		{name: "empty", rawName: "   ", rawExt: "web3", wantReason: domain.ReasonInvalidNameFormat},
		{name: "leading hyphen", rawName: "-alice", rawExt: "web3", wantReason: domain.ReasonInvalidNameFormat},
		{name: "trailing hyphen", rawName: "alice-", rawExt: "web3", wantReason: domain.ReasonInvalidNameFormat},
		{name: "underscore", rawName: "al_ice", rawExt: "web3", wantReason: domain.ReasonInvalidNameFormat},
		{name: "dot in label", rawName: "al.ice", rawExt: "web3", wantReason: domain.ReasonInvalidNameFormat},
		{name: "unicode", rawName: "ålice", rawExt: "web3", wantReason: domain.ReasonInvalidNameFormat},
		{name: "unknown extension", rawName: "ab", rawExt: "notreal", wantReason: domain.ReasonUnknownExtension},
		{name: "empty extension", rawName: "ab", rawExt: "", wantReason: domain.ReasonUnknownExtension},
		{name: "format checked before extension", rawName: "-", rawExt: "notreal", wantReason: domain.ReasonInvalidNameFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Validate(tt.rawName, tt.rawExt, defaultSet)
			if tt.wantReason != "" {
				require.Error(t, err)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
				assert.Equal(t, tt.wantReason, dErrors.ReasonOf(err))
				assert.True(t, got.IsZero())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantFull, got.FullName())
		})
	}
}

func TestValidateIsIdempotent(t *testing.T) {
	inputs := [][2]string{
		{"Alice", "WEB3"},
		{" my-Name ", "dao"},
		{"X1", " nft "},
		{strings.Repeat("Z", 63), "meta"},
	}
	for _, in := range inputs {
		first, err := Validate(in[0], in[1], defaultSet)
		require.NoError(t, err)

		second, err := Validate(first.Label(), first.Extension(), defaultSet)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	}
}

func TestValidateIsDeterministic(t *testing.T) {
	for range 3 {
		_, err := Validate("ab", "notreal", defaultSet)
		assert.Equal(t, domain.ReasonUnknownExtension, dErrors.ReasonOf(err))
	}
}

func TestValidateRespectsDisabledExtensions(t *testing.T) {
	set := NewExtensionSet("web3")
	_, err := Validate("alice", "dao", set)
	assert.Equal(t, domain.ReasonUnknownExtension, dErrors.ReasonOf(err))

	_, err = Validate("alice", "web3", nil)
	assert.Equal(t, domain.ReasonUnknownExtension, dErrors.ReasonOf(err))
}

func TestValidateFullName(t *testing.T) {
	n, err := ValidateFullName("Alice.Web3", defaultSet)
	require.NoError(t, err)
	assert.Equal(t, "alice.web3", n.FullName())

	for _, raw := range []string{"alice", ".web3", "alice.", ""} {
		_, err := ValidateFullName(raw, defaultSet)
		assert.Equal(t, domain.ReasonInvalidNameFormat, dErrors.ReasonOf(err), raw)
	}

	_, err = ValidateFullName("a.b.web3", defaultSet)
	assert.Equal(t, domain.ReasonInvalidNameFormat, dErrors.ReasonOf(err))
}
