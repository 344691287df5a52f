package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitList(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"empty", "", nil},
		{"only separators", " , ,", nil},
		{"trims and dedupes", " a:1, ,b:2,a:1", []string{"a:1", "b:2"}},
		{"keeps case", "A,a", []string{"A", "a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitList(tt.raw))
		})
	}
}

func TestSplitListLower(t *testing.T) {
	assert.Equal(t, []string{"web3", "dao"}, SplitListLower("WEB3, dao,Web3"))
	assert.Nil(t, SplitListLower(""))
}
