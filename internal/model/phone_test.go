package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"no digits", "abc-", ""},
		{"already e164", "+5511999998888", "+5511999998888"},
		{"country code no plus", "5511999998888", "+5511999998888"},
		{"bare 11 digit mobile", "11999998888", "+5511999998888"},
		{"bare 10 digit landline", "1133334444", "+551133334444"},
		{"formatted", "(11) 99999-8888", "+5511999998888"},
		{"international", "14155552671", "+5514155552671"},
		{"long international", "4915123456789", "+4915123456789"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizePhone(tt.input))
		})
	}
}

func TestValidPhone(t *testing.T) {
	assert.True(t, ValidPhone("+5511999998888"))
	assert.False(t, ValidPhone(""))
	assert.False(t, ValidPhone("+55123"))
	assert.False(t, ValidPhone("+123456789012345678901"))
}
