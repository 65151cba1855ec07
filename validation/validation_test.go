package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequired(t *testing.T) {
	v := Violations{}
	Required("name", "  ", v)
	Required("city", "Novi Sad", v)
	assert.Equal(t, Violations{"name": "required"}, v)
}

func TestPositiveNumber(t *testing.T) {
	tests := []struct {
		raw  string
		ok   bool
		want string
	}{
		{"10", true, "10"},
		{"1,250.5", true, "1250.5"},
		{"0", false, "0"},
		{"-3", false, "0"},
		{"abc", false, "0"},
		{"", false, "0"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			v := Violations{}
			got := PositiveNumber("kg", tt.raw, v)
			assert.Equal(t, tt.ok, v.Empty())
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestDate(t *testing.T) {
	v := Violations{}
	Date("a", "2024-03-01", v)
	Date("b", "", v)
	Date("c", "01.03.2024", v)
	assert.Equal(t, Violations{"b": "required", "c": "invalid_date"}, v)
}
