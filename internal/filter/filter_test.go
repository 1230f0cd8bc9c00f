package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		expected string
	}{
		{name: "Case folding", in: "Easy Apply", expected: "easy apply"},
		{name: "Diacritics", in: "Ứng tuyển nhanh", expected: "ung tuyen nhanh"},
		{name: "D stroke", in: "Đà Nẵng", expected: "da nang"},
		{name: "Whitespace", in: "  Easy \n  Apply ", expected: "easy apply"},
		{name: "Empty", in: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Normalize(tt.in))
		})
	}
}

func TestExcluder_Match(t *testing.T) {
	ex := NewExcluder([]string{"Senior", "", "  Trưởng phòng "})

	assert.Equal(t, "senior", ex.Match("Senior Data Scientist", "Acme"))
	assert.Equal(t, "truong phong", ex.Match("Truong Phong Ky Thuat", ""))
	assert.Equal(t, "", ex.Match("Data Scientist", "Acme"))
}

func TestExcluder_Empty(t *testing.T) {
	var nilEx *Excluder
	assert.Equal(t, "", nilEx.Match("anything"))
	assert.Equal(t, "", NewExcluder(nil).Match("anything"))
}
