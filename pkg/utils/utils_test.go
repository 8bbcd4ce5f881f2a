package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"simple", "Acme", "acme"},
		{"spaces", "Acme Corp", "acme-corp"},
		{"punctuation", "Acme, Inc.", "acme-inc"},
		{"leading and trailing junk", "  --Acme--  ", "acme"},
		{"digits", "Area 51", "area-51"},
		{"empty", "", ""},
		{"only punctuation", "!!!", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Slugify(tc.in))
		})
	}
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "dana@example.com", NormalizeEmail("  Dana@Example.COM "))
}
