package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractNames(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    []string
	}{
		{
			name:    "character named",
			message: "Create a character named Malak",
			want:    []string{"Malak"},
		},
		{
			name:    "about form",
			message: "Tell me more about Mira",
			want:    []string{"Mira"},
		},
		{
			name:    "possessive",
			message: "Malak's backstory needs work",
			want:    []string{"Malak"},
		},
		{
			name:    "dedup across patterns",
			message: "Tell me about Malak. Malak is angry about Mira",
			want:    []string{"Malak", "Mira"},
		},
		{
			// Capitalized sentence openers are captured like names; the lookup
			// tools tolerate the noise by falling back to the roster.
			name:    "interrogative opener captured",
			message: "What is Malak doing? Malak is angry about Mira",
			want:    []string{"Mira", "What", "Malak"},
		},
		{
			name:    "no capitalized names",
			message: "make the villain scarier",
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractNames(tt.message))
		})
	}
}
