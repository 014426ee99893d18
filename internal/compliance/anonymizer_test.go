package compliance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedact_BuiltInPatterns(t *testing.T) {
	anon, err := NewAnonymizer(nil)
	require.NoError(t, err)

	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "email",
			in:   "Tell dave@example.com about this one",
			want: "Tell [redacted] about this one",
		},
		{
			name: "phone",
			in:   "Call +47 123 45 678 for more jokes",
			want: "Call [redacted] for more jokes",
		},
		{
			name: "url",
			in:   "Found it at https://jokes.example/best",
			want: "Found it at [redacted]",
		},
		{
			name: "handle",
			in:   "As @funnyperson always says",
			want: "As [redacted] always says",
		},
		{
			name: "clean text untouched",
			in:   "Why did the chicken cross the road?",
			want: "Why did the chicken cross the road?",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, anon.Redact(tt.in))
		})
	}
}

func TestRedact_ExtraPatterns(t *testing.T) {
	anon, err := NewAnonymizer([]string{`\bAlice\b`})
	require.NoError(t, err)

	assert.Equal(t, "[redacted] told the best joke", anon.Redact("alice told the best joke"))
}

func TestNewAnonymizer_InvalidPattern(t *testing.T) {
	_, err := NewAnonymizer([]string{`[unclosed`})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid anonymize pattern")
}
