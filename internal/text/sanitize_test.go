package text_test

import (
	"testing"

	"github.com/nutrichat/nutrichat/internal/text"
)

func TestSanitize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "empty string",
			input:    "",
			expected: "",
		},
		{
			name:     "plain text unchanged",
			input:    "How much protein should I eat per day?",
			expected: "How much protein should I eat per day?",
		},
		{
			name:     "leading and trailing whitespace trimmed",
			input:    "  eat more fiber  \n",
			expected: "eat more fiber",
		},
		{
			name:     "script block removed with its contents",
			input:    `hello <script>alert("x")</script> world`,
			expected: "hello  world",
		},
		{
			name:     "script block with attributes removed",
			input:    `<script type="text/javascript" src="evil.js"></script>safe`,
			expected: "safe",
		},
		{
			name:     "multiline script block removed",
			input:    "before\n<script>\nvar a = 1;\n</script>\nafter",
			expected: "before\n\nafter",
		},
		{
			name:     "style block removed with its contents",
			input:    "text<style>body { display: none }</style>more",
			expected: "textmore",
		},
		{
			name:     "html tags stripped but inner text kept",
			input:    `<b>bold</b> and <a href="http://example.com">a link</a>`,
			expected: "bold and a link",
		},
		{
			name:     "image tag stripped",
			input:    `look <img src=x onerror=alert(1)> here`,
			expected: "look  here",
		},
		{
			name:     "markdown emphasis preserved",
			input:    "eat **plenty** of _greens_",
			expected: "eat **plenty** of _greens_",
		},
		{
			name:     "markdown list preserved",
			input:    "- oats\n- lentils\n- yogurt",
			expected: "- oats\n- lentils\n- yogurt",
		},
		{
			name:     "runs of blank lines collapsed",
			input:    "first\n\n\n\n\nsecond",
			expected: "first\n\nsecond",
		},
		{
			name:     "case-insensitive script removal",
			input:    `<SCRIPT>alert(1)</SCRIPT>clean`,
			expected: "clean",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := text.Sanitize(tt.input); got != tt.expected {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}
