package tts

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCleanForSpeech(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"fenced code", "Here is some code:\n```python\nprint('hello')\n```", "Here is some code:"},
		{"unclosed fence", "Text\n```go", "Text\ngo"},
		{"inline code", "Use `print('hi')` to print.", "Use print('hi') to print."},
		{"image", "This is an image ![alt](image.jpg)", "This is an image"},
		{"link", "Click [here](http://example.com)", "Click here"},
		{"raw url", "Visit https://example.com now", "Visit  now"},
		{"html", "This is <b>bold</b> text", "This is bold text"},
		{"emphasis", "This is **bold**, *italic*, and __underline__", "This is bold, italic, and underline"},
		{"headings and lists", "# Heading\n- item 1\n2. item 2\n#comment\nText", "Heading\nitem 1\nitem 2\n\nText"},
		{"blank lines", "Line 1\n\n\nLine 2", "Line 1\n\nLine 2"},
		{"trim", "   Trim this text   ", "Trim this text"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, CleanForSpeech(tc.in))
		})
	}
}
