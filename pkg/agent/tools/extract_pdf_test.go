package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTextFromContentStream(t *testing.T) {
	tests := []struct {
		name   string
		stream string
		want   string
	}{
		{
			name:   "simple literal",
			stream: `BT /F1 12 Tf (Hello world) Tj ET`,
			want:   "Hello world",
		},
		{
			name:   "multiple literals",
			stream: `(Hello) Tj (world) Tj`,
			want:   "Hello world",
		},
		{
			name:   "escaped parens",
			stream: `(prices \(in EUR\)) Tj`,
			want:   "prices (in EUR)",
		},
		{
			name:   "escaped newline and backslash",
			stream: `(line one\nline two \\ done) Tj`,
			want:   "line one\nline two \\ done",
		},
		{
			name:   "nested parens",
			stream: `(outer (inner) tail) Tj`,
			want:   "outer (inner) tail",
		},
		{
			name:   "no literals",
			stream: `BT /F1 12 Tf ET`,
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, textFromContentStream(tt.stream))
		})
	}
}
