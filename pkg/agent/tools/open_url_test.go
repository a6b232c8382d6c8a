package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnsureProtocol(t *testing.T) {
	assert.Equal(t, "https://example.com", ensureProtocol("example.com"))
	assert.Equal(t, "https://example.com", ensureProtocol("https://example.com"))
	assert.Equal(t, "http://example.com", ensureProtocol("http://example.com"))
}
