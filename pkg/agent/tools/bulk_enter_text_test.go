package tools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBulkEnterTextTool_EmptyEntries(t *testing.T) {
	tool := NewBulkEnterTextTool()

	msg, err := tool.Execute(context.Background(), &Context{}, json.RawMessage(`{"entries":[]}`))
	require.NoError(t, err)
	assert.Equal(t, "Failed to enter text: no entries provided.", msg)

	msg, err = tool.Execute(context.Background(), &Context{}, json.RawMessage(`{}`))
	require.NoError(t, err)
	assert.Equal(t, "Failed to enter text: no entries provided.", msg)
}

func TestBulkEnterTextTool_InvalidArguments(t *testing.T) {
	tool := NewBulkEnterTextTool()

	_, err := tool.Execute(context.Background(), &Context{}, json.RawMessage(`{"entries":"not a list"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid bulk_enter_text arguments")
}

func TestBulkEnterTextTool_Schema(t *testing.T) {
	tool := NewBulkEnterTextTool()
	assert.Equal(t, "bulk_enter_text", tool.Name())

	schema := tool.Schema()
	require.NotNil(t, schema)
	assert.Equal(t, []string{"entries"}, schema["required"])
}
