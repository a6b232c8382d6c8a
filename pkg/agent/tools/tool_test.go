package tools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubTool struct {
	name   string
	schema map[string]interface{}
}

func (t *stubTool) Name() string        { return t.name }
func (t *stubTool) Description() string { return "stub" }
func (t *stubTool) Schema() map[string]interface{} {
	return t.schema
}

func (t *stubTool) Execute(ctx context.Context, exec *Context, args json.RawMessage) (string, error) {
	return "ok", nil
}

func objectSchema() map[string]interface{} {
	return map[string]interface{}{"type": "object"}
}

func TestNewRegistry_PreservesOrder(t *testing.T) {
	r, err := NewRegistry(
		&stubTool{name: "first", schema: objectSchema()},
		&stubTool{name: "second", schema: objectSchema()},
		&stubTool{name: "third", schema: objectSchema()},
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second", "third"}, r.Names())

	defs := r.Definitions()
	require.Len(t, defs, 3)
	assert.Equal(t, "first", defs[0].Name)
	assert.Equal(t, "third", defs[2].Name)
}

func TestNewRegistry_RejectsDuplicates(t *testing.T) {
	_, err := NewRegistry(
		&stubTool{name: "click", schema: objectSchema()},
		&stubTool{name: "click", schema: objectSchema()},
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestNewRegistry_RejectsEmptyName(t *testing.T) {
	_, err := NewRegistry(&stubTool{name: "", schema: objectSchema()})
	assert.Error(t, err)
}

func TestNewRegistry_RejectsMissingSchema(t *testing.T) {
	_, err := NewRegistry(&stubTool{name: "click"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema")
}

func TestRegistry_Get(t *testing.T) {
	r, err := NewRegistry(&stubTool{name: "click", schema: objectSchema()})
	require.NoError(t, err)

	tool, ok := r.Get("click")
	assert.True(t, ok)
	assert.Equal(t, "click", tool.Name())

	_, ok = r.Get("missing")
	assert.False(t, ok)
}

func TestDefaultRegistry(t *testing.T) {
	r, err := DefaultRegistry()
	require.NoError(t, err)

	expected := []string{
		"open_url",
		"click",
		"enter_text",
		"bulk_enter_text",
		"enter_text_and_click",
		"press_key_combination",
		"get_dom_with_content_type",
		"extract_text_from_pdf",
	}
	assert.Equal(t, expected, r.Names())

	// Every tool renders a usable definition for the model.
	for _, def := range r.Definitions() {
		assert.NotEmpty(t, def.Description, def.Name)
		assert.NotNil(t, def.Parameters, def.Name)
	}
}
