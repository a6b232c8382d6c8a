package types

// MessageRole identifies the author of a conversation message.
type MessageRole string

const (
	// RoleSystem is the system prompt role.
	RoleSystem MessageRole = "system"

	// RoleUser is the human/engine input role.
	RoleUser MessageRole = "user"

	// RoleAssistant is the LLM response role.
	RoleAssistant MessageRole = "assistant"

	// RoleTool carries a tool execution result back to the LLM.
	RoleTool MessageRole = "tool"
)

// ToolCall is one tool invocation requested by the LLM. Arguments hold the
// raw JSON payload so the tool layer can decode into its own schema.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Message is a single role-tagged entry in a conversation history.
type Message struct {
	Role    MessageRole `json:"role"`
	Content string      `json:"content"`

	// ToolCalls are present on assistant messages that requested tools.
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`

	// ToolCallID links a tool-role message to the call that produced it.
	ToolCallID string `json:"tool_call_id,omitempty"`
}

// NewMessage creates a message with the given role and content.
func NewMessage(role MessageRole, content string) *Message {
	return &Message{Role: role, Content: content}
}

// NewSystemMessage creates a system-role message.
func NewSystemMessage(content string) *Message {
	return NewMessage(RoleSystem, content)
}

// NewUserMessage creates a user-role message.
func NewUserMessage(content string) *Message {
	return NewMessage(RoleUser, content)
}

// NewAssistantMessage creates an assistant-role message.
func NewAssistantMessage(content string) *Message {
	return NewMessage(RoleAssistant, content)
}

// NewToolMessage creates a tool-role message tied to a tool call id.
func NewToolMessage(toolCallID, content string) *Message {
	return &Message{Role: RoleTool, Content: content, ToolCallID: toolCallID}
}
