package agent

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/webpilot-ai/webpilot/pkg/llm/tokenizer"
	"github.com/webpilot-ai/webpilot/pkg/logging"
	"github.com/webpilot-ai/webpilot/pkg/types"
)

// History is one role's conversation transcript for the current task.
type History struct {
	mu       sync.Mutex
	messages []*types.Message
}

// NewHistory creates an empty history.
func NewHistory() *History {
	return &History{}
}

// Add appends a message.
func (h *History) Add(msg *types.Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = append(h.messages, msg)
}

// Messages returns a snapshot of the transcript.
func (h *History) Messages() []*types.Message {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]*types.Message, len(h.messages))
	copy(out, h.messages)
	return out
}

// Len returns the number of messages.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.messages)
}

// Clear empties the transcript.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = nil
}

// Transcript is the persisted form of a role's conversation for one task.
type Transcript struct {
	TaskID     string           `json:"task_id"`
	Role       types.Actor      `json:"role"`
	SavedAt    time.Time        `json:"saved_at"`
	TokenCount int              `json:"token_count,omitempty"`
	Messages   []*types.Message `json:"messages"`
}

// TranscriptStore persists one JSON document per (task, role) pair.
type TranscriptStore struct {
	dir string
	tok *tokenizer.Tokenizer
	log *logging.Logger
}

// NewTranscriptStore creates a store rooted at dir. Token accounting is
// best effort; a tokenizer that fails to load just disables the counts.
func NewTranscriptStore(dir string) *TranscriptStore {
	log, err := logging.NewLogger("transcripts")
	if err != nil {
		log.Warnf("failed to initialize transcript logger, using stderr fallback: %v", err)
	}

	tok, err := tokenizer.New()
	if err != nil {
		log.Warnf("tokenizer unavailable, transcripts will not carry token counts: %v", err)
		tok = nil
	}

	return &TranscriptStore{dir: dir, tok: tok, log: log}
}

// Save writes the history for (taskID, role) as one JSON document.
func (s *TranscriptStore) Save(taskID string, role types.Actor, h *History) error {
	messages := h.Messages()

	t := Transcript{
		TaskID:   taskID,
		Role:     role,
		SavedAt:  time.Now(),
		Messages: messages,
	}
	if s.tok != nil {
		t.TokenCount = s.tok.CountMessagesTokens(messages)
	}

	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode transcript: %w", err)
	}

	path := s.path(taskID, role)
	if err := os.WriteFile(path, data, 0640); err != nil {
		return fmt.Errorf("failed to write transcript %s: %w", path, err)
	}
	s.log.Debugf("saved %s transcript for task %s (%d messages)", role, taskID, len(messages))
	return nil
}

// Load reads a previously saved transcript.
func (s *TranscriptStore) Load(taskID string, role types.Actor) (*Transcript, error) {
	data, err := os.ReadFile(s.path(taskID, role))
	if err != nil {
		return nil, fmt.Errorf("failed to read transcript: %w", err)
	}
	var t Transcript
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse transcript: %w", err)
	}
	return &t, nil
}

func (s *TranscriptStore) path(taskID string, role types.Actor) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s-%s.json", taskID, role))
}
