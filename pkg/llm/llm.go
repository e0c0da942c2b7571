// Package llm defines the message types and the chat-completion contract
// shared by the intent parser and the conversational path.
package llm

import (
	"context"
	"errors"
)

// Message roles as sent over the Ollama chat API.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ErrExhausted is returned when every attempt against the chat endpoint
// failed at the transport or status level. It is distinct from a successful
// call that produced empty text, which is reported as ("", nil).
var ErrExhausted = errors.New("chat endpoint failed after retries")

// Message is a single turn in a conversation, in Ollama's flat wire shape.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// System, User, and Assistant are shorthand constructors for the three roles.
func System(content string) Message    { return Message{Role: RoleSystem, Content: content} }
func User(content string) Message      { return Message{Role: RoleUser, Content: content} }
func Assistant(content string) Message { return Message{Role: RoleAssistant, Content: content} }

// Chatter sends a full message sequence to a chat-completion endpoint and
// returns the assistant's trimmed text. Implementations retry internally;
// a nil error with empty text means the model genuinely said nothing.
type Chatter interface {
	Chat(ctx context.Context, model string, messages []Message) (string, error)
}
