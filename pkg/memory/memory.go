// Package memory provides the bounded conversation-history layer.
//
// Stores hold per-identity chat history used as context for the chat model.
// History is append-only except for trimming to a fixed retention window;
// trimming always drops from the oldest end, preserving recency order. The
// dispatcher only appends after a successful terminal action, so a failed
// dispatch never mutates history.
package memory

import "github.com/psplover16/line-ai-rebot/pkg/llm"

// Store keeps conversation history keyed by identity.
// Implementations must be safe for concurrent use.
type Store interface {
	// History returns a copy of the identity's history, oldest first.
	History(identity string) []llm.Message

	// AppendExchange records one user/assistant turn pair and trims the
	// history to the store's retention window.
	AppendExchange(identity string, user, assistant llm.Message)

	// Len returns the number of stored messages for the identity.
	Len(identity string) int
}
