// Package bot contains the dispatch pipeline that turns one inbound message
// into exactly one reply: authorize, classify intent with the parser model,
// then route to the chat model, a whitelisted command, or the search action.
package bot

import (
	"context"

	"github.com/psplover16/line-ai-rebot/pkg/action"
	"github.com/psplover16/line-ai-rebot/pkg/intent"
)

// IntentParser classifies one user message into an Intent.
type IntentParser interface {
	Parse(ctx context.Context, userText string) (intent.Intent, error)
}

// Runner executes a whitelisted command spec and returns its decoded output.
type Runner interface {
	Run(ctx context.Context, spec action.Spec) (string, error)
}

// Searcher performs the search-and-launch action for a query.
type Searcher interface {
	Launch(ctx context.Context, query string) error
}

// Sink delivers a text reply to an identity. Delivery failures are logged by
// callers and never propagate back into dispatch.
type Sink interface {
	Push(ctx context.Context, to, text string) error
}
