// Package intent classifies a user message into an action identifier using
// the lightweight model, producing a strict-JSON Intent or a parse failure.
package intent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/psplover16/line-ai-rebot/pkg/llm"
)

// ErrNotJSON is returned when the parser model produced output that is not a
// JSON object, even after stripping markdown fences. It is terminal for the
// inbound message; no repair or re-prompting is attempted at this layer.
var ErrNotJSON = errors.New("parser returned non-JSON output")

// Intent is the structured classification of one user message. It is built
// per inbound message and discarded once dispatch completes.
type Intent struct {
	Action      string `json:"action"`
	SearchQuery string `json:"search_query,omitempty"`
}

// systemPrompt pins the parser model to the closed action set and a
// JSON-only output contract.
const systemPrompt = `You are an intent parser.
You must output pure JSON only. No explanations, no markdown, no extra text.

Available actions:
- time
- list
- reboot
- openChrome
- open_youtube_search
- none

Rules:
1) If the user is asking for computer control or to open a feature, return that action.
2) If the user is just chatting, return {"action":"none"}.
3) open_youtube_search must carry a search_query, for example:
{"action":"open_youtube_search","search_query":"Jay Chou Dao Xiang"}

Output JSON only.`

// Parser extracts an Intent from free-form user text via the parser model.
type Parser struct {
	chatter llm.Chatter
	model   string
	logger  *zap.Logger
}

// NewParser creates a parser bound to the given chatter and model id.
func NewParser(chatter llm.Chatter, model string, logger *zap.Logger) *Parser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Parser{chatter: chatter, model: model, logger: logger}
}

// Parse runs the parser model over the user text and decodes its output.
// Invocation exhaustion propagates as llm.ErrExhausted; unparseable output
// is reported as ErrNotJSON. Both are terminal for the message.
func (p *Parser) Parse(ctx context.Context, userText string) (Intent, error) {
	raw, err := p.chatter.Chat(ctx, p.model, []llm.Message{
		llm.System(systemPrompt),
		llm.User(userText),
	})
	if err != nil {
		return Intent{}, fmt.Errorf("invoking parser model: %w", err)
	}

	p.logger.Debug("parser raw output", zap.String("raw", raw))

	cleaned := stripFences(raw)
	if !strings.HasPrefix(cleaned, "{") {
		// Covers empty output, prose refusals, and bare JSON scalars alike.
		return Intent{}, ErrNotJSON
	}

	var it Intent
	if err := json.Unmarshal([]byte(cleaned), &it); err != nil {
		return Intent{}, fmt.Errorf("%w: %v", ErrNotJSON, err)
	}

	it.Action = strings.TrimSpace(it.Action)
	it.SearchQuery = strings.TrimSpace(it.SearchQuery)
	return it, nil
}

// stripFences removes markdown code-fence markers that small models tend to
// wrap around their JSON despite instructions.
func stripFences(raw string) string {
	cleaned := strings.ReplaceAll(raw, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	return strings.TrimSpace(cleaned)
}
