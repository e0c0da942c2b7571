package line

import (
	"context"

	"github.com/line/line-bot-sdk-go/v7/linebot"

	"github.com/psplover16/line-ai-rebot/pkg/bot"
)

// PushClient delivers replies over LINE's push API.
type PushClient struct {
	client *linebot.Client
}

// NewPushClient creates a push sink over an authenticated LINE client.
func NewPushClient(client *linebot.Client) *PushClient {
	return &PushClient{client: client}
}

// Push sends one text message to the identity. Errors are returned for the
// caller to log; the dispatcher never treats them as fatal.
func (p *PushClient) Push(ctx context.Context, to, text string) error {
	_, err := p.client.PushMessage(to, linebot.NewTextMessage(text)).WithContext(ctx).Do()
	return err
}

// Ensure PushClient implements bot.Sink.
var _ bot.Sink = (*PushClient)(nil)
