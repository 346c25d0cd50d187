// Package notify delivers occurrence notifications to the template-mail
// API. One POST per fresh occurrence; there is no in-process retry, the
// host scheduler's next firing is the retry.
package notify

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/myusoutharm/svcmon/internal/eventlog"
)

// DefaultEndpoint is the production ingestion URL. The endpoint config key
// overrides it for relays and tests.
const DefaultEndpoint = "https://api.msgrelay.io/v1/send"

// Payload is the wire body. Every field comes from configuration; nothing
// read from the event log is ever sent.
type Payload struct {
	APIKey     string   `json:"api_key"`
	To         []string `json:"to"`
	Sender     string   `json:"sender"`
	TemplateID string   `json:"template_id"`
}

// DispatchError describes a failed delivery attempt: either the API
// rejected the request (StatusCode, Body) or the request never completed
// (Err).
type DispatchError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *DispatchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("dispatching notification: %v", e.Err)
	}
	if e.Body != "" {
		return fmt.Sprintf("notification API returned %d: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("notification API returned %d", e.StatusCode)
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}

// Notifier binds a Client to one configured notification.
type Notifier struct {
	client  *Client
	payload Payload
	log     zerolog.Logger
}

// NewNotifier returns a Notifier that posts payload through client.
func NewNotifier(client *Client, payload Payload, log zerolog.Logger) *Notifier {
	return &Notifier{client: client, payload: payload, log: log}
}

// Dispatch posts the configured payload for entry. The entry is described
// in local logs only; its contents never reach the API, and neither does
// the API key reach the logs.
func (n *Notifier) Dispatch(ctx context.Context, entry *eventlog.Entry) error {
	evt := n.log.Info().
		Str("sender", n.payload.Sender).
		Str("template_id", n.payload.TemplateID).
		Int("recipients", len(n.payload.To))
	if entry != nil {
		evt = evt.Int64("record_id", entry.RecordID).Str("provider", entry.Provider)
	}
	evt.Msg("dispatching notification")

	return n.client.Dispatch(ctx, n.payload)
}
