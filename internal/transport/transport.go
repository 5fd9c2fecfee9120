package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"onion_chat/internal/model"
)

// EnvelopePath is the single endpoint both sides exchange envelopes on.
const EnvelopePath = "/txt"

type (
	// Sender delivers one envelope to a peer address. Implementations must
	// honor ctx so a stalled delivery can be cancelled independently.
	Sender interface {
		Send(ctx context.Context, address string, envelope *model.Envelope) error
	}

	// HTTPSender posts envelopes as JSON over the injected client, which is
	// what routes the request through the anonymity layer.
	HTTPSender struct {
		client *http.Client
	}
)

func NewHTTPSender(client *http.Client) *HTTPSender {
	return &HTTPSender{
		client: client,
	}
}

func (s *HTTPSender) Send(ctx context.Context, address string, envelope *model.Envelope) error {
	body, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	url := fmt.Sprintf("http://%s%s", address, EnvelopePath)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("post envelope: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("peer returned status %d", resp.StatusCode)
	}
	return nil
}
