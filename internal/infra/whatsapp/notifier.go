package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tedex09/portalvd/internal/infra/httpclient"
)

// Notifier delivers text messages through a WhatsApp gateway HTTP API.
type Notifier struct {
	apiURL     string
	token      string
	httpClient *http.Client
}

type sendPayload struct {
	To      string `json:"to"`
	Message string `json:"message"`
}

func New(apiURL, token string, timeout time.Duration) (*Notifier, error) {
	if strings.TrimSpace(apiURL) == "" {
		return nil, fmt.Errorf("whatsapp api url is empty")
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Notifier{
		apiURL:     strings.TrimRight(strings.TrimSpace(apiURL), "/"),
		token:      strings.TrimSpace(token),
		httpClient: httpclient.New(timeout),
	}, nil
}

func (n *Notifier) Send(ctx context.Context, to, message string) error {
	if n == nil || n.httpClient == nil {
		return fmt.Errorf("whatsapp notifier is not initialized")
	}
	if strings.TrimSpace(to) == "" {
		return fmt.Errorf("recipient is required")
	}
	if strings.TrimSpace(message) == "" {
		return fmt.Errorf("message is required")
	}

	body, err := json.Marshal(sendPayload{To: to, Message: message})
	if err != nil {
		return fmt.Errorf("marshal whatsapp payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.apiURL+"/messages", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create whatsapp request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if n.token != "" {
		req.Header.Set("Authorization", "Bearer "+n.token)
	}

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send whatsapp message: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected whatsapp gateway status: %d", resp.StatusCode)
	}

	return nil
}
