// Package whatsapp wraps the Evolution API for outbound messages and
// instance pairing.
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

	"vida_smart_backend/platform/config"
	"vida_smart_backend/platform/logger"
	"vida_smart_backend/platform/phone"
)

// Client talks to an Evolution API instance. A nil client is a no-op, so
// callers need no feature flag when WhatsApp is not configured.
type Client struct {
	baseURL  string
	apiKey   string
	instance string
	http     *http.Client
	log      *logger.Logger
}

type sendTextRequest struct {
	Number string `json:"number"`
	Text   string `json:"text"`
}

// NewClient creates the Evolution client, or nil when no base URL is
// configured.
func NewClient(cfg config.EvolutionConfig, log *logger.Logger) *Client {
	if cfg.GetEvolutionBaseURL() == "" {
		return nil
	}

	return &Client{
		baseURL:  strings.TrimRight(cfg.GetEvolutionBaseURL(), "/"),
		apiKey:   cfg.GetEvolutionAPIKey(),
		instance: cfg.GetEvolutionInstanceName(),
		http:     &http.Client{Timeout: 10 * time.Second},
		log:      log,
	}
}

// SendText delivers one text message to a phone number.
func (c *Client) SendText(ctx context.Context, phoneNumber string, text string) error {
	if c == nil {
		return nil
	}

	normalized := strings.TrimPrefix(phone.NormalizeE164(phoneNumber), "+")

	payload := sendTextRequest{
		Number: normalized,
		Text:   text,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal whatsapp payload: %w", err)
	}

	url := fmt.Sprintf("%s/message/sendText/%s", c.baseURL, c.instance)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("whatsapp request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("whatsapp service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	c.log.Info("whatsapp sent via evolution", "phone", normalized)
	return nil
}
