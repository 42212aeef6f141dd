package wallet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/radieske/baccarat-platform-poc/internal/engine/ledger"
)

// Client fala com o wallet-service. Credit/Debit são idempotentes por
// external_ref, então o ledger pode reaplicar deltas em retries de
// liquidação sem duplicar movimento.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func New(base string) *Client {
	return &Client{
		BaseURL: base,
		HTTP:    &http.Client{Timeout: 2 * time.Second},
	}
}

type moveRequest struct {
	PlayerID    string `json:"playerId"`
	AmountCents int64  `json:"amount_cents"`
	ExternalRef string `json:"external_ref"`
}

func (c *Client) Credit(ctx context.Context, playerID string, amountCents int64, ref string) error {
	return c.post(ctx, "/wallet/credit", moveRequest{PlayerID: playerID, AmountCents: amountCents, ExternalRef: ref})
}

func (c *Client) Debit(ctx context.Context, playerID string, amountCents int64, ref string) error {
	return c.post(ctx, "/wallet/debit", moveRequest{PlayerID: playerID, AmountCents: amountCents, ExternalRef: ref})
}

func (c *Client) post(ctx context.Context, path string, payload moveRequest) error {
	body, _ := json.Marshal(payload)
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	res, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	switch {
	// recusas determinísticas: retry nunca resolve, o ledger pula o delta
	case res.StatusCode == http.StatusConflict || res.StatusCode == http.StatusNotFound:
		return fmt.Errorf("wallet %s http %d: %w", path, res.StatusCode, ledger.ErrBalanceRejected)
	case res.StatusCode >= 300:
		return fmt.Errorf("wallet %s http %d", path, res.StatusCode)
	}
	return nil
}
