// Package facilitator delegates verification and settlement for the EVM
// rail to a remote facilitator service. This module never inspects EVM
// payloads itself; it only validates the configuration locally and
// forwards the verify/settle calls.
package facilitator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
)

// DefaultURL is the public facilitator endpoint.
const DefaultURL = "https://x402.org/facilitator"

// Requirements mirrors the facilitator's payment requirement document.
type Requirements struct {
	Scheme            string `json:"scheme"`
	Network           string `json:"network"`
	MaxAmountRequired string `json:"maxAmountRequired"`
	Resource          string `json:"resource,omitempty"`
	Description       string `json:"description,omitempty"`
	PayTo             string `json:"payTo"`
	Asset             string `json:"asset,omitempty"`
	MaxTimeoutSeconds int    `json:"maxTimeoutSeconds,omitempty"`
}

// Validate rejects requirements whose recipient is not a hex EVM address
// before they ever reach the remote service.
func (r *Requirements) Validate() error {
	if !common.IsHexAddress(r.PayTo) {
		return fmt.Errorf("payTo %q is not a valid EVM address", r.PayTo)
	}
	if r.Network == "" {
		return fmt.Errorf("network is required")
	}
	return nil
}

// VerifyResponse is the facilitator's verification verdict.
type VerifyResponse struct {
	IsValid       bool   `json:"isValid"`
	InvalidReason string `json:"invalidReason,omitempty"`
	Payer         string `json:"payer,omitempty"`
}

// SettleResponse is the facilitator's settlement result.
type SettleResponse struct {
	Success     bool   `json:"success"`
	ErrorReason string `json:"errorReason,omitempty"`
	Transaction string `json:"transaction,omitempty"`
	Network     string `json:"network,omitempty"`
}

// Client calls a facilitator's verify and settle endpoints.
type Client struct {
	url  string
	http *http.Client
}

// NewClient builds a facilitator client; url defaults to DefaultURL and
// httpClient to http.DefaultClient.
func NewClient(url string, httpClient *http.Client) *Client {
	if url == "" {
		url = DefaultURL
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{url: url, http: httpClient}
}

// Verify asks the facilitator whether payload satisfies requirements.
func (c *Client) Verify(ctx context.Context, payload json.RawMessage, requirements *Requirements) (*VerifyResponse, error) {
	if err := requirements.Validate(); err != nil {
		return nil, err
	}
	var out VerifyResponse
	if err := c.post(ctx, "/verify", payload, requirements, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Settle asks the facilitator to execute the payment.
func (c *Client) Settle(ctx context.Context, payload json.RawMessage, requirements *Requirements) (*SettleResponse, error) {
	if err := requirements.Validate(); err != nil {
		return nil, err
	}
	var out SettleResponse
	if err := c.post(ctx, "/settle", payload, requirements, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) post(ctx context.Context, path string, payload json.RawMessage, requirements *Requirements, out any) error {
	reqBody := map[string]any{
		"x402Version":         1,
		"paymentPayload":      payload,
		"paymentRequirements": requirements,
	}
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url+path, bytes.NewBuffer(jsonBody))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("facilitator request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("facilitator returned status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
