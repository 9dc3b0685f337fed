package tracking

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/97Cweb/package-scraper/config"
)

// Client talks to the ParcelsApp shipment-tracking API.
type Client struct {
	cfg  *config.ParcelsAppConfig
	http *http.Client
}

func NewClient(cfg *config.ParcelsAppConfig) *Client {
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: 20 * time.Second},
	}
}

// Submit initiates tracking for a batch of shipments in a single call.
func (c *Client) Submit(ctx context.Context, shipments []ShipmentQuery) (*ApiResponse, error) {
	payload, err := json.Marshal(SubmitRequest{
		APIKey:    c.cfg.APIKey,
		Shipments: shipments,
	})
	if err != nil {
		return nil, fmt.Errorf("encode tracking request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseUri, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req)
}

// Poll checks on a previously submitted batch by its UUID.
func (c *Client) Poll(ctx context.Context, uuid string) (*ApiResponse, error) {
	u, err := url.Parse(c.cfg.BaseUri)
	if err != nil {
		return nil, fmt.Errorf("parse tracking url: %w", err)
	}
	q := u.Query()
	q.Set("uuid", uuid)
	q.Set("apiKey", c.cfg.APIKey)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}

	return c.do(req)
}

func (c *Client) do(req *http.Request) (*ApiResponse, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer func(body io.ReadCloser) {
		_ = body.Close()
	}(resp.Body)

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var apiResponse ApiResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResponse); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &apiResponse, nil
}
