package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNoOrder reports that the service understood the email but found no
// order in it. Distinct from a parse or transport failure.
var ErrNoOrder = errors.New("no order found in email")

// EmailContent is the cleaned message handed to the extraction service.
type EmailContent struct {
	Subject string
	From    string
	Body    string
}

// Extraction is the structured order data pulled from one email.
type Extraction struct {
	OrderNumber    string   `json:"order_number"`
	TrackingNumber string   `json:"tracking_number"`
	Company        string   `json:"company"`
	Status         string   `json:"status"`
	DeliveryDate   string   `json:"delivery_date"`
	Items          []string `json:"items"`
}

// Extractor turns free-form email text into a structured order record.
type Extractor interface {
	Extract(ctx context.Context, content EmailContent) (*Extraction, error)
}

// parseResponse handles the model's raw completion text: code fences
// stripped, JSON decoded, and an answer without an order number mapped
// to ErrNoOrder.
func parseResponse(raw string) (*Extraction, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var extraction Extraction
	if err := json.Unmarshal([]byte(cleaned), &extraction); err != nil {
		return nil, fmt.Errorf("parse extraction response: %w", err)
	}
	if extraction.OrderNumber == "" {
		return nil, ErrNoOrder
	}
	return &extraction, nil
}
