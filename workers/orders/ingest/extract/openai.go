package extract

import (
	"context"
	"errors"
	"fmt"

	"github.com/97Cweb/package-scraper/config"
	openai "github.com/sashabaranov/go-openai"
)

const extractionPrompt = `Extract the order number, tracking/shipping number, company, and list of items in shipment from the following email.
Output the result as a JSON object with keys: order_number, tracking_number, company, status, delivery_date, and items. Do not explain it, just return only the json
Carriers such as canada post are not the company that shipped. Amazon is a company though as you can buy from them.

Email Data:
Subject: %s
From: %s
Body: %s`

// OpenAIExtractor is the chat-completion backed extraction service.
type OpenAIExtractor struct {
	client *openai.Client
	model  string
}

func NewOpenAIExtractor(cfg *config.OpenAIConfig) *OpenAIExtractor {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.OrgID != "" {
		clientConfig.OrgID = cfg.OrgID
	}
	return &OpenAIExtractor{
		client: openai.NewClientWithConfig(clientConfig),
		model:  cfg.Model,
	}
}

func (e *OpenAIExtractor) Extract(ctx context.Context, content EmailContent) (*Extraction, error) {
	prompt := fmt.Sprintf(extractionPrompt, content.Subject, content.From, content.Body)

	completion, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: e.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: "You are a helpful assistant."},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, errors.New("chat completion returned no choices")
	}

	return parseResponse(completion.Choices[0].Message.Content)
}
