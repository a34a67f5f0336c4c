// Package assistant calls the hosted language-model API used for
// conversational replies: anything the command interpreter cannot map to a
// delegation action is answered here instead.
package assistant

import (
	"context"
	"time"

	httpclient "github.com/semihdurgun/monadagent/internal/client/http"
	"github.com/semihdurgun/monadagent/internal/types/business"
)

// Message is one chat turn in the conversation history
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}

// Client talks to the assistant API
type Client struct {
	http  *httpclient.HTTPClient
	model string
}

// Config carries the assistant API settings
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// NewClient builds an assistant client from config
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, business.NewError(business.ErrInvalidConfig, "assistant base URL is required")
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 45 * time.Second
	}

	options := []httpclient.ClientOption{
		httpclient.WithBaseURL(cfg.BaseURL),
		httpclient.WithTimeout(timeout),
	}
	if cfg.APIKey != "" {
		options = append(options, httpclient.WithDefaultHeader("Authorization", "Bearer "+cfg.APIKey))
	}

	return &Client{
		http:  httpclient.NewHTTPClient(options...),
		model: cfg.Model,
	}, nil
}

// Chat sends the conversation and returns the assistant's reply
func (c *Client) Chat(ctx context.Context, messages []Message) (string, error) {
	resp, err := c.http.Post(ctx, "/v1/chat", chatRequest{Model: c.model, Messages: messages})
	if err != nil {
		return "", business.WrapError(business.ErrUnknown, "assistant request failed", err)
	}

	var parsed chatResponse
	if err := c.http.ProcessJSONResponse(resp, &parsed); err != nil {
		return "", business.WrapError(business.ErrUnknown, "assistant response unreadable", err)
	}
	return parsed.Reply, nil
}
