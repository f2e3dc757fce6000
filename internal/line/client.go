package line

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/SuSaiGit/ikeman/pkg/logging"
)

const defaultBaseURL = "https://api.line.me"

// MaxReplyLength is the platform ceiling for a single text message.
const MaxReplyLength = 5000

// Client wraps the Messaging API endpoints the relay uses.
type Client struct {
	accessToken string
	baseURL     string
	httpClient  *http.Client
	logger      *logging.Logger
}

// ClientConfig controls how the messaging client behaves.
type ClientConfig struct {
	AccessToken string
	BaseURL     string
	Timeout     time.Duration
	HTTPClient  *http.Client
	Logger      *logging.Logger
}

// NewClient creates a configured messaging client.
func NewClient(cfg ClientConfig) (*Client, error) {
	if strings.TrimSpace(cfg.AccessToken) == "" {
		return nil, errors.New("line: channel access token is required")
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	return &Client{
		accessToken: cfg.AccessToken,
		baseURL:     baseURL,
		httpClient:  httpClient,
		logger:      logger,
	}, nil
}

type textMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// ReplyText sends a single text message bound to replyToken.
func (c *Client) ReplyText(ctx context.Context, replyToken, text string) error {
	return c.reply(ctx, replyToken, []any{textMessage{Type: "text", Text: text}})
}

// ReplyFlex sends a single flex message bound to replyToken.
func (c *Client) ReplyFlex(ctx context.Context, replyToken string, flex *FlexMessage) error {
	if flex == nil {
		return errors.New("line: flex message is nil")
	}
	return c.reply(ctx, replyToken, []any{flex})
}

func (c *Client) reply(ctx context.Context, replyToken string, messages []any) error {
	if strings.TrimSpace(replyToken) == "" {
		return errors.New("line: reply token is required")
	}
	payload := struct {
		ReplyToken string `json:"replyToken"`
		Messages   []any  `json:"messages"`
	}{ReplyToken: replyToken, Messages: messages}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("line: marshal reply: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v2/bot/message/reply", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("line: build reply request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("line: reply http: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("line: reply api status %d: %s", resp.StatusCode, string(data))
	}
	return nil
}
