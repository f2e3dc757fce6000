package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/SuSaiGit/ikeman/pkg/logging"
)

const (
	productionBaseURL = "https://api-pay.line.me"
	sandboxBaseURL    = "https://sandbox-api-pay.line.me"

	// Provider return code signalling success.
	returnCodeOK = "0000"
)

// Client wraps the LINE Pay v3 payments API.
type Client struct {
	channelID     string
	channelSecret string
	baseURL       string
	httpClient    *http.Client
	logger        *logging.Logger
}

// ClientConfig controls how the payment client behaves.
type ClientConfig struct {
	ChannelID     string
	ChannelSecret string
	Sandbox       bool
	BaseURL       string
	Timeout       time.Duration
	HTTPClient    *http.Client
	Logger        *logging.Logger
}

// NewClient creates a configured payment client. BaseURL overrides the
// sandbox/production host selection, for tests.
func NewClient(cfg ClientConfig) (*Client, error) {
	if strings.TrimSpace(cfg.ChannelID) == "" || strings.TrimSpace(cfg.ChannelSecret) == "" {
		return nil, errors.New("payments: channel id and secret are required")
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		if cfg.Sandbox {
			baseURL = sandboxBaseURL
		} else {
			baseURL = productionBaseURL
		}
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
		channelID:     cfg.ChannelID,
		channelSecret: cfg.ChannelSecret,
		baseURL:       baseURL,
		httpClient:    httpClient,
		logger:        logger,
	}, nil
}

type providerResponse struct {
	ReturnCode    string          `json:"returnCode"`
	ReturnMessage string          `json:"returnMessage"`
	Info          json.RawMessage `json:"info"`
}

// Request creates a payment and returns the transaction id and the redirect
// URL the payer must visit.
func (c *Client) Request(ctx context.Context, params RequestParams) (*RequestResult, error) {
	body := map[string]any{
		"amount":   params.Amount,
		"currency": params.Currency,
		"orderId":  params.OrderID,
		"packages": []map[string]any{
			{
				"id":     "package-" + params.OrderID,
				"amount": params.Amount,
				"name":   params.ProductName,
				"products": []map[string]any{
					{
						"id":       "product-" + params.OrderID,
						"name":     params.ProductName,
						"imageUrl": params.ImageURL,
						"quantity": 1,
						"price":    params.Amount,
					},
				},
			},
		},
		"redirectUrls": map[string]any{
			"confirmUrl": params.ConfirmURL,
			"cancelUrl":  params.CancelURL,
		},
		"options": map[string]any{
			"payment": map[string]any{"capture": true},
		},
	}

	info, err := c.invoke(ctx, http.MethodPost, "/v3/payments/request", body)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		TransactionID json.Number `json:"transactionId"`
		PaymentURL    struct {
			Web string `json:"web"`
		} `json:"paymentUrl"`
		PaymentAccessToken string `json:"paymentAccessToken"`
	}
	if err := json.Unmarshal(info, &parsed); err != nil {
		return nil, fmt.Errorf("payments: decode request info: %w", err)
	}
	return &RequestResult{
		TransactionID:      parsed.TransactionID.String(),
		PaymentURL:         parsed.PaymentURL.Web,
		PaymentAccessToken: parsed.PaymentAccessToken,
	}, nil
}

// Confirm captures an approved payment using the originally requested
// amount and currency.
func (c *Client) Confirm(ctx context.Context, transactionID string, amount int64, currency string) error {
	body := map[string]any{
		"amount":   amount,
		"currency": currency,
	}
	_, err := c.invoke(ctx, http.MethodPost, "/v3/payments/"+transactionID+"/confirm", body)
	return err
}

// Status fetches the provider-side state of a transaction.
func (c *Client) Status(ctx context.Context, transactionID string) (json.RawMessage, error) {
	return c.invoke(ctx, http.MethodGet, "/v3/payments/"+transactionID, nil)
}

func (c *Client) invoke(ctx context.Context, method, path string, body map[string]any) (json.RawMessage, error) {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("payments: marshal payload: %w", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("payments: build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-LINE-ChannelId", c.channelID)
	req.Header.Set("X-LINE-ChannelSecret", c.channelSecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("payments: http: %w", err)
	}
	defer resp.Body.Close()

	var parsed providerResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, &ProviderError{Code: fmt.Sprintf("%d", resp.StatusCode), Message: "unparseable provider response"}
	}
	if resp.StatusCode != http.StatusOK || parsed.ReturnCode != returnCodeOK {
		code := parsed.ReturnCode
		if code == "" {
			code = fmt.Sprintf("%d", resp.StatusCode)
		}
		msg := parsed.ReturnMessage
		if msg == "" {
			msg = "payment request failed"
		}
		return nil, &ProviderError{Code: code, Message: msg}
	}
	return parsed.Info, nil
}
