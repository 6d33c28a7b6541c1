package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"nft-market-service/internal/config"
	"nft-market-service/internal/ports/outbound"

	"github.com/rs/zerolog"
)

// Client talks to the external payment processor's HTTP API. Card data
// never touches this service; we only create intents and poll their status.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	currency   string
	logger     zerolog.Logger
}

type ClientParams struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewClient initializes a payment processor client. Returns nil when no
// processor is configured; callers treat a nil provider as unavailable.
func NewClient(params ClientParams) *Client {
	if params.Config.Payment.APIURL == "" || params.Config.Payment.APIKey == "" {
		return nil
	}

	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    params.Config.Payment.APIURL,
		apiKey:     params.Config.Payment.APIKey,
		currency:   params.Config.Payment.Currency,
		logger:     params.Logger.With().Str("component", "payment_client").Logger(),
	}
}

// CreateIntent registers a charge with the processor
func (c *Client) CreateIntent(ctx context.Context, amount float64, reference string) (*outbound.PaymentIntent, error) {
	body := map[string]interface{}{
		"amount":   amount,
		"currency": c.currency,
		"metadata": map[string]string{
			"reference": reference,
		},
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal intent request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1/payment_intents", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.apiKey))
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		c.logger.Error().Int("status_code", resp.StatusCode).Msg("Payment processor rejected intent creation")
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var intent outbound.PaymentIntent
	if err := json.NewDecoder(resp.Body).Decode(&intent); err != nil {
		return nil, fmt.Errorf("failed to decode intent response: %w", err)
	}

	if intent.ID == "" {
		return nil, fmt.Errorf("invalid intent ID in response")
	}

	c.logger.Info().Str("intent_id", intent.ID).Float64("amount", amount).Msg("Payment intent created")
	return &intent, nil
}

// GetIntent retrieves an intent's current status
func (c *Client) GetIntent(ctx context.Context, intentID string) (*outbound.PaymentIntent, error) {
	endpoint := fmt.Sprintf("%s/v1/payment_intents/%s", c.baseURL, url.PathEscape(intentID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.apiKey))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var intent outbound.PaymentIntent
	if err := json.NewDecoder(resp.Body).Decode(&intent); err != nil {
		return nil, fmt.Errorf("failed to decode intent response: %w", err)
	}

	return &intent, nil
}
