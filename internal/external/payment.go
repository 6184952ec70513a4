package external

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"
)

type PaymentClient struct {
	baseURL      string
	merchantSlug string
	password     string
	httpClient   *http.Client
}

type PaymentConfig struct {
	BaseURL      string
	MerchantSlug string
	Password     string
	Currency     string
	Timeout      time.Duration
}

type paymentIntentRequest struct {
	MerchantSlug string            `json:"merchantSlug"`
	Token        string            `json:"token"`
	Amount       int64             `json:"amount"`
	Currency     string            `json:"currency"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

type paymentIntentResponse struct {
	Success      bool   `json:"success"`
	PaymentID    string `json:"paymentId"`
	ClientSecret string `json:"clientSecret"`
	Status       string `json:"status"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
	CreatedAt    string `json:"createdAt"`
}

// PaymentIntentResult is what the reservation core needs back from the
// provider: the payment reference (later the webhook idempotency key)
// and the client secret the frontend uses to complete the payment.
type PaymentIntentResult struct {
	ProviderPaymentID string
	ClientSecret      string
}

func NewPaymentClient(cfg PaymentConfig) *PaymentClient {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &PaymentClient{
		baseURL:      cfg.BaseURL,
		merchantSlug: cfg.MerchantSlug,
		password:     cfg.Password,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

func (pc *PaymentClient) generateToken(params map[string]string) string {
	params["MerchantSlug"] = pc.merchantSlug
	params["Password"] = pc.password

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var tokenString string
	for _, key := range keys {
		tokenString += params[key]
	}

	hash := sha256.Sum256([]byte(tokenString))
	return hex.EncodeToString(hash[:])
}

// CreateIntent registers a payment intent with the provider, attaching
// the booking parameters as opaque metadata the provider echoes back in
// its webhook on success.
func (pc *PaymentClient) CreateIntent(ctx context.Context, amount int64, currency string, metadata map[string]string) (PaymentIntentResult, error) {
	params := map[string]string{
		"Amount":   strconv.FormatInt(amount, 10),
		"Currency": currency,
	}
	token := pc.generateToken(params)

	reqData := paymentIntentRequest{
		MerchantSlug: pc.merchantSlug,
		Token:        token,
		Amount:       amount,
		Currency:     currency,
		Metadata:     metadata,
	}

	jsonBody, err := json.Marshal(reqData)
	if err != nil {
		return PaymentIntentResult{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, pc.baseURL+"/intents", bytes.NewBuffer(jsonBody))
	if err != nil {
		return PaymentIntentResult{}, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := pc.httpClient.Do(req)
	if err != nil {
		return PaymentIntentResult{}, fmt.Errorf("failed to create payment intent: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return PaymentIntentResult{}, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var result paymentIntentResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return PaymentIntentResult{}, fmt.Errorf("failed to decode response: %w", err)
	}

	if !result.Success {
		return PaymentIntentResult{}, fmt.Errorf("payment intent creation failed")
	}

	return PaymentIntentResult{
		ProviderPaymentID: result.PaymentID,
		ClientSecret:      result.ClientSecret,
	}, nil
}

// CancelPayment voids an intent at the provider, e.g. when a guest
// abandons checkout. Best-effort from the caller's perspective.
func (pc *PaymentClient) CancelPayment(ctx context.Context, paymentID, reason string) error {
	params := map[string]string{
		"PaymentId": paymentID,
	}
	token := pc.generateToken(params)

	reqData := map[string]interface{}{
		"merchantSlug": pc.merchantSlug,
		"token":        token,
		"paymentId":    paymentID,
		"reason":       reason,
	}

	jsonBody, err := json.Marshal(reqData)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, pc.baseURL+"/cancel", bytes.NewBuffer(jsonBody))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := pc.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to cancel payment: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return nil
}
