// Package payment talks to the PortOne (iamport) REST API to confirm that a
// payment really happened before coins are credited.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"saju-backend/internal/domain"
	"saju-backend/internal/logger"
)

// ErrPaymentNotFound means the PSP has no record of the payment. It is a
// definitive answer, unlike transport failures.
var ErrPaymentNotFound = errors.New("payment not found at PSP")

type Verifier interface {
	Verify(ctx context.Context, paymentID string) (*domain.VerifiedPayment, error)
}

type PortOneConfig struct {
	BaseURL   string
	APIKey    string
	APISecret string
	Timeout   time.Duration
}

type PortOneClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	apiSecret  string

	mu          sync.Mutex
	accessToken string
	expiresAt   time.Time
}

func NewPortOneClient(cfg PortOneConfig) *PortOneClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &PortOneClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		apiSecret:  cfg.APISecret,
	}
}

// envelope is the common PortOne response wrapper. code is 0 on success.
type envelope struct {
	Code     int             `json:"code"`
	Message  string          `json:"message"`
	Response json.RawMessage `json:"response"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiredAt   int64  `json:"expired_at"`
}

type paymentResponse struct {
	ImpUID      string `json:"imp_uid"`
	MerchantUID string `json:"merchant_uid"`
	Amount      int64  `json:"amount"`
	Status      string `json:"status"`
}

func (c *PortOneClient) do(ctx context.Context, method, path, token string, body interface{}) (*envelope, int, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read response: %w", err)
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, resp.StatusCode, fmt.Errorf("decode response (status %d): %w", resp.StatusCode, err)
	}
	return &env, resp.StatusCode, nil
}

func (c *PortOneClient) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Now().Add(time.Minute).Before(c.expiresAt) {
		return c.accessToken, nil
	}

	env, status, err := c.do(ctx, http.MethodPost, "/users/getToken", "", map[string]string{
		"imp_key":    c.apiKey,
		"imp_secret": c.apiSecret,
	})
	if err != nil {
		return "", err
	}
	if status != http.StatusOK || env.Code != 0 {
		return "", fmt.Errorf("portone token request rejected: status=%d code=%d message=%s", status, env.Code, env.Message)
	}

	var tok tokenResponse
	if err := json.Unmarshal(env.Response, &tok); err != nil {
		return "", fmt.Errorf("decode token: %w", err)
	}
	c.accessToken = tok.AccessToken
	c.expiresAt = time.Unix(tok.ExpiredAt, 0)
	return c.accessToken, nil
}

func (c *PortOneClient) Verify(ctx context.Context, paymentID string) (*domain.VerifiedPayment, error) {
	logger.ExternalServiceCall("portone", "GetPayment", "paymentID", paymentID)

	token, err := c.token(ctx)
	if err != nil {
		logger.ExternalServiceResult("portone", "GetPayment", err)
		return nil, err
	}

	env, status, err := c.do(ctx, http.MethodGet, "/payments/"+url.PathEscape(paymentID), token, nil)
	if err != nil {
		logger.ExternalServiceResult("portone", "GetPayment", err)
		return nil, err
	}
	if status == http.StatusNotFound || (status == http.StatusOK && env.Code != 0) {
		logger.ExternalServiceResult("portone", "GetPayment", ErrPaymentNotFound, "message", env.Message)
		return nil, ErrPaymentNotFound
	}
	if status != http.StatusOK {
		err := fmt.Errorf("portone returned status %d: %s", status, env.Message)
		logger.ExternalServiceResult("portone", "GetPayment", err)
		return nil, err
	}

	var p paymentResponse
	if err := json.Unmarshal(env.Response, &p); err != nil {
		return nil, fmt.Errorf("decode payment: %w", err)
	}
	logger.ExternalServiceResult("portone", "GetPayment", nil, "status", p.Status, "amount", p.Amount)
	return &domain.VerifiedPayment{
		PaymentID:   p.ImpUID,
		MerchantUID: p.MerchantUID,
		Amount:      p.Amount,
		Status:      p.Status,
	}, nil
}
