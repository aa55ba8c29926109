package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const DefaultRazorpayURL = "https://api.razorpay.com/v1"

var (
	ErrSignatureInvalid   = errors.New("payment signature verification failed")
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
	ErrNotConfigured      = errors.New("payment gateway credentials not configured")
)

// Credentials ключи шлюза (платформы или ресторана)
type Credentials struct {
	KeyID     string
	KeySecret string
}

func (c Credentials) Configured() bool { return c.KeyID != "" && c.KeySecret != "" }

// GatewayOrder заказ на стороне шлюза
type GatewayOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

// Gateway creates payable orders on the payment provider.
type Gateway interface {
	CreateOrder(ctx context.Context, creds Credentials, amountMinor int64, currency, receipt string) (*GatewayOrder, error)
}

// RazorpayClient REST-клиент Razorpay Orders API
type RazorpayClient struct {
	baseURL string
	http    *http.Client
}

func NewRazorpayClient(baseURL string, timeout time.Duration) *RazorpayClient {
	if baseURL == "" {
		baseURL = DefaultRazorpayURL
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &RazorpayClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

var _ Gateway = (*RazorpayClient)(nil)

type razorpayError struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

func (c *RazorpayClient) CreateOrder(ctx context.Context, creds Credentials, amountMinor int64, currency, receipt string) (*GatewayOrder, error) {
	if !creds.Configured() {
		return nil, ErrNotConfigured
	}
	payload, err := json.Marshal(map[string]any{
		"amount":   amountMinor,
		"currency": currency,
		"receipt":  receipt,
	})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/orders", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(creds.KeyID, creds.KeySecret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrGatewayUnavailable, err)
	}
	if resp.StatusCode >= 300 {
		var rzErr razorpayError
		_ = json.Unmarshal(body, &rzErr)
		return nil, fmt.Errorf("%w: status %d: %s", ErrGatewayUnavailable, resp.StatusCode, rzErr.Error.Description)
	}
	var order GatewayOrder
	if err := json.Unmarshal(body, &order); err != nil {
		return nil, fmt.Errorf("%w: decode order: %v", ErrGatewayUnavailable, err)
	}
	return &order, nil
}

// Sign computes hex(HMAC-SHA256(secret, orderID|paymentID)).
func Sign(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify requires the supplied signature to match exactly.
func Verify(secret, orderID, paymentID, signature string) error {
	if secret == "" {
		return ErrNotConfigured
	}
	expected := Sign(secret, orderID, paymentID)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrSignatureInvalid
	}
	return nil
}

// ToMinorUnits converts 250.50 to 25050.
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}
