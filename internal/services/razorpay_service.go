package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/eventmart/commerce-backend/internal/config"
)

// PaymentGateway is the capability the booking and order flows need
// from a payment provider. Implementations must be safe for
// concurrent use.
type PaymentGateway interface {
	// CreateOrder registers the amount with the gateway and returns
	// the gateway's order id for the client-side checkout.
	CreateOrder(ctx context.Context, amount float64, receipt string) (string, error)

	// VerifySignature checks the signature the client returned after
	// checkout. A false return means the payment must not be honored.
	VerifySignature(ctx context.Context, gatewayOrderID, gatewayPaymentID, signature string) (bool, error)
}

// RazorpayService talks to the Razorpay bridge over HTTP
type RazorpayService struct {
	config *config.PaymentConfig
	logger *logrus.Logger
	client *http.Client
}

// NewRazorpayService creates a new Razorpay gateway client
func NewRazorpayService(cfg *config.PaymentConfig, logger *logrus.Logger) *RazorpayService {
	return &RazorpayService{
		config: cfg,
		logger: logger,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// razorpayOrderRequest is the create-order payload. Amount is in the
// currency's smallest unit (paise for INR).
type razorpayOrderRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

// razorpayOrderResponse wraps the created order
type razorpayOrderResponse struct {
	Data struct {
		ID       string `json:"id"`
		Amount   int64  `json:"amount"`
		Currency string `json:"currency"`
		Receipt  string `json:"receipt"`
		Status   string `json:"status"`
	} `json:"data"`
	Message string `json:"message,omitempty"`
}

// razorpayVerifyRequest is the signature verification payload
type razorpayVerifyRequest struct {
	OrderID   string `json:"orderId"`
	PaymentID string `json:"paymentId"`
	Signature string `json:"signature"`
}

// razorpayVerifyResponse reports whether the signature matched
type razorpayVerifyResponse struct {
	Data struct {
		Valid bool `json:"valid"`
	} `json:"data"`
	Message string `json:"message,omitempty"`
}

// CreateOrder registers a gateway order for the given amount
func (s *RazorpayService) CreateOrder(ctx context.Context, amount float64, receipt string) (string, error) {
	if s.config.KeyID == "" || s.config.KeySecret == "" {
		return "", fmt.Errorf("payment gateway not configured: missing key credentials")
	}

	// Rounded, not truncated: 19.99 is 1998.9999... in float paise
	request := razorpayOrderRequest{
		Amount:   int64(math.Round(amount * 100)),
		Currency: s.config.Currency,
		Receipt:  receipt,
	}

	s.logger.WithFields(logrus.Fields{
		"receipt":  receipt,
		"amount":   request.Amount,
		"currency": request.Currency,
	}).Info("Creating Razorpay order")

	var response razorpayOrderResponse
	if err := s.post(ctx, "/initiate-payment", request, &response); err != nil {
		s.logger.WithError(err).Error("Failed to create Razorpay order")
		return "", err
	}

	if response.Data.ID == "" {
		return "", fmt.Errorf("gateway returned no order id: %s", response.Message)
	}

	s.logger.WithFields(logrus.Fields{
		"receipt":          receipt,
		"gateway_order_id": response.Data.ID,
	}).Info("Razorpay order created")

	return response.Data.ID, nil
}

// VerifySignature checks the checkout signature with the gateway
func (s *RazorpayService) VerifySignature(ctx context.Context, gatewayOrderID, gatewayPaymentID, signature string) (bool, error) {
	request := razorpayVerifyRequest{
		OrderID:   gatewayOrderID,
		PaymentID: gatewayPaymentID,
		Signature: signature,
	}

	var response razorpayVerifyResponse
	if err := s.post(ctx, "/validate-payment", request, &response); err != nil {
		s.logger.WithError(err).WithField("gateway_order_id", gatewayOrderID).
			Error("Failed to verify Razorpay signature")
		return false, err
	}

	s.logger.WithFields(logrus.Fields{
		"gateway_order_id": gatewayOrderID,
		"valid":            response.Data.Valid,
	}).Info("Razorpay signature verified")

	return response.Data.Valid, nil
}

// post sends a JSON request to the bridge and decodes the response
func (s *RazorpayService) post(ctx context.Context, path string, payload, dest interface{}) error {
	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.BaseURL+path, bytes.NewBuffer(jsonBody))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(s.config.KeyID, s.config.KeySecret)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call payment gateway: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("payment gateway returned status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
