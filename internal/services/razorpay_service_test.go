package services

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventmart/commerce-backend/internal/config"
)

func razorpayTestService(baseURL string) *RazorpayService {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewRazorpayService(&config.PaymentConfig{
		BaseURL:   baseURL,
		KeyID:     "rzp_test_key",
		KeySecret: "rzp_test_secret",
		Currency:  "INR",
		Timeout:   5 * time.Second,
	}, logger)
}

func TestCreateOrder(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/initiate-payment", r.URL.Path)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

			user, pass, ok := r.BasicAuth()
			require.True(t, ok)
			assert.Equal(t, "rzp_test_key", user)
			assert.Equal(t, "rzp_test_secret", pass)

			var req map[string]interface{}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			// 180.00 INR in paise
			assert.Equal(t, float64(18000), req["amount"])
			assert.Equal(t, "INR", req["currency"])
			assert.Equal(t, "BKG-abc123", req["receipt"])

			json.NewEncoder(w).Encode(map[string]interface{}{
				"data": map[string]interface{}{
					"id":       "order_Mk9xyz",
					"amount":   18000,
					"currency": "INR",
					"receipt":  "BKG-abc123",
					"status":   "created",
				},
			})
		}))
		defer server.Close()

		service := razorpayTestService(server.URL)
		orderID, err := service.CreateOrder(context.Background(), 180.0, "BKG-abc123")
		require.NoError(t, err)
		assert.Equal(t, "order_Mk9xyz", orderID)
	})

	t.Run("Fractional Amount Rounds To Paise", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var req map[string]interface{}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			// 19.99 INR must reach the gateway as 1999, not the
			// truncated 1998
			assert.Equal(t, float64(1999), req["amount"])

			json.NewEncoder(w).Encode(map[string]interface{}{
				"data": map[string]interface{}{"id": "order_Frac1"},
			})
		}))
		defer server.Close()

		service := razorpayTestService(server.URL)
		orderID, err := service.CreateOrder(context.Background(), 19.99, "ORD-20260828-frac")
		require.NoError(t, err)
		assert.Equal(t, "order_Frac1", orderID)
	})

	t.Run("Missing Credentials", func(t *testing.T) {
		service := razorpayTestService("http://localhost:0")
		service.config.KeyID = ""

		_, err := service.CreateOrder(context.Background(), 100.0, "BKG-1")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "missing key credentials")
	})

	t.Run("Gateway Error Status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			w.Write([]byte(`{"message":"upstream error"}`))
		}))
		defer server.Close()

		service := razorpayTestService(server.URL)
		_, err := service.CreateOrder(context.Background(), 100.0, "BKG-1")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "status 502")
	})

	t.Run("Empty Order ID", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]interface{}{
				"data":    map[string]interface{}{},
				"message": "order rejected",
			})
		}))
		defer server.Close()

		service := razorpayTestService(server.URL)
		_, err := service.CreateOrder(context.Background(), 100.0, "BKG-1")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no order id")
	})
}

func TestVerifySignature(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/validate-payment", r.URL.Path)

			var req map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "order_Mk9xyz", req["orderId"])
			assert.Equal(t, "pay_Nk1abc", req["paymentId"])
			assert.Equal(t, "sig_hex", req["signature"])

			json.NewEncoder(w).Encode(map[string]interface{}{
				"data": map[string]interface{}{"valid": true},
			})
		}))
		defer server.Close()

		service := razorpayTestService(server.URL)
		valid, err := service.VerifySignature(context.Background(), "order_Mk9xyz", "pay_Nk1abc", "sig_hex")
		require.NoError(t, err)
		assert.True(t, valid)
	})

	t.Run("Invalid", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]interface{}{
				"data": map[string]interface{}{"valid": false},
			})
		}))
		defer server.Close()

		service := razorpayTestService(server.URL)
		valid, err := service.VerifySignature(context.Background(), "order_Mk9xyz", "pay_Nk1abc", "sig_bad")
		require.NoError(t, err)
		assert.False(t, valid)
	})

	t.Run("Gateway Unreachable", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		server.Close()

		service := razorpayTestService(server.URL)
		_, err := service.VerifySignature(context.Background(), "order_1", "pay_1", "sig")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to call payment gateway")
	})
}
