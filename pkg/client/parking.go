package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"smartparking/pkg/model"
)

// APIError is returned for any non-2xx response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("parking api: %d %s", e.StatusCode, e.Message)
}

// ParkingClient is a typed client for the parking HTTP API.
type ParkingClient struct {
	http *HttpClient
}

func NewParkingClient(baseURL string, opts ...ClientOption) *ParkingClient {
	return &ParkingClient{http: NewHttpClient(baseURL, opts...)}
}

type ReserveSlotRequest struct {
	UserID     string `json:"userId"`
	SlotNumber int    `json:"slotNumber"`
}

type ReservationResult struct {
	Message     string            `json:"message"`
	Reservation model.Reservation `json:"reservation"`
}

type PaymentResult struct {
	Message string        `json:"message"`
	Payment model.Payment `json:"payment"`
}

func (c *ParkingClient) ReserveSlot(ctx context.Context, req ReserveSlotRequest) (*ReservationResult, error) {
	var out ReservationResult
	if err := c.post(ctx, "/reserve-slot", req, http.StatusCreated, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *ParkingClient) ProcessPayment(ctx context.Context, req model.PaymentInitiation) (*PaymentResult, error) {
	var out PaymentResult
	if err := c.post(ctx, "/process-payment", req, http.StatusCreated, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GenerateQRCode returns the PNG data URL for the payment intent.
func (c *ParkingClient) GenerateQRCode(ctx context.Context, req model.PaymentCodeRequest) (string, error) {
	var out struct {
		QRCode string `json:"qrCode"`
	}
	if err := c.post(ctx, "/generate-qrcode", req, http.StatusOK, &out); err != nil {
		return "", err
	}
	return out.QRCode, nil
}

func (c *ParkingClient) ConfirmPayment(ctx context.Context, req model.PaymentConfirmation) (*PaymentResult, error) {
	var out PaymentResult
	if err := c.post(ctx, "/confirm-payment", req, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DummyConfirmation follows the browser confirmation link and returns the
// raw page body.
func (c *ParkingClient) DummyConfirmation(ctx context.Context, req model.PaymentConfirmation) (string, error) {
	query := url.Values{}
	query.Set("userId", req.UserID)
	query.Set("slotNumber", strconv.Itoa(req.SlotNumber))
	query.Set("paymentId", req.PaymentID)

	resp, err := c.http.GET(ctx, "/dummy-confirmation", Query(query))
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", &APIError{StatusCode: resp.StatusCode, Message: string(resp.Body)}
	}
	return string(resp.Body), nil
}

func (c *ParkingClient) GetPayment(ctx context.Context, id string) (*model.Payment, error) {
	resp, err := c.http.GET(ctx, "/payments/"+url.PathEscape(id))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: GetErrorMessage(resp)}
	}

	var payment model.Payment
	if err := resp.DecodeJSON(&payment); err != nil {
		return nil, fmt.Errorf("failed to decode payment: %w", err)
	}
	return &payment, nil
}

func (c *ParkingClient) WaitForHealthy(ctx context.Context, maxWait time.Duration) error {
	return c.http.WaitForHealthy(ctx, maxWait)
}

func (c *ParkingClient) post(ctx context.Context, path string, body any, wantStatus int, out any) error {
	resp, err := c.http.POST(ctx, path, body)
	if err != nil {
		return err
	}
	if resp.StatusCode != wantStatus {
		return &APIError{StatusCode: resp.StatusCode, Message: GetErrorMessage(resp)}
	}
	if err := resp.DecodeJSON(out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", path, err)
	}
	return nil
}
