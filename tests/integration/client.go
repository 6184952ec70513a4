package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"

	"homestay/internal/models"
)

// TestClient provides methods for testing the API
type TestClient struct {
	BaseURL    string
	Email      string
	Password   string
	HTTPClient *http.Client
}

// NewTestClient creates a new test client authenticated as the given user
func NewTestClient(baseURL, email, password string) *TestClient {
	return &TestClient{
		BaseURL:  baseURL,
		Email:    email,
		Password: password,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// makeRequest makes an HTTP request and returns the response
func (c *TestClient) makeRequest(t *testing.T, method, path string, body interface{}) *http.Response {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to marshal request body: %v", err)
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, c.BaseURL+path, reqBody)
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.SetBasicAuth(c.Email, c.Password)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		t.Fatalf("Failed to make request: %v", err)
	}

	return resp
}

// Ping checks reachability without failing the test
func (c *TestClient) Ping() error {
	req, err := http.NewRequest("GET", c.BaseURL+"/health", nil)
	if err != nil {
		return err
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned %d", resp.StatusCode)
	}
	return nil
}

// CreateBooking creates a direct booking and asserts 201
func (c *TestClient) CreateBooking(t *testing.T, req models.CreateBookingRequest) *models.CreateBookingResponse {
	resp := c.makeRequest(t, "POST", "/api/bookings", req)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("Expected status 201, got %d. Body: %s", resp.StatusCode, string(body))
	}

	var booking models.CreateBookingResponse
	if err := json.NewDecoder(resp.Body).Decode(&booking); err != nil {
		t.Fatalf("Failed to decode booking response: %v", err)
	}

	return &booking
}

// TryCreateBooking creates a direct booking and returns the raw status code
func (c *TestClient) TryCreateBooking(t *testing.T, req models.CreateBookingRequest) int {
	resp := c.makeRequest(t, "POST", "/api/bookings", req)
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return resp.StatusCode
}

// RaceCreateBooking is safe to call from concurrent goroutines:
// transport errors come back as status 0 instead of failing the test.
func (c *TestClient) RaceCreateBooking(req models.CreateBookingRequest) int {
	jsonBody, err := json.Marshal(req)
	if err != nil {
		return 0
	}

	httpReq, err := http.NewRequest("POST", c.BaseURL+"/api/bookings", bytes.NewBuffer(jsonBody))
	if err != nil {
		return 0
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.SetBasicAuth(c.Email, c.Password)

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return 0
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return resp.StatusCode
}

// ListBookings lists bookings for the authenticated guest
func (c *TestClient) ListBookings(t *testing.T) models.ListBookingsResponse {
	resp := c.makeRequest(t, "GET", "/api/bookings", nil)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("Expected status 200, got %d. Body: %s", resp.StatusCode, string(body))
	}

	var bookings models.ListBookingsResponse
	if err := json.NewDecoder(resp.Body).Decode(&bookings); err != nil {
		t.Fatalf("Failed to decode bookings response: %v", err)
	}

	return bookings
}

// GetBooking fetches a single booking by id
func (c *TestClient) GetBooking(t *testing.T, bookingID string) *models.Booking {
	resp := c.makeRequest(t, "GET", "/api/bookings/"+bookingID, nil)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("Expected status 200, got %d. Body: %s", resp.StatusCode, string(body))
	}

	var booking models.Booking
	if err := json.NewDecoder(resp.Body).Decode(&booking); err != nil {
		t.Fatalf("Failed to decode booking response: %v", err)
	}

	return &booking
}

// CancelBooking cancels a booking and returns the status code
func (c *TestClient) CancelBooking(t *testing.T, bookingID string) int {
	resp := c.makeRequest(t, "DELETE", "/api/bookings/"+bookingID, nil)
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return resp.StatusCode
}

// CreateIntent starts a pay-to-book checkout
func (c *TestClient) CreateIntent(t *testing.T, req models.CreateIntentRequest) *models.CreateIntentResponse {
	resp := c.makeRequest(t, "POST", "/api/payments/create-intent", req)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("Expected status 201, got %d. Body: %s", resp.StatusCode, string(body))
	}

	var intent models.CreateIntentResponse
	if err := json.NewDecoder(resp.Body).Decode(&intent); err != nil {
		t.Fatalf("Failed to decode intent response: %v", err)
	}

	return &intent
}

// WebhookResult is the decoded webhook acknowledgement
type WebhookResult struct {
	StatusCode string
	BookingID  string
	Status     string
}

// SendPaymentWebhook delivers a provider notification and returns the
// status code plus the acknowledged booking, if any
func (c *TestClient) SendPaymentWebhook(t *testing.T, payload models.PaymentWebhookPayload) (int, *WebhookResult) {
	resp := c.makeRequest(t, "POST", "/api/payments/webhook", payload)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return resp.StatusCode, nil
	}

	var ack struct {
		BookingID string `json:"booking_id"`
		Status    string `json:"status"`
	}
	// Failed-payment acks have an empty body
	if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
		return resp.StatusCode, nil
	}

	return resp.StatusCode, &WebhookResult{
		BookingID: ack.BookingID,
		Status:    ack.Status,
	}
}

// GetListing fetches a listing by id
func (c *TestClient) GetListing(t *testing.T, listingID string) *models.Listing {
	resp := c.makeRequest(t, "GET", "/api/listings/"+listingID, nil)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("Expected status 200, got %d. Body: %s", resp.StatusCode, string(body))
	}

	var listing models.Listing
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		t.Fatalf("Failed to decode listing response: %v", err)
	}

	return &listing
}
