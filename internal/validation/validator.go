package validation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"homestay/internal/models"
)

// SmokeValidator - дымовая проверка API против работающего сервера.
// Требует хотя бы одного активного листинга и пользователя из сидера.
type SmokeValidator struct {
	baseURL   string
	email     string
	password  string
	listingID string
}

// NewSmokeValidator создает новый валидатор
func NewSmokeValidator(baseURL string) *SmokeValidator {
	return &SmokeValidator{
		baseURL:   baseURL,
		email:     envOr("VALIDATE_EMAIL", "user001@example.com"),
		password:  envOr("VALIDATE_PASSWORD", "password"),
		listingID: os.Getenv("VALIDATE_LISTING_ID"),
	}
}

// ValidateAll проверяет все endpoints
func (v *SmokeValidator) ValidateAll() error {
	log.Println("Начинаю дымовую проверку API...")

	if err := v.validateHealth(); err != nil {
		return fmt.Errorf("Health validation failed: %w", err)
	}

	if v.listingID == "" {
		log.Println("VALIDATE_LISTING_ID не задан, пропускаю проверки бронирований")
		return nil
	}

	if err := v.validateListings(); err != nil {
		return fmt.Errorf("Listings validation failed: %w", err)
	}

	if err := v.validateBookings(); err != nil {
		return fmt.Errorf("Bookings validation failed: %w", err)
	}

	if err := v.validatePayments(); err != nil {
		return fmt.Errorf("Payments validation failed: %w", err)
	}

	log.Println("✅ Все endpoints прошли проверку успешно!")
	return nil
}

func (v *SmokeValidator) validateHealth() error {
	log.Println("Проверяю /health...")

	resp, err := v.makeRequest("GET", "/health", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET /health: expected 200, got %d", resp.StatusCode)
	}

	log.Println("✅ Health endpoint валиден")
	return nil
}

func (v *SmokeValidator) validateListings() error {
	log.Println("Проверяю Listings endpoints...")

	resp, err := v.makeRequest("GET", "/api/listings/"+v.listingID, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET /api/listings/:id: expected 200, got %d", resp.StatusCode)
	}

	var listing models.Listing
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return fmt.Errorf("GET /api/listings/:id: failed to decode response: %w", err)
	}

	if listing.ID != v.listingID {
		return fmt.Errorf("GET /api/listings/:id: expected id %s, got %s", v.listingID, listing.ID)
	}

	log.Println("✅ Listings endpoints валидны")
	return nil
}

func (v *SmokeValidator) validateBookings() error {
	log.Println("Проверяю Bookings endpoints...")

	// Даты в будущем, чтобы не упереться в существующие брони
	checkIn := time.Now().AddDate(2, 0, 0)
	checkOut := checkIn.AddDate(0, 0, 3)

	reqBody := models.CreateBookingRequest{
		ListingID:  v.listingID,
		CheckIn:    checkIn.Format(models.DateLayout),
		CheckOut:   checkOut.Format(models.DateLayout),
		GuestCount: 2,
	}

	resp, err := v.makeRequest("POST", "/api/bookings", reqBody)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusCreated {
		resp.Body.Close()
		return fmt.Errorf("POST /api/bookings: expected 201, got %d", resp.StatusCode)
	}

	var createResp models.CreateBookingResponse
	if err := json.NewDecoder(resp.Body).Decode(&createResp); err != nil {
		resp.Body.Close()
		return fmt.Errorf("POST /api/bookings: failed to decode response: %w", err)
	}
	resp.Body.Close()

	if createResp.ID == "" {
		return fmt.Errorf("POST /api/bookings: expected non-empty ID")
	}
	if createResp.Status != string(models.BookingPending) {
		return fmt.Errorf("POST /api/bookings: expected PENDING status, got %s", createResp.Status)
	}

	// GET /api/bookings
	resp, err = v.makeRequest("GET", "/api/bookings", nil)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return fmt.Errorf("GET /api/bookings: expected 200, got %d", resp.StatusCode)
	}

	var listResp models.ListBookingsResponse
	if err := json.NewDecoder(resp.Body).Decode(&listResp); err != nil {
		resp.Body.Close()
		return fmt.Errorf("GET /api/bookings: failed to decode response: %w", err)
	}
	resp.Body.Close()

	if len(listResp) == 0 {
		return fmt.Errorf("GET /api/bookings: expected non-empty list")
	}

	// DELETE /api/bookings/:id освобождает даты для следующего прогона
	resp, err = v.makeRequest("DELETE", "/api/bookings/"+createResp.ID, nil)
	if err != nil {
		return err
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("DELETE /api/bookings/:id: expected 200, got %d", resp.StatusCode)
	}

	log.Println("✅ Bookings endpoints валидны")
	return nil
}

func (v *SmokeValidator) validatePayments() error {
	log.Println("Проверяю Payments endpoints...")

	checkIn := time.Now().AddDate(2, 1, 0)
	checkOut := checkIn.AddDate(0, 0, 2)

	reqBody := models.CreateIntentRequest{
		ListingID:  v.listingID,
		CheckIn:    checkIn.Format(models.DateLayout),
		CheckOut:   checkOut.Format(models.DateLayout),
		GuestCount: 1,
	}

	resp, err := v.makeRequest("POST", "/api/payments/create-intent", reqBody)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("POST /api/payments/create-intent: expected 201, got %d", resp.StatusCode)
	}

	var intentResp models.CreateIntentResponse
	if err := json.NewDecoder(resp.Body).Decode(&intentResp); err != nil {
		return fmt.Errorf("POST /api/payments/create-intent: failed to decode response: %w", err)
	}

	if intentResp.ProviderPaymentID == "" {
		return fmt.Errorf("POST /api/payments/create-intent: expected non-empty provider_payment_id")
	}
	if intentResp.TotalPrice <= 0 {
		return fmt.Errorf("POST /api/payments/create-intent: expected positive total_price, got %d", intentResp.TotalPrice)
	}

	log.Println("✅ Payments endpoints валидны")
	return nil
}

func (v *SmokeValidator) makeRequest(method, path string, body interface{}) (*http.Response, error) {
	var req *http.Request
	var err error

	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}

		req, err = http.NewRequest(method, v.baseURL+path, bytes.NewBuffer(jsonBody))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
	} else {
		req, err = http.NewRequest(method, v.baseURL+path, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
	}

	req.SetBasicAuth(v.email, v.password)

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}

	return resp, nil
}

func envOr(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// RunValidation запускает дымовую проверку API
func RunValidation() {
	baseURL := envOr("VALIDATE_BASE_URL", "http://localhost:8080")

	validator := NewSmokeValidator(baseURL)
	if err := validator.ValidateAll(); err != nil {
		log.Fatalf("❌ Проверка не пройдена: %v", err)
	}
}
