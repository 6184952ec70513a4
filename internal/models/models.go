package models

// CreateBookingRequest - модель для прямого (без предоплаты) бронирования
type CreateBookingRequest struct {
	ListingID  string `json:"listing_id" binding:"required"`
	CheckIn    string `json:"check_in" binding:"required"`
	CheckOut   string `json:"check_out" binding:"required"`
	GuestCount int    `json:"guest_count" binding:"required"`
}

// CreateBookingResponse - модель ответа при создании бронирования
type CreateBookingResponse struct {
	ID         string `json:"id"`
	TotalPrice int64  `json:"total_price"`
	Status     string `json:"status"`
}

// BookingActionRequest - PATCH /api/bookings/:id
type BookingActionRequest struct {
	Action string `json:"action" binding:"required,oneof=confirm cancel"`
}

// ListBookingsResponseItem - элемент списка бронирований
type ListBookingsResponseItem struct {
	ID         string `json:"id"`
	ListingID  string `json:"listing_id"`
	CheckIn    string `json:"check_in"`
	CheckOut   string `json:"check_out"`
	TotalPrice int64  `json:"total_price"`
	Status     string `json:"status"`
}

// ListBookingsResponse - список бронирований
type ListBookingsResponse []ListBookingsResponseItem

// CreateIntentRequest - модель для начала pay-to-book оформления
type CreateIntentRequest struct {
	ListingID  string `json:"listing_id" binding:"required"`
	CheckIn    string `json:"check_in" binding:"required"`
	CheckOut   string `json:"check_out" binding:"required"`
	GuestCount int    `json:"guest_count" binding:"required"`
}

// CreateIntentResponse - ответ с данными платежного намерения
type CreateIntentResponse struct {
	ProviderPaymentID string `json:"provider_payment_id"`
	ClientSecret      string `json:"client_secret"`
	TotalPrice        int64  `json:"total_price"`
}

// Webhook event types delivered by the payment provider. Signature
// verification happens at the boundary before this payload is parsed.
const (
	WebhookPaymentSucceeded = "payment.succeeded"
	WebhookPaymentFailed    = "payment.failed"
)

// PaymentWebhookPayload - модель для webhook уведомлений от платежного шлюза
type PaymentWebhookPayload struct {
	Type              string            `json:"type"`
	ProviderPaymentID string            `json:"providerPaymentId"`
	Metadata          map[string]string `json:"metadata"`
	Reason            string            `json:"reason,omitempty"`
}
