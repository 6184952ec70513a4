package consumers

import (
	"context"
	"encoding/json"
	"log/slog"

	"homestay/internal/cache"
	"homestay/internal/models"
	"homestay/internal/repository"

	"github.com/nats-io/stan.go"
)

type Handlers struct {
	repos  *repository.Repositories
	valkey *cache.ValkeyClient
}

func NewHandlers(repos *repository.Repositories, valkey *cache.ValkeyClient) *Handlers {
	return &Handlers{
		repos:  repos,
		valkey: valkey,
	}
}

// wrap adapts a payload handler to the stan contract and acks after it.
func wrap(handler func(data []byte)) stan.MsgHandler {
	return func(m *stan.Msg) {
		handler(m.Data)
		m.Ack()
	}
}

func (h *Handlers) HandleBookingCreated(data []byte) {
	var event models.BookingCreatedEvent
	if err := json.Unmarshal(data, &event); err != nil {
		slog.Error("Failed to unmarshal booking created event", "error", err)
		return
	}

	slog.Info("Processing booking created event",
		"booking_id", event.BookingID,
		"listing_id", event.ListingID,
		"status", event.Status)

	// Здесь же можно слать письмо хосту о новом запросе
	h.invalidateListing(event.ListingID)
}

func (h *Handlers) HandleBookingConfirmed(data []byte) {
	var event models.BookingConfirmedEvent
	if err := json.Unmarshal(data, &event); err != nil {
		slog.Error("Failed to unmarshal booking confirmed event", "error", err)
		return
	}

	slog.Info("Processing booking confirmed event",
		"booking_id", event.BookingID,
		"listing_id", event.ListingID)

	h.invalidateListing(event.ListingID)
}

func (h *Handlers) HandleBookingCancelled(data []byte) {
	var event models.BookingCancelledEvent
	if err := json.Unmarshal(data, &event); err != nil {
		slog.Error("Failed to unmarshal booking cancelled event", "error", err)
		return
	}

	slog.Info("Processing booking cancelled event",
		"booking_id", event.BookingID,
		"listing_id", event.ListingID,
		"reason", event.Reason)

	// Отмена освобождает даты, кеш листинга устарел
	h.invalidateListing(event.ListingID)
}

func (h *Handlers) HandleBookingExpired(data []byte) {
	var event models.BookingExpiredEvent
	if err := json.Unmarshal(data, &event); err != nil {
		slog.Error("Failed to unmarshal booking expired event", "error", err)
		return
	}

	slog.Info("Processing booking expired event",
		"booking_id", event.BookingID,
		"listing_id", event.ListingID)

	h.invalidateListing(event.ListingID)
}

// HandleBookingConflict surfaces double-paid stays for host review. The
// booking row already carries needs_review, so the job here is only to
// make the conflict visible.
func (h *Handlers) HandleBookingConflict(data []byte) {
	var event models.BookingConflictEvent
	if err := json.Unmarshal(data, &event); err != nil {
		slog.Error("Failed to unmarshal booking conflict event", "error", err)
		return
	}

	ctx := context.Background()

	booking, err := h.repos.Bookings.GetByID(ctx, event.BookingID)
	if err != nil {
		slog.Error("Failed to load conflicting booking", "booking_id", event.BookingID, "error", err)
		return
	}
	if booking == nil {
		slog.Warn("Conflict event for unknown booking", "booking_id", event.BookingID)
		return
	}

	listing, err := h.repos.Listings.GetByID(ctx, event.ListingID)
	if err != nil || listing == nil {
		slog.Error("Failed to load listing for conflict notification",
			"listing_id", event.ListingID, "error", err)
		return
	}

	// TODO: заменить лог на реальное уведомление, когда появится канал
	// доставки для хостов
	slog.Warn("Booking requires host review",
		"booking_id", booking.ID,
		"listing_id", listing.ID,
		"host_id", listing.HostID,
		"check_in", booking.CheckIn.Format(models.DateLayout),
		"check_out", booking.CheckOut.Format(models.DateLayout),
		"provider_payment_id", event.ProviderPaymentID)
}

func (h *Handlers) HandlePaymentFailed(data []byte) {
	var event models.PaymentFailedEvent
	if err := json.Unmarshal(data, &event); err != nil {
		slog.Error("Failed to unmarshal payment failed event", "error", err)
		return
	}

	// Неуспешный платеж не создает брони, достаточно следа в логах
	slog.Info("Processing payment failed event",
		"provider_payment_id", event.ProviderPaymentID,
		"reason", event.Reason)
}

func (h *Handlers) invalidateListing(listingID string) {
	if h.valkey == nil {
		return
	}
	if err := h.valkey.InvalidateListing(context.Background(), listingID); err != nil {
		slog.Debug("Failed to invalidate listing cache", "listing_id", listingID, "error", err)
	}
}
