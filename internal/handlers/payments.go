package handlers

import (
	"log/slog"
	"net/http"

	"homestay/internal/models"

	"github.com/gin-gonic/gin"
)

// Payments handlers

// CreateIntent - POST /api/payments/create-intent
// Начать pay-to-book оформление: платежное намерение без строки брони
func (h *Handlers) CreateIntent(c *gin.Context) {
	var req models.CreateIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	response, err := h.services.Reservations.BeginPaidCheckout(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response)
}

// OnPaymentWebhook - POST /api/payments/webhook
// Принимать уведомления от платежного шлюза. Подпись проверяется на
// граничном слое до этого обработчика. Любой не-2xx ответ заставит
// провайдера повторить доставку.
func (h *Handlers) OnPaymentWebhook(c *gin.Context) {
	var payload models.PaymentWebhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()

	switch payload.Type {
	case models.WebhookPaymentSucceeded:
		booking, err := h.services.Reconciler.HandlePaymentSucceeded(ctx, payload.ProviderPaymentID, payload.Metadata)
		if err != nil {
			slog.Error("Failed to reconcile payment",
				"error", err,
				"provider_payment_id", payload.ProviderPaymentID)
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"booking_id": booking.ID, "status": booking.Status})

	case models.WebhookPaymentFailed:
		if err := h.services.Reconciler.HandlePaymentFailed(ctx, payload.ProviderPaymentID, payload.Reason); err != nil {
			respondError(c, err)
			return
		}
		c.Status(http.StatusOK)

	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown event type"})
	}
}
