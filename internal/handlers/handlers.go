package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"homestay/internal/cache"
	apperrors "homestay/internal/errors"
	"homestay/internal/metrics"
	"homestay/internal/middleware"
	"homestay/internal/service"

	"github.com/gin-gonic/gin"
)

type Handlers struct {
	services     *service.Services
	valkeyClient *cache.ValkeyClient
}

func NewHandlers(services *service.Services, valkeyClient *cache.ValkeyClient) *Handlers {
	return &Handlers{
		services:     services,
		valkeyClient: valkeyClient,
	}
}

// respondError переводит ошибки резервирования в HTTP статусы
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apperrors.ErrInvalidInput), errors.Is(err, apperrors.ErrInvalidRange):
		metrics.BookingsRejected.WithLabelValues("invalid_input").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrListingNotFound):
		metrics.BookingsRejected.WithLabelValues("listing_not_found").Inc()
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrBookingNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrDateRangeUnavailable):
		metrics.BookingsRejected.WithLabelValues("unavailable").Inc()
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrInvalidWebhookPayload):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		slog.Error("Request failed", "error", err, "path", c.Request.URL.Path)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// currentUserID reads the identity BasicAuth placed into the request
// context.
func currentUserID(c *gin.Context) (int64, bool) {
	return middleware.UserIDFromContext(c.Request.Context())
}
