package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Listings handlers (read-only; listings are owned by a collaborator)

// GetListing - GET /api/listings/:id
// Чтение листинга с кешем Valkey
func (h *Handlers) GetListing(c *gin.Context) {
	listingID := c.Param("id")
	ctx := c.Request.Context()

	if h.valkeyClient != nil {
		rawJSON, err := h.valkeyClient.GetListingRaw(ctx, listingID)
		if err == nil {
			c.Data(http.StatusOK, "application/json", rawJSON)
			return
		}
	}

	listing, err := h.services.Reservations.GetListing(ctx, listingID)
	if err != nil {
		respondError(c, err)
		return
	}

	if h.valkeyClient != nil {
		if err := h.valkeyClient.SetListing(ctx, listingID, listing); err != nil {
			slog.Debug("Failed to cache listing", "error", err, "listing_id", listingID)
		}
	}

	c.JSON(http.StatusOK, listing)
}
