package handler

import (
	"log/slog"
	"net/http"

	"github.com/takudzwam/pamsika/internal/domain"
	"github.com/takudzwam/pamsika/internal/service"
)

// SellerHandler serves seller discovery endpoints.
type SellerHandler struct {
	sellers *service.Sellers
	logger  *slog.Logger
}

// NewSellerHandler creates a SellerHandler.
func NewSellerHandler(sellers *service.Sellers, logger *slog.Logger) *SellerHandler {
	return &SellerHandler{sellers: sellers, logger: logger}
}

// ListNearby returns sellers within the given radius of a point, closest
// first. The radius defaults to the standard broadcast radius.
// GET /api/sellers/nearby?lat=&lng=&radius=
func (h *SellerHandler) ListNearby(w http.ResponseWriter, r *http.Request) {
	lat := queryFloat(r, "lat", 0)
	lng := queryFloat(r, "lng", 0)
	radius := queryFloat(r, "radius", domain.DefaultBroadcastRadiusKm)

	summaries, err := h.sellers.ListNearby(r.Context(), lat, lng, radius)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "nearby seller lookup failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"sellers": summaries,
		"count":   len(summaries),
	})
}
