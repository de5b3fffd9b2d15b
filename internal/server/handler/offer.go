package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/takudzwam/pamsika/internal/domain"
	"github.com/takudzwam/pamsika/internal/service"
)

// maxOfferBody caps the multipart body for offer creation (images included).
const maxOfferBody = 32 << 20 // 32 MiB

// OfferHandler serves the offer negotiation endpoints.
type OfferHandler struct {
	neg    *service.Negotiation
	logger *slog.Logger
}

// NewOfferHandler creates an OfferHandler.
func NewOfferHandler(neg *service.Negotiation, logger *slog.Logger) *OfferHandler {
	return &OfferHandler{neg: neg, logger: logger}
}

// CreateOffer accepts a multipart form with the offer fields and at least
// two image files under the "images" field, creates the offer, and
// broadcasts it to nearby sellers.
// POST /api/offers
func (h *OfferHandler) CreateOffer(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxOfferBody)
	if err := r.ParseMultipartForm(maxOfferBody); err != nil {
		writeError(w, http.StatusBadRequest, "malformed multipart form")
		return
	}

	quantity, err := strconv.Atoi(r.FormValue("quantity"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "quantity must be an integer")
		return
	}

	var images [][]byte
	if r.MultipartForm != nil {
		for _, fh := range r.MultipartForm.File["images"] {
			f, err := fh.Open()
			if err != nil {
				writeError(w, http.StatusBadRequest, "unreadable image upload")
				return
			}
			raw, err := io.ReadAll(f)
			f.Close()
			if err != nil {
				writeError(w, http.StatusBadRequest, "unreadable image upload")
				return
			}
			images = append(images, raw)
		}
	}

	offer, err := h.neg.CreateOffer(r.Context(), service.CreateOfferInput{
		BuyerID:     r.FormValue("buyer_id"),
		ProductName: r.FormValue("product_name"),
		Description: r.FormValue("description"),
		Price:       formFloat(r, "price", 0),
		Quantity:    quantity,
		Images:      images,
		Location: domain.Location{
			Lat: formFloat(r, "lat", 0),
			Lng: formFloat(r, "lng", 0),
		},
		RadiusKm: formFloat(r, "radius", 0),
	})
	if err != nil {
		h.respondOfferError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"offer_id": offer.ID,
		"message":  "Offer created and broadcasted",
	})
}

// GetOffer returns a live offer. Expired offers are indistinguishable from
// unknown ones.
// GET /api/offers/{id}
func (h *OfferHandler) GetOffer(w http.ResponseWriter, r *http.Request) {
	offer, err := h.neg.GetOffer(r.Context(), pathParam(r, "id"))
	if err != nil {
		h.respondOfferError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, offer)
}

// counterRequest is the JSON body for counter submissions.
type counterRequest struct {
	SellerID string  `json:"seller_id"`
	NewPrice float64 `json:"new_price"`
	Message  string  `json:"message"`
}

// CounterOffer records a seller's counter and notifies the buyer.
// POST /api/offers/{id}/counter
func (h *OfferHandler) CounterOffer(w http.ResponseWriter, r *http.Request) {
	var req counterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed JSON body")
		return
	}

	counter, err := h.neg.CounterOffer(r.Context(), pathParam(r, "id"), req.SellerID, req.NewPrice, req.Message)
	if err != nil {
		h.respondOfferError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"counter_id": counter.ID,
		"message":    "Counter offer sent",
	})
}

// acceptRequest is the JSON body for accept submissions.
type acceptRequest struct {
	SellerID string `json:"seller_id"`
}

// AcceptOffer accepts a pending offer and triggers the mutual contact
// exchange. A second accept gets 409.
// POST /api/offers/{id}/accept
func (h *OfferHandler) AcceptOffer(w http.ResponseWriter, r *http.Request) {
	var req acceptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed JSON body")
		return
	}

	if _, err := h.neg.AcceptOffer(r.Context(), pathParam(r, "id"), req.SellerID); err != nil {
		h.respondOfferError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Offer accepted, contact information exchanged",
	})
}

// respondOfferError maps negotiation errors onto HTTP statuses.
func (h *OfferHandler) respondOfferError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "Offer not found")
	case errors.Is(err, domain.ErrTooFewImages):
		writeError(w, http.StatusBadRequest, "Minimum 2 images required")
	case errors.Is(err, domain.ErrUnsupportedImage):
		writeError(w, http.StatusBadRequest, "Invalid image format")
	case errors.Is(err, domain.ErrInvalidPrice):
		writeError(w, http.StatusBadRequest, "Price must be positive")
	case errors.Is(err, domain.ErrInvalidQuantity):
		writeError(w, http.StatusBadRequest, "Quantity must be positive")
	case errors.Is(err, domain.ErrAlreadyAccepted):
		writeError(w, http.StatusConflict, "Offer already accepted")
	default:
		h.logger.ErrorContext(r.Context(), "offer operation failed",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
