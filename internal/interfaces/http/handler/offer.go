package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/offerdesk/backend/internal/application/generation"
	"github.com/offerdesk/backend/internal/domain/offer"
	"github.com/offerdesk/backend/internal/infrastructure/logger"
	"github.com/offerdesk/backend/internal/interfaces/http/dto"
)

// OfferHandler handles offer PDF generation requests
type OfferHandler struct {
	BaseHandler
	service *generation.Service
}

// NewOfferHandler creates a new OfferHandler
func NewOfferHandler(service *generation.Service) *OfferHandler {
	return &OfferHandler{service: service}
}

// GeneratePDF accepts an offer document and runs the full generation
// pipeline, returning the stored PDF's metadata.
// POST /api/v1/offers/generate-pdf
func (h *OfferHandler) GeneratePDF(c *gin.Context) {
	var o offer.Offer
	if err := c.ShouldBindJSON(&o); err != nil {
		h.Error(c, dto.GetHTTPStatus(dto.ErrCodeInvalidJSON), dto.ErrCodeInvalidJSON,
			"invalid offer payload: "+err.Error())
		return
	}

	log := logger.GetGinLogger(c)
	log.Info("offer generation requested",
		zap.String("offerId", o.OfferID),
		zap.String("client", o.Client.Company))

	result, err := h.service.GenerateOffer(c.Request.Context(), &o)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, result)
}
