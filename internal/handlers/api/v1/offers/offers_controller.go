// ===============================
// FILE: internal/handlers/api/v1/offers/offers_controller.go
// ===============================

package offers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"campusmart/internal/middleware"
	"campusmart/internal/response"
	"campusmart/internal/services"

	"go.uber.org/zap"
)

// OfferController handles offer negotiation API endpoints
type OfferController struct {
	serviceCollection *services.ServiceCollection
	logger            *zap.Logger
	responseBuilder   *response.Builder
	paginationParser  *response.PaginationParser
}

// NewOfferController creates a new offer controller
func NewOfferController(
	serviceCollection *services.ServiceCollection,
	logger *zap.Logger,
	responseBuilder *response.Builder,
) *OfferController {
	return &OfferController{
		serviceCollection: serviceCollection,
		logger:            logger,
		responseBuilder:   responseBuilder,
		paginationParser:  response.NewPaginationParser(response.DefaultPaginationConfig()),
	}
}

// CreateOffer handles POST /api/v1/offers
func (c *OfferController) CreateOffer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authCtx := middleware.GetAuthContext(ctx)
	if authCtx == nil {
		c.responseBuilder.WriteUnauthorized(w, r, "Authentication required")
		return
	}

	var req services.CreateOfferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		c.logger.Warn("Failed to decode create offer request", zap.Error(err))
		c.responseBuilder.WriteError(w, r, services.NewValidationError("invalid request body", err))
		return
	}
	req.BuyerID = authCtx.UserID

	offer, err := c.serviceCollection.Offer.CreateOffer(ctx, &req)
	if err != nil {
		c.handleServiceError(w, r, err, "create offer")
		return
	}

	c.logger.Info("Offer created via API",
		zap.Int64("offer_id", offer.ID),
		zap.Int64("item_id", offer.ItemID),
		zap.Int64("buyer_id", authCtx.UserID),
	)

	c.responseBuilder.WriteCreated(w, r, offer)
}

// GetOffer handles GET /api/v1/offers/{id}
func (c *OfferController) GetOffer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authCtx := middleware.GetAuthContext(ctx)
	if authCtx == nil {
		c.responseBuilder.WriteUnauthorized(w, r, "Authentication required")
		return
	}

	offerID, err := c.extractIDFromPath(r.URL.Path, 3)
	if err != nil {
		c.responseBuilder.WriteError(w, r, services.NewValidationError("invalid offer ID", err))
		return
	}

	offer, err := c.serviceCollection.Offer.GetOfferByID(ctx, offerID, authCtx.UserID)
	if err != nil {
		c.handleServiceError(w, r, err, "get offer")
		return
	}

	c.responseBuilder.WriteSuccess(w, r, offer)
}

// RespondToOffer handles POST /api/v1/offers/{id}/respond
func (c *OfferController) RespondToOffer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authCtx := middleware.GetAuthContext(ctx)
	if authCtx == nil {
		c.responseBuilder.WriteUnauthorized(w, r, "Authentication required")
		return
	}

	offerID, err := c.extractIDFromPath(r.URL.Path, 3)
	if err != nil {
		c.responseBuilder.WriteError(w, r, services.NewValidationError("invalid offer ID", err))
		return
	}

	var req services.RespondToOfferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		c.logger.Warn("Failed to decode respond to offer request", zap.Error(err))
		c.responseBuilder.WriteError(w, r, services.NewValidationError("invalid request body", err))
		return
	}
	req.OfferID = offerID
	req.SellerID = authCtx.UserID

	offer, err := c.serviceCollection.Offer.RespondToOffer(ctx, &req)
	if err != nil {
		c.handleServiceError(w, r, err, "respond to offer")
		return
	}

	c.logger.Info("Offer responded via API",
		zap.Int64("offer_id", offerID),
		zap.String("action", req.Action),
		zap.String("status", offer.Status),
	)

	c.responseBuilder.WriteSuccess(w, r, offer)
}

// CancelOffer handles POST /api/v1/offers/{id}/cancel
func (c *OfferController) CancelOffer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authCtx := middleware.GetAuthContext(ctx)
	if authCtx == nil {
		c.responseBuilder.WriteUnauthorized(w, r, "Authentication required")
		return
	}

	offerID, err := c.extractIDFromPath(r.URL.Path, 3)
	if err != nil {
		c.responseBuilder.WriteError(w, r, services.NewValidationError("invalid offer ID", err))
		return
	}

	offer, err := c.serviceCollection.Offer.CancelOffer(ctx, offerID, authCtx.UserID)
	if err != nil {
		c.handleServiceError(w, r, err, "cancel offer")
		return
	}

	c.responseBuilder.WriteSuccess(w, r, offer)
}

// GetOffersForItem handles GET /api/v1/listings/{id}/offers
func (c *OfferController) GetOffersForItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authCtx := middleware.GetAuthContext(ctx)
	if authCtx == nil {
		c.responseBuilder.WriteUnauthorized(w, r, "Authentication required")
		return
	}

	itemID, err := c.extractIDFromPath(r.URL.Path, 3)
	if err != nil {
		c.responseBuilder.WriteError(w, r, services.NewValidationError("invalid listing ID", err))
		return
	}

	offers, err := c.serviceCollection.Offer.GetOffersForItem(ctx, itemID, authCtx.UserID)
	if err != nil {
		c.handleServiceError(w, r, err, "get offers for item")
		return
	}

	c.responseBuilder.WriteSuccess(w, r, offers)
}

// GetMyOffers handles GET /api/v1/offers/my-offers
func (c *OfferController) GetMyOffers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authCtx := middleware.GetAuthContext(ctx)
	if authCtx == nil {
		c.responseBuilder.WriteUnauthorized(w, r, "Authentication required")
		return
	}

	params, err := c.paginationParser.ParseFromRequest(r)
	if err != nil {
		response.WriteInvalidPagination(w, r, err)
		return
	}

	status := r.URL.Query().Get("status")

	page, err := c.serviceCollection.Offer.GetMyOffers(ctx, authCtx.UserID, status, params.ToModelParams())
	if err != nil {
		c.handleServiceError(w, r, err, "get my offers")
		return
	}

	c.responseBuilder.WriteModelPage(w, r, page.Data, page.Pagination)
}

// GetOfferHistory handles GET /api/v1/offers/{id}/history
func (c *OfferController) GetOfferHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authCtx := middleware.GetAuthContext(ctx)
	if authCtx == nil {
		c.responseBuilder.WriteUnauthorized(w, r, "Authentication required")
		return
	}

	offerID, err := c.extractIDFromPath(r.URL.Path, 3)
	if err != nil {
		c.responseBuilder.WriteError(w, r, services.NewValidationError("invalid offer ID", err))
		return
	}

	history, err := c.serviceCollection.Offer.GetOfferHistory(ctx, offerID, authCtx.UserID)
	if err != nil {
		c.handleServiceError(w, r, err, "get offer history")
		return
	}

	c.responseBuilder.WriteSuccess(w, r, history)
}

// handleServiceError logs a service failure and writes the mapped response
func (c *OfferController) handleServiceError(w http.ResponseWriter, r *http.Request, err error, operation string) {
	c.logger.Error("Offer service error",
		zap.Error(err),
		zap.String("operation", operation),
		zap.String("path", r.URL.Path),
		zap.String("method", r.Method),
	)
	c.responseBuilder.WriteError(w, r, err)
}

// extractIDFromPath extracts an ID from URL path at the given position
func (c *OfferController) extractIDFromPath(path string, position int) (int64, error) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) <= position {
		return 0, fmt.Errorf("missing ID in path")
	}

	id, err := strconv.ParseInt(parts[position], 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid ID format")
	}

	return id, nil
}
