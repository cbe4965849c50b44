// ===============================
// FILE: internal/handlers/api/v1/listings/listings_controller.go
// ===============================

package listings

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"campusmart/internal/middleware"
	"campusmart/internal/response"
	"campusmart/internal/services"

	"go.uber.org/zap"
)

// ListingController handles marketplace listing API endpoints
type ListingController struct {
	serviceCollection *services.ServiceCollection
	logger            *zap.Logger
	responseBuilder   *response.Builder
	paginationParser  *response.PaginationParser
}

// NewListingController creates a new listing controller
func NewListingController(
	serviceCollection *services.ServiceCollection,
	logger *zap.Logger,
	responseBuilder *response.Builder,
) *ListingController {
	return &ListingController{
		serviceCollection: serviceCollection,
		logger:            logger,
		responseBuilder:   responseBuilder,
		paginationParser:  response.NewPaginationParser(response.DefaultPaginationConfig()),
	}
}

// ===============================
// CORE CRUD OPERATIONS
// ===============================

// CreateListing handles POST /api/v1/listings
func (c *ListingController) CreateListing(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authCtx := middleware.GetAuthContext(ctx)
	if authCtx == nil {
		c.responseBuilder.WriteUnauthorized(w, r, "Authentication required")
		return
	}

	var req services.CreateListingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		c.logger.Warn("Failed to decode create listing request", zap.Error(err))
		c.responseBuilder.WriteError(w, r, services.NewValidationError("invalid request body", err))
		return
	}
	req.SellerID = authCtx.UserID

	listing, err := c.serviceCollection.Listing.CreateListing(ctx, &req)
	if err != nil {
		c.handleServiceError(w, r, err, "create listing")
		return
	}

	c.logger.Info("Listing created via API",
		zap.Int64("listing_id", listing.ID),
		zap.Int64("seller_id", authCtx.UserID),
		zap.String("category", listing.Category),
	)

	c.responseBuilder.WriteCreated(w, r, listing)
}

// GetListing handles GET /api/v1/listings/{id}
func (c *ListingController) GetListing(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authCtx := middleware.GetAuthContext(ctx)

	listingID, err := c.extractIDFromPath(r.URL.Path, 3)
	if err != nil {
		c.responseBuilder.WriteError(w, r, services.NewValidationError("invalid listing ID", err))
		return
	}

	var viewerID *int64
	if authCtx != nil {
		viewerID = &authCtx.UserID
	}

	detail, err := c.serviceCollection.Listing.GetListingByID(ctx, listingID, viewerID)
	if err != nil {
		c.handleServiceError(w, r, err, "get listing")
		return
	}

	c.responseBuilder.WriteSuccess(w, r, detail)
}

// UpdateListing handles PUT /api/v1/listings/{id}
func (c *ListingController) UpdateListing(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authCtx := middleware.GetAuthContext(ctx)
	if authCtx == nil {
		c.responseBuilder.WriteUnauthorized(w, r, "Authentication required")
		return
	}

	listingID, err := c.extractIDFromPath(r.URL.Path, 3)
	if err != nil {
		c.responseBuilder.WriteError(w, r, services.NewValidationError("invalid listing ID", err))
		return
	}

	var req services.UpdateListingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		c.logger.Warn("Failed to decode update listing request", zap.Error(err))
		c.responseBuilder.WriteError(w, r, services.NewValidationError("invalid request body", err))
		return
	}
	req.ListingID = listingID
	req.UserID = authCtx.UserID

	listing, err := c.serviceCollection.Listing.UpdateListing(ctx, &req)
	if err != nil {
		c.handleServiceError(w, r, err, "update listing")
		return
	}

	c.responseBuilder.WriteSuccess(w, r, listing)
}

// DeleteListing handles DELETE /api/v1/listings/{id}
func (c *ListingController) DeleteListing(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authCtx := middleware.GetAuthContext(ctx)
	if authCtx == nil {
		c.responseBuilder.WriteUnauthorized(w, r, "Authentication required")
		return
	}

	listingID, err := c.extractIDFromPath(r.URL.Path, 3)
	if err != nil {
		c.responseBuilder.WriteError(w, r, services.NewValidationError("invalid listing ID", err))
		return
	}

	if err := c.serviceCollection.Listing.DeleteListing(ctx, listingID, authCtx.UserID); err != nil {
		c.handleServiceError(w, r, err, "delete listing")
		return
	}

	c.logger.Info("Listing deleted via API",
		zap.Int64("listing_id", listingID),
		zap.Int64("user_id", authCtx.UserID),
	)

	c.responseBuilder.WriteNoContent(w, r)
}

// ===============================
// SALE LIFECYCLE
// ===============================

// MarkSold handles POST /api/v1/listings/{id}/sold
func (c *ListingController) MarkSold(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authCtx := middleware.GetAuthContext(ctx)
	if authCtx == nil {
		c.responseBuilder.WriteUnauthorized(w, r, "Authentication required")
		return
	}

	listingID, err := c.extractIDFromPath(r.URL.Path, 3)
	if err != nil {
		c.responseBuilder.WriteError(w, r, services.NewValidationError("invalid listing ID", err))
		return
	}

	// Body is optional, the buyer may be unknown.
	var body struct {
		SoldTo *int64 `json:"soldTo,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && err != io.EOF {
		c.responseBuilder.WriteError(w, r, services.NewValidationError("invalid request body", err))
		return
	}

	listing, err := c.serviceCollection.Listing.MarkSold(ctx, listingID, authCtx.UserID, body.SoldTo)
	if err != nil {
		c.handleServiceError(w, r, err, "mark sold")
		return
	}

	c.responseBuilder.WriteSuccess(w, r, listing)
}

// UnmarkSold handles DELETE /api/v1/listings/{id}/sold
func (c *ListingController) UnmarkSold(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authCtx := middleware.GetAuthContext(ctx)
	if authCtx == nil {
		c.responseBuilder.WriteUnauthorized(w, r, "Authentication required")
		return
	}

	listingID, err := c.extractIDFromPath(r.URL.Path, 3)
	if err != nil {
		c.responseBuilder.WriteError(w, r, services.NewValidationError("invalid listing ID", err))
		return
	}

	listing, err := c.serviceCollection.Listing.UnmarkSold(ctx, listingID, authCtx.UserID)
	if err != nil {
		c.handleServiceError(w, r, err, "unmark sold")
		return
	}

	c.responseBuilder.WriteSuccess(w, r, listing)
}

// ToggleLike handles POST /api/v1/listings/{id}/like
func (c *ListingController) ToggleLike(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authCtx := middleware.GetAuthContext(ctx)
	if authCtx == nil {
		c.responseBuilder.WriteUnauthorized(w, r, "Authentication required")
		return
	}

	listingID, err := c.extractIDFromPath(r.URL.Path, 3)
	if err != nil {
		c.responseBuilder.WriteError(w, r, services.NewValidationError("invalid listing ID", err))
		return
	}

	result, err := c.serviceCollection.User.ToggleItemLike(ctx, authCtx.UserID, listingID)
	if err != nil {
		c.handleServiceError(w, r, err, "toggle listing like")
		return
	}

	c.responseBuilder.WriteSuccess(w, r, result)
}

// ===============================
// SEARCH AND LISTING
// ===============================

// SearchListings handles GET /api/v1/listings
func (c *ListingController) SearchListings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authCtx := middleware.GetAuthContext(ctx)

	params, err := c.paginationParser.ParseFromRequest(r)
	if err != nil {
		response.WriteInvalidPagination(w, r, err)
		return
	}

	req, err := c.buildSearchRequest(r.URL.Query())
	if err != nil {
		c.responseBuilder.WriteError(w, r, services.NewValidationError(err.Error(), err))
		return
	}
	req.Pagination = params.ToModelParams()
	if authCtx != nil {
		req.ViewerID = &authCtx.UserID
	}

	page, err := c.serviceCollection.Listing.SearchListings(ctx, req)
	if err != nil {
		c.handleServiceError(w, r, err, "search listings")
		return
	}

	c.responseBuilder.WriteModelPage(w, r, page.Data, page.Pagination)
}

// GetMyListings handles GET /api/v1/listings/my-listings
func (c *ListingController) GetMyListings(w http.ResponseWriter, r *http.Request) {
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

	page, err := c.serviceCollection.Listing.GetMyListings(ctx, authCtx.UserID, status, params.ToModelParams())
	if err != nil {
		c.handleServiceError(w, r, err, "get my listings")
		return
	}

	c.responseBuilder.WriteModelPage(w, r, page.Data, page.Pagination)
}

// GetUserListings handles GET /api/v1/users/{id}/listings
func (c *ListingController) GetUserListings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authCtx := middleware.GetAuthContext(ctx)

	sellerID, err := c.extractIDFromPath(r.URL.Path, 3)
	if err != nil {
		c.responseBuilder.WriteError(w, r, services.NewValidationError("invalid user ID", err))
		return
	}

	params, err := c.paginationParser.ParseFromRequest(r)
	if err != nil {
		response.WriteInvalidPagination(w, r, err)
		return
	}

	var viewerID *int64
	if authCtx != nil {
		viewerID = &authCtx.UserID
	}

	page, err := c.serviceCollection.Listing.GetListingsBySeller(ctx, sellerID, viewerID, params.ToModelParams())
	if err != nil {
		c.handleServiceError(w, r, err, "get user listings")
		return
	}

	c.responseBuilder.WriteModelPage(w, r, page.Data, page.Pagination)
}

// ===============================
// MARKETPLACE AGGREGATIONS
// ===============================

// GetTrendingTags handles GET /api/v1/listings/trending-tags
func (c *ListingController) GetTrendingTags(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.responseBuilder.WriteError(w, r, services.NewValidationError("invalid limit parameter", err))
			return
		}
		limit = parsed
	}

	tags, err := c.serviceCollection.Listing.GetTrendingTags(ctx, limit)
	if err != nil {
		c.handleServiceError(w, r, err, "get trending tags")
		return
	}

	c.responseBuilder.WriteSuccess(w, r, tags)
}

// GetCategoryBreakdown handles GET /api/v1/listings/categories
func (c *ListingController) GetCategoryBreakdown(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	categories, err := c.serviceCollection.Listing.GetCategoryBreakdown(ctx)
	if err != nil {
		c.handleServiceError(w, r, err, "get category breakdown")
		return
	}

	c.responseBuilder.WriteSuccess(w, r, categories)
}

// GetMarketplaceStats handles GET /api/v1/listings/stats
func (c *ListingController) GetMarketplaceStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	stats, err := c.serviceCollection.Listing.GetMarketplaceStats(ctx)
	if err != nil {
		c.handleServiceError(w, r, err, "get marketplace stats")
		return
	}

	c.responseBuilder.WriteSuccess(w, r, stats)
}

// ===============================
// HELPERS
// ===============================

// buildSearchRequest maps query parameters onto a search request
func (c *ListingController) buildSearchRequest(query url.Values) (*services.SearchListingsRequest, error) {
	req := &services.SearchListingsRequest{
		Search:    strings.TrimSpace(query.Get("search")),
		Category:  query.Get("category"),
		Campus:    query.Get("campus"),
		Hostel:    query.Get("hostel"),
		Block:     query.Get("block"),
		Condition: query.Get("condition"),
	}

	if raw := query.Get("min_price"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 {
			return nil, fmt.Errorf("invalid min_price parameter")
		}
		req.MinPrice = &v
	}
	if raw := query.Get("max_price"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 {
			return nil, fmt.Errorf("invalid max_price parameter")
		}
		req.MaxPrice = &v
	}
	if req.MinPrice != nil && req.MaxPrice != nil && *req.MinPrice > *req.MaxPrice {
		return nil, fmt.Errorf("min_price cannot exceed max_price")
	}

	if raw := query.Get("tags"); raw != "" {
		for _, tag := range strings.Split(raw, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				req.Tags = append(req.Tags, tag)
			}
		}
	}

	if raw := query.Get("negotiable"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid negotiable parameter")
		}
		req.Negotiable = &v
	}
	if raw := query.Get("urgent"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid urgent parameter")
		}
		req.UrgentSale = &v
	}
	if raw := query.Get("include_sold"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid include_sold parameter")
		}
		req.IncludeSold = v
	}

	if raw := query.Get("seller_id"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || v <= 0 {
			return nil, fmt.Errorf("invalid seller_id parameter")
		}
		req.SellerID = &v
	}

	return req, nil
}

// handleServiceError logs a service failure and writes the mapped response
func (c *ListingController) handleServiceError(w http.ResponseWriter, r *http.Request, err error, operation string) {
	c.logger.Error("Listing service error",
		zap.Error(err),
		zap.String("operation", operation),
		zap.String("path", r.URL.Path),
		zap.String("method", r.Method),
	)
	c.responseBuilder.WriteError(w, r, err)
}

// extractIDFromPath extracts an ID from URL path at the given position
func (c *ListingController) extractIDFromPath(path string, position int) (int64, error) {
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
