// ===============================
// FILE: internal/services/listing_service.go
// ===============================

package services

import (
	"campusmart/internal/cache"
	"campusmart/internal/events"
	"campusmart/internal/models"
	"campusmart/internal/repositories"
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	sellerOtherItemsLimit  = 4
	detailCommentsLimit    = 10
	aggregationCacheTTL    = 5 * time.Minute
	defaultTrendingTagsMax = 10
)

// listingService implements ListingService
type listingService struct {
	listingRepo repositories.ListingRepository
	userRepo    repositories.UserRepository
	offerRepo   repositories.OfferRepository
	commentRepo repositories.CommentRepository
	messageRepo repositories.MessageRepository
	cache       cache.Cache
	events      events.EventBus
	logger      *zap.Logger
}

// NewListingService creates a new listing service
func NewListingService(
	listingRepo repositories.ListingRepository,
	userRepo repositories.UserRepository,
	offerRepo repositories.OfferRepository,
	commentRepo repositories.CommentRepository,
	messageRepo repositories.MessageRepository,
	cacheProvider cache.Cache,
	eventBus events.EventBus,
	logger *zap.Logger,
) ListingService {
	return &listingService{
		listingRepo: listingRepo,
		userRepo:    userRepo,
		offerRepo:   offerRepo,
		commentRepo: commentRepo,
		messageRepo: messageRepo,
		cache:       cacheProvider,
		events:      eventBus,
		logger:      logger,
	}
}

// CreateListing creates a new marketplace listing. The seller's name,
// email and verified flag are snapshotted onto the listing at this
// point and never re-synced.
func (s *listingService) CreateListing(ctx context.Context, req *CreateListingRequest) (*models.Listing, error) {
	if err := models.ValidateStruct(req); err != nil {
		return nil, NewValidationError("invalid listing", err)
	}

	seller, err := s.userRepo.GetByID(ctx, req.SellerID)
	if err != nil {
		return nil, NewInternalError("failed to get seller", err)
	}
	if seller == nil {
		return nil, EntityNotFoundError("user", req.SellerID)
	}

	listing := &models.Listing{
		SellerID:    seller.ID,
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		Category:    req.Category,
		Condition:   req.Condition,
		Tags:        models.NormalizeTags(req.Tags),
		Images:      models.NormalizePrimaryImage(derefImages(req.Images)),
		Videos:      derefVideos(req.Videos),
		Negotiable:  req.Negotiable,
		UrgentSale:  req.UrgentSale,

		SellerName:     seller.Name,
		SellerEmail:    seller.Email,
		SellerVerified: seller.Verified,
	}
	if req.Location != nil {
		listing.Location = *req.Location
	}

	if err := s.listingRepo.Create(ctx, listing); err != nil {
		return nil, NewInternalError("failed to create listing", err)
	}

	_ = s.events.PublishAsync(ctx, events.NewListingCreatedEvent(
		listing.ID, listing.SellerID, listing.Title, listing.Category, listing.Price))
	s.invalidateAggregations(ctx)

	s.logger.Info("Listing created",
		zap.Int64("listing_id", listing.ID),
		zap.Int64("seller_id", listing.SellerID),
		zap.String("category", listing.Category))

	return listing, nil
}

// GetListingByID returns the listing detail page payload: the listing,
// up to four other active items from the same seller, and the latest
// comment threads.
//
// Viewing counts according to who is looking: anonymous viewers always
// count, the seller never counts, and a logged-in viewer counts at
// most once per calendar day.
func (s *listingService) GetListingByID(ctx context.Context, listingID int64, viewerID *int64) (*models.ListingDetail, error) {
	listing, err := s.listingRepo.GetByID(ctx, listingID)
	if err != nil {
		return nil, NewInternalError("failed to get listing", err)
	}
	if listing == nil {
		return nil, EntityNotFoundError("listing", listingID)
	}

	s.registerView(ctx, listing, viewerID)

	if viewerID != nil {
		listing.IsOwner = *viewerID == listing.SellerID
		liked, err := s.userRepo.IsItemLiked(ctx, *viewerID, listing.ID)
		if err != nil {
			s.logger.Warn("Failed to resolve like flag",
				zap.Int64("listing_id", listing.ID), zap.Error(err))
		} else {
			listing.IsLiked = liked
		}
	}

	sellerItems, err := s.listingRepo.GetSellerOtherItems(ctx, listing.SellerID, listing.ID, sellerOtherItemsLimit)
	if err != nil {
		s.logger.Warn("Failed to load seller items",
			zap.Int64("listing_id", listing.ID), zap.Error(err))
		sellerItems = []*models.Listing{}
	}

	comments, err := s.loadDetailComments(ctx, listing.ID, viewerID)
	if err != nil {
		s.logger.Warn("Failed to load listing comments",
			zap.Int64("listing_id", listing.ID), zap.Error(err))
		comments = []*models.Comment{}
	}

	return &models.ListingDetail{
		Listing:     listing,
		SellerItems: sellerItems,
		Comments:    comments,
	}, nil
}

// registerView applies the view-counting rules and keeps the in-memory
// counter consistent with what was persisted.
func (s *listingService) registerView(ctx context.Context, listing *models.Listing, viewerID *int64) {
	if viewerID == nil {
		if err := s.listingRepo.IncrementViews(ctx, listing.ID); err != nil {
			s.logger.Warn("Failed to count anonymous view",
				zap.Int64("listing_id", listing.ID), zap.Error(err))
			return
		}
		listing.Views++
		return
	}
	if *viewerID == listing.SellerID {
		return
	}
	counted, err := s.listingRepo.RegisterView(ctx, listing.ID, *viewerID)
	if err != nil {
		s.logger.Warn("Failed to register view",
			zap.Int64("listing_id", listing.ID),
			zap.Int64("viewer_id", *viewerID),
			zap.Error(err))
		return
	}
	if counted {
		listing.Views++
	}
}

func (s *listingService) loadDetailComments(ctx context.Context, listingID int64, viewerID *int64) ([]*models.Comment, error) {
	page, err := s.commentRepo.GetTopLevelByItem(ctx, listingID, "", models.PaginationParams{
		Limit: detailCommentsLimit,
	})
	if err != nil {
		return nil, err
	}

	comments := page.Data
	if len(comments) > 0 {
		parentIDs := make([]int64, len(comments))
		for i, c := range comments {
			parentIDs[i] = c.ID
		}
		replies, err := s.commentRepo.GetReplies(ctx, parentIDs)
		if err != nil {
			return nil, err
		}
		for _, c := range comments {
			c.Replies = replies[c.ID]
		}
	}

	if viewerID != nil && len(comments) > 0 {
		ids := make([]int64, 0, len(comments))
		for _, c := range comments {
			ids = append(ids, c.ID)
			for _, reply := range c.Replies {
				ids = append(ids, reply.ID)
			}
		}
		liked, err := s.commentRepo.GetLikedCommentIDs(ctx, *viewerID, ids)
		if err != nil {
			s.logger.Warn("Failed to load viewer comment likes",
				zap.Int64("viewer_id", *viewerID), zap.Error(err))
		} else {
			for _, c := range comments {
				c.IsLiked = liked[c.ID]
				for _, reply := range c.Replies {
					reply.IsLiked = liked[reply.ID]
				}
			}
		}
	}
	return comments, nil
}

// UpdateListing replaces the editable fields of a listing. Only the
// seller may update.
func (s *listingService) UpdateListing(ctx context.Context, req *UpdateListingRequest) (*models.Listing, error) {
	if err := models.ValidateStruct(req); err != nil {
		return nil, NewValidationError("invalid listing update", err)
	}

	listing, err := s.listingRepo.GetByID(ctx, req.ListingID)
	if err != nil {
		return nil, NewInternalError("failed to get listing", err)
	}
	if listing == nil {
		return nil, EntityNotFoundError("listing", req.ListingID)
	}
	if listing.SellerID != req.UserID {
		return nil, SellerOnlyError("update")
	}

	listing.Title = req.Title
	listing.Description = req.Description
	listing.Price = req.Price
	listing.Category = req.Category
	listing.Condition = req.Condition
	listing.Tags = models.NormalizeTags(req.Tags)
	listing.Images = models.NormalizePrimaryImage(derefImages(req.Images))
	listing.Videos = derefVideos(req.Videos)
	listing.Negotiable = req.Negotiable
	listing.UrgentSale = req.UrgentSale
	if req.Location != nil {
		listing.Location = *req.Location
	} else {
		listing.Location = models.ListingLocation{}
	}

	if err := s.listingRepo.Update(ctx, listing); err != nil {
		return nil, NewInternalError("failed to update listing", err)
	}

	s.invalidateAggregations(ctx)
	return listing, nil
}

// DeleteListing removes a listing and everything hanging off it:
// offers, comments and item-scoped messages. Only the seller may
// delete.
func (s *listingService) DeleteListing(ctx context.Context, listingID, userID int64) error {
	listing, err := s.listingRepo.GetByID(ctx, listingID)
	if err != nil {
		return NewInternalError("failed to get listing", err)
	}
	if listing == nil {
		return EntityNotFoundError("listing", listingID)
	}
	if listing.SellerID != userID {
		return SellerOnlyError("delete")
	}

	// Cascade cleanup runs concurrently before the listing row goes
	// away: messages reference the item with ON DELETE SET NULL, so
	// deleting the row first would detach them instead. A partial
	// failure leaves rows that the foreign keys clean up or detach, so
	// it is logged rather than surfaced.
	var wg sync.WaitGroup
	cleanup := []struct {
		name string
		fn   func(context.Context, int64) error
	}{
		{"offers", s.offerRepo.DeleteByItem},
		{"comments", s.commentRepo.DeleteByItem},
		{"messages", s.messageRepo.DeleteByItem},
	}
	for _, c := range cleanup {
		wg.Add(1)
		go func(name string, fn func(context.Context, int64) error) {
			defer wg.Done()
			if err := fn(ctx, listingID); err != nil {
				s.logger.Error("Cascade delete failed",
					zap.String("target", name),
					zap.Int64("listing_id", listingID),
					zap.Error(err))
			}
		}(c.name, c.fn)
	}
	wg.Wait()

	if err := s.listingRepo.Delete(ctx, listingID); err != nil {
		return NewInternalError("failed to delete listing", err)
	}

	_ = s.events.PublishAsync(ctx, events.NewListingDeletedEvent(listingID, userID))
	s.invalidateAggregations(ctx)

	s.logger.Info("Listing deleted",
		zap.Int64("listing_id", listingID),
		zap.Int64("seller_id", userID))
	return nil
}

// MarkSold marks a listing as sold and force-cancels every open offer
// on it. Only the seller may mark.
func (s *listingService) MarkSold(ctx context.Context, listingID, sellerID int64, soldTo *int64) (*models.Listing, error) {
	listing, err := s.listingRepo.GetByID(ctx, listingID)
	if err != nil {
		return nil, NewInternalError("failed to get listing", err)
	}
	if listing == nil {
		return nil, EntityNotFoundError("listing", listingID)
	}
	if listing.SellerID != sellerID {
		return nil, SellerOnlyError("mark sold")
	}
	if listing.IsSold {
		return nil, NewBusinessError("listing is already sold", "ALREADY_SOLD")
	}

	if err := s.listingRepo.MarkSold(ctx, listingID, soldTo); err != nil {
		return nil, NewInternalError("failed to mark listing sold", err)
	}

	cancelled, err := s.offerRepo.CancelAllForItem(ctx, listingID, sellerID)
	if err != nil {
		s.logger.Error("Failed to cancel open offers",
			zap.Int64("listing_id", listingID), zap.Error(err))
	} else if len(cancelled) > 0 {
		s.logger.Info("Cancelled open offers",
			zap.Int64("listing_id", listingID),
			zap.Int("count", len(cancelled)))
	}

	_ = s.events.PublishAsync(ctx, events.NewListingSoldEvent(listingID, sellerID, soldTo))
	s.invalidateAggregations(ctx)

	now := time.Now()
	listing.IsSold = true
	listing.SoldAt = &now
	listing.SoldTo = soldTo
	return listing, nil
}

// UnmarkSold reverts a sold listing back to active. Cancelled offers
// stay cancelled.
func (s *listingService) UnmarkSold(ctx context.Context, listingID, sellerID int64) (*models.Listing, error) {
	listing, err := s.listingRepo.GetByID(ctx, listingID)
	if err != nil {
		return nil, NewInternalError("failed to get listing", err)
	}
	if listing == nil {
		return nil, EntityNotFoundError("listing", listingID)
	}
	if listing.SellerID != sellerID {
		return nil, SellerOnlyError("unmark sold")
	}
	if !listing.IsSold {
		return nil, NewBusinessError("listing is not sold", "NOT_SOLD")
	}

	if err := s.listingRepo.UnmarkSold(ctx, listingID); err != nil {
		return nil, NewInternalError("failed to unmark listing", err)
	}

	s.invalidateAggregations(ctx)

	listing.IsSold = false
	listing.SoldAt = nil
	listing.SoldTo = nil
	return listing, nil
}

// SearchListings runs the filtered, sorted, paginated search.
func (s *listingService) SearchListings(ctx context.Context, req *SearchListingsRequest) (*models.PaginatedResponse[*models.Listing], error) {
	filter := repositories.ListingFilter{
		Search:     req.Search,
		Category:   req.Category,
		MinPrice:   req.MinPrice,
		MaxPrice:   req.MaxPrice,
		Tags:       models.NormalizeTags(req.Tags),
		Campus:     req.Campus,
		Hostel:     req.Hostel,
		Block:      req.Block,
		Condition:  req.Condition,
		Negotiable: req.Negotiable,
		UrgentSale: req.UrgentSale,
		SellerID:   req.SellerID,
	}
	if !req.IncludeSold {
		notSold := false
		filter.IsSold = &notSold
	}

	result, err := s.listingRepo.Search(ctx, filter, req.Pagination)
	if err != nil {
		return nil, NewInternalError("failed to search listings", err)
	}

	if req.ViewerID != nil && len(result.Data) > 0 {
		s.markViewerFlags(ctx, result.Data, *req.ViewerID)
	}
	return result, nil
}

// GetMyListings returns the seller's own listings, optionally filtered
// by "active" or "sold" status.
func (s *listingService) GetMyListings(ctx context.Context, sellerID int64, status string, params models.PaginationParams) (*models.PaginatedResponse[*models.Listing], error) {
	if status != "" && status != "active" && status != "sold" {
		return nil, NewValidationError("status must be active or sold", nil)
	}
	result, err := s.listingRepo.GetBySeller(ctx, sellerID, status, params)
	if err != nil {
		return nil, NewInternalError("failed to get listings", err)
	}
	for _, l := range result.Data {
		l.IsOwner = true
	}
	return result, nil
}

// GetListingsBySeller returns a user's listings for their public
// profile page, sold items included.
func (s *listingService) GetListingsBySeller(ctx context.Context, sellerID int64, viewerID *int64, params models.PaginationParams) (*models.PaginatedResponse[*models.Listing], error) {
	seller, err := s.userRepo.GetByID(ctx, sellerID)
	if err != nil {
		return nil, NewInternalError("failed to get seller", err)
	}
	if seller == nil {
		return nil, EntityNotFoundError("user", sellerID)
	}

	result, err := s.listingRepo.GetBySeller(ctx, sellerID, "", params)
	if err != nil {
		return nil, NewInternalError("failed to get listings", err)
	}
	if viewerID != nil && len(result.Data) > 0 {
		s.markViewerFlags(ctx, result.Data, *viewerID)
	}
	return result, nil
}

// GetTrendingTags returns the most used tags across active listings,
// cached briefly since the aggregation scans the whole table.
func (s *listingService) GetTrendingTags(ctx context.Context, limit int) ([]*models.TagCount, error) {
	if limit <= 0 {
		limit = defaultTrendingTagsMax
	}

	key := cache.TrendingTagsKey(limit)
	if cached, found := s.cache.Get(ctx, key); found {
		if tags, ok := cached.([]*models.TagCount); ok {
			return tags, nil
		}
	}

	tags, err := s.listingRepo.GetTrendingTags(ctx, limit)
	if err != nil {
		return nil, NewInternalError("failed to get trending tags", err)
	}

	if err := s.cache.Set(ctx, key, tags, aggregationCacheTTL); err != nil {
		s.logger.Warn("Failed to cache trending tags", zap.Error(err))
	}
	return tags, nil
}

// GetCategoryBreakdown returns active listing counts per category.
func (s *listingService) GetCategoryBreakdown(ctx context.Context) ([]*models.CategoryCount, error) {
	key := cache.CategoryBreakdownKey()
	if cached, found := s.cache.Get(ctx, key); found {
		if counts, ok := cached.([]*models.CategoryCount); ok {
			return counts, nil
		}
	}

	counts, err := s.listingRepo.GetCategoryBreakdown(ctx)
	if err != nil {
		return nil, NewInternalError("failed to get category breakdown", err)
	}

	if err := s.cache.Set(ctx, key, counts, aggregationCacheTTL); err != nil {
		s.logger.Warn("Failed to cache category breakdown", zap.Error(err))
	}
	return counts, nil
}

// GetMarketplaceStats returns marketplace-wide totals.
func (s *listingService) GetMarketplaceStats(ctx context.Context) (*models.MarketplaceStats, error) {
	key := cache.MarketplaceStatsKey()
	if cached, found := s.cache.Get(ctx, key); found {
		if stats, ok := cached.(*models.MarketplaceStats); ok {
			return stats, nil
		}
	}

	stats, err := s.listingRepo.GetMarketplaceStats(ctx)
	if err != nil {
		return nil, NewInternalError("failed to get marketplace stats", err)
	}

	if err := s.cache.Set(ctx, key, stats, aggregationCacheTTL); err != nil {
		s.logger.Warn("Failed to cache marketplace stats", zap.Error(err))
	}
	return stats, nil
}

// markViewerFlags fills IsLiked and IsOwner on a result page.
func (s *listingService) markViewerFlags(ctx context.Context, listings []*models.Listing, viewerID int64) {
	ids := make([]int64, len(listings))
	for i, l := range listings {
		ids[i] = l.ID
	}
	liked, err := s.userRepo.GetLikedItemIDs(ctx, viewerID, ids)
	if err != nil {
		s.logger.Warn("Failed to resolve like flags",
			zap.Int64("viewer_id", viewerID), zap.Error(err))
		liked = map[int64]bool{}
	}
	for _, l := range listings {
		l.IsLiked = liked[l.ID]
		l.IsOwner = l.SellerID == viewerID
	}
}

// invalidateAggregations drops the cached marketplace aggregations
// after any write that could change them.
func (s *listingService) invalidateAggregations(ctx context.Context) {
	if err := s.cache.DeletePattern(ctx, cache.KeyPatternMarketplace); err != nil {
		s.logger.Warn("Failed to invalidate marketplace caches", zap.Error(err))
	}
}

func derefImages(in []*models.ListingImage) []models.ListingImage {
	out := make([]models.ListingImage, 0, len(in))
	for _, img := range in {
		if img != nil {
			out = append(out, *img)
		}
	}
	return out
}

func derefVideos(in []*models.ListingVideo) []models.ListingVideo {
	out := make([]models.ListingVideo, 0, len(in))
	for _, v := range in {
		if v != nil {
			out = append(out, *v)
		}
	}
	return out
}
