// ===============================
// FILE: internal/services/offer_service.go
// ===============================

package services

import (
	"campusmart/internal/events"
	"campusmart/internal/models"
	"campusmart/internal/repositories"
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// offerService implements OfferService
type offerService struct {
	offerRepo   repositories.OfferRepository
	listingRepo repositories.ListingRepository
	userRepo    repositories.UserRepository
	events      events.EventBus
	logger      *zap.Logger
}

// NewOfferService creates a new offer service
func NewOfferService(
	offerRepo repositories.OfferRepository,
	listingRepo repositories.ListingRepository,
	userRepo repositories.UserRepository,
	eventBus events.EventBus,
	logger *zap.Logger,
) OfferService {
	return &offerService{
		offerRepo:   offerRepo,
		listingRepo: listingRepo,
		userRepo:    userRepo,
		events:      eventBus,
		logger:      logger,
	}
}

// CreateOffer opens a negotiation on a listing. A buyer holds at most
// one active offer per item; the seller cannot offer on their own
// listing, and sold listings take no offers.
func (s *offerService) CreateOffer(ctx context.Context, req *CreateOfferRequest) (*models.Offer, error) {
	if err := models.ValidateStruct(req); err != nil {
		return nil, NewValidationError("invalid offer", err)
	}

	listing, err := s.listingRepo.GetByID(ctx, req.ItemID)
	if err != nil {
		return nil, NewInternalError("failed to get listing", err)
	}
	if listing == nil {
		return nil, EntityNotFoundError("listing", req.ItemID)
	}
	if listing.IsSold {
		return nil, NewBusinessError("listing is already sold", "ITEM_SOLD")
	}
	if listing.SellerID == req.BuyerID {
		return nil, NewBusinessError("cannot make an offer on your own listing", "OWN_LISTING")
	}

	existing, err := s.offerRepo.GetActiveByBuyerAndItem(ctx, req.BuyerID, req.ItemID)
	if err != nil {
		return nil, NewInternalError("failed to check existing offers", err)
	}
	if existing != nil {
		return nil, NewConflictError("you already have an active offer on this item", "OFFER_EXISTS")
	}

	offer := &models.Offer{
		ItemID:        listing.ID,
		BuyerID:       req.BuyerID,
		SellerID:      listing.SellerID,
		OriginalPrice: listing.Price,
		OfferPrice:    req.Price,
	}
	if req.Message != "" {
		offer.Message = &req.Message
	}
	if req.ValidUntil != nil {
		offer.ValidUntil = *req.ValidUntil
	}

	if err := s.offerRepo.Create(ctx, offer); err != nil {
		// The partial unique index backstops the check above under
		// concurrent requests.
		if errors.Is(err, repositories.ErrDuplicateActiveOffer) {
			return nil, NewConflictError("you already have an active offer on this item", "OFFER_EXISTS")
		}
		return nil, NewInternalError("failed to create offer", err)
	}

	_ = s.events.PublishAsync(ctx, events.NewOfferCreatedEvent(
		offer.ID, offer.ItemID, offer.BuyerID, offer.SellerID, offer.OfferPrice))

	s.logger.Info("Offer created",
		zap.Int64("offer_id", offer.ID),
		zap.Int64("item_id", offer.ItemID),
		zap.Int64("buyer_id", offer.BuyerID),
		zap.Float64("price", offer.OfferPrice))

	return offer, nil
}

// GetOfferByID returns an offer to one of its participants.
func (s *offerService) GetOfferByID(ctx context.Context, offerID, userID int64) (*models.Offer, error) {
	offer, err := s.getParticipantOffer(ctx, offerID, userID)
	if err != nil {
		return nil, err
	}
	s.attachSummaries(ctx, []*models.Offer{offer})
	return offer, nil
}

// RespondToOffer applies the seller's decision: accept, reject, or
// counter with a new price. Only pending and counter-offered offers
// can move; a second response hits the conditional update and comes
// back as a conflict.
func (s *offerService) RespondToOffer(ctx context.Context, req *RespondToOfferRequest) (*models.Offer, error) {
	if err := models.ValidateStruct(req); err != nil {
		return nil, NewValidationError("invalid response", err)
	}

	offer, err := s.offerRepo.GetByID(ctx, req.OfferID)
	if err != nil {
		return nil, NewInternalError("failed to get offer", err)
	}
	if offer == nil {
		return nil, EntityNotFoundError("offer", req.OfferID)
	}
	if offer.SellerID != req.SellerID {
		return nil, NewForbiddenError("only the seller can respond to this offer")
	}

	var newStatus, action string
	var counter *models.CounterOffer
	entry := &models.OfferHistoryEntry{
		OfferID: offer.ID,
		ActorID: req.SellerID,
	}

	switch req.Action {
	case "accept":
		newStatus, action = models.OfferStatusAccepted, models.OfferActionAccepted
	case "reject":
		newStatus, action = models.OfferStatusRejected, models.OfferActionRejected
	case "counter":
		if req.CounterPrice == nil {
			return nil, NewValidationError("counter price is required", nil)
		}
		newStatus, action = models.OfferStatusCounterOffered, models.OfferActionCounterOffered
		counter = &models.CounterOffer{
			Price:     *req.CounterPrice,
			CreatedAt: time.Now(),
		}
		if req.CounterMessage != "" {
			counter.Message = &req.CounterMessage
		}
		entry.Price = req.CounterPrice
	}
	entry.Action = action
	if req.CounterMessage != "" {
		entry.Message = &req.CounterMessage
	}

	moved, err := s.offerRepo.Transition(ctx, offer.ID, newStatus, counter, entry)
	if err != nil {
		return nil, NewInternalError("failed to respond to offer", err)
	}
	if !moved {
		return nil, NewConflictError("offer has already been responded to", "OFFER_RESOLVED")
	}

	_ = s.events.PublishAsync(ctx, events.NewOfferRespondedEvent(
		offer.ID, offer.ItemID, offer.BuyerID, req.SellerID, action, newStatus))

	s.logger.Info("Offer responded",
		zap.Int64("offer_id", offer.ID),
		zap.String("action", action),
		zap.String("status", newStatus))

	offer.Status = newStatus
	offer.CounterOffer = counter
	return offer, nil
}

// CancelOffer withdraws the buyer's own active offer.
func (s *offerService) CancelOffer(ctx context.Context, offerID, buyerID int64) (*models.Offer, error) {
	offer, err := s.offerRepo.GetByID(ctx, offerID)
	if err != nil {
		return nil, NewInternalError("failed to get offer", err)
	}
	if offer == nil {
		return nil, EntityNotFoundError("offer", offerID)
	}
	if offer.BuyerID != buyerID {
		return nil, NewForbiddenError("only the buyer can cancel this offer")
	}

	entry := &models.OfferHistoryEntry{
		OfferID: offer.ID,
		Action:  models.OfferActionCancelled,
		ActorID: buyerID,
	}
	moved, err := s.offerRepo.Transition(ctx, offer.ID, models.OfferStatusCancelled, nil, entry)
	if err != nil {
		return nil, NewInternalError("failed to cancel offer", err)
	}
	if !moved {
		return nil, NewConflictError("offer has already been resolved", "OFFER_RESOLVED")
	}

	_ = s.events.PublishAsync(ctx, events.NewOfferRespondedEvent(
		offer.ID, offer.ItemID, offer.BuyerID, buyerID,
		models.OfferActionCancelled, models.OfferStatusCancelled))

	offer.Status = models.OfferStatusCancelled
	offer.CounterOffer = nil
	return offer, nil
}

// GetOffersForItem lists every offer on a listing. Seller only.
func (s *offerService) GetOffersForItem(ctx context.Context, itemID, requesterID int64) ([]*models.Offer, error) {
	listing, err := s.listingRepo.GetByID(ctx, itemID)
	if err != nil {
		return nil, NewInternalError("failed to get listing", err)
	}
	if listing == nil {
		return nil, EntityNotFoundError("listing", itemID)
	}
	if listing.SellerID != requesterID {
		return nil, SellerOnlyError("view offers")
	}

	offers, err := s.offerRepo.GetByItem(ctx, itemID)
	if err != nil {
		return nil, NewInternalError("failed to get offers", err)
	}
	s.attachSummaries(ctx, offers)
	return offers, nil
}

// GetMyOffers pages the buyer's own offers, optionally filtered by
// status.
func (s *offerService) GetMyOffers(ctx context.Context, buyerID int64, status string, params models.PaginationParams) (*models.PaginatedResponse[*models.Offer], error) {
	if status != "" {
		switch status {
		case models.OfferStatusPending, models.OfferStatusAccepted,
			models.OfferStatusRejected, models.OfferStatusCounterOffered,
			models.OfferStatusCancelled:
		default:
			return nil, NewValidationError("unknown offer status", nil)
		}
	}

	result, err := s.offerRepo.GetByBuyer(ctx, buyerID, status, params)
	if err != nil {
		return nil, NewInternalError("failed to get offers", err)
	}
	s.attachSummaries(ctx, result.Data)
	return result, nil
}

// GetOfferHistory returns the append-only transition log, oldest
// first. Participants only.
func (s *offerService) GetOfferHistory(ctx context.Context, offerID, userID int64) ([]*models.OfferHistoryEntry, error) {
	if _, err := s.getParticipantOffer(ctx, offerID, userID); err != nil {
		return nil, err
	}

	history, err := s.offerRepo.GetHistory(ctx, offerID)
	if err != nil {
		return nil, NewInternalError("failed to get offer history", err)
	}
	return history, nil
}

// getParticipantOffer loads the offer and checks the caller is buyer
// or seller.
func (s *offerService) getParticipantOffer(ctx context.Context, offerID, userID int64) (*models.Offer, error) {
	offer, err := s.offerRepo.GetByID(ctx, offerID)
	if err != nil {
		return nil, NewInternalError("failed to get offer", err)
	}
	if offer == nil {
		return nil, EntityNotFoundError("offer", offerID)
	}
	if offer.BuyerID != userID && offer.SellerID != userID {
		return nil, NewForbiddenError("you are not part of this offer")
	}
	return offer, nil
}

// attachSummaries joins buyer and seller summaries onto a batch of
// offers. Best effort; a lookup failure leaves the summary nil.
func (s *offerService) attachSummaries(ctx context.Context, offers []*models.Offer) {
	if len(offers) == 0 {
		return
	}
	ids := make([]int64, 0, len(offers)*2)
	for _, o := range offers {
		ids = append(ids, o.BuyerID, o.SellerID)
	}
	summaries, err := s.userRepo.GetSummaries(ctx, ids)
	if err != nil {
		s.logger.Warn("Failed to load user summaries", zap.Error(err))
		return
	}
	for _, o := range offers {
		o.Buyer = summaries[o.BuyerID]
		o.Seller = summaries[o.SellerID]
	}
}
