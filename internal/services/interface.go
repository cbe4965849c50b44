// file: internal/services/interface.go
package services

import (
	"campusmart/internal/models"
	"context"
)

// ===============================
// CORE SERVICE INTERFACES
// ===============================

// AuthService defines authentication business logic
type AuthService interface {
	Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error)
	Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error)
	ValidateToken(ctx context.Context, token string) (*TokenClaims, error)
}

// UserService defines user directory business logic
type UserService interface {
	GetProfile(ctx context.Context, userID int64) (*models.User, error)
	UpdateProfile(ctx context.Context, req *UpdateProfileRequest) (*models.User, error)

	ToggleItemLike(ctx context.Context, userID, itemID int64) (*LikeResult, error)
	GetLikedItems(ctx context.Context, userID int64, params models.PaginationParams) (*models.PaginatedResponse[*models.Listing], error)

	GetUserStats(ctx context.Context, userID int64) (*models.UserListingStats, error)
}

// ListingService defines marketplace listing business logic
type ListingService interface {
	CreateListing(ctx context.Context, req *CreateListingRequest) (*models.Listing, error)
	GetListingByID(ctx context.Context, listingID int64, viewerID *int64) (*models.ListingDetail, error)
	UpdateListing(ctx context.Context, req *UpdateListingRequest) (*models.Listing, error)
	DeleteListing(ctx context.Context, listingID, userID int64) error

	MarkSold(ctx context.Context, listingID, sellerID int64, soldTo *int64) (*models.Listing, error)
	UnmarkSold(ctx context.Context, listingID, sellerID int64) (*models.Listing, error)

	SearchListings(ctx context.Context, req *SearchListingsRequest) (*models.PaginatedResponse[*models.Listing], error)
	GetMyListings(ctx context.Context, sellerID int64, status string, params models.PaginationParams) (*models.PaginatedResponse[*models.Listing], error)
	GetListingsBySeller(ctx context.Context, sellerID int64, viewerID *int64, params models.PaginationParams) (*models.PaginatedResponse[*models.Listing], error)

	GetTrendingTags(ctx context.Context, limit int) ([]*models.TagCount, error)
	GetCategoryBreakdown(ctx context.Context) ([]*models.CategoryCount, error)
	GetMarketplaceStats(ctx context.Context) (*models.MarketplaceStats, error)
}

// OfferService defines offer negotiation business logic
type OfferService interface {
	CreateOffer(ctx context.Context, req *CreateOfferRequest) (*models.Offer, error)
	GetOfferByID(ctx context.Context, offerID, userID int64) (*models.Offer, error)
	RespondToOffer(ctx context.Context, req *RespondToOfferRequest) (*models.Offer, error)
	CancelOffer(ctx context.Context, offerID, buyerID int64) (*models.Offer, error)

	GetOffersForItem(ctx context.Context, itemID, requesterID int64) ([]*models.Offer, error)
	GetMyOffers(ctx context.Context, buyerID int64, status string, params models.PaginationParams) (*models.PaginatedResponse[*models.Offer], error)
	GetOfferHistory(ctx context.Context, offerID, userID int64) ([]*models.OfferHistoryEntry, error)
}

// CommentService defines listing comment thread business logic
type CommentService interface {
	CreateComment(ctx context.Context, req *CreateCommentRequest) (*models.Comment, error)
	GetCommentsByItem(ctx context.Context, req *GetItemCommentsRequest) (*models.PaginatedResponse[*models.Comment], error)
	ToggleCommentLike(ctx context.Context, commentID, userID int64) (*LikeResult, error)
	EditComment(ctx context.Context, req *EditCommentRequest) (*models.Comment, error)
	DeleteComment(ctx context.Context, commentID, userID int64) error
}

// MessageService defines direct messaging business logic
type MessageService interface {
	SendMessage(ctx context.Context, req *SendMessageRequest) (*models.Message, error)
	GetConversation(ctx context.Context, req *GetConversationRequest) ([]*models.Message, error)
	ListConversations(ctx context.Context, userID int64, params models.PaginationParams) ([]*models.Conversation, error)

	MarkMessageRead(ctx context.Context, messageID, userID int64) error
	MarkMessageDelivered(ctx context.Context, messageID, userID int64) error
	EditMessage(ctx context.Context, req *EditMessageRequest) (*models.Message, error)
	DeleteMessage(ctx context.Context, messageID, userID int64) error

	GetUnreadCount(ctx context.Context, userID int64) (int64, error)
}
