// file: internal/repositories/interfaces.go
package repositories

import (
	"campusmart/internal/models"
	"context"
	"errors"
)

// Sentinel errors for unique-constraint violations. Repositories wrap
// these so services can map them to conflict responses with errors.Is.
var (
	ErrDuplicateEmail       = errors.New("email already registered")
	ErrDuplicateActiveOffer = errors.New("active offer already exists")
)

// ===============================
// CORE REPOSITORY INTERFACES
// ===============================

// UserRepository defines the contract for user data operations,
// including the embedded relation lists (liked items, liked comments).
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateProfile(ctx context.Context, user *models.User) error

	GetSummary(ctx context.Context, id int64) (*models.UserSummary, error)
	GetSummaries(ctx context.Context, ids []int64) (map[int64]*models.UserSummary, error)

	// ToggleItemLike removes the like row if present, else inserts it,
	// adjusting the listing's likes counter atomically in the same
	// transaction. Returns the resulting liked state and counter.
	ToggleItemLike(ctx context.Context, userID, itemID int64) (liked bool, likesCount int, err error)
	IsItemLiked(ctx context.Context, userID, itemID int64) (bool, error)
	GetLikedItemIDs(ctx context.Context, userID int64, itemIDs []int64) (map[int64]bool, error)
	GetLikedItems(ctx context.Context, userID int64, params models.PaginationParams) (*models.PaginatedResponse[*models.Listing], error)
}

// ListingFilter composes the query/filter layer criteria. Zero values
// mean "not filtered" except IsSold, which defaults to false upstream.
type ListingFilter struct {
	Search     string
	Category   string
	MinPrice   *float64
	MaxPrice   *float64
	Tags       []string
	Campus     string
	Hostel     string
	Block      string
	Condition  string
	Negotiable *bool
	UrgentSale *bool
	SellerID   *int64
	IsSold     *bool
}

// ListingRepository defines the contract for marketplace item data.
type ListingRepository interface {
	Create(ctx context.Context, listing *models.Listing) error
	GetByID(ctx context.Context, id int64) (*models.Listing, error)
	Update(ctx context.Context, listing *models.Listing) error
	Delete(ctx context.Context, id int64) error

	MarkSold(ctx context.Context, id int64, soldTo *int64) error
	UnmarkSold(ctx context.Context, id int64) error

	// Search runs the composed filter with whitelisted sorting and
	// offset pagination; read-only.
	Search(ctx context.Context, filter ListingFilter, params models.PaginationParams) (*models.PaginatedResponse[*models.Listing], error)
	GetBySeller(ctx context.Context, sellerID int64, status string, params models.PaginationParams) (*models.PaginatedResponse[*models.Listing], error)
	GetSellerOtherItems(ctx context.Context, sellerID, excludeID int64, limit int) ([]*models.Listing, error)

	// RegisterView counts at most one view per user per calendar day.
	// Returns whether this call actually incremented the counter.
	RegisterView(ctx context.Context, listingID, userID int64) (bool, error)
	// IncrementViews is the anonymous path: always counts.
	IncrementViews(ctx context.Context, listingID int64) error

	GetUserStats(ctx context.Context, sellerID int64) (*models.UserListingStats, error)
	GetTrendingTags(ctx context.Context, limit int) ([]*models.TagCount, error)
	GetCategoryBreakdown(ctx context.Context) ([]*models.CategoryCount, error)
	GetMarketplaceStats(ctx context.Context) (*models.MarketplaceStats, error)
}

// OfferRepository defines the contract for offer negotiation data.
type OfferRepository interface {
	// Create inserts the offer and its "created" history entry in one
	// transaction.
	Create(ctx context.Context, offer *models.Offer) error
	GetByID(ctx context.Context, id int64) (*models.Offer, error)
	GetActiveByBuyerAndItem(ctx context.Context, buyerID, itemID int64) (*models.Offer, error)

	// Transition performs a conditional state update: it succeeds only
	// while the offer is still pending or counter-offered, appending a
	// history entry. Returns false when the offer was already resolved.
	Transition(ctx context.Context, offerID int64, newStatus string, counter *models.CounterOffer, entry *models.OfferHistoryEntry) (bool, error)

	// CancelAllForItem force-cancels every active offer on an item,
	// appending a cancelled history entry per offer. Returns the ids
	// of the offers affected.
	CancelAllForItem(ctx context.Context, itemID, actorID int64) ([]int64, error)

	GetByItem(ctx context.Context, itemID int64) ([]*models.Offer, error)
	GetByBuyer(ctx context.Context, buyerID int64, status string, params models.PaginationParams) (*models.PaginatedResponse[*models.Offer], error)
	GetHistory(ctx context.Context, offerID int64) ([]*models.OfferHistoryEntry, error)

	DeleteByItem(ctx context.Context, itemID int64) error
}

// CommentRepository defines the contract for item comment threads.
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id int64) (*models.Comment, error)

	// GetTopLevelByItem returns non-deleted top-level comments newest
	// first; commentType is "all", "questions" or "comments".
	GetTopLevelByItem(ctx context.Context, itemID int64, commentType string, params models.PaginationParams) (*models.PaginatedResponse[*models.Comment], error)
	// GetReplies returns non-deleted replies for the given parents,
	// oldest first, keyed by parent id.
	GetReplies(ctx context.Context, parentIDs []int64) (map[int64][]*models.Comment, error)

	// ToggleLike removes the like row if present, else inserts it,
	// keeping likes_count mechanically equal to the number of rows.
	ToggleLike(ctx context.Context, commentID, userID int64) (liked bool, likesCount int, err error)
	GetLikedCommentIDs(ctx context.Context, userID int64, commentIDs []int64) (map[int64]bool, error)

	// Edit replaces the content, retaining the previous revision.
	Edit(ctx context.Context, commentID int64, newContent string) error
	SoftDelete(ctx context.Context, commentID int64) error

	DeleteByItem(ctx context.Context, itemID int64) error
}

// MessageRepository defines the contract for direct messages.
type MessageRepository interface {
	Create(ctx context.Context, message *models.Message) error
	GetByID(ctx context.Context, id int64) (*models.Message, error)

	// GetConversation returns non-deleted messages newest first.
	GetConversation(ctx context.Context, conversationID string, params models.PaginationParams) ([]*models.Message, error)
	// MarkConversationRead marks every unread message addressed to
	// receiverID in the conversation as read in a single update.
	MarkConversationRead(ctx context.Context, conversationID string, receiverID int64) (int64, error)

	// ListConversations groups messages by conversation, returning the
	// latest message and unread count per group, most recent first.
	ListConversations(ctx context.Context, userID int64, params models.PaginationParams) ([]*models.Conversation, error)

	MarkRead(ctx context.Context, messageID int64) error
	MarkDelivered(ctx context.Context, messageID int64) error
	Edit(ctx context.Context, messageID int64, newContent string) error
	SoftDelete(ctx context.Context, messageID, deletedBy int64) error

	UnreadCount(ctx context.Context, userID int64) (int64, error)
	DeleteByItem(ctx context.Context, itemID int64) error
}
