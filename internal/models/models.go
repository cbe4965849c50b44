// file: internal/models/models.go
package models

import (
	"fmt"
	"time"

	"github.com/lib/pq"
)

// ===============================
// CORE ENTITIES
// ===============================

// User represents a marketplace participant
type User struct {
	ID           int64  `json:"id" db:"id"`
	Name         string `json:"name" db:"name" validate:"required,min=2,max=100"`
	Email        string `json:"email" db:"email" validate:"required,email,max=320"`
	PasswordHash string `json:"-" db:"password_hash"`

	// Profile fields
	Bio         *string     `json:"bio,omitempty" db:"bio" validate:"omitempty,max=1000"`
	Skills      StringArray `json:"skills" db:"skills"`
	Interests   StringArray `json:"interests" db:"interests"`
	CourseTitle *string     `json:"course_title,omitempty" db:"course_title" validate:"omitempty,max=150"`
	Title       *string     `json:"title,omitempty" db:"title" validate:"omitempty,max=100"`

	ProfilePicture *string `json:"profile_picture,omitempty" db:"profile_picture"`
	Verified       bool    `json:"verified" db:"verified"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// PublicProfile strips fields other users should not see.
func (u *User) PublicProfile() *User {
	clone := *u
	clone.PasswordHash = ""
	clone.Email = ""
	return &clone
}

// ItemLike records a user liking a listing. At most one row per
// (user, item) pair; toggling removes the row if present.
type ItemLike struct {
	UserID  int64     `json:"user_id" db:"user_id"`
	ItemID  int64     `json:"item_id" db:"item_id"`
	LikedAt time.Time `json:"liked_at" db:"liked_at"`
}

// CommentLike records a user liking a comment.
type CommentLike struct {
	UserID    int64     `json:"user_id" db:"user_id"`
	CommentID int64     `json:"comment_id" db:"comment_id"`
	LikedAt   time.Time `json:"liked_at" db:"liked_at"`
}

// ===============================
// LISTINGS
// ===============================

// Listing categories and conditions
const (
	CategoryElectronics = "electronics"
	CategoryBooks       = "books"
	CategoryClothing    = "clothing"
	CategoryFurniture   = "furniture"
	CategorySports      = "sports"
	CategoryVehicles    = "vehicles"
	CategoryOther       = "other"

	ConditionNew     = "new"
	ConditionLikeNew = "like-new"
	ConditionGood    = "good"
	ConditionFair    = "fair"
	ConditionPoor    = "poor"
)

// ListingLocation describes where on campus an item is available.
type ListingLocation struct {
	Campus *string `json:"campus,omitempty" db:"location_campus" validate:"omitempty,max=100"`
	Hostel *string `json:"hostel,omitempty" db:"location_hostel" validate:"omitempty,max=100"`
	Block  *string `json:"block,omitempty" db:"location_block" validate:"omitempty,max=50"`
	Room   *string `json:"room,omitempty" db:"location_room" validate:"omitempty,max=50"`
}

// ListingImage is an image attached to a listing. At most one image
// per listing carries IsPrimary; the service normalizes this on write.
type ListingImage struct {
	URL       string  `json:"url" db:"url" validate:"required,url"`
	Caption   *string `json:"caption,omitempty" db:"caption" validate:"omitempty,max=200"`
	IsPrimary bool    `json:"is_primary" db:"is_primary"`
}

// ListingVideo is a video attached to a listing.
type ListingVideo struct {
	URL      string  `json:"url" db:"url" validate:"required,url"`
	Caption  *string `json:"caption,omitempty" db:"caption" validate:"omitempty,max=200"`
	Duration int     `json:"duration" db:"duration" validate:"min=0,max=300"` // seconds
}

// ListingBoost marks a paid visibility boost window.
type ListingBoost struct {
	IsActive  bool       `json:"is_active" db:"boost_active"`
	ExpiresAt *time.Time `json:"expires_at,omitempty" db:"boost_expires_at"`
}

// Listing represents a marketplace item for sale
type Listing struct {
	ID          int64   `json:"id" db:"id"`
	SellerID    int64   `json:"seller_id" db:"seller_id" validate:"required"`
	Title       string  `json:"title" db:"title" validate:"required,min=3,max=100"`
	Description string  `json:"description" db:"description" validate:"required,min=10,max=1000"`
	Price       float64 `json:"price" db:"price" validate:"min=0"`
	Category    string  `json:"category" db:"category" validate:"required,oneof=electronics books clothing furniture sports vehicles other"`

	Tags      StringArray     `json:"tags" db:"tags"`
	Location  ListingLocation `json:"location"`
	Images    []ListingImage  `json:"images" db:"-"`
	Videos    []ListingVideo  `json:"videos" db:"-"`
	Condition string          `json:"condition" db:"condition" validate:"required,oneof=new like-new good fair poor"`

	Negotiable bool `json:"negotiable" db:"negotiable"`
	UrgentSale bool `json:"urgent_sale" db:"urgent_sale"`
	Featured   bool `json:"featured" db:"featured"`

	// Seller snapshot, taken at creation and never re-synced. Historical
	// accuracy is preferred over freshness here.
	SellerName     string `json:"seller_name" db:"seller_name"`
	SellerEmail    string `json:"seller_email" db:"seller_email"`
	SellerVerified bool   `json:"seller_verified" db:"seller_verified"`

	// Sale state
	IsSold bool       `json:"is_sold" db:"is_sold"`
	SoldAt *time.Time `json:"sold_at,omitempty" db:"sold_at"`
	SoldTo *int64     `json:"sold_to,omitempty" db:"sold_to"`

	// Engagement
	Views      int          `json:"views" db:"views"`
	LikesCount int          `json:"likes_count" db:"likes_count"`
	Boost      ListingBoost `json:"boost"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`

	// Viewer-specific fields (requires user context)
	IsLiked bool `json:"is_liked" db:"-"`
	IsOwner bool `json:"is_owner" db:"-"`

	// Display helpers
	CreatedAtHuman string `json:"created_at_human,omitempty" db:"-"`
}

// ListingDetail is the read-by-id payload: the listing plus the
// seller's other active items and recent comment threads.
type ListingDetail struct {
	Listing     *Listing   `json:"item"`
	SellerItems []*Listing `json:"seller_items"`
	Comments    []*Comment `json:"comments"`
}

// ListingView records a counted view for per-day dedup. Anonymous
// views increment the counter directly and never create a row.
type ListingView struct {
	ListingID int64     `json:"listing_id" db:"listing_id"`
	UserID    int64     `json:"user_id" db:"user_id"`
	ViewedAt  time.Time `json:"viewed_at" db:"viewed_at"`
}

// UserListingStats summarizes a seller's marketplace activity.
type UserListingStats struct {
	TotalItems    int     `json:"total_items"`
	ActiveItems   int     `json:"active_items"`
	SoldItems     int     `json:"sold_items"`
	TotalViews    int     `json:"total_views"`
	TotalEarnings float64 `json:"total_earnings"`
}

// TagCount is a trending-tags aggregation row.
type TagCount struct {
	Tag   string `json:"tag" db:"tag"`
	Count int    `json:"count" db:"count"`
}

// CategoryCount is a category-breakdown aggregation row.
type CategoryCount struct {
	Category string `json:"category" db:"category"`
	Count    int    `json:"count" db:"count"`
}

// MarketplaceStats holds marketplace-wide totals.
type MarketplaceStats struct {
	ActiveListings      int64            `json:"active_listings"`
	SoldItems           int64            `json:"sold_items"`
	TotalSellers        int64            `json:"total_sellers"`
	CategoriesBreakdown []*CategoryCount `json:"categories_breakdown"`
}

// ===============================
// OFFERS
// ===============================

// Offer lifecycle states
const (
	OfferStatusPending        = "pending"
	OfferStatusAccepted       = "accepted"
	OfferStatusRejected       = "rejected"
	OfferStatusCounterOffered = "counter-offered"
	OfferStatusCancelled      = "cancelled"
)

// Offer history actions
const (
	OfferActionCreated        = "created"
	OfferActionAccepted       = "accepted"
	OfferActionRejected       = "rejected"
	OfferActionCounterOffered = "counter-offered"
	OfferActionCancelled      = "cancelled"
)

// CounterOffer is the seller's most recent counter. Present only
// while the offer status is counter-offered.
type CounterOffer struct {
	Price     float64   `json:"price" db:"counter_price"`
	Message   *string   `json:"message,omitempty" db:"counter_message"`
	CreatedAt time.Time `json:"created_at" db:"counter_created_at"`
}

// Offer represents a buyer's price proposal on a listing
type Offer struct {
	ID       int64 `json:"id" db:"id"`
	ItemID   int64 `json:"item_id" db:"item_id" validate:"required"`
	BuyerID  int64 `json:"buyer_id" db:"buyer_id" validate:"required"`
	SellerID int64 `json:"seller_id" db:"seller_id"` // snapshot from the item at creation

	OriginalPrice float64 `json:"original_price" db:"original_price"` // item price at creation
	OfferPrice    float64 `json:"offer_price" db:"offer_price" validate:"min=0"`
	Message       *string `json:"message,omitempty" db:"message" validate:"omitempty,max=500"`

	Status       string        `json:"status" db:"status"`
	CounterOffer *CounterOffer `json:"counter_offer,omitempty"`
	ValidUntil   time.Time     `json:"valid_until" db:"valid_until"`

	History []*OfferHistoryEntry `json:"history,omitempty" db:"-"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`

	// Joined summaries
	Buyer  *UserSummary    `json:"buyer,omitempty" db:"-"`
	Seller *UserSummary    `json:"seller,omitempty" db:"-"`
	Item   *ListingSummary `json:"item,omitempty" db:"-"`
}

// IsActive reports whether the offer still awaits a resolution.
func (o *Offer) IsActive() bool {
	return o.Status == OfferStatusPending || o.Status == OfferStatusCounterOffered
}

// OfferHistoryEntry is one append-only log record of an offer transition.
type OfferHistoryEntry struct {
	ID        int64     `json:"id" db:"id"`
	OfferID   int64     `json:"offer_id" db:"offer_id"`
	Action    string    `json:"action" db:"action"`
	Message   *string   `json:"message,omitempty" db:"message"`
	Price     *float64  `json:"price,omitempty" db:"price"`
	ActorID   int64     `json:"by" db:"actor_id"`
	CreatedAt time.Time `json:"timestamp" db:"created_at"`
}

// UserSummary is the joined slice of a user other records embed.
type UserSummary struct {
	ID             int64   `json:"id" db:"id"`
	Name           string  `json:"name" db:"name"`
	Email          string  `json:"email,omitempty" db:"email"`
	ProfilePicture *string `json:"profile_picture,omitempty" db:"profile_picture"`
	Verified       bool    `json:"verified" db:"verified"`
}

// ListingSummary is the joined slice of a listing other records embed.
type ListingSummary struct {
	ID       int64   `json:"id" db:"id"`
	Title    string  `json:"title" db:"title"`
	Price    float64 `json:"price" db:"price"`
	ImageURL *string `json:"image_url,omitempty" db:"image_url"`
	IsSold   bool    `json:"is_sold" db:"is_sold"`
}

// ===============================
// COMMENTS
// ===============================

// Comment represents an item question/comment. Two tiers only: a
// reply's parent is always a top-level comment.
type Comment struct {
	ID      int64  `json:"id" db:"id"`
	ItemID  int64  `json:"item_id" db:"item_id" validate:"required"`
	UserID  int64  `json:"user_id" db:"user_id" validate:"required"`
	Content string `json:"content" db:"content" validate:"required,min=1,max=1000"`

	ParentCommentID *int64 `json:"parent_comment_id,omitempty" db:"parent_comment_id"`

	// Computed once at creation, never re-derived.
	IsQuestion       bool   `json:"is_question" db:"is_question"`
	IsAnswer         bool   `json:"is_answer" db:"is_answer"`
	IsSellerResponse bool   `json:"is_seller_response" db:"is_seller_response"`
	AnsweredBy       *int64 `json:"answered_by,omitempty" db:"answered_by"`

	// User snapshot
	UserName  string `json:"user_name" db:"user_name"`
	UserEmail string `json:"-" db:"user_email"`

	// Kept mechanically in sync with the comment_likes rows.
	LikesCount int `json:"likes_count" db:"likes_count"`

	IsEdited  bool       `json:"is_edited" db:"is_edited"`
	IsDeleted bool       `json:"is_deleted" db:"is_deleted"`
	DeletedAt *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`

	// Attached at read time for top-level comments, oldest first.
	Replies []*Comment `json:"replies,omitempty" db:"-"`

	// Viewer-specific
	IsLiked bool `json:"is_liked" db:"-"`

	// Joined
	User *UserSummary `json:"user,omitempty" db:"-"`
}

// CommentEdit retains a prior revision of an edited comment.
type CommentEdit struct {
	ID        int64     `json:"id" db:"id"`
	CommentID int64     `json:"comment_id" db:"comment_id"`
	Content   string    `json:"content" db:"content"`
	EditedAt  time.Time `json:"edited_at" db:"edited_at"`
}

// ===============================
// MESSAGES
// ===============================

// Message types
const (
	MessageTypeText        = "text"
	MessageTypeImage       = "image"
	MessageTypeFile        = "file"
	MessageTypeOffer       = "offer"
	MessageTypeItemInquiry = "item-inquiry"
)

// MessageAttachment is a file or image attached to a message.
type MessageAttachment struct {
	ID        int64   `json:"id,omitempty" db:"id"`
	MessageID int64   `json:"-" db:"message_id"`
	Kind      string  `json:"type" db:"kind" validate:"required,oneof=image file"`
	URL       string  `json:"url" db:"url" validate:"required,url"`
	Filename  string  `json:"filename" db:"filename" validate:"required,max=255"`
	Size      *int64  `json:"size,omitempty" db:"size"`
	MimeType  *string `json:"mime_type,omitempty" db:"mime_type"`
}

// Message represents one direct message between two users
type Message struct {
	ID             int64  `json:"id" db:"id"`
	ConversationID string `json:"conversation_id" db:"conversation_id"`
	SenderID       int64  `json:"sender_id" db:"sender_id" validate:"required"`
	ReceiverID     int64  `json:"receiver_id" db:"receiver_id" validate:"required"`

	// Name snapshots
	SenderName   string `json:"sender_name" db:"sender_name"`
	ReceiverName string `json:"receiver_name" db:"receiver_name"`

	Content     string               `json:"content" db:"content" validate:"required,min=1,max=2000"`
	MessageType string               `json:"message_type" db:"message_type" validate:"required,oneof=text image file offer item-inquiry"`
	Attachments []*MessageAttachment `json:"attachments,omitempty" db:"-"`

	RelatedItemID  *int64 `json:"related_item_id,omitempty" db:"related_item_id"`
	RelatedOfferID *int64 `json:"related_offer_id,omitempty" db:"related_offer_id"`
	ReplyTo        *int64 `json:"reply_to,omitempty" db:"reply_to"`

	IsRead      bool       `json:"is_read" db:"is_read"`
	ReadAt      *time.Time `json:"read_at,omitempty" db:"read_at"`
	IsDelivered bool       `json:"is_delivered" db:"is_delivered"`
	DeliveredAt *time.Time `json:"delivered_at,omitempty" db:"delivered_at"`

	IsEdited        bool       `json:"is_edited" db:"is_edited"`
	EditedAt        *time.Time `json:"edited_at,omitempty" db:"edited_at"`
	OriginalContent *string    `json:"original_content,omitempty" db:"original_content"`

	IsDeleted bool       `json:"is_deleted" db:"is_deleted"`
	DeletedAt *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
	DeletedBy *int64     `json:"deleted_by,omitempty" db:"deleted_by"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// Joined summaries
	Sender       *UserSummary    `json:"sender,omitempty" db:"-"`
	Receiver     *UserSummary    `json:"receiver,omitempty" db:"-"`
	RelatedItem  *ListingSummary `json:"related_item,omitempty" db:"-"`
	RelatedOffer *OfferSummary   `json:"related_offer,omitempty" db:"-"`
}

// OfferSummary is the joined slice of an offer embedded in a message.
type OfferSummary struct {
	ID         int64   `json:"id" db:"id"`
	OfferPrice float64 `json:"offer_price" db:"offer_price"`
	Status     string  `json:"status" db:"status"`
}

// Conversation is the per-request aggregation row for a user's
// conversation list. There is no backing table; it is recomputed from
// messages on every list request.
type Conversation struct {
	ConversationID string       `json:"conversation_id"`
	LastMessage    *Message     `json:"last_message"`
	UnreadCount    int          `json:"unread_count"`
	OtherUser      *UserSummary `json:"other_user,omitempty"`
}

// ===============================
// PAGINATION
// ===============================

// PaginationParams represents pagination parameters
type PaginationParams struct {
	Limit  int    `json:"limit" validate:"min=1,max=100"`
	Offset int    `json:"offset" validate:"min=0"`
	Sort   string `json:"sort,omitempty"`
	Order  string `json:"order,omitempty" validate:"omitempty,oneof=asc desc"`
}

// Page returns the 1-based page number implied by the offset.
func (p PaginationParams) Page() int {
	if p.Limit <= 0 {
		return 1
	}
	return p.Offset/p.Limit + 1
}

// PaginatedResponse represents a paginated API response
type PaginatedResponse[T any] struct {
	Data       []T            `json:"data"`
	Pagination PaginationMeta `json:"pagination"`
	Filters    map[string]any `json:"filters,omitempty"`
}

// PaginationMeta contains pagination metadata
type PaginationMeta struct {
	CurrentPage  int   `json:"current_page"`
	TotalPages   int   `json:"total_pages"`
	TotalItems   int64 `json:"total_items"`
	ItemsPerPage int   `json:"items_per_page"`
	HasNext      bool  `json:"has_next"`
	HasPrev      bool  `json:"has_prev"`
}

// NewPaginationMeta derives page metadata from totals.
func NewPaginationMeta(params PaginationParams, total int64) PaginationMeta {
	limit := params.Limit
	if limit <= 0 {
		limit = 20
	}
	totalPages := int((total + int64(limit) - 1) / int64(limit))
	page := params.Page()
	return PaginationMeta{
		CurrentPage:  page,
		TotalPages:   totalPages,
		TotalItems:   total,
		ItemsPerPage: limit,
		HasNext:      int64(page)*int64(limit) < total,
		HasPrev:      page > 1,
	}
}

// ===============================
// CUSTOM TYPES
// ===============================

// StringArray maps PostgreSQL text[] columns. pq's codec handles the
// quoting rules for elements containing commas or quotes.
type StringArray = pq.StringArray

// ===============================
// HELPERS
// ===============================

// FormatTimeHuman renders a timestamp the way the feed displays it.
func FormatTimeHuman(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%d minutes ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%d hours ago", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%d days ago", int(d.Hours()/24))
	default:
		return t.Format("Jan 2, 2006")
	}
}
