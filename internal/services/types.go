// file: internal/services/types.go
package services

import (
	"campusmart/internal/models"
	"time"
)

// ===============================
// AUTH SERVICE TYPES
// ===============================

type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      *models.User `json:"user"`
}

// TokenClaims is the authenticated identity extracted from a bearer token
type TokenClaims struct {
	UserID int64  `json:"userId"`
	Email  string `json:"email"`
}

// ===============================
// USER SERVICE TYPES
// ===============================

type UpdateProfileRequest struct {
	UserID      int64    `json:"-" validate:"required"`
	Bio         *string  `json:"bio,omitempty" validate:"omitempty,max=1000"`
	Skills      []string `json:"skills,omitempty"`
	Interests   []string `json:"interests,omitempty"`
	CourseTitle *string  `json:"courseTitle,omitempty" validate:"omitempty,max=255"`
	Title       *string  `json:"title,omitempty" validate:"omitempty,max=255"`
}

// LikeResult reports the outcome of an idempotent like toggle
type LikeResult struct {
	Liked      bool `json:"liked"`
	LikesCount int  `json:"likesCount"`
}

// ===============================
// LISTING SERVICE TYPES
// ===============================

type CreateListingRequest struct {
	SellerID    int64                   `json:"-" validate:"required"`
	Title       string                  `json:"title" validate:"required,min=3,max=255"`
	Description string                  `json:"description" validate:"required,min=10,max=5000"`
	Price       float64                 `json:"price" validate:"gte=0"`
	Category    string                  `json:"category" validate:"required"`
	Condition   string                  `json:"condition" validate:"required"`
	Tags        []string                `json:"tags,omitempty" validate:"max=10,dive,listing_tag"`
	Images      []*models.ListingImage  `json:"images,omitempty" validate:"max=8,dive"`
	Videos      []*models.ListingVideo  `json:"videos,omitempty" validate:"max=2,dive"`
	Location    *models.ListingLocation `json:"location,omitempty"`
	Negotiable  bool                    `json:"negotiable"`
	UrgentSale  bool                    `json:"urgentSale"`
}

type UpdateListingRequest struct {
	ListingID   int64                   `json:"-" validate:"required"`
	UserID      int64                   `json:"-" validate:"required"`
	Title       string                  `json:"title" validate:"required,min=3,max=255"`
	Description string                  `json:"description" validate:"required,min=10,max=5000"`
	Price       float64                 `json:"price" validate:"gte=0"`
	Category    string                  `json:"category" validate:"required"`
	Condition   string                  `json:"condition" validate:"required"`
	Tags        []string                `json:"tags,omitempty" validate:"max=10,dive,listing_tag"`
	Images      []*models.ListingImage  `json:"images,omitempty" validate:"max=8,dive"`
	Videos      []*models.ListingVideo  `json:"videos,omitempty" validate:"max=2,dive"`
	Location    *models.ListingLocation `json:"location,omitempty"`
	Negotiable  bool                    `json:"negotiable"`
	UrgentSale  bool                    `json:"urgentSale"`
}

type SearchListingsRequest struct {
	Search     string   `json:"search,omitempty"`
	Category   string   `json:"category,omitempty"`
	MinPrice   *float64 `json:"minPrice,omitempty"`
	MaxPrice   *float64 `json:"maxPrice,omitempty"`
	Tags       []string `json:"tags,omitempty"`
	Campus     string   `json:"campus,omitempty"`
	Hostel     string   `json:"hostel,omitempty"`
	Block      string   `json:"block,omitempty"`
	Condition  string   `json:"condition,omitempty"`
	Negotiable *bool    `json:"negotiable,omitempty"`
	UrgentSale *bool    `json:"urgentSale,omitempty"`
	SellerID   *int64   `json:"sellerId,omitempty"`
	IncludeSold bool    `json:"includeSold,omitempty"`

	// ViewerID marks isLiked/isOwner on results when present
	ViewerID *int64 `json:"-"`

	Pagination models.PaginationParams `json:"pagination"`
}

// ===============================
// OFFER SERVICE TYPES
// ===============================

type CreateOfferRequest struct {
	BuyerID int64   `json:"-" validate:"required"`
	ItemID  int64   `json:"itemId" validate:"required"`
	Price   float64 `json:"offerPrice" validate:"required,gt=0"`
	Message string  `json:"message,omitempty" validate:"max=500"`

	// ValidUntil defaults to seven days out when nil
	ValidUntil *time.Time `json:"validUntil,omitempty"`
}

type RespondToOfferRequest struct {
	OfferID  int64  `json:"-" validate:"required"`
	SellerID int64  `json:"-" validate:"required"`
	Action   string `json:"action" validate:"required,oneof=accept reject counter"`

	// Counter fields, required when Action is "counter"
	CounterPrice   *float64 `json:"counterPrice,omitempty" validate:"omitempty,gt=0"`
	CounterMessage string   `json:"counterMessage,omitempty" validate:"max=500"`
}

// ===============================
// COMMENT SERVICE TYPES
// ===============================

type CreateCommentRequest struct {
	UserID          int64  `json:"-" validate:"required"`
	ItemID          int64  `json:"itemId" validate:"required"`
	Content         string `json:"content" validate:"required,min=1,max=1000"`
	ParentCommentID *int64 `json:"parentCommentId,omitempty"`
	IsQuestion      bool   `json:"isQuestion"`
}

type GetItemCommentsRequest struct {
	ItemID int64 `json:"-" validate:"required"`

	// Type filters top-level comments: "questions", "comments" or "" for all
	Type string `json:"type,omitempty" validate:"omitempty,oneof=questions comments"`

	// ViewerID marks isLiked on results when present
	ViewerID *int64 `json:"-"`

	Pagination models.PaginationParams `json:"pagination"`
}

type EditCommentRequest struct {
	CommentID int64  `json:"-" validate:"required"`
	UserID    int64  `json:"-" validate:"required"`
	Content   string `json:"content" validate:"required,min=1,max=1000"`
}

// ===============================
// MESSAGE SERVICE TYPES
// ===============================

type SendMessageRequest struct {
	SenderID   int64  `json:"-" validate:"required"`
	ReceiverID int64  `json:"receiverId" validate:"required"`
	Content    string `json:"content" validate:"required,min=1,max=2000"`

	MessageType    string                      `json:"messageType,omitempty" validate:"omitempty,oneof=text image file offer item-inquiry"`
	RelatedItemID  *int64                      `json:"relatedItemId,omitempty"`
	RelatedOfferID *int64                      `json:"relatedOfferId,omitempty"`
	ReplyTo        *int64                      `json:"replyTo,omitempty"`
	Attachments    []*models.MessageAttachment `json:"attachments,omitempty" validate:"max=5,dive"`
}

type GetConversationRequest struct {
	UserID      int64 `json:"-" validate:"required"`
	OtherUserID int64 `json:"-" validate:"required"`

	Pagination models.PaginationParams `json:"pagination"`
}

type EditMessageRequest struct {
	MessageID int64  `json:"-" validate:"required"`
	UserID    int64  `json:"-" validate:"required"`
	Content   string `json:"content" validate:"required,min=1,max=2000"`
}
