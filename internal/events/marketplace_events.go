package events

import "time"

// ===============================
// LISTING EVENTS
// ===============================

// ListingCreatedEvent is emitted when a seller publishes a new listing
type ListingCreatedEvent struct {
	BaseEvent
	ListingID int64   `json:"listing_id"`
	SellerID  int64   `json:"seller_id"`
	Title     string  `json:"title"`
	Category  string  `json:"category"`
	Price     float64 `json:"price"`
}

// NewListingCreatedEvent creates a new listing created event
func NewListingCreatedEvent(listingID, sellerID int64, title, category string, price float64) *ListingCreatedEvent {
	return &ListingCreatedEvent{
		BaseEvent: BaseEvent{
			EventID:   GenerateEventID(),
			EventType: "listing.created",
			Timestamp: time.Now(),
			UserID:    &sellerID,
		},
		ListingID: listingID,
		SellerID:  sellerID,
		Title:     title,
		Category:  category,
		Price:     price,
	}
}

// ListingSoldEvent is emitted when a listing is marked as sold
type ListingSoldEvent struct {
	BaseEvent
	ListingID int64  `json:"listing_id"`
	SellerID  int64  `json:"seller_id"`
	SoldTo    *int64 `json:"sold_to,omitempty"`
}

// NewListingSoldEvent creates a new listing sold event
func NewListingSoldEvent(listingID, sellerID int64, soldTo *int64) *ListingSoldEvent {
	return &ListingSoldEvent{
		BaseEvent: BaseEvent{
			EventID:   GenerateEventID(),
			EventType: "listing.sold",
			Timestamp: time.Now(),
			UserID:    &sellerID,
		},
		ListingID: listingID,
		SellerID:  sellerID,
		SoldTo:    soldTo,
	}
}

// ListingDeletedEvent is emitted when a listing and its dependents are removed
type ListingDeletedEvent struct {
	BaseEvent
	ListingID int64 `json:"listing_id"`
	SellerID  int64 `json:"seller_id"`
}

// NewListingDeletedEvent creates a new listing deleted event
func NewListingDeletedEvent(listingID, sellerID int64) *ListingDeletedEvent {
	return &ListingDeletedEvent{
		BaseEvent: BaseEvent{
			EventID:   GenerateEventID(),
			EventType: "listing.deleted",
			Timestamp: time.Now(),
			UserID:    &sellerID,
		},
		ListingID: listingID,
		SellerID:  sellerID,
	}
}

// ===============================
// OFFER EVENTS
// ===============================

// OfferCreatedEvent is emitted when a buyer places an offer on a listing
type OfferCreatedEvent struct {
	BaseEvent
	OfferID   int64   `json:"offer_id"`
	ListingID int64   `json:"listing_id"`
	BuyerID   int64   `json:"buyer_id"`
	SellerID  int64   `json:"seller_id"`
	Price     float64 `json:"price"`
}

// NewOfferCreatedEvent creates a new offer created event
func NewOfferCreatedEvent(offerID, listingID, buyerID, sellerID int64, price float64) *OfferCreatedEvent {
	return &OfferCreatedEvent{
		BaseEvent: BaseEvent{
			EventID:   GenerateEventID(),
			EventType: "offer.created",
			Timestamp: time.Now(),
			UserID:    &buyerID,
		},
		OfferID:   offerID,
		ListingID: listingID,
		BuyerID:   buyerID,
		SellerID:  sellerID,
		Price:     price,
	}
}

// OfferRespondedEvent is emitted when a seller accepts, rejects or counters an
// offer, or a participant cancels it
type OfferRespondedEvent struct {
	BaseEvent
	OfferID   int64  `json:"offer_id"`
	ListingID int64  `json:"listing_id"`
	BuyerID   int64  `json:"buyer_id"`
	Action    string `json:"action"`
	NewStatus string `json:"new_status"`
}

// NewOfferRespondedEvent creates a new offer responded event
func NewOfferRespondedEvent(offerID, listingID, buyerID, actorID int64, action, newStatus string) *OfferRespondedEvent {
	return &OfferRespondedEvent{
		BaseEvent: BaseEvent{
			EventID:   GenerateEventID(),
			EventType: "offer." + action,
			Timestamp: time.Now(),
			UserID:    &actorID,
		},
		OfferID:   offerID,
		ListingID: listingID,
		BuyerID:   buyerID,
		Action:    action,
		NewStatus: newStatus,
	}
}

// ===============================
// COMMENT EVENTS
// ===============================

// CommentCreatedEvent is emitted when a question, comment or reply is posted
// on a listing
type CommentCreatedEvent struct {
	BaseEvent
	CommentID int64  `json:"comment_id"`
	ListingID int64  `json:"listing_id"`
	AuthorID  int64  `json:"author_id"`
	ParentID  *int64 `json:"parent_id,omitempty"`
	Type      string `json:"type"`
}

// NewCommentCreatedEvent creates a new comment created event
func NewCommentCreatedEvent(commentID, listingID, authorID int64, parentID *int64, commentType string) *CommentCreatedEvent {
	return &CommentCreatedEvent{
		BaseEvent: BaseEvent{
			EventID:   GenerateEventID(),
			EventType: "comment.created",
			Timestamp: time.Now(),
			UserID:    &authorID,
		},
		CommentID: commentID,
		ListingID: listingID,
		AuthorID:  authorID,
		ParentID:  parentID,
		Type:      commentType,
	}
}

// ===============================
// MESSAGE EVENTS
// ===============================

// MessageSentEvent is emitted when a direct message is sent
type MessageSentEvent struct {
	BaseEvent
	MessageID      int64  `json:"message_id"`
	ConversationID string `json:"conversation_id"`
	SenderID       int64  `json:"sender_id"`
	ReceiverID     int64  `json:"receiver_id"`
	RelatedItemID  *int64 `json:"related_item_id,omitempty"`
}

// NewMessageSentEvent creates a new message sent event
func NewMessageSentEvent(messageID int64, conversationID string, senderID, receiverID int64, relatedItemID *int64) *MessageSentEvent {
	return &MessageSentEvent{
		BaseEvent: BaseEvent{
			EventID:   GenerateEventID(),
			EventType: "message.sent",
			Timestamp: time.Now(),
			UserID:    &senderID,
		},
		MessageID:      messageID,
		ConversationID: conversationID,
		SenderID:       senderID,
		ReceiverID:     receiverID,
		RelatedItemID:  relatedItemID,
	}
}

// ===============================
// AUTH EVENTS
// ===============================

// UserRegisteredEvent is emitted when a new account is created
type UserRegisteredEvent struct {
	BaseEvent
	RegisteredID int64  `json:"registered_id"`
	Email        string `json:"email"`
}

// NewUserRegisteredEvent creates a new user registered event
func NewUserRegisteredEvent(userID int64, email string) *UserRegisteredEvent {
	return &UserRegisteredEvent{
		BaseEvent: BaseEvent{
			EventID:   GenerateEventID(),
			EventType: "user.registered",
			Timestamp: time.Now(),
			UserID:    &userID,
		},
		RegisteredID: userID,
		Email:        email,
	}
}
