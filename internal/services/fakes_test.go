// ===============================
// FILE: internal/services/fakes_test.go
// ===============================

package services

import (
	"campusmart/internal/models"
	"campusmart/internal/repositories"
	"context"
	"fmt"
	"sync"
	"time"
)

// In-memory repository fakes shared by the service tests. They keep
// just enough behavior to exercise the service rules without a
// database.

// ===============================
// USER REPOSITORY FAKE
// ===============================

type fakeUserRepo struct {
	mu         sync.Mutex
	users      map[int64]*models.User
	nextID     int64
	itemLikes  map[[2]int64]bool
	likeCounts map[int64]int

	likedItemsPage *models.PaginatedResponse[*models.Listing]
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		users:      make(map[int64]*models.User),
		itemLikes:  make(map[[2]int64]bool),
		likeCounts: make(map[int64]int),
	}
}

func (r *fakeUserRepo) addUser(name, email string) *models.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	u := &models.User{
		ID:        r.nextID,
		Name:      name,
		Email:     email,
		CreatedAt: time.Now(),
	}
	r.users[u.ID] = u
	return u
}

func (r *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return fmt.Errorf("%w: duplicate key", repositories.ErrDuplicateEmail)
		}
	}
	r.nextID++
	user.ID = r.nextID
	user.CreatedAt = time.Now()
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	clone := *u
	return &clone, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) UpdateProfile(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *fakeUserRepo) GetSummary(ctx context.Context, id int64) (*models.UserSummary, error) {
	u, err := r.GetByID(ctx, id)
	if err != nil || u == nil {
		return nil, err
	}
	return &models.UserSummary{ID: u.ID, Name: u.Name, Email: u.Email, Verified: u.Verified}, nil
}

func (r *fakeUserRepo) GetSummaries(ctx context.Context, ids []int64) (map[int64]*models.UserSummary, error) {
	out := make(map[int64]*models.UserSummary, len(ids))
	for _, id := range ids {
		s, err := r.GetSummary(ctx, id)
		if err != nil {
			return nil, err
		}
		if s != nil {
			out[id] = s
		}
	}
	return out, nil
}

func (r *fakeUserRepo) ToggleItemLike(ctx context.Context, userID, itemID int64) (bool, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := [2]int64{userID, itemID}
	if r.itemLikes[key] {
		delete(r.itemLikes, key)
		r.likeCounts[itemID]--
		return false, r.likeCounts[itemID], nil
	}
	r.itemLikes[key] = true
	r.likeCounts[itemID]++
	return true, r.likeCounts[itemID], nil
}

func (r *fakeUserRepo) IsItemLiked(ctx context.Context, userID, itemID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.itemLikes[[2]int64{userID, itemID}], nil
}

func (r *fakeUserRepo) GetLikedItemIDs(ctx context.Context, userID int64, itemIDs []int64) (map[int64]bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[int64]bool, len(itemIDs))
	for _, id := range itemIDs {
		if r.itemLikes[[2]int64{userID, id}] {
			out[id] = true
		}
	}
	return out, nil
}

func (r *fakeUserRepo) GetLikedItems(ctx context.Context, userID int64, params models.PaginationParams) (*models.PaginatedResponse[*models.Listing], error) {
	if r.likedItemsPage != nil {
		return r.likedItemsPage, nil
	}
	return &models.PaginatedResponse[*models.Listing]{
		Data:       []*models.Listing{},
		Pagination: models.NewPaginationMeta(params, 0),
	}, nil
}

// ===============================
// LISTING REPOSITORY FAKE
// ===============================

type fakeListingRepo struct {
	mu       sync.Mutex
	listings map[int64]*models.Listing
	nextID   int64

	// dedupViews records which (listing, user) pairs already counted
	// today.
	dedupViews map[[2]int64]bool

	searchPage   *models.PaginatedResponse[*models.Listing]
	lastFilter   repositories.ListingFilter
	sellerPage   *models.PaginatedResponse[*models.Listing]
	userStats    *models.UserListingStats
	trendingTags []*models.TagCount
	categories   []*models.CategoryCount
	stats        *models.MarketplaceStats

	trendingCalls   int
	categoryCalls   int
	statsCalls      int
	deletedListings []int64
}

func newFakeListingRepo() *fakeListingRepo {
	return &fakeListingRepo{
		listings:   make(map[int64]*models.Listing),
		dedupViews: make(map[[2]int64]bool),
	}
}

func (r *fakeListingRepo) addListing(sellerID int64, price float64) *models.Listing {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	l := &models.Listing{
		ID:          r.nextID,
		SellerID:    sellerID,
		Title:       "Casio FX-991 calculator",
		Description: "Barely used, batteries included.",
		Price:       price,
		Category:    models.CategoryElectronics,
		Condition:   models.ConditionGood,
		CreatedAt:   time.Now(),
	}
	r.listings[l.ID] = l
	return l
}

func (r *fakeListingRepo) Create(ctx context.Context, listing *models.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	listing.ID = r.nextID
	listing.CreatedAt = time.Now()
	r.listings[listing.ID] = listing
	return nil
}

func (r *fakeListingRepo) GetByID(ctx context.Context, id int64) (*models.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l := r.listings[id]
	if l == nil {
		return nil, nil
	}
	// Return a copy so callers see a fresh row per query, like the real
	// repository, instead of aliasing the stored struct.
	cp := *l
	return &cp, nil
}

func (r *fakeListingRepo) Update(ctx context.Context, listing *models.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listings[listing.ID] = listing
	return nil
}

func (r *fakeListingRepo) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.listings, id)
	r.deletedListings = append(r.deletedListings, id)
	return nil
}

func (r *fakeListingRepo) MarkSold(ctx context.Context, id int64, soldTo *int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l := r.listings[id]
	now := time.Now()
	l.IsSold = true
	l.SoldAt = &now
	l.SoldTo = soldTo
	return nil
}

func (r *fakeListingRepo) UnmarkSold(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l := r.listings[id]
	l.IsSold = false
	l.SoldAt = nil
	l.SoldTo = nil
	return nil
}

func (r *fakeListingRepo) Search(ctx context.Context, filter repositories.ListingFilter, params models.PaginationParams) (*models.PaginatedResponse[*models.Listing], error) {
	r.mu.Lock()
	r.lastFilter = filter
	r.mu.Unlock()
	if r.searchPage != nil {
		return r.searchPage, nil
	}
	return &models.PaginatedResponse[*models.Listing]{
		Data:       []*models.Listing{},
		Pagination: models.NewPaginationMeta(params, 0),
	}, nil
}

func (r *fakeListingRepo) GetBySeller(ctx context.Context, sellerID int64, status string, params models.PaginationParams) (*models.PaginatedResponse[*models.Listing], error) {
	if r.sellerPage != nil {
		return r.sellerPage, nil
	}
	return &models.PaginatedResponse[*models.Listing]{
		Data:       []*models.Listing{},
		Pagination: models.NewPaginationMeta(params, 0),
	}, nil
}

func (r *fakeListingRepo) GetSellerOtherItems(ctx context.Context, sellerID, excludeID int64, limit int) ([]*models.Listing, error) {
	return []*models.Listing{}, nil
}

func (r *fakeListingRepo) RegisterView(ctx context.Context, listingID, userID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := [2]int64{listingID, userID}
	if r.dedupViews[key] {
		return false, nil
	}
	r.dedupViews[key] = true
	if l := r.listings[listingID]; l != nil {
		l.Views++
	}
	return true, nil
}

func (r *fakeListingRepo) IncrementViews(ctx context.Context, listingID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if l := r.listings[listingID]; l != nil {
		l.Views++
	}
	return nil
}

func (r *fakeListingRepo) GetUserStats(ctx context.Context, sellerID int64) (*models.UserListingStats, error) {
	if r.userStats != nil {
		return r.userStats, nil
	}
	return &models.UserListingStats{}, nil
}

func (r *fakeListingRepo) GetTrendingTags(ctx context.Context, limit int) ([]*models.TagCount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.trendingCalls++
	return r.trendingTags, nil
}

func (r *fakeListingRepo) GetCategoryBreakdown(ctx context.Context) ([]*models.CategoryCount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.categoryCalls++
	return r.categories, nil
}

func (r *fakeListingRepo) GetMarketplaceStats(ctx context.Context) (*models.MarketplaceStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statsCalls++
	if r.stats != nil {
		return r.stats, nil
	}
	return &models.MarketplaceStats{}, nil
}

// ===============================
// OFFER REPOSITORY FAKE
// ===============================

type fakeOfferRepo struct {
	mu      sync.Mutex
	offers  map[int64]*models.Offer
	history map[int64][]*models.OfferHistoryEntry
	nextID  int64

	deletedItems []int64
	createErr    error
}

func newFakeOfferRepo() *fakeOfferRepo {
	return &fakeOfferRepo{
		offers:  make(map[int64]*models.Offer),
		history: make(map[int64][]*models.OfferHistoryEntry),
	}
}

func (r *fakeOfferRepo) Create(ctx context.Context, offer *models.Offer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	for _, existing := range r.offers {
		if existing.ItemID == offer.ItemID && existing.BuyerID == offer.BuyerID && existing.IsActive() {
			return fmt.Errorf("%w: duplicate key", repositories.ErrDuplicateActiveOffer)
		}
	}
	r.nextID++
	offer.ID = r.nextID
	offer.Status = models.OfferStatusPending
	if offer.ValidUntil.IsZero() {
		offer.ValidUntil = time.Now().Add(7 * 24 * time.Hour)
	}
	offer.CreatedAt = time.Now()
	r.offers[offer.ID] = offer
	r.history[offer.ID] = append(r.history[offer.ID], &models.OfferHistoryEntry{
		OfferID:   offer.ID,
		Action:    models.OfferActionCreated,
		Message:   offer.Message,
		Price:     &offer.OfferPrice,
		ActorID:   offer.BuyerID,
		CreatedAt: offer.CreatedAt,
	})
	return nil
}

func (r *fakeOfferRepo) GetByID(ctx context.Context, id int64) (*models.Offer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.offers[id]
	if !ok {
		return nil, nil
	}
	clone := *o
	return &clone, nil
}

func (r *fakeOfferRepo) GetActiveByBuyerAndItem(ctx context.Context, buyerID, itemID int64) (*models.Offer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.offers {
		if o.BuyerID == buyerID && o.ItemID == itemID && o.IsActive() {
			clone := *o
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *fakeOfferRepo) Transition(ctx context.Context, offerID int64, newStatus string, counter *models.CounterOffer, entry *models.OfferHistoryEntry) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.offers[offerID]
	if !ok || !o.IsActive() {
		return false, nil
	}
	o.Status = newStatus
	o.CounterOffer = counter
	entry.CreatedAt = time.Now()
	r.history[offerID] = append(r.history[offerID], entry)
	return true, nil
}

func (r *fakeOfferRepo) CancelAllForItem(ctx context.Context, itemID, actorID int64) ([]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var cancelled []int64
	for _, o := range r.offers {
		if o.ItemID == itemID && o.IsActive() {
			o.Status = models.OfferStatusCancelled
			o.CounterOffer = nil
			r.history[o.ID] = append(r.history[o.ID], &models.OfferHistoryEntry{
				OfferID:   o.ID,
				Action:    models.OfferActionCancelled,
				ActorID:   actorID,
				CreatedAt: time.Now(),
			})
			cancelled = append(cancelled, o.ID)
		}
	}
	return cancelled, nil
}

func (r *fakeOfferRepo) GetByItem(ctx context.Context, itemID int64) ([]*models.Offer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Offer
	for _, o := range r.offers {
		if o.ItemID == itemID {
			clone := *o
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *fakeOfferRepo) GetByBuyer(ctx context.Context, buyerID int64, status string, params models.PaginationParams) (*models.PaginatedResponse[*models.Offer], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Offer
	for _, o := range r.offers {
		if o.BuyerID != buyerID {
			continue
		}
		if status != "" && o.Status != status {
			continue
		}
		clone := *o
		out = append(out, &clone)
	}
	return &models.PaginatedResponse[*models.Offer]{
		Data:       out,
		Pagination: models.NewPaginationMeta(params, int64(len(out))),
	}, nil
}

func (r *fakeOfferRepo) GetHistory(ctx context.Context, offerID int64) ([]*models.OfferHistoryEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.history[offerID], nil
}

func (r *fakeOfferRepo) DeleteByItem(ctx context.Context, itemID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, o := range r.offers {
		if o.ItemID == itemID {
			delete(r.offers, id)
		}
	}
	r.deletedItems = append(r.deletedItems, itemID)
	return nil
}

// ===============================
// COMMENT REPOSITORY FAKE
// ===============================

type fakeCommentRepo struct {
	mu       sync.Mutex
	comments map[int64]*models.Comment
	nextID   int64
	likes    map[[2]int64]bool

	deletedItems []int64
}

func newFakeCommentRepo() *fakeCommentRepo {
	return &fakeCommentRepo{
		comments: make(map[int64]*models.Comment),
		likes:    make(map[[2]int64]bool),
	}
}

func (r *fakeCommentRepo) Create(ctx context.Context, comment *models.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	comment.ID = r.nextID
	comment.CreatedAt = time.Now()
	r.comments[comment.ID] = comment
	return nil
}

func (r *fakeCommentRepo) GetByID(ctx context.Context, id int64) (*models.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.comments[id]
	if !ok {
		return nil, nil
	}
	clone := *c
	return &clone, nil
}

func (r *fakeCommentRepo) GetTopLevelByItem(ctx context.Context, itemID int64, commentType string, params models.PaginationParams) (*models.PaginatedResponse[*models.Comment], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Comment
	for id := r.nextID; id >= 1; id-- {
		c, ok := r.comments[id]
		if !ok || c.ItemID != itemID || c.ParentCommentID != nil || c.IsDeleted {
			continue
		}
		switch commentType {
		case "questions":
			if !c.IsQuestion {
				continue
			}
		case "comments":
			if c.IsQuestion {
				continue
			}
		}
		clone := *c
		out = append(out, &clone)
	}
	return &models.PaginatedResponse[*models.Comment]{
		Data:       out,
		Pagination: models.NewPaginationMeta(params, int64(len(out))),
	}, nil
}

func (r *fakeCommentRepo) GetReplies(ctx context.Context, parentIDs []int64) (map[int64][]*models.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	wanted := make(map[int64]bool, len(parentIDs))
	for _, id := range parentIDs {
		wanted[id] = true
	}
	out := make(map[int64][]*models.Comment)
	for id := int64(1); id <= r.nextID; id++ {
		c, ok := r.comments[id]
		if !ok || c.ParentCommentID == nil || c.IsDeleted || !wanted[*c.ParentCommentID] {
			continue
		}
		clone := *c
		out[*c.ParentCommentID] = append(out[*c.ParentCommentID], &clone)
	}
	return out, nil
}

func (r *fakeCommentRepo) ToggleLike(ctx context.Context, commentID, userID int64) (bool, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.comments[commentID]
	key := [2]int64{userID, commentID}
	if r.likes[key] {
		delete(r.likes, key)
		c.LikesCount--
		return false, c.LikesCount, nil
	}
	r.likes[key] = true
	c.LikesCount++
	return true, c.LikesCount, nil
}

func (r *fakeCommentRepo) GetLikedCommentIDs(ctx context.Context, userID int64, commentIDs []int64) (map[int64]bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[int64]bool, len(commentIDs))
	for _, id := range commentIDs {
		if r.likes[[2]int64{userID, id}] {
			out[id] = true
		}
	}
	return out, nil
}

func (r *fakeCommentRepo) Edit(ctx context.Context, commentID int64, newContent string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.comments[commentID]
	c.Content = newContent
	c.IsEdited = true
	return nil
}

func (r *fakeCommentRepo) SoftDelete(ctx context.Context, commentID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.comments[commentID]
	now := time.Now()
	c.IsDeleted = true
	c.DeletedAt = &now
	return nil
}

func (r *fakeCommentRepo) DeleteByItem(ctx context.Context, itemID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, c := range r.comments {
		if c.ItemID == itemID {
			delete(r.comments, id)
		}
	}
	r.deletedItems = append(r.deletedItems, itemID)
	return nil
}

// ===============================
// MESSAGE REPOSITORY FAKE
// ===============================

type fakeMessageRepo struct {
	mu       sync.Mutex
	messages map[int64]*models.Message
	nextID   int64

	deletedItems     []int64
	deleteByItemHook func(itemID int64)
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{messages: make(map[int64]*models.Message)}
}

func (r *fakeMessageRepo) Create(ctx context.Context, message *models.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	message.ID = r.nextID
	message.CreatedAt = time.Now()
	r.messages[message.ID] = message
	return nil
}

func (r *fakeMessageRepo) GetByID(ctx context.Context, id int64) (*models.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.messages[id]
	if !ok {
		return nil, nil
	}
	clone := *m
	return &clone, nil
}

func (r *fakeMessageRepo) GetConversation(ctx context.Context, conversationID string, params models.PaginationParams) ([]*models.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Message
	for id := r.nextID; id >= 1; id-- {
		m, ok := r.messages[id]
		if !ok || m.ConversationID != conversationID || m.IsDeleted {
			continue
		}
		clone := *m
		out = append(out, &clone)
	}
	return out, nil
}

func (r *fakeMessageRepo) MarkConversationRead(ctx context.Context, conversationID string, receiverID int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var marked int64
	now := time.Now()
	for _, m := range r.messages {
		if m.ConversationID == conversationID && m.ReceiverID == receiverID && !m.IsRead && !m.IsDeleted {
			m.IsRead = true
			m.ReadAt = &now
			marked++
		}
	}
	return marked, nil
}

func (r *fakeMessageRepo) ListConversations(ctx context.Context, userID int64, params models.PaginationParams) ([]*models.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	byConv := make(map[string]*models.Conversation)
	for id := int64(1); id <= r.nextID; id++ {
		m, ok := r.messages[id]
		if !ok || m.IsDeleted || (m.SenderID != userID && m.ReceiverID != userID) {
			continue
		}
		clone := *m
		conv, ok := byConv[m.ConversationID]
		if !ok {
			conv = &models.Conversation{ConversationID: m.ConversationID}
			byConv[m.ConversationID] = conv
		}
		conv.LastMessage = &clone
		if m.ReceiverID == userID && !m.IsRead {
			conv.UnreadCount++
		}
	}
	out := make([]*models.Conversation, 0, len(byConv))
	for _, c := range byConv {
		out = append(out, c)
	}
	return out, nil
}

func (r *fakeMessageRepo) MarkRead(ctx context.Context, messageID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m := r.messages[messageID]
	if m.IsRead {
		return nil
	}
	now := time.Now()
	m.IsRead = true
	m.ReadAt = &now
	return nil
}

func (r *fakeMessageRepo) MarkDelivered(ctx context.Context, messageID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m := r.messages[messageID]
	if m.IsDelivered {
		return nil
	}
	now := time.Now()
	m.IsDelivered = true
	m.DeliveredAt = &now
	return nil
}

func (r *fakeMessageRepo) Edit(ctx context.Context, messageID int64, newContent string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m := r.messages[messageID]
	if m.OriginalContent == nil {
		original := m.Content
		m.OriginalContent = &original
	}
	now := time.Now()
	m.Content = newContent
	m.IsEdited = true
	m.EditedAt = &now
	return nil
}

func (r *fakeMessageRepo) SoftDelete(ctx context.Context, messageID, deletedBy int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m := r.messages[messageID]
	now := time.Now()
	m.IsDeleted = true
	m.DeletedAt = &now
	m.DeletedBy = &deletedBy
	return nil
}

func (r *fakeMessageRepo) UnreadCount(ctx context.Context, userID int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, m := range r.messages {
		if m.ReceiverID == userID && !m.IsRead && !m.IsDeleted {
			count++
		}
	}
	return count, nil
}

func (r *fakeMessageRepo) DeleteByItem(ctx context.Context, itemID int64) error {
	if r.deleteByItemHook != nil {
		r.deleteByItemHook(itemID)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, m := range r.messages {
		if m.RelatedItemID != nil && *m.RelatedItemID == itemID {
			delete(r.messages, id)
		}
	}
	r.deletedItems = append(r.deletedItems, itemID)
	return nil
}
