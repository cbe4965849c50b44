// ===============================
// FILE: internal/services/listing_service_test.go
// ===============================

package services

import (
	"campusmart/internal/cache"
	"campusmart/internal/events"
	"campusmart/internal/models"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type listingServiceFixture struct {
	svc         ListingService
	listingRepo *fakeListingRepo
	userRepo    *fakeUserRepo
	offerRepo   *fakeOfferRepo
	commentRepo *fakeCommentRepo
	messageRepo *fakeMessageRepo

	seller *models.User
}

func newListingServiceFixture(t *testing.T) *listingServiceFixture {
	t.Helper()
	listingRepo := newFakeListingRepo()
	userRepo := newFakeUserRepo()
	offerRepo := newFakeOfferRepo()
	commentRepo := newFakeCommentRepo()
	messageRepo := newFakeMessageRepo()
	cacheProvider := cache.NewMemoryCache(cache.DefaultConfig(), zap.NewNop())
	bus := events.NewEventBus(events.DefaultEventBusConfig(), zap.NewNop())
	logger, _ := zap.NewDevelopment()

	seller := userRepo.addUser("Sally Seller", "sally@campus.edu")
	seller.Verified = true

	return &listingServiceFixture{
		svc: NewListingService(
			listingRepo, userRepo, offerRepo, commentRepo, messageRepo,
			cacheProvider, bus, logger),
		listingRepo: listingRepo,
		userRepo:    userRepo,
		offerRepo:   offerRepo,
		commentRepo: commentRepo,
		messageRepo: messageRepo,
		seller:      seller,
	}
}

func validCreateListingRequest(sellerID int64) *CreateListingRequest {
	return &CreateListingRequest{
		SellerID:    sellerID,
		Title:       "Mini fridge",
		Description: "Quiet 45L fridge, perfect for a dorm room.",
		Price:       60,
		Category:    models.CategoryFurniture,
		Condition:   models.ConditionGood,
		Tags:        []string{"Dorm", "fridge "},
	}
}

func TestCreateListingSnapshotsSeller(t *testing.T) {
	f := newListingServiceFixture(t)

	listing, err := f.svc.CreateListing(context.Background(), validCreateListingRequest(f.seller.ID))
	require.NoError(t, err)

	assert.Equal(t, "Sally Seller", listing.SellerName)
	assert.Equal(t, "sally@campus.edu", listing.SellerEmail)
	assert.True(t, listing.SellerVerified)
	assert.Equal(t, []string{"dorm", "fridge"}, []string(listing.Tags), "tags are normalized")
	assert.False(t, listing.IsSold)
}

func TestCreateListingSnapshotSurvivesProfileChange(t *testing.T) {
	f := newListingServiceFixture(t)
	ctx := context.Background()

	listing, err := f.svc.CreateListing(ctx, validCreateListingRequest(f.seller.ID))
	require.NoError(t, err)

	// A later rename does not touch existing listings.
	f.seller.Name = "Sally Renamed"
	require.NoError(t, f.userRepo.UpdateProfile(ctx, f.seller))

	stored, err := f.listingRepo.GetByID(ctx, listing.ID)
	require.NoError(t, err)
	assert.Equal(t, "Sally Seller", stored.SellerName)
}

func TestCreateListingFreeItemAllowed(t *testing.T) {
	f := newListingServiceFixture(t)

	req := validCreateListingRequest(f.seller.ID)
	req.Title = "Free moving boxes"
	req.Price = 0

	listing, err := f.svc.CreateListing(context.Background(), req)
	require.NoError(t, err)
	assert.Zero(t, listing.Price)
}

func TestCreateListingUnknownSeller(t *testing.T) {
	f := newListingServiceFixture(t)

	_, err := f.svc.CreateListing(context.Background(), validCreateListingRequest(999))
	require.Error(t, err)
	assert.True(t, IsNotFoundError(err))
}

func TestAnonymousViewAlwaysCounts(t *testing.T) {
	f := newListingServiceFixture(t)
	listing := f.listingRepo.addListing(f.seller.ID, 60)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := f.svc.GetListingByID(ctx, listing.ID, nil)
		require.NoError(t, err)
	}

	stored, _ := f.listingRepo.GetByID(ctx, listing.ID)
	assert.Equal(t, 3, stored.Views, "anonymous views have no dedup")
}

func TestSellerViewNeverCounts(t *testing.T) {
	f := newListingServiceFixture(t)
	listing := f.listingRepo.addListing(f.seller.ID, 60)
	ctx := context.Background()

	detail, err := f.svc.GetListingByID(ctx, listing.ID, &f.seller.ID)
	require.NoError(t, err)
	assert.True(t, detail.Listing.IsOwner)

	stored, _ := f.listingRepo.GetByID(ctx, listing.ID)
	assert.Equal(t, 0, stored.Views)
}

func TestLoggedInViewCountsOncePerDay(t *testing.T) {
	f := newListingServiceFixture(t)
	listing := f.listingRepo.addListing(f.seller.ID, 60)
	viewer := f.userRepo.addUser("Vera Visitor", "vera@campus.edu")
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := f.svc.GetListingByID(ctx, listing.ID, &viewer.ID)
		require.NoError(t, err)
	}

	stored, _ := f.listingRepo.GetByID(ctx, listing.ID)
	assert.Equal(t, 1, stored.Views, "repeat views the same day do not count")
}

func TestGetListingByIDMarksCommentLikes(t *testing.T) {
	f := newListingServiceFixture(t)
	listing := f.listingRepo.addListing(f.seller.ID, 60)
	viewer := f.userRepo.addUser("Vera Visitor", "vera@campus.edu")
	ctx := context.Background()

	comment := &models.Comment{ItemID: listing.ID, UserID: viewer.ID, Content: "Still available?"}
	require.NoError(t, f.commentRepo.Create(ctx, comment))
	_, _, err := f.commentRepo.ToggleLike(ctx, comment.ID, viewer.ID)
	require.NoError(t, err)

	detail, err := f.svc.GetListingByID(ctx, listing.ID, &viewer.ID)
	require.NoError(t, err)
	require.Len(t, detail.Comments, 1)
	assert.True(t, detail.Comments[0].IsLiked)

	anon, err := f.svc.GetListingByID(ctx, listing.ID, nil)
	require.NoError(t, err)
	require.Len(t, anon.Comments, 1)
	assert.False(t, anon.Comments[0].IsLiked)
}

func TestGetListingByIDMissing(t *testing.T) {
	f := newListingServiceFixture(t)

	_, err := f.svc.GetListingByID(context.Background(), 404, nil)
	require.Error(t, err)
	assert.True(t, IsNotFoundError(err))
}

func TestUpdateListingSellerOnly(t *testing.T) {
	f := newListingServiceFixture(t)
	listing := f.listingRepo.addListing(f.seller.ID, 60)
	other := f.userRepo.addUser("Oscar Other", "oscar@campus.edu")

	req := &UpdateListingRequest{
		ListingID:   listing.ID,
		UserID:      other.ID,
		Title:       "Mini fridge",
		Description: "Quiet 45L fridge, perfect for a dorm room.",
		Price:       55,
		Category:    models.CategoryFurniture,
		Condition:   models.ConditionGood,
	}
	_, err := f.svc.UpdateListing(context.Background(), req)
	require.Error(t, err)
	assert.True(t, IsForbiddenError(err))

	req.UserID = f.seller.ID
	updated, err := f.svc.UpdateListing(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 55.0, updated.Price)
}

func TestMarkSoldCancelsOpenOffers(t *testing.T) {
	f := newListingServiceFixture(t)
	listing := f.listingRepo.addListing(f.seller.ID, 60)
	buyer := f.userRepo.addUser("Ben Buyer", "ben@campus.edu")
	ctx := context.Background()

	offer := &models.Offer{ItemID: listing.ID, BuyerID: buyer.ID, SellerID: f.seller.ID, OfferPrice: 50}
	require.NoError(t, f.offerRepo.Create(ctx, offer))

	sold, err := f.svc.MarkSold(ctx, listing.ID, f.seller.ID, &buyer.ID)
	require.NoError(t, err)
	assert.True(t, sold.IsSold)
	require.NotNil(t, sold.SoldTo)
	assert.Equal(t, buyer.ID, *sold.SoldTo)

	stored, err := f.offerRepo.GetByID(ctx, offer.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OfferStatusCancelled, stored.Status, "open offers are force-cancelled")

	history, err := f.offerRepo.GetHistory(ctx, offer.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, models.OfferActionCancelled, history[1].Action)
	assert.Equal(t, f.seller.ID, history[1].ActorID)
}

func TestMarkSoldTwiceRejected(t *testing.T) {
	f := newListingServiceFixture(t)
	listing := f.listingRepo.addListing(f.seller.ID, 60)
	ctx := context.Background()

	_, err := f.svc.MarkSold(ctx, listing.ID, f.seller.ID, nil)
	require.NoError(t, err)

	_, err = f.svc.MarkSold(ctx, listing.ID, f.seller.ID, nil)
	require.Error(t, err)
	assert.True(t, IsBusinessError(err))
}

func TestUnmarkSoldKeepsOffersCancelled(t *testing.T) {
	f := newListingServiceFixture(t)
	listing := f.listingRepo.addListing(f.seller.ID, 60)
	buyer := f.userRepo.addUser("Ben Buyer", "ben@campus.edu")
	ctx := context.Background()

	offer := &models.Offer{ItemID: listing.ID, BuyerID: buyer.ID, SellerID: f.seller.ID, OfferPrice: 50}
	require.NoError(t, f.offerRepo.Create(ctx, offer))

	_, err := f.svc.MarkSold(ctx, listing.ID, f.seller.ID, nil)
	require.NoError(t, err)

	relisted, err := f.svc.UnmarkSold(ctx, listing.ID, f.seller.ID)
	require.NoError(t, err)
	assert.False(t, relisted.IsSold)
	assert.Nil(t, relisted.SoldAt)

	stored, err := f.offerRepo.GetByID(ctx, offer.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OfferStatusCancelled, stored.Status, "relisting does not revive offers")
}

func TestUnmarkSoldOnActiveListingRejected(t *testing.T) {
	f := newListingServiceFixture(t)
	listing := f.listingRepo.addListing(f.seller.ID, 60)

	_, err := f.svc.UnmarkSold(context.Background(), listing.ID, f.seller.ID)
	require.Error(t, err)
	assert.True(t, IsBusinessError(err))
}

func TestDeleteListingCascades(t *testing.T) {
	f := newListingServiceFixture(t)
	listing := f.listingRepo.addListing(f.seller.ID, 60)
	ctx := context.Background()

	require.NoError(t, f.svc.DeleteListing(ctx, listing.ID, f.seller.ID))

	assert.Contains(t, f.offerRepo.deletedItems, listing.ID)
	assert.Contains(t, f.commentRepo.deletedItems, listing.ID)
	assert.Contains(t, f.messageRepo.deletedItems, listing.ID)

	stored, err := f.listingRepo.GetByID(ctx, listing.ID)
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestDeleteListingRemovesMessagesBeforeRow(t *testing.T) {
	f := newListingServiceFixture(t)
	listing := f.listingRepo.addListing(f.seller.ID, 60)
	ctx := context.Background()

	// Message cleanup matches rows by related_item_id; once the listing
	// row is gone the foreign key has already nulled that column, so
	// the cleanup must observe the listing still present.
	var presentDuringCleanup bool
	f.messageRepo.deleteByItemHook = func(itemID int64) {
		stored, err := f.listingRepo.GetByID(ctx, itemID)
		presentDuringCleanup = err == nil && stored != nil
	}

	require.NoError(t, f.svc.DeleteListing(ctx, listing.ID, f.seller.ID))
	assert.True(t, presentDuringCleanup, "message cleanup ran after the listing row was deleted")

	stored, err := f.listingRepo.GetByID(ctx, listing.ID)
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestDeleteListingSellerOnly(t *testing.T) {
	f := newListingServiceFixture(t)
	listing := f.listingRepo.addListing(f.seller.ID, 60)
	other := f.userRepo.addUser("Oscar Other", "oscar@campus.edu")

	err := f.svc.DeleteListing(context.Background(), listing.ID, other.ID)
	require.Error(t, err)
	assert.True(t, IsForbiddenError(err))
}

func TestSearchListingsExcludesSoldByDefault(t *testing.T) {
	f := newListingServiceFixture(t)
	ctx := context.Background()

	_, err := f.svc.SearchListings(ctx, &SearchListingsRequest{
		Pagination: models.PaginationParams{Limit: 20},
	})
	require.NoError(t, err)
	require.NotNil(t, f.listingRepo.lastFilter.IsSold)
	assert.False(t, *f.listingRepo.lastFilter.IsSold)

	_, err = f.svc.SearchListings(ctx, &SearchListingsRequest{
		IncludeSold: true,
		Pagination:  models.PaginationParams{Limit: 20},
	})
	require.NoError(t, err)
	assert.Nil(t, f.listingRepo.lastFilter.IsSold, "include_sold lifts the filter")
}

func TestSearchListingsMarksViewerFlags(t *testing.T) {
	f := newListingServiceFixture(t)
	viewer := f.userRepo.addUser("Vera Visitor", "vera@campus.edu")
	mine := f.listingRepo.addListing(viewer.ID, 30)
	liked := f.listingRepo.addListing(f.seller.ID, 45)
	plain := f.listingRepo.addListing(f.seller.ID, 50)
	ctx := context.Background()

	_, _, err := f.userRepo.ToggleItemLike(ctx, viewer.ID, liked.ID)
	require.NoError(t, err)

	f.listingRepo.searchPage = &models.PaginatedResponse[*models.Listing]{
		Data:       []*models.Listing{mine, liked, plain},
		Pagination: models.NewPaginationMeta(models.PaginationParams{Limit: 20}, 3),
	}

	page, err := f.svc.SearchListings(ctx, &SearchListingsRequest{
		ViewerID:   &viewer.ID,
		Pagination: models.PaginationParams{Limit: 20},
	})
	require.NoError(t, err)
	require.Len(t, page.Data, 3)
	assert.True(t, page.Data[0].IsOwner)
	assert.True(t, page.Data[1].IsLiked)
	assert.False(t, page.Data[2].IsLiked)
	assert.False(t, page.Data[2].IsOwner)
}

func TestGetMyListingsValidatesStatus(t *testing.T) {
	f := newListingServiceFixture(t)

	_, err := f.svc.GetMyListings(context.Background(), f.seller.ID, "pending", models.PaginationParams{Limit: 20})
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
}

func TestGetListingsBySellerMarksViewerFlags(t *testing.T) {
	f := newListingServiceFixture(t)
	viewer := f.userRepo.addUser("Vera Viewer", "vera@campus.edu")
	listing := f.listingRepo.addListing(f.seller.ID, 45)
	f.userRepo.itemLikes[[2]int64{viewer.ID, listing.ID}] = true
	f.listingRepo.sellerPage = &models.PaginatedResponse[*models.Listing]{
		Data:       []*models.Listing{listing},
		Pagination: models.PaginationMeta{CurrentPage: 1, TotalPages: 1, TotalItems: 1, ItemsPerPage: 20},
	}

	page, err := f.svc.GetListingsBySeller(context.Background(), f.seller.ID, &viewer.ID, models.PaginationParams{Limit: 20})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.True(t, page.Data[0].IsLiked)
	assert.False(t, page.Data[0].IsOwner)
}

func TestGetListingsBySellerUnknownUser(t *testing.T) {
	f := newListingServiceFixture(t)

	_, err := f.svc.GetListingsBySeller(context.Background(), 9999, nil, models.PaginationParams{Limit: 20})
	require.Error(t, err)
	assert.True(t, IsNotFoundError(err))
}

func TestTrendingTagsCached(t *testing.T) {
	f := newListingServiceFixture(t)
	f.listingRepo.trendingTags = []*models.TagCount{{Tag: "dorm", Count: 12}}
	ctx := context.Background()

	first, err := f.svc.GetTrendingTags(ctx, 5)
	require.NoError(t, err)
	require.Len(t, first, 1)

	second, err := f.svc.GetTrendingTags(ctx, 5)
	require.NoError(t, err)
	require.Len(t, second, 1)

	assert.Equal(t, 1, f.listingRepo.trendingCalls, "second read is served from cache")
}

func TestAggregationCacheInvalidatedOnWrite(t *testing.T) {
	f := newListingServiceFixture(t)
	f.listingRepo.trendingTags = []*models.TagCount{{Tag: "dorm", Count: 12}}
	ctx := context.Background()

	_, err := f.svc.GetTrendingTags(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, 1, f.listingRepo.trendingCalls)

	_, err = f.svc.CreateListing(ctx, validCreateListingRequest(f.seller.ID))
	require.NoError(t, err)

	_, err = f.svc.GetTrendingTags(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, 2, f.listingRepo.trendingCalls, "writes drop the cached aggregation")
}
