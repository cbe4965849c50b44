// ===============================
// FILE: internal/services/comment_service_test.go
// ===============================

package services

import (
	"campusmart/internal/events"
	"campusmart/internal/models"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type commentServiceFixture struct {
	svc         CommentService
	commentRepo *fakeCommentRepo
	listingRepo *fakeListingRepo
	userRepo    *fakeUserRepo

	seller  *models.User
	visitor *models.User
	listing *models.Listing
}

func newCommentServiceFixture(t *testing.T) *commentServiceFixture {
	t.Helper()
	commentRepo := newFakeCommentRepo()
	listingRepo := newFakeListingRepo()
	userRepo := newFakeUserRepo()
	bus := events.NewEventBus(events.DefaultEventBusConfig(), zap.NewNop())
	logger, _ := zap.NewDevelopment()

	seller := userRepo.addUser("Sally Seller", "sally@campus.edu")
	visitor := userRepo.addUser("Vera Visitor", "vera@campus.edu")
	listing := listingRepo.addListing(seller.ID, 80)

	return &commentServiceFixture{
		svc:         NewCommentService(commentRepo, listingRepo, userRepo, bus, logger),
		commentRepo: commentRepo,
		listingRepo: listingRepo,
		userRepo:    userRepo,
		seller:      seller,
		visitor:     visitor,
		listing:     listing,
	}
}

func (f *commentServiceFixture) post(t *testing.T, userID int64, content string, parentID *int64, isQuestion bool) *models.Comment {
	t.Helper()
	comment, err := f.svc.CreateComment(context.Background(), &CreateCommentRequest{
		UserID:          userID,
		ItemID:          f.listing.ID,
		Content:         content,
		ParentCommentID: parentID,
		IsQuestion:      isQuestion,
	})
	require.NoError(t, err)
	return comment
}

func TestCreateCommentSnapshotsAuthor(t *testing.T) {
	f := newCommentServiceFixture(t)

	comment := f.post(t, f.visitor.ID, "Does it come with the charger?", nil, true)

	assert.Equal(t, "Vera Visitor", comment.UserName)
	assert.True(t, comment.IsQuestion)
	assert.False(t, comment.IsSellerResponse)
	assert.False(t, comment.IsAnswer)
	assert.Nil(t, comment.ParentCommentID)
}

func TestSellerReplyToQuestionBecomesAnswer(t *testing.T) {
	f := newCommentServiceFixture(t)

	question := f.post(t, f.visitor.ID, "Is the price negotiable?", nil, true)
	reply := f.post(t, f.seller.ID, "Yes, within reason.", &question.ID, false)

	assert.True(t, reply.IsSellerResponse)
	assert.True(t, reply.IsAnswer)
	require.NotNil(t, reply.AnsweredBy)
	assert.Equal(t, f.seller.ID, *reply.AnsweredBy)
	assert.False(t, reply.IsQuestion, "replies are never questions")
}

func TestNonSellerReplyIsAnAnswer(t *testing.T) {
	f := newCommentServiceFixture(t)
	other := f.userRepo.addUser("Oscar Onlooker", "oscar@campus.edu")

	question := f.post(t, f.visitor.ID, "Any scratches on the screen?", nil, true)
	reply := f.post(t, other.ID, "I saw it last week, looked fine.", &question.ID, false)

	assert.False(t, reply.IsSellerResponse, "only the seller's replies carry the seller flag")
	assert.True(t, reply.IsAnswer, "any reply answers its parent")
	require.NotNil(t, reply.AnsweredBy)
	assert.Equal(t, other.ID, *reply.AnsweredBy)
}

func TestSellerReplyToPlainCommentIsStillAnAnswer(t *testing.T) {
	f := newCommentServiceFixture(t)

	comment := f.post(t, f.visitor.ID, "Nice listing!", nil, false)
	reply := f.post(t, f.seller.ID, "Thanks!", &comment.ID, false)

	assert.True(t, reply.IsSellerResponse)
	assert.True(t, reply.IsAnswer)
	require.NotNil(t, reply.AnsweredBy)
	assert.Equal(t, f.seller.ID, *reply.AnsweredBy)
}

func TestReplyToReplyRejected(t *testing.T) {
	f := newCommentServiceFixture(t)

	question := f.post(t, f.visitor.ID, "Still available?", nil, true)
	reply := f.post(t, f.seller.ID, "Yes.", &question.ID, false)

	_, err := f.svc.CreateComment(context.Background(), &CreateCommentRequest{
		UserID:          f.visitor.ID,
		ItemID:          f.listing.ID,
		Content:         "Great, taking it.",
		ParentCommentID: &reply.ID,
	})
	require.Error(t, err)
	assert.True(t, IsBusinessError(err))
}

func TestReplyToCommentOnOtherItemRejected(t *testing.T) {
	f := newCommentServiceFixture(t)
	otherListing := f.listingRepo.addListing(f.seller.ID, 40)

	question := f.post(t, f.visitor.ID, "Still available?", nil, true)

	_, err := f.svc.CreateComment(context.Background(), &CreateCommentRequest{
		UserID:          f.visitor.ID,
		ItemID:          otherListing.ID,
		Content:         "Wrong thread.",
		ParentCommentID: &question.ID,
	})
	require.Error(t, err)
	assert.True(t, IsBusinessError(err))
}

func TestReplyToDeletedCommentRejected(t *testing.T) {
	f := newCommentServiceFixture(t)
	ctx := context.Background()

	question := f.post(t, f.visitor.ID, "Still available?", nil, true)
	require.NoError(t, f.svc.DeleteComment(ctx, question.ID, f.visitor.ID))

	_, err := f.svc.CreateComment(ctx, &CreateCommentRequest{
		UserID:          f.seller.ID,
		ItemID:          f.listing.ID,
		Content:         "Yes.",
		ParentCommentID: &question.ID,
	})
	require.Error(t, err)
	assert.True(t, IsNotFoundError(err))
}

func TestGetCommentsByItemAttachesReplies(t *testing.T) {
	f := newCommentServiceFixture(t)
	ctx := context.Background()

	question := f.post(t, f.visitor.ID, "Does it charge fast?", nil, true)
	f.post(t, f.seller.ID, "About an hour from empty.", &question.ID, false)
	f.post(t, f.visitor.ID, "Looks great.", nil, false)

	page, err := f.svc.GetCommentsByItem(ctx, &GetItemCommentsRequest{
		ItemID:     f.listing.ID,
		Pagination: models.PaginationParams{Limit: 20},
	})
	require.NoError(t, err)
	require.Len(t, page.Data, 2, "replies do not appear at top level")

	// Newest top-level first; the question carries its reply.
	assert.Equal(t, "Looks great.", page.Data[0].Content)
	assert.Equal(t, question.ID, page.Data[1].ID)
	require.Len(t, page.Data[1].Replies, 1)
	assert.Equal(t, "About an hour from empty.", page.Data[1].Replies[0].Content)
}

func TestGetCommentsByItemTypeFilter(t *testing.T) {
	f := newCommentServiceFixture(t)
	ctx := context.Background()

	f.post(t, f.visitor.ID, "Does it charge fast?", nil, true)
	f.post(t, f.visitor.ID, "Looks great.", nil, false)

	questions, err := f.svc.GetCommentsByItem(ctx, &GetItemCommentsRequest{
		ItemID:     f.listing.ID,
		Type:       "questions",
		Pagination: models.PaginationParams{Limit: 20},
	})
	require.NoError(t, err)
	require.Len(t, questions.Data, 1)
	assert.True(t, questions.Data[0].IsQuestion)

	comments, err := f.svc.GetCommentsByItem(ctx, &GetItemCommentsRequest{
		ItemID:     f.listing.ID,
		Type:       "comments",
		Pagination: models.PaginationParams{Limit: 20},
	})
	require.NoError(t, err)
	require.Len(t, comments.Data, 1)
	assert.False(t, comments.Data[0].IsQuestion)
}

func TestGetCommentsByItemMarksViewerLikes(t *testing.T) {
	f := newCommentServiceFixture(t)
	ctx := context.Background()

	question := f.post(t, f.visitor.ID, "Does it charge fast?", nil, true)
	reply := f.post(t, f.seller.ID, "About an hour from empty.", &question.ID, false)
	other := f.post(t, f.visitor.ID, "Looks great.", nil, false)

	_, err := f.svc.ToggleCommentLike(ctx, question.ID, f.seller.ID)
	require.NoError(t, err)
	_, err = f.svc.ToggleCommentLike(ctx, reply.ID, f.seller.ID)
	require.NoError(t, err)

	page, err := f.svc.GetCommentsByItem(ctx, &GetItemCommentsRequest{
		ItemID:     f.listing.ID,
		ViewerID:   &f.seller.ID,
		Pagination: models.PaginationParams{Limit: 20},
	})
	require.NoError(t, err)
	require.Len(t, page.Data, 2)

	byID := map[int64]*models.Comment{}
	for _, c := range page.Data {
		byID[c.ID] = c
	}
	assert.True(t, byID[question.ID].IsLiked)
	require.Len(t, byID[question.ID].Replies, 1)
	assert.True(t, byID[question.ID].Replies[0].IsLiked, "reply likes are marked too")
	assert.False(t, byID[other.ID].IsLiked)

	// A different viewer sees their own flags, not the seller's.
	anon, err := f.svc.GetCommentsByItem(ctx, &GetItemCommentsRequest{
		ItemID:     f.listing.ID,
		ViewerID:   &f.visitor.ID,
		Pagination: models.PaginationParams{Limit: 20},
	})
	require.NoError(t, err)
	for _, c := range anon.Data {
		assert.False(t, c.IsLiked)
	}
}

func TestToggleCommentLikeRoundTrip(t *testing.T) {
	f := newCommentServiceFixture(t)
	ctx := context.Background()
	comment := f.post(t, f.visitor.ID, "Nice price.", nil, false)

	result, err := f.svc.ToggleCommentLike(ctx, comment.ID, f.seller.ID)
	require.NoError(t, err)
	assert.True(t, result.Liked)
	assert.Equal(t, 1, result.LikesCount)

	result, err = f.svc.ToggleCommentLike(ctx, comment.ID, f.seller.ID)
	require.NoError(t, err)
	assert.False(t, result.Liked)
	assert.Equal(t, 0, result.LikesCount, "second toggle returns to the unliked state")
}

func TestToggleLikeOnDeletedComment(t *testing.T) {
	f := newCommentServiceFixture(t)
	ctx := context.Background()
	comment := f.post(t, f.visitor.ID, "Nice price.", nil, false)
	require.NoError(t, f.svc.DeleteComment(ctx, comment.ID, f.visitor.ID))

	_, err := f.svc.ToggleCommentLike(ctx, comment.ID, f.seller.ID)
	require.Error(t, err)
	assert.True(t, IsNotFoundError(err))
}

func TestEditCommentAuthorOnly(t *testing.T) {
	f := newCommentServiceFixture(t)
	ctx := context.Background()
	comment := f.post(t, f.visitor.ID, "Nice prce.", nil, false)

	_, err := f.svc.EditComment(ctx, &EditCommentRequest{
		CommentID: comment.ID, UserID: f.seller.ID, Content: "hijacked",
	})
	require.Error(t, err)
	assert.True(t, IsForbiddenError(err), "even the seller cannot edit someone else's comment")

	edited, err := f.svc.EditComment(ctx, &EditCommentRequest{
		CommentID: comment.ID, UserID: f.visitor.ID, Content: "Nice price.",
	})
	require.NoError(t, err)
	assert.Equal(t, "Nice price.", edited.Content)
	assert.True(t, edited.IsEdited)
}

func TestDeleteCommentByAuthorOrSeller(t *testing.T) {
	f := newCommentServiceFixture(t)
	ctx := context.Background()
	other := f.userRepo.addUser("Oscar Onlooker", "oscar@campus.edu")

	first := f.post(t, f.visitor.ID, "First comment.", nil, false)
	second := f.post(t, f.visitor.ID, "Second comment.", nil, false)

	err := f.svc.DeleteComment(ctx, first.ID, other.ID)
	require.Error(t, err)
	assert.True(t, IsForbiddenError(err))

	// The author may delete their own comment.
	require.NoError(t, f.svc.DeleteComment(ctx, first.ID, f.visitor.ID))
	// The listing's seller may moderate anyone's comment.
	require.NoError(t, f.svc.DeleteComment(ctx, second.ID, f.seller.ID))

	page, err := f.svc.GetCommentsByItem(ctx, &GetItemCommentsRequest{
		ItemID:     f.listing.ID,
		Pagination: models.PaginationParams{Limit: 20},
	})
	require.NoError(t, err)
	assert.Empty(t, page.Data, "soft-deleted comments drop out of reads")
}
