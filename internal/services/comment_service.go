// ===============================
// FILE: internal/services/comment_service.go
// ===============================

package services

import (
	"campusmart/internal/events"
	"campusmart/internal/models"
	"campusmart/internal/repositories"
	"context"

	"go.uber.org/zap"
)

// commentService implements CommentService
type commentService struct {
	commentRepo repositories.CommentRepository
	listingRepo repositories.ListingRepository
	userRepo    repositories.UserRepository
	events      events.EventBus
	logger      *zap.Logger
}

// NewCommentService creates a new comment service
func NewCommentService(
	commentRepo repositories.CommentRepository,
	listingRepo repositories.ListingRepository,
	userRepo repositories.UserRepository,
	eventBus events.EventBus,
	logger *zap.Logger,
) CommentService {
	return &commentService{
		commentRepo: commentRepo,
		listingRepo: listingRepo,
		userRepo:    userRepo,
		events:      eventBus,
		logger:      logger,
	}
}

// CreateComment posts a comment or reply on a listing. Threads are
// two-tier: a reply's parent must be a top-level comment on the same
// item. The seller flags are computed here, once, and never
// re-derived.
func (s *commentService) CreateComment(ctx context.Context, req *CreateCommentRequest) (*models.Comment, error) {
	if err := models.ValidateStruct(req); err != nil {
		return nil, NewValidationError("invalid comment", err)
	}

	listing, err := s.listingRepo.GetByID(ctx, req.ItemID)
	if err != nil {
		return nil, NewInternalError("failed to get listing", err)
	}
	if listing == nil {
		return nil, EntityNotFoundError("listing", req.ItemID)
	}

	author, err := s.userRepo.GetByID(ctx, req.UserID)
	if err != nil {
		return nil, NewInternalError("failed to get user", err)
	}
	if author == nil {
		return nil, EntityNotFoundError("user", req.UserID)
	}

	var parent *models.Comment
	if req.ParentCommentID != nil {
		parent, err = s.commentRepo.GetByID(ctx, *req.ParentCommentID)
		if err != nil {
			return nil, NewInternalError("failed to get parent comment", err)
		}
		if parent == nil || parent.IsDeleted {
			return nil, EntityNotFoundError("comment", *req.ParentCommentID)
		}
		if parent.ParentCommentID != nil {
			return nil, NewBusinessError("replies cannot be nested", "REPLY_TO_REPLY")
		}
		if parent.ItemID != req.ItemID {
			return nil, NewBusinessError("parent comment belongs to a different item", "PARENT_MISMATCH")
		}
	}

	isSellerResponse := author.ID == listing.SellerID

	comment := &models.Comment{
		ItemID:           listing.ID,
		UserID:           author.ID,
		Content:          req.Content,
		ParentCommentID:  req.ParentCommentID,
		IsSellerResponse: isSellerResponse,
		UserName:         author.Name,
		UserEmail:        author.Email,
	}

	if parent == nil {
		comment.IsQuestion = req.IsQuestion
	} else {
		// Replies are never questions, so every reply answers its
		// parent regardless of who posts it.
		comment.IsAnswer = true
		comment.AnsweredBy = &author.ID
	}

	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, NewInternalError("failed to create comment", err)
	}

	commentType := "comment"
	if comment.IsQuestion {
		commentType = "question"
	}
	_ = s.events.PublishAsync(ctx, events.NewCommentCreatedEvent(
		comment.ID, comment.ItemID, comment.UserID, comment.ParentCommentID, commentType))

	s.logger.Info("Comment created",
		zap.Int64("comment_id", comment.ID),
		zap.Int64("item_id", comment.ItemID),
		zap.Bool("is_reply", parent != nil))

	return comment, nil
}

// GetCommentsByItem pages top-level comments newest first, each with
// its replies attached oldest first.
func (s *commentService) GetCommentsByItem(ctx context.Context, req *GetItemCommentsRequest) (*models.PaginatedResponse[*models.Comment], error) {
	if err := models.ValidateStruct(req); err != nil {
		return nil, NewValidationError("invalid comment query", err)
	}

	listing, err := s.listingRepo.GetByID(ctx, req.ItemID)
	if err != nil {
		return nil, NewInternalError("failed to get listing", err)
	}
	if listing == nil {
		return nil, EntityNotFoundError("listing", req.ItemID)
	}

	page, err := s.commentRepo.GetTopLevelByItem(ctx, req.ItemID, req.Type, req.Pagination)
	if err != nil {
		return nil, NewInternalError("failed to get comments", err)
	}

	if len(page.Data) > 0 {
		parentIDs := make([]int64, len(page.Data))
		for i, c := range page.Data {
			parentIDs[i] = c.ID
		}
		replies, err := s.commentRepo.GetReplies(ctx, parentIDs)
		if err != nil {
			return nil, NewInternalError("failed to get replies", err)
		}
		for _, c := range page.Data {
			c.Replies = replies[c.ID]
		}
	}

	if req.ViewerID != nil && len(page.Data) > 0 {
		s.markViewerLikes(ctx, page.Data, *req.ViewerID)
	}
	return page, nil
}

// markViewerLikes stamps IsLiked on the comments and their replies for
// the given viewer. A lookup failure leaves the flags unset.
func (s *commentService) markViewerLikes(ctx context.Context, comments []*models.Comment, viewerID int64) {
	ids := make([]int64, 0, len(comments))
	for _, c := range comments {
		ids = append(ids, c.ID)
		for _, reply := range c.Replies {
			ids = append(ids, reply.ID)
		}
	}

	liked, err := s.commentRepo.GetLikedCommentIDs(ctx, viewerID, ids)
	if err != nil {
		s.logger.Warn("Failed to load viewer comment likes",
			zap.Int64("viewer_id", viewerID), zap.Error(err))
		return
	}
	for _, c := range comments {
		c.IsLiked = liked[c.ID]
		for _, reply := range c.Replies {
			reply.IsLiked = liked[reply.ID]
		}
	}
}

// ToggleCommentLike flips the caller's like on a comment. The count
// always tracks the like rows.
func (s *commentService) ToggleCommentLike(ctx context.Context, commentID, userID int64) (*LikeResult, error) {
	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		return nil, NewInternalError("failed to get comment", err)
	}
	if comment == nil || comment.IsDeleted {
		return nil, EntityNotFoundError("comment", commentID)
	}

	liked, likesCount, err := s.commentRepo.ToggleLike(ctx, commentID, userID)
	if err != nil {
		return nil, NewInternalError("failed to toggle like", err)
	}
	return &LikeResult{Liked: liked, LikesCount: likesCount}, nil
}

// EditComment replaces a comment's content, preserving the prior
// revision. Author only.
func (s *commentService) EditComment(ctx context.Context, req *EditCommentRequest) (*models.Comment, error) {
	if err := models.ValidateStruct(req); err != nil {
		return nil, NewValidationError("invalid edit", err)
	}

	comment, err := s.commentRepo.GetByID(ctx, req.CommentID)
	if err != nil {
		return nil, NewInternalError("failed to get comment", err)
	}
	if comment == nil || comment.IsDeleted {
		return nil, EntityNotFoundError("comment", req.CommentID)
	}
	if comment.UserID != req.UserID {
		return nil, NewForbiddenError("only the author can edit this comment")
	}

	if err := s.commentRepo.Edit(ctx, req.CommentID, req.Content); err != nil {
		return nil, NewInternalError("failed to edit comment", err)
	}

	comment.Content = req.Content
	comment.IsEdited = true
	return comment, nil
}

// DeleteComment soft-deletes a comment. Allowed for the comment's
// author or the listing's seller.
func (s *commentService) DeleteComment(ctx context.Context, commentID, userID int64) error {
	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		return NewInternalError("failed to get comment", err)
	}
	if comment == nil || comment.IsDeleted {
		return EntityNotFoundError("comment", commentID)
	}

	if comment.UserID != userID {
		listing, err := s.listingRepo.GetByID(ctx, comment.ItemID)
		if err != nil {
			return NewInternalError("failed to get listing", err)
		}
		if listing == nil || listing.SellerID != userID {
			return NewForbiddenError("only the author or the seller can delete this comment")
		}
	}

	if err := s.commentRepo.SoftDelete(ctx, commentID); err != nil {
		return NewInternalError("failed to delete comment", err)
	}

	s.logger.Info("Comment deleted",
		zap.Int64("comment_id", commentID),
		zap.Int64("by", userID))
	return nil
}
