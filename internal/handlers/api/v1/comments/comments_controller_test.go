package comments

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"campusmart/internal/middleware"
	"campusmart/internal/models"
	"campusmart/internal/response"
	"campusmart/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// mockCommentService is a hand-written mock implementing services.CommentService
type mockCommentService struct {
	createReq  *services.CreateCommentRequest
	getReq     *services.GetItemCommentsRequest
	deletedID  int64
	serviceErr error
}

func (m *mockCommentService) CreateComment(ctx context.Context, req *services.CreateCommentRequest) (*models.Comment, error) {
	if m.serviceErr != nil {
		return nil, m.serviceErr
	}
	m.createReq = req
	return &models.Comment{
		ID:       42,
		ItemID:   req.ItemID,
		UserID:   req.UserID,
		Content:  req.Content,
		UserName: "Alice Seller",
	}, nil
}

func (m *mockCommentService) GetCommentsByItem(ctx context.Context, req *services.GetItemCommentsRequest) (*models.PaginatedResponse[*models.Comment], error) {
	if m.serviceErr != nil {
		return nil, m.serviceErr
	}
	m.getReq = req
	return &models.PaginatedResponse[*models.Comment]{
		Data: []*models.Comment{
			{ID: 2, ItemID: req.ItemID, Content: "Is this still available?", IsQuestion: true},
			{ID: 1, ItemID: req.ItemID, Content: "Nice fridge"},
		},
		Pagination: models.PaginationMeta{
			CurrentPage:  1,
			TotalPages:   1,
			TotalItems:   2,
			ItemsPerPage: 20,
		},
	}, nil
}

func (m *mockCommentService) ToggleCommentLike(ctx context.Context, commentID, userID int64) (*services.LikeResult, error) {
	if m.serviceErr != nil {
		return nil, m.serviceErr
	}
	return &services.LikeResult{Liked: true, LikesCount: 1}, nil
}

func (m *mockCommentService) EditComment(ctx context.Context, req *services.EditCommentRequest) (*models.Comment, error) {
	if m.serviceErr != nil {
		return nil, m.serviceErr
	}
	return &models.Comment{ID: req.CommentID, Content: req.Content, IsEdited: true}, nil
}

func (m *mockCommentService) DeleteComment(ctx context.Context, commentID, userID int64) error {
	if m.serviceErr != nil {
		return m.serviceErr
	}
	m.deletedID = commentID
	return nil
}

func newTestCommentController(svc services.CommentService) *CommentController {
	return &CommentController{
		serviceCollection: &services.ServiceCollection{Comment: svc},
		logger:            zap.NewNop(),
		responseBuilder: response.NewBuilder(&response.Config{
			IncludeRequestID: true,
			APIVersion:       "v1",
		}, zap.NewNop()),
		paginationParser: response.NewPaginationParser(response.DefaultPaginationConfig()),
	}
}

func authenticatedRequest(method, target string, body string, userID int64) *http.Request {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	ctx := context.WithValue(req.Context(), middleware.AuthContextKey, &middleware.AuthContext{
		UserID: userID,
		Email:  "alice@campus.edu",
	})
	return req.WithContext(ctx)
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestCreateCommentBindsAuthenticatedUser(t *testing.T) {
	mock := &mockCommentService{}
	controller := newTestCommentController(mock)

	req := authenticatedRequest(http.MethodPost, "/api/v1/comments",
		`{"itemId": 9, "content": "Does it come with the charger?", "isQuestion": true}`, 5)
	rec := httptest.NewRecorder()
	controller.CreateComment(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, mock.createReq)
	assert.Equal(t, int64(5), mock.createReq.UserID, "user id comes from the token, not the body")
	assert.Equal(t, int64(9), mock.createReq.ItemID)
	assert.True(t, mock.createReq.IsQuestion)

	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	data, ok := body["data"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(42), data["id"])
}

func TestCreateCommentRequiresAuth(t *testing.T) {
	mock := &mockCommentService{}
	controller := newTestCommentController(mock)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/comments",
		strings.NewReader(`{"itemId": 9, "content": "hello"}`))
	rec := httptest.NewRecorder()
	controller.CreateComment(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Nil(t, mock.createReq)
}

func TestCreateCommentRejectsMalformedBody(t *testing.T) {
	controller := newTestCommentController(&mockCommentService{})

	req := authenticatedRequest(http.MethodPost, "/api/v1/comments", `{"itemId": not-json`, 5)
	rec := httptest.NewRecorder()
	controller.CreateComment(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(t, rec)
	errObj, ok := body["error"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "VALIDATION_ERROR", errObj["type"])
}

func TestGetCommentsByItemParsesPathAndQuery(t *testing.T) {
	mock := &mockCommentService{}
	controller := newTestCommentController(mock)

	req := authenticatedRequest(http.MethodGet, "/api/v1/listings/9/comments?type=questions&page=1&page_size=20", "", 5)
	rec := httptest.NewRecorder()
	controller.GetCommentsByItem(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, mock.getReq)
	assert.Equal(t, int64(9), mock.getReq.ItemID)
	assert.Equal(t, "questions", mock.getReq.Type)
	require.NotNil(t, mock.getReq.ViewerID)
	assert.Equal(t, int64(5), *mock.getReq.ViewerID)

	body := decodeBody(t, rec)
	meta, ok := body["meta"].(map[string]interface{})
	require.True(t, ok)
	pagination, ok := meta["pagination"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(1), pagination["page"])
	assert.Equal(t, float64(2), pagination["total"])
	assert.Equal(t, false, pagination["has_next"])
}

func TestGetCommentsByItemAnonymousViewer(t *testing.T) {
	mock := &mockCommentService{}
	controller := newTestCommentController(mock)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/listings/9/comments", nil)
	rec := httptest.NewRecorder()
	controller.GetCommentsByItem(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, mock.getReq)
	assert.Nil(t, mock.getReq.ViewerID)
}

func TestGetCommentsByItemRejectsBadListingID(t *testing.T) {
	controller := newTestCommentController(&mockCommentService{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/listings/not-a-number/comments", nil)
	rec := httptest.NewRecorder()
	controller.GetCommentsByItem(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestToggleLikeReturnsLikeState(t *testing.T) {
	controller := newTestCommentController(&mockCommentService{})

	req := authenticatedRequest(http.MethodPost, "/api/v1/comments/42/like", "", 5)
	rec := httptest.NewRecorder()
	controller.ToggleLike(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	data, ok := body["data"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, true, data["liked"])
	assert.Equal(t, float64(1), data["likesCount"])
}

func TestDeleteCommentMapsServiceErrors(t *testing.T) {
	mock := &mockCommentService{
		serviceErr: services.NewForbiddenError("only the author or the seller can delete this comment"),
	}
	controller := newTestCommentController(mock)

	req := authenticatedRequest(http.MethodDelete, "/api/v1/comments/42", "", 5)
	rec := httptest.NewRecorder()
	controller.DeleteComment(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	body := decodeBody(t, rec)
	errObj, ok := body["error"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "FORBIDDEN", errObj["type"])
}

func TestDeleteCommentSuccess(t *testing.T) {
	mock := &mockCommentService{}
	controller := newTestCommentController(mock)

	req := authenticatedRequest(http.MethodDelete, "/api/v1/comments/42", "", 5)
	rec := httptest.NewRecorder()
	controller.DeleteComment(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, int64(42), mock.deletedID)
}
