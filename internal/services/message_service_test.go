// ===============================
// FILE: internal/services/message_service_test.go
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

func newTestMessageService(t *testing.T) (MessageService, *fakeMessageRepo, *fakeUserRepo) {
	t.Helper()
	messageRepo := newFakeMessageRepo()
	userRepo := newFakeUserRepo()
	bus := events.NewEventBus(events.DefaultEventBusConfig(), zap.NewNop())
	logger, _ := zap.NewDevelopment()
	return NewMessageService(messageRepo, userRepo, bus, logger), messageRepo, userRepo
}

func TestBuildConversationID(t *testing.T) {
	assert.Equal(t, "3_7", BuildConversationID(3, 7))
	assert.Equal(t, "3_7", BuildConversationID(7, 3), "either ordering yields the same key")
	assert.Equal(t, "5_5", BuildConversationID(5, 5))
	assert.Equal(t, "1_9000000000", BuildConversationID(9000000000, 1))
}

func TestSendMessageSnapshotsNames(t *testing.T) {
	svc, _, userRepo := newTestMessageService(t)
	alice := userRepo.addUser("Alice", "alice@campus.edu")
	bob := userRepo.addUser("Bob", "bob@campus.edu")

	message, err := svc.SendMessage(context.Background(), &SendMessageRequest{
		SenderID:   alice.ID,
		ReceiverID: bob.ID,
		Content:    "Is the calculator still available?",
	})
	require.NoError(t, err)

	assert.Equal(t, BuildConversationID(alice.ID, bob.ID), message.ConversationID)
	assert.Equal(t, "Alice", message.SenderName)
	assert.Equal(t, "Bob", message.ReceiverName)
	assert.Equal(t, models.MessageTypeText, message.MessageType, "type defaults to text")
	assert.False(t, message.IsRead)
}

func TestSendMessageToSelfRejected(t *testing.T) {
	svc, _, userRepo := newTestMessageService(t)
	alice := userRepo.addUser("Alice", "alice@campus.edu")

	_, err := svc.SendMessage(context.Background(), &SendMessageRequest{
		SenderID:   alice.ID,
		ReceiverID: alice.ID,
		Content:    "hello me",
	})
	require.Error(t, err)
	assert.True(t, IsBusinessError(err))
}

func TestSendMessageUnknownReceiver(t *testing.T) {
	svc, _, userRepo := newTestMessageService(t)
	alice := userRepo.addUser("Alice", "alice@campus.edu")

	_, err := svc.SendMessage(context.Background(), &SendMessageRequest{
		SenderID:   alice.ID,
		ReceiverID: 999,
		Content:    "anyone there?",
	})
	require.Error(t, err)
	assert.True(t, IsNotFoundError(err))
}

func TestGetConversationMarksReadAndOrdersOldestFirst(t *testing.T) {
	svc, _, userRepo := newTestMessageService(t)
	alice := userRepo.addUser("Alice", "alice@campus.edu")
	bob := userRepo.addUser("Bob", "bob@campus.edu")
	ctx := context.Background()

	first, err := svc.SendMessage(ctx, &SendMessageRequest{
		SenderID: alice.ID, ReceiverID: bob.ID, Content: "first",
	})
	require.NoError(t, err)
	second, err := svc.SendMessage(ctx, &SendMessageRequest{
		SenderID: alice.ID, ReceiverID: bob.ID, Content: "second",
	})
	require.NoError(t, err)

	unread, err := svc.GetUnreadCount(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), unread)

	messages, err := svc.GetConversation(ctx, &GetConversationRequest{
		UserID:      bob.ID,
		OtherUserID: alice.ID,
		Pagination:  models.PaginationParams{Limit: 20},
	})
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, first.ID, messages[0].ID, "oldest message comes first")
	assert.Equal(t, second.ID, messages[1].ID)
	assert.True(t, messages[0].IsRead)
	assert.True(t, messages[1].IsRead)

	// Opening the conversation consumed the unread count.
	unread, err = svc.GetUnreadCount(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), unread)
}

func TestGetConversationUnknownUser(t *testing.T) {
	svc, _, userRepo := newTestMessageService(t)
	alice := userRepo.addUser("Alice", "alice@campus.edu")

	_, err := svc.GetConversation(context.Background(), &GetConversationRequest{
		UserID:      alice.ID,
		OtherUserID: 999,
		Pagination:  models.PaginationParams{Limit: 20},
	})
	require.Error(t, err)
	assert.True(t, IsNotFoundError(err))
}

func TestGetConversationDoesNotMarkSenderSide(t *testing.T) {
	svc, _, userRepo := newTestMessageService(t)
	alice := userRepo.addUser("Alice", "alice@campus.edu")
	bob := userRepo.addUser("Bob", "bob@campus.edu")
	ctx := context.Background()

	_, err := svc.SendMessage(ctx, &SendMessageRequest{
		SenderID: alice.ID, ReceiverID: bob.ID, Content: "ping",
	})
	require.NoError(t, err)

	// The sender opening the conversation does not read on the
	// receiver's behalf.
	_, err = svc.GetConversation(ctx, &GetConversationRequest{
		UserID:      alice.ID,
		OtherUserID: bob.ID,
		Pagination:  models.PaginationParams{Limit: 20},
	})
	require.NoError(t, err)

	unread, err := svc.GetUnreadCount(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), unread)
}

func TestEditMessagePreservesOriginalContent(t *testing.T) {
	svc, _, userRepo := newTestMessageService(t)
	alice := userRepo.addUser("Alice", "alice@campus.edu")
	bob := userRepo.addUser("Bob", "bob@campus.edu")
	ctx := context.Background()

	message, err := svc.SendMessage(ctx, &SendMessageRequest{
		SenderID: alice.ID, ReceiverID: bob.ID, Content: "meet at 3pm",
	})
	require.NoError(t, err)

	edited, err := svc.EditMessage(ctx, &EditMessageRequest{
		MessageID: message.ID, UserID: alice.ID, Content: "meet at 4pm",
	})
	require.NoError(t, err)
	assert.Equal(t, "meet at 4pm", edited.Content)
	assert.True(t, edited.IsEdited)
	require.NotNil(t, edited.OriginalContent)
	assert.Equal(t, "meet at 3pm", *edited.OriginalContent)

	// A second edit keeps the first original, not the intermediate.
	edited, err = svc.EditMessage(ctx, &EditMessageRequest{
		MessageID: message.ID, UserID: alice.ID, Content: "meet at 5pm",
	})
	require.NoError(t, err)
	require.NotNil(t, edited.OriginalContent)
	assert.Equal(t, "meet at 3pm", *edited.OriginalContent)
}

func TestEditMessageSenderOnly(t *testing.T) {
	svc, _, userRepo := newTestMessageService(t)
	alice := userRepo.addUser("Alice", "alice@campus.edu")
	bob := userRepo.addUser("Bob", "bob@campus.edu")
	ctx := context.Background()

	message, err := svc.SendMessage(ctx, &SendMessageRequest{
		SenderID: alice.ID, ReceiverID: bob.ID, Content: "original",
	})
	require.NoError(t, err)

	_, err = svc.EditMessage(ctx, &EditMessageRequest{
		MessageID: message.ID, UserID: bob.ID, Content: "tampered",
	})
	require.Error(t, err)
	assert.True(t, IsForbiddenError(err))
}

func TestDeleteMessageSenderOnly(t *testing.T) {
	svc, _, userRepo := newTestMessageService(t)
	alice := userRepo.addUser("Alice", "alice@campus.edu")
	bob := userRepo.addUser("Bob", "bob@campus.edu")
	ctx := context.Background()

	message, err := svc.SendMessage(ctx, &SendMessageRequest{
		SenderID: alice.ID, ReceiverID: bob.ID, Content: "oops",
	})
	require.NoError(t, err)

	err = svc.DeleteMessage(ctx, message.ID, bob.ID)
	require.Error(t, err)
	assert.True(t, IsForbiddenError(err))

	require.NoError(t, svc.DeleteMessage(ctx, message.ID, alice.ID))

	// Deleted messages disappear from the conversation and read paths.
	messages, err := svc.GetConversation(ctx, &GetConversationRequest{
		UserID:      bob.ID,
		OtherUserID: alice.ID,
		Pagination:  models.PaginationParams{Limit: 20},
	})
	require.NoError(t, err)
	assert.Empty(t, messages)

	err = svc.DeleteMessage(ctx, message.ID, alice.ID)
	assert.True(t, IsNotFoundError(err), "deleting twice reports not found")
}

func TestMarkMessageReadReceiverOnly(t *testing.T) {
	svc, _, userRepo := newTestMessageService(t)
	alice := userRepo.addUser("Alice", "alice@campus.edu")
	bob := userRepo.addUser("Bob", "bob@campus.edu")
	ctx := context.Background()

	message, err := svc.SendMessage(ctx, &SendMessageRequest{
		SenderID: alice.ID, ReceiverID: bob.ID, Content: "read me",
	})
	require.NoError(t, err)

	err = svc.MarkMessageRead(ctx, message.ID, alice.ID)
	require.Error(t, err)
	assert.True(t, IsForbiddenError(err))

	require.NoError(t, svc.MarkMessageRead(ctx, message.ID, bob.ID))
	// Marking again is a no-op.
	require.NoError(t, svc.MarkMessageRead(ctx, message.ID, bob.ID))

	unread, err := svc.GetUnreadCount(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), unread)
}

func TestMarkMessageDeliveredReceiverOnly(t *testing.T) {
	svc, messageRepo, userRepo := newTestMessageService(t)
	alice := userRepo.addUser("Alice", "alice@campus.edu")
	bob := userRepo.addUser("Bob", "bob@campus.edu")
	ctx := context.Background()

	message, err := svc.SendMessage(ctx, &SendMessageRequest{
		SenderID: alice.ID, ReceiverID: bob.ID, Content: "deliver me",
	})
	require.NoError(t, err)

	err = svc.MarkMessageDelivered(ctx, message.ID, alice.ID)
	require.Error(t, err)
	assert.True(t, IsForbiddenError(err))

	require.NoError(t, svc.MarkMessageDelivered(ctx, message.ID, bob.ID))
	stored := messageRepo.messages[message.ID]
	assert.True(t, stored.IsDelivered)
	require.NotNil(t, stored.DeliveredAt)

	// Marking again is a no-op.
	firstDeliveredAt := *stored.DeliveredAt
	require.NoError(t, svc.MarkMessageDelivered(ctx, message.ID, bob.ID))
	assert.Equal(t, firstDeliveredAt, *stored.DeliveredAt)
}

func TestListConversationsResolvesOtherUser(t *testing.T) {
	svc, _, userRepo := newTestMessageService(t)
	alice := userRepo.addUser("Alice", "alice@campus.edu")
	bob := userRepo.addUser("Bob", "bob@campus.edu")
	carol := userRepo.addUser("Carol", "carol@campus.edu")
	ctx := context.Background()

	_, err := svc.SendMessage(ctx, &SendMessageRequest{
		SenderID: bob.ID, ReceiverID: alice.ID, Content: "hi alice",
	})
	require.NoError(t, err)
	_, err = svc.SendMessage(ctx, &SendMessageRequest{
		SenderID: alice.ID, ReceiverID: carol.ID, Content: "hi carol",
	})
	require.NoError(t, err)

	conversations, err := svc.ListConversations(ctx, alice.ID, models.PaginationParams{Limit: 20})
	require.NoError(t, err)
	require.Len(t, conversations, 2)

	byID := make(map[string]*models.Conversation)
	for _, c := range conversations {
		require.NotNil(t, c.OtherUser)
		byID[c.ConversationID] = c
	}

	withBob := byID[BuildConversationID(alice.ID, bob.ID)]
	require.NotNil(t, withBob)
	assert.Equal(t, "Bob", withBob.OtherUser.Name)
	assert.Equal(t, 1, withBob.UnreadCount)

	withCarol := byID[BuildConversationID(alice.ID, carol.ID)]
	require.NotNil(t, withCarol)
	assert.Equal(t, "Carol", withCarol.OtherUser.Name)
	assert.Equal(t, 0, withCarol.UnreadCount, "own outgoing message is not unread")
}
