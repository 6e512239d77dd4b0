package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"geochat-service/internal/location"
	"geochat-service/internal/models"
	"geochat-service/internal/repositories"
)

type UserRepositoryMock struct {
	mock.Mock
}

func (m *UserRepositoryMock) Create(ctx context.Context, params repositories.CreateUserParams) (models.User, error) {
	args := m.Called(ctx, params)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) GetByID(ctx context.Context, id string) (models.User, error) {
	args := m.Called(ctx, id)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) GetPair(ctx context.Context, firstID, secondID string) (models.User, models.User, error) {
	args := m.Called(ctx, firstID, secondID)
	var first, second models.User
	if val := args.Get(0); val != nil {
		first = val.(models.User)
	}
	if val := args.Get(1); val != nil {
		second = val.(models.User)
	}
	return first, second, args.Error(2)
}

func (m *UserRepositoryMock) Update(ctx context.Context, id string, params repositories.UpdateUserParams) (models.User, error) {
	args := m.Called(ctx, id, params)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) SearchByPIN(ctx context.Context, pin, excludeID string) (models.PublicProfile, error) {
	args := m.Called(ctx, pin, excludeID)
	var user models.PublicProfile
	if val := args.Get(0); val != nil {
		user = val.(models.PublicProfile)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) List(ctx context.Context, params repositories.ListUsersParams) ([]models.PublicProfile, error) {
	args := m.Called(ctx, params)
	var users []models.PublicProfile
	if val := args.Get(0); val != nil {
		users = val.([]models.PublicProfile)
	}
	return users, args.Error(1)
}

func (m *UserRepositoryMock) AppendSharingRequest(ctx context.Context, targetID, requesterID string) error {
	args := m.Called(ctx, targetID, requesterID)
	return args.Error(0)
}

func (m *UserRepositoryMock) RemoveSharingRequest(ctx context.Context, targetID, requesterID string) error {
	args := m.Called(ctx, targetID, requesterID)
	return args.Error(0)
}

func (m *UserRepositoryMock) AcceptSharing(ctx context.Context, accepterID, requesterID string) error {
	args := m.Called(ctx, accepterID, requesterID)
	return args.Error(0)
}

func (m *UserRepositoryMock) SetPresence(ctx context.Context, id string, online bool) error {
	args := m.Called(ctx, id, online)
	return args.Error(0)
}

func (m *UserRepositoryMock) MarkStaleOffline(ctx context.Context, olderThan time.Duration) (int64, error) {
	args := m.Called(ctx, olderThan)
	return args.Get(0).(int64), args.Error(1)
}

type ChatRequestRepositoryMock struct {
	mock.Mock
}

func (m *ChatRequestRepositoryMock) CreateWithConversation(ctx context.Context, fromUserID, toUserID, initialMessage string) (models.ChatRequest, models.Conversation, error) {
	args := m.Called(ctx, fromUserID, toUserID, initialMessage)
	var request models.ChatRequest
	var conversation models.Conversation
	if val := args.Get(0); val != nil {
		request = val.(models.ChatRequest)
	}
	if val := args.Get(1); val != nil {
		conversation = val.(models.Conversation)
	}
	return request, conversation, args.Error(2)
}

func (m *ChatRequestRepositoryMock) GetByID(ctx context.Context, id string) (models.ChatRequest, error) {
	args := m.Called(ctx, id)
	var request models.ChatRequest
	if val := args.Get(0); val != nil {
		request = val.(models.ChatRequest)
	}
	return request, args.Error(1)
}

func (m *ChatRequestRepositoryMock) ListForRecipient(ctx context.Context, toUserID string, status models.ChatRequestStatus) ([]models.ChatRequest, error) {
	args := m.Called(ctx, toUserID, status)
	var list []models.ChatRequest
	if val := args.Get(0); val != nil {
		list = val.([]models.ChatRequest)
	}
	return list, args.Error(1)
}

func (m *ChatRequestRepositoryMock) Accept(ctx context.Context, id string) (models.ChatRequest, models.Conversation, error) {
	args := m.Called(ctx, id)
	var request models.ChatRequest
	var conversation models.Conversation
	if val := args.Get(0); val != nil {
		request = val.(models.ChatRequest)
	}
	if val := args.Get(1); val != nil {
		conversation = val.(models.Conversation)
	}
	return request, conversation, args.Error(2)
}

func (m *ChatRequestRepositoryMock) Reject(ctx context.Context, id string) (models.ChatRequest, models.Conversation, error) {
	args := m.Called(ctx, id)
	var request models.ChatRequest
	var conversation models.Conversation
	if val := args.Get(0); val != nil {
		request = val.(models.ChatRequest)
	}
	if val := args.Get(1); val != nil {
		conversation = val.(models.Conversation)
	}
	return request, conversation, args.Error(2)
}

type ConversationRepositoryMock struct {
	mock.Mock
}

func (m *ConversationRepositoryMock) GetByID(ctx context.Context, id string) (models.Conversation, error) {
	args := m.Called(ctx, id)
	var conversation models.Conversation
	if val := args.Get(0); val != nil {
		conversation = val.(models.Conversation)
	}
	return conversation, args.Error(1)
}

func (m *ConversationRepositoryMock) ListForUser(ctx context.Context, userID string, status models.ConversationStatus) ([]models.ConversationSummary, error) {
	args := m.Called(ctx, userID, status)
	var list []models.ConversationSummary
	if val := args.Get(0); val != nil {
		list = val.([]models.ConversationSummary)
	}
	return list, args.Error(1)
}

func (m *ConversationRepositoryMock) MarkRead(ctx context.Context, conversationID, userID string) error {
	args := m.Called(ctx, conversationID, userID)
	return args.Error(0)
}

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) Send(ctx context.Context, params repositories.SendMessageParams) (models.Message, error) {
	args := m.Called(ctx, params)
	var message models.Message
	if val := args.Get(0); val != nil {
		message = val.(models.Message)
	}
	return message, args.Error(1)
}

func (m *MessageRepositoryMock) ListPage(ctx context.Context, conversationID string, limit, offset int) (models.MessagePage, error) {
	args := m.Called(ctx, conversationID, limit, offset)
	var page models.MessagePage
	if val := args.Get(0); val != nil {
		page = val.(models.MessagePage)
	}
	return page, args.Error(1)
}

func (m *MessageRepositoryMock) MarkMessagesRead(ctx context.Context, conversationID, userID string) error {
	args := m.Called(ctx, conversationID, userID)
	return args.Error(0)
}

type LiveLocationRepositoryMock struct {
	mock.Mock
}

func (m *LiveLocationRepositoryMock) Upsert(ctx context.Context, userID, sharedWith string, lat, lng float64, accuracy *float64) (models.LiveLocation, error) {
	args := m.Called(ctx, userID, sharedWith, lat, lng, accuracy)
	var loc models.LiveLocation
	if val := args.Get(0); val != nil {
		loc = val.(models.LiveLocation)
	}
	return loc, args.Error(1)
}

func (m *LiveLocationRepositoryMock) UpdatePosition(ctx context.Context, userID, sharedWith string, lat, lng float64, accuracy *float64) (models.LiveLocation, error) {
	args := m.Called(ctx, userID, sharedWith, lat, lng, accuracy)
	var loc models.LiveLocation
	if val := args.Get(0); val != nil {
		loc = val.(models.LiveLocation)
	}
	return loc, args.Error(1)
}

func (m *LiveLocationRepositoryMock) Deactivate(ctx context.Context, userID, sharedWith string) error {
	args := m.Called(ctx, userID, sharedWith)
	return args.Error(0)
}

func (m *LiveLocationRepositoryMock) IsActive(ctx context.Context, userID, sharedWith string) (bool, error) {
	args := m.Called(ctx, userID, sharedWith)
	return args.Bool(0), args.Error(1)
}

func (m *LiveLocationRepositoryMock) ListForUser(ctx context.Context, userID string) ([]models.LiveLocationView, error) {
	args := m.Called(ctx, userID)
	var list []models.LiveLocationView
	if val := args.Get(0); val != nil {
		list = val.([]models.LiveLocationView)
	}
	return list, args.Error(1)
}

func (m *LiveLocationRepositoryMock) DeactivateStale(ctx context.Context, olderThan time.Duration) (int64, error) {
	args := m.Called(ctx, olderThan)
	return args.Get(0).(int64), args.Error(1)
}

type PositionSourceMock struct {
	mock.Mock
}

func (m *PositionSourceMock) Current(ctx context.Context, opts location.WatchOptions) (location.Position, error) {
	args := m.Called(ctx, opts)
	var pos location.Position
	if val := args.Get(0); val != nil {
		pos = val.(location.Position)
	}
	return pos, args.Error(1)
}

func (m *PositionSourceMock) Watch(ctx context.Context, opts location.WatchOptions) (<-chan location.Position, error) {
	args := m.Called(ctx, opts)
	var ch <-chan location.Position
	if val := args.Get(0); val != nil {
		ch = val.(<-chan location.Position)
	}
	return ch, args.Error(1)
}

var (
	_ repositories.UserRepository         = (*UserRepositoryMock)(nil)
	_ repositories.ChatRequestRepository  = (*ChatRequestRepositoryMock)(nil)
	_ repositories.ConversationRepository = (*ConversationRepositoryMock)(nil)
	_ repositories.MessageRepository      = (*MessageRepositoryMock)(nil)
	_ repositories.LiveLocationRepository = (*LiveLocationRepositoryMock)(nil)
	_ location.PositionSource             = (*PositionSourceMock)(nil)
)
