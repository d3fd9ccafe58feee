package service_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"wavechat/internal/domain"
)

// Mocks over the repository interfaces.

type MockAccountRepo struct {
	mock.Mock
}

func (m *MockAccountRepo) GetByID(ctx context.Context, id int64) (*domain.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

type MockRefreshTokenRepo struct {
	mock.Mock
}

func (m *MockRefreshTokenRepo) FindActive(ctx context.Context, sessionID string, accountID int64) (*domain.RefreshToken, error) {
	args := m.Called(ctx, sessionID, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RefreshToken), args.Error(1)
}

type MockConversationRepo struct {
	mock.Mock
}

func (m *MockConversationRepo) GetByID(ctx context.Context, id int64) (*domain.Conversation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Conversation), args.Error(1)
}

type MockParticipantRepo struct {
	mock.Mock
}

func (m *MockParticipantRepo) IsActiveParticipant(ctx context.Context, conversationID, accountID int64) (bool, error) {
	args := m.Called(ctx, conversationID, accountID)
	return args.Bool(0), args.Error(1)
}

func (m *MockParticipantRepo) ListActiveIDs(ctx context.Context, conversationID, exclude int64) ([]int64, error) {
	args := m.Called(ctx, conversationID, exclude)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

type MockMessageRepo struct {
	mock.Mock
}

func (m *MockMessageRepo) Create(ctx context.Context, msg *domain.Message, recipientIDs []int64) error {
	args := m.Called(ctx, msg, recipientIDs)
	return args.Error(0)
}

func (m *MockMessageRepo) GetByID(ctx context.Context, id int64) (*domain.Message, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Message), args.Error(1)
}

func (m *MockMessageRepo) UpdateContent(ctx context.Context, id int64, content string) error {
	args := m.Called(ctx, id, content)
	return args.Error(0)
}

func (m *MockMessageRepo) SoftDeleteForEveryone(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockMessageRepo) HideForAccount(ctx context.Context, messageID, accountID int64) error {
	args := m.Called(ctx, messageID, accountID)
	return args.Error(0)
}

type MockStatusRepo struct {
	mock.Mock
}

func (m *MockStatusRepo) Escalate(ctx context.Context, messageID, accountID int64, status domain.DeliveryStatus) (bool, error) {
	args := m.Called(ctx, messageID, accountID, status)
	return args.Bool(0), args.Error(1)
}

func (m *MockStatusRepo) ListForMessage(ctx context.Context, messageID int64) ([]*domain.MessageStatus, error) {
	args := m.Called(ctx, messageID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.MessageStatus), args.Error(1)
}

type MockReactionRepo struct {
	mock.Mock
}

func (m *MockReactionRepo) Create(ctx context.Context, r *domain.MessageReaction) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *MockReactionRepo) Delete(ctx context.Context, messageID, accountID int64, emoji string) error {
	args := m.Called(ctx, messageID, accountID, emoji)
	return args.Error(0)
}
