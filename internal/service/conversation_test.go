package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"messenger/internal/domain"
	"messenger/internal/mocks"
	"messenger/internal/repository"
	apperrors "messenger/pkg/errors"
	"messenger/pkg/logger"
)

type conversationFixture struct {
	users         *mocks.MockUserRepository
	conversations *mocks.MockConversationRepository
	participants  *mocks.MockParticipantRepository
	messages      *mocks.MockMessageRepository
	svc           ConversationService
}

func newConversationFixture(t *testing.T) *conversationFixture {
	ctrl := gomock.NewController(t)
	f := &conversationFixture{
		users:         mocks.NewMockUserRepository(ctrl),
		conversations: mocks.NewMockConversationRepository(ctrl),
		participants:  mocks.NewMockParticipantRepository(ctrl),
		messages:      mocks.NewMockMessageRepository(ctrl),
	}
	access := NewAccessService(f.participants, logger.Nop())
	f.svc = NewConversationService(
		f.users, f.conversations, f.participants, f.messages, access, newQuietAudit(ctrl), logger.Nop(),
	)
	return f
}

// expectEnrich отдаёт участников и пустую историю для любых бесед.
func (f *conversationFixture) expectEnrich(members map[int64][]*domain.User) {
	f.participants.EXPECT().UsersByConversation(gomock.Any(), gomock.Any()).Return(members, nil).AnyTimes()
	f.messages.EXPECT().LatestByConversation(gomock.Any(), gomock.Any()).Return(map[int64]*domain.Message{}, nil).AnyTimes()
}

func TestConversationService_CreateDirect(t *testing.T) {
	ctx := context.Background()
	alice := &domain.User{ID: 1, Username: "alice"}
	bob := &domain.User{ID: 2, Username: "bob"}
	conv := &domain.Conversation{ID: 10}

	t.Run("creates a new conversation", func(t *testing.T) {
		req := require.New(t)
		f := newConversationFixture(t)
		f.expectEnrich(map[int64][]*domain.User{10: {alice, bob}})

		f.users.EXPECT().GetByID(gomock.Any(), int64(2)).Return(bob, nil)
		f.conversations.EXPECT().FindDirect(gomock.Any(), int64(1), int64(2)).Return(nil, repository.ErrNotFound)
		f.conversations.EXPECT().CreateDirect(gomock.Any(), int64(1), int64(2)).Return(conv, nil)

		view, created, err := f.svc.CreateDirect(ctx, 1, 2)
		req.NoError(err)
		req.True(created)
		req.Equal(int64(10), view.ID)
		req.Len(view.Participants, 2)
	})

	t.Run("returns the existing conversation in either order", func(t *testing.T) {
		req := require.New(t)
		f := newConversationFixture(t)
		f.expectEnrich(map[int64][]*domain.User{10: {alice, bob}})

		f.users.EXPECT().GetByID(gomock.Any(), gomock.Any()).Return(bob, nil).Times(2)
		f.conversations.EXPECT().FindDirect(gomock.Any(), int64(1), int64(2)).Return(conv, nil)
		f.conversations.EXPECT().FindDirect(gomock.Any(), int64(2), int64(1)).Return(conv, nil)
		f.conversations.EXPECT().CreateDirect(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

		first, created, err := f.svc.CreateDirect(ctx, 1, 2)
		req.NoError(err)
		req.False(created)

		second, created, err := f.svc.CreateDirect(ctx, 2, 1)
		req.NoError(err)
		req.False(created)
		req.Equal(first.ID, second.ID)
	})

	t.Run("losing a creation race falls back to lookup", func(t *testing.T) {
		req := require.New(t)
		f := newConversationFixture(t)
		f.expectEnrich(map[int64][]*domain.User{10: {alice, bob}})

		f.users.EXPECT().GetByID(gomock.Any(), int64(2)).Return(bob, nil)
		gomock.InOrder(
			f.conversations.EXPECT().FindDirect(gomock.Any(), int64(1), int64(2)).Return(nil, repository.ErrNotFound),
			f.conversations.EXPECT().CreateDirect(gomock.Any(), int64(1), int64(2)).Return(nil, repository.ErrAlreadyExists),
			f.conversations.EXPECT().FindDirect(gomock.Any(), int64(1), int64(2)).Return(conv, nil),
		)

		view, created, err := f.svc.CreateDirect(ctx, 1, 2)
		req.NoError(err)
		req.False(created)
		req.Equal(int64(10), view.ID)
	})

	t.Run("rejects self and missing ids", func(t *testing.T) {
		f := newConversationFixture(t)

		_, _, err := f.svc.CreateDirect(ctx, 1, 1)
		require.ErrorIs(t, err, apperrors.ErrValidation)

		_, _, err = f.svc.CreateDirect(ctx, 1, 0)
		require.ErrorIs(t, err, apperrors.ErrValidation)
	})

	t.Run("unknown user is not found", func(t *testing.T) {
		f := newConversationFixture(t)
		f.users.EXPECT().GetByID(gomock.Any(), int64(99)).Return(nil, repository.ErrNotFound)

		_, _, err := f.svc.CreateDirect(ctx, 1, 99)
		require.ErrorIs(t, err, apperrors.ErrNotFound)
	})
}

func TestConversationService_CreateGroup(t *testing.T) {
	ctx := context.Background()

	t.Run("creator is always a member and duplicates collapse", func(t *testing.T) {
		req := require.New(t)
		f := newConversationFixture(t)
		name := "Team"
		group := &domain.Conversation{ID: 20, Name: &name, IsGroup: true}
		f.expectEnrich(map[int64][]*domain.User{20: {{ID: 1}, {ID: 2}, {ID: 3}}})

		f.users.EXPECT().ExistingIDs(gomock.Any(), []int64{1, 2, 3}).Return([]int64{1, 2, 3}, nil)
		f.conversations.EXPECT().CreateGroup(gomock.Any(), "Team", []int64{1, 2, 3}).Return(group, nil)

		view, err := f.svc.CreateGroup(ctx, 1, "  Team ", []int64{2, 3, 2, 1})
		req.NoError(err)
		req.True(view.IsGroup)
		req.Equal("Team", *view.Name)
	})

	t.Run("empty member list is a validation error", func(t *testing.T) {
		f := newConversationFixture(t)
		f.conversations.EXPECT().CreateGroup(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

		_, err := f.svc.CreateGroup(ctx, 1, "Team", []int64{})
		require.ErrorIs(t, err, apperrors.ErrValidation)
	})

	t.Run("blank name is a validation error", func(t *testing.T) {
		f := newConversationFixture(t)

		_, err := f.svc.CreateGroup(ctx, 1, "   ", []int64{2})
		require.ErrorIs(t, err, apperrors.ErrValidation)
	})

	t.Run("unknown member is not found", func(t *testing.T) {
		f := newConversationFixture(t)
		f.users.EXPECT().ExistingIDs(gomock.Any(), []int64{1, 2, 77}).Return([]int64{1, 2}, nil)
		f.conversations.EXPECT().CreateGroup(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

		_, err := f.svc.CreateGroup(ctx, 1, "Team", []int64{2, 77})
		require.ErrorIs(t, err, apperrors.ErrNotFound)
	})
}

func TestConversationService_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("missing conversation is not found", func(t *testing.T) {
		f := newConversationFixture(t)
		f.conversations.EXPECT().GetByID(gomock.Any(), int64(10)).Return(nil, repository.ErrNotFound)

		_, err := f.svc.Get(ctx, 1, 10)
		require.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("non-participant is forbidden", func(t *testing.T) {
		f := newConversationFixture(t)
		f.conversations.EXPECT().GetByID(gomock.Any(), int64(10)).Return(&domain.Conversation{ID: 10}, nil)
		f.participants.EXPECT().Get(gomock.Any(), int64(3), int64(10)).Return(nil, repository.ErrNotFound)

		_, err := f.svc.Get(ctx, 3, 10)
		require.ErrorIs(t, err, apperrors.ErrForbidden)
	})

	t.Run("participant sees members and last message", func(t *testing.T) {
		req := require.New(t)
		f := newConversationFixture(t)
		last := &domain.Message{ID: 100, ConversationID: 10, Content: "hi"}

		f.conversations.EXPECT().GetByID(gomock.Any(), int64(10)).Return(&domain.Conversation{ID: 10}, nil)
		f.participants.EXPECT().Get(gomock.Any(), int64(1), int64(10)).Return(member(1, 10), nil)
		f.participants.EXPECT().UsersByConversation(gomock.Any(), []int64{10}).
			Return(map[int64][]*domain.User{10: {{ID: 1}, {ID: 2}}}, nil)
		f.messages.EXPECT().LatestByConversation(gomock.Any(), []int64{10}).
			Return(map[int64]*domain.Message{10: last}, nil)

		view, err := f.svc.Get(ctx, 1, 10)
		req.NoError(err)
		req.Len(view.Participants, 2)
		req.Equal(last, view.LastMessage)
	})
}

func TestConversationService_ListForOrdersByActivity(t *testing.T) {
	req := require.New(t)
	f := newConversationFixture(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	convs := []*domain.Conversation{
		{ID: 3, CreatedAt: base.Add(3 * time.Hour)},
		{ID: 2, CreatedAt: base.Add(2 * time.Hour)},
		{ID: 1, CreatedAt: base.Add(1 * time.Hour)},
	}
	f.conversations.EXPECT().ListForUser(gomock.Any(), int64(1), false).Return(convs, nil)
	f.participants.EXPECT().UsersByConversation(gomock.Any(), []int64{3, 2, 1}).Return(map[int64][]*domain.User{}, nil)
	f.messages.EXPECT().LatestByConversation(gomock.Any(), []int64{3, 2, 1}).Return(map[int64]*domain.Message{
		1: {ID: 50, ConversationID: 1, CreatedAt: base.Add(5 * time.Hour)},
	}, nil)

	views, err := f.svc.ListFor(context.Background(), 1)
	req.NoError(err)
	req.Equal([]int64{1, 3, 2}, []int64{views[0].ID, views[1].ID, views[2].ID})
	req.NotNil(views[1].Participants)
}

func TestConversationService_ListGroupsFor(t *testing.T) {
	f := newConversationFixture(t)
	f.conversations.EXPECT().ListForUser(gomock.Any(), int64(1), true).Return([]*domain.Conversation{}, nil)

	views, err := f.svc.ListGroupsFor(context.Background(), 1)
	require.NoError(t, err)
	require.Empty(t, views)
}
