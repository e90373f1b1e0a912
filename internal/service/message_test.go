package service

import (
	"context"
	"errors"
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

type messageFixture struct {
	messages     *mocks.MockMessageRepository
	participants *mocks.MockParticipantRepository
	broadcaster  *recordingBroadcaster
	svc          MessageService
}

func newMessageFixture(t *testing.T) *messageFixture {
	ctrl := gomock.NewController(t)
	f := &messageFixture{
		messages:     mocks.NewMockMessageRepository(ctrl),
		participants: mocks.NewMockParticipantRepository(ctrl),
		broadcaster:  &recordingBroadcaster{},
	}
	access := NewAccessService(f.participants, logger.Nop())
	f.svc = NewMessageService(f.messages, access, f.broadcaster, logger.Nop())
	return f
}

func TestMessageService_Submit_PersistsThenBroadcastsOnce(t *testing.T) {
	req := require.New(t)
	f := newMessageFixture(t)
	createdAt := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	gomock.InOrder(
		f.participants.EXPECT().Get(gomock.Any(), int64(1), int64(10)).Return(member(1, 10), nil),
		f.messages.EXPECT().Append(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, m *domain.Message) error {
				req.Equal(int64(1), m.SenderID)
				req.Equal(int64(10), m.ConversationID)
				req.Equal("hi", m.Content)
				m.ID = 100
				m.CreatedAt = createdAt
				return nil
			},
		),
	)

	msg, err := f.svc.Submit(context.Background(), 1, 10, "hi")
	req.NoError(err)
	req.Equal(int64(100), msg.ID)
	req.Equal(createdAt, msg.CreatedAt)

	sent := f.broadcaster.sent()
	req.Len(sent, 1)
	req.Equal(int64(100), sent[0].ID)
	req.Equal(int64(10), sent[0].ConversationID)
}

func TestMessageService_Submit_NonParticipantIsForbidden(t *testing.T) {
	f := newMessageFixture(t)

	f.participants.EXPECT().Get(gomock.Any(), int64(3), int64(10)).Return(nil, repository.ErrNotFound)
	f.messages.EXPECT().Append(gomock.Any(), gomock.Any()).Times(0)

	_, err := f.svc.Submit(context.Background(), 3, 10, "x")
	require.ErrorIs(t, err, apperrors.ErrForbidden)
	require.Empty(t, f.broadcaster.sent())
}

func TestMessageService_Submit_Validation(t *testing.T) {
	f := newMessageFixture(t)
	f.participants.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
	f.messages.EXPECT().Append(gomock.Any(), gomock.Any()).Times(0)

	cases := map[string]struct {
		conversationID int64
		content        string
	}{
		"empty content":        {conversationID: 10, content: ""},
		"whitespace content":   {conversationID: 10, content: " \n\t "},
		"missing conversation": {conversationID: 0, content: "hello"},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.svc.Submit(context.Background(), 1, tc.conversationID, tc.content)
			require.ErrorIs(t, err, apperrors.ErrValidation)
		})
	}
	require.Empty(t, f.broadcaster.sent())
}

func TestMessageService_Submit_StoreFailureSkipsBroadcast(t *testing.T) {
	f := newMessageFixture(t)

	f.participants.EXPECT().Get(gomock.Any(), int64(1), int64(10)).Return(member(1, 10), nil)
	f.messages.EXPECT().Append(gomock.Any(), gomock.Any()).Return(errors.New("disk full"))

	_, err := f.svc.Submit(context.Background(), 1, 10, "hi")
	require.ErrorIs(t, err, apperrors.ErrInternal)
	require.Empty(t, f.broadcaster.sent())
}

func TestMessageService_History(t *testing.T) {
	ctx := context.Background()

	t.Run("clamps limit and checks membership", func(t *testing.T) {
		f := newMessageFixture(t)
		history := []*domain.Message{{ID: 5, ConversationID: 10}, {ID: 6, ConversationID: 10}}

		f.participants.EXPECT().Get(gomock.Any(), int64(1), int64(10)).Return(member(1, 10), nil).Times(2)
		f.messages.EXPECT().List(gomock.Any(), int64(10), int64(4), domain.MessageHistoryMaxLimit).Return(history, nil)
		f.messages.EXPECT().List(gomock.Any(), int64(10), int64(0), domain.MessageHistoryDefaultLimit).Return(history, nil)

		got, err := f.svc.History(ctx, 1, 10, 4, 5000)
		require.NoError(t, err)
		require.Equal(t, history, got)

		_, err = f.svc.History(ctx, 1, 10, 0, 0)
		require.NoError(t, err)
	})

	t.Run("non-member cannot read", func(t *testing.T) {
		f := newMessageFixture(t)
		f.participants.EXPECT().Get(gomock.Any(), int64(3), int64(10)).Return(nil, repository.ErrNotFound)
		f.messages.EXPECT().List(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

		_, err := f.svc.History(ctx, 3, 10, 0, 10)
		require.ErrorIs(t, err, apperrors.ErrForbidden)
	})

	t.Run("negative afterId is rejected", func(t *testing.T) {
		f := newMessageFixture(t)
		_, err := f.svc.History(ctx, 1, 10, -1, 10)
		require.ErrorIs(t, err, apperrors.ErrValidation)
	})
}
