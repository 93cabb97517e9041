package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	"lapor-chat/internal/config"
	"lapor-chat/internal/imtypes"
	"lapor-chat/internal/mocks"
	"lapor-chat/internal/models"
	"lapor-chat/internal/storage"
)

func newMessageService(t *testing.T, policy string) (MessageService, *mocks.MockEventPublisher) {
	t.Helper()
	ctrl := gomock.NewController(t)
	pub := mocks.NewMockEventPublisher(ctrl)
	repo := storage.NewGormMessageRepository(newTestDB(t))
	svc := NewMessageService(repo, pub, config.ChatConfig{DeletePolicy: policy}, zap.NewNop().Sugar())
	return svc, pub
}

func TestMessageService_Append(t *testing.T) {
	ctx := context.Background()

	t.Run("text is stored with server time and published", func(t *testing.T) {
		req := require.New(t)
		svc, pub := newMessageService(t, config.DeletePolicyAny)
		pub.EXPECT().PublishMessageEvent(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, ev imtypes.MessageEvent) error {
				req.Equal(imtypes.MessageAppended, ev.Event)
				req.Equal("u1", ev.UserID)
				req.Equal("hello", ev.Text)
				req.NotEmpty(ev.MessageID)
				return nil
			})

		msg, err := svc.Append(ctx, "u1", imtypes.AppendMessageInput{Text: "hello"})
		req.NoError(err)
		req.NotEmpty(msg.ID)
		req.NotNil(msg.CreatedAt)
		req.Equal("u1", msg.UserID)
	})

	t.Run("empty input is rejected before storage", func(t *testing.T) {
		svc, pub := newMessageService(t, config.DeletePolicyAny)
		pub.EXPECT().PublishMessageEvent(gomock.Any(), gomock.Any()).Times(0)

		_, err := svc.Append(ctx, "u1", imtypes.AppendMessageInput{Text: "   "})
		require.ErrorIs(t, err, ErrEmptyMessage)

		all, err := svc.Snapshot(ctx)
		require.NoError(t, err)
		require.Empty(t, all)
	})

	t.Run("media type needs a url", func(t *testing.T) {
		svc, _ := newMessageService(t, config.DeletePolicyAny)

		_, err := svc.Append(ctx, "u1", imtypes.AppendMessageInput{Text: "x", Type: imtypes.ImageMessageType})
		require.ErrorIs(t, err, ErrInvalidMessage)
	})

	t.Run("unknown type is rejected", func(t *testing.T) {
		svc, _ := newMessageService(t, config.DeletePolicyAny)

		_, err := svc.Append(ctx, "u1", imtypes.AppendMessageInput{Text: "x", Type: "audio"})
		require.ErrorIs(t, err, ErrInvalidMessage)
	})

	t.Run("location out of range is rejected", func(t *testing.T) {
		svc, _ := newMessageService(t, config.DeletePolicyAny)

		_, err := svc.Append(ctx, "u1", imtypes.AppendMessageInput{
			Type:     imtypes.LocationMessageType,
			Location: &imtypes.Location{Latitude: 91, Longitude: 0},
		})
		require.ErrorIs(t, err, ErrInvalidMessage)
	})

	t.Run("publish failure does not fail the append", func(t *testing.T) {
		svc, pub := newMessageService(t, config.DeletePolicyAny)
		pub.EXPECT().PublishMessageEvent(gomock.Any(), gomock.Any()).Return(errors.New("broker down"))

		msg, err := svc.Append(ctx, "u1", imtypes.AppendMessageInput{
			Type:     imtypes.VideoMessageType,
			MediaURL: "http://localhost:8081/blobs/uploads/a.mp4",
		})
		require.NoError(t, err)
		require.Equal(t, imtypes.VideoMessageType, msg.Type)
	})
}

func TestMessageService_SnapshotNewestFirst(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	svc, pub := newMessageService(t, config.DeletePolicyAny)
	pub.EXPECT().PublishMessageEvent(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	_, err := svc.Append(ctx, "U1", imtypes.AppendMessageInput{Text: "hello"})
	req.NoError(err)
	_, err = svc.Append(ctx, "U2", imtypes.AppendMessageInput{Text: "world"})
	req.NoError(err)

	all, err := svc.Snapshot(ctx)
	req.NoError(err)
	req.Len(all, 2)
	req.Equal("world", all[0].Text)
	req.Equal("hello", all[1].Text)
}

func TestMessageService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("any policy lets anyone delete", func(t *testing.T) {
		req := require.New(t)
		svc, pub := newMessageService(t, config.DeletePolicyAny)
		pub.EXPECT().PublishMessageEvent(gomock.Any(), gomock.Any()).Return(nil)
		msg, err := svc.Append(ctx, "owner", imtypes.AppendMessageInput{Text: "x"})
		req.NoError(err)

		pub.EXPECT().PublishMessageEvent(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, ev imtypes.MessageEvent) error {
				req.Equal(imtypes.MessageDeleted, ev.Event)
				req.Equal(msg.ID, ev.MessageID)
				return nil
			})
		req.NoError(svc.Delete(ctx, Actor{UserID: "stranger", Role: models.RoleUser}, msg.ID))

		all, err := svc.Snapshot(ctx)
		req.NoError(err)
		req.Empty(all)
	})

	t.Run("owner_or_admin forbids strangers", func(t *testing.T) {
		req := require.New(t)
		svc, pub := newMessageService(t, config.DeletePolicyOwnerOrAdmin)
		pub.EXPECT().PublishMessageEvent(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
		msg, err := svc.Append(ctx, "owner", imtypes.AppendMessageInput{Text: "x"})
		req.NoError(err)

		req.ErrorIs(svc.Delete(ctx, Actor{UserID: "stranger", Role: models.RoleUser}, msg.ID), ErrForbidden)
		req.NoError(svc.Delete(ctx, Actor{UserID: "boss", Role: models.RoleAdmin}, msg.ID))
	})

	t.Run("owner may delete own message", func(t *testing.T) {
		svc, pub := newMessageService(t, config.DeletePolicyOwnerOrAdmin)
		pub.EXPECT().PublishMessageEvent(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
		msg, err := svc.Append(ctx, "owner", imtypes.AppendMessageInput{Text: "x"})
		require.NoError(t, err)

		require.NoError(t, svc.Delete(ctx, Actor{UserID: "owner", Role: models.RoleUser}, msg.ID))
	})

	t.Run("unknown id", func(t *testing.T) {
		svc, _ := newMessageService(t, config.DeletePolicyAny)

		require.ErrorIs(t, svc.Delete(ctx, Actor{UserID: "u"}, "missing"), ErrMessageNotFound)
	})
}

func TestMessageService_RepositoryError(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockMessageRepository(ctrl)
	svc := NewMessageService(repo, nil, config.ChatConfig{}, zap.NewNop().Sugar())

	repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(errors.New("disk full"))

	_, err := svc.Append(context.Background(), "u1", imtypes.AppendMessageInput{Text: "hi"})
	require.ErrorContains(t, err, "disk full")
}
