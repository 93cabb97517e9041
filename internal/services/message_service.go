package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"lapor-chat/internal/config"
	"lapor-chat/internal/imtypes"
	"lapor-chat/internal/metrics"
	"lapor-chat/internal/models"
	"lapor-chat/internal/storage"
)

var (
	ErrEmptyMessage    = errors.New("message needs text, media or a location")
	ErrInvalidMessage  = errors.New("invalid message")
	ErrMessageNotFound = storage.ErrMessageNotFound
	ErrForbidden       = errors.New("not allowed to delete this message")
)

// Actor is the authenticated caller of a mutation.
type Actor struct {
	UserID string
	Role   string
}

// MessageService is the shared room's message store.
type MessageService interface {
	Append(ctx context.Context, userID string, in imtypes.AppendMessageInput) (*imtypes.Message, error)
	Delete(ctx context.Context, actor Actor, id string) error
	// Snapshot returns the whole room, newest first.
	Snapshot(ctx context.Context) ([]imtypes.Message, error)
	GetByID(ctx context.Context, id string) (*imtypes.Message, error)
}

type messageService struct {
	msgRepo   storage.MessageRepository
	publisher EventPublisher
	validate  *validator.Validate
	policy    string
	log       *zap.SugaredLogger
}

// NewMessageService creates a MessageService. publisher may be nil when no
// other process needs to hear about changes.
func NewMessageService(msgRepo storage.MessageRepository, publisher EventPublisher, cfg config.ChatConfig, log *zap.SugaredLogger) MessageService {
	policy := cfg.DeletePolicy
	if policy == "" {
		policy = config.DeletePolicyAny
	}
	return &messageService{
		msgRepo:   msgRepo,
		publisher: publisher,
		validate:  validator.New(),
		policy:    policy,
		log:       log,
	}
}

func (s *messageService) Append(ctx context.Context, userID string, in imtypes.AppendMessageInput) (*imtypes.Message, error) {
	if err := s.check(in); err != nil {
		return nil, err
	}

	row := &models.Message{
		UserID: userID,
		Type:   string(in.Type),
	}
	if strings.TrimSpace(in.Text) != "" {
		row.Text = lo.ToPtr(in.Text)
	}
	if in.MediaURL != "" {
		row.MediaURL = lo.ToPtr(in.MediaURL)
	}
	if in.Location != nil {
		row.Latitude = lo.ToPtr(in.Location.Latitude)
		row.Longitude = lo.ToPtr(in.Location.Longitude)
	}

	if err := s.msgRepo.Create(ctx, row); err != nil {
		return nil, fmt.Errorf("append message: %w", err)
	}
	metrics.MessagesAppended.WithLabelValues(metrics.Kind(row.Type)).Inc()

	wire := row.ToWire()
	s.publish(ctx, imtypes.MessageEvent{
		Event:     imtypes.MessageAppended,
		MessageID: wire.ID,
		UserID:    userID,
		Type:      wire.Type,
		Text:      wire.Text,
		At:        row.CreatedAt,
	})
	return &wire, nil
}

func (s *messageService) check(in imtypes.AppendMessageInput) error {
	if !in.HasContent() {
		return ErrEmptyMessage
	}
	if err := s.validate.Struct(in); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	switch in.Type {
	case imtypes.ImageMessageType, imtypes.VideoMessageType:
		if in.MediaURL == "" {
			return fmt.Errorf("%w: %s message without mediaUrl", ErrInvalidMessage, in.Type)
		}
	case imtypes.LocationMessageType:
		if in.Location == nil {
			return fmt.Errorf("%w: location message without location", ErrInvalidMessage)
		}
	default:
		if in.MediaURL != "" {
			return fmt.Errorf("%w: mediaUrl requires type image or video", ErrInvalidMessage)
		}
	}
	if in.Location != nil && !in.Location.Valid() {
		return fmt.Errorf("%w: coordinates out of range", ErrInvalidMessage)
	}
	return nil
}

func (s *messageService) Delete(ctx context.Context, actor Actor, id string) error {
	if s.policy == config.DeletePolicyOwnerOrAdmin && actor.Role != models.RoleAdmin {
		msg, err := s.msgRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if msg.UserID != actor.UserID {
			return ErrForbidden
		}
	}

	if err := s.msgRepo.Delete(ctx, id); err != nil {
		return err
	}
	metrics.MessagesDeleted.Inc()

	s.publish(ctx, imtypes.MessageEvent{
		Event:     imtypes.MessageDeleted,
		MessageID: id,
		UserID:    actor.UserID,
		At:        time.Now().UTC(),
	})
	return nil
}

func (s *messageService) Snapshot(ctx context.Context) ([]imtypes.Message, error) {
	rows, err := s.msgRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return lo.Map(rows, func(m *models.Message, _ int) imtypes.Message { return m.ToWire() }), nil
}

func (s *messageService) GetByID(ctx context.Context, id string) (*imtypes.Message, error) {
	row, err := s.msgRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	wire := row.ToWire()
	return &wire, nil
}

// publish never fails the mutation; subscribers catch up on the next change.
func (s *messageService) publish(ctx context.Context, ev imtypes.MessageEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishMessageEvent(ctx, ev); err != nil {
		s.log.Errorw("publish message event", "event", ev.Event, "messageId", ev.MessageID, "error", err)
	}
}
