package notification

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"lapor-chat/internal/config"
	"lapor-chat/internal/metrics"
	"lapor-chat/internal/models"
	"lapor-chat/internal/push"
	"lapor-chat/internal/storage"
)

// Dispatcher fans a new-message notification out to every admin device.
type Dispatcher struct {
	users  storage.UserRepository
	tokens storage.PushTokenRepository
	sender push.Sender
	cfg    config.PushConfig
	log    *zap.SugaredLogger
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(users storage.UserRepository, tokens storage.PushTokenRepository, sender push.Sender, cfg config.PushConfig, log *zap.SugaredLogger) *Dispatcher {
	return &Dispatcher{
		users:  users,
		tokens: tokens,
		sender: sender,
		cfg:    cfg,
		log:    log,
	}
}

// OnMessageSent sends one push per admin token, one at a time. Admins without
// a stored token are skipped and gateway failures are logged and dropped. The
// only error returned is a failure to list the admins.
func (d *Dispatcher) OnMessageSent(ctx context.Context, body string) error {
	admins, err := d.users.ListByRole(ctx, models.RoleAdmin)
	if err != nil {
		return fmt.Errorf("list admins: %w", err)
	}

	for _, admin := range admins {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		tok, err := d.tokens.GetByUserID(ctx, admin.ID)
		if errors.Is(err, storage.ErrPushTokenNotFound) {
			metrics.PushDispatched.WithLabelValues("skipped").Inc()
			continue
		}
		if err != nil {
			d.log.Warnw("lookup push token", "userId", admin.ID, "error", err)
			metrics.PushDispatched.WithLabelValues("error").Inc()
			continue
		}

		err = d.sender.Send(ctx, push.Message{
			To:    tok.Token,
			Sound: d.cfg.Sound,
			Title: d.cfg.Title,
			Body:  body,
		})
		if err != nil {
			d.log.Errorw("send push notification", "userId", admin.ID, "error", err)
			metrics.PushDispatched.WithLabelValues("error").Inc()
			continue
		}
		metrics.PushDispatched.WithLabelValues("sent").Inc()
	}
	return nil
}
