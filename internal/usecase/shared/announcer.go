package shared

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/vessel-charter/internal/domain/repository"
	"github.com/ignatzorin/vessel-charter/internal/logger"
)

// Announcer рассылает доменные события в шину и участникам через WebSocket.
// Вызывается только после коммита; ошибки доставки логируются и не влияют на результат операции.
type Announcer struct {
	publisher repository.EventPublisher
	notifier  repository.Notifier
}

func NewAnnouncer(publisher repository.EventPublisher, notifier repository.Notifier) *Announcer {
	return &Announcer{publisher: publisher, notifier: notifier}
}

func (a *Announcer) Announce(ctx context.Context, event string, payload any, recipients ...uuid.UUID) {
	if a == nil {
		return
	}

	if a.publisher != nil {
		if err := a.publisher.Publish(ctx, event, payload); err != nil {
			logger.L().WithFields(logrus.Fields{
				"event": event,
				"error": err.Error(),
			}).Warn("не удалось опубликовать событие")
		}
	}

	if a.notifier == nil {
		return
	}
	seen := make(map[uuid.UUID]struct{}, len(recipients))
	for _, userID := range recipients {
		if userID == uuid.Nil {
			continue
		}
		if _, ok := seen[userID]; ok {
			continue
		}
		seen[userID] = struct{}{}
		if err := a.notifier.BroadcastToUser(userID, event, payload); err != nil {
			logger.L().WithFields(logrus.Fields{
				"event":   event,
				"user_id": userID.String(),
				"error":   err.Error(),
			}).Warn("не удалось отправить уведомление")
		}
	}
}
