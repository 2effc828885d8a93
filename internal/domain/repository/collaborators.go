package repository

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/ignatzorin/vessel-charter/internal/domain/entity"
)

// RenderedDocument: результат внешнего сервиса рендеринга.
type RenderedDocument struct {
	Binary      []byte
	Hash        string
	ContentType string
}

type DocumentRenderer interface {
	Render(ctx context.Context, terms entity.ContractTerms) (*RenderedDocument, error)
}

// DocumentStore сохраняет артефакт и возвращает публичный URL.
type DocumentStore interface {
	Save(ctx context.Context, contractID uuid.UUID, doc *RenderedDocument) (string, error)
}

// PaymentRequest: подготовленный (но не отправленный) запрос к платёжному провайдеру.
type PaymentRequest struct {
	Provider   string          `json:"provider"`
	Reference  string          `json:"reference"`
	PaymentURL string          `json:"payment_url"`
	Endpoint   string          `json:"endpoint"`
	Payload    json.RawMessage `json:"payload"`
}

type PaymentGateway interface {
	BuildPayment(tx *entity.EscrowTransaction, payer entity.Party) (*PaymentRequest, error)
}

// EventPublisher публикует доменные события после коммита.
type EventPublisher interface {
	Publish(ctx context.Context, key string, payload any) error
}

// Notifier доставляет realtime-уведомления участникам.
type Notifier interface {
	BroadcastToUser(userID uuid.UUID, event string, data any) error
}
