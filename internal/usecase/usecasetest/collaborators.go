package usecasetest

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/ignatzorin/vessel-charter/internal/domain/entity"
	"github.com/ignatzorin/vessel-charter/internal/domain/repository"
)

// Recorder запоминает опубликованные события и уведомления.
type Recorder struct {
	mu            sync.Mutex
	Published     []string
	Notifications map[uuid.UUID][]string
	Payloads      map[string]any
}

func NewRecorder() *Recorder {
	return &Recorder{
		Notifications: make(map[uuid.UUID][]string),
		Payloads:      make(map[string]any),
	}
}

func (r *Recorder) Publish(_ context.Context, key string, payload any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Published = append(r.Published, key)
	r.Payloads[key] = payload
	return nil
}

func (r *Recorder) BroadcastToUser(userID uuid.UUID, event string, _ any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Notifications[userID] = append(r.Notifications[userID], event)
	return nil
}

func (r *Recorder) Events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.Published...)
}

// SyncDispatcher выполняет задачу сразу, в вызывающей горутине.
type SyncDispatcher struct{}

func (SyncDispatcher) SafeGoWithContext(_ string, fn func(context.Context)) {
	fn(context.Background())
}

// Renderer возвращает фиксированный документ или Err.
type Renderer struct {
	Err   error
	Calls int
}

func (r *Renderer) Render(_ context.Context, terms entity.ContractTerms) (*repository.RenderedDocument, error) {
	r.Calls++
	if r.Err != nil {
		return nil, r.Err
	}
	return &repository.RenderedDocument{
		Binary:      []byte("%PDF-1.4 " + terms.BookingID.String()),
		Hash:        "hash-" + terms.BookingID.String()[:8],
		ContentType: "application/pdf",
	}, nil
}

type DocumentStore struct{}

func (DocumentStore) Save(_ context.Context, contractID uuid.UUID, _ *repository.RenderedDocument) (string, error) {
	return fmt.Sprintf("https://files.test/contracts/%s.pdf", contractID), nil
}

// Gateway собирает условный платёжный запрос.
type Gateway struct{}

func (Gateway) BuildPayment(tx *entity.EscrowTransaction, payer entity.Party) (*repository.PaymentRequest, error) {
	payload, err := json.Marshal(map[string]any{
		"reference": tx.Reference,
		"amount":    tx.Amount,
		"email":     payer.Email,
	})
	if err != nil {
		return nil, err
	}
	return &repository.PaymentRequest{
		Provider:   string(tx.Provider),
		Reference:  tx.Reference,
		PaymentURL: "https://pay.test/" + tx.Reference,
		Endpoint:   "https://api.pay.test/transactions",
		Payload:    payload,
	}, nil
}
