package persistence

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/vessel-charter/internal/db"
	"github.com/ignatzorin/vessel-charter/internal/domain/entity"
	"github.com/ignatzorin/vessel-charter/internal/domain/repository"
	"github.com/ignatzorin/vessel-charter/internal/domain/valueobject"
	"github.com/ignatzorin/vessel-charter/internal/pkg/apperror"
)

const escrowColumns = `id, booking_id, provider, currency, reference, total_amount, amount, fee,
	owner_payout, status, created_at, updated_at`

type EscrowRepositoryAdapter struct {
	db *sqlx.DB
}

func NewEscrowRepositoryAdapter(db *sqlx.DB) *EscrowRepositoryAdapter {
	return &EscrowRepositoryAdapter{db: db}
}

func (r *EscrowRepositoryAdapter) Create(ctx context.Context, tx *entity.EscrowTransaction) error {
	return db.WithTx(ctx, r.db, func(sqlTx *sqlx.Tx) error {
		_, err := sqlTx.ExecContext(ctx, `INSERT INTO escrow_transactions (`+escrowColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			tx.ID, tx.BookingID, string(tx.Provider), string(tx.Currency), tx.Reference,
			tx.TotalAmount, tx.Amount, tx.Fee, tx.OwnerPayout, string(tx.Status), tx.CreatedAt, tx.UpdatedAt)
		if uniqueViolation(err, "escrow_transactions_booking_id_key") {
			return apperror.ErrEscrowExists
		}
		if err != nil {
			return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось создать escrow-транзакцию")
		}
		return insertEscrowEvents(ctx, sqlTx, tx.Events)
	})
}

func (r *EscrowRepositoryAdapter) FindByID(ctx context.Context, id uuid.UUID) (*entity.EscrowTransaction, error) {
	tx, err := loadEscrow(ctx, r.db, `WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.ErrEscrowNotFound
	}
	return tx, err
}

func (r *EscrowRepositoryAdapter) FindByReference(ctx context.Context, reference string) (*entity.EscrowTransaction, error) {
	tx, err := loadEscrow(ctx, r.db, `WHERE reference = $1`, reference)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.ErrEscrowNotFound
	}
	return tx, err
}

func (r *EscrowRepositoryAdapter) FindByBookingID(ctx context.Context, bookingID uuid.UUID) (*entity.EscrowTransaction, error) {
	tx, err := loadEscrow(ctx, r.db, `WHERE booking_id = $1`, bookingID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return tx, err
}

// Mutate блокирует строку транзакции, применяет mutate и сохраняет новые события журнала.
func (r *EscrowRepositoryAdapter) Mutate(ctx context.Context, id uuid.UUID, mutate repository.MutateFunc) (*entity.EscrowTransaction, error) {
	var result *entity.EscrowTransaction
	err := db.WithTx(ctx, r.db, func(sqlTx *sqlx.Tx) error {
		tx, err := loadEscrow(ctx, sqlTx, `WHERE id = $1 FOR UPDATE`, id)
		if errors.Is(err, sql.ErrNoRows) {
			return apperror.ErrEscrowNotFound
		}
		if err != nil {
			return err
		}

		known := len(tx.Events)
		event, err := mutate(tx)
		if err != nil {
			return err
		}
		result = tx
		if event == nil {
			return nil
		}

		if _, err := sqlTx.ExecContext(ctx, `UPDATE escrow_transactions SET status = $2, updated_at = $3 WHERE id = $1`,
			tx.ID, string(tx.Status), tx.UpdatedAt); err != nil {
			return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось обновить escrow-транзакцию")
		}
		return insertEscrowEvents(ctx, sqlTx, tx.Events[known:])
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func insertEscrowEvents(ctx context.Context, tx *sqlx.Tx, events []entity.EscrowEvent) error {
	for _, ev := range events {
		var payload any
		if len(ev.Payload) > 0 {
			payload = []byte(ev.Payload)
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO escrow_events (id, transaction_id, event, status, provider_ref, payload, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			ev.ID, ev.TransactionID, ev.Event, string(ev.Status), ev.ProviderRef, payload, ev.CreatedAt)
		if err != nil {
			return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось записать событие escrow")
		}
	}
	return nil
}

func loadEscrow(ctx context.Context, q sqlx.QueryerContext, where string, arg any) (*entity.EscrowTransaction, error) {
	var row escrowRow
	if err := sqlx.GetContext(ctx, q, &row, `SELECT `+escrowColumns+` FROM escrow_transactions `+where, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить escrow-транзакцию")
	}

	var events []escrowEventRow
	if err := sqlx.SelectContext(ctx, q, &events, `
		SELECT id, transaction_id, event, status, provider_ref, payload, created_at
		FROM escrow_events WHERE transaction_id = $1 ORDER BY seq`, row.ID); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить журнал escrow")
	}
	return row.toEntity(events), nil
}

type escrowRow struct {
	ID          uuid.UUID `db:"id"`
	BookingID   uuid.UUID `db:"booking_id"`
	Provider    string    `db:"provider"`
	Currency    string    `db:"currency"`
	Reference   string    `db:"reference"`
	TotalAmount int64     `db:"total_amount"`
	Amount      int64     `db:"amount"`
	Fee         int64     `db:"fee"`
	OwnerPayout int64     `db:"owner_payout"`
	Status      string    `db:"status"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (e *escrowRow) toEntity(events []escrowEventRow) *entity.EscrowTransaction {
	tx := &entity.EscrowTransaction{
		ID:          e.ID,
		BookingID:   e.BookingID,
		Provider:    valueobject.PaymentProvider(e.Provider),
		Currency:    valueobject.Currency(e.Currency),
		Reference:   e.Reference,
		TotalAmount: e.TotalAmount,
		Amount:      e.Amount,
		Fee:         e.Fee,
		OwnerPayout: e.OwnerPayout,
		Status:      valueobject.EscrowStatus(e.Status),
		Events:      make([]entity.EscrowEvent, len(events)),
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
	for i, ev := range events {
		tx.Events[i] = entity.EscrowEvent{
			ID:            ev.ID,
			TransactionID: ev.TransactionID,
			Event:         ev.Event,
			Status:        valueobject.EscrowStatus(ev.Status),
			ProviderRef:   ev.ProviderRef,
			Payload:       ev.Payload,
			CreatedAt:     ev.CreatedAt,
		}
	}
	return tx
}

type escrowEventRow struct {
	ID            uuid.UUID `db:"id"`
	TransactionID uuid.UUID `db:"transaction_id"`
	Event         string    `db:"event"`
	Status        string    `db:"status"`
	ProviderRef   *string   `db:"provider_ref"`
	Payload       []byte    `db:"payload"`
	CreatedAt     time.Time `db:"created_at"`
}
