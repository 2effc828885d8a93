package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ignatzorin/vessel-charter/internal/db"
	"github.com/ignatzorin/vessel-charter/internal/domain/entity"
	"github.com/ignatzorin/vessel-charter/internal/domain/repository"
	"github.com/ignatzorin/vessel-charter/internal/domain/valueobject"
	"github.com/ignatzorin/vessel-charter/internal/pkg/apperror"
)

const bookingColumns = `id, vessel_id, operator_id, start_at, end_at, status, terms, version, created_at, updated_at`

type BookingRepositoryAdapter struct {
	db *sqlx.DB
}

func NewBookingRepositoryAdapter(db *sqlx.DB) *BookingRepositoryAdapter {
	return &BookingRepositoryAdapter{db: db}
}

// CreateExclusive сериализует создание броней одного судна блокировкой его строки.
func (r *BookingRepositoryAdapter) CreateExclusive(ctx context.Context, vesselID uuid.UUID, admit repository.AdmitFunc) (*entity.Booking, error) {
	var booking *entity.Booking
	err := db.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		vessel, err := loadVessel(ctx, tx, vesselID, true)
		if err != nil {
			return err
		}

		var rows []bookingRow
		query := `SELECT ` + bookingColumns + ` FROM bookings WHERE vessel_id = $1 AND status = ANY($2)`
		if err := tx.SelectContext(ctx, &rows, query, vesselID, pq.Array(valueobject.ActiveBookingStatuses())); err != nil {
			return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить активные бронирования")
		}
		active := make([]*entity.Booking, 0, len(rows))
		for _, row := range rows {
			b, err := row.toEntity()
			if err != nil {
				return err
			}
			active = append(active, b)
		}

		booking, err = admit(vessel, active)
		if err != nil {
			return err
		}

		terms, err := json.Marshal(booking.Terms)
		if err != nil {
			return apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось сериализовать условия")
		}
		_, err = tx.ExecContext(ctx, `INSERT INTO bookings (`+bookingColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			booking.ID, booking.VesselID, booking.OperatorID, booking.Start, booking.End,
			string(booking.Status), terms, booking.Version, booking.CreatedAt, booking.UpdatedAt)
		if err != nil {
			return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось создать бронирование")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return booking, nil
}

// Save выполняет оптимистичное обновление: строка меняется, только если версия в БД равна
// expectedVersion. Запись журнала получает следующий seq под той же блокировкой строки.
func (r *BookingRepositoryAdapter) Save(ctx context.Context, b *entity.Booking, expectedVersion int64, entry *entity.NegotiationEntry) error {
	terms, err := json.Marshal(b.Terms)
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось сериализовать условия")
	}

	return db.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx,
			`UPDATE bookings SET status = $3, terms = $4, updated_at = $5, version = version + 1
			WHERE id = $1 AND version = $2`,
			b.ID, expectedVersion, string(b.Status), terms, b.UpdatedAt)
		if err != nil {
			return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось обновить бронирование")
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось проверить результат обновления")
		}
		if rows == 0 {
			var exists bool
			if err := tx.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM bookings WHERE id = $1)`, b.ID); err != nil {
				return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось проверить бронирование")
			}
			if !exists {
				return apperror.ErrBookingNotFound
			}
			return apperror.ErrConcurrencyConflict
		}
		b.Version = expectedVersion + 1

		if entry == nil {
			return nil
		}
		changes, err := json.Marshal(entry.Changes)
		if err != nil {
			return apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось сериализовать изменения")
		}
		err = tx.GetContext(ctx, &entry.Seq, `
			INSERT INTO booking_negotiation_events (booking_id, seq, updated_by, updated_at, note, changes)
			SELECT $1, COALESCE(MAX(seq), 0) + 1, $2, $3, $4, $5
			FROM booking_negotiation_events WHERE booking_id = $1
			RETURNING seq`,
			entry.BookingID, entry.UpdatedBy, entry.UpdatedAt, entry.Note, changes)
		if err != nil {
			return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось записать журнал переговоров")
		}
		return nil
	})
}

func (r *BookingRepositoryAdapter) FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	var row bookingRow
	if err := r.db.GetContext(ctx, &row, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.ErrBookingNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить бронирование")
	}
	return row.toEntity()
}

func (r *BookingRepositoryAdapter) FindByOperatorID(ctx context.Context, operatorID uuid.UUID) ([]*entity.Booking, error) {
	return r.list(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE operator_id = $1 ORDER BY created_at DESC`, operatorID)
}

func (r *BookingRepositoryAdapter) FindByVesselID(ctx context.Context, vesselID uuid.UUID) ([]*entity.Booking, error) {
	return r.list(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE vessel_id = $1 ORDER BY start_at`, vesselID)
}

func (r *BookingRepositoryAdapter) History(ctx context.Context, bookingID uuid.UUID) ([]*entity.NegotiationEntry, error) {
	var rows []negotiationRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT booking_id, seq, updated_by, updated_at, note, changes
		FROM booking_negotiation_events WHERE booking_id = $1 ORDER BY seq`, bookingID)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить журнал переговоров")
	}

	result := make([]*entity.NegotiationEntry, len(rows))
	for i, row := range rows {
		entry := &entity.NegotiationEntry{
			BookingID: row.BookingID,
			Seq:       row.Seq,
			UpdatedBy: row.UpdatedBy,
			UpdatedAt: row.UpdatedAt,
			Note:      row.Note,
		}
		if err := json.Unmarshal(row.Changes, &entry.Changes); err != nil {
			return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "повреждённая запись журнала переговоров")
		}
		result[i] = entry
	}
	return result, nil
}

func (r *BookingRepositoryAdapter) list(ctx context.Context, query string, arg any) ([]*entity.Booking, error) {
	var rows []bookingRow
	if err := r.db.SelectContext(ctx, &rows, query, arg); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить бронирования")
	}
	result := make([]*entity.Booking, 0, len(rows))
	for _, row := range rows {
		b, err := row.toEntity()
		if err != nil {
			return nil, err
		}
		result = append(result, b)
	}
	return result, nil
}

type bookingRow struct {
	ID         uuid.UUID `db:"id"`
	VesselID   uuid.UUID `db:"vessel_id"`
	OperatorID uuid.UUID `db:"operator_id"`
	Start      time.Time `db:"start_at"`
	End        time.Time `db:"end_at"`
	Status     string    `db:"status"`
	Terms      []byte    `db:"terms"`
	Version    int64     `db:"version"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

func (b *bookingRow) toEntity() (*entity.Booking, error) {
	booking := &entity.Booking{
		ID:         b.ID,
		VesselID:   b.VesselID,
		OperatorID: b.OperatorID,
		Start:      b.Start.UTC(),
		End:        b.End.UTC(),
		Status:     valueobject.BookingStatus(b.Status),
		Version:    b.Version,
		CreatedAt:  b.CreatedAt,
		UpdatedAt:  b.UpdatedAt,
	}
	if err := json.Unmarshal(b.Terms, &booking.Terms); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "повреждённые условия бронирования")
	}
	return booking, nil
}

type negotiationRow struct {
	BookingID uuid.UUID `db:"booking_id"`
	Seq       int64     `db:"seq"`
	UpdatedBy uuid.UUID `db:"updated_by"`
	UpdatedAt time.Time `db:"updated_at"`
	Note      string    `db:"note"`
	Changes   []byte    `db:"changes"`
}
