package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/ignatzorin/vessel-charter/internal/domain/entity"
)

// AdmitFunc строит бронь из судна и его активных броней, прочитанных под блокировкой.
type AdmitFunc func(vessel *entity.Vessel, active []*entity.Booking) (*entity.Booking, error)

type BookingRepository interface {
	// CreateExclusive блокирует строку судна, читает активные брони, вызывает admit
	// и вставляет результат в одной транзакции.
	CreateExclusive(ctx context.Context, vesselID uuid.UUID, admit AdmitFunc) (*entity.Booking, error)
	// Save записывает статус и условия, если версия в БД всё ещё равна expectedVersion,
	// увеличивает версию и добавляет запись в журнал переговоров в той же транзакции.
	// При несовпадении версии возвращает apperror.ErrConcurrencyConflict.
	Save(ctx context.Context, booking *entity.Booking, expectedVersion int64, entry *entity.NegotiationEntry) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error)
	FindByOperatorID(ctx context.Context, operatorID uuid.UUID) ([]*entity.Booking, error)
	FindByVesselID(ctx context.Context, vesselID uuid.UUID) ([]*entity.Booking, error)
	History(ctx context.Context, bookingID uuid.UUID) ([]*entity.NegotiationEntry, error)
}
