package persistence

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ignatzorin/vessel-charter/internal/domain/entity"
	"github.com/ignatzorin/vessel-charter/internal/domain/valueobject"
	"github.com/ignatzorin/vessel-charter/internal/pkg/apperror"
)

const vesselColumns = `id, owner_id, name, vessel_type, imo_number, home_port, length_meters,
	capacity_tonnes, crew_capacity, daily_rate, currency, status, created_at, updated_at`

type VesselRepositoryAdapter struct {
	db *sqlx.DB
}

func NewVesselRepositoryAdapter(db *sqlx.DB) *VesselRepositoryAdapter {
	return &VesselRepositoryAdapter{db: db}
}

func (r *VesselRepositoryAdapter) Create(ctx context.Context, v *entity.Vessel) error {
	query := `INSERT INTO vessels (` + vesselColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err := r.db.ExecContext(ctx, query,
		v.ID, v.OwnerID, v.Spec.Name, v.Spec.VesselType, v.Spec.IMONumber, v.Spec.HomePort,
		v.Spec.LengthMeters, v.Spec.CapacityTonnes, v.Spec.CrewCapacity,
		v.DailyRate, string(v.Currency), string(v.Status), v.CreatedAt, v.UpdatedAt,
	)
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось создать судно")
	}
	return nil
}

func (r *VesselRepositoryAdapter) UpdateStatus(ctx context.Context, v *entity.Vessel) error {
	result, err := r.db.ExecContext(ctx, `UPDATE vessels SET status = $2, updated_at = $3 WHERE id = $1`,
		v.ID, string(v.Status), v.UpdatedAt)
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось обновить судно")
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось проверить результат обновления")
	}
	if rows == 0 {
		return apperror.ErrVesselNotFound
	}
	return nil
}

func (r *VesselRepositoryAdapter) FindByID(ctx context.Context, id uuid.UUID) (*entity.Vessel, error) {
	return loadVessel(ctx, r.db, id, false)
}

func (r *VesselRepositoryAdapter) FindByOwnerID(ctx context.Context, ownerID uuid.UUID) ([]*entity.Vessel, error) {
	var rows []vesselRow
	query := `SELECT ` + vesselColumns + ` FROM vessels WHERE owner_id = $1 ORDER BY created_at DESC`
	if err := r.db.SelectContext(ctx, &rows, query, ownerID); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить суда")
	}
	if len(rows) == 0 {
		return []*entity.Vessel{}, nil
	}

	ids := make([]string, len(rows))
	for i, row := range rows {
		ids[i] = row.ID.String()
	}
	var slots []slotRow
	if err := r.db.SelectContext(ctx, &slots,
		`SELECT id, vessel_id, start_at, end_at, created_at FROM vessel_availability
		 WHERE vessel_id = ANY($1::uuid[]) ORDER BY start_at`, pq.Array(ids)); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить окна доступности")
	}
	byVessel := make(map[uuid.UUID][]entity.AvailabilitySlot, len(rows))
	for _, s := range slots {
		byVessel[s.VesselID] = append(byVessel[s.VesselID], s.toEntity())
	}

	result := make([]*entity.Vessel, len(rows))
	for i, row := range rows {
		result[i] = row.toEntity(byVessel[row.ID])
	}
	return result, nil
}

func (r *VesselRepositoryAdapter) AddSlot(ctx context.Context, slot *entity.AvailabilitySlot) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO vessel_availability (id, vessel_id, start_at, end_at, created_at) VALUES ($1, $2, $3, $4, $5)`,
		slot.ID, slot.VesselID, slot.Start, slot.End, slot.CreatedAt)
	if foreignKeyViolation(err) {
		return apperror.ErrVesselNotFound
	}
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось добавить окно доступности")
	}
	return nil
}

func (r *VesselRepositoryAdapter) DeleteSlot(ctx context.Context, vesselID, slotID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM vessel_availability WHERE id = $1 AND vessel_id = $2`, slotID, vesselID)
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось удалить окно доступности")
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось проверить результат удаления")
	}
	if rows == 0 {
		return apperror.ErrSlotNotFound
	}
	return nil
}

// loadVessel читает судно с окнами доступности; forUpdate блокирует строку до конца транзакции.
func loadVessel(ctx context.Context, q sqlx.QueryerContext, id uuid.UUID, forUpdate bool) (*entity.Vessel, error) {
	query := `SELECT ` + vesselColumns + ` FROM vessels WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	var row vesselRow
	if err := sqlx.GetContext(ctx, q, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.ErrVesselNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить судно")
	}

	var slots []slotRow
	if err := sqlx.SelectContext(ctx, q, &slots,
		`SELECT id, vessel_id, start_at, end_at, created_at FROM vessel_availability
		 WHERE vessel_id = $1 ORDER BY start_at`, id); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить окна доступности")
	}
	list := make([]entity.AvailabilitySlot, len(slots))
	for i, s := range slots {
		list[i] = s.toEntity()
	}
	return row.toEntity(list), nil
}

type vesselRow struct {
	ID             uuid.UUID `db:"id"`
	OwnerID        uuid.UUID `db:"owner_id"`
	Name           string    `db:"name"`
	VesselType     string    `db:"vessel_type"`
	IMONumber      string    `db:"imo_number"`
	HomePort       string    `db:"home_port"`
	LengthMeters   float64   `db:"length_meters"`
	CapacityTonnes float64   `db:"capacity_tonnes"`
	CrewCapacity   int       `db:"crew_capacity"`
	DailyRate      int64     `db:"daily_rate"`
	Currency       string    `db:"currency"`
	Status         string    `db:"status"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

func (v *vesselRow) toEntity(slots []entity.AvailabilitySlot) *entity.Vessel {
	if slots == nil {
		slots = []entity.AvailabilitySlot{}
	}
	return &entity.Vessel{
		ID:      v.ID,
		OwnerID: v.OwnerID,
		Spec: entity.VesselSpec{
			Name:           v.Name,
			VesselType:     v.VesselType,
			IMONumber:      v.IMONumber,
			HomePort:       v.HomePort,
			LengthMeters:   v.LengthMeters,
			CapacityTonnes: v.CapacityTonnes,
			CrewCapacity:   v.CrewCapacity,
		},
		DailyRate: v.DailyRate,
		Currency:  valueobject.Currency(v.Currency),
		Status:    valueobject.VesselStatus(v.Status),
		Slots:     slots,
		CreatedAt: v.CreatedAt,
		UpdatedAt: v.UpdatedAt,
	}
}

type slotRow struct {
	ID        uuid.UUID `db:"id"`
	VesselID  uuid.UUID `db:"vessel_id"`
	Start     time.Time `db:"start_at"`
	End       time.Time `db:"end_at"`
	CreatedAt time.Time `db:"created_at"`
}

func (s slotRow) toEntity() entity.AvailabilitySlot {
	return entity.AvailabilitySlot{
		ID:        s.ID,
		VesselID:  s.VesselID,
		Start:     s.Start.UTC(),
		End:       s.End.UTC(),
		CreatedAt: s.CreatedAt,
	}
}
