package persistence

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/vessel-charter/internal/domain/entity"
	"github.com/ignatzorin/vessel-charter/internal/pkg/apperror"
)

// PartyDirectoryAdapter читает профили участников из таблицы users,
// которую заполняет identity-провайдер.
type PartyDirectoryAdapter struct {
	db *sqlx.DB
}

func NewPartyDirectoryAdapter(db *sqlx.DB) *PartyDirectoryAdapter {
	return &PartyDirectoryAdapter{db: db}
}

func (r *PartyDirectoryAdapter) FindParty(ctx context.Context, id uuid.UUID) (entity.Party, error) {
	var row struct {
		ID          uuid.UUID `db:"id"`
		Email       string    `db:"email"`
		DisplayName string    `db:"display_name"`
		Role        string    `db:"role"`
	}
	err := r.db.GetContext(ctx, &row, `SELECT id, email, display_name, role FROM users WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return entity.Party{ID: id}, nil
	}
	if err != nil {
		return entity.Party{}, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить пользователя")
	}
	return entity.Party{ID: row.ID, Role: row.Role, DisplayName: row.DisplayName, Email: row.Email}, nil
}
