package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/vessel-charter/internal/db"
	"github.com/ignatzorin/vessel-charter/internal/domain/entity"
	"github.com/ignatzorin/vessel-charter/internal/pkg/apperror"
)

const contractColumns = `id, booking_id, version, pdf_url, hash, terms, signed_at, created_at, updated_at`

type ContractRepositoryAdapter struct {
	db *sqlx.DB
}

func NewContractRepositoryAdapter(db *sqlx.DB) *ContractRepositoryAdapter {
	return &ContractRepositoryAdapter{db: db}
}

func (r *ContractRepositoryAdapter) Create(ctx context.Context, c *entity.Contract) error {
	terms, err := json.Marshal(c.Terms)
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось сериализовать условия контракта")
	}

	_, err = r.db.ExecContext(ctx, `INSERT INTO contracts (`+contractColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		c.ID, c.BookingID, c.Version, c.PDFURL, c.Hash, terms, c.SignedAt, c.CreatedAt, c.UpdatedAt)
	if uniqueViolation(err, "contracts_booking_id_key") {
		return apperror.ErrContractExists
	}
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось создать контракт")
	}
	return nil
}

func (r *ContractRepositoryAdapter) FindByID(ctx context.Context, id uuid.UUID) (*entity.Contract, error) {
	c, err := loadContract(ctx, r.db, `WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.ErrContractNotFound
	}
	return c, err
}

func (r *ContractRepositoryAdapter) FindByBookingID(ctx context.Context, bookingID uuid.UUID) (*entity.Contract, error) {
	c, err := loadContract(ctx, r.db, `WHERE booking_id = $1`, bookingID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return c, err
}

// AddSignature вставляет подпись с ON CONFLICT DO NOTHING и фиксирует signed_at,
// когда подписались обе стороны. Строка контракта блокируется, чтобы две последние
// подписи не разошлись в signed_at.
func (r *ContractRepositoryAdapter) AddSignature(ctx context.Context, contractID, signerID, ownerID, operatorID uuid.UUID) (*entity.Contract, error) {
	var contract *entity.Contract
	err := db.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		c, err := loadContract(ctx, tx, `WHERE id = $1 FOR UPDATE`, contractID)
		if errors.Is(err, sql.ErrNoRows) {
			return apperror.ErrContractNotFound
		}
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO contract_signatures (contract_id, signer_id, signed_at)
			VALUES ($1, $2, NOW())
			ON CONFLICT (contract_id, signer_id) DO NOTHING`, contractID, signerID)
		if err != nil {
			return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось записать подпись")
		}

		if c.AddSigner(signerID) && c.SignedAt == nil && c.IsFullySigned(ownerID, operatorID) {
			now := time.Now().UTC()
			c.SignedAt = &now
			c.UpdatedAt = now
			if _, err := tx.ExecContext(ctx, `UPDATE contracts SET signed_at = $2, updated_at = $3 WHERE id = $1`,
				contractID, c.SignedAt, c.UpdatedAt); err != nil {
				return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось обновить контракт")
			}
		}
		contract = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return contract, nil
}

func (r *ContractRepositoryAdapter) AttachDocument(ctx context.Context, contractID uuid.UUID, url, hash string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE contracts SET pdf_url = $2, hash = $3, updated_at = NOW() WHERE id = $1`,
		contractID, url, hash)
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось сохранить документ контракта")
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось проверить результат обновления")
	}
	if rows == 0 {
		return apperror.ErrContractNotFound
	}
	return nil
}

// loadContract возвращает sql.ErrNoRows как есть, чтобы вызывающий сам выбрал семантику отсутствия.
func loadContract(ctx context.Context, q sqlx.QueryerContext, where string, arg any) (*entity.Contract, error) {
	var row contractRow
	if err := sqlx.GetContext(ctx, q, &row, `SELECT `+contractColumns+` FROM contracts `+where, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить контракт")
	}

	var signers []uuid.UUID
	if err := sqlx.SelectContext(ctx, q, &signers,
		`SELECT signer_id FROM contract_signatures WHERE contract_id = $1 ORDER BY signed_at, signer_id`, row.ID); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить подписи")
	}
	return row.toEntity(signers)
}

type contractRow struct {
	ID        uuid.UUID  `db:"id"`
	BookingID uuid.UUID  `db:"booking_id"`
	Version   int        `db:"version"`
	PDFURL    *string    `db:"pdf_url"`
	Hash      *string    `db:"hash"`
	Terms     []byte     `db:"terms"`
	SignedAt  *time.Time `db:"signed_at"`
	CreatedAt time.Time  `db:"created_at"`
	UpdatedAt time.Time  `db:"updated_at"`
}

func (c *contractRow) toEntity(signers []uuid.UUID) (*entity.Contract, error) {
	if signers == nil {
		signers = []uuid.UUID{}
	}
	contract := &entity.Contract{
		ID:        c.ID,
		BookingID: c.BookingID,
		Version:   c.Version,
		PDFURL:    c.PDFURL,
		Hash:      c.Hash,
		SignerIDs: signers,
		SignedAt:  c.SignedAt,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
	if err := json.Unmarshal(c.Terms, &contract.Terms); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "повреждённые условия контракта")
	}
	return contract, nil
}
