package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/yourorg/moex-data-service/internal/model"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// BondEventRepository stores one raw bondization payload per bond secid,
// with the timestamp of its last refresh
type BondEventRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewBondEventRepository creates a new bond-event cache repository
func NewBondEventRepository(db *sqlx.DB, logger *zap.Logger) *BondEventRepository {
	return &BondEventRepository{
		db:     db,
		logger: logger,
	}
}

// Get returns the cached payload for a secid, or nil when absent
func (r *BondEventRepository) Get(ctx context.Context, secid string) (*model.BondPaymentsCacheEntry, error) {
	query := `
		SELECT secid, payload, updated_at
		FROM bond_payments_cache
		WHERE secid = $1
	`

	var entry model.BondPaymentsCacheEntry
	err := r.db.GetContext(ctx, &entry, query, secid)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to read bond payments cache",
			zap.Error(err),
			zap.String("secid", secid))
		return nil, err
	}

	return &entry, nil
}

// Put stores or refreshes the payload for a secid in place
func (r *BondEventRepository) Put(ctx context.Context, secid string, payload []byte) error {
	query := `
		INSERT INTO bond_payments_cache (secid, payload, updated_at)
		VALUES ($1, $2::jsonb, CURRENT_TIMESTAMP)
		ON CONFLICT (secid) DO UPDATE SET
			payload = EXCLUDED.payload,
			updated_at = CURRENT_TIMESTAMP
	`

	// the payload goes over the wire as text so the jsonb cast applies
	if _, err := r.db.ExecContext(ctx, query, secid, string(payload)); err != nil {
		r.logger.Error("Failed to write bond payments cache",
			zap.Error(err),
			zap.String("secid", secid))
		return err
	}

	return nil
}
