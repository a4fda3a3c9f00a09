package repository

import (
	"context"
	"time"

	"github.com/yourorg/moex-data-service/internal/model"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// CapitalizationRepository handles database operations for market-cap
// snapshots
type CapitalizationRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewCapitalizationRepository creates a new capitalization repository
func NewCapitalizationRepository(db *sqlx.DB, logger *zap.Logger) *CapitalizationRepository {
	return &CapitalizationRepository{
		db:     db,
		logger: logger,
	}
}

// Upsert writes capitalization snapshots. Capitalization is reported many
// times a day and only the latest value per date matters, so the merge is a
// plain overwrite.
func (r *CapitalizationRepository) Upsert(ctx context.Context, snapshots []model.MarketCapSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}

	query := `
		INSERT INTO market_caps (date, cap)
		VALUES (:date, :cap)
		ON CONFLICT (date) DO UPDATE SET cap = EXCLUDED.cap
	`

	if _, err := r.db.NamedExecContext(ctx, query, snapshots); err != nil {
		r.logger.Error("Failed to upsert capitalization snapshots",
			zap.Error(err),
			zap.Int("snapshots", len(snapshots)))
		return err
	}

	return nil
}

// GetSince returns snapshots from a start date onwards, ordered by date
func (r *CapitalizationRepository) GetSince(ctx context.Context, from time.Time) ([]model.MarketCapSnapshot, error) {
	query := `
		SELECT date, cap
		FROM market_caps
		WHERE date >= $1
		ORDER BY date
	`

	var snapshots []model.MarketCapSnapshot
	err := r.db.SelectContext(ctx, &snapshots, query, from)
	if err != nil {
		r.logger.Error("Failed to get capitalization snapshots", zap.Error(err))
		return nil, err
	}

	return snapshots, nil
}
