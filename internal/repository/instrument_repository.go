package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yourorg/moex-data-service/internal/model"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// UpsertBatchSize bounds the number of rows per statement and the memory a
// single transaction can hold.
const UpsertBatchSize = 1000

// instrumentColumns is every persisted column of market_data in insert
// order; the first two form the conflict target.
var instrumentColumns = []string{
	"secid", "boardid", "instrument_type",
	"shortname", "currency", "list_level",
	"last_price", "open_price", "high_price", "low_price",
	"change_abs", "change_percent", "volume", "trades_count",
	"volatility_percent", "capitalization", "change_capitalization",
	"annual_high", "annual_low",
	"maturity_date", "coupon_percent", "coupon_value", "coupon_period",
	"next_coupon_date", "accrued_interest", "full_price", "effective_yield",
	"duration_days", "duration_years", "face_value", "isin",
	"lot_size", "issue_size", "issue_size_placed",
}

// Curated index sets served by the top-indices query
var (
	MainIndexSecids   = []string{"IMOEX", "RTSI", "MOEXBC", "RGBITR", "RUCBICP"}
	SectorIndexSecids = []string{
		"MOEXOG", "MOEXFN", "MOEXMM", "MOEXCN", "MOEXTL",
		"MOEXIT", "MOEXEU", "MOEXTN", "MOEXRE",
	}
)

// InstrumentRepository handles database operations for instrument snapshots
type InstrumentRepository struct {
	db         *sqlx.DB
	logger     *zap.Logger
	upsertSQL  string
	selectCols string
}

// NewInstrumentRepository creates a new instrument repository
func NewInstrumentRepository(db *sqlx.DB, logger *zap.Logger) *InstrumentRepository {
	return &InstrumentRepository{
		db:         db,
		logger:     logger,
		upsertSQL:  buildUpsertSQL(),
		selectCols: strings.Join(instrumentColumns, ", "),
	}
}

// buildUpsertSQL assembles the null-preserving merge statement: on conflict
// every column takes the incoming value unless it is null, in which case the
// stored value survives.
func buildUpsertSQL() string {
	var sb strings.Builder

	sb.WriteString("INSERT INTO market_data (")
	sb.WriteString(strings.Join(instrumentColumns, ", "))
	sb.WriteString(") VALUES (")
	for i, col := range instrumentColumns {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(":" + col)
	}
	sb.WriteString(") ON CONFLICT (secid, boardid) DO UPDATE SET ")

	for i, col := range instrumentColumns[2:] {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%s = COALESCE(EXCLUDED.%s, market_data.%s)", col, col, col)
	}
	sb.WriteString(", updated_at = CURRENT_TIMESTAMP")

	return sb.String()
}

// Upsert merges instrument records into market_data in batches. Each batch
// commits its own transaction: a failure aborts the call but leaves earlier
// batches durable. The merge is idempotent per (secid, boardid), and the
// next scheduled cycle re-covers whatever this one did not reach, which is
// why partial progress is preferred over one giant transaction.
func (r *InstrumentRepository) Upsert(ctx context.Context, records []model.InstrumentRecord) error {
	if len(records) == 0 {
		return nil
	}

	start := time.Now()
	for offset := 0; offset < len(records); offset += UpsertBatchSize {
		end := offset + UpsertBatchSize
		if end > len(records) {
			end = len(records)
		}
		batch := records[offset:end]

		tx, err := r.db.BeginTxx(ctx, nil)
		if err != nil {
			r.logger.Error("Failed to begin transaction", zap.Error(err))
			return err
		}

		if _, err := tx.NamedExecContext(ctx, r.upsertSQL, batch); err != nil {
			tx.Rollback()
			r.logger.Error("Failed to upsert instrument batch",
				zap.Error(err),
				zap.Int("offset", offset),
				zap.Int("batch_size", len(batch)))
			return fmt.Errorf("failed to upsert batch at offset %d: %w", offset, err)
		}

		if err := tx.Commit(); err != nil {
			r.logger.Error("Failed to commit transaction", zap.Error(err))
			return err
		}
	}

	r.logger.Info("Upserted instrument records",
		zap.Int("records", len(records)),
		zap.Duration("elapsed", time.Since(start)))

	return nil
}

// GetPage returns one page of instruments of a type, in stable key order
func (r *InstrumentRepository) GetPage(
	ctx context.Context,
	instrumentType string,
	page int,
	perPage int,
) ([]model.InstrumentRecord, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM market_data
		WHERE instrument_type = $1
		ORDER BY secid, boardid
		OFFSET $2 LIMIT $3
	`, r.selectCols)

	var records []model.InstrumentRecord
	err := r.db.SelectContext(ctx, &records, query, instrumentType, (page-1)*perPage, perPage)
	if err != nil {
		r.logger.Error("Failed to get instrument page",
			zap.Error(err),
			zap.String("instrument_type", instrumentType),
			zap.Int("page", page))
		return nil, err
	}

	return records, nil
}

// GetBySecid returns the first instrument snapshot for a ticker, or nil
func (r *InstrumentRepository) GetBySecid(ctx context.Context, secid string) (*model.InstrumentRecord, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM market_data
		WHERE secid = $1
		ORDER BY boardid
		LIMIT 1
	`, r.selectCols)

	var record model.InstrumentRecord
	err := r.db.GetContext(ctx, &record, query, secid)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get instrument by secid",
			zap.Error(err),
			zap.String("secid", secid))
		return nil, err
	}

	return &record, nil
}

// GetTopStocks ranks stocks by the given criterion
func (r *InstrumentRepository) GetTopStocks(ctx context.Context, criterion string, limit int) ([]model.InstrumentRecord, error) {
	base := fmt.Sprintf("SELECT %s FROM market_data WHERE instrument_type = 'stock'", r.selectCols)

	var clause string
	switch criterion {
	case "volatility":
		clause = " AND volatility_percent IS NOT NULL ORDER BY volatility_percent DESC"
	case "volume":
		clause = " AND volume IS NOT NULL ORDER BY volume DESC"
	case "rising":
		clause = " AND change_percent IS NOT NULL AND change_percent <> 0 ORDER BY change_percent DESC"
	case "falling":
		clause = " AND change_percent IS NOT NULL AND change_percent <> 0 ORDER BY change_percent ASC"
	default:
		return nil, fmt.Errorf("unknown stock ranking criterion: %s", criterion)
	}

	var records []model.InstrumentRecord
	err := r.db.SelectContext(ctx, &records, base+clause+" LIMIT $1", limit)
	if err != nil {
		r.logger.Error("Failed to get top stocks",
			zap.Error(err),
			zap.String("criterion", criterion))
		return nil, err
	}

	return records, nil
}

// GetTopBonds ranks unmatured first-level bonds by the given criterion
func (r *InstrumentRepository) GetTopBonds(ctx context.Context, criterion string, limit int) ([]model.InstrumentRecord, error) {
	base := fmt.Sprintf(`
		SELECT %s FROM market_data
		WHERE instrument_type = 'bond'
		  AND maturity_date > CURRENT_DATE
		  AND list_level = 1
	`, r.selectCols)

	var clause string
	switch criterion {
	case "liquidity":
		clause = " ORDER BY volume DESC NULLS LAST"
	case "duration":
		clause = " ORDER BY duration_years DESC NULLS LAST"
	case "discount":
		clause = ` AND last_price < face_value AND face_value > 0
			ORDER BY (face_value - last_price) / face_value * 100 DESC`
	case "coupon":
		clause = " ORDER BY coupon_percent DESC NULLS LAST"
	default:
		return nil, fmt.Errorf("unknown bond ranking criterion: %s", criterion)
	}

	var records []model.InstrumentRecord
	err := r.db.SelectContext(ctx, &records, base+clause+" LIMIT $1", limit)
	if err != nil {
		r.logger.Error("Failed to get top bonds",
			zap.Error(err),
			zap.String("criterion", criterion))
		return nil, err
	}

	return records, nil
}

// GetTopYields ranks bonds by effective yield inside a maturity band:
// short is up to a year out, medium one to five years, long beyond five.
func (r *InstrumentRepository) GetTopYields(ctx context.Context, band string, limit int) ([]model.InstrumentRecord, error) {
	var minYears, maxYears float64
	switch band {
	case "short":
		minYears, maxYears = 0, 1
	case "medium":
		minYears, maxYears = 1, 5
	case "long":
		minYears, maxYears = 5, -1
	default:
		return nil, fmt.Errorf("unknown yield band: %s", band)
	}

	query := fmt.Sprintf(`
		SELECT %s FROM market_data
		WHERE instrument_type = 'bond'
		  AND list_level = 1
		  AND maturity_date > CURRENT_DATE
		  AND effective_yield > 0
		  AND effective_yield < 100
		  AND accrued_interest IS NOT NULL
		  AND (maturity_date - CURRENT_DATE) / 365.25 > $1
	`, r.selectCols)

	args := []interface{}{minYears}
	if maxYears > 0 {
		query += " AND (maturity_date - CURRENT_DATE) / 365.25 <= $2"
		args = append(args, maxYears)
	}
	query += fmt.Sprintf(" ORDER BY effective_yield DESC LIMIT $%d", len(args)+1)
	args = append(args, limit)

	var records []model.InstrumentRecord
	err := r.db.SelectContext(ctx, &records, query, args...)
	if err != nil {
		r.logger.Error("Failed to get top yields",
			zap.Error(err),
			zap.String("band", band))
		return nil, err
	}

	return records, nil
}

// GetTopIndexes serves the index rankings: the curated main/sector sets, or
// the five strongest movers by the dynamic criteria.
func (r *InstrumentRepository) GetTopIndexes(ctx context.Context, criterion string) ([]model.InstrumentRecord, error) {
	base := fmt.Sprintf("SELECT %s FROM market_data WHERE instrument_type = 'index'", r.selectCols)

	var (
		query string
		args  []interface{}
		err   error
	)

	switch criterion {
	case "main", "sector":
		secids := MainIndexSecids
		if criterion == "sector" {
			secids = SectorIndexSecids
		}
		query, args, err = sqlx.In(base+" AND secid IN (?)", secids)
		if err != nil {
			return nil, err
		}
		query = r.db.Rebind(query)
	case "rising":
		query = base + " ORDER BY change_percent DESC NULLS LAST LIMIT 5"
	case "falling":
		query = base + " ORDER BY change_percent ASC NULLS LAST LIMIT 5"
	case "volume":
		query = base + " ORDER BY volume DESC NULLS LAST LIMIT 5"
	case "volatility":
		query = base + " AND volatility_percent IS NOT NULL ORDER BY volatility_percent DESC LIMIT 5"
	default:
		return nil, fmt.Errorf("unknown index ranking criterion: %s", criterion)
	}

	var records []model.InstrumentRecord
	err = r.db.SelectContext(ctx, &records, query, args...)
	if err != nil {
		r.logger.Error("Failed to get top indexes",
			zap.Error(err),
			zap.String("criterion", criterion))
		return nil, err
	}

	return records, nil
}

// GetUpcomingBondEvents lists bonds by their next calendar event: coupon
// payments or redemptions, soonest first.
func (r *InstrumentRepository) GetUpcomingBondEvents(ctx context.Context, kind string, limit int) ([]model.InstrumentRecord, error) {
	var dateColumn string
	switch kind {
	case "payment":
		dateColumn = "next_coupon_date"
	case "repayment":
		dateColumn = "maturity_date"
	default:
		return nil, fmt.Errorf("unknown bond event kind: %s", kind)
	}

	query := fmt.Sprintf(`
		SELECT %s FROM market_data
		WHERE instrument_type = 'bond' AND %s >= CURRENT_DATE
		ORDER BY %s ASC
		LIMIT $1
	`, r.selectCols, dateColumn, dateColumn)

	var records []model.InstrumentRecord
	err := r.db.SelectContext(ctx, &records, query, limit)
	if err != nil {
		r.logger.Error("Failed to get upcoming bond events",
			zap.Error(err),
			zap.String("kind", kind))
		return nil, err
	}

	return records, nil
}
