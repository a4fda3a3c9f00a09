package normalize

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/yourorg/moex-data-service/internal/model"

	"go.uber.org/zap"
)

// ErrMissingColumn marks a response section that lacks a column the
// normalizer cannot work without. It fails the whole cycle's batch.
var ErrMissingColumn = errors.New("required column missing")

// maxNumeric10x6 is the largest magnitude representable by the NUMERIC(10,6)
// columns. Larger values are clamped rather than rejected.
const maxNumeric10x6 = 9999.999999

// Table wraps one column-oriented response section with a name-to-index map
// so field access never depends on column order.
type Table struct {
	name string
	idx  map[string]int
	rows [][]interface{}
}

// NewTable builds the column index for a named section
func NewTable(name string, section model.ColumnTable) *Table {
	idx := make(map[string]int, len(section.Columns))
	for i, col := range section.Columns {
		idx[col] = i
	}
	return &Table{name: name, idx: idx, rows: section.Data}
}

// Rows returns the positional data rows of the section
func (t *Table) Rows() [][]interface{} {
	return t.rows
}

// Require fails fast if any of the given columns is absent from the section
func (t *Table) Require(columns ...string) error {
	for _, col := range columns {
		if _, ok := t.idx[col]; !ok {
			return fmt.Errorf("%w: %s in section %s", ErrMissingColumn, col, t.name)
		}
	}
	return nil
}

// Has reports whether the section carries the column at all
func (t *Table) Has(column string) bool {
	_, ok := t.idx[column]
	return ok
}

// cell returns the raw value for a column, or nil when the column is absent,
// the row is too short, or the upstream sent null/empty.
func (t *Table) cell(row []interface{}, column string) interface{} {
	i, ok := t.idx[column]
	if !ok || i >= len(row) {
		return nil
	}
	v := row[i]
	if v == nil {
		return nil
	}
	if s, ok := v.(string); ok && s == "" {
		return nil
	}
	return v
}

// String returns the cell as a string pointer
func (t *Table) String(row []interface{}, column string) *string {
	v := t.cell(row, column)
	if v == nil {
		return nil
	}
	s, ok := v.(string)
	if !ok {
		return nil
	}
	return &s
}

// Float returns the cell as a float pointer; numeric strings are accepted,
// anything unparsable is nil.
func (t *Table) Float(row []interface{}, column string) *float64 {
	v := t.cell(row, column)
	if v == nil {
		return nil
	}
	switch n := v.(type) {
	case float64:
		return &n
	case string:
		parsed, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return nil
		}
		return &parsed
	default:
		return nil
	}
}

// Int returns the cell as an int pointer, truncating fractional values
func (t *Table) Int(row []interface{}, column string) *int {
	f := t.Float(row, column)
	if f == nil {
		return nil
	}
	n := int(*f)
	return &n
}

// Int64 returns the cell as an int64 pointer, truncating fractional values
func (t *Table) Int64(row []interface{}, column string) *int64 {
	f := t.Float(row, column)
	if f == nil {
		return nil
	}
	n := int64(*f)
	return &n
}

// Date returns the cell parsed as an ISO-8601 date; unparsable dates are nil
func (t *Table) Date(row []interface{}, column string) *time.Time {
	s := t.String(row, column)
	if s == nil {
		return nil
	}
	parsed, err := time.Parse("2006-01-02", *s)
	if err != nil {
		return nil
	}
	return &parsed
}

// clampNumeric bounds a value to what NUMERIC(10,6) can hold. Out-of-range
// magnitudes are clamped and logged, keeping the row available instead of
// failing the batch on overflow.
func clampNumeric(logger *zap.Logger, value *float64) *float64 {
	if value == nil {
		return nil
	}
	v := *value
	if math.Abs(v) > maxNumeric10x6 {
		logger.Warn("Value clamped to NUMERIC(10,6) range",
			zap.Float64("value", v),
			zap.Float64("limit", maxNumeric10x6))
		clamped := maxNumeric10x6
		if v < 0 {
			clamped = -maxNumeric10x6
		}
		return &clamped
	}
	rounded := roundTo(v, 6)
	return &rounded
}

func roundTo(v float64, places int) float64 {
	shift := math.Pow(10, float64(places))
	return math.Round(v*shift) / shift
}

func round8(v float64) *float64 {
	r := roundTo(v, 8)
	return &r
}

func round6(v float64) *float64 {
	r := roundTo(v, 6)
	return &r
}

// changeFields computes absolute and percent change versus the previous
// price. Both are nil when the previous price is unknown or zero.
func changeFields(last, prev *float64) (*float64, *float64) {
	if last == nil || prev == nil || *prev == 0 {
		return nil, nil
	}
	return round8(*last - *prev), round6((*last - *prev) / *prev * 100)
}

// volatilityPercent computes (high-low)/open*100, nil unless high, low and a
// non-zero open are all present.
func volatilityPercent(high, low, open *float64) *float64 {
	if high == nil || low == nil || open == nil || *open == 0 {
		return nil
	}
	return round6((*high - *low) / *open * 100)
}
