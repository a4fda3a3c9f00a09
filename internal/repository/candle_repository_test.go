package repository

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildCandleInsertSQLShape(t *testing.T) {
	sql := buildCandleInsertSQL()

	assert.Contains(t, sql, "INSERT INTO candles (ticker, date, close, volume)")

	// an existing candle is never overwritten
	assert.Contains(t, sql, "ON CONFLICT (ticker, date) DO NOTHING")
	assert.NotContains(t, sql, "DO UPDATE")

	// one named parameter per column
	assert.Equal(t, 4, strings.Count(sql, ":"))
}
