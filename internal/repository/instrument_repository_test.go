package repository

import (
	"reflect"
	"strings"
	"testing"

	"github.com/yourorg/moex-data-service/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildUpsertSQLShape(t *testing.T) {
	sql := buildUpsertSQL()

	assert.True(t, strings.HasPrefix(sql, "INSERT INTO market_data ("))
	assert.Contains(t, sql, "ON CONFLICT (secid, boardid) DO UPDATE SET")
	assert.Contains(t, sql, "updated_at = CURRENT_TIMESTAMP")

	// every data column merges null-preservingly
	assert.Contains(t, sql, "last_price = COALESCE(EXCLUDED.last_price, market_data.last_price)")
	assert.Contains(t, sql, "shortname = COALESCE(EXCLUDED.shortname, market_data.shortname)")
	assert.Contains(t, sql, "effective_yield = COALESCE(EXCLUDED.effective_yield, market_data.effective_yield)")

	// the conflict key columns are never updated
	assert.NotContains(t, sql, "secid = COALESCE")
	assert.NotContains(t, sql, "boardid = COALESCE")

	// one named parameter per column
	assert.Equal(t, len(instrumentColumns), strings.Count(sql, ":"))
}

func TestInstrumentColumnsMatchModelTags(t *testing.T) {
	tags := map[string]bool{}
	rt := reflect.TypeOf(model.InstrumentRecord{})
	for i := 0; i < rt.NumField(); i++ {
		if tag := rt.Field(i).Tag.Get("db"); tag != "" && tag != "-" {
			tags[tag] = true
		}
	}

	for _, col := range instrumentColumns {
		assert.True(t, tags[col], "column %s has no matching db tag on the model", col)
	}
	require.Len(t, instrumentColumns, len(tags))
}

func TestCuratedIndexSets(t *testing.T) {
	assert.Contains(t, MainIndexSecids, "IMOEX")
	assert.Contains(t, MainIndexSecids, "RTSI")
	assert.NotEmpty(t, SectorIndexSecids)

	// the two sets never overlap
	main := map[string]bool{}
	for _, secid := range MainIndexSecids {
		main[secid] = true
	}
	for _, secid := range SectorIndexSecids {
		assert.False(t, main[secid], "secid %s is in both curated sets", secid)
	}
}
