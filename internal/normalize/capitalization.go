package normalize

import (
	"strings"
	"time"

	"github.com/yourorg/moex-data-service/internal/model"
)

// Capitalization extracts dated market-cap snapshots from the statistics
// response. The capitalization section reports the last trade date's value,
// issuecapitalization the current intraday one; the intraday timestamp is
// truncated to its date so repeated reports overwrite the same row.
func Capitalization(resp *model.CapitalizationResponse) []model.MarketCapSnapshot {
	snapshots := make([]model.MarketCapSnapshot, 0, 2)

	if snap := capSnapshot(resp.Capitalization); snap != nil {
		snapshots = append(snapshots, *snap)
	}
	if snap := capSnapshot(resp.IssueCapitalization); snap != nil {
		snapshots = append(snapshots, *snap)
	}

	return snapshots
}

// capSnapshot reads the single [value, timestamp] row of a capitalization
// section; a malformed row yields nothing.
func capSnapshot(section model.ColumnTable) *model.MarketCapSnapshot {
	if len(section.Data) == 0 || len(section.Data[0]) < 2 {
		return nil
	}
	row := section.Data[0]

	value, ok := row[0].(float64)
	if !ok {
		return nil
	}
	stamp, ok := row[1].(string)
	if !ok {
		return nil
	}

	// issuecapitalization stamps carry a time component
	datePart := strings.SplitN(stamp, " ", 2)[0]
	date, err := time.Parse("2006-01-02", datePart)
	if err != nil {
		return nil
	}

	return &model.MarketCapSnapshot{Date: date, Cap: value}
}
