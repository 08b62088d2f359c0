package journal

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLite(t *testing.T) (*SQLite, string) {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "test.db")

	j, err := NewSQLite(path)
	require.NoError(t, err)

	return j, path
}

func sampleTrade(id string, closeTick int, profit float64) TradeRecord {
	return TradeRecord{
		TradeID:   id,
		Regime:    "TrendUp",
		Shares:    3,
		AvgCost:   101.25,
		ExitPrice: 106.5,
		OpenTick:  closeTick - 40,
		CloseTick: closeTick,
		Profit:    profit,
		XP:        10,
		Reason:    "TakeProfit",
		ClosedAt:  time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestSQLiteSchemaCreated(t *testing.T) {
	t.Parallel()

	j, path := newTestSQLite(t)
	assert.NoError(t, j.Close())

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	rows, err := db.Query(`SELECT name FROM sqlite_master WHERE type='table' AND name IN ('trades','equity')`)
	require.NoError(t, err)
	defer rows.Close()

	found := map[string]bool{}
	for rows.Next() {
		var name string
		assert.NoError(t, rows.Scan(&name))
		found[name] = true
	}
	assert.NoError(t, rows.Err())

	assert.True(t, found["trades"])
	assert.True(t, found["equity"])
}

func TestSQLiteRecordTrade(t *testing.T) {
	t.Parallel()

	j, path := newTestSQLite(t)

	rec := sampleTrade("T1", 140, 15.75)
	require.NoError(t, j.RecordTrade(rec))
	require.NoError(t, j.Close())

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	var (
		tradeID  string
		regime   string
		shares   float64
		avgCost  float64
		exit     float64
		openTick int
		close    int
		profit   float64
		xp       int
		reason   string
		closedAt time.Time
	)

	err = db.QueryRow(`
        SELECT trade_id, regime, shares, avg_cost, exit_price, open_tick, close_tick, profit, xp, reason, closed_at
        FROM trades LIMIT 1`).Scan(
		&tradeID, &regime, &shares, &avgCost, &exit, &openTick, &close, &profit, &xp, &reason, &closedAt,
	)
	require.NoError(t, err)

	assert.Equal(t, rec.TradeID, tradeID)
	assert.Equal(t, rec.Regime, regime)
	assert.InDelta(t, rec.Shares, shares, 1e-9)
	assert.InDelta(t, rec.AvgCost, avgCost, 1e-9)
	assert.InDelta(t, rec.ExitPrice, exit, 1e-9)
	assert.Equal(t, rec.OpenTick, openTick)
	assert.Equal(t, rec.CloseTick, close)
	assert.InDelta(t, rec.Profit, profit, 1e-9)
	assert.Equal(t, rec.XP, xp)
	assert.Equal(t, rec.Reason, reason)
	assert.True(t, closedAt.Equal(rec.ClosedAt))
}

func TestSQLiteRecordEquity(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	defer j.Close()

	ts := time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC)
	for i := 1; i <= 5; i++ {
		require.NoError(t, j.RecordEquity(EquitySnapshot{
			Tick:    i * 10,
			Time:    ts,
			Price:   100 + float64(i),
			Regime:  "Range",
			Balance: 1000,
			Equity:  1000 + float64(i),
		}))
	}

	got, err := j.ListEquity(20, 50)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, 20, got[0].Tick)
	assert.Equal(t, 40, got[2].Tick)
	assert.InDelta(t, 1004.0, got[2].Equity, 1e-9)
	assert.Equal(t, "Range", got[1].Regime)
	assert.True(t, got[0].Time.Equal(ts))
}

func TestSQLiteDuplicateTradeID(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	defer j.Close()

	require.NoError(t, j.RecordTrade(sampleTrade("dup", 10, 1)))
	assert.Error(t, j.RecordTrade(sampleTrade("dup", 20, 2)))
}
