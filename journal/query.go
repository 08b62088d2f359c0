package journal

import (
	"database/sql"
	"errors"
	"fmt"
)

const tradeColumns = `trade_id, regime, shares, avg_cost, exit_price, open_tick, close_tick, profit, xp, reason, closed_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanTrade(s scanner) (TradeRecord, error) {
	var rec TradeRecord
	err := s.Scan(
		&rec.TradeID,
		&rec.Regime,
		&rec.Shares,
		&rec.AvgCost,
		&rec.ExitPrice,
		&rec.OpenTick,
		&rec.CloseTick,
		&rec.Profit,
		&rec.XP,
		&rec.Reason,
		&rec.ClosedAt,
	)
	return rec, err
}

// GetTrade returns a single trade record by ID.
func (j *SQLite) GetTrade(tradeID string) (TradeRecord, error) {
	row := j.db.QueryRow(`SELECT `+tradeColumns+` FROM trades WHERE trade_id = ?`, tradeID)

	rec, err := scanTrade(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return TradeRecord{}, fmt.Errorf("trade %q not found", tradeID)
		}
		return TradeRecord{}, err
	}
	return rec, nil
}

// ListTrades returns the most recent trades, oldest first. A limit <= 0
// returns everything.
func (j *SQLite) ListTrades(limit int) ([]TradeRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := j.db.Query(`
		SELECT `+tradeColumns+` FROM (
			SELECT `+tradeColumns+` FROM trades
			ORDER BY close_tick DESC, closed_at DESC
			LIMIT ?
		) ORDER BY close_tick ASC, closed_at ASC`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TradeRecord
	for rows.Next() {
		rec, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListTradesClosedBetween returns trades whose close tick is within [start, end).
func (j *SQLite) ListTradesClosedBetween(start, end int) ([]TradeRecord, error) {
	rows, err := j.db.Query(`
		SELECT `+tradeColumns+` FROM trades
		WHERE close_tick >= ? AND close_tick < ?
		ORDER BY close_tick ASC`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TradeRecord
	for rows.Next() {
		rec, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListEquity returns equity snapshots within [start, end) ticks.
func (j *SQLite) ListEquity(start, end int) ([]EquitySnapshot, error) {
	rows, err := j.db.Query(`
		SELECT tick, time, price, regime, balance, equity
		FROM equity
		WHERE tick >= ? AND tick < ?
		ORDER BY tick ASC`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EquitySnapshot
	for rows.Next() {
		var e EquitySnapshot
		if err := rows.Scan(&e.Tick, &e.Time, &e.Price, &e.Regime, &e.Balance, &e.Equity); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Stats aggregates closed trades.
type Stats struct {
	Trades      int
	Wins        int
	Losses      int
	GrossProfit float64
	GrossLoss   float64
	TotalXP     int
}

// ProfitFactor is GrossProfit / GrossLoss, or 0 with no losses.
func (s Stats) ProfitFactor() float64 {
	if s.GrossLoss == 0 {
		return 0
	}
	return s.GrossProfit / s.GrossLoss
}

// TradeStats summarizes every recorded trade.
func (j *SQLite) TradeStats() (Stats, error) {
	var s Stats
	err := j.db.QueryRow(`
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN profit > 0 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN profit <= 0 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN profit > 0 THEN profit ELSE 0 END), 0),
			COALESCE(-SUM(CASE WHEN profit < 0 THEN profit ELSE 0 END), 0),
			COALESCE(SUM(xp), 0)
		FROM trades`).Scan(&s.Trades, &s.Wins, &s.Losses, &s.GrossProfit, &s.GrossLoss, &s.TotalXP)
	return s, err
}
