// Package journal records closed trades and equity snapshots.
package journal

import "time"

type TradeRecord struct {
	TradeID   string
	Regime    string
	Shares    float64
	AvgCost   float64
	ExitPrice float64
	OpenTick  int
	CloseTick int
	Profit    float64
	XP        int
	Reason    string
	ClosedAt  time.Time
}

type EquitySnapshot struct {
	Tick    int
	Time    time.Time
	Price   float64
	Regime  string
	Balance float64
	Equity  float64
}

type Journal interface {
	RecordTrade(TradeRecord) error
	RecordEquity(EquitySnapshot) error
	Close() error
}

// Nop discards everything.
type Nop struct{}

func (Nop) RecordTrade(TradeRecord) error     { return nil }
func (Nop) RecordEquity(EquitySnapshot) error { return nil }
func (Nop) Close() error                      { return nil }

// Memory keeps records in slices. It is used by headless simulations and
// tests.
type Memory struct {
	Trades []TradeRecord
	Equity []EquitySnapshot
}

func (m *Memory) RecordTrade(rec TradeRecord) error {
	m.Trades = append(m.Trades, rec)
	return nil
}

func (m *Memory) RecordEquity(rec EquitySnapshot) error {
	m.Equity = append(m.Equity, rec)
	return nil
}

func (m *Memory) Close() error { return nil }
