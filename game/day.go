package game

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

var (
	ErrDayAlreadyChosen = errors.New("day already chosen")
	ErrNotWorkDay       = errors.New("not a work day")
	ErrAlreadyWorked    = errors.New("shift already worked today")
)

// DayConfig turns ticks into days with a cost of living. A zero TicksPerDay
// disables the cycle entirely.
type DayConfig struct {
	TicksPerDay int
	DailyCost   float64
	// MaxNegativeDays ends the game after that many consecutive day ends with
	// a negative balance. Zero never ends it.
	MaxNegativeDays int
	Wage            float64
	WorkXP          int
	// ChoiceRequired gates buying on the player choosing to trade that day.
	ChoiceRequired bool
}

func (c DayConfig) Enabled() bool { return c.TicksPerDay > 0 }

type DayChoice int

const (
	DayChoiceNone DayChoice = iota
	DayChoiceTrade
	DayChoiceWork
)

func (c DayChoice) String() string {
	switch c {
	case DayChoiceTrade:
		return "trade"
	case DayChoiceWork:
		return "work"
	default:
		return "none"
	}
}

func (c DayChoice) Valid() bool { return c >= DayChoiceNone && c <= DayChoiceWork }

func (c DayChoice) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("invalid day choice %d", int(c))
	}
	return []byte(c.String()), nil
}

func (c *DayChoice) UnmarshalText(b []byte) error {
	v, err := ParseDayChoice(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

func ParseDayChoice(s string) (DayChoice, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trade":
		return DayChoiceTrade, nil
	case "work":
		return DayChoiceWork, nil
	case "", "none":
		return DayChoiceNone, nil
	}
	return DayChoiceNone, fmt.Errorf("unknown day choice %q", s)
}

// DayState is the day-cycle progress that gets persisted.
type DayState struct {
	Day          int       `json:"day" yaml:"day"`
	TickInDay    int       `json:"tickInDay" yaml:"tickInDay"`
	NegativeDays int       `json:"negativeDays" yaml:"negativeDays"`
	Choice       DayChoice `json:"choice" yaml:"choice"`
	Worked       bool      `json:"worked" yaml:"worked"`
	Failed       bool      `json:"failed" yaml:"failed"`
}

func newDayState() DayState { return DayState{Day: 1} }

// Day returns the current day-cycle state.
func (s *Session) Day() DayState { return s.day }

// ChooseDay records whether today is spent trading or working. It can be
// made once per day.
func (s *Session) ChooseDay(c DayChoice) error {
	if s.day.Failed {
		return ErrBankrupt
	}
	if c == DayChoiceNone || !c.Valid() {
		return fmt.Errorf("choose day: invalid choice %d", c)
	}
	if s.day.Choice != DayChoiceNone {
		return fmt.Errorf("day %d: %w (%s)", s.day.Day, ErrDayAlreadyChosen, s.day.Choice)
	}
	s.day.Choice = c
	s.syncPermission()
	s.log.Info("day chosen", zap.Int("day", s.day.Day), zap.Stringer("choice", c))
	return nil
}

// WorkResult is what one shift paid.
type WorkResult struct {
	Wage     float64
	XP       int
	LevelUps int
}

// Work pays one shift's wage and XP. With the day cycle on there is one
// shift per day, and with ChoiceRequired only on work days.
func (s *Session) Work(ctx context.Context) (WorkResult, error) {
	if err := ctx.Err(); err != nil {
		return WorkResult{}, err
	}
	if s.day.Failed {
		return WorkResult{}, ErrBankrupt
	}
	cfg := s.cfg.Day
	if cfg.Enabled() && cfg.ChoiceRequired && s.day.Choice != DayChoiceWork {
		return WorkResult{}, fmt.Errorf("day %d: %w", s.day.Day, ErrNotWorkDay)
	}
	if cfg.Enabled() && s.day.Worked {
		return WorkResult{}, fmt.Errorf("day %d: %w", s.day.Day, ErrAlreadyWorked)
	}

	s.day.Worked = true
	levels := s.engine.Deposit(cfg.Wage, cfg.WorkXP, "wage")
	return WorkResult{Wage: cfg.Wage, XP: cfg.WorkXP, LevelUps: levels}, nil
}

// advanceDay counts the tick and settles the day when it ends.
func (s *Session) advanceDay() error {
	cfg := s.cfg.Day
	if !cfg.Enabled() {
		return nil
	}
	s.day.TickInDay++
	if s.day.TickInDay < cfg.TicksPerDay {
		return nil
	}

	s.engine.Charge(cfg.DailyCost, "cost of living")
	balance := s.engine.Ledger().Balance
	if balance < 0 {
		s.day.NegativeDays++
	} else {
		s.day.NegativeDays = 0
	}

	if cfg.MaxNegativeDays > 0 && s.day.NegativeDays >= cfg.MaxNegativeDays {
		s.day.Failed = true
		s.engine.SetTradingPermitted(false)
		s.log.Warn("bankrupt",
			zap.Int("day", s.day.Day),
			zap.Int("negative_days", s.day.NegativeDays),
			zap.Float64("balance", balance))
		return fmt.Errorf("day %d: %w", s.day.Day, ErrBankrupt)
	}

	s.log.Info("day end",
		zap.Int("day", s.day.Day),
		zap.Float64("balance", balance),
		zap.Int("negative_days", s.day.NegativeDays))

	s.day.Day++
	s.day.TickInDay = 0
	s.day.Choice = DayChoiceNone
	s.day.Worked = false
	s.syncPermission()
	return nil
}

func (s *Session) syncPermission() {
	ok := !s.day.Failed
	if ok && s.cfg.Day.Enabled() && s.cfg.Day.ChoiceRequired {
		ok = s.day.Choice == DayChoiceTrade
	}
	s.engine.SetTradingPermitted(ok)
}
