package cmd

import (
	"errors"

	"go.uber.org/zap"

	"github.com/rustyeddy/tradergame/config"
	"github.com/rustyeddy/tradergame/game"
	"github.com/rustyeddy/tradergame/journal"
	"github.com/rustyeddy/tradergame/market"
	"github.com/rustyeddy/tradergame/store"
	"github.com/rustyeddy/tradergame/strategies"
)

func openJournal(cfg config.JournalConfig) (journal.Journal, error) {
	switch cfg.Type {
	case "csv":
		return journal.NewCSV(cfg.TradesFile, cfg.EquityFile)
	case "sqlite":
		return journal.NewSQLite(cfg.DBPath)
	}
	return journal.Nop{}, nil
}

// openStore returns nil when saving is disabled.
func openStore(cfg config.StoreConfig) (store.StateRepository, error) {
	if cfg.Type == "none" {
		return nil, nil
	}
	return store.Open(cfg.Type, cfg.Path)
}

func newSession(cfg *config.Config, seed int64, j journal.Journal, log *zap.Logger) (*game.Session, error) {
	strat, err := cfg.NewStrategy()
	if err != nil {
		return nil, err
	}
	if r, ok := strat.(*strategies.Regime); ok {
		r.WithLogger(log.Named("strategy"))
	}

	return game.NewSession(cfg.Session(), game.Deps{
		Source:   market.NewSeededSource(seed),
		Strategy: strat,
		Journal:  j,
		Log:      log,
	})
}

// resume restores the saved game into s, if there is one. It reports
// whether anything was restored. An unreadable save leaves s at its
// initial state; the next save overwrites it.
func resume(s *game.Session, repo store.StateRepository, log *zap.Logger) bool {
	if repo == nil {
		return false
	}
	snap, err := repo.LoadState()
	if errors.Is(err, store.ErrNoState) {
		return false
	}
	if err != nil {
		log.Warn("saved game unreadable; starting fresh", zap.Error(err))
		return false
	}

	if issues := s.Restore(snap.State); len(issues) > 0 {
		log.Warn("saved game had corrupt fields; defaults used",
			zap.Int("fields", len(issues)),
			zap.Error(game.IssuesErr(issues)))
	}
	log.Info("resumed", zap.Time("saved_at", snap.SavedAt), zap.Int("tick", s.Market().TickCount))
	return true
}
