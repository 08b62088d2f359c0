package market

// Snapshot is the read-only view a strategy gets each time it runs.
type Snapshot struct {
	Tick      int
	Price     float64
	Regime    Regime
	BaseValue float64
	History   []float64
}
