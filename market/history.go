package market

// DefaultHistorySize is the number of samples kept for charting and the
// strategy.
const DefaultHistorySize = 100

// History is a fixed-capacity FIFO of recent prices, oldest first.
type History struct {
	max    int
	prices []float64
}

func NewHistory(max int) *History {
	if max <= 0 {
		max = DefaultHistorySize
	}
	return &History{
		max:    max,
		prices: make([]float64, 0, max),
	}
}

// Push appends p and drops the oldest sample once over capacity.
func (h *History) Push(p float64) {
	h.prices = append(h.prices, p)
	if len(h.prices) > h.max {
		h.prices = h.prices[len(h.prices)-h.max:]
	}
}

// Snapshot returns a copy of the samples, oldest first.
func (h *History) Snapshot() []float64 {
	out := make([]float64, len(h.prices))
	copy(out, h.prices)
	return out
}

func (h *History) Len() int { return len(h.prices) }

func (h *History) capacity() int { return h.max }

// Last returns the newest sample, or 0 when empty.
func (h *History) Last() float64 {
	if len(h.prices) == 0 {
		return 0
	}
	return h.prices[len(h.prices)-1]
}

// Reset replaces the contents with the tail of prices that fits.
func (h *History) Reset(prices []float64) {
	if len(prices) > h.max {
		prices = prices[len(prices)-h.max:]
	}
	h.prices = make([]float64, len(prices), h.max)
	copy(h.prices, prices)
}
