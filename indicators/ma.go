package indicators

import (
	"errors"
	"fmt"
)

// ErrNotEnoughData is returned when a series is shorter than the window.
var ErrNotEnoughData = errors.New("not enough data")

// MA calculates the Simple Moving Average of the last period values.
func MA(values []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, fmt.Errorf("period must be positive, got %d", period)
	}
	if len(values) < period {
		return 0, fmt.Errorf("%w: need %d, got %d", ErrNotEnoughData, period, len(values))
	}
	return mean(values[len(values)-period:]), nil
}

// TailMean averages the last period values, or all of them when fewer are
// available. An empty series averages to 0.
func TailMean(values []float64, period int) float64 {
	if period <= 0 || len(values) == 0 {
		return 0
	}
	if len(values) > period {
		values = values[len(values)-period:]
	}
	return mean(values)
}

func mean(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
