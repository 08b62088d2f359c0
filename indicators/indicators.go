// Package indicators provides moving averages over plain price series.
package indicators
