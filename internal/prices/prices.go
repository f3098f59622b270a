// Package prices tracks what products cost at each store and estimates
// the cost of a shopping list.
package prices

import (
	"slices"
	"time"
)

// Observation is a price seen for a product at a store.
type Observation struct {
	ID         string    `json:"id"`
	Product    string    `json:"product"`
	Store      string    `json:"store"`
	Price      float64   `json:"price"`
	Unit       string    `json:"unit"`
	ObservedAt time.Time `json:"observed_at"`
}

// Trend is the direction a product's price is moving.
type Trend string

const (
	TrendUp     Trend = "up"
	TrendDown   Trend = "down"
	TrendStable Trend = "stable"
)

// stableBand is the relative change under which a price counts as stable.
const stableBand = 0.05

// Summary aggregates the price history of one product.
type Summary struct {
	Product string  `json:"product"`
	Average float64 `json:"average"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Count   int     `json:"count"`
	Trend   Trend   `json:"trend"`
}

// Summarize computes statistics over a product's history. The trend
// compares the mean of the newer half against the older half.
func Summarize(history []Observation) Summary {
	s := Summary{Trend: TrendStable, Count: len(history)}
	if len(history) == 0 {
		return s
	}

	sorted := slices.Clone(history)
	slices.SortStableFunc(sorted, func(a, b Observation) int {
		return a.ObservedAt.Compare(b.ObservedAt)
	})

	s.Product = sorted[0].Product
	s.Min, s.Max = sorted[0].Price, sorted[0].Price
	var total float64
	for _, o := range sorted {
		total += o.Price
		s.Min = min(s.Min, o.Price)
		s.Max = max(s.Max, o.Price)
	}
	s.Average = total / float64(len(sorted))

	if len(sorted) < 2 {
		return s
	}
	half := len(sorted) / 2
	older := mean(sorted[:half])
	newer := mean(sorted[len(sorted)-half:])
	if older == 0 {
		return s
	}
	switch change := (newer - older) / older; {
	case change > stableBand:
		s.Trend = TrendUp
	case change < -stableBand:
		s.Trend = TrendDown
	}
	return s
}

func mean(obs []Observation) float64 {
	var total float64
	for _, o := range obs {
		total += o.Price
	}
	return total / float64(len(obs))
}

// StoreQuote is the latest known price of a product at one store.
type StoreQuote struct {
	Store      string    `json:"store"`
	Price      float64   `json:"price"`
	Unit       string    `json:"unit"`
	ObservedAt time.Time `json:"observed_at"`
}

// CompareStores orders the latest quotes cheapest first.
func CompareStores(latest []Observation) []StoreQuote {
	quotes := make([]StoreQuote, 0, len(latest))
	for _, o := range latest {
		quotes = append(quotes, StoreQuote{Store: o.Store, Price: o.Price, Unit: o.Unit, ObservedAt: o.ObservedAt})
	}
	slices.SortStableFunc(quotes, func(a, b StoreQuote) int {
		switch {
		case a.Price < b.Price:
			return -1
		case a.Price > b.Price:
			return 1
		}
		return 0
	})
	return quotes
}
