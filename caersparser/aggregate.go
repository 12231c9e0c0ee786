package caersparser

import (
	"cmp"
	"slices"

	"github.com/giygas/caers-api/caersparser/entities"
)

// Aggregate folds suspect records into per-product statistics keyed by the
// lowercased product name. A product enters the map on first sight, so every
// count is at least 1.
func Aggregate(records []entities.Record) map[string]entities.ProductAggregate {
	aggregates := make(map[string]entities.ProductAggregate)

	for _, record := range records {
		agg, ok := aggregates[record.Product]
		if !ok {
			agg = entities.ProductAggregate{
				Product:   record.Product,
				ByBracket: make(map[entities.AgeBracket]int),
			}
		}
		agg.Count++
		agg.SeveritySum += int(record.Severity)
		agg.ByBracket[record.Bracket]++
		aggregates[record.Product] = agg
	}

	for product, agg := range aggregates {
		agg.MeanSeverity = float64(agg.SeveritySum) / float64(agg.Count)
		aggregates[product] = agg
	}

	return aggregates
}

// Broadcast copies each product's occurrence count and mean severity onto
// every record naming that product.
func Broadcast(records []entities.Record, aggregates map[string]entities.ProductAggregate) {
	for i := range records {
		if agg, ok := aggregates[records[i].Product]; ok {
			records[i].Occurrences = agg.Count
			records[i].MeanSeverity = agg.MeanSeverity
		}
	}
}

// RankAggregates returns the aggregates ordered by count, highest first,
// with ties broken by product name.
func RankAggregates(aggregates map[string]entities.ProductAggregate) []entities.ProductAggregate {
	ranked := make([]entities.ProductAggregate, 0, len(aggregates))
	for _, agg := range aggregates {
		ranked = append(ranked, agg)
	}

	slices.SortFunc(ranked, func(a, b entities.ProductAggregate) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Product, b.Product)
	})

	return ranked
}
