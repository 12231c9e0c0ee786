// Package chart builds and renders the grouped bar chart of the most
// reported products, broken down by age group.
package chart

import (
	"cmp"
	"slices"
	"strings"

	"github.com/giygas/caers-api/caersparser"
	"github.com/giygas/caers-api/caersparser/entities"
)

// DefaultThreshold is the occurrence count a product must exceed to be charted.
const DefaultThreshold = 300

// Options selects the records that go into the chart. With a Sex or AgeGroup
// filter, occurrences are recounted over the matching records only.
type Options struct {
	Threshold int                 // products with Occurrences <= Threshold are left out
	Sex       string              // optional, matched case-insensitively
	AgeGroup  entities.AgeBracket // optional
}

// Bar is one bar: x = Product, y = Occurrences, hue = AgeGroup.
// Records is how many suspect records fell into this (product, age group).
type Bar struct {
	Product     string              `json:"product"`
	AgeGroup    entities.AgeBracket `json:"ageGroup"`
	Occurrences int                 `json:"occurrences"`
	Records     int                 `json:"records"`
}

// Data is everything needed to draw the chart.
type Data struct {
	Threshold int                   `json:"threshold"`
	Products  []string              `json:"products"`
	AgeGroups []entities.AgeBracket `json:"ageGroups"`
	Bars      []Bar                 `json:"bars"`
}

// Max returns the largest bar value, or 0 for an empty chart.
func (d Data) Max() int {
	maxValue := 0
	for _, bar := range d.Bars {
		maxValue = max(maxValue, bar.Occurrences)
	}
	return maxValue
}

type barKey struct {
	product  string
	ageGroup entities.AgeBracket
}

// Build filters records to products above the threshold and groups them by
// product and age group. Products are ordered by occurrences, highest first;
// age groups follow entities.AgeBrackets order.
func Build(records []entities.Record, opts Options) Data {
	data := Data{Threshold: opts.Threshold}

	var recounted map[string]entities.ProductAggregate
	if opts.filtered() {
		records = filterRecords(records, opts)
		recounted = caersparser.Aggregate(records)
	}

	bars := make(map[barKey]*Bar)
	occurrences := make(map[string]int)
	groupsSeen := make(map[entities.AgeBracket]bool)

	for _, record := range records {
		count := record.Occurrences
		if recounted != nil {
			count = recounted[record.Product].Count
		}
		if count <= opts.Threshold {
			continue
		}

		key := barKey{product: record.Product, ageGroup: record.Bracket}
		bar, ok := bars[key]
		if !ok {
			bar = &Bar{Product: record.Product, AgeGroup: record.Bracket, Occurrences: count}
			bars[key] = bar
		}
		bar.Records++

		occurrences[record.Product] = count
		groupsSeen[record.Bracket] = true
	}

	for product := range occurrences {
		data.Products = append(data.Products, product)
	}
	slices.SortFunc(data.Products, func(a, b string) int {
		if c := cmp.Compare(occurrences[b], occurrences[a]); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})

	for _, group := range entities.AgeBrackets {
		if groupsSeen[group] {
			data.AgeGroups = append(data.AgeGroups, group)
		}
	}

	for _, product := range data.Products {
		for _, group := range data.AgeGroups {
			if bar, ok := bars[barKey{product: product, ageGroup: group}]; ok {
				data.Bars = append(data.Bars, *bar)
			}
		}
	}

	return data
}

func (o Options) filtered() bool {
	return o.Sex != "" || o.AgeGroup != ""
}

// filterRecords keeps the records matching the sex and age group filters
func filterRecords(records []entities.Record, opts Options) []entities.Record {
	kept := make([]entities.Record, 0, len(records))
	for _, record := range records {
		if opts.Sex != "" && !strings.EqualFold(record.Sex, opts.Sex) {
			continue
		}
		if opts.AgeGroup != "" && record.Bracket != opts.AgeGroup {
			continue
		}
		kept = append(kept, record)
	}
	return kept
}
