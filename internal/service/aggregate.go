package service

import (
	"fmt"
	"sort"
	"strings"

	"github.com/narchambault/autopulse/internal/cleaning"
	"github.com/narchambault/autopulse/internal/domain/models"
)

// GroupKey identifies one grouping dimension of the report.
type GroupKey string

const (
	KeyBrand  GroupKey = "brand"
	KeyModel  GroupKey = "model"
	KeyDamage GroupKey = "damage"
)

// ParseKeys parses a comma-separated key list ("brand,damage") into grouping
// keys, rejecting unknown and duplicate names.
func ParseKeys(s string) ([]GroupKey, error) {
	parts := strings.Split(s, ",")
	seen := make(map[GroupKey]bool, len(parts))
	keys := make([]GroupKey, 0, len(parts))
	for _, p := range parts {
		k := GroupKey(strings.ToLower(strings.TrimSpace(p)))
		switch k {
		case KeyBrand, KeyModel, KeyDamage:
		case "":
			continue
		default:
			return nil, fmt.Errorf("unknown grouping key %q", p)
		}
		if seen[k] {
			return nil, fmt.Errorf("duplicate grouping key %q", k)
		}
		seen[k] = true
		keys = append(keys, k)
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("at least one grouping key is required")
	}
	return keys, nil
}

// Aggregator computes grouped descriptive statistics over cleaned listings.
// This decouples the pipeline driver from the aggregation logic and gives
// tests a seam.
type Aggregator interface {
	Aggregate(listings []models.Listing, keys []GroupKey, minShare float64) (*models.Report, error)
}

type aggregator struct{}

func NewAggregator() Aggregator {
	return aggregator{}
}

// keyTuple is the comparable grouping key; fields for inactive keys stay "".
type keyTuple struct {
	brand, model, damage string
}

type accumulator struct {
	count       int
	sumPrice    int64
	minPrice    int64
	maxPrice    int64
	sumOdometer int64
}

// Aggregate groups the listings by the given key set and computes count,
// mean/min/max price and mean odometer per distinct key combination.
//
// Behavior:
//   - Deterministic: groups are sorted by (brand, model, damage), so row
//     order never changes the report.
//   - Groups whose share of the dataset is below minShare are omitted.
//   - Empty groups cannot occur (a group exists only because at least one
//     listing fell into it), so means never divide by zero.
//
// Returns:
//   - *models.Report, or cleaning.ErrEmptyDataset for an empty input,
//     mirroring the Cleaner's empty-dataset handling.
func (aggregator) Aggregate(listings []models.Listing, keys []GroupKey, minShare float64) (*models.Report, error) {
	if len(listings) == 0 {
		return nil, cleaning.ErrEmptyDataset
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("at least one grouping key is required")
	}

	active := make(map[GroupKey]bool, len(keys))
	keyNames := make([]string, 0, len(keys))
	for _, k := range keys {
		switch k {
		case KeyBrand, KeyModel, KeyDamage:
		default:
			return nil, fmt.Errorf("unknown grouping key %q", k)
		}
		if active[k] {
			return nil, fmt.Errorf("duplicate grouping key %q", k)
		}
		active[k] = true
		keyNames = append(keyNames, string(k))
	}

	groups := make(map[keyTuple]*accumulator)
	for _, l := range listings {
		var kt keyTuple
		if active[KeyBrand] {
			kt.brand = l.Brand
		}
		if active[KeyModel] {
			kt.model = l.Model
		}
		if active[KeyDamage] {
			kt.damage = string(l.UnrepairedDamage)
		}

		acc, ok := groups[kt]
		if !ok {
			acc = &accumulator{minPrice: l.PriceEUR, maxPrice: l.PriceEUR}
			groups[kt] = acc
		}
		acc.count++
		acc.sumPrice += l.PriceEUR
		acc.sumOdometer += l.OdometerKM
		if l.PriceEUR < acc.minPrice {
			acc.minPrice = l.PriceEUR
		}
		if l.PriceEUR > acc.maxPrice {
			acc.maxPrice = l.PriceEUR
		}
	}

	tuples := make([]keyTuple, 0, len(groups))
	for kt := range groups {
		tuples = append(tuples, kt)
	}
	sort.Slice(tuples, func(i, j int) bool {
		a, b := tuples[i], tuples[j]
		if a.brand != b.brand {
			return a.brand < b.brand
		}
		if a.model != b.model {
			return a.model < b.model
		}
		return a.damage < b.damage
	})

	total := len(listings)
	report := &models.Report{Keys: keyNames, TotalListings: total}
	for _, kt := range tuples {
		acc := groups[kt]
		if float64(acc.count)/float64(total) < minShare {
			continue
		}
		report.Groups = append(report.Groups, models.GroupStats{
			Brand:          kt.brand,
			Model:          kt.model,
			Damage:         kt.damage,
			Count:          acc.count,
			MeanPriceEUR:   float64(acc.sumPrice) / float64(acc.count),
			MinPriceEUR:    acc.minPrice,
			MaxPriceEUR:    acc.maxPrice,
			MeanOdometerKM: float64(acc.sumOdometer) / float64(acc.count),
		})
	}

	return report, nil
}
