// Package cleaning turns the raw listings table into typed, bounded rows.
//
// The cleaning pass never fails on a single bad row: rows that cannot be
// coerced or fall outside the configured bounds are excluded and counted in
// the CleanSummary. The only fatal conditions are a structurally unusable
// table (required column missing) and a dataset that is empty after
// filtering (ErrEmptyDataset).
package cleaning

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/narchambault/autopulse/internal/domain/models"
)

// ErrEmptyDataset signals that every row was filtered out.
var ErrEmptyDataset = errors.New("no listings remain after cleaning")

// Canonical column names after normalization.
const (
	ColDateCrawled       = "date_crawled"
	ColName              = "name"
	ColSeller            = "seller"
	ColOfferType         = "offer_type"
	ColPrice             = "price"
	ColABTest            = "abtest"
	ColVehicleType       = "vehicle_type"
	ColRegistrationYear  = "registration_year"
	ColGearbox           = "gearbox"
	ColPowerPS           = "power_ps"
	ColModel             = "model"
	ColOdometerKM        = "odometer_km"
	ColRegistrationMonth = "registration_month"
	ColFuelType          = "fuel_type"
	ColBrand             = "brand"
	ColUnrepairedDamage  = "unrepaired_damage"
	ColAdCreated         = "ad_created"
	ColNrOfPictures      = "nr_of_pictures"
	ColPostalCode        = "postal_code"
	ColLastSeen          = "last_seen"
)

// renames maps dataset-specific labels (already snake_cased) onto the
// canonical names. Keys never appear as values, which keeps NormalizeColumns
// idempotent.
var renames = map[string]string{
	"year_of_registration":  ColRegistrationYear,
	"month_of_registration": ColRegistrationMonth,
	"not_repaired_damage":   ColUnrepairedDamage,
	"date_created":          ColAdCreated,
	"odometer":              ColOdometerKM,
	"kilometer":             ColOdometerKM,
}

// nowFunc is an indirection for the current time; tests can override it to
// pin the registration-year upper bound.
var nowFunc = time.Now

// Config carries the cleaning bounds and fill policy. Zero values are not
// usable; build it from config.CleanConfig (the app does) or use the
// explicit values a test needs.
type Config struct {
	MinYear      int
	MaxYear      int // 0 means the current year at run time
	MinPriceEUR  int64
	MaxPriceEUR  int64
	FillSentinel string
}

func (c Config) maxYear() int {
	if c.MaxYear > 0 {
		return c.MaxYear
	}
	return nowFunc().Year()
}

// NormalizeColumns converts raw header labels to the canonical snake_case
// names: camelCase is split on case boundaries, spaces and dashes become
// underscores, and the dataset-specific renames are applied. Applying it to
// its own output is a no-op.
func NormalizeColumns(cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		n := snakeCase(strings.TrimSpace(c))
		if r, ok := renames[n]; ok {
			n = r
		}
		out[i] = n
	}
	return out
}

// Clean converts a raw table into cleaned listings.
//
// Behavior:
//   - Normalizes column names and resolves fields by name, so column order
//     and extra columns are irrelevant.
//   - Coerces price, odometer, registration year/month, power and dates.
//   - Drops rows per the per-field policy (see rowToListing) and counts
//     every drop by reason in the summary.
//
// Returns:
//   - []models.Listing: retained rows with sequential IDs starting at 1.
//   - models.CleanSummary: input/retained/drop accounting.
//   - error: missing required column, or ErrEmptyDataset when nothing
//     survives filtering. The summary is valid in the ErrEmptyDataset case.
func Clean(table *models.RawTable, cfg Config) ([]models.Listing, models.CleanSummary, error) {
	cols := NormalizeColumns(table.Columns)
	idx := make(map[string]int, len(cols))
	for i, c := range cols {
		idx[c] = i
	}
	for _, required := range []string{ColBrand, ColPrice, ColRegistrationYear} {
		if _, ok := idx[required]; !ok {
			return nil, models.CleanSummary{}, fmt.Errorf("missing required column %q", required)
		}
	}

	summary := models.CleanSummary{
		InputRows: len(table.Rows),
		Drops:     map[models.DropReason]int{},
	}

	out := make([]models.Listing, 0, len(table.Rows))
	width := len(cols)

	for _, rec := range table.Rows {
		if len(rec) != width {
			summary.Drops[models.DropMalformedRow]++
			continue
		}
		l, reason := rowToListing(rec, idx, cfg)
		if reason != "" {
			summary.Drops[reason]++
			continue
		}
		l.ID = len(out) + 1
		out = append(out, l)
	}

	summary.Retained = len(out)
	if len(out) == 0 {
		return nil, summary, ErrEmptyDataset
	}
	return out, summary, nil
}

// rowToListing coerces one record into a Listing, or names the reason it
// must be dropped.
//
// Per-field policy (documented here so it is not silently ambiguous):
//   - brand: required; empty → drop. Lowercased.
//   - price: required; unparseable → drop; outside bounds → drop.
//   - registration_year: required; unparseable → drop; outside bounds → drop.
//   - odometer_km: empty tolerated as 0; present but unparseable → drop.
//   - model, vehicle_type, gearbox, fuel_type: empty → fill sentinel.
//   - unrepaired_damage: mapped to yes/no/unknown; empty or foreign → unknown.
//   - registration_month, power_ps: empty or implausible → 0, never a drop.
//   - dates: unparseable → zero time, never a drop.
func rowToListing(rec []string, idx map[string]int, cfg Config) (models.Listing, models.DropReason) {
	get := func(col string) string {
		i, ok := idx[col]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var l models.Listing

	l.Brand = strings.ToLower(get(ColBrand))
	if l.Brand == "" {
		return l, models.DropMissingBrand
	}

	price, err := parsePrice(get(ColPrice))
	if err != nil {
		return l, models.DropInvalidPrice
	}
	if price < cfg.MinPriceEUR || price > cfg.MaxPriceEUR {
		return l, models.DropPriceBounds
	}
	l.PriceEUR = price

	year, err := strconv.Atoi(get(ColRegistrationYear))
	if err != nil {
		return l, models.DropInvalidYear
	}
	if year < cfg.MinYear || year > cfg.maxYear() {
		return l, models.DropYearBounds
	}
	l.RegistrationYear = year

	if s := get(ColOdometerKM); s != "" {
		km, err := parseOdometer(s)
		if err != nil {
			return l, models.DropInvalidOdometer
		}
		l.OdometerKM = km
	}

	l.Name = get(ColName)
	l.Model = fillCategorical(get(ColModel), cfg.FillSentinel)
	l.VehicleType = fillCategorical(get(ColVehicleType), cfg.FillSentinel)
	l.Gearbox = fillCategorical(get(ColGearbox), cfg.FillSentinel)
	l.FuelType = fillCategorical(get(ColFuelType), cfg.FillSentinel)
	l.PostalCode = get(ColPostalCode)
	l.UnrepairedDamage = parseDamage(get(ColUnrepairedDamage))

	if s := get(ColRegistrationMonth); s != "" {
		if m, err := strconv.Atoi(s); err == nil && m >= 1 && m <= 12 {
			l.RegistrationMonth = m
		}
	}
	if s := get(ColPowerPS); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			l.PowerPS = v
		}
	}

	l.DateCrawled = parseTimestamp(get(ColDateCrawled))
	l.AdCreated = parseTimestamp(get(ColAdCreated))
	l.LastSeen = parseTimestamp(get(ColLastSeen))

	return l, ""
}

var priceScrubber = strings.NewReplacer("$", "", "€", "", ",", "", " ", "")

// parsePrice coerces formatted price text ("$5,000", "1200") to a number.
// An empty cell is an error: a listing without a price cannot satisfy the
// positive-price invariant.
func parsePrice(s string) (int64, error) {
	if s == "" {
		return 0, fmt.Errorf("empty price")
	}
	v, err := strconv.ParseInt(priceScrubber.Replace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid price %q: %w", s, err)
	}
	return v, nil
}

// parseOdometer coerces odometer text ("150,000km", "125000") to km.
func parseOdometer(s string) (int64, error) {
	t := strings.ToLower(s)
	t = strings.TrimSuffix(t, "km")
	t = strings.NewReplacer(",", "", " ", "").Replace(t)
	v, err := strconv.ParseInt(t, 10, 64)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("invalid odometer %q", s)
	}
	return v, nil
}

// parseDamage maps the raw flag onto the damage enum. The source dump uses
// German ja/nein; the normalized values are accepted too so that re-cleaning
// an exported file round-trips.
func parseDamage(s string) models.Damage {
	switch strings.ToLower(s) {
	case "ja", string(models.DamageYes):
		return models.DamageYes
	case "nein", string(models.DamageNo):
		return models.DamageNo
	default:
		return models.DamageUnknown
	}
}

var timestampLayouts = []string{"2006-01-02 15:04:05", "2006-01-02"}

// parseTimestamp parses the dump's timestamp formats; anything else becomes
// the zero time. Dates are never a drop reason.
func parseTimestamp(s string) time.Time {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func fillCategorical(s, sentinel string) string {
	if s == "" {
		return sentinel
	}
	return strings.ToLower(s)
}

// snakeCase splits camelCase on case boundaries and lowercases the result.
// Uppercase runs stay together ("powerPS" → "power_ps").
func snakeCase(s string) string {
	rs := []rune(s)
	var b strings.Builder
	b.Grow(len(s) + 4)
	for i, r := range rs {
		switch {
		case unicode.IsUpper(r):
			if i > 0 {
				prev := rs[i-1]
				nextLower := i+1 < len(rs) && unicode.IsLower(rs[i+1])
				if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
					b.WriteByte('_')
				}
			}
			b.WriteRune(unicode.ToLower(r))
		case r == ' ' || r == '-':
			b.WriteByte('_')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
