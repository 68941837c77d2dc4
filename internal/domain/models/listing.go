package models

import "time"

// Damage is the normalized unrepaired-damage flag of a listing.
// The raw dump uses German "ja"/"nein"; the Cleaner maps those (and the
// already-normalized values, so re-cleaning is a no-op) onto this enum.
type Damage string

const (
	DamageYes     Damage = "yes"
	DamageNo      Damage = "no"
	DamageUnknown Damage = "unknown"
)

// Listing represents one cleaned row of the classifieds dump: a single
// auto-sale advertisement with coerced, typed fields.
//
// Numeric fields that the source leaves blank are zero; categorical fields
// that the source leaves blank carry the configured fill sentinel. Brand is
// never empty on a cleaned Listing — rows without a brand are dropped.
type Listing struct {
	ID                int       // sequential identifier assigned after cleaning, starting at 1
	Name              string    // free-text ad title
	Brand             string    // e.g. "volkswagen"
	Model             string    // e.g. "golf"
	VehicleType       string    // e.g. "limousine", "kombi"
	RegistrationYear  int       // first registration, bounded [MinYear, MaxYear]
	RegistrationMonth int       // 1-12, 0 when absent
	Gearbox           string    // "manuell" / "automatik"
	PowerPS           int       // engine power in PS, 0 when absent
	FuelType          string    // e.g. "benzin", "diesel"
	PriceEUR          int64     // asking price, strictly positive after cleaning
	OdometerKM        int64     // odometer reading in km
	UnrepairedDamage  Damage    // normalized damage flag
	PostalCode        string    // kept as string to preserve leading zeros
	DateCrawled       time.Time // when the crawler first saw the ad
	AdCreated         time.Time // when the ad was posted
	LastSeen          time.Time // when the crawler last saw the ad
}

// RawTable is the Loader's output: the header row (normalized later by the
// Cleaner) and every data row as raw strings, exactly as read from the file.
type RawTable struct {
	Columns []string
	Rows    [][]string
}

// DropReason labels why the Cleaner excluded a row.
type DropReason string

const (
	DropMalformedRow    DropReason = "malformed_row" // wrong column count
	DropMissingBrand    DropReason = "missing_brand"
	DropInvalidPrice    DropReason = "invalid_price" // missing or unparseable
	DropPriceBounds     DropReason = "price_out_of_bounds"
	DropInvalidYear     DropReason = "invalid_registration_year"
	DropYearBounds      DropReason = "registration_year_out_of_bounds"
	DropInvalidOdometer DropReason = "invalid_odometer"
)

// CleanSummary reports what the Cleaner did to a dataset. Per-row coercion
// failures are absorbed here as drop counts rather than surfaced as errors.
//
// Invariant: InputRows == Retained + sum over Drops.
type CleanSummary struct {
	InputRows int                `json:"input_rows"`
	Retained  int                `json:"retained"`
	Drops     map[DropReason]int `json:"drops,omitempty"`
}

// Dropped returns the total number of excluded rows.
func (s CleanSummary) Dropped() int {
	n := 0
	for _, c := range s.Drops {
		n += c
	}
	return n
}
