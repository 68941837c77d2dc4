package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/narchambault/autopulse/internal/cleaning"
	"github.com/narchambault/autopulse/internal/domain/models"
)

// ListingWriter defines the contract for persisting a cleaned dataset.
type ListingWriter interface {
	WriteAll(listings []models.Listing) error
}

// CleanedColumns is the header of an exported file: normalized names only,
// in the order the columns are written. Reloading an exported file through
// the Loader and Cleaner yields the same dataset.
var CleanedColumns = []string{
	cleaning.ColDateCrawled,
	cleaning.ColName,
	cleaning.ColBrand,
	cleaning.ColModel,
	cleaning.ColVehicleType,
	cleaning.ColRegistrationYear,
	cleaning.ColRegistrationMonth,
	cleaning.ColGearbox,
	cleaning.ColPowerPS,
	cleaning.ColFuelType,
	cleaning.ColPrice,
	cleaning.ColOdometerKM,
	cleaning.ColUnrepairedDamage,
	cleaning.ColPostalCode,
	cleaning.ColAdCreated,
	cleaning.ColLastSeen,
}

type csvWriter struct {
	path      string
	delimiter rune
}

// NewCSVWriter returns a ListingWriter that writes the cleaned table as a
// delimited file at path, header row first.
func NewCSVWriter(path string, delimiter rune) ListingWriter {
	if delimiter == 0 {
		delimiter = ','
	}
	return &csvWriter{path: path, delimiter: delimiter}
}

// WriteAll writes the header and every listing, then flushes. The file is
// created (or truncated) at the configured path; the close error is
// surfaced because a short write on close would corrupt the export.
func (w *csvWriter) WriteAll(listings []models.Listing) error {
	f, err := os.Create(w.path)
	if err != nil {
		return fmt.Errorf("create %s: %w", w.path, err)
	}

	cw := csv.NewWriter(f)
	cw.Comma = w.delimiter

	writeErr := cw.Write(CleanedColumns)
	if writeErr == nil {
		for i := range listings {
			if writeErr = cw.Write(listingRecord(listings[i])); writeErr != nil {
				break
			}
		}
	}
	cw.Flush()
	if writeErr == nil {
		writeErr = cw.Error()
	}

	if err := f.Close(); err != nil && writeErr == nil {
		writeErr = fmt.Errorf("close %s: %w", w.path, err)
	}
	if writeErr != nil {
		return fmt.Errorf("write %s: %w", w.path, writeErr)
	}
	return nil
}

// listingRecord serializes one listing in CleanedColumns order. Zero months,
// power readings and dates are written as empty cells so that missing stays
// missing across a round trip.
func listingRecord(l models.Listing) []string {
	return []string{
		formatTimestamp(l.DateCrawled),
		l.Name,
		l.Brand,
		l.Model,
		l.VehicleType,
		strconv.Itoa(l.RegistrationYear),
		formatOptionalInt(l.RegistrationMonth),
		l.Gearbox,
		formatOptionalInt(l.PowerPS),
		l.FuelType,
		strconv.FormatInt(l.PriceEUR, 10),
		strconv.FormatInt(l.OdometerKM, 10),
		string(l.UnrepairedDamage),
		l.PostalCode,
		formatTimestamp(l.AdCreated),
		formatTimestamp(l.LastSeen),
	}
}

func formatOptionalInt(v int) string {
	if v == 0 {
		return ""
	}
	return strconv.Itoa(v)
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02 15:04:05")
}
