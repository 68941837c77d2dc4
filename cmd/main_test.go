package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/narchambault/autopulse/internal/app"
	"github.com/narchambault/autopulse/internal/domain/models"
)

func sampleResult() *app.Result {
	return &app.Result{
		RunID: "test-run",
		Summary: models.CleanSummary{
			InputRows: 5,
			Retained:  3,
			Drops: map[models.DropReason]int{
				models.DropPriceBounds: 1,
				models.DropYearBounds:  1,
			},
		},
		Report: &models.Report{
			Keys:          []string{"brand"},
			TotalListings: 3,
			Groups: []models.GroupStats{
				{Brand: "ford", Count: 2, MeanPriceEUR: 2000, MinPriceEUR: 1000, MaxPriceEUR: 3000, MeanOdometerKM: 120000},
				{Brand: "opel", Count: 1, MeanPriceEUR: 2000, MinPriceEUR: 2000, MaxPriceEUR: 2000, MeanOdometerKM: 200000},
			},
		},
	}
}

func TestPrintText(t *testing.T) {
	var buf bytes.Buffer
	printText(&buf, sampleResult())
	out := buf.String()

	for _, want := range []string{
		"5 read, 3 retained, 2 dropped",
		"dropped 1: price_out_of_bounds",
		"dropped 1: registration_year_out_of_bounds",
		"brand",
		"ford",
		"2000.00",
		"opel",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}

	// Drop reasons are printed in sorted order.
	if strings.Index(out, "price_out_of_bounds") > strings.Index(out, "registration_year_out_of_bounds") {
		t.Fatalf("drop reasons not sorted:\n%s", out)
	}
}

func TestPrintJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := printJSON(&buf, sampleResult()); err != nil {
		t.Fatalf("encode: %v", err)
	}

	var decoded struct {
		RunID  string `json:"run_id"`
		Report struct {
			TotalListings int `json:"total_listings"`
			Groups        []struct {
				Brand string  `json:"brand"`
				Count int     `json:"count"`
				Mean  float64 `json:"mean_price_eur"`
			} `json:"groups"`
		} `json:"report"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("round-trip: %v", err)
	}
	if decoded.RunID != "test-run" || decoded.Report.TotalListings != 3 {
		t.Fatalf("unexpected decode: %+v", decoded)
	}
	if len(decoded.Report.Groups) != 2 || decoded.Report.Groups[0].Brand != "ford" {
		t.Fatalf("unexpected groups: %+v", decoded.Report.Groups)
	}
}
