package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/narchambault/autopulse/config"
	"github.com/narchambault/autopulse/internal/domain/models"
	"github.com/narchambault/autopulse/internal/service"
	"github.com/narchambault/autopulse/internal/storage"
)

func testAppConfig(input, output string) config.Config {
	return config.Config{
		Input:  config.InputConfig{Path: input, Encoding: "utf8", Delimiter: ","},
		Output: config.OutputConfig{Path: output, Delimiter: ","},
		Clean: config.CleanConfig{
			MinYear: 1900, MaxYear: 2016,
			MinPriceEUR: 1, MaxPriceEUR: 350000,
			FillSentinel: "unknown",
		},
	}
}

func writeInput(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "autos.csv")
	if err := os.WriteFile(p, []byte(content), 0644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	return p
}

const sampleCSV = "brand,model,price,yearOfRegistration,odometer,notRepairedDamage\n" +
	"ford,focus,1000,2005,150000,nein\n" +
	"ford,fiesta,3000,2010,90000,ja\n" +
	"opel,corsa,2000,1999,200000,nein\n" +
	"opel,astra,$0,2001,120000,nein\n"

func TestRun_EndToEnd(t *testing.T) {
	input := writeInput(t, sampleCSV)
	output := filepath.Join(t.TempDir(), "clean.csv")

	res, err := Run(context.Background(), testAppConfig(input, output), Options{
		Keys: []service.GroupKey{service.KeyBrand},
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if res.RunID == "" {
		t.Fatalf("missing run id")
	}
	if res.Summary.Retained != 3 || res.Summary.Dropped() != 1 {
		t.Fatalf("unexpected summary: %+v", res.Summary)
	}
	if len(res.Report.Groups) != 2 {
		t.Fatalf("unexpected report: %+v", res.Report)
	}
	ford := res.Report.Groups[0]
	if ford.Brand != "ford" || ford.Count != 2 || ford.MeanPriceEUR != 2000 {
		t.Fatalf("ford group wrong: %+v", ford)
	}

	if _, err := os.Stat(output); err != nil {
		t.Fatalf("cleaned file not written: %v", err)
	}
}

func TestRun_NoExportWhenOutputEmpty(t *testing.T) {
	input := writeInput(t, sampleCSV)
	called := false
	orig := writerCtor
	writerCtor = func(path string, delimiter rune) storage.ListingWriter {
		called = true
		return orig(path, delimiter)
	}
	defer func() { writerCtor = orig }()

	_, err := Run(context.Background(), testAppConfig(input, ""), Options{
		Keys: []service.GroupKey{service.KeyBrand},
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if called {
		t.Fatalf("writer constructed despite empty output path")
	}
}

func TestRun_LoadFailure(t *testing.T) {
	cfg := testAppConfig(filepath.Join(t.TempDir(), "missing.csv"), "")
	_, err := Run(context.Background(), cfg, Options{Keys: []service.GroupKey{service.KeyBrand}})
	if err == nil {
		t.Fatalf("expected load error")
	}
}

func TestRun_EmptyAfterCleaning(t *testing.T) {
	input := writeInput(t, "brand,model,price,yearOfRegistration,odometer,notRepairedDamage\n"+
		",focus,1000,2005,150000,nein\n")
	_, err := Run(context.Background(), testAppConfig(input, ""), Options{
		Keys: []service.GroupKey{service.KeyBrand},
	})
	if err == nil {
		t.Fatalf("expected empty-dataset error")
	}
}

type failingWriter struct{}

func (failingWriter) WriteAll([]models.Listing) error { return errors.New("disk full") }

func TestRun_ExportFailure(t *testing.T) {
	input := writeInput(t, sampleCSV)
	orig := writerCtor
	writerCtor = func(string, rune) storage.ListingWriter { return failingWriter{} }
	defer func() { writerCtor = orig }()

	_, err := Run(context.Background(), testAppConfig(input, "/tmp/whatever.csv"), Options{
		Keys: []service.GroupKey{service.KeyBrand},
	})
	if err == nil {
		t.Fatalf("expected export error")
	}
}
