package config

import (
	"log"

	"github.com/spf13/viper"
)

// Config holds the full pipeline configuration loaded from defaults,
// an optional .env file, and environment variables.
//
// Example ENV equivalent:
//
//	INPUT_PATH=./data/autos.csv
//	OUTPUT_PATH=./data/autos_clean.csv
//	INPUT_ENCODING=latin1
type Config struct {
	Input  InputConfig  // where and how to read the raw dump
	Output OutputConfig // where to write the cleaned file (optional)
	Clean  CleanConfig  // cleaning bounds and fill policy
}

// InputConfig describes the raw listings file.
//
// Fields:
//   - Path: path to the delimited input file.
//   - Encoding: text encoding of the file ("latin1", "windows-1252", "utf8").
//     The Kleinanzeigen dump ships as Latin-1, hence the default.
//   - Delimiter: field separator; empty means auto-detect between ',' and ';'.
type InputConfig struct {
	Path      string
	Encoding  string
	Delimiter string
}

// OutputConfig describes the cleaned-file export. An empty Path disables it.
type OutputConfig struct {
	Path      string
	Delimiter string
}

// CleanConfig carries the cleaning bounds and the missing-value policy.
// Bounds are explicit configuration rather than constants buried in the
// Cleaner so a run can be re-parameterized without a rebuild.
//
// Fields:
//   - MinYear, MaxYear: plausible registration-year range. MaxYear 0 means
//     "the current year at run time".
//   - MinPriceEUR, MaxPriceEUR: plausible price range; listings at 0 or above
//     the ceiling are scrap-value noise or typos in the source data.
//   - FillSentinel: value written into missing categorical cells
//     (model, vehicle type, gearbox, fuel type).
type CleanConfig struct {
	MinYear      int
	MaxYear      int
	MinPriceEUR  int64
	MaxPriceEUR  int64
	FillSentinel string
}

// AppConfig is the globally accessible configuration instance.
//
// It is populated once via LoadConfig() and used throughout the application.
var AppConfig Config

// LoadConfig initializes the global AppConfig.
//
// Precedence (from lowest to highest):
//  1. Defaults set in this function.
//  2. Values from .env file (if present).
//  3. Environment variables.
//  4. CLI flags (applied by cmd after parsing).
//
// Fatal exit:
//   - If required values are missing or bounds are inconsistent,
//     validateConfig() terminates the app with a descriptive log message.
func LoadConfig() {
	// Default values
	viper.SetDefault("INPUT_PATH", "./data/autos.csv")
	viper.SetDefault("INPUT_ENCODING", "latin1")
	viper.SetDefault("INPUT_DELIMITER", "")

	viper.SetDefault("OUTPUT_PATH", "")
	viper.SetDefault("OUTPUT_DELIMITER", ",")

	viper.SetDefault("CLEAN_MIN_YEAR", 1900)
	viper.SetDefault("CLEAN_MAX_YEAR", 0) // 0 = current year at run time
	viper.SetDefault("CLEAN_MIN_PRICE_EUR", 1)
	viper.SetDefault("CLEAN_MAX_PRICE_EUR", 350000)
	viper.SetDefault("CLEAN_FILL_SENTINEL", "unknown")

	// Optionally read from .env if present (common in local dev)
	viper.SetConfigFile(".env")
	_ = viper.ReadInConfig() // ignore error if no .env

	// Read environment variables automatically
	viper.AutomaticEnv()

	// Populate global config instance
	AppConfig = Config{
		Input: InputConfig{
			Path:      viper.GetString("INPUT_PATH"),
			Encoding:  viper.GetString("INPUT_ENCODING"),
			Delimiter: viper.GetString("INPUT_DELIMITER"),
		},
		Output: OutputConfig{
			Path:      viper.GetString("OUTPUT_PATH"),
			Delimiter: viper.GetString("OUTPUT_DELIMITER"),
		},
		Clean: CleanConfig{
			MinYear:      viper.GetInt("CLEAN_MIN_YEAR"),
			MaxYear:      viper.GetInt("CLEAN_MAX_YEAR"),
			MinPriceEUR:  viper.GetInt64("CLEAN_MIN_PRICE_EUR"),
			MaxPriceEUR:  viper.GetInt64("CLEAN_MAX_PRICE_EUR"),
			FillSentinel: viper.GetString("CLEAN_FILL_SENTINEL"),
		},
	}

	// Validate critical fields
	validateConfig()
}

// validateConfig ensures required values are present and consistent, and
// terminates the application if they are not.
//
// Behavior:
//   - Collects every problem before exiting so a misconfigured run reports
//     all issues at once instead of one per restart.
func validateConfig() {
	var problems []string

	if AppConfig.Input.Path == "" {
		problems = append(problems, "INPUT_PATH must not be empty")
	}
	if AppConfig.Clean.MinYear < 1 {
		problems = append(problems, "CLEAN_MIN_YEAR must be positive")
	}
	if AppConfig.Clean.MaxYear != 0 && AppConfig.Clean.MaxYear < AppConfig.Clean.MinYear {
		problems = append(problems, "CLEAN_MAX_YEAR must be 0 or >= CLEAN_MIN_YEAR")
	}
	if AppConfig.Clean.MinPriceEUR < 1 {
		problems = append(problems, "CLEAN_MIN_PRICE_EUR must be at least 1")
	}
	if AppConfig.Clean.MaxPriceEUR < AppConfig.Clean.MinPriceEUR {
		problems = append(problems, "CLEAN_MAX_PRICE_EUR must be >= CLEAN_MIN_PRICE_EUR")
	}
	if AppConfig.Clean.FillSentinel == "" {
		problems = append(problems, "CLEAN_FILL_SENTINEL must not be empty")
	}

	if len(problems) > 0 {
		log.Fatalf("invalid configuration: %v\n", problems)
	}
}
