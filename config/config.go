package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	State         string
	Postcodes     []int
	PostcodesXLSX string
	Mode          string
	PageLimit     int
	ExcludeTaken  bool

	PageLoadTimeoutS  int
	RecordMaxAttempts int

	GeocoderBaseURL  string
	GeocoderTimeoutS int
	GeocoderEmail    string

	MaxConcurrency int
	RateLimitMs    int
	MaxRetries     int

	CapRate            float64
	ValuationAddress   string
	ValuationArea      string
	ValuationPostcode  int
	ValuationType      string
	ValuationBedrooms  int
	ValuationBathrooms int
	ValuationParking   int

	CSVOutputPath string
	ChromeBin     string
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "scraper"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "scraper123"),
		PostgresDB:       getEnv("POSTGRES_DB", "property_db"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		State:         getEnv("STATE", "VIC"),
		Postcodes:     getEnvInts("POSTCODES", []int{3000}),
		PostcodesXLSX: getEnv("POSTCODES_XLSX", ""),
		Mode:          getEnv("MODE", "rental"),
		PageLimit:     getEnvInt("PAGE_LIMIT", 10),
		ExcludeTaken:  getEnvBool("EXCLUDE_TAKEN", true),

		PageLoadTimeoutS:  getEnvInt("PAGE_LOAD_TIMEOUT_S", 20),
		RecordMaxAttempts: getEnvInt("RECORD_MAX_ATTEMPTS", 3),

		GeocoderBaseURL:  getEnv("GEOCODER_BASE_URL", "https://nominatim.openstreetmap.org"),
		GeocoderTimeoutS: getEnvInt("GEOCODER_TIMEOUT_S", 10),
		GeocoderEmail:    getEnv("GEOCODER_EMAIL", ""),

		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 2),
		RateLimitMs:    getEnvInt("RATE_LIMIT_MS", 1100),
		MaxRetries:     getEnvInt("MAX_RETRIES", 3),

		CapRate:            getEnvFloat("CAP_RATE", 0.05),
		ValuationAddress:   getEnv("VALUATION_ADDRESS", ""),
		ValuationArea:      getEnv("VALUATION_AREA", ""),
		ValuationPostcode:  getEnvInt("VALUATION_POSTCODE", 3000),
		ValuationType:      getEnv("VALUATION_TYPE", "House"),
		ValuationBedrooms:  getEnvInt("VALUATION_BEDROOMS", 3),
		ValuationBathrooms: getEnvInt("VALUATION_BATHROOMS", 1),
		ValuationParking:   getEnvInt("VALUATION_PARKING", 1),

		CSVOutputPath: getEnv("CSV_OUTPUT_PATH", "./output/raw_records.csv"),
		ChromeBin:     getEnv("CHROME_BIN", ""),
	}
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		f, err := strconv.ParseFloat(val, 64)
		if err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}

// getEnvInts parses a comma-separated integer list (e.g. "3000,3001").
func getEnvInts(key string, fallback []int) []int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}

	var out []int
	for _, part := range strings.Split(val, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			log.Printf("[config] Ignoring invalid value %q in %s", part, key)
			continue
		}
		out = append(out, n)
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
