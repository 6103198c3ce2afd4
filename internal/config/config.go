// Package config loads application configuration from environment variables.
package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds the runtime configuration for the API server. Each field maps
// to an environment variable. Strings for identifiers and secrets, ints for
// durations and costs, floats for request budgets.
type Config struct {
	Env            string // application environment ("dev", "prod")
	Port           string // HTTP port to listen on
	DBUser         string // database username
	DBPass         string // database password (optional)
	DBHost         string // database host address
	DBPort         string // database port number
	DBName         string // database name
	JWTSecret      string // secret used to sign JWTs
	AccessTTLMin   int    // access token time-to-live in minutes
	RefreshTTLDays int    // refresh token time-to-live in days
	BcryptCost     int    // bcrypt cost for password hashing

	InviteRequired bool // whether registration requires an invite code

	// External metadata providers. Empty keys disable the provider.
	TMDBKey string
	OMDBKey string
	RAWGKey string

	// ProviderRPS is the per-provider request budget in requests per second.
	// The metadata clients pace outgoing calls so that no two requests go
	// out closer together than 1/ProviderRPS.
	ProviderRPS float64

	// MediaCacheTTLHours controls how long fetched provider payloads stay
	// valid in the media_cache table.
	MediaCacheTTLHours int
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present. Missing required variables are
// fatal.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Env:            must("APP_ENV"),
		Port:           must("APP_PORT"),
		DBUser:         must("DB_USER"),
		DBPass:         os.Getenv("DB_PASS"),
		DBHost:         must("DB_HOST"),
		DBPort:         must("DB_PORT"),
		DBName:         must("DB_NAME"),
		JWTSecret:      must("JWT_SECRET"),
		AccessTTLMin:   mustInt("ACCESS_TOKEN_TTL_MIN"),
		RefreshTTLDays: mustInt("REFRESH_TOKEN_TTL_DAYS"),
		BcryptCost:     mustInt("BCRYPT_COST"),

		InviteRequired: envBool("INVITE_REQUIRED", false),

		TMDBKey: os.Getenv("TMDB_API_KEY"),
		OMDBKey: os.Getenv("OMDB_API_KEY"),
		RAWGKey: os.Getenv("RAWG_API_KEY"),

		ProviderRPS:        envFloat("PROVIDER_RPS", 4),
		MediaCacheTTLHours: envInt("MEDIA_CACHE_TTL_HOURS", 24),
	}
}

// must retrieves a required environment variable or exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the value to an integer.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}

func envFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
		return f
	}
	return def
}
