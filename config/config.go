package config

import (
	"os"
	"strings"

	"nazigi-sms/logger"

	"github.com/joho/godotenv"
)

// Config holds all deployment-time settings, loaded once at startup.
type Config struct {
	// Africa's Talking credentials
	ATUsername  string
	ATAPIKey    string
	ATBaseURL   string
	ATSenderID  string // optional; empty means provider default sender
	ATShortcode string

	// Inbound keyword that triggers the opt-in flow (case-insensitive,
	// exact or prefix match). Deployments have used STAMFORD and TEST2.
	OptInKeyword string

	// Country code prefix used when normalizing numbers with a leading 0.
	CountryCodePrefix string

	// Conductor dashboard credentials
	ConductorUsername string
	ConductorPassword string

	// Ordered bus stop list; immutable after load.
	BusStops []string

	// When true, stop selections are linked to the most recent broadcast.
	// The default keeps the historical behavior of a null message link.
	LinkResponsesToLatestBroadcast bool

	ServiceName string
}

var defaultBusStops = []string{
	"Ngara",
	"Allsops",
	"Homeland",
	"TRM",
	"Zimmerman",
	"Githurai 44",
	"Maziwa",
	"Kijito",
	"Kamiti",
	"Kahawa West Rounda",
}

// Load reads configuration from the environment. A missing .env file is
// not fatal; container deployments inject variables directly.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		logger.Warning("No .env file found, using environment variables")
	}

	cfg := &Config{
		ATUsername:        getEnv("AT_USERNAME", "sandbox"),
		ATAPIKey:          os.Getenv("AT_API_KEY"),
		ATBaseURL:         getEnv("AT_BASE_URL", "https://api.africastalking.com"),
		ATSenderID:        os.Getenv("AT_SENDER_ID"),
		ATShortcode:       getEnv("AT_SHORTCODE", "20384"),
		OptInKeyword:      getEnv("OPTIN_KEYWORD", "TEST2"),
		CountryCodePrefix: getEnv("COUNTRY_CODE_PREFIX", "+254"),
		ConductorUsername: getEnv("CONDUCTOR_USERNAME", "admin"),
		ConductorPassword: getEnv("CONDUCTOR_PASSWORD", "admin123"),
		ServiceName:       getEnv("SERVICE_NAME", "Nazigi Stamford Bus Service"),

		LinkResponsesToLatestBroadcast: getEnv("LINK_RESPONSES_TO_LATEST_BROADCAST", "false") == "true",
	}

	if stops := os.Getenv("BUS_STOPS"); stops != "" {
		for _, s := range strings.Split(stops, ",") {
			if s = strings.TrimSpace(s); s != "" {
				cfg.BusStops = append(cfg.BusStops, s)
			}
		}
	}
	if len(cfg.BusStops) == 0 {
		cfg.BusStops = append(cfg.BusStops, defaultBusStops...)
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
