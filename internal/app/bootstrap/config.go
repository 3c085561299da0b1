package bootstrap

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	ServiceID           string
	HTTPPort            int
	GRPCPort            int
	FeedURL             string
	LeadsURL            string
	PublisherID         string
	APIKey              string
	GeoPrimaryURL       string
	GeoBackupURL        string
	IdentityUsersURL    string
	IdentityThumbsURL   string
	RequiredCompletions int
	MaxOffers           int
	DefaultCountry      string
	FallbackCountries   []string
	PostbackSources     []string
	FeedTimeout         time.Duration
	GeoTimeout          time.Duration
}

type configFile struct {
	Service struct {
		ID       string `yaml:"id"`
		HTTPPort int    `yaml:"http_port"`
		GRPCPort int    `yaml:"grpc_port"`
	} `yaml:"service"`
	Advertiser struct {
		FeedURL         string   `yaml:"feed_url"`
		LeadsURL        string   `yaml:"leads_url"`
		PublisherID     string   `yaml:"publisher_id"`
		APIKey          string   `yaml:"api_key"`
		PostbackSources []string `yaml:"postback_sources"`
		TimeoutSeconds  int      `yaml:"timeout_seconds"`
	} `yaml:"advertiser"`
	Geo struct {
		PrimaryURL     string `yaml:"primary_url"`
		BackupURL      string `yaml:"backup_url"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
	} `yaml:"geo"`
	Identity struct {
		UsersURL      string `yaml:"users_url"`
		ThumbnailsURL string `yaml:"thumbnails_url"`
	} `yaml:"identity"`
	Funnel struct {
		RequiredCompletions int      `yaml:"required_completions"`
		MaxOffers           int      `yaml:"max_offers"`
		DefaultCountry      string   `yaml:"default_country"`
		FallbackCountries   []string `yaml:"fallback_countries"`
	} `yaml:"funnel"`
}

func LoadConfig(path string) (Config, error) {
	cfg := Config{
		ServiceID:           "M92-Offerwall-Service",
		HTTPPort:            8080,
		GRPCPort:            9090,
		FeedURL:             "https://d3o07fqjkwc0s0.cloudfront.net/public/offers/feed.php",
		LeadsURL:            "https://d3o07fqjkwc0s0.cloudfront.net/public/external/check2.php",
		GeoPrimaryURL:       "https://ipapi.co",
		GeoBackupURL:        "http://ip-api.com",
		RequiredCompletions: 2,
		MaxOffers:           5,
		DefaultCountry:      "US",
		FallbackCountries:   []string{"US", "GB", "CA", "AU", "DE", "FR"},
		PostbackSources:     []string{"52.52.73.138", "adblue", "google", "amazonaws"},
		FeedTimeout:         8 * time.Second,
		GeoTimeout:          3 * time.Second,
	}
	if raw, err := os.ReadFile(path); err == nil {
		var f configFile
		if err := yaml.Unmarshal(raw, &f); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
		if f.Service.ID != "" {
			cfg.ServiceID = f.Service.ID
		}
		if f.Service.HTTPPort > 0 {
			cfg.HTTPPort = f.Service.HTTPPort
		}
		if f.Service.GRPCPort > 0 {
			cfg.GRPCPort = f.Service.GRPCPort
		}
		if f.Advertiser.FeedURL != "" {
			cfg.FeedURL = f.Advertiser.FeedURL
		}
		if f.Advertiser.LeadsURL != "" {
			cfg.LeadsURL = f.Advertiser.LeadsURL
		}
		if f.Advertiser.PublisherID != "" {
			cfg.PublisherID = f.Advertiser.PublisherID
		}
		if f.Advertiser.APIKey != "" {
			cfg.APIKey = f.Advertiser.APIKey
		}
		if len(f.Advertiser.PostbackSources) > 0 {
			cfg.PostbackSources = f.Advertiser.PostbackSources
		}
		if f.Advertiser.TimeoutSeconds > 0 {
			cfg.FeedTimeout = time.Duration(f.Advertiser.TimeoutSeconds) * time.Second
		}
		if f.Geo.PrimaryURL != "" {
			cfg.GeoPrimaryURL = f.Geo.PrimaryURL
		}
		if f.Geo.BackupURL != "" {
			cfg.GeoBackupURL = f.Geo.BackupURL
		}
		if f.Geo.TimeoutSeconds > 0 {
			cfg.GeoTimeout = time.Duration(f.Geo.TimeoutSeconds) * time.Second
		}
		if f.Identity.UsersURL != "" {
			cfg.IdentityUsersURL = f.Identity.UsersURL
		}
		if f.Identity.ThumbnailsURL != "" {
			cfg.IdentityThumbsURL = f.Identity.ThumbnailsURL
		}
		if f.Funnel.RequiredCompletions > 0 {
			cfg.RequiredCompletions = f.Funnel.RequiredCompletions
		}
		if f.Funnel.MaxOffers > 0 {
			cfg.MaxOffers = f.Funnel.MaxOffers
		}
		if f.Funnel.DefaultCountry != "" {
			cfg.DefaultCountry = f.Funnel.DefaultCountry
		}
		if len(f.Funnel.FallbackCountries) > 0 {
			cfg.FallbackCountries = f.Funnel.FallbackCountries
		}
	}
	cfg.HTTPPort = envInt("HTTP_PORT", cfg.HTTPPort)
	cfg.GRPCPort = envInt("GRPC_PORT", cfg.GRPCPort)
	cfg.FeedURL = envString("ADVERTISER_FEED_URL", cfg.FeedURL)
	cfg.LeadsURL = envString("ADVERTISER_LEADS_URL", cfg.LeadsURL)
	cfg.PublisherID = envString("ADVERTISER_PUBLISHER_ID", cfg.PublisherID)
	cfg.APIKey = envString("ADVERTISER_API_KEY", cfg.APIKey)
	cfg.DefaultCountry = envString("DEFAULT_COUNTRY", cfg.DefaultCountry)
	cfg.RequiredCompletions = envInt("REQUIRED_COMPLETIONS", cfg.RequiredCompletions)
	cfg.MaxOffers = envInt("MAX_OFFERS", cfg.MaxOffers)
	if raw := os.Getenv("FALLBACK_COUNTRIES"); raw != "" {
		cfg.FallbackCountries = splitList(raw)
	}
	if raw := os.Getenv("POSTBACK_SOURCES"); raw != "" {
		cfg.PostbackSources = splitList(raw)
	}
	return cfg, nil
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func envInt(name string, fallback int) int {
	if raw := os.Getenv(name); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			return v
		}
	}
	return fallback
}

func envString(name, fallback string) string {
	if raw := os.Getenv(name); raw != "" {
		return raw
	}
	return fallback
}
