package geo

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/viralforge/mesh/services/integrations/M92-offerwall-service/internal/domain"
)

const lookupUserAgent = "Mozilla/5.0 (compatible; GeoDetector/1.0)"

type Config struct {
	// PrimaryBaseURL serves GET <base>/<ip>/country/ as plain text.
	PrimaryBaseURL string
	// BackupBaseURL serves GET <base>/json/<ip>?fields=countryCode.
	BackupBaseURL string
	HTTPClient    *http.Client
}

// Resolver chains two free geolocation providers, each bounded by the
// shared client timeout. Both failing is an ErrDependencyUnavailable.
type Resolver struct {
	httpClient *http.Client
	primary    string
	backup     string
}

func NewResolver(cfg Config) *Resolver {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 3 * time.Second}
	}
	primary := cfg.PrimaryBaseURL
	if primary == "" {
		primary = "https://ipapi.co"
	}
	backup := cfg.BackupBaseURL
	if backup == "" {
		backup = "http://ip-api.com"
	}
	return &Resolver{httpClient: httpClient, primary: primary, backup: backup}
}

func (r *Resolver) CountryByIP(ctx context.Context, ip string) (domain.GeoResult, error) {
	if country := r.primaryLookup(ctx, ip); country != "" {
		return domain.GeoResult{Country: country, Source: "ipapi.co", IP: ip}, nil
	}
	if country := r.backupLookup(ctx, ip); country != "" {
		return domain.GeoResult{Country: country, Source: "ip-api.com", IP: ip}, nil
	}
	return domain.GeoResult{}, domain.ErrDependencyUnavailable
}

func (r *Resolver) primaryLookup(ctx context.Context, ip string) string {
	body, ok := r.get(ctx, r.primary+"/"+ip+"/country/")
	if !ok {
		return ""
	}
	return validCountry(strings.TrimSpace(body))
}

func (r *Resolver) backupLookup(ctx context.Context, ip string) string {
	body, ok := r.get(ctx, r.backup+"/json/"+ip+"?fields=countryCode")
	if !ok {
		return ""
	}
	var out struct {
		CountryCode string `json:"countryCode"`
	}
	if err := json.Unmarshal([]byte(body), &out); err != nil {
		return ""
	}
	return validCountry(out.CountryCode)
}

func (r *Resolver) get(ctx context.Context, rawURL string) (string, bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", false
	}
	req.Header.Set("User-Agent", lookupUserAgent)
	res, err := r.httpClient.Do(req)
	if err != nil {
		return "", false
	}
	defer res.Body.Close()
	raw, err := io.ReadAll(res.Body)
	if err != nil || res.StatusCode != http.StatusOK {
		return "", false
	}
	return string(raw), true
}

// validCountry accepts exactly two letters and rejects the providers'
// "unknown" sentinel.
func validCountry(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != 2 || code == "XX" {
		return ""
	}
	return code
}
