package application

import (
	"net/url"
	"time"

	"github.com/viralforge/mesh/services/integrations/M92-offerwall-service/internal/domain"
	"github.com/viralforge/mesh/services/integrations/M92-offerwall-service/internal/ports"
)

type Config struct {
	ServiceName            string
	RequiredCompletions    int
	MaxOffers              int
	DefaultCountry         string
	FallbackCountries      []string
	TrustedPostbackSources []string
}

type PostbackInput struct {
	Params    url.Values
	ClientIP  string
	UserAgent string
	Referer   string
}

type PostbackOutcome string

const (
	PostbackApproved PostbackOutcome = "approved"
	PostbackReversed PostbackOutcome = "chargeback"
	PostbackUnknown  PostbackOutcome = "unknown"
)

type PostbackResult struct {
	Outcome       PostbackOutcome
	OfferID       string
	UserID        string
	Status        string
	Payout        string
	ConversionKey string
	Timestamp     time.Time
	Fields        PostbackFields
}

type LeadCheckInput struct {
	UserID    string
	Testing   bool
	ClientIP  string
	UserAgent string
}

type LeadCheckResult struct {
	Leads      []domain.Lead
	APILeads   int
	LocalLeads int
	// DataSource is "api" on a live feed read, "local_fallback" when the
	// feed answered non-OK, "error_fallback" on a transport failure.
	DataSource string
}

type OffersInput struct {
	UserID         string
	ClientIP       string
	UserAgent      string
	EdgeCountry    string
	CDNCountry     string
	AcceptLanguage string
}

type OffersResult struct {
	Offers         []domain.Offer
	Country        string
	TotalAvailable int
	UserID         string
	DetectedAt     time.Time
}

type GeoQuery struct {
	EdgeCountry    string
	CDNCountry     string
	AcceptLanguage string
	ClientIP       string
}

type ClaimInput struct {
	Username string
	UserID   string
	Rewards  []string
}

type ClaimResult struct {
	TransactionID string
	Completions   int
}

type Service struct {
	cfg Config

	ledger    ports.ConversionLedger
	offerFeed ports.OfferFeed
	leadFeed  ports.LeadFeed
	geo       ports.GeoResolver
	identity  ports.IdentityClient
	events    ports.EventPublisher

	nowFn func() time.Time
}

type Dependencies struct {
	Config Config

	Ledger    ports.ConversionLedger
	OfferFeed ports.OfferFeed
	LeadFeed  ports.LeadFeed
	Geo       ports.GeoResolver
	Identity  ports.IdentityClient
	Events    ports.EventPublisher
}

func NewService(deps Dependencies) *Service {
	cfg := deps.Config
	if cfg.ServiceName == "" {
		cfg.ServiceName = "M92-Offerwall-Service"
	}
	if cfg.RequiredCompletions <= 0 {
		cfg.RequiredCompletions = 2
	}
	if cfg.MaxOffers <= 0 {
		cfg.MaxOffers = 5
	}
	if cfg.DefaultCountry == "" {
		cfg.DefaultCountry = "US"
	}
	if len(cfg.FallbackCountries) == 0 {
		cfg.FallbackCountries = []string{"US", "GB", "CA", "AU", "DE", "FR"}
	}
	if len(cfg.TrustedPostbackSources) == 0 {
		cfg.TrustedPostbackSources = []string{"52.52.73.138", "adblue", "google", "amazonaws"}
	}
	return &Service{
		cfg:       cfg,
		ledger:    deps.Ledger,
		offerFeed: deps.OfferFeed,
		leadFeed:  deps.LeadFeed,
		geo:       deps.Geo,
		identity:  deps.Identity,
		events:    deps.Events,
		nowFn:     func() time.Time { return time.Now().UTC() },
	}
}
