package ports

import (
	"context"

	"github.com/viralforge/mesh/services/integrations/M92-offerwall-service/internal/domain"
)

type FeedQuery struct {
	UserID    string
	Country   string
	ClientIP  string
	UserAgent string
}

// OfferFeed pulls the advertiser's localized offer list. An empty slice
// with a nil error means the feed answered but had nothing for the
// country.
type OfferFeed interface {
	FetchOffers(ctx context.Context, q FeedQuery) ([]domain.Offer, error)
}

type LeadQuery struct {
	UserID    string
	Testing   bool
	ClientIP  string
	UserAgent string
}

// LeadFeed pulls the advertiser's authoritative completion list.
// Implementations wrap non-2xx upstream replies in
// domain.ErrDependencyUnavailable; transport errors pass through.
type LeadFeed interface {
	CheckLeads(ctx context.Context, q LeadQuery) ([]domain.Lead, error)
}

// GeoResolver maps a public IP to a 2-letter country code.
type GeoResolver interface {
	CountryByIP(ctx context.Context, ip string) (domain.GeoResult, error)
}

// IdentityClient resolves a game username to its canonical identity.
type IdentityClient interface {
	LookupUser(ctx context.Context, username string) (domain.PlayerIdentity, error)
}
