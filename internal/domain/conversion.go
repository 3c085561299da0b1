package domain

import (
	"strconv"
	"time"
)

// ConversionRecord is the ledger's view of one approved (user, offer)
// pair. A later postback for the same pair overwrites it; a chargeback
// deletes it. RawFields keeps every parameter the network sent, for
// audit.
type ConversionRecord struct {
	OfferID         string            `json:"offer_id"`
	OfferName       string            `json:"offer_name,omitempty"`
	UserID          string            `json:"user_id"`
	Payout          string            `json:"payout,omitempty"`
	Currency        string            `json:"currency"`
	CountryCode     string            `json:"country_code,omitempty"`
	LeadID          string            `json:"lead_id,omitempty"`
	ClickID         string            `json:"click_id,omitempty"`
	TransactionID   string            `json:"transaction_id,omitempty"`
	DeviceType      string            `json:"device_type,omitempty"`
	Source          string            `json:"source"`
	ClientIP        string            `json:"client_ip"`
	UserAgent       string            `json:"user_agent"`
	Referer         string            `json:"referer"`
	ReceivedAt      time.Time         `json:"received_at"`
	Status          string            `json:"status"`
	SourceValidated bool              `json:"source_validated"`
	RawFields       map[string]string `json:"raw_fields,omitempty"`
}

// ConversionKey is the ledger key for a (user, offer) pair.
func ConversionKey(userID, offerID string) string {
	return userID + "_" + offerID
}

// OfferMetrics aggregates approvals per offer. Counters are clamped at
// zero on reversal; with out-of-order or duplicate postbacks they can
// drift from the record count, which the ledger accepts.
type OfferMetrics struct {
	OfferID          string    `json:"offer_id"`
	TotalConversions int       `json:"total_conversions"`
	TotalPayout      float64   `json:"total_payout"`
	Countries        []string  `json:"countries"`
	LastConversionAt time.Time `json:"last_conversion_at"`
}

// LedgerSnapshot is a full diagnostic dump of the conversion state.
type LedgerSnapshot struct {
	TotalUsers       int                     `json:"total_users"`
	TotalConversions int                     `json:"total_conversions"`
	TotalOffers      int                     `json:"total_offers"`
	UserCompletions  map[string][]string     `json:"user_completions"`
	OfferMetrics     map[string]OfferMetrics `json:"offer_metrics"`
}

// Lead is one completion record from the advertiser's check-leads
// feed. The feed's fields are loose and vary by network, so leads stay
// open maps; locally synthesized entries use the same keys the feed
// does.
type Lead map[string]any

// OfferID returns the lead's offer identifier, checking the two field
// names the feed is known to use.
func (l Lead) OfferID() string {
	if v := looseString(l["offer_id"]); v != "" {
		return v
	}
	return looseString(l["oid"])
}

// Offer is one advertiser offer from the JSONP feed, kept as an open
// map so upstream fields pass through untouched.
type Offer map[string]any

// ID returns the offer's identifier if the upstream set one.
func (o Offer) ID() string {
	return looseString(o["id"])
}

// PlayerIdentity is the result of the third-party identity lookup.
type PlayerIdentity struct {
	UserID      int64  `json:"userId"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
	AvatarURL   string `json:"avatarUrl"`
}

// GeoResult names a resolved country and which detection method won.
type GeoResult struct {
	Country string `json:"country"`
	Source  string `json:"source"`
	IP      string `json:"ip"`
}

// looseString renders the JSON scalar types the feeds emit as a string.
func looseString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		return ""
	}
}
