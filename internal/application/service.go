package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/viralforge/mesh/services/integrations/M92-offerwall-service/internal/contracts"
	"github.com/viralforge/mesh/services/integrations/M92-offerwall-service/internal/domain"
	"github.com/viralforge/mesh/services/integrations/M92-offerwall-service/internal/ports"
)

// ProcessPostback applies one advertiser notification to the ledger.
// Missing offerId/status yields domain.ErrInvalidInput with the
// resolved fields still populated so the caller can echo them back; an
// unrecognized status mutates nothing and comes back as
// PostbackUnknown with a nil error.
func (s *Service) ProcessPostback(ctx context.Context, in PostbackInput) (PostbackResult, error) {
	fields := ResolvePostbackFields(in.Params)
	now := s.nowFn()
	res := PostbackResult{Fields: fields, Timestamp: now, Status: fields.Status, Payout: fields.Payout}
	if fields.OfferID == "" || fields.Status == "" {
		return res, domain.ErrInvalidInput
	}

	userID := fields.SubID1
	if userID == "" {
		userID = "unknown"
	}
	res.OfferID = fields.OfferID
	res.UserID = userID
	res.ConversionKey = domain.ConversionKey(userID, fields.OfferID)

	switch fields.Status {
	case "1", "approved":
		countryCode := fields.CountryCode
		if countryCode == "" {
			countryCode = fields.SubID2
		}
		rec := domain.ConversionRecord{
			OfferID:         fields.OfferID,
			OfferName:       fields.OfferName,
			UserID:          userID,
			Payout:          fields.Payout,
			Currency:        fields.Currency,
			CountryCode:     countryCode,
			LeadID:          fields.LeadID,
			ClickID:         fields.ClickID,
			TransactionID:   fields.TransactionID,
			DeviceType:      fields.DeviceType,
			Source:          fields.Source,
			ClientIP:        in.ClientIP,
			UserAgent:       in.UserAgent,
			Referer:         in.Referer,
			ReceivedAt:      now,
			Status:          "completed",
			SourceValidated: s.isTrustedSource(in.ClientIP),
		}
		rec.RawFields = fields.Raw
		if err := s.ledger.RecordApproval(ctx, rec); err != nil {
			return res, err
		}
		s.publishEvent(ctx, domain.EventConversionApproved, userID, contracts.ConversionApprovedPayload{
			UserID:        userID,
			OfferID:       rec.OfferID,
			Payout:        rec.Payout,
			Currency:      rec.Currency,
			CountryCode:   rec.CountryCode,
			SourceChecked: rec.SourceValidated,
			ApprovedAt:    now.Format(time.RFC3339),
		}, now)
		res.Outcome = PostbackApproved
		res.Status = "approved"
		return res, nil

	case "0", "rejected", "chargeback":
		if err := s.ledger.RecordReversal(ctx, userID, fields.OfferID, fields.Payout); err != nil {
			return res, err
		}
		s.publishEvent(ctx, domain.EventConversionReversed, userID, contracts.ConversionReversedPayload{
			UserID:     userID,
			OfferID:    fields.OfferID,
			Payout:     fields.Payout,
			ReversedAt: now.Format(time.RFC3339),
		}, now)
		res.Outcome = PostbackReversed
		res.Status = "chargeback"
		return res, nil

	default:
		res.Outcome = PostbackUnknown
		return res, nil
	}
}

// CheckLeads reconciles the advertiser's completion feed with the local
// ledger. With a userId present the caller never sees a remote failure:
// the result degrades to ledger-only data. Without one there is nothing
// to fall back on and the upstream error propagates.
func (s *Service) CheckLeads(ctx context.Context, in LeadCheckInput) (LeadCheckResult, error) {
	now := s.nowFn()
	apiLeads, err := s.leadFeed.CheckLeads(ctx, ports.LeadQuery{
		UserID:    in.UserID,
		Testing:   in.Testing,
		ClientIP:  in.ClientIP,
		UserAgent: in.UserAgent,
	})
	if err != nil {
		if in.UserID == "" {
			return LeadCheckResult{Leads: []domain.Lead{}}, err
		}
		return s.ledgerOnlyLeads(ctx, in.UserID, err, now), nil
	}

	combined := make([]domain.Lead, 0, len(apiLeads))
	combined = append(combined, apiLeads...)
	if in.UserID != "" {
		completions, _ := s.ledger.UserCompletions(ctx, in.UserID)
		records, _ := s.ledger.UserConversions(ctx, in.UserID)
		byOffer := make(map[string]domain.ConversionRecord, len(records))
		for _, rec := range records {
			byOffer[rec.OfferID] = rec
		}
		for _, offerID := range completions {
			if hasLead(combined, offerID) {
				continue
			}
			lead := domain.Lead{
				"offer_id":       offerID,
				"status":         "1",
				"source":         "local_tracking",
				"timestamp":      now.Format(time.RFC3339),
				"user_id":        in.UserID,
				"payout":         "0",
				"local_tracking": true,
			}
			if rec, ok := byOffer[offerID]; ok {
				lead["timestamp"] = rec.ReceivedAt.Format(time.RFC3339)
				if rec.Payout != "" {
					lead["payout"] = rec.Payout
				}
			}
			combined = append(combined, lead)
		}
	}

	for _, lead := range combined {
		lead["checked_at"] = now.Format(time.RFC3339)
		lead["user_id"] = nilIfEmpty(in.UserID)
		lead["client_ip"] = in.ClientIP
		lead["enhanced"] = true
	}
	return LeadCheckResult{
		Leads:      combined,
		APILeads:   len(apiLeads),
		LocalLeads: len(combined) - len(apiLeads),
		DataSource: "api",
	}, nil
}

func (s *Service) ledgerOnlyLeads(ctx context.Context, userID string, cause error, now time.Time) LeadCheckResult {
	source := "error_fallback"
	if errors.Is(cause, domain.ErrDependencyUnavailable) {
		source = "local_fallback"
	}
	completions, _ := s.ledger.UserCompletions(ctx, userID)
	leads := make([]domain.Lead, 0, len(completions))
	for _, offerID := range completions {
		lead := domain.Lead{
			"offer_id":  offerID,
			"status":    "1",
			"timestamp": now.Format(time.RFC3339),
			"user_id":   userID,
		}
		if source == "local_fallback" {
			lead["source"] = "local_tracking"
			lead["fallback"] = true
		} else {
			lead["source"] = "error_fallback"
			lead["error_fallback"] = true
		}
		leads = append(leads, lead)
	}
	return LeadCheckResult{Leads: leads, LocalLeads: len(leads), DataSource: source}
}

// ListOffers resolves the caller's country, pulls a localized offer
// list and walks the fallback countries when the localized list is
// empty. The reported country stays the detected one even when a
// fallback produced the offers.
func (s *Service) ListOffers(ctx context.Context, in OffersInput) (OffersResult, error) {
	now := s.nowFn()
	userID := in.UserID
	if strings.TrimSpace(userID) == "" {
		userID = "user_" + uuid.NewString()
	}
	geo := s.DetectCountry(ctx, GeoQuery{
		EdgeCountry:    in.EdgeCountry,
		CDNCountry:     in.CDNCountry,
		AcceptLanguage: in.AcceptLanguage,
		ClientIP:       in.ClientIP,
	})

	clientIP := in.ClientIP
	if isPrivateIP(clientIP) {
		clientIP = ""
	}
	offers, err := s.offerFeed.FetchOffers(ctx, ports.FeedQuery{
		UserID:    userID,
		Country:   geo.Country,
		ClientIP:  clientIP,
		UserAgent: in.UserAgent,
	})
	if err != nil {
		return OffersResult{Country: geo.Country, UserID: userID, DetectedAt: now}, err
	}
	if len(offers) == 0 {
		for _, country := range s.cfg.FallbackCountries {
			if country == geo.Country {
				continue
			}
			alt, altErr := s.offerFeed.FetchOffers(ctx, ports.FeedQuery{
				UserID:    userID,
				Country:   country,
				UserAgent: in.UserAgent,
			})
			if altErr != nil || len(alt) == 0 {
				continue
			}
			offers = alt
			break
		}
	}

	total := len(offers)
	if len(offers) > s.cfg.MaxOffers {
		offers = offers[:s.cfg.MaxOffers]
	}
	for i, offer := range offers {
		if offer.ID() == "" {
			offer["id"] = fmt.Sprintf("offer_%s_%d_%d", geo.Country, i, now.UnixMilli())
		}
	}
	return OffersResult{
		Offers:         offers,
		Country:        geo.Country,
		TotalAvailable: total,
		UserID:         userID,
		DetectedAt:     now,
	}, nil
}

// DetectCountry walks the resolution chain: trusted edge header, CDN
// header, IP geolocation, Accept-Language, configured default. It
// always produces a country; "fallback" as the source marks a guess.
func (s *Service) DetectCountry(ctx context.Context, q GeoQuery) domain.GeoResult {
	if c := validCountryCode(q.EdgeCountry); c != "" {
		return domain.GeoResult{Country: c, Source: "vercel", IP: q.ClientIP}
	}
	if c := validCountryCode(q.CDNCountry); c != "" {
		return domain.GeoResult{Country: c, Source: "cloudflare", IP: q.ClientIP}
	}
	if q.ClientIP != "" && !isPrivateIP(q.ClientIP) && s.geo != nil {
		if res, err := s.geo.CountryByIP(ctx, q.ClientIP); err == nil {
			res.IP = q.ClientIP
			return res
		}
	}
	if c := countryFromAcceptLanguage(q.AcceptLanguage); c != "" {
		return domain.GeoResult{Country: c, Source: "accept-language", IP: q.ClientIP}
	}
	return domain.GeoResult{Country: s.cfg.DefaultCountry, Source: "fallback", IP: q.ClientIP}
}

func (s *Service) LookupPlayer(ctx context.Context, username string) (domain.PlayerIdentity, error) {
	if strings.TrimSpace(username) == "" {
		return domain.PlayerIdentity{}, domain.ErrInvalidInput
	}
	return s.identity.LookupUser(ctx, username)
}

// ClaimReward verifies the required completion count against the
// ledger before minting a transaction id.
func (s *Service) ClaimReward(ctx context.Context, in ClaimInput) (ClaimResult, error) {
	if strings.TrimSpace(in.Username) == "" || strings.TrimSpace(in.UserID) == "" {
		return ClaimResult{}, domain.ErrInvalidInput
	}
	completions, err := s.ledger.UserCompletions(ctx, in.UserID)
	if err != nil {
		return ClaimResult{}, err
	}
	if len(completions) < s.cfg.RequiredCompletions {
		return ClaimResult{Completions: len(completions)}, domain.ErrRequirementsNotMet
	}
	now := s.nowFn()
	txnID := "txn_" + uuid.NewString()
	s.publishEvent(ctx, domain.EventRewardClaimed, in.UserID, contracts.RewardClaimedPayload{
		UserID:        in.UserID,
		Username:      in.Username,
		TransactionID: txnID,
		Completions:   len(completions),
		ClaimedAt:     now.Format(time.RFC3339),
	}, now)
	return ClaimResult{TransactionID: txnID, Completions: len(completions)}, nil
}

func (s *Service) Snapshot(ctx context.Context) (domain.LedgerSnapshot, error) {
	return s.ledger.Snapshot(ctx)
}

func (s *Service) isTrustedSource(ip string) bool {
	if ip == "" {
		return false
	}
	for _, source := range s.cfg.TrustedPostbackSources {
		if strings.Contains(ip, source) {
			return true
		}
	}
	return false
}

func (s *Service) publishEvent(ctx context.Context, eventType, partitionKey string, payload any, now time.Time) {
	if s.events == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	_ = s.events.Publish(ctx, contracts.EventEnvelope{
		EventID:          uuid.NewString(),
		EventType:        eventType,
		OccurredAt:       now,
		PartitionKeyPath: domain.EventPartitionKeyPath(eventType),
		PartitionKey:     partitionKey,
		SourceService:    s.cfg.ServiceName,
		TraceID:          uuid.NewString(),
		SchemaVersion:    "v1",
		Data:             data,
	})
}

func hasLead(leads []domain.Lead, offerID string) bool {
	for _, lead := range leads {
		if lead.OfferID() == offerID {
			return true
		}
	}
	return false
}

func nilIfEmpty(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func validCountryCode(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != 2 || code == "XX" {
		return ""
	}
	return code
}

func countryFromAcceptLanguage(header string) string {
	for _, lang := range strings.Split(header, ",") {
		parts := strings.Split(strings.TrimSpace(lang), "-")
		if len(parts) != 2 {
			continue
		}
		if c := validCountryCode(strings.SplitN(parts[1], ";", 2)[0]); c != "" {
			return c
		}
	}
	return ""
}

func isPrivateIP(ip string) bool {
	return ip == "" ||
		ip == "127.0.0.1" ||
		ip == "::1" ||
		ip == "localhost" ||
		strings.HasPrefix(ip, "192.168.") ||
		strings.HasPrefix(ip, "10.") ||
		strings.HasPrefix(ip, "172.16.")
}
