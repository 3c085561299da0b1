package unit

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"testing"

	eventadapter "github.com/viralforge/mesh/services/integrations/M92-offerwall-service/internal/adapters/events"
	"github.com/viralforge/mesh/services/integrations/M92-offerwall-service/internal/adapters/memory"
	"github.com/viralforge/mesh/services/integrations/M92-offerwall-service/internal/application"
	"github.com/viralforge/mesh/services/integrations/M92-offerwall-service/internal/domain"
	"github.com/viralforge/mesh/services/integrations/M92-offerwall-service/internal/ports"
)

type stubOfferFeed struct {
	byCountry map[string][]domain.Offer
	err       error
	calls     []string
}

func (s *stubOfferFeed) FetchOffers(_ context.Context, q ports.FeedQuery) ([]domain.Offer, error) {
	s.calls = append(s.calls, q.Country)
	if s.err != nil {
		return nil, s.err
	}
	return s.byCountry[q.Country], nil
}

type stubLeadFeed struct {
	leads []domain.Lead
	err   error
}

func (s *stubLeadFeed) CheckLeads(context.Context, ports.LeadQuery) ([]domain.Lead, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.leads, nil
}

type stubGeo struct {
	result domain.GeoResult
	err    error
}

func (s *stubGeo) CountryByIP(context.Context, string) (domain.GeoResult, error) {
	return s.result, s.err
}

type stubIdentity struct {
	identity domain.PlayerIdentity
	err      error
}

func (s *stubIdentity) LookupUser(context.Context, string) (domain.PlayerIdentity, error) {
	return s.identity, s.err
}

type fixture struct {
	svc       *application.Service
	ledger    *memory.Ledger
	offerFeed *stubOfferFeed
	leadFeed  *stubLeadFeed
	events    *eventadapter.MemoryPublisher
}

func newFixture() *fixture {
	ledger := memory.NewLedger()
	offerFeed := &stubOfferFeed{byCountry: map[string][]domain.Offer{}}
	leadFeed := &stubLeadFeed{}
	events := eventadapter.NewMemoryPublisher()
	svc := application.NewService(application.Dependencies{
		Ledger:    ledger,
		OfferFeed: offerFeed,
		LeadFeed:  leadFeed,
		Geo:       &stubGeo{err: domain.ErrDependencyUnavailable},
		Identity:  &stubIdentity{},
		Events:    events,
	})
	return &fixture{svc: svc, ledger: ledger, offerFeed: offerFeed, leadFeed: leadFeed, events: events}
}

func postbackParams(pairs ...string) url.Values {
	params := url.Values{}
	for i := 0; i+1 < len(pairs); i += 2 {
		params.Set(pairs[i], pairs[i+1])
	}
	return params
}

func TestPostbackApprovalRecordsConversion(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	res, err := f.svc.ProcessPostback(ctx, application.PostbackInput{
		Params:   postbackParams("offer_id", "42", "status", "1", "s1", "alice", "payout", "1.50", "country", "US"),
		ClientIP: "52.52.73.138",
	})
	if err != nil {
		t.Fatalf("process postback: %v", err)
	}
	if res.Outcome != application.PostbackApproved {
		t.Fatalf("expected approved outcome, got %q", res.Outcome)
	}
	if res.ConversionKey != "alice_42" {
		t.Fatalf("expected conversion key alice_42, got %q", res.ConversionKey)
	}
	completions, _ := f.ledger.UserCompletions(ctx, "alice")
	if len(completions) != 1 || completions[0] != "42" {
		t.Fatalf("expected completion [42], got %v", completions)
	}
	records, _ := f.ledger.UserConversions(ctx, "alice")
	if len(records) != 1 || !records[0].SourceValidated {
		t.Fatalf("expected one source-validated record, got %+v", records)
	}
	published := f.events.Published()
	if len(published) != 1 || published[0].EventType != domain.EventConversionApproved {
		t.Fatalf("expected one approved event, got %v", published)
	}
	if published[0].PartitionKey != "alice" || published[0].PartitionKeyPath != "data.user_id" {
		t.Fatalf("partition key invariant not set: %+v", published[0])
	}
}

func TestPostbackMissingFieldsRejected(t *testing.T) {
	f := newFixture()
	_, err := f.svc.ProcessPostback(context.Background(), application.PostbackInput{
		Params: postbackParams("s1", "alice"),
	})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	snap, _ := f.ledger.Snapshot(context.Background())
	if snap.TotalConversions != 0 {
		t.Fatalf("rejected postback must not mutate the ledger: %+v", snap)
	}
}

func TestPostbackUnknownStatusMutatesNothing(t *testing.T) {
	f := newFixture()
	res, err := f.svc.ProcessPostback(context.Background(), application.PostbackInput{
		Params: postbackParams("offer_id", "42", "status", "pending", "s1", "alice"),
	})
	if err != nil {
		t.Fatalf("process postback: %v", err)
	}
	if res.Outcome != application.PostbackUnknown {
		t.Fatalf("expected unknown outcome, got %q", res.Outcome)
	}
	snap, _ := f.ledger.Snapshot(context.Background())
	if snap.TotalConversions != 0 {
		t.Fatalf("unknown status must not mutate the ledger: %+v", snap)
	}
	if len(f.events.Published()) != 0 {
		t.Fatalf("unknown status must not publish events")
	}
}

func TestPostbackChargebackReversesApproval(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	approve := postbackParams("offer_id", "42", "status", "1", "s1", "alice", "payout", "1.50")
	if _, err := f.svc.ProcessPostback(ctx, application.PostbackInput{Params: approve}); err != nil {
		t.Fatalf("approve: %v", err)
	}
	reverse := postbackParams("offer_id", "42", "status", "chargeback", "s1", "alice", "payout", "1.50")
	res, err := f.svc.ProcessPostback(ctx, application.PostbackInput{Params: reverse})
	if err != nil {
		t.Fatalf("reverse: %v", err)
	}
	if res.Outcome != application.PostbackReversed {
		t.Fatalf("expected reversed outcome, got %q", res.Outcome)
	}
	completions, _ := f.ledger.UserCompletions(ctx, "alice")
	if len(completions) != 0 {
		t.Fatalf("expected empty completions after chargeback, got %v", completions)
	}
	published := f.events.Published()
	if len(published) != 2 || published[1].EventType != domain.EventConversionReversed {
		t.Fatalf("expected approved then reversed events, got %v", published)
	}
}

func TestCheckLeadsMergesLocalCompletions(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.leadFeed.leads = []domain.Lead{{"offer_id": "7", "status": "1"}}
	if _, err := f.svc.ProcessPostback(ctx, application.PostbackInput{
		Params: postbackParams("offer_id", "42", "status", "1", "s1", "alice", "payout", "1.50"),
	}); err != nil {
		t.Fatalf("approve: %v", err)
	}

	res, err := f.svc.CheckLeads(ctx, application.LeadCheckInput{UserID: "alice", ClientIP: "203.0.113.10"})
	if err != nil {
		t.Fatalf("check leads: %v", err)
	}
	if res.DataSource != "api" || res.APILeads != 1 || res.LocalLeads != 1 {
		t.Fatalf("unexpected counts: %+v", res)
	}
	var local domain.Lead
	for _, lead := range res.Leads {
		if lead.OfferID() == "42" {
			local = lead
		}
	}
	if local == nil {
		t.Fatalf("synthesized local lead missing: %v", res.Leads)
	}
	if local["source"] != "local_tracking" || local["local_tracking"] != true {
		t.Fatalf("local lead not marked as local tracking: %v", local)
	}
	if local["payout"] != "1.50" {
		t.Fatalf("expected ledger payout on local lead, got %v", local["payout"])
	}
	for _, lead := range res.Leads {
		if lead["enhanced"] != true || lead["user_id"] != "alice" {
			t.Fatalf("annotation missing on lead: %v", lead)
		}
	}
}

func TestCheckLeadsDeduplicatesAgainstFeed(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.leadFeed.leads = []domain.Lead{{"offer_id": "42", "status": "1"}}
	if _, err := f.svc.ProcessPostback(ctx, application.PostbackInput{
		Params: postbackParams("offer_id", "42", "status", "1", "s1", "alice"),
	}); err != nil {
		t.Fatalf("approve: %v", err)
	}
	res, err := f.svc.CheckLeads(ctx, application.LeadCheckInput{UserID: "alice"})
	if err != nil {
		t.Fatalf("check leads: %v", err)
	}
	if len(res.Leads) != 1 || res.LocalLeads != 0 {
		t.Fatalf("expected dedup against feed lead, got %+v", res)
	}
}

func TestCheckLeadsFallsBackToLedgerOnFeedOutage(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	if _, err := f.svc.ProcessPostback(ctx, application.PostbackInput{
		Params: postbackParams("offer_id", "42", "status", "1", "s1", "alice"),
	}); err != nil {
		t.Fatalf("approve: %v", err)
	}
	f.leadFeed.err = fmt.Errorf("%w: feed status 503", domain.ErrDependencyUnavailable)

	res, err := f.svc.CheckLeads(ctx, application.LeadCheckInput{UserID: "alice"})
	if err != nil {
		t.Fatalf("fallback must swallow the upstream error, got %v", err)
	}
	if res.DataSource != "local_fallback" {
		t.Fatalf("expected local_fallback source, got %q", res.DataSource)
	}
	if len(res.Leads) != 1 || res.Leads[0]["fallback"] != true {
		t.Fatalf("expected one fallback lead, got %v", res.Leads)
	}
}

func TestCheckLeadsTransportErrorFallback(t *testing.T) {
	f := newFixture()
	f.leadFeed.err = errors.New("connection refused")
	res, err := f.svc.CheckLeads(context.Background(), application.LeadCheckInput{UserID: "alice"})
	if err != nil {
		t.Fatalf("fallback must swallow the transport error, got %v", err)
	}
	if res.DataSource != "error_fallback" {
		t.Fatalf("expected error_fallback source, got %q", res.DataSource)
	}
}

func TestCheckLeadsWithoutUserPropagatesError(t *testing.T) {
	f := newFixture()
	f.leadFeed.err = errors.New("connection refused")
	_, err := f.svc.CheckLeads(context.Background(), application.LeadCheckInput{})
	if err == nil {
		t.Fatalf("expected upstream error without a user to fall back on")
	}
}

func TestListOffersWalksFallbackCountries(t *testing.T) {
	f := newFixture()
	f.offerFeed.byCountry["GB"] = []domain.Offer{{"id": "offer-gb"}}

	res, err := f.svc.ListOffers(context.Background(), application.OffersInput{
		UserID:      "alice",
		EdgeCountry: "JP",
	})
	if err != nil {
		t.Fatalf("list offers: %v", err)
	}
	if res.Country != "JP" {
		t.Fatalf("reported country must stay the detected one, got %q", res.Country)
	}
	if len(res.Offers) != 1 || res.Offers[0].ID() != "offer-gb" {
		t.Fatalf("expected the GB fallback offers, got %v", res.Offers)
	}
	if f.offerFeed.calls[0] != "JP" {
		t.Fatalf("expected detected country tried first, got %v", f.offerFeed.calls)
	}
}

func TestListOffersCapsAndAssignsIDs(t *testing.T) {
	f := newFixture()
	var many []domain.Offer
	for i := 0; i < 8; i++ {
		many = append(many, domain.Offer{"name": fmt.Sprintf("offer %d", i)})
	}
	f.offerFeed.byCountry["US"] = many

	res, err := f.svc.ListOffers(context.Background(), application.OffersInput{
		UserID:      "alice",
		EdgeCountry: "US",
	})
	if err != nil {
		t.Fatalf("list offers: %v", err)
	}
	if len(res.Offers) != 5 || res.TotalAvailable != 8 {
		t.Fatalf("expected 5 of 8 offers, got %d of %d", len(res.Offers), res.TotalAvailable)
	}
	for _, offer := range res.Offers {
		if offer.ID() == "" {
			t.Fatalf("expected synthesized id, got %v", offer)
		}
	}
}

func TestListOffersGeneratesUserID(t *testing.T) {
	f := newFixture()
	res, err := f.svc.ListOffers(context.Background(), application.OffersInput{EdgeCountry: "US"})
	if err != nil {
		t.Fatalf("list offers: %v", err)
	}
	if len(res.UserID) <= len("user_") || res.UserID[:5] != "user_" {
		t.Fatalf("expected generated user id, got %q", res.UserID)
	}
}

func TestDetectCountryChain(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	got := f.svc.DetectCountry(ctx, application.GeoQuery{EdgeCountry: "DE", CDNCountry: "FR"})
	if got.Country != "DE" || got.Source != "vercel" {
		t.Fatalf("edge header must win: %+v", got)
	}
	got = f.svc.DetectCountry(ctx, application.GeoQuery{CDNCountry: "FR"})
	if got.Country != "FR" || got.Source != "cloudflare" {
		t.Fatalf("cdn header second: %+v", got)
	}
	got = f.svc.DetectCountry(ctx, application.GeoQuery{CDNCountry: "XX", AcceptLanguage: "en-GB,en;q=0.9"})
	if got.Country != "GB" || got.Source != "accept-language" {
		t.Fatalf("unknown sentinel must fall through to accept-language: %+v", got)
	}
	got = f.svc.DetectCountry(ctx, application.GeoQuery{ClientIP: "192.168.1.4"})
	if got.Country != "US" || got.Source != "fallback" {
		t.Fatalf("private ip must skip geolocation and hit the default: %+v", got)
	}
}

func TestClaimRequiresCompletions(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, err := f.svc.ClaimReward(ctx, application.ClaimInput{Username: "builder", UserID: "alice"})
	if !errors.Is(err, domain.ErrRequirementsNotMet) {
		t.Fatalf("expected ErrRequirementsNotMet, got %v", err)
	}

	for _, offerID := range []string{"42", "7"} {
		if _, err := f.svc.ProcessPostback(ctx, application.PostbackInput{
			Params: postbackParams("offer_id", offerID, "status", "1", "s1", "alice"),
		}); err != nil {
			t.Fatalf("approve %s: %v", offerID, err)
		}
	}
	res, err := f.svc.ClaimReward(ctx, application.ClaimInput{Username: "builder", UserID: "alice"})
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if res.Completions != 2 || res.TransactionID == "" {
		t.Fatalf("unexpected claim result: %+v", res)
	}
	published := f.events.Published()
	last := published[len(published)-1]
	if last.EventType != domain.EventRewardClaimed {
		t.Fatalf("expected reward claimed event, got %q", last.EventType)
	}
}

func TestClaimValidatesInput(t *testing.T) {
	f := newFixture()
	if _, err := f.svc.ClaimReward(context.Background(), application.ClaimInput{Username: "builder"}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput without user id, got %v", err)
	}
	if _, err := f.svc.ClaimReward(context.Background(), application.ClaimInput{UserID: "alice"}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput without username, got %v", err)
	}
}
