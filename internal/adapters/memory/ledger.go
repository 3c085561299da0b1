package memory

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/viralforge/mesh/services/integrations/M92-offerwall-service/internal/domain"
)

type offerMetrics struct {
	totalConversions int
	totalPayout      float64
	countries        map[string]struct{}
	lastConversionAt time.Time
}

// Ledger is the process-wide in-memory conversion store. State lives
// for the lifetime of the process only. One mutex serializes every
// mutation so a single postback's three-way update (record, completion
// set, offer metrics) never interleaves with another.
type Ledger struct {
	mu          sync.Mutex
	conversions map[string]domain.ConversionRecord
	completions map[string]map[string]struct{}
	metrics     map[string]*offerMetrics
}

func NewLedger() *Ledger {
	return &Ledger{
		conversions: map[string]domain.ConversionRecord{},
		completions: map[string]map[string]struct{}{},
		metrics:     map[string]*offerMetrics{},
	}
}

func (l *Ledger) RecordApproval(_ context.Context, rec domain.ConversionRecord) error {
	if strings.TrimSpace(rec.OfferID) == "" {
		return domain.ErrInvalidInput
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	l.conversions[domain.ConversionKey(rec.UserID, rec.OfferID)] = rec

	set, ok := l.completions[rec.UserID]
	if !ok {
		set = map[string]struct{}{}
		l.completions[rec.UserID] = set
	}
	set[rec.OfferID] = struct{}{}

	m, ok := l.metrics[rec.OfferID]
	if !ok {
		m = &offerMetrics{countries: map[string]struct{}{}}
		l.metrics[rec.OfferID] = m
	}
	// The increment is unconditional: a duplicate approval overwrites
	// the record but still counts again. Known drift, kept as-is.
	m.totalConversions++
	m.totalPayout += parsePayout(rec.Payout)
	if rec.CountryCode != "" {
		m.countries[rec.CountryCode] = struct{}{}
	}
	m.lastConversionAt = rec.ReceivedAt
	return nil
}

func (l *Ledger) RecordReversal(_ context.Context, userID, offerID, payout string) error {
	if strings.TrimSpace(offerID) == "" {
		return domain.ErrInvalidInput
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.conversions, domain.ConversionKey(userID, offerID))
	if set, ok := l.completions[userID]; ok {
		delete(set, offerID)
	}
	if m, ok := l.metrics[offerID]; ok {
		// Decrement uses the reversal's reported payout, not the
		// original approval's, and clamps at zero.
		m.totalConversions = max(0, m.totalConversions-1)
		m.totalPayout = max(0, m.totalPayout-parsePayout(payout))
	}
	return nil
}

func (l *Ledger) UserCompletions(_ context.Context, userID string) ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	set := l.completions[userID]
	out := make([]string, 0, len(set))
	for offerID := range set {
		out = append(out, offerID)
	}
	sort.Strings(out)
	return out, nil
}

func (l *Ledger) UserConversions(_ context.Context, userID string) ([]domain.ConversionRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	prefix := userID + "_"
	var out []domain.ConversionRecord
	for key, rec := range l.conversions {
		if strings.HasPrefix(key, prefix) {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OfferID < out[j].OfferID })
	return out, nil
}

func (l *Ledger) OfferMetrics(_ context.Context, offerID string) (domain.OfferMetrics, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.metrics[offerID]
	if !ok {
		return domain.OfferMetrics{}, domain.ErrNotFound
	}
	return exportMetrics(offerID, m), nil
}

func (l *Ledger) Snapshot(_ context.Context) (domain.LedgerSnapshot, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	snap := domain.LedgerSnapshot{
		TotalUsers:       len(l.completions),
		TotalConversions: len(l.conversions),
		TotalOffers:      len(l.metrics),
		UserCompletions:  map[string][]string{},
		OfferMetrics:     map[string]domain.OfferMetrics{},
	}
	for userID, set := range l.completions {
		offers := make([]string, 0, len(set))
		for offerID := range set {
			offers = append(offers, offerID)
		}
		sort.Strings(offers)
		snap.UserCompletions[userID] = offers
	}
	for offerID, m := range l.metrics {
		snap.OfferMetrics[offerID] = exportMetrics(offerID, m)
	}
	return snap, nil
}

func exportMetrics(offerID string, m *offerMetrics) domain.OfferMetrics {
	countries := make([]string, 0, len(m.countries))
	for c := range m.countries {
		countries = append(countries, c)
	}
	sort.Strings(countries)
	return domain.OfferMetrics{
		OfferID:          offerID,
		TotalConversions: m.totalConversions,
		TotalPayout:      m.totalPayout,
		Countries:        countries,
		LastConversionAt: m.lastConversionAt,
	}
}

func parsePayout(raw string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0
	}
	return v
}
