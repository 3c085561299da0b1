package ports

import (
	"context"

	"github.com/viralforge/mesh/services/integrations/M92-offerwall-service/internal/domain"
)

// ConversionLedger is the process-wide conversion store. Implementations
// must apply each mutation atomically: the record map, the per-user
// completion set and the per-offer metrics move together under a single
// postback.
type ConversionLedger interface {
	RecordApproval(ctx context.Context, rec domain.ConversionRecord) error
	// RecordReversal removes the (user, offer) record if present and
	// decrements the offer's counters by the reversal's reported payout,
	// clamped at zero.
	RecordReversal(ctx context.Context, userID, offerID, payout string) error
	UserCompletions(ctx context.Context, userID string) ([]string, error)
	UserConversions(ctx context.Context, userID string) ([]domain.ConversionRecord, error)
	// OfferMetrics returns domain.ErrNotFound when the offer has never
	// converted.
	OfferMetrics(ctx context.Context, offerID string) (domain.OfferMetrics, error)
	Snapshot(ctx context.Context) (domain.LedgerSnapshot, error)
}
