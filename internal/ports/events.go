package ports

import (
	"context"

	"github.com/viralforge/mesh/services/integrations/M92-offerwall-service/internal/contracts"
)

type EventPublisher interface {
	Publish(ctx context.Context, envelope contracts.EventEnvelope) error
}
