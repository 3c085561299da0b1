package events

import (
	"context"
	"log/slog"
	"sync"

	"github.com/viralforge/mesh/services/integrations/M92-offerwall-service/internal/contracts"
)

// MemoryPublisher collects published envelopes in order. Tests and the
// single-process runtime both use it; a broker-backed publisher can
// replace it behind the same port.
type MemoryPublisher struct {
	mu     sync.Mutex
	Events []contracts.EventEnvelope
}

func NewMemoryPublisher() *MemoryPublisher {
	return &MemoryPublisher{Events: []contracts.EventEnvelope{}}
}

func (p *MemoryPublisher) Publish(_ context.Context, envelope contracts.EventEnvelope) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Events = append(p.Events, envelope)
	return nil
}

func (p *MemoryPublisher) Published() []contracts.EventEnvelope {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]contracts.EventEnvelope, len(p.Events))
	copy(out, p.Events)
	return out
}

// LoggingPublisher writes each event to the structured log and drops it.
type LoggingPublisher struct {
	logger *slog.Logger
}

func NewLoggingPublisher(logger *slog.Logger) *LoggingPublisher {
	return &LoggingPublisher{logger: logger}
}

func (p *LoggingPublisher) Publish(ctx context.Context, envelope contracts.EventEnvelope) error {
	p.logger.InfoContext(ctx, "domain event",
		"event_id", envelope.EventID,
		"event_type", envelope.EventType,
		"partition_key", envelope.PartitionKey,
	)
	return nil
}
