package contracts

import (
	"encoding/json"
	"time"
)

type EventEnvelope struct {
	EventID          string          `json:"event_id"`
	EventType        string          `json:"event_type"`
	OccurredAt       time.Time       `json:"occurred_at"`
	PartitionKeyPath string          `json:"partition_key_path"`
	PartitionKey     string          `json:"partition_key"`
	SourceService    string          `json:"source_service"`
	TraceID          string          `json:"trace_id"`
	SchemaVersion    string          `json:"schema_version"`
	Data             json.RawMessage `json:"data"`
}

type ConversionApprovedPayload struct {
	UserID        string `json:"user_id"`
	OfferID       string `json:"offer_id"`
	Payout        string `json:"payout,omitempty"`
	Currency      string `json:"currency,omitempty"`
	CountryCode   string `json:"country_code,omitempty"`
	SourceChecked bool   `json:"source_checked"`
	ApprovedAt    string `json:"approved_at"`
}

type ConversionReversedPayload struct {
	UserID     string `json:"user_id"`
	OfferID    string `json:"offer_id"`
	Payout     string `json:"payout,omitempty"`
	ReversedAt string `json:"reversed_at"`
}

type RewardClaimedPayload struct {
	UserID        string `json:"user_id"`
	Username      string `json:"username"`
	TransactionID string `json:"transaction_id"`
	Completions   int    `json:"completions"`
	ClaimedAt     string `json:"claimed_at"`
}
