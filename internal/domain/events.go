package domain

const (
	EventConversionApproved = "offerwall.conversion.approved"
	EventConversionReversed = "offerwall.conversion.reversed"
	EventRewardClaimed      = "offerwall.reward.claimed"
)

func IsEmittedEvent(eventType string) bool {
	switch eventType {
	case EventConversionApproved, EventConversionReversed, EventRewardClaimed:
		return true
	default:
		return false
	}
}

func EventPartitionKeyPath(eventType string) string {
	if IsEmittedEvent(eventType) {
		return "data.user_id"
	}
	return ""
}
