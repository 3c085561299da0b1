package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	PostbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "offerwall_postbacks_total",
			Help: "Postbacks received, by processing result",
		},
		[]string{"result"},
	)

	LeadChecksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "offerwall_lead_checks_total",
			Help: "Check-leads requests, by data source used",
		},
		[]string{"source"},
	)

	OfferFeedRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "offerwall_offer_feed_requests_total",
			Help: "Offer feed fetches against the advertiser, by outcome",
		},
		[]string{"outcome"},
	)

	RewardClaimsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "offerwall_reward_claims_total",
			Help: "Reward claims accepted",
		},
	)
)

// Register registers all service metrics with the default registry.
func Register() {
	prometheus.MustRegister(PostbacksTotal)
	prometheus.MustRegister(LeadChecksTotal)
	prometheus.MustRegister(OfferFeedRequestsTotal)
	prometheus.MustRegister(RewardClaimsTotal)
}
