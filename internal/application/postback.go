package application

import "net/url"

// PostbackFields holds every logical field of a postback after synonym
// resolution. Networks disagree on parameter names, so each field
// accepts an ordered preference list and the first non-empty synonym
// wins. Raw keeps the parameters exactly as received, for audit and for
// echoing back on validation failures.
type PostbackFields struct {
	OfferID       string `json:"offerId"`
	OfferName     string `json:"offerName,omitempty"`
	Payout        string `json:"payout,omitempty"`
	PayoutCents   string `json:"payoutCents,omitempty"`
	UserIP        string `json:"userIp,omitempty"`
	Status        string `json:"status"`
	Unix          string `json:"unix,omitempty"`
	SubID1        string `json:"s1,omitempty"`
	SubID2        string `json:"s2,omitempty"`
	LeadID        string `json:"leadId,omitempty"`
	ClickID       string `json:"clickId,omitempty"`
	CountryCode   string `json:"countryCode,omitempty"`
	TransactionID string `json:"transactionId,omitempty"`
	Currency      string `json:"currency"`
	DeviceType    string `json:"deviceType,omitempty"`
	Source        string `json:"source"`

	Raw map[string]string `json:"-"`
}

// ResolvePostbackFields normalizes a loosely-named postback query into
// typed fields.
func ResolvePostbackFields(params url.Values) PostbackFields {
	pick := func(names ...string) string {
		for _, name := range names {
			if v := params.Get(name); v != "" {
				return v
			}
		}
		return ""
	}
	fields := PostbackFields{
		OfferID:       pick("offer_id", "offer", "oid"),
		OfferName:     pick("offer_name", "name"),
		Payout:        pick("payout", "amount"),
		PayoutCents:   pick("payout_cents", "amount_cents"),
		UserIP:        pick("ip", "user_ip"),
		Status:        pick("status", "conversion_status"),
		Unix:          pick("unix", "timestamp"),
		SubID1:        pick("s1", "subid1", "user_id"),
		SubID2:        pick("s2", "subid2", "country"),
		LeadID:        pick("lead_id", "conversion_id"),
		ClickID:       pick("click_id", "cid"),
		CountryCode:   pick("country_code", "country", "geo"),
		TransactionID: pick("transaction_id", "txn_id"),
		Currency:      pick("currency"),
		DeviceType:    pick("device_type", "device"),
		Source:        pick("source"),
		Raw:           map[string]string{},
	}
	if fields.Currency == "" {
		fields.Currency = "USD"
	}
	if fields.Source == "" {
		fields.Source = "adblue"
	}
	for name := range params {
		fields.Raw[name] = params.Get(name)
	}
	return fields
}
