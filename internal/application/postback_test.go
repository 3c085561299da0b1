package application

import (
	"net/url"
	"testing"
)

func TestResolvePostbackFieldsPrefersFirstSynonym(t *testing.T) {
	params := url.Values{}
	params.Set("offer_id", "42")
	params.Set("oid", "99")
	params.Set("payout", "1.50")
	params.Set("amount", "9.99")
	params.Set("status", "1")
	params.Set("s1", "alice")
	params.Set("user_id", "bob")

	fields := ResolvePostbackFields(params)
	if fields.OfferID != "42" {
		t.Fatalf("expected offer_id to win over oid, got %q", fields.OfferID)
	}
	if fields.Payout != "1.50" {
		t.Fatalf("expected payout to win over amount, got %q", fields.Payout)
	}
	if fields.SubID1 != "alice" {
		t.Fatalf("expected s1 to win over user_id, got %q", fields.SubID1)
	}
}

func TestResolvePostbackFieldsFallsThroughSynonyms(t *testing.T) {
	params := url.Values{}
	params.Set("oid", "42")
	params.Set("conversion_status", "approved")
	params.Set("user_id", "alice")
	params.Set("conversion_id", "lead-7")
	params.Set("cid", "click-3")
	params.Set("geo", "DE")
	params.Set("device", "mobile")

	fields := ResolvePostbackFields(params)
	if fields.OfferID != "42" {
		t.Fatalf("expected oid fallback, got %q", fields.OfferID)
	}
	if fields.Status != "approved" {
		t.Fatalf("expected conversion_status fallback, got %q", fields.Status)
	}
	if fields.SubID1 != "alice" {
		t.Fatalf("expected user_id fallback, got %q", fields.SubID1)
	}
	if fields.LeadID != "lead-7" || fields.ClickID != "click-3" {
		t.Fatalf("expected lead/click fallbacks, got %q / %q", fields.LeadID, fields.ClickID)
	}
	if fields.CountryCode != "DE" {
		t.Fatalf("expected geo fallback, got %q", fields.CountryCode)
	}
	if fields.DeviceType != "mobile" {
		t.Fatalf("expected device fallback, got %q", fields.DeviceType)
	}
}

func TestResolvePostbackFieldsDefaults(t *testing.T) {
	fields := ResolvePostbackFields(url.Values{})
	if fields.Currency != "USD" {
		t.Fatalf("expected USD default currency, got %q", fields.Currency)
	}
	if fields.Source != "adblue" {
		t.Fatalf("expected adblue default source, got %q", fields.Source)
	}
	if fields.OfferID != "" || fields.Status != "" {
		t.Fatalf("expected empty required fields, got %q / %q", fields.OfferID, fields.Status)
	}
}

func TestResolvePostbackFieldsKeepsRaw(t *testing.T) {
	params := url.Values{}
	params.Set("offer_id", "42")
	params.Set("status", "1")
	params.Set("custom_param", "x")

	fields := ResolvePostbackFields(params)
	if fields.Raw["custom_param"] != "x" {
		t.Fatalf("expected raw passthrough of unknown params, got %v", fields.Raw)
	}
	if len(fields.Raw) != 3 {
		t.Fatalf("expected 3 raw params, got %d", len(fields.Raw))
	}
}

func TestCountryFromAcceptLanguage(t *testing.T) {
	cases := []struct {
		header string
		want   string
	}{
		{"en-US,en;q=0.9", "US"},
		{"de-DE,de;q=0.8,en;q=0.5", "DE"},
		{"fr", ""},
		{"en-xx", ""},
		{"", ""},
		{"pt-BR;q=0.7", "BR"},
	}
	for _, c := range cases {
		if got := countryFromAcceptLanguage(c.header); got != c.want {
			t.Fatalf("header %q: expected %q, got %q", c.header, c.want, got)
		}
	}
}
