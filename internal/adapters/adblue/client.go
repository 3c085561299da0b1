package adblue

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/viralforge/mesh/services/integrations/M92-offerwall-service/internal/domain"
	"github.com/viralforge/mesh/services/integrations/M92-offerwall-service/internal/ports"
)

const defaultUserAgent = "Mozilla/5.0 (compatible; RewardsBot/1.0)"

type Config struct {
	FeedURL     string
	LeadsURL    string
	PublisherID string
	APIKey      string
	HTTPClient  *http.Client
}

// Client talks to the advertiser network's JSONP endpoints: the
// localized offer feed and the check-leads feed.
type Client struct {
	httpClient  *http.Client
	feedURL     string
	leadsURL    string
	publisherID string
	apiKey      string
}

func New(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 8 * time.Second}
	}
	return &Client{
		httpClient:  httpClient,
		feedURL:     cfg.FeedURL,
		leadsURL:    cfg.LeadsURL,
		publisherID: cfg.PublisherID,
		apiKey:      cfg.APIKey,
	}
}

func (c *Client) FetchOffers(ctx context.Context, q ports.FeedQuery) ([]domain.Offer, error) {
	params := url.Values{}
	params.Set("user_id", c.publisherID)
	params.Set("api_key", c.apiKey)
	params.Set("s1", q.UserID)
	params.Set("s2", q.Country)
	params.Set("callback", "jsonpCallback")
	params.Set("t", strconv.FormatInt(time.Now().UnixMilli(), 10))
	params.Set("country", q.Country)
	params.Set("geo", q.Country)
	params.Set("country_code", q.Country)
	if q.ClientIP != "" {
		params.Set("ip", q.ClientIP)
	}
	if q.UserAgent != "" {
		params.Set("user_agent", q.UserAgent)
	}

	body, err := c.get(ctx, c.feedURL+"?"+params.Encode(), q.UserAgent, q.ClientIP, map[string]string{
		"CF-IPCountry":   q.Country,
		"X-Country-Code": q.Country,
	})
	if err != nil {
		return nil, err
	}
	items := decodeWrappedList(body)
	offers := make([]domain.Offer, 0, len(items))
	for _, item := range items {
		offers = append(offers, domain.Offer(item))
	}
	return offers, nil
}

func (c *Client) CheckLeads(ctx context.Context, q ports.LeadQuery) ([]domain.Lead, error) {
	params := url.Values{}
	params.Set("testing", boolFlag(q.Testing))
	params.Set("callback", "jsonpCallback")
	if q.UserID != "" {
		params.Set("s1", q.UserID)
		params.Set("user_id", q.UserID)
	}

	body, err := c.get(ctx, c.leadsURL+"?"+params.Encode(), q.UserAgent, q.ClientIP, nil)
	if err != nil {
		return nil, err
	}
	items := decodeWrappedList(body)
	leads := make([]domain.Lead, 0, len(items))
	for _, item := range items {
		leads = append(leads, domain.Lead(item))
	}
	return leads, nil
}

func (c *Client) get(ctx context.Context, rawURL, userAgent, clientIP string, extra map[string]string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(userAgent) == "" {
		userAgent = defaultUserAgent
	}
	req.Header.Set("Accept", "*/*")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Cache-Control", "no-cache")
	if clientIP != "" {
		req.Header.Set("X-Forwarded-For", clientIP)
	}
	for k, v := range extra {
		req.Header.Set(k, v)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()
	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return "", err
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return "", fmt.Errorf("%w: feed status %d", domain.ErrDependencyUnavailable, res.StatusCode)
	}
	return string(raw), nil
}

func boolFlag(v bool) string {
	if v {
		return "1"
	}
	return "0"
}
