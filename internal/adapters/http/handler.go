package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/viralforge/mesh/services/integrations/M92-offerwall-service/internal/application"
	"github.com/viralforge/mesh/services/integrations/M92-offerwall-service/internal/contracts"
	"github.com/viralforge/mesh/services/integrations/M92-offerwall-service/internal/domain"
	"github.com/viralforge/mesh/services/integrations/M92-offerwall-service/internal/metrics"
)

type Handler struct{ service *application.Service }

func NewHandler(service *application.Service) *Handler { return &Handler{service: service} }

// postback accepts advertiser server-to-server notifications. GET and
// POST carry the same query parameters and are treated identically.
func (h *Handler) postback(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.ProcessPostback(r.Context(), application.PostbackInput{
		Params:    r.URL.Query(),
		ClientIP:  clientIP(r),
		UserAgent: r.UserAgent(),
		Referer:   r.Referer(),
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			metrics.PostbacksTotal.WithLabelValues("invalid").Inc()
			writeJSON(w, http.StatusBadRequest, contracts.PostbackResponse{
				Success:  false,
				Error:    "Missing required parameters (offer_id, status)",
				Received: res.Fields,
			})
			return
		}
		metrics.PostbacksTotal.WithLabelValues("error").Inc()
		writeJSON(w, http.StatusInternalServerError, contracts.PostbackResponse{
			Success: false,
			Error:   "Internal server error processing postback",
			Details: err.Error(),
		})
		return
	}

	ts := res.Timestamp.Format(time.RFC3339)
	metrics.PostbacksTotal.WithLabelValues(string(res.Outcome)).Inc()
	switch res.Outcome {
	case application.PostbackApproved:
		writeJSON(w, http.StatusOK, contracts.PostbackResponse{
			Success: true,
			Message: "Conversion recorded successfully",
			Data: &contracts.PostbackData{
				OfferID:       res.OfferID,
				UserID:        res.UserID,
				Status:        res.Status,
				Payout:        res.Payout,
				Timestamp:     ts,
				ConversionKey: res.ConversionKey,
			},
		})
	case application.PostbackReversed:
		writeJSON(w, http.StatusOK, contracts.PostbackResponse{
			Success: true,
			Message: "Chargeback processed successfully",
			Data: &contracts.PostbackData{
				OfferID:       res.OfferID,
				UserID:        res.UserID,
				Status:        res.Status,
				Timestamp:     ts,
				ConversionKey: res.ConversionKey,
			},
		})
	default:
		writeJSON(w, http.StatusOK, contracts.PostbackResponse{
			Success: false,
			Message: "Unknown conversion status",
			Data: &contracts.PostbackData{
				OfferID:   res.OfferID,
				UserID:    res.UserID,
				Status:    res.Status,
				Timestamp: ts,
			},
		})
	}
}

func (h *Handler) checkLeads(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	userID := q.Get("userId")
	if userID == "" {
		userID = q.Get("s1")
	}
	out, err := h.service.CheckLeads(r.Context(), application.LeadCheckInput{
		UserID:    userID,
		Testing:   q.Get("testing") == "1",
		ClientIP:  clientIP(r),
		UserAgent: r.UserAgent(),
	})
	if err != nil {
		metrics.LeadChecksTotal.WithLabelValues("error").Inc()
		status := http.StatusInternalServerError
		message := "Internal server error while checking leads"
		if errors.Is(err, domain.ErrDependencyUnavailable) {
			status = http.StatusBadGateway
			message = "Failed to check leads from advertiser network"
		}
		writeJSON(w, status, contracts.LeadsErrorResponse{
			Error:        message,
			Details:      err.Error(),
			FallbackData: []any{},
		})
		return
	}

	metrics.LeadChecksTotal.WithLabelValues(out.DataSource).Inc()
	if out.DataSource == "api" {
		w.Header().Set("X-API-Leads", strconv.Itoa(out.APILeads))
		w.Header().Set("X-Local-Leads", strconv.Itoa(out.LocalLeads))
		w.Header().Set("X-Total-Leads", strconv.Itoa(len(out.Leads)))
	} else {
		w.Header().Set("X-Data-Source", out.DataSource)
	}
	writeJSON(w, http.StatusOK, out.Leads)
}

func (h *Handler) listOffers(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.ListOffers(r.Context(), application.OffersInput{
		UserID:         r.URL.Query().Get("userId"),
		ClientIP:       clientIP(r),
		UserAgent:      r.UserAgent(),
		EdgeCountry:    r.Header.Get("X-Vercel-IP-Country"),
		CDNCountry:     r.Header.Get("CF-IPCountry"),
		AcceptLanguage: r.Header.Get("Accept-Language"),
	})
	if err != nil {
		metrics.OfferFeedRequestsTotal.WithLabelValues("error").Inc()
		status := http.StatusInternalServerError
		message := "Internal server error while fetching offers"
		if errors.Is(err, domain.ErrDependencyUnavailable) {
			status = http.StatusBadGateway
			message = "Failed to fetch offers from advertiser network"
		}
		writeJSON(w, status, contracts.OffersResponse{
			Error:   message,
			Details: err.Error(),
			Offers:  []any{},
			Country: out.Country,
			UserID:  out.UserID,
		})
		return
	}

	metrics.OfferFeedRequestsTotal.WithLabelValues("ok").Inc()
	offers := make([]any, 0, len(out.Offers))
	for _, offer := range out.Offers {
		offers = append(offers, offer)
	}
	w.Header().Set("X-Country-Detected", out.Country)
	w.Header().Set("X-Offers-Count", strconv.Itoa(len(offers)))
	writeJSON(w, http.StatusOK, contracts.OffersResponse{
		Success:        true,
		Offers:         offers,
		Country:        out.Country,
		TotalAvailable: out.TotalAvailable,
		UserID:         out.UserID,
		Metadata: &contracts.OffersMetadata{
			DetectedCountry: out.Country,
			ClientIP:        orUnknown(clientIP(r)),
			Timestamp:       out.DetectedAt.Format(time.RFC3339),
		},
	})
}

func (h *Handler) detectGeo(w http.ResponseWriter, r *http.Request) {
	geo := h.service.DetectCountry(r.Context(), application.GeoQuery{
		EdgeCountry:    r.Header.Get("X-Vercel-IP-Country"),
		CDNCountry:     r.Header.Get("CF-IPCountry"),
		AcceptLanguage: r.Header.Get("Accept-Language"),
		ClientIP:       clientIP(r),
	})
	resp := contracts.GeoResponse{Country: geo.Country, Source: geo.Source, IP: geo.IP}
	if geo.Source == "fallback" {
		resp.Warning = fmt.Sprintf("Could not detect country, using %s as fallback", geo.Country)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) lookupUser(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(r.URL.Query().Get("username"))
	if username == "" {
		writeJSON(w, http.StatusBadRequest, contracts.UserLookupError{Error: "Username is required"})
		return
	}
	identity, err := h.service.LookupPlayer(r.Context(), username)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, contracts.UserLookupError{Error: "User not found"})
	case errors.Is(err, domain.ErrDependencyUnavailable):
		writeJSON(w, http.StatusBadGateway, contracts.UserLookupError{Error: "Failed to fetch user from identity API", Details: err.Error()})
	case err != nil:
		writeJSON(w, http.StatusInternalServerError, contracts.UserLookupError{Error: "Internal server error", Details: err.Error()})
	default:
		writeJSON(w, http.StatusOK, contracts.UserLookupResponse{
			UserID:      identity.UserID,
			Username:    identity.Username,
			DisplayName: identity.DisplayName,
			AvatarURL:   identity.AvatarURL,
		})
	}
}

func (h *Handler) claimReward(w http.ResponseWriter, r *http.Request) {
	var req contracts.ClaimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, contracts.ClaimResponse{Success: false, Error: "invalid json body"})
		return
	}
	out, err := h.service.ClaimReward(r.Context(), application.ClaimInput{
		Username: req.Username,
		UserID:   req.UserID,
		Rewards:  req.Rewards,
	})
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, contracts.ClaimResponse{Success: false, Error: "username and userId are required"})
	case errors.Is(err, domain.ErrRequirementsNotMet):
		writeJSON(w, http.StatusConflict, contracts.ClaimResponse{Success: false, Error: "Quest requirements not met"})
	case err != nil:
		writeJSON(w, http.StatusInternalServerError, contracts.ClaimResponse{Success: false, Error: "Failed to claim rewards"})
	default:
		metrics.RewardClaimsTotal.Inc()
		writeJSON(w, http.StatusOK, contracts.ClaimResponse{
			Success:       true,
			Message:       "Rewards claimed successfully!",
			TransactionID: out.TransactionID,
		})
	}
}

func (h *Handler) snapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := h.service.Snapshot(r.Context())
	if err != nil {
		code, c := mapDomainError(err)
		writeError(w, code, c, err.Error())
		return
	}
	writeSuccess(w, http.StatusOK, snap)
}

func clientIP(r *http.Request) string {
	if raw := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); raw != "" {
		parts := strings.Split(raw, ",")
		if len(parts) > 0 {
			return strings.TrimSpace(parts[0])
		}
	}
	if raw := strings.TrimSpace(r.Header.Get("X-Real-IP")); raw != "" {
		return raw
	}
	if raw := strings.TrimSpace(r.Header.Get("CF-Connecting-IP")); raw != "" {
		return raw
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil && host != "" {
		return host
	}
	return strings.TrimSpace(r.RemoteAddr)
}

func orUnknown(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
