package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(recoverMiddleware)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		writeSuccess(w, http.StatusOK, map[string]string{"status": "ready"})
	})
	r.Handle("/metrics", promhttp.Handler())

	// State on these endpoints changes between client polls; caching a
	// response would stall the funnel.
	r.Group(func(r chi.Router) {
		r.Use(noStoreMiddleware)
		r.Get("/postback", handler.postback)
		r.Post("/postback", handler.postback)
		r.Get("/check-leads", handler.checkLeads)
		r.Get("/offers", handler.listOffers)
	})

	r.Get("/geo/detect", handler.detectGeo)
	r.Get("/roblox/user", handler.lookupUser)
	r.Post("/rewards/claim", handler.claimReward)
	r.Get("/admin/snapshot", handler.snapshot)
	return r
}
