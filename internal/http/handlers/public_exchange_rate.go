package handlers

import (
	"net/http"

	"storefront-services/pkg/response"
)

func (h *Handler) PublicExchangeRate(w http.ResponseWriter, r *http.Request) {
	if h.Rates == nil {
		response.Error(w, http.StatusServiceUnavailable, "RATE_UNAVAILABLE", "Exchange rate is unavailable")
		return
	}
	rate, ok, stale := h.Rates.Current()
	if !ok {
		response.Error(w, http.StatusServiceUnavailable, "RATE_UNAVAILABLE", "Exchange rate is unavailable")
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	response.Success(w, map[string]any{
		"pkrPerUsd": rate.PkrPerUsd,
		"fetchedAt": rate.FetchedAt,
		"stale":     stale,
	})
}
