package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"storefront-services/internal/checkout"
	"storefront-services/internal/reviews"
	"storefront-services/internal/store"
	"storefront-services/internal/voucher"
	"storefront-services/pkg/response"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func zapError(err error) zap.Field {
	return zap.Error(err)
}

func readPathString(r *http.Request, key string) string {
	return strings.TrimSpace(chi.URLParam(r, key))
}

func parseQueryInt(r *http.Request, key string, fallback int) int {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func clampInt(value, lo, hi int) int {
	if value < lo {
		return lo
	}
	if value > hi {
		return hi
	}
	return value
}

func decodeBody(w http.ResponseWriter, r *http.Request, out any) bool {
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return false
	}
	return true
}

func writeVoucherError(w http.ResponseWriter, err *voucher.Error) {
	status := err.StatusCode
	if status == 0 {
		status = http.StatusBadRequest
	}
	response.ErrorDetails(w, status, string(err.Code), err.Message, err.Details)
}

// writeServiceError maps typed service errors onto the response envelope and
// logs everything else as an internal failure.
func (h *Handler) writeServiceError(w http.ResponseWriter, err error, logMessage string) {
	var (
		verr *voucher.Error
		cerr *checkout.Error
		rerr *reviews.Error
	)
	switch {
	case errors.As(err, &verr):
		writeVoucherError(w, verr)
	case errors.As(err, &cerr):
		response.ErrorDetails(w, cerr.StatusCode, string(cerr.Code), cerr.Message, cerr.Details)
	case errors.As(err, &rerr):
		response.Error(w, rerr.StatusCode, string(rerr.Code), rerr.Message)
	case errors.Is(err, store.ErrNotFound):
		response.Error(w, http.StatusNotFound, "NOT_FOUND", "Resource not found")
	default:
		h.Logger.Error(logMessage, zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Something went wrong")
	}
}
