package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"

	"storefront-services/internal/currency"
	"storefront-services/internal/middleware"
	"storefront-services/internal/queue"
	"storefront-services/internal/report"
	"storefront-services/internal/storage"
	"storefront-services/internal/store"
	"storefront-services/internal/utils"
	"storefront-services/pkg/response"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const soldCountPrefix = "reports/sold-count/"

// AdminProductRecompute rebuilds one product's sold count and rating
// aggregate.
func (h *Handler) AdminProductRecompute(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	productID := readPathString(r, "id")

	if _, err := h.Store.GetProduct(ctx, productID); err != nil {
		if errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrInvalidID) {
			response.Error(w, http.StatusNotFound, "PRODUCT_NOT_FOUND", "Product not found")
			return
		}
		h.Logger.Error("product load failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load product")
		return
	}

	soldCount, err := h.Sales.Recompute(ctx, productID)
	if err != nil {
		h.Logger.Error("sold count recompute failed", zap.String("productId", productID), zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to recompute sold count")
		return
	}
	stats, err := h.Reviews.Recompute(ctx, productID)
	if err != nil {
		h.Logger.Error("review stats recompute failed", zap.String("productId", productID), zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to recompute review stats")
		return
	}

	response.Success(w, map[string]any{
		"productId":     productID,
		"soldCount":     soldCount,
		"ratingAvg":     stats.Avg,
		"ratingCount":   stats.Count,
		"averageRating": stats.Avg,
		"reviewsCount":  stats.Count,
	})
}

// AdminSoldCountRecompute runs the full batch. With ?async=true the batch is
// queued for the worker instead.
func (h *Handler) AdminSoldCountRecompute(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.URL.Query().Get("async") == "true" && h.Queue != nil && h.Events != nil {
		requestedBy := ""
		if ac, ok := middleware.GetAuthContext(ctx); ok && ac != nil {
			requestedBy = ac.UserID
		}
		if err := h.Events.Emit(ctx, queue.RKSoldCountRecompute, queue.SoldCountRecomputeEvent{
			Event:       queue.RKSoldCountRecompute,
			RequestedBy: requestedBy,
		}); err != nil {
			h.Logger.Error("sold count batch enqueue failed", zapError(err))
			response.Error(w, http.StatusServiceUnavailable, "QUEUE_UNAVAILABLE", "Failed to queue the batch")
			return
		}
		response.JSON(w, http.StatusAccepted, map[string]any{
			"success":    true,
			"data":       map[string]any{"queued": true},
			"statusCode": http.StatusAccepted,
		})
		return
	}

	h.runSoldCountBatch(w, r)
}

func (h *Handler) runSoldCountBatch(w http.ResponseWriter, r *http.Request) {
	summary, err := h.Sales.RecomputeAll(r.Context())
	if err != nil {
		h.Logger.Error("sold count batch failed", zap.String("runId", summary.RunID), zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Sold count batch failed")
		return
	}
	response.Success(w, summary)
}

type soldCountRun struct {
	RunID string `json:"runId"`
	Kind  string `json:"kind"`
	Key   string `json:"key"`
	Size  int64  `json:"size"`
	URL   string `json:"url,omitempty"`
}

// AdminSoldCountRuns lists archived batch summaries and rendered reports.
func (h *Handler) AdminSoldCountRuns(w http.ResponseWriter, r *http.Request) {
	if h.Archive == nil {
		response.Success(w, map[string]any{"disabled": true, "runs": []soldCountRun{}})
		return
	}

	objects, err := h.Archive.List(r.Context(), soldCountPrefix)
	if err != nil {
		h.Logger.Error("sold count archive list failed", zapError(err))
		response.Error(w, http.StatusBadGateway, "ARCHIVE_UNAVAILABLE", "Failed to list archived runs")
		return
	}

	runs := make([]soldCountRun, 0, len(objects))
	for _, obj := range objects {
		name := path.Base(obj.Key)
		ext := path.Ext(name)
		kind := "summary"
		if ext == ".pdf" {
			kind = "report"
		}
		runs = append(runs, soldCountRun{
			RunID: strings.TrimSuffix(name, ext),
			Kind:  kind,
			Key:   obj.Key,
			Size:  obj.Size,
			URL:   obj.URL,
		})
	}
	response.Success(w, map[string]any{"disabled": false, "runs": runs})
}

// AdminSoldCountRun returns one archived batch summary as stored.
func (h *Handler) AdminSoldCountRun(w http.ResponseWriter, r *http.Request) {
	if h.Archive == nil {
		response.Error(w, http.StatusNotFound, "ARCHIVE_DISABLED", "Run archive is not configured")
		return
	}
	runID := readPathString(r, "runId")
	if _, err := uuid.Parse(runID); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid run id")
		return
	}

	body, _, err := h.Archive.GetObject(r.Context(), soldCountPrefix+runID+".json")
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			response.Error(w, http.StatusNotFound, "RUN_NOT_FOUND", "Run not found")
			return
		}
		h.Logger.Error("sold count archive read failed", zap.String("runId", runID), zapError(err))
		response.Error(w, http.StatusBadGateway, "ARCHIVE_UNAVAILABLE", "Failed to read archived run")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// AdminSoldCountReportPDF renders the sold-count report. ?upload=true also
// stores it in the archive and returns its location in X-Report-URL.
func (h *Handler) AdminSoldCountReportPDF(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	code := currency.ParseCode(r.URL.Query().Get("currency"))
	rate := h.pkrPerUsd()
	if code == currency.USD && rate <= 0 {
		response.Error(w, http.StatusServiceUnavailable, "RATE_UNAVAILABLE", "Exchange rate is unavailable")
		return
	}

	rep, err := report.Build(ctx, h.Store, h.now())
	if err != nil {
		h.Logger.Error("sold count report build failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to build report")
		return
	}
	rep.GeneratedAt = utils.InTimezone(rep.GeneratedAt, h.Config.ReportTimezone)
	buf, err := report.RenderPDF(rep, code, rate)
	if err != nil {
		h.Logger.Error("sold count report render failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to render report")
		return
	}

	runID := uuid.NewString()
	if r.URL.Query().Get("upload") == "true" {
		if h.Archive == nil {
			response.Error(w, http.StatusBadRequest, "ARCHIVE_DISABLED", "Report archive is not configured")
			return
		}
		url, err := report.Upload(ctx, h.Archive, runID, buf.Bytes())
		if err != nil {
			h.Logger.Error("sold count report upload failed", zap.String("runId", runID), zapError(err))
			response.Error(w, http.StatusBadGateway, "ARCHIVE_UNAVAILABLE", "Failed to upload report")
			return
		}
		w.Header().Set("X-Report-URL", url)
	}

	filename := fmt.Sprintf("sold-count_%s_%s.pdf", utils.DateInTimezone(rep.GeneratedAt, h.Config.ReportTimezone), strings.ToLower(string(code)))
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=\"%s\"", filename))
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("X-Report-Run-ID", runID)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (h *Handler) AdminTelemetry(w http.ResponseWriter, r *http.Request) {
	response.Success(w, map[string]any{
		"routes": middleware.LatencySnapshot(),
	})
}
