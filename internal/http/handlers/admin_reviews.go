package handlers

import (
	"net/http"

	"storefront-services/internal/store"
	"storefront-services/pkg/response"

	"go.uber.org/zap"
)

func (h *Handler) adminReviewSetHidden(w http.ResponseWriter, r *http.Request, hidden bool) {
	id := readPathString(r, "id")
	review, err := h.Reviews.SetHidden(r.Context(), id, hidden)
	if err != nil {
		h.writeServiceError(w, err, "review visibility update failed")
		return
	}
	h.Logger.Info("review visibility changed", zap.String("reviewId", id), zap.Bool("hidden", hidden))
	response.Success(w, review)
}

func (h *Handler) AdminReviewHide(w http.ResponseWriter, r *http.Request) {
	h.adminReviewSetHidden(w, r, true)
}

func (h *Handler) AdminReviewUnhide(w http.ResponseWriter, r *http.Request) {
	h.adminReviewSetHidden(w, r, false)
}

func (h *Handler) AdminReviewDelete(w http.ResponseWriter, r *http.Request) {
	id := readPathString(r, "id")
	review, err := h.Reviews.Delete(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err, "review delete failed")
		return
	}
	h.Logger.Info("review deleted", zap.String("reviewId", id), zap.String("productId", review.ProductID))
	response.Success(w, map[string]any{"id": review.ID, "deleted": true})
}

type reviewPatchRequest struct {
	Rating   *int    `json:"rating"`
	Comment  *string `json:"comment"`
	IsHidden *bool   `json:"isHidden"`
}

func (h *Handler) AdminReviewUpdate(w http.ResponseWriter, r *http.Request) {
	var body reviewPatchRequest
	if !decodeBody(w, r, &body) {
		return
	}
	if body.Rating == nil && body.Comment == nil && body.IsHidden == nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Nothing to update")
		return
	}

	review, recomputed, err := h.Reviews.Update(r.Context(), readPathString(r, "id"), store.ReviewPatch{
		Rating:   body.Rating,
		Comment:  body.Comment,
		IsHidden: body.IsHidden,
	})
	if err != nil {
		h.writeServiceError(w, err, "review update failed")
		return
	}
	response.Success(w, map[string]any{
		"review":     review,
		"recomputed": recomputed,
	})
}
