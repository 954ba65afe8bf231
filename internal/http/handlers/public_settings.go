package handlers

import (
	"net/http"
	"strings"

	"storefront-services/internal/i18n"
	"storefront-services/internal/shipping"
	"storefront-services/pkg/response"
)

func (h *Handler) PublicStorefrontSettings(w http.ResponseWriter, r *http.Request) {
	raw, err := h.Store.StorefrontSettings(r.Context())
	if err != nil {
		h.Logger.Error("storefront settings load failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load settings")
		return
	}
	response.Success(w, shipping.NormalizeStorefront(raw))
}

// PublicFooter returns the footer resolved into ?lang, falling back to the
// configured languages.
func (h *Handler) PublicFooter(w http.ResponseWriter, r *http.Request) {
	raw, err := h.Store.StorefrontSettings(r.Context())
	if err != nil {
		h.Logger.Error("footer settings load failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load settings")
		return
	}

	lang := strings.TrimSpace(r.URL.Query().Get("lang"))
	if lang == "" {
		lang = h.Config.DefaultLanguage
	}
	footer := i18n.ResolveFooter(raw, lang, h.Config.FallbackLanguage)
	response.Success(w, map[string]any{
		"lang":   lang,
		"footer": footer,
	})
}
