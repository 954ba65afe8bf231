package i18n

import (
	"sort"
	"strings"

	"storefront-services/internal/model"
	"storefront-services/internal/utils"

	"golang.org/x/text/language"
)

func lookup(text model.LocalizedText, lang string) (string, bool) {
	lang = strings.TrimSpace(lang)
	if lang == "" {
		return "", false
	}
	if v, ok := text[lang]; ok && strings.TrimSpace(v) != "" {
		return v, true
	}
	// "en-US" falls back to "en".
	tag, err := language.Parse(lang)
	if err != nil {
		return "", false
	}
	base, _ := tag.Base()
	if v, ok := text[base.String()]; ok && strings.TrimSpace(v) != "" {
		return v, true
	}
	return "", false
}

// Pick returns the text for lang, then fallback, then the first non-blank
// value in key order, then "".
func Pick(text model.LocalizedText, lang, fallback string) string {
	if v, ok := lookup(text, lang); ok {
		return v
	}
	if v, ok := lookup(text, fallback); ok {
		return v
	}

	keys := make([]string, 0, len(text))
	for k := range text {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if strings.TrimSpace(text[k]) != "" {
			return text[k]
		}
	}
	return ""
}

// Has reports whether lang itself carries non-blank text.
func Has(text model.LocalizedText, lang string) bool {
	v, ok := text[strings.TrimSpace(lang)]
	return ok && strings.TrimSpace(v) != ""
}

// FromAny converts a decoded document value into LocalizedText, dropping
// non-string entries. Non-documents yield an empty map.
func FromAny(v any) model.LocalizedText {
	out := model.LocalizedText{}
	if m, ok := v.(map[string]string); ok {
		for k, s := range m {
			out[k] = s
		}
		return out
	}
	m, ok := utils.RecordOf(v)
	if !ok {
		return out
	}
	for k, raw := range m {
		if s, ok := raw.(string); ok {
			out[k] = s
		}
	}
	return out
}
