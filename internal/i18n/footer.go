package i18n

import (
	"strings"

	"storefront-services/internal/utils"
)

type Link struct {
	Href  string `json:"href"`
	Label string `json:"label"`
}

type SocialLink struct {
	Kind  string `json:"kind"`
	Href  string `json:"href"`
	Label string `json:"label"`
}

type FooterSection struct {
	Title string `json:"title"`
	Links []Link `json:"links"`
}

type Footer struct {
	Text        string          `json:"text"`
	Sections    []FooterSection `json:"sections"`
	PolicyLinks []Link          `json:"policyLinks"`
	SocialLinks []SocialLink    `json:"socialLinks"`
}

// ResolveFooter renders the footer of a settings document in lang. The
// legacy plain footerText is used when no localized text exists. Links
// without an href are dropped; a missing label falls back to the href.
func ResolveFooter(settings map[string]any, lang, fallback string) Footer {
	footer := utils.AsRecord(settings["footer"])

	text := Pick(FromAny(footer["text"]), lang, fallback)
	if text == "" {
		if legacy, ok := settings["footerText"].(string); ok {
			text = strings.TrimSpace(legacy)
		}
	}

	out := Footer{
		Text:        text,
		Sections:    []FooterSection{},
		PolicyLinks: resolveLinks(footer["policyLinks"], lang, fallback),
		SocialLinks: []SocialLink{},
	}

	for _, raw := range utils.AsList(footer["sections"]) {
		section, ok := utils.RecordOf(raw)
		if !ok {
			continue
		}
		out.Sections = append(out.Sections, FooterSection{
			Title: Pick(FromAny(section["title"]), lang, fallback),
			Links: resolveLinks(section["links"], lang, fallback),
		})
	}

	for _, raw := range utils.AsList(footer["socialLinks"]) {
		link, ok := utils.RecordOf(raw)
		if !ok {
			continue
		}
		href := trimmed(link["href"])
		if href == "" {
			continue
		}
		out.SocialLinks = append(out.SocialLinks, SocialLink{
			Kind:  trimmed(link["kind"]),
			Href:  href,
			Label: labelOr(link["label"], href, lang, fallback),
		})
	}
	return out
}

func resolveLinks(v any, lang, fallback string) []Link {
	out := []Link{}
	for _, raw := range utils.AsList(v) {
		link, ok := utils.RecordOf(raw)
		if !ok {
			continue
		}
		href := trimmed(link["href"])
		if href == "" {
			continue
		}
		out = append(out, Link{Href: href, Label: labelOr(link["label"], href, lang, fallback)})
	}
	return out
}

func labelOr(v any, href, lang, fallback string) string {
	if label := Pick(FromAny(v), lang, fallback); label != "" {
		return label
	}
	return href
}

func trimmed(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}
