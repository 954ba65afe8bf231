package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type bsonDoc map[string]interface{}
type bsonArray []interface{}

func TestResolveFooter(t *testing.T) {
	settings := map[string]any{
		"footerText": "legacy text",
		"footer": bsonDoc{
			"text": bsonDoc{"en": "Made in Lahore", "ur": "لاہور میں بنایا گیا"},
			"sections": bsonArray{
				bsonDoc{
					"title": bsonDoc{"en": "Help"},
					"links": bsonArray{
						bsonDoc{"href": "/returns", "label": bsonDoc{"en": "Returns", "ur": "واپسی"}},
						bsonDoc{"href": "/faq"},
						bsonDoc{"label": bsonDoc{"en": "No href"}},
					},
				},
				"not a section",
			},
			"socialLinks": bsonArray{bsonDoc{"kind": "instagram", "href": "https://instagram.com/shop"}},
		},
	}

	ur := ResolveFooter(settings, "ur", "en")
	assert.Equal(t, "لاہور میں بنایا گیا", ur.Text)
	require.Len(t, ur.Sections, 1)
	assert.Equal(t, "Help", ur.Sections[0].Title)
	assert.Equal(t, []Link{{Href: "/returns", Label: "واپسی"}, {Href: "/faq", Label: "/faq"}}, ur.Sections[0].Links)
	require.Len(t, ur.SocialLinks, 1)
	assert.Equal(t, "https://instagram.com/shop", ur.SocialLinks[0].Label)
	assert.Empty(t, ur.PolicyLinks)

	en := ResolveFooter(settings, "en-GB", "en")
	assert.Equal(t, "Made in Lahore", en.Text)
	assert.Equal(t, "Returns", en.Sections[0].Links[0].Label)
}

func TestResolveFooterLegacyText(t *testing.T) {
	f := ResolveFooter(map[string]any{"footerText": "  Old footer "}, "en", "en")
	assert.Equal(t, "Old footer", f.Text)
	assert.NotNil(t, f.Sections)

	empty := ResolveFooter(nil, "en", "en")
	assert.Equal(t, "", empty.Text)
}
