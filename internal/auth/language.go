package auth

import (
	"strings"

	"golang.org/x/text/language"

	"roadsafe-quiz/internal/models"
)

// Tags line up index-for-index with models.SupportedLanguages.
var supportedTags = []language.Tag{
	language.English,
	language.French,
	language.MustParse("rw"),
}

var matcher = language.NewMatcher(supportedTags)

// NegotiateLanguage picks the backend language code from an explicit choice,
// then the Accept-Language header, then the fallback, then English.
func NegotiateLanguage(explicit, acceptLanguage, fallback string) string {
	if code, ok := NormalizeLanguage(explicit); ok {
		return code
	}

	if acceptLanguage != "" {
		tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
		if err == nil && len(tags) > 0 {
			_, idx, conf := matcher.Match(tags...)
			if conf != language.No {
				return models.SupportedLanguages[idx]
			}
		}
	}

	if code, ok := NormalizeLanguage(fallback); ok {
		return code
	}
	return models.LanguageEnglish
}

// NormalizeLanguage maps "fr", "fr-CA" or "french" to the backend code.
func NormalizeLanguage(lang string) (string, bool) {
	l := strings.ToLower(strings.TrimSpace(lang))
	if l == "" {
		return "", false
	}
	for _, code := range models.SupportedLanguages {
		if l == code {
			return code, true
		}
	}

	tag, err := language.Parse(l)
	if err != nil {
		return "", false
	}
	base, _ := tag.Base()
	for i, t := range supportedTags {
		b, _ := t.Base()
		if b == base {
			return models.SupportedLanguages[i], true
		}
	}
	return "", false
}
