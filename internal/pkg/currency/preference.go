package currency

import (
	"strings"

	"golang.org/x/text/language"
)

// Preference carries the visitor signals used to pick a currency.
type Preference struct {
	Locale  string
	Country string
}

var localeCurrencies = map[string]Code{
	"en":    USD,
	"en-us": USD,
	"tr":    TRY,
	"tr-tr": TRY,
	"pt":    BRL,
	"pt-br": BRL,
}

var countryCurrencies = map[string]Code{
	"US": USD,
	"TR": TRY,
	"BR": BRL,
}

// ResolvePreferred picks a currency from locale first, then country, then
// falls back to Default.
func ResolvePreferred(p Preference) Code {
	if c, ok := currencyForLocale(p.Locale); ok {
		return c
	}
	if c, ok := countryCurrencies[strings.ToUpper(strings.TrimSpace(p.Country))]; ok {
		return c
	}
	return Default
}

func currencyForLocale(locale string) (Code, bool) {
	l := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(locale), "_", "-"))
	if l == "" {
		return "", false
	}
	if c, ok := localeCurrencies[l]; ok {
		return c, true
	}
	base := l
	if i := strings.IndexByte(l, '-'); i > 0 {
		base = l[:i]
	}
	c, ok := localeCurrencies[base]
	return c, ok
}

// supportedLocales are the locales with routed pages; language.Matcher picks
// the closest one.
var supportedLocales = []language.Tag{
	language.English,
	language.Turkish,
	language.BrazilianPortuguese,
}

var localeMatcher = language.NewMatcher(supportedLocales)

// NormalizeLocale maps any locale string onto a routed locale ("en", "tr",
// "pt-BR"), defaulting to "en".
func NormalizeLocale(locale string) string {
	locale = strings.TrimSpace(locale)
	if locale == "" {
		return "en"
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return "en"
	}
	_, idx, conf := localeMatcher.Match(tag)
	if conf == language.No {
		return "en"
	}
	return supportedLocales[idx].String()
}

// LocaleFromAcceptLanguage returns the highest-weighted tag of an
// Accept-Language header, or "" when the header is empty or malformed.
func LocaleFromAcceptLanguage(header string) string {
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 {
		return ""
	}
	return tags[0].String()
}
