package currency

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolvePreferred(t *testing.T) {
	tests := []struct {
		name string
		in   Preference
		want Code
	}{
		{name: "locale only", in: Preference{Locale: "tr"}, want: TRY},
		{name: "regional locale", in: Preference{Locale: "pt-BR"}, want: BRL},
		{name: "underscore locale", in: Preference{Locale: "pt_BR"}, want: BRL},
		{name: "locale beats country", in: Preference{Locale: "tr-TR", Country: "BR"}, want: TRY},
		{name: "country when locale unmapped", in: Preference{Locale: "de", Country: "br"}, want: BRL},
		{name: "country only", in: Preference{Country: "TR"}, want: TRY},
		{name: "nothing", in: Preference{}, want: Default},
		{name: "unmapped everything", in: Preference{Locale: "fr", Country: "FR"}, want: Default},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolvePreferred(tt.in))
		})
	}
}

func TestNormalizeLocale(t *testing.T) {
	assert.Equal(t, "en", NormalizeLocale(""))
	assert.Equal(t, "en", NormalizeLocale("en-GB"))
	assert.Equal(t, "tr", NormalizeLocale("tr-TR"))
	assert.Equal(t, "pt-BR", NormalizeLocale("pt-BR"))
	assert.Equal(t, "en", NormalizeLocale("!!"))
	assert.Equal(t, "en", NormalizeLocale("ja"))
}

func TestLocaleFromAcceptLanguage(t *testing.T) {
	assert.Equal(t, "tr-TR", LocaleFromAcceptLanguage("tr-TR,tr;q=0.9,en;q=0.8"))
	assert.Equal(t, "", LocaleFromAcceptLanguage(""))
}
