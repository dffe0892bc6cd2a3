package currency

import (
	"fmt"
	"math"
	"strings"

	xcurrency "golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// FormatAmount renders a decimal string for display in locale, e.g.
// "$ 1,200.00". If locale-aware formatting fails the plain form
// "SYMBOL 1200.00" is returned. Unparsable or non-finite amounts yield "".
func FormatAmount(amount string, c Code, locale string) string {
	v, ok := ParseAmount(amount)
	if !ok {
		return ""
	}
	return FormatValue(v, c, locale)
}

// FormatValue is FormatAmount for an already parsed value.
func FormatValue(v float64, c Code, locale string) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	c = Normalize(string(c))
	if s, err := formatLocalized(v, c, locale); err == nil && s != "" {
		return s
	}
	return plainFormat(v, c)
}

func formatLocalized(v float64, c Code, locale string) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("format %s in %q: %v", c, locale, r)
		}
	}()

	locale = strings.TrimSpace(locale)
	if locale == "" {
		return "", fmt.Errorf("empty locale")
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return "", err
	}
	unit, err := xcurrency.ParseISO(string(c))
	if err != nil {
		return "", err
	}
	p := message.NewPrinter(tag)
	return p.Sprint(xcurrency.Symbol(unit.Amount(v))), nil
}

func plainFormat(v float64, c Code) string {
	return fmt.Sprintf("%s %.2f", Symbol(c), v)
}
