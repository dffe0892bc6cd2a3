package controllers

import (
	"strings"
	"time"

	"github.com/ManuelReschke/Storefront/internal/pkg/constants"
	"github.com/ManuelReschke/Storefront/internal/pkg/currency"
	"github.com/gofiber/fiber/v2"
)

const preferenceCookieMaxAge = 365 * 24 * time.Hour

// PreferenceController reads and stores the visitor's preferred currency
type PreferenceController struct {
	secureCookie bool
}

// NewPreferenceController creates a new preference controller. secureCookie
// marks the cookie Secure (set when the app URL is https).
func NewPreferenceController(secureCookie bool) *PreferenceController {
	return &PreferenceController{secureCookie: secureCookie}
}

// HandleGetCurrency answers GET /preferences/currency.
func (pc *PreferenceController) HandleGetCurrency(c *fiber.Ctx) error {
	if pref, ok := cookieCurrency(c); ok {
		return c.JSON(fiber.Map{"currency": pref})
	}
	resolved := currency.ResolvePreferred(currency.Preference{
		Locale:  requestLocale(c, ""),
		Country: requestCountry(c),
	})
	return c.JSON(fiber.Map{"currency": resolved})
}

// HandleSetCurrency answers POST /preferences/currency with the stored value.
// Unsupported input is stored as the default currency.
func (pc *PreferenceController) HandleSetCurrency(c *fiber.Ctx) error {
	var body struct {
		Currency string `json:"currency" form:"currency"`
	}
	if len(c.Body()) > 0 {
		_ = c.BodyParser(&body)
	}
	raw := strings.TrimSpace(body.Currency)
	if raw == "" {
		raw = c.Query("currency")
	}
	normalized := currency.Normalize(raw)

	c.Cookie(&fiber.Cookie{
		Name:     constants.PreferredCurrencyCookie,
		Value:    normalized.String(),
		Path:     "/",
		MaxAge:   int(preferenceCookieMaxAge.Seconds()),
		Expires:  time.Now().Add(preferenceCookieMaxAge),
		Secure:   pc.secureCookie,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.JSON(fiber.Map{"currency": normalized})
}
