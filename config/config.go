// Package config loads application settings from the environment (and an
// optional .env file) plus the export style file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// QuoteDefaults are the parameters a new quote starts with.
type QuoteDefaults struct {
	DiscountPercent decimal.Decimal
	MarkupPercent   decimal.Decimal
	VATPercent      decimal.Decimal
	Unit            string
}

// TermsDefaults fill empty free-text terms on exported documents.
type TermsDefaults struct {
	DeliveryTime        string
	Warranty            string
	SelfPickupWarehouse string
	CompanyName         string
}

// Config holds everything read at startup. It is built once in main and
// passed to the handlers that need it.
type Config struct {
	Quote        QuoteDefaults
	Terms        TermsDefaults
	NumberBase   int
	GroupMarkers []string
	StyleFile    string
}

// DefaultQuoteDefaults returns discount 0, markup 0, VAT 20 and unit "шт.".
func DefaultQuoteDefaults() QuoteDefaults {
	return QuoteDefaults{
		DiscountPercent: decimal.Zero,
		MarkupPercent:   decimal.Zero,
		VATPercent:      decimal.NewFromInt(20),
		Unit:            "шт.",
	}
}

// DefaultTermsDefaults returns the terms printed when a quote leaves them empty.
func DefaultTermsDefaults() TermsDefaults {
	return TermsDefaults{
		DeliveryTime:        "3-4 недели",
		Warranty:            "24 мес.",
		SelfPickupWarehouse: "МО, г. Люберцы, ул. Красная д 1, лит. С",
	}
}

// Load reads .env (if present) and the QUOTEDESK_* environment variables.
func Load() (Config, error) {
	// A missing .env file is normal outside development.
	_ = godotenv.Load()

	cfg := Config{
		Quote:      DefaultQuoteDefaults(),
		Terms:      DefaultTermsDefaults(),
		NumberBase: 60,
	}

	var err error
	if cfg.Quote.VATPercent, err = getEnvPercent("QUOTEDESK_DEFAULT_VAT", cfg.Quote.VATPercent); err != nil {
		return Config{}, err
	}
	if cfg.Quote.MarkupPercent, err = getEnvPercent("QUOTEDESK_DEFAULT_MARKUP", cfg.Quote.MarkupPercent); err != nil {
		return Config{}, err
	}
	if cfg.Quote.DiscountPercent, err = getEnvPercent("QUOTEDESK_DEFAULT_DISCOUNT", cfg.Quote.DiscountPercent); err != nil {
		return Config{}, err
	}
	cfg.Quote.Unit = getEnv("QUOTEDESK_DEFAULT_UNIT", cfg.Quote.Unit)

	if cfg.NumberBase, err = getEnvInt("QUOTEDESK_NUMBER_BASE", cfg.NumberBase); err != nil {
		return Config{}, err
	}
	if cfg.NumberBase < 0 {
		return Config{}, fmt.Errorf("QUOTEDESK_NUMBER_BASE must not be negative, got %d", cfg.NumberBase)
	}

	cfg.GroupMarkers = splitList(os.Getenv("QUOTEDESK_GROUP_MARKERS"))
	cfg.StyleFile = os.Getenv("QUOTEDESK_STYLE_FILE")

	cfg.Terms.DeliveryTime = getEnv("QUOTEDESK_DELIVERY_TIME", cfg.Terms.DeliveryTime)
	cfg.Terms.Warranty = getEnv("QUOTEDESK_WARRANTY", cfg.Terms.Warranty)
	cfg.Terms.SelfPickupWarehouse = getEnv("QUOTEDESK_PICKUP_WAREHOUSE", cfg.Terms.SelfPickupWarehouse)
	cfg.Terms.CompanyName = getEnv("QUOTEDESK_COMPANY_NAME", cfg.Terms.CompanyName)

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q: %w", key, v, err)
	}
	return n, nil
}

func getEnvPercent(key string, fallback decimal.Decimal) (decimal.Decimal, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(v, ",", "."))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: invalid decimal %q: %w", key, v, err)
	}
	if d.IsNegative() || d.GreaterThan(decimal.NewFromInt(100)) {
		return decimal.Zero, fmt.Errorf("%s: %s is outside 0..100", key, d.String())
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
