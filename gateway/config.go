package gateway

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultCurrency        = "BTC"
	DefaultOrderExpiration = 15 * time.Minute
)

var ErrInvalidConfig = errors.New("invalid gateway config")

// Config describes one merchant endpoint
type Config struct {
	// Public numeric identifier. Never zero
	Id uint64 `yaml:"id"`
	// Shared with the merchant to sign orders
	Secret string `yaml:"secret"`
	// When set, every order must carry a valid signature and unsigned
	// requests are never throttled because they are never accepted
	CheckSignature bool `yaml:"check-signature"`
	Active         bool `yaml:"active"`
	// Accepted currency codes. Defaults to BTC
	Currencies      []string      `yaml:"currencies"`
	DefaultCurrency string        `yaml:"default-currency"`
	OrderExpiration time.Duration `yaml:"order-expiration"`
	// Merchant endpoint notified on every status change. Optional
	CallbackURL string `yaml:"callback-url"`
}

// HashedId is the identifier used in public URLs
func HashedId(id uint64) (hashed string) {
	sum := sha256.Sum256([]byte(strconv.FormatUint(id, 10)))
	return hex.EncodeToString(sum[:])
}

// Normalize fills defaults and validates the config
func (c Config) Normalize() (config Config, err error) {
	if c.Id == 0 {
		return c, fmt.Errorf("%w: id cannot be zero", ErrInvalidConfig)
	}
	if c.CheckSignature && c.Secret == "" {
		return c, fmt.Errorf("%w: gateway %d checks signatures but has no secret", ErrInvalidConfig, c.Id)
	}

	if len(c.Currencies) == 0 {
		c.Currencies = []string{DefaultCurrency}
	}
	currencies := make([]string, 0, len(c.Currencies))
	for _, currency := range c.Currencies {
		currencies = append(currencies, strings.ToUpper(strings.TrimSpace(currency)))
	}
	c.Currencies = currencies

	if c.DefaultCurrency == "" {
		c.DefaultCurrency = c.Currencies[0]
	}
	c.DefaultCurrency = strings.ToUpper(c.DefaultCurrency)
	if !slices.Contains(c.Currencies, c.DefaultCurrency) {
		return c, fmt.Errorf("%w: default currency %s is not accepted by gateway %d", ErrInvalidConfig, c.DefaultCurrency, c.Id)
	}

	if c.OrderExpiration < 0 {
		return c, fmt.Errorf("%w: order expiration cannot be negative", ErrInvalidConfig)
	}
	if c.OrderExpiration == 0 {
		c.OrderExpiration = DefaultOrderExpiration
	}

	if c.CallbackURL != "" {
		u, err := url.Parse(c.CallbackURL)
		if err != nil {
			return c, fmt.Errorf("%w: failed to parse callback url: %w", ErrInvalidConfig, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return c, fmt.Errorf("%w: callback url must be http or https", ErrInvalidConfig)
		}
	}
	return c, nil
}
