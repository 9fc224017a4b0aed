package dashboard

import (
	"context"
	"strings"
	"sync"

	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
)

// ConversionPair is one unique (amount, source currency) combination.
type ConversionPair struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

// Key identifies the pair independently of amount formatting ("10" == "10.00").
func (p ConversionPair) Key() string {
	return p.Currency + " " + p.Amount.String()
}

// Fallback is the unconverted display text, e.g. "USD 10.00".
func (p ConversionPair) Fallback() string {
	return p.Currency + " " + p.Amount.StringFixed(2)
}

// Converter performs one batched conversion round trip. The result holds one
// formatted string per pair, in order.
type Converter interface {
	ConvertBatch(ctx context.Context, token, target string, pairs []ConversionPair) ([]string, error)
}

// ConverterFunc adapts a function into a Converter.
type ConverterFunc func(ctx context.Context, token, target string, pairs []ConversionPair) ([]string, error)

// ConvertBatch implements Converter.
func (f ConverterFunc) ConvertBatch(ctx context.Context, token, target string, pairs []ConversionPair) ([]string, error) {
	return f(ctx, token, target, pairs)
}

// ConversionCache memoizes formatted conversions toward one target currency
// for the page lifetime. Changing the target flushes it.
type ConversionCache struct {
	mu     sync.Mutex
	target string
	items  *cache.Cache
}

// NewConversionCache builds an empty cache with no expiry.
func NewConversionCache() *ConversionCache {
	return &ConversionCache{items: cache.New(cache.NoExpiration, 0)}
}

// SetTarget switches the target currency, dropping entries for the old one.
// It reports whether the cache was flushed.
func (c *ConversionCache) SetTarget(target string) bool {
	target = strings.ToUpper(strings.TrimSpace(target))
	c.mu.Lock()
	defer c.mu.Unlock()
	if target == c.target {
		return false
	}
	flushed := c.target != ""
	c.target = target
	c.items.Flush()
	return flushed
}

// Target returns the current target currency.
func (c *ConversionCache) Target() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.target
}

// Lookup returns the cached text for pair converted to target.
func (c *ConversionCache) Lookup(target string, pair ConversionPair) (string, bool) {
	v, ok := c.items.Get(target + "|" + pair.Key())
	if !ok {
		return "", false
	}
	text, ok := v.(string)
	return text, ok
}

// Store records the formatted text for pair. Results for a target other than
// the current one are dropped, so a late batch cannot repopulate a flushed cache.
func (c *ConversionCache) Store(target string, pair ConversionPair, text string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if target != c.target {
		return false
	}
	c.items.Set(target+"|"+pair.Key(), text, cache.NoExpiration)
	return true
}

// Len returns the number of cached conversions.
func (c *ConversionCache) Len() int {
	return c.items.ItemCount()
}

// Flush drops every entry but keeps the target.
func (c *ConversionCache) Flush() {
	c.items.Flush()
}
