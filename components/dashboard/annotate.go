package dashboard

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/circuitbreaker"
	"github.com/failsafe-go/failsafe-go/timeout"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DefaultConversionTimeout bounds the batched conversion call.
const DefaultConversionTimeout = 3 * time.Second

// AnnotatorOptions configures a PriceAnnotator.
type AnnotatorOptions struct {
	Timeout   time.Duration
	Breaker   circuitbreaker.CircuitBreaker[[]string]
	Telemetry Telemetry
	Logger    *zap.Logger
}

// AnnotationResult summarizes one annotation pass.
type AnnotationResult struct {
	Nodes     int  `json:"nodes"`
	Unique    int  `json:"unique"`
	Requested int  `json:"requested"`
	Calls     int  `json:"calls"`
	Skipped   bool `json:"skipped"`
	Fallback  bool `json:"fallback"`
	// Discarded is set when ctx ended before the results could be applied.
	Discarded bool `json:"discarded"`
}

// PriceAnnotator rewrites price-bearing nodes into the viewer currency using
// one batched conversion call per pass.
type PriceAnnotator struct {
	converter Converter
	cache     *ConversionCache
	executor  failsafe.Executor[[]string]
	telemetry Telemetry
	logger    *zap.Logger
}

// NewPriceAnnotator builds an annotator. A nil cache gets a fresh one.
func NewPriceAnnotator(converter Converter, conversions *ConversionCache, opts AnnotatorOptions) *PriceAnnotator {
	if conversions == nil {
		conversions = NewConversionCache()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultConversionTimeout
	}
	if opts.Breaker == nil {
		opts.Breaker = circuitbreaker.NewBuilder[[]string]().
			WithFailureThresholdRatio(3, 5).
			WithDelay(30 * time.Second).
			Build()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &PriceAnnotator{
		converter: converter,
		cache:     conversions,
		executor:  failsafe.With[[]string](opts.Breaker, timeout.New[[]string](opts.Timeout)),
		telemetry: normalizeTelemetry(opts.Telemetry),
		logger:    opts.Logger,
	}
}

// Cache exposes the conversion cache.
func (a *PriceAnnotator) Cache() *ConversionCache {
	return a.cache
}

// Converts reports whether Annotate would call the converter for session.
func (a *PriceAnnotator) Converts(session Session) bool {
	return session.Role == RoleUser && a.converter != nil
}

// ApplyFallback writes the stored "CUR amount" form into every price node
// under root and returns how many nodes it touched.
func ApplyFallback(root Node) int {
	found := ScanPrices(root)
	for _, ann := range found {
		pair := ConversionPair{Amount: ann.Amount, Currency: ann.Currency}
		ann.Node.SetText(pair.Fallback())
	}
	return len(found)
}

// ScanPrices returns the price-bearing nodes under root in document order.
// Nodes without a currency attribute are treated as DefaultCurrency; nodes
// whose amount does not parse are skipped.
func ScanPrices(root Node) []PriceAnnotation {
	var out []PriceAnnotation
	Walk(root, func(n Node) bool {
		raw, ok := n.Attr(AttrPrice)
		if !ok {
			return true
		}
		amount, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(raw), ",", ""))
		if err != nil {
			return true
		}
		currency, _ := n.Attr(AttrCurrency)
		currency = strings.ToUpper(strings.TrimSpace(currency))
		if currency == "" {
			currency = DefaultCurrency
		}
		out = append(out, PriceAnnotation{Node: n, Amount: amount, Currency: currency})
		return true
	})
	return out
}

// Annotate converts every price node under root for the session viewer.
// Only buyer sessions are converted; other roles and any conversion failure
// show the stored "CUR amount" form. Nothing is written when ctx is done by
// the time the conversion returns. Annotate never returns an error.
func (a *PriceAnnotator) Annotate(ctx context.Context, root Node, session Session) AnnotationResult {
	found := ScanPrices(root)
	result := AnnotationResult{Nodes: len(found)}
	if len(found) == 0 {
		return result
	}

	index := make(map[string]int)
	var unique []ConversionPair
	for _, ann := range found {
		pair := ConversionPair{Amount: ann.Amount, Currency: ann.Currency}
		if _, seen := index[pair.Key()]; !seen {
			index[pair.Key()] = len(unique)
			unique = append(unique, pair)
		}
	}
	result.Unique = len(unique)

	texts := make(map[string]string, len(unique))
	if !a.Converts(session) {
		result.Skipped = true
		for _, pair := range unique {
			texts[pair.Key()] = pair.Fallback()
		}
		applyTexts(found, texts)
		return result
	}

	target := session.PreferredCurrency()
	a.cache.SetTarget(target)
	var missing []ConversionPair
	for _, pair := range unique {
		if text, ok := a.cache.Lookup(target, pair); ok {
			texts[pair.Key()] = text
			continue
		}
		missing = append(missing, pair)
	}
	result.Requested = len(missing)

	if len(missing) > 0 {
		result.Calls = 1
		converted, err := a.convert(ctx, session.Token, target, missing)
		switch {
		case ctx.Err() != nil:
			result.Discarded = true
			a.logger.Debug("discarding price conversion", zap.String("target", target))
			return result
		case err != nil:
			result.Fallback = true
			a.logger.Warn("price conversion failed", zap.String("target", target), zap.Error(err))
			a.telemetry.Record(ctx, "dashboard.prices.fallback", map[string]any{
				"target": target,
				"pairs":  len(missing),
				"error":  err.Error(),
			})
			for _, pair := range missing {
				texts[pair.Key()] = pair.Fallback()
			}
		default:
			for i, pair := range missing {
				texts[pair.Key()] = converted[i]
				a.cache.Store(target, pair, converted[i])
			}
		}
	}

	applyTexts(found, texts)
	a.telemetry.Record(ctx, "dashboard.prices.annotate", map[string]any{
		"target":    target,
		"nodes":     result.Nodes,
		"unique":    result.Unique,
		"requested": result.Requested,
		"fallback":  result.Fallback,
	})
	return result
}

func (a *PriceAnnotator) convert(ctx context.Context, token, target string, pairs []ConversionPair) ([]string, error) {
	converted, err := a.executor.WithContext(ctx).GetWithExecution(func(exec failsafe.Execution[[]string]) ([]string, error) {
		return a.converter.ConvertBatch(exec.Context(), token, target, pairs)
	})
	if err != nil {
		return nil, err
	}
	if len(converted) != len(pairs) {
		return nil, fmt.Errorf("dashboard: conversion returned %d results for %d pairs", len(converted), len(pairs))
	}
	return converted, nil
}

func applyTexts(found []PriceAnnotation, texts map[string]string) {
	for _, ann := range found {
		pair := ConversionPair{Amount: ann.Amount, Currency: ann.Currency}
		ann.Node.SetText(texts[pair.Key()])
	}
}
