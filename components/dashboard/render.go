package dashboard

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Renderer turns a section's data into UI tree content.
type Renderer interface {
	Render(ctx context.Context, section SectionDescriptor, data SectionData) (Node, error)
}

// RendererFunc adapts a function into a Renderer.
type RendererFunc func(ctx context.Context, section SectionDescriptor, data SectionData) (Node, error)

// Render implements Renderer.
func (f RendererFunc) Render(ctx context.Context, section SectionDescriptor, data SectionData) (Node, error) {
	return f(ctx, section, data)
}

// priceFields are record keys rendered as price-bearing nodes.
var priceFields = map[string]bool{
	"price":         true,
	"amount":        true,
	"total":         true,
	"totalAmount":   true,
	"balance":       true,
	"pendingAmount": true,
}

// TableRenderer renders records as rows of cells. Price fields become
// price-bearing nodes tagged with their stored currency.
type TableRenderer struct{}

// Render implements Renderer.
func (TableRenderer) Render(_ context.Context, section SectionDescriptor, data SectionData) (Node, error) {
	root := NewElement("section", map[string]string{AttrSection: section.ID})
	switch {
	case data.State == CacheError:
		msg := "Could not load data."
		if data.Err != nil {
			msg = data.Err.Error()
		}
		root.Append(NewElement("div", map[string]string{"role": "alert"}, TextElement("p", msg)))
		return root, nil
	case len(data.Records) == 0:
		root.Append(TextElement("p", "Nothing to show yet."))
		return root, nil
	}
	table := NewElement("table", nil)
	for _, record := range data.Records {
		table.Append(renderRow(record))
	}
	return root.Append(table), nil
}

func renderRow(record Record) *Element {
	row := NewElement("tr", map[string]string{AttrRecord: record.ID()})
	keys := make([]string, 0, len(record))
	for key := range record {
		if strings.HasPrefix(key, "_") || key == "currency" {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	currency, _ := record["currency"].(string)
	for _, key := range keys {
		value := record[key]
		cell := NewElement("td", map[string]string{"data-field": key})
		if priceFields[key] {
			if amount, ok := toDecimal(value); ok {
				cell.Append(PriceElement(amount.StringFixed(2), currency))
				row.Append(cell)
				continue
			}
		}
		cell.SetText(fmt.Sprint(value))
		row.Append(cell)
	}
	return row
}

func toDecimal(value any) (decimal.Decimal, bool) {
	switch v := value.(type) {
	case decimal.Decimal:
		return v, true
	case float64:
		return decimal.NewFromFloat(v), true
	case int:
		return decimal.NewFromInt(int64(v)), true
	case int64:
		return decimal.NewFromInt(v), true
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(v))
		return d, err == nil
	}
	return decimal.Decimal{}, false
}
