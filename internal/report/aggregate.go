// Package report derives the dashboard projections from persisted orders.
// The aggregations are pure: they are recomputed from the fetched orders on
// every request and keep no state between calls.
package report

import (
	"bytes"
	"sort"
	"time"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
	"github.com/vasiliy-maslov/retail-pos/internal/order"
)

const (
	DefaultTopN    = 5
	UnknownProduct = "Unknown"
)

type TopProduct struct {
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	Revenue   decimal.Decimal `json:"revenue"`
}

type MonthRevenue struct {
	Month   string          `json:"month"`
	Revenue decimal.Decimal `json:"revenue"`
}

type Summary struct {
	TotalSales    decimal.Decimal `json:"total_sales"`
	TotalProducts int             `json:"total_products"`
	TotalOrders   int             `json:"total_orders"`
}

// TopProducts ranks products of paid orders by price x quantity. Names come
// from names, falling back to UnknownProduct. Equal revenues are ordered by
// product id.
func TopProducts(orders []order.Order, names map[uuid.UUID]string, limit int) []TopProduct {
	if limit <= 0 {
		limit = DefaultTopN
	}

	revenue := make(map[uuid.UUID]decimal.Decimal)
	for _, o := range orders {
		if o.Status != order.StatusPaid {
			continue
		}
		for _, it := range o.Items {
			revenue[it.ProductID] = revenue[it.ProductID].Add(it.Subtotal())
		}
	}

	ranked := make([]TopProduct, 0, len(revenue))
	for id, total := range revenue {
		name, ok := names[id]
		if !ok || name == "" {
			name = UnknownProduct
		}
		ranked = append(ranked, TopProduct{ProductID: id, Name: name, Revenue: total})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if c := ranked[i].Revenue.Cmp(ranked[j].Revenue); c != 0 {
			return c > 0
		}
		return bytes.Compare(ranked[i].ProductID.Bytes(), ranked[j].ProductID.Bytes()) < 0
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// MonthlyRevenue sums paid order totals per calendar month of creation,
// in calendar order. Months without paid orders are omitted and years are
// not distinguished.
func MonthlyRevenue(orders []order.Order) []MonthRevenue {
	var sums [12]decimal.Decimal
	var seen [12]bool
	for _, o := range orders {
		if o.Status != order.StatusPaid {
			continue
		}
		m := o.CreatedAt.Month() - 1
		sums[m] = sums[m].Add(o.TotalAmount)
		seen[m] = true
	}

	result := make([]MonthRevenue, 0, 12)
	for i := range sums {
		if !seen[i] {
			continue
		}
		result = append(result, MonthRevenue{
			Month:   time.Month(i + 1).String()[:3],
			Revenue: sums[i],
		})
	}
	return result
}

// Summarize totals paid sales and carries the store-wide counts.
func Summarize(orders []order.Order, productCount, orderCount int) Summary {
	total := decimal.Zero
	for _, o := range orders {
		if o.Status == order.StatusPaid {
			total = total.Add(o.TotalAmount)
		}
	}
	return Summary{
		TotalSales:    total,
		TotalProducts: productCount,
		TotalOrders:   orderCount,
	}
}
