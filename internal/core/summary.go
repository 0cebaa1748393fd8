package core

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string
	Type   TxType
	Amount decimal.Decimal
}

func (c CategoryAmount) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Name   string  `json:"name"`
		Type   TxType  `json:"type"`
		Amount float64 `json:"amount"`
	}{c.Name, c.Type, c.Amount.InexactFloat64()})
}

// MonthOverview is a compact summary for a specific year+month.
type MonthOverview struct {
	Year       int              `json:"year"`
	Month      int              `json:"month"` // 1-12
	Summary    Summary          `json:"summary"`
	ByCategory []CategoryAmount `json:"byCategory"`
	Count      int              `json:"count"`
}

// ChartPoint is the income and expense of one month.
type ChartPoint struct {
	Label   string  `json:"label"`
	Year    int     `json:"year"`
	Month   int     `json:"month"`
	Income  float64 `json:"income"`
	Expense float64 `json:"expense"`
}

// Overview summarizes a bucket. Category totals follow the registry order
// and match on both name and type; zero totals are omitted.
func Overview(b MonthBucket, categories []Category) MonthOverview {
	ov := MonthOverview{
		Year:       b.Year,
		Month:      b.Month,
		Summary:    Summarize(b.Transactions),
		ByCategory: []CategoryAmount{},
		Count:      len(b.Transactions),
	}
	for _, c := range categories {
		total := decimal.Zero
		for _, t := range b.Transactions {
			if t.Type == c.Type && t.Category == c.Name {
				total = total.Add(Amount(t.Amount))
			}
		}
		if total.IsZero() {
			continue
		}
		ov.ByCategory = append(ov.ByCategory, CategoryAmount{Name: c.Name, Type: c.Type, Amount: total})
	}
	return ov
}

// YearOverview returns one overview per month of year.
func YearOverview(txs []Transaction, year int, categories []Category) [12]MonthOverview {
	var out [12]MonthOverview
	for i, b := range BucketByMonth(txs, year) {
		out[i] = Overview(b, categories)
	}
	return out
}

// Series converts buckets into chart points in the same order.
func Series(buckets []MonthBucket) []ChartPoint {
	points := make([]ChartPoint, 0, len(buckets))
	for _, b := range buckets {
		s := Summarize(b.Transactions)
		points = append(points, ChartPoint{
			Label:   time.Month(b.Month).String()[:3] + " " + strconv.Itoa(b.Year),
			Year:    b.Year,
			Month:   b.Month,
			Income:  s.Income.InexactFloat64(),
			Expense: s.Expense.InexactFloat64(),
		})
	}
	return points
}
